package profile

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProfileFromIdentity(t *testing.T) {
	userID := uuid.New()

	t.Run("uses metadata when present", func(t *testing.T) {
		p := NewProfileFromIdentity(&Identity{
			UserID: userID,
			Email:  "ana@uni.edu",
			Metadata: map[string]any{
				"full_name":   "Ana Souza",
				"phone":       "+55 11 5555",
				"institution": "UNI",
				"is_external": true,
			},
		})

		assert.Equal(t, userID, p.UserID)
		assert.Equal(t, "Ana Souza", p.FullName)
		require.NotNil(t, p.Phone)
		assert.Equal(t, "+55 11 5555", *p.Phone)
		require.NotNil(t, p.Institution)
		assert.Equal(t, "UNI", *p.Institution)
		assert.True(t, p.IsExternal)
		assert.NoError(t, p.Validate())
	})

	t.Run("falls back to email", func(t *testing.T) {
		p := NewProfileFromIdentity(&Identity{UserID: userID, Email: "bo@uni.edu", Metadata: map[string]any{"full_name": "  ", "is_external": "TRUE"}})

		assert.Equal(t, "bo@uni.edu", p.FullName)
		assert.Nil(t, p.Phone)
		assert.Nil(t, p.Institution)
		assert.True(t, p.IsExternal)
	})

	t.Run("nil metadata", func(t *testing.T) {
		p := NewProfileFromIdentity(&Identity{UserID: userID, Email: "c@uni.edu"})
		assert.Equal(t, "c@uni.edu", p.FullName)
		assert.False(t, p.IsExternal)
	})
}

func TestRoles(t *testing.T) {
	r, err := ParseRole(" Judge ")
	require.NoError(t, err)
	assert.Equal(t, RoleJudge, r)

	_, err = ParseRole("superuser")
	assert.Error(t, err)

	var scanned Role
	require.NoError(t, scanned.Scan([]byte("admin")))
	assert.Equal(t, RoleAdmin, scanned)

	_, err = Role("root").Value()
	assert.Error(t, err)
}

func TestActor(t *testing.T) {
	var nobody *Actor
	assert.False(t, nobody.IsAdmin())
	assert.False(t, nobody.HasProfile())

	a := &Actor{UserID: uuid.New(), ProfileID: uuid.New(), Roles: []Role{RoleJudge}}
	assert.True(t, a.HasRole(RoleJudge))
	assert.False(t, a.IsAdmin())
	assert.True(t, a.HasProfile())
}
