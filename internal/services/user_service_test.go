package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
)

func TestResolveActorCreatesProfileOnce(t *testing.T) {
	env := newTestEnv(t)
	id := &profile.Identity{
		UserID: uuid.New(),
		Email:  "ines@example.org",
		Metadata: map[string]any{
			"full_name":   "Inés Duarte",
			"institution": "UFRJ",
			"is_external": true,
		},
	}

	first, err := env.svc.Users.ResolveActor(env.ctx, id)
	require.NoError(t, err)
	assert.True(t, first.HasProfile())
	assert.Equal(t, []profile.Role{profile.RoleUser}, first.Roles)

	second, err := env.svc.Users.ResolveActor(env.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, first.ProfileID, second.ProfileID)

	me, err := env.svc.Users.Me(env.ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "Inés Duarte", me.FullName)
	require.NotNil(t, me.Institution)
	assert.Equal(t, "UFRJ", *me.Institution)
	assert.True(t, me.IsExternal)

	all, err := env.store.Profiles().List(env.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateMyProfile(t *testing.T) {
	env := newTestEnv(t)
	actor := env.actor(t, "ines@example.org")

	got, err := env.svc.Users.UpdateMyProfile(env.ctx, actor, UpdateProfileRequest{
		FullName: " Inés D. ", Phone: ptr("+55 21 5555"), IsExternal: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Inés D.", got.FullName)
	assert.Equal(t, actor.ProfileID, got.ID)
	assert.Contains(t, got.Roles, profile.RoleUser)

	_, err = env.svc.Users.UpdateMyProfile(env.ctx, actor, UpdateProfileRequest{FullName: " "})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestRoleManagement(t *testing.T) {
	env := newTestEnv(t)
	admin := env.actor(t, "chair@example.org", profile.RoleAdmin)
	member := env.actor(t, "ines@example.org")

	created, err := env.svc.Users.AddRole(env.ctx, member.UserID, "judge")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.svc.Users.AddRole(env.ctx, member.UserID, "JUDGE")
	require.NoError(t, err)
	assert.False(t, created, "a duplicate grant reports created=false")

	_, err = env.svc.Users.AddRole(env.ctx, member.UserID, "superuser")
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.svc.Users.AddRole(env.ctx, uuid.New(), "judge")
	assert.ErrorIs(t, err, common.ErrNotFound)

	users, err := env.svc.Users.ListUsers(env.ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		if u.UserID == member.UserID {
			assert.ElementsMatch(t, []profile.Role{profile.RoleUser, profile.RoleJudge}, u.Roles)
		}
	}

	err = env.svc.Users.RemoveRole(env.ctx, admin, admin.UserID, "admin")
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, env.svc.Users.RemoveRole(env.ctx, admin, member.UserID, "judge"))

	err = env.svc.Users.RemoveRole(env.ctx, admin, member.UserID, "judge")
	var nf *common.NotFoundError
	assert.True(t, errors.As(err, &nf))
}
