package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/storage/memory"
)

func TestGrantAdmin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("not allowed", func(t *testing.T) {
		err := env.svc.AdminGrant.Grant(env.ctx, &profile.Identity{UserID: uuid.New(), Email: "someone@example.org"})
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("missing email", func(t *testing.T) {
		err := env.svc.AdminGrant.Grant(env.ctx, &profile.Identity{UserID: uuid.New()})
		assert.ErrorIs(t, err, ErrNotAllowed)
	})

	t.Run("creates profile and role idempotently", func(t *testing.T) {
		id := &profile.Identity{
			UserID:   uuid.New(),
			Email:    "chair@example.org",
			Metadata: map[string]any{"phone": "555-0101"},
		}
		require.NoError(t, env.svc.AdminGrant.Grant(env.ctx, id))
		require.NoError(t, env.svc.AdminGrant.Grant(env.ctx, id))

		p, err := env.store.Profiles().GetByUserID(env.ctx, id.UserID)
		require.NoError(t, err)
		assert.Equal(t, "chair@example.org", p.FullName, "full_name falls back to the email")
		require.NotNil(t, p.Phone)
		assert.Equal(t, "555-0101", *p.Phone)

		roles, err := env.store.Roles().ListByUser(env.ctx, id.UserID)
		require.NoError(t, err)
		assert.Equal(t, []profile.Role{profile.RoleAdmin}, roles)
	})

	t.Run("keeps an existing profile", func(t *testing.T) {
		actor := env.actor(t, "chair@example.org")
		require.NoError(t, env.svc.AdminGrant.Grant(env.ctx, &profile.Identity{UserID: actor.UserID, Email: actor.Email}))

		p, err := env.store.Profiles().GetByUserID(env.ctx, actor.UserID)
		require.NoError(t, err)
		assert.Equal(t, actor.ProfileID, p.ID)
	})
}

type failingRoles struct {
	profile.RoleRepository
}

func (failingRoles) Add(ctx context.Context, userID uuid.UUID, role profile.Role) (bool, error) {
	return false, errors.New("connection reset")
}

type failingRolesStore struct {
	*memory.Store
}

func (failingRolesStore) Roles() profile.RoleRepository {
	return failingRoles{}
}

func TestGrantAdminReportsRoleFailure(t *testing.T) {
	store := failingRolesStore{memory.NewStore()}
	svc := NewAdminGrantService(store, func(string) bool { return true })

	err := svc.Grant(context.Background(), &profile.Identity{UserID: uuid.New(), Email: "chair@example.org"})
	var grantErr *GrantError
	require.ErrorAs(t, err, &grantErr)
	assert.Equal(t, GrantRoleInsertFailed, grantErr.Kind)
}
