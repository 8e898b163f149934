package profile

import (
	"context"

	"github.com/google/uuid"
)

type ProfileRepository interface {
	// Create fails with common.ErrConflict when the user already has a profile.
	Create(ctx context.Context, p *Profile) error
	// Upsert inserts or updates the editable fields of the profile keyed by user_id.
	Upsert(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByUserID(ctx context.Context, userID uuid.UUID) (*Profile, error)
	List(ctx context.Context) ([]*Profile, error)
}

type RoleRepository interface {
	// Add is idempotent; created is false when the role was already held.
	Add(ctx context.Context, userID uuid.UUID, role Role) (created bool, err error)
	Remove(ctx context.Context, userID uuid.UUID, role Role) (removed bool, err error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Role, error)
	ListAll(ctx context.Context) ([]UserRole, error)
}
