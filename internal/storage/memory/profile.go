package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
)

// ProfileRepository is the in-memory profile store
type ProfileRepository struct {
	s *Store
}

func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if r.byUserLocked(p.UserID) != nil {
		return common.Conflict("profile for user %s already exists", p.UserID)
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.s.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt
	r.s.profiles[p.ID] = clone(p)
	return nil
}

func (r *ProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	existing := r.byUserLocked(p.UserID)
	if existing == nil {
		if p.ID == uuid.Nil {
			p.ID = uuid.New()
		}
		r.s.stamp(&p.CreatedAt)
		p.UpdatedAt = p.CreatedAt
		r.s.profiles[p.ID] = clone(p)
		return nil
	}

	existing.Email = p.Email
	existing.FullName = p.FullName
	existing.Phone = p.Phone
	existing.Institution = p.Institution
	existing.IsExternal = p.IsExternal
	existing.UpdatedAt = r.s.now()
	*p = *existing
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.profiles[id]
	if !ok {
		return nil, common.NotFound("profile", id)
	}
	return clone(p), nil
}

func (r *ProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p := r.byUserLocked(userID)
	if p == nil {
		return nil, common.NotFound("profile", userID)
	}
	return clone(p), nil
}

func (r *ProfileRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*profile.Profile, 0, len(r.s.profiles))
	for _, p := range r.s.profiles {
		out = append(out, clone(p))
	}
	byCreated(out, func(p *profile.Profile) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID })
	return out, nil
}

func (r *ProfileRepository) byUserLocked(userID uuid.UUID) *profile.Profile {
	for _, p := range r.s.profiles {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// RoleRepository is the in-memory role store
type RoleRepository struct {
	s *Store
}

func (r *RoleRepository) Add(ctx context.Context, userID uuid.UUID, role profile.Role) (bool, error) {
	if !role.Valid() {
		return false, common.Invalid("role", "unknown role %q", role)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, ur := range r.s.roles {
		if ur.UserID == userID && ur.Role == role {
			return false, nil
		}
	}
	ur := &profile.UserRole{ID: uuid.New(), UserID: userID, Role: role, CreatedAt: r.s.now()}
	r.s.roles[ur.ID] = ur
	return true, nil
}

func (r *RoleRepository) Remove(ctx context.Context, userID uuid.UUID, role profile.Role) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, ur := range r.s.roles {
		if ur.UserID == userID && ur.Role == role {
			delete(r.s.roles, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *RoleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]profile.Role, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	var out []profile.Role
	for _, ur := range all {
		if ur.UserID == userID {
			out = append(out, ur.Role)
		}
	}
	return out, nil
}

func (r *RoleRepository) ListAll(ctx context.Context) ([]profile.UserRole, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ptrs := make([]*profile.UserRole, 0, len(r.s.roles))
	for _, ur := range r.s.roles {
		ptrs = append(ptrs, ur)
	}
	byCreated(ptrs, func(ur *profile.UserRole) (time.Time, uuid.UUID) { return ur.CreatedAt, ur.ID })

	out := make([]profile.UserRole, 0, len(ptrs))
	for _, ur := range ptrs {
		out = append(out, *ur)
	}
	return out, nil
}
