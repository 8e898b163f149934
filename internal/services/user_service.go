package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
	"github.com/gravadigital/posterjudge-api/internal/validation"
)

// UserService resolves callers into actors and manages profiles and roles
type UserService struct {
	store storage.Container
	log   *log.Logger
}

// NewUserService creates a new user service
func NewUserService(store storage.Container) *UserService {
	return &UserService{
		store: store,
		log:   logger.Service("users"),
	}
}

// ResolveActor loads the caller's profile and roles. A caller seen for the
// first time gets a profile built from the token metadata and the user role.
func (s *UserService) ResolveActor(ctx context.Context, id *profile.Identity) (*profile.Actor, error) {
	p, err := s.ensureProfile(ctx, id)
	if err != nil {
		return nil, err
	}

	roles, err := s.store.Roles().ListByUser(ctx, id.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	return &profile.Actor{
		UserID:    id.UserID,
		ProfileID: p.ID,
		Email:     id.Email,
		Roles:     roles,
	}, nil
}

// ensureProfile returns the existing profile or creates one from the identity
func (s *UserService) ensureProfile(ctx context.Context, id *profile.Identity) (*profile.Profile, error) {
	p, err := s.store.Profiles().GetByUserID(ctx, id.UserID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	p = profile.NewProfileFromIdentity(id)
	if err := s.store.Profiles().Create(ctx, p); err != nil {
		if errors.Is(err, common.ErrConflict) {
			// created concurrently by another request of the same user
			return s.store.Profiles().GetByUserID(ctx, id.UserID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}
	if _, err := s.store.Roles().Add(ctx, id.UserID, profile.RoleUser); err != nil {
		return nil, fmt.Errorf("failed to grant user role: %w", err)
	}

	s.log.Info("Profile created on first sight", "user_id", id.UserID, "profile_id", p.ID)
	return p, nil
}

// Me returns the caller's profile with roles
func (s *UserService) Me(ctx context.Context, actor *profile.Actor) (*profile.WithRoles, error) {
	p, err := s.store.Profiles().GetByUserID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	return &profile.WithRoles{Profile: *p, Roles: nonNilRoles(actor.Roles)}, nil
}

// UpdateProfileRequest represents the caller's editable profile fields
type UpdateProfileRequest struct {
	FullName    string  `json:"full_name" binding:"required"`
	Phone       *string `json:"phone"`
	Institution *string `json:"institution"`
	IsExternal  bool    `json:"is_external"`
}

// UpdateMyProfile upserts the caller's profile and makes sure they hold the user role
func (s *UserService) UpdateMyProfile(ctx context.Context, actor *profile.Actor, req UpdateProfileRequest) (*profile.WithRoles, error) {
	if err := validation.DefaultText.ValidateName(req.FullName, "full_name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateEmail(actor.Email); err != nil {
		return nil, err
	}

	p := &profile.Profile{
		ID:          actor.ProfileID,
		UserID:      actor.UserID,
		Email:       actor.Email,
		FullName:    strings.TrimSpace(req.FullName),
		Phone:       trimmed(req.Phone),
		Institution: trimmed(req.Institution),
		IsExternal:  req.IsExternal,
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	err := s.store.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.store.Profiles().Upsert(ctx, p); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		if _, err := s.store.Roles().Add(ctx, actor.UserID, profile.RoleUser); err != nil {
			return fmt.Errorf("failed to grant user role: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	roles, err := s.store.Roles().ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}

	s.log.Info("Profile updated", "user_id", actor.UserID, "profile_id", p.ID)
	return &profile.WithRoles{Profile: *p, Roles: nonNilRoles(roles)}, nil
}

// ListUsers returns every profile with the roles of its user
func (s *UserService) ListUsers(ctx context.Context) ([]profile.WithRoles, error) {
	profiles, err := s.store.Profiles().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	grants, err := s.store.Roles().ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}

	byUser := make(map[uuid.UUID][]profile.Role)
	for _, g := range grants {
		byUser[g.UserID] = append(byUser[g.UserID], g.Role)
	}

	out := make([]profile.WithRoles, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, profile.WithRoles{Profile: *p, Roles: nonNilRoles(byUser[p.UserID])})
	}
	return out, nil
}

// RoleRequest names a role to grant
type RoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// AddRole grants a role. Granting a role the user already holds succeeds
// with created=false.
func (s *UserService) AddRole(ctx context.Context, userID uuid.UUID, roleName string) (bool, error) {
	role, err := profile.ParseRole(roleName)
	if err != nil {
		return false, common.Invalid("role", "unknown role %q", roleName)
	}
	if _, err := s.store.Profiles().GetByUserID(ctx, userID); err != nil {
		return false, err
	}

	created, err := s.store.Roles().Add(ctx, userID, role)
	if err != nil {
		return false, fmt.Errorf("failed to add role: %w", err)
	}

	s.log.Info("Role granted", "user_id", userID, "role", role, "created", created)
	return created, nil
}

// RemoveRole revokes a role. Admins cannot revoke their own admin role.
func (s *UserService) RemoveRole(ctx context.Context, actor *profile.Actor, userID uuid.UUID, roleName string) error {
	role, err := profile.ParseRole(roleName)
	if err != nil {
		return common.Invalid("role", "unknown role %q", roleName)
	}
	if role == profile.RoleAdmin && actor.UserID == userID {
		return fmt.Errorf("%w: you cannot remove your own admin role", common.ErrForbidden)
	}

	removed, err := s.store.Roles().Remove(ctx, userID, role)
	if err != nil {
		return fmt.Errorf("failed to remove role: %w", err)
	}
	if !removed {
		return common.NotFound("role "+role.String()+" of user", userID)
	}

	s.log.Info("Role revoked", "user_id", userID, "role", role, "by", actor.UserID)
	return nil
}

func nonNilRoles(roles []profile.Role) []profile.Role {
	if roles == nil {
		return []profile.Role{}
	}
	return roles
}
