package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
)

// Failure kinds of the admin grant, reported verbatim to the caller
const (
	GrantProfileInsertFailed = "profile_insert_failed"
	GrantRoleInsertFailed    = "role_insert_failed"
)

// ErrNotAllowed is returned when the caller's email is not on the admin allow-list
var ErrNotAllowed = errors.New("email is not allowed to become admin")

// GrantError is a storage failure during the admin grant
type GrantError struct {
	Kind string
	Err  error
}

func (e *GrantError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *GrantError) Unwrap() error {
	return e.Err
}

// AdminGrantService bootstraps administrators from an email allow-list
type AdminGrantService struct {
	store   storage.Container
	allowed func(email string) bool
	log     *log.Logger
}

// NewAdminGrantService creates the service; allowed decides which emails may become admin
func NewAdminGrantService(store storage.Container, allowed func(email string) bool) *AdminGrantService {
	return &AdminGrantService{
		store:   store,
		allowed: allowed,
		log:     logger.Service("admin-grant"),
	}
}

// Grant makes the verified caller an admin. It creates the profile when
// missing and is idempotent.
func (s *AdminGrantService) Grant(ctx context.Context, id *profile.Identity) error {
	if id.Email == "" || !s.allowed(id.Email) {
		s.log.Warn("Admin grant refused", "user_id", id.UserID, "email", id.Email)
		return ErrNotAllowed
	}

	if _, err := s.store.Profiles().GetByUserID(ctx, id.UserID); err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return &GrantError{Kind: GrantProfileInsertFailed, Err: err}
		}
		p := profile.NewProfileFromIdentity(id)
		if err := s.store.Profiles().Create(ctx, p); err != nil && !errors.Is(err, common.ErrConflict) {
			s.log.Error("Failed to create profile for admin", "user_id", id.UserID, "error", err)
			return &GrantError{Kind: GrantProfileInsertFailed, Err: err}
		}
	}

	created, err := s.store.Roles().Add(ctx, id.UserID, profile.RoleAdmin)
	if err != nil {
		s.log.Error("Failed to grant admin role", "user_id", id.UserID, "error", err)
		return &GrantError{Kind: GrantRoleInsertFailed, Err: err}
	}

	s.log.Info("Admin granted", "user_id", id.UserID, "email", id.Email, "created", created)
	return nil
}
