package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// PostgresProfileRepository implements profile.ProfileRepository using GORM
type PostgresProfileRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresProfileRepository creates a new PostgreSQL profile repository
func NewPostgresProfileRepository(db *gorm.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{
		db:  db,
		log: logger.Repository("profile"),
	}
}

func (r *PostgresProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	r.log.Debug("Creating profile", "user_id", p.UserID, "email", p.Email)

	if err := p.Validate(); err != nil {
		r.log.Error("Profile validation failed", "error", err)
		return fmt.Errorf("profile validation failed: %w", err)
	}

	if err := conn(ctx, r.db).Create(p).Error; err != nil {
		r.log.Error("Failed to create profile", "user_id", p.UserID, "error", err)
		return translate(err, "profile", p.ID)
	}

	r.log.Info("Profile created successfully", "id", p.ID, "email", p.Email)
	return nil
}

// Upsert keeps id, metadata and created_at of an existing row
func (r *PostgresProfileRepository) Upsert(ctx context.Context, p *profile.Profile) error {
	r.log.Debug("Upserting profile", "user_id", p.UserID)

	err := conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "full_name", "phone", "institution", "is_external", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		r.log.Error("Failed to upsert profile", "user_id", p.UserID, "error", err)
		return translate(err, "profile", p.ID)
	}

	stored, err := r.GetByUserID(ctx, p.UserID)
	if err != nil {
		return err
	}
	*p = *stored
	return nil
}

func (r *PostgresProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error) {
	var p profile.Profile
	if err := conn(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "profile", id)
	}
	return &p, nil
}

func (r *PostgresProfileRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.Profile, error) {
	var p profile.Profile
	if err := conn(ctx, r.db).Where("user_id = ?", userID).First(&p).Error; err != nil {
		return nil, translate(err, "profile", userID)
	}
	return &p, nil
}

func (r *PostgresProfileRepository) List(ctx context.Context) ([]*profile.Profile, error) {
	var out []*profile.Profile
	if err := conn(ctx, r.db).Order("created_at, id").Find(&out).Error; err != nil {
		r.log.Error("Failed to list profiles", "error", err)
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return out, nil
}

// PostgresRoleRepository implements profile.RoleRepository using GORM
type PostgresRoleRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresRoleRepository creates a new PostgreSQL role repository
func NewPostgresRoleRepository(db *gorm.DB) *PostgresRoleRepository {
	return &PostgresRoleRepository{
		db:  db,
		log: logger.Repository("role"),
	}
}

func (r *PostgresRoleRepository) Add(ctx context.Context, userID uuid.UUID, role profile.Role) (bool, error) {
	ur := &profile.UserRole{UserID: userID, Role: role}
	res := conn(ctx, r.db).Clauses(clause.OnConflict{DoNothing: true}).Create(ur)
	if res.Error != nil {
		r.log.Error("Failed to grant role", "user_id", userID, "role", role, "error", res.Error)
		return false, translate(res.Error, "user role", userID)
	}
	if res.RowsAffected > 0 {
		r.log.Info("Role granted", "user_id", userID, "role", role)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresRoleRepository) Remove(ctx context.Context, userID uuid.UUID, role profile.Role) (bool, error) {
	res := conn(ctx, r.db).Where("user_id = ? AND role = ?", userID, role).Delete(&profile.UserRole{})
	if res.Error != nil {
		r.log.Error("Failed to revoke role", "user_id", userID, "role", role, "error", res.Error)
		return false, fmt.Errorf("failed to revoke role: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.Info("Role revoked", "user_id", userID, "role", role)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresRoleRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]profile.Role, error) {
	var roles []profile.Role
	if err := conn(ctx, r.db).Model(&profile.UserRole{}).
		Where("user_id = ?", userID).
		Order("role").
		Pluck("role", &roles).Error; err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

func (r *PostgresRoleRepository) ListAll(ctx context.Context) ([]profile.UserRole, error) {
	var out []profile.UserRole
	if err := conn(ctx, r.db).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list user roles: %w", err)
	}
	return out, nil
}
