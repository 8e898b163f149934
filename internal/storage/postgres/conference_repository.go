package postgres

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// PostgresConferenceRepository implements conference.ConferenceRepository using GORM
type PostgresConferenceRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresConferenceRepository creates a new PostgreSQL conference repository
func NewPostgresConferenceRepository(db *gorm.DB) *PostgresConferenceRepository {
	return &PostgresConferenceRepository{
		db:  db,
		log: logger.Repository("conference"),
	}
}

func (r *PostgresConferenceRepository) Create(ctx context.Context, c *conference.Conference) error {
	r.log.Debug("Creating conference", "name", c.Name)

	if err := conn(ctx, r.db).Create(c).Error; err != nil {
		r.log.Error("Failed to create conference", "name", c.Name, "error", err)
		return translate(err, "conference", c.ID)
	}

	r.log.Info("Conference created successfully", "id", c.ID, "name", c.Name)
	return nil
}

func (r *PostgresConferenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*conference.Conference, error) {
	var c conference.Conference
	if err := conn(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "conference", id)
	}
	return &c, nil
}

func (r *PostgresConferenceRepository) GetActive(ctx context.Context) (*conference.Conference, error) {
	var c conference.Conference
	if err := conn(ctx, r.db).Where("is_active = ?", true).First(&c).Error; err != nil {
		return nil, translate(err, "active conference", uuid.Nil)
	}
	return &c, nil
}

func (r *PostgresConferenceRepository) List(ctx context.Context) ([]*conference.Conference, error) {
	var out []*conference.Conference
	if err := conn(ctx, r.db).Order("created_at, id").Find(&out).Error; err != nil {
		r.log.Error("Failed to list conferences", "error", err)
		return nil, fmt.Errorf("failed to list conferences: %w", err)
	}
	return out, nil
}

// SetActive runs in a transaction; the partial unique index on is_active
// rejects a second active row if the two statements were ever split.
func (r *PostgresConferenceRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	r.log.Debug("Activating conference", "id", id)

	return withinTransaction(ctx, r.db, func(ctx context.Context) error {
		db := conn(ctx, r.db)
		if err := db.Model(&conference.Conference{}).
			Where("is_active = ? AND id <> ?", true, id).
			Update("is_active", false).Error; err != nil {
			return fmt.Errorf("failed to deactivate conferences: %w", err)
		}

		res := db.Model(&conference.Conference{}).Where("id = ?", id).Update("is_active", true)
		if res.Error != nil {
			r.log.Error("Failed to activate conference", "id", id, "error", res.Error)
			return translate(res.Error, "conference", id)
		}
		if res.RowsAffected == 0 {
			return common.NotFound("conference", id)
		}

		r.log.Info("Conference activated", "id", id)
		return nil
	})
}

// PostgresSpecializationRepository implements conference.SpecializationRepository using GORM
type PostgresSpecializationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresSpecializationRepository creates a new PostgreSQL specialization repository
func NewPostgresSpecializationRepository(db *gorm.DB) *PostgresSpecializationRepository {
	return &PostgresSpecializationRepository{
		db:  db,
		log: logger.Repository("specialization"),
	}
}

func (r *PostgresSpecializationRepository) Create(ctx context.Context, s *conference.Specialization) error {
	if err := conn(ctx, r.db).Create(s).Error; err != nil {
		r.log.Error("Failed to create specialization", "name", s.Name, "error", err)
		return translate(err, "specialization", s.ID)
	}
	r.log.Info("Specialization created", "id", s.ID, "name", s.Name)
	return nil
}

func (r *PostgresSpecializationRepository) List(ctx context.Context) ([]*conference.Specialization, error) {
	var out []*conference.Specialization
	if err := conn(ctx, r.db).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list specializations: %w", err)
	}
	return out, nil
}

// GetByIDs fails with NotFound naming the first id that does not exist
func (r *PostgresSpecializationRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]conference.Specialization, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var out []conference.Specialization
	if err := conn(ctx, r.db).Where("id IN ?", ids).Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to load specializations: %w", err)
	}

	found := make(map[uuid.UUID]bool, len(out))
	for _, s := range out {
		found[s.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return nil, common.NotFound("specialization", id)
		}
	}
	return out, nil
}
