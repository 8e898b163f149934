package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// PostgresProjectRepository implements project.Repository using GORM
type PostgresProjectRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresProjectRepository creates a new PostgreSQL project repository
func NewPostgresProjectRepository(db *gorm.DB) *PostgresProjectRepository {
	return &PostgresProjectRepository{
		db:  db,
		log: logger.Repository("project"),
	}
}

func (r *PostgresProjectRepository) Create(ctx context.Context, p *project.Project) error {
	r.log.Debug("Creating project", "title", p.Title, "students", len(p.Students))

	if err := conn(ctx, r.db).Create(p).Error; err != nil {
		r.log.Error("Failed to create project", "title", p.Title, "error", err)
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return common.Invalid("project", "session or specialization does not exist")
		}
		return translate(err, "project", p.ID)
	}

	r.log.Info("Project created successfully", "id", p.ID, "title", p.Title)
	return nil
}

func (r *PostgresProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	var p project.Project
	if err := conn(ctx, r.db).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "project", id)
	}
	return &p, nil
}

func (r *PostgresProjectRepository) List(ctx context.Context, filter project.Filter) ([]*project.Project, error) {
	q := conn(ctx, r.db).Model(&project.Project{})

	if filter.Status != nil {
		q = q.Where("projects.status = ?", *filter.Status)
	}
	if filter.SessionID != nil {
		q = q.Where("projects.session_id = ?", *filter.SessionID)
	}
	if filter.ConferenceID != nil {
		q = q.Joins("JOIN sessions ON sessions.id = projects.session_id").
			Where("sessions.conference_id = ?", *filter.ConferenceID)
	}

	var out []*project.Project
	if err := q.Order("projects.created_at, projects.id").Find(&out).Error; err != nil {
		r.log.Error("Failed to list projects", "error", err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return out, nil
}

func (r *PostgresProjectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status project.Status) error {
	if err := r.update(ctx, id, "status", status); err != nil {
		return err
	}
	r.log.Info("Project status updated", "id", id, "status", status)
	return nil
}

func (r *PostgresProjectRepository) AssignSession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	err := r.update(ctx, id, "session_id", sessionID)
	if errors.Is(err, common.ErrInvalidInput) && sessionID != nil {
		return common.NotFound("session", *sessionID)
	}
	return err
}

func (r *PostgresProjectRepository) SetPosterURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.update(ctx, id, "poster_url", url)
}

func (r *PostgresProjectRepository) ConferenceIDForProject(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	p, err := r.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, err
	}
	if p.SessionID == nil {
		return uuid.Nil, common.Invalid("session_id", "project %s is not assigned to a session", id)
	}

	var conferenceID uuid.UUID
	res := conn(ctx, r.db).Table("sessions").Select("conference_id").Where("id = ?", *p.SessionID).Limit(1).Scan(&conferenceID)
	if res.Error != nil {
		return uuid.Nil, fmt.Errorf("failed to resolve conference: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return uuid.Nil, common.NotFound("session", *p.SessionID)
	}
	return conferenceID, nil
}

func (r *PostgresProjectRepository) update(ctx context.Context, id uuid.UUID, column string, value any) error {
	res := conn(ctx, r.db).Model(&project.Project{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		r.log.Error("Failed to update project", "id", id, "column", column, "error", res.Error)
		return translate(res.Error, "project", id)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("project", id)
	}
	return nil
}
