package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// PostgresSessionRepository implements conference.SessionRepository using GORM
type PostgresSessionRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresSessionRepository creates a new PostgreSQL session repository
func NewPostgresSessionRepository(db *gorm.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{
		db:  db,
		log: logger.Repository("session"),
	}
}

// Create inserts the session and its specialization links. Referenced
// specializations must already exist; they are never upserted.
func (r *PostgresSessionRepository) Create(ctx context.Context, s *conference.Session) error {
	r.log.Debug("Creating session", "conference_id", s.ConferenceID, "name", s.Name, "max_judges", s.MaxJudges)

	if err := conn(ctx, r.db).Omit("Specializations.*").Create(s).Error; err != nil {
		r.log.Error("Failed to create session", "name", s.Name, "error", err)
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return common.NotFound("conference", s.ConferenceID)
		}
		return translate(err, "session", s.ID)
	}

	r.log.Info("Session created successfully", "id", s.ID, "name", s.Name)
	return nil
}

func (r *PostgresSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*conference.Session, error) {
	var s conference.Session
	if err := conn(ctx, r.db).Preload("Specializations").First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, "session", id)
	}
	return &s, nil
}

func (r *PostgresSessionRepository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*conference.Session, error) {
	var out []*conference.Session
	if err := conn(ctx, r.db).
		Preload("Specializations").
		Where("conference_id = ?", conferenceID).
		Order("start_time, id").
		Find(&out).Error; err != nil {
		r.log.Error("Failed to list sessions", "conference_id", conferenceID, "error", err)
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return out, nil
}

func (r *PostgresSessionRepository) Occupancy(ctx context.Context, sessionID uuid.UUID) (*conference.SessionOccupancy, error) {
	var o conference.SessionOccupancy
	if err := conn(ctx, r.db).Where("session_id = ?", sessionID).First(&o).Error; err != nil {
		return nil, translate(err, "session", sessionID)
	}
	return &o, nil
}

func (r *PostgresSessionRepository) OccupancyByConference(ctx context.Context, conferenceID uuid.UUID) ([]conference.SessionOccupancy, error) {
	var out []conference.SessionOccupancy
	err := conn(ctx, r.db).
		Table("session_occupancy AS o").
		Select("o.*").
		Joins("JOIN sessions s ON s.id = o.session_id").
		Where("o.conference_id = ?", conferenceID).
		Order("s.start_time, s.id").
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to read session occupancy: %w", err)
	}
	return out, nil
}

// LockForRegistration takes SELECT ... FOR UPDATE on the session row
func (r *PostgresSessionRepository) LockForRegistration(ctx context.Context, id uuid.UUID) (*conference.Session, error) {
	var s conference.Session
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&s, "id = ?", id).Error; err != nil {
		return nil, translate(err, "session", id)
	}
	return &s, nil
}

func (r *PostgresSessionRepository) CountJudges(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&conference.JudgeSession{}).Where("session_id = ?", sessionID).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count judges: %w", err)
	}
	return n, nil
}

func (r *PostgresSessionRepository) IsJudgeRegistered(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error) {
	var n int64
	if err := conn(ctx, r.db).Model(&conference.JudgeSession{}).
		Where("session_id = ? AND judge_id = ?", sessionID, judgeID).
		Count(&n).Error; err != nil {
		return false, fmt.Errorf("failed to check registration: %w", err)
	}
	return n > 0, nil
}

// AddJudge inserts the registration. The enforce_session_capacity trigger
// raises check_violation when the session is full.
func (r *PostgresSessionRepository) AddJudge(ctx context.Context, js *conference.JudgeSession) error {
	r.log.Debug("Registering judge", "session_id", js.SessionID, "judge_id", js.JudgeID)

	err := conn(ctx, r.db).Omit(clause.Associations).Create(js).Error
	switch {
	case err == nil:
		r.log.Info("Judge registered", "session_id", js.SessionID, "judge_id", js.JudgeID)
		return nil
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		r.log.Warn("Session is full", "session_id", js.SessionID)
		return common.ErrSessionFull
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return common.Conflict("judge %s is already registered for session %s", js.JudgeID, js.SessionID)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return common.NotFound("profile", js.JudgeID)
	}
	r.log.Error("Failed to register judge", "session_id", js.SessionID, "error", err)
	return fmt.Errorf("failed to register judge: %w", err)
}

func (r *PostgresSessionRepository) RemoveJudge(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error) {
	res := conn(ctx, r.db).
		Where("session_id = ? AND judge_id = ?", sessionID, judgeID).
		Delete(&conference.JudgeSession{})
	if res.Error != nil {
		r.log.Error("Failed to unregister judge", "session_id", sessionID, "error", res.Error)
		return false, fmt.Errorf("failed to unregister judge: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		r.log.Info("Judge unregistered", "session_id", sessionID, "judge_id", judgeID)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresSessionRepository) SetConfirmed(ctx context.Context, sessionID, judgeID uuid.UUID, confirmed bool) (*conference.JudgeSession, error) {
	var js conference.JudgeSession
	res := conn(ctx, r.db).Model(&js).
		Clauses(clause.Returning{}).
		Where("session_id = ? AND judge_id = ?", sessionID, judgeID).
		Update("confirmed", confirmed)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update registration: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, common.NotFound("registration", sessionID)
	}
	return &js, nil
}

func (r *PostgresSessionRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*conference.JudgeSession, error) {
	var out []*conference.JudgeSession
	err := conn(ctx, r.db).
		Preload("Session").
		Joins("JOIN sessions ON sessions.id = judge_sessions.session_id").
		Where("judge_sessions.judge_id = ?", judgeID).
		Order("sessions.start_time, judge_sessions.id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	return out, nil
}

func (r *PostgresSessionRepository) ListJudges(ctx context.Context, sessionID uuid.UUID) ([]*conference.JudgeSession, error) {
	var out []*conference.JudgeSession
	err := conn(ctx, r.db).
		Preload("Judge").
		Where("session_id = ?", sessionID).
		Order("created_at, id").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list session judges: %w", err)
	}
	return out, nil
}

// PostgresReminderRepository implements conference.ReminderRepository using GORM
type PostgresReminderRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresReminderRepository creates a new PostgreSQL reminder repository
func NewPostgresReminderRepository(db *gorm.DB) *PostgresReminderRepository {
	return &PostgresReminderRepository{
		db:  db,
		log: logger.Repository("reminder"),
	}
}

func (r *PostgresReminderRepository) Create(ctx context.Context, rem *conference.Reminder) error {
	if err := conn(ctx, r.db).Create(rem).Error; err != nil {
		r.log.Error("Failed to create reminder", "judge_id", rem.JudgeID, "error", err)
		return translate(err, "reminder", rem.ID)
	}
	r.log.Debug("Reminder scheduled", "judge_id", rem.JudgeID, "scheduled_at", rem.ScheduledAt)
	return nil
}

func (r *PostgresReminderRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*conference.Reminder, error) {
	var out []*conference.Reminder
	if err := conn(ctx, r.db).Where("judge_id = ?", judgeID).Order("scheduled_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	return out, nil
}

func (r *PostgresReminderRepository) DeleteUnsentForSession(ctx context.Context, judgeID, sessionID uuid.UUID) error {
	err := conn(ctx, r.db).
		Where("judge_id = ? AND session_id = ? AND sent_at IS NULL", judgeID, sessionID).
		Delete(&conference.Reminder{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete reminders: %w", err)
	}
	return nil
}
