package conference

import (
	"context"

	"github.com/google/uuid"
)

// Repository interfaces for conferences and sessions

type ConferenceRepository interface {
	Create(ctx context.Context, c *Conference) error
	GetByID(ctx context.Context, id uuid.UUID) (*Conference, error)
	GetActive(ctx context.Context) (*Conference, error)
	List(ctx context.Context) ([]*Conference, error)
	// SetActive marks id active and every other conference inactive.
	SetActive(ctx context.Context, id uuid.UUID) error
}

type SpecializationRepository interface {
	Create(ctx context.Context, s *Specialization) error
	List(ctx context.Context) ([]*Specialization, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Specialization, error)
}

type SessionRepository interface {
	Create(ctx context.Context, s *Session) error
	GetByID(ctx context.Context, id uuid.UUID) (*Session, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*Session, error)
	Occupancy(ctx context.Context, sessionID uuid.UUID) (*SessionOccupancy, error)
	OccupancyByConference(ctx context.Context, conferenceID uuid.UUID) ([]SessionOccupancy, error)

	// LockForRegistration loads the session and, inside a transaction, holds its
	// row until commit so capacity checks serialize per session.
	LockForRegistration(ctx context.Context, id uuid.UUID) (*Session, error)
	CountJudges(ctx context.Context, sessionID uuid.UUID) (int64, error)
	IsJudgeRegistered(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error)
	AddJudge(ctx context.Context, js *JudgeSession) error
	RemoveJudge(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error)
	SetConfirmed(ctx context.Context, sessionID, judgeID uuid.UUID, confirmed bool) (*JudgeSession, error)
	ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*JudgeSession, error)
	ListJudges(ctx context.Context, sessionID uuid.UUID) ([]*JudgeSession, error)
}

type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*Reminder, error)
	DeleteUnsentForSession(ctx context.Context, judgeID, sessionID uuid.UUID) error
}
