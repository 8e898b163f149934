package evaluation

import (
	"context"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
)

// Repository interfaces for the evaluation engine

// Transactor runs fn in a storage transaction carried by the context passed to fn.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type EvaluationRepository interface {
	// Create fails with common.ErrConflict if the (judge, project) pair exists.
	Create(ctx context.Context, ev *Evaluation) error
	GetByID(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	// LockByID loads the evaluation row and locks it until the transaction ends.
	LockByID(ctx context.Context, id uuid.UUID) (*Evaluation, error)
	GetByJudgeAndProject(ctx context.Context, judgeID, projectID uuid.UUID) (*Evaluation, error)
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]*Evaluation, error)
	ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*Evaluation, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*Evaluation, error)
	UpdateDerived(ctx context.Context, id uuid.UUID, status Status, total *float64) error
	UpdateComments(ctx context.Context, id uuid.UUID, comments *string) error
}

type ScoreRepository interface {
	// Upsert inserts or replaces the score for (evaluation, criterion).
	Upsert(ctx context.Context, s *Score) error
	Delete(ctx context.Context, evaluationID, criterionID uuid.UUID) (bool, error)
	ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]Score, error)
}

type CriterionRepository interface {
	Create(ctx context.Context, c *Criterion) error
	GetByID(ctx context.Context, id uuid.UUID) (*Criterion, error)
	ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]Criterion, error)
}

// ProjectLocator resolves which conference a project is judged under
type ProjectLocator interface {
	ConferenceIDForProject(ctx context.Context, projectID uuid.UUID) (uuid.UUID, error)
}

// SessionRegistry is the part of the session store that judge registration needs
type SessionRegistry interface {
	GetByID(ctx context.Context, id uuid.UUID) (*conference.Session, error)
	LockForRegistration(ctx context.Context, id uuid.UUID) (*conference.Session, error)
	CountJudges(ctx context.Context, sessionID uuid.UUID) (int64, error)
	IsJudgeRegistered(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error)
	AddJudge(ctx context.Context, js *conference.JudgeSession) error
	RemoveJudge(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error)
}
