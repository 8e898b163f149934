package storage

import (
	"context"

	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
)

// Container exposes every repository of a storage backend plus its transaction scope
type Container interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error

	Conferences() conference.ConferenceRepository
	Specializations() conference.SpecializationRepository
	Sessions() conference.SessionRepository
	Reminders() conference.ReminderRepository
	Projects() project.Repository
	Profiles() profile.ProfileRepository
	Roles() profile.RoleRepository
	Evaluations() evaluation.EvaluationRepository
	Scores() evaluation.ScoreRepository
	Criteria() evaluation.CriterionRepository

	Health(ctx context.Context) error
	Info() map[string]any
	Close() error
}

// NewEngine builds the evaluation engine over a container
func NewEngine(c Container) *evaluation.Engine {
	return evaluation.NewEngine(evaluation.Dependencies{
		Tx:          c,
		Evaluations: c.Evaluations(),
		Scores:      c.Scores(),
		Criteria:    c.Criteria(),
		Projects:    c.Projects(),
		Sessions:    c.Sessions(),
	})
}

// Diagnoser is implemented by backends that can report server statistics
type Diagnoser interface {
	Diagnostics(ctx context.Context) (any, error)
}
