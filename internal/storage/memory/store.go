// Package memory keeps every repository in process memory. It backs the
// test suites and STORAGE_TYPE=memory for local runs.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
)

type txKey struct{}

// Store holds all entities. Transactions are serialized by txMu and do not
// roll back; callers validate before they write.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex
	now  func() time.Time

	conferences     map[uuid.UUID]*conference.Conference
	specializations map[uuid.UUID]*conference.Specialization
	sessions        map[uuid.UUID]*conference.Session
	judgeSessions   map[uuid.UUID]*conference.JudgeSession
	reminders       map[uuid.UUID]*conference.Reminder
	projects        map[uuid.UUID]*project.Project
	profiles        map[uuid.UUID]*profile.Profile
	roles           map[uuid.UUID]*profile.UserRole
	criteria        map[uuid.UUID]*evaluation.Criterion
	evaluations     map[uuid.UUID]*evaluation.Evaluation
	scores          map[uuid.UUID]*evaluation.Score
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		now:             time.Now,
		conferences:     make(map[uuid.UUID]*conference.Conference),
		specializations: make(map[uuid.UUID]*conference.Specialization),
		sessions:        make(map[uuid.UUID]*conference.Session),
		judgeSessions:   make(map[uuid.UUID]*conference.JudgeSession),
		reminders:       make(map[uuid.UUID]*conference.Reminder),
		projects:        make(map[uuid.UUID]*project.Project),
		profiles:        make(map[uuid.UUID]*profile.Profile),
		roles:           make(map[uuid.UUID]*profile.UserRole),
		criteria:        make(map[uuid.UUID]*evaluation.Criterion),
		evaluations:     make(map[uuid.UUID]*evaluation.Evaluation),
		scores:          make(map[uuid.UUID]*evaluation.Score),
	}
}

// WithinTransaction runs fn while holding the store-wide transaction lock.
// Nested calls reuse the outer transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bool); ok {
		return fn(ctx)
	}
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(context.WithValue(ctx, txKey{}, true))
}

func (s *Store) Conferences() conference.ConferenceRepository {
	return &ConferenceRepository{s: s}
}

func (s *Store) Specializations() conference.SpecializationRepository {
	return &SpecializationRepository{s: s}
}

func (s *Store) Sessions() conference.SessionRepository {
	return &SessionRepository{s: s}
}

func (s *Store) Reminders() conference.ReminderRepository {
	return &ReminderRepository{s: s}
}

func (s *Store) Projects() project.Repository {
	return &ProjectRepository{s: s}
}

func (s *Store) Profiles() profile.ProfileRepository {
	return &ProfileRepository{s: s}
}

func (s *Store) Roles() profile.RoleRepository {
	return &RoleRepository{s: s}
}

func (s *Store) Evaluations() evaluation.EvaluationRepository {
	return &EvaluationRepository{s: s}
}

func (s *Store) Scores() evaluation.ScoreRepository {
	return &ScoreRepository{s: s}
}

func (s *Store) Criteria() evaluation.CriterionRepository {
	return &CriterionRepository{s: s}
}

// Health always succeeds for the in-process store
func (s *Store) Health(ctx context.Context) error {
	return ctx.Err()
}

// Info reports entity counts
func (s *Store) Info() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]any{
		"type": "memory",
		"counts": map[string]int{
			"conferences":     len(s.conferences),
			"specializations": len(s.specializations),
			"sessions":        len(s.sessions),
			"judge_sessions":  len(s.judgeSessions),
			"projects":        len(s.projects),
			"profiles":        len(s.profiles),
			"user_roles":      len(s.roles),
			"criteria":        len(s.criteria),
			"evaluations":     len(s.evaluations),
			"scores":          len(s.scores),
		},
	}
}

// Close is a no-op
func (s *Store) Close() error {
	return nil
}

func (s *Store) stamp(created *time.Time) {
	if created.IsZero() {
		*created = s.now()
	}
}

// byCreated orders entities oldest first, ties broken by id
func byCreated[T any](items []T, key func(T) (time.Time, uuid.UUID)) {
	slices.SortStableFunc(items, func(a, b T) int {
		ta, ia := key(a)
		tb, ib := key(b)
		return cmp.Or(ta.Compare(tb), cmp.Compare(ia.String(), ib.String()))
	})
}

func clone[T any](v *T) *T {
	c := *v
	return &c
}
