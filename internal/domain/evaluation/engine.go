package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// Dependencies wires the engine to storage
type Dependencies struct {
	Tx          Transactor
	Evaluations EvaluationRepository
	Scores      ScoreRepository
	Criteria    CriterionRepository
	Projects    ProjectLocator
	Sessions    SessionRegistry
}

// Engine owns score submission, total and status derivation, and judge
// registration against session capacity. Every write runs in one transaction
// so a failed call leaves no partial state behind.
type Engine struct {
	tx          Transactor
	evaluations EvaluationRepository
	scores      ScoreRepository
	criteria    CriterionRepository
	projects    ProjectLocator
	sessions    SessionRegistry
	log         *log.Logger
}

func NewEngine(deps Dependencies) *Engine {
	return &Engine{
		tx:          deps.Tx,
		evaluations: deps.Evaluations,
		scores:      deps.Scores,
		criteria:    deps.Criteria,
		projects:    deps.Projects,
		sessions:    deps.Sessions,
		log:         logger.Scoring(),
	}
}

// StartEvaluation opens a pending evaluation of projectID by the calling judge.
// A second evaluation of the same project by the same judge is a conflict.
func (e *Engine) StartEvaluation(ctx context.Context, actor *profile.Actor, projectID uuid.UUID) (*Evaluation, error) {
	if err := requireJudge(actor); err != nil {
		return nil, err
	}

	if _, err := e.projects.ConferenceIDForProject(ctx, projectID); err != nil {
		return nil, err
	}

	ev := NewEvaluation(actor.ProfileID, projectID)
	if err := e.evaluations.Create(ctx, ev); err != nil {
		if errors.Is(err, common.ErrConflict) {
			return nil, common.Conflict("judge %s already evaluates project %s", actor.ProfileID, projectID)
		}
		return nil, fmt.Errorf("failed to create evaluation: %w", err)
	}

	e.log.Info("Evaluation started", "evaluation_id", ev.ID, "judge_id", ev.JudgeID, "project_id", projectID)
	return ev, nil
}

// EnsureEvaluation returns the caller's evaluation of projectID, creating it
// on first use.
func (e *Engine) EnsureEvaluation(ctx context.Context, actor *profile.Actor, projectID uuid.UUID) (*Evaluation, error) {
	ev, err := e.StartEvaluation(ctx, actor, projectID)
	if err == nil {
		return ev, nil
	}
	if !errors.Is(err, common.ErrConflict) {
		return nil, err
	}
	return e.evaluations.GetByJudgeAndProject(ctx, actor.ProfileID, projectID)
}

// GetEvaluation returns an evaluation with its scores, visible to its judge and admins
func (e *Engine) GetEvaluation(ctx context.Context, actor *profile.Actor, id uuid.UUID) (*Evaluation, error) {
	ev, err := e.evaluations.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// SubmitScore records value for criterionID and re-derives the total and status.
// Resubmitting replaces the earlier score.
func (e *Engine) SubmitScore(ctx context.Context, actor *profile.Actor, evaluationID, criterionID uuid.UUID, value float64, comment *string) (*Evaluation, error) {
	var out *Evaluation

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ev, err := e.evaluations.LockByID(ctx, evaluationID)
		if err != nil {
			return err
		}
		if err := authorize(actor, ev); err != nil {
			return err
		}

		criterion, err := e.criterionFor(ctx, ev, criterionID)
		if err != nil {
			return err
		}
		if err := criterion.CheckScore(value); err != nil {
			return err
		}

		score := &Score{
			ID:           uuid.New(),
			EvaluationID: ev.ID,
			CriterionID:  criterion.ID,
			Score:        value,
			Comment:      normalizeComment(comment),
		}
		if err := e.scores.Upsert(ctx, score); err != nil {
			var typed *common.OutOfRangeScoreError
			if errors.Is(err, common.ErrOutOfRangeScore) && !errors.As(err, &typed) {
				return &common.OutOfRangeScoreError{Score: value, Min: 0, Max: float64(criterion.MaxScore)}
			}
			return fmt.Errorf("failed to save score: %w", err)
		}

		out, err = e.recompute(ctx, ev)
		return err
	})
	if err != nil {
		e.log.Debug("Score rejected", "evaluation_id", evaluationID, "criterion_id", criterionID, "error", err)
		return nil, err
	}

	e.log.Info("Score submitted",
		"evaluation_id", evaluationID,
		"criterion_id", criterionID,
		"status", out.Status,
	)
	return out, nil
}

// RemoveScore deletes the score for criterionID and re-derives the evaluation,
// which may move a completed evaluation back to in_progress.
func (e *Engine) RemoveScore(ctx context.Context, actor *profile.Actor, evaluationID, criterionID uuid.UUID) (*Evaluation, error) {
	var out *Evaluation

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ev, err := e.evaluations.LockByID(ctx, evaluationID)
		if err != nil {
			return err
		}
		if err := authorize(actor, ev); err != nil {
			return err
		}

		removed, err := e.scores.Delete(ctx, ev.ID, criterionID)
		if err != nil {
			return fmt.Errorf("failed to delete score: %w", err)
		}
		if !removed {
			return common.NotFound("score", criterionID)
		}

		out, err = e.recompute(ctx, ev)
		return err
	})
	if err != nil {
		return nil, err
	}

	e.log.Info("Score removed", "evaluation_id", evaluationID, "criterion_id", criterionID, "status", out.Status)
	return out, nil
}

// ComputeTotal derives the current total of an evaluation without persisting it.
func (e *Engine) ComputeTotal(ctx context.Context, evaluationID uuid.UUID) (Result, error) {
	ev, err := e.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		return Result{}, err
	}

	criteria, scores, err := e.inputs(ctx, ev)
	if err != nil {
		return Result{}, err
	}
	return Aggregate(criteria, scores)
}

// TransitionStatus re-derives and persists the status and total of an
// evaluation. Running it again without changes is a no-op.
func (e *Engine) TransitionStatus(ctx context.Context, evaluationID uuid.UUID) (*Evaluation, error) {
	var out *Evaluation

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		ev, err := e.evaluations.LockByID(ctx, evaluationID)
		if err != nil {
			return err
		}
		out, err = e.recompute(ctx, ev)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddCriterion stores a new criterion and re-derives every evaluation of its
// conference, so completed evaluations reopen until the criterion is scored.
func (e *Engine) AddCriterion(ctx context.Context, c *Criterion) error {
	return e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := e.criteria.Create(ctx, c); err != nil {
			return err
		}
		evaluations, err := e.evaluations.ListByConference(ctx, c.ConferenceID)
		if err != nil {
			return fmt.Errorf("failed to list evaluations: %w", err)
		}
		return e.recomputeAll(ctx, evaluations)
	})
}

// MoveProject runs move, which changes the session of projectID, and
// re-derives the evaluations of the project against its new criteria.
// A project left without a session has no criteria: its evaluations fall
// back to pending with no total.
func (e *Engine) MoveProject(ctx context.Context, projectID uuid.UUID, move func(ctx context.Context) error) error {
	return e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := move(ctx); err != nil {
			return err
		}
		evaluations, err := e.evaluations.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list evaluations: %w", err)
		}
		if len(evaluations) == 0 {
			return nil
		}

		_, err = e.projects.ConferenceIDForProject(ctx, projectID)
		if errors.Is(err, common.ErrInvalidInput) {
			for _, ev := range evaluations {
				if err := e.evaluations.UpdateDerived(ctx, ev.ID, StatusPending, nil); err != nil {
					return fmt.Errorf("failed to update evaluation: %w", err)
				}
			}
			return nil
		}
		if err != nil {
			return err
		}
		return e.recomputeAll(ctx, evaluations)
	})
}

func (e *Engine) recomputeAll(ctx context.Context, evaluations []*Evaluation) error {
	for _, ev := range evaluations {
		locked, err := e.evaluations.LockByID(ctx, ev.ID)
		if err != nil {
			return err
		}
		if _, err := e.recompute(ctx, locked); err != nil {
			return err
		}
	}
	if len(evaluations) > 0 {
		e.log.Debug("Evaluations re-derived", "count", len(evaluations))
	}
	return nil
}

// UpdateComments sets the free-text remark of an evaluation
func (e *Engine) UpdateComments(ctx context.Context, actor *profile.Actor, evaluationID uuid.UUID, comments *string) (*Evaluation, error) {
	ev, err := e.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, ev); err != nil {
		return nil, err
	}

	ev.Comments = normalizeComment(comments)
	if err := e.evaluations.UpdateComments(ctx, ev.ID, ev.Comments); err != nil {
		return nil, fmt.Errorf("failed to update comments: %w", err)
	}
	return ev, nil
}

// CheckSessionCapacity fails with ErrSessionFull when the session has no seat left
func (e *Engine) CheckSessionCapacity(ctx context.Context, sessionID uuid.UUID) error {
	s, err := e.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	return e.checkCapacity(ctx, s)
}

// RegisterJudge adds the calling judge to a session. The session row is locked
// for the duration of the check and the insert, so concurrent registrations
// can never push the session past max_judges.
func (e *Engine) RegisterJudge(ctx context.Context, actor *profile.Actor, sessionID uuid.UUID) (*conference.JudgeSession, error) {
	if err := requireJudge(actor); err != nil {
		return nil, err
	}

	var js *conference.JudgeSession

	err := e.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		s, err := e.sessions.LockForRegistration(ctx, sessionID)
		if err != nil {
			return err
		}

		registered, err := e.sessions.IsJudgeRegistered(ctx, sessionID, actor.ProfileID)
		if err != nil {
			return fmt.Errorf("failed to check registration: %w", err)
		}
		if registered {
			return common.Conflict("judge %s is already registered for session %s", actor.ProfileID, sessionID)
		}

		if err := e.checkCapacity(ctx, s); err != nil {
			return err
		}

		js = conference.NewJudgeSession(actor.ProfileID, sessionID)
		if err := e.sessions.AddJudge(ctx, js); err != nil {
			return err
		}
		js.Session = s
		return nil
	})
	if err != nil {
		e.log.Debug("Registration rejected", "session_id", sessionID, "judge_id", actor.ProfileID, "error", err)
		return nil, err
	}

	e.log.Info("Judge registered", "session_id", sessionID, "judge_id", actor.ProfileID)
	return js, nil
}

// UnregisterJudge removes the calling judge from a session
func (e *Engine) UnregisterJudge(ctx context.Context, actor *profile.Actor, sessionID uuid.UUID) error {
	if !actor.HasProfile() {
		return fmt.Errorf("%w: a profile is required", common.ErrForbidden)
	}

	removed, err := e.sessions.RemoveJudge(ctx, sessionID, actor.ProfileID)
	if err != nil {
		return fmt.Errorf("failed to remove registration: %w", err)
	}
	if !removed {
		return common.NotFound("registration", sessionID)
	}

	e.log.Info("Judge unregistered", "session_id", sessionID, "judge_id", actor.ProfileID)
	return nil
}

func (e *Engine) checkCapacity(ctx context.Context, s *conference.Session) error {
	count, err := e.sessions.CountJudges(ctx, s.ID)
	if err != nil {
		return fmt.Errorf("failed to count judges: %w", err)
	}
	if count >= int64(s.MaxJudges) {
		return fmt.Errorf("%w: %d of %d judges registered", common.ErrSessionFull, count, s.MaxJudges)
	}
	return nil
}

// criterionFor loads a criterion and checks it belongs to the evaluation's conference
func (e *Engine) criterionFor(ctx context.Context, ev *Evaluation, criterionID uuid.UUID) (*Criterion, error) {
	conferenceID, err := e.projects.ConferenceIDForProject(ctx, ev.ProjectID)
	if err != nil {
		return nil, err
	}

	c, err := e.criteria.GetByID(ctx, criterionID)
	if err != nil {
		return nil, err
	}
	if c.ConferenceID != conferenceID {
		return nil, common.NotFound("criterion", criterionID)
	}
	return c, nil
}

func (e *Engine) inputs(ctx context.Context, ev *Evaluation) ([]Criterion, []Score, error) {
	conferenceID, err := e.projects.ConferenceIDForProject(ctx, ev.ProjectID)
	if err != nil {
		return nil, nil, err
	}

	criteria, err := e.criteria.ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list criteria: %w", err)
	}

	scores, err := e.scores.ListByEvaluation(ctx, ev.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return criteria, scores, nil
}

// recompute derives status and total from storage and writes both back.
// With no criteria the evaluation stays pending with no total.
func (e *Engine) recompute(ctx context.Context, ev *Evaluation) (*Evaluation, error) {
	criteria, scores, err := e.inputs(ctx, ev)
	if err != nil {
		return nil, err
	}

	res, err := Aggregate(criteria, scores)
	if err != nil && !errors.Is(err, common.ErrNoCriteriaDefined) {
		return nil, err
	}

	if err := e.evaluations.UpdateDerived(ctx, ev.ID, res.Status, res.Total); err != nil {
		return nil, fmt.Errorf("failed to update evaluation: %w", err)
	}

	if ev.Status != res.Status {
		e.log.Debug("Evaluation status changed", "evaluation_id", ev.ID, "from", ev.Status, "to", res.Status)
	}

	ev.Status = res.Status
	ev.TotalScore = res.Total
	ev.Scores = scores
	return ev, nil
}

// authorize allows the owning judge and admins
func authorize(actor *profile.Actor, ev *Evaluation) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.HasProfile() && actor.ProfileID == ev.JudgeID {
		return nil
	}
	return fmt.Errorf("%w: evaluation %s belongs to another judge", common.ErrForbidden, ev.ID)
}

func requireJudge(actor *profile.Actor) error {
	if !actor.HasProfile() {
		return fmt.Errorf("%w: a profile is required", common.ErrForbidden)
	}
	if !actor.HasRole(profile.RoleJudge) && !actor.IsAdmin() {
		return fmt.Errorf("%w: judge role required", common.ErrForbidden)
	}
	return nil
}

func normalizeComment(comment *string) *string {
	if comment == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*comment)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
