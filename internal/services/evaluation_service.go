package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/storage"
)

// EvaluationService exposes the evaluation engine to the handlers
type EvaluationService struct {
	store  storage.Container
	engine *evaluation.Engine
}

// NewEvaluationService creates a new evaluation service
func NewEvaluationService(store storage.Container, engine *evaluation.Engine) *EvaluationService {
	return &EvaluationService{store: store, engine: engine}
}

// ScoreRequest carries one criterion score
type ScoreRequest struct {
	Score   *float64 `json:"score" binding:"required"`
	Comment *string  `json:"comment"`
}

// CommentsRequest carries the free-text comment of an evaluation
type CommentsRequest struct {
	Comments *string `json:"comments"`
}

// Start opens the caller's evaluation of a project
func (s *EvaluationService) Start(ctx context.Context, actor *profile.Actor, projectID uuid.UUID) (*evaluation.Evaluation, error) {
	return s.engine.StartEvaluation(ctx, actor, projectID)
}

// ScoreProject scores a criterion of a project, creating the caller's
// evaluation on first use
func (s *EvaluationService) ScoreProject(ctx context.Context, actor *profile.Actor, projectID, criterionID uuid.UUID, req ScoreRequest) (*evaluation.Evaluation, error) {
	if req.Score == nil {
		return nil, common.Invalid("score", "is required")
	}
	ev, err := s.engine.EnsureEvaluation(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	return s.engine.SubmitScore(ctx, actor, ev.ID, criterionID, *req.Score, req.Comment)
}

// Submit scores a criterion of an existing evaluation
func (s *EvaluationService) Submit(ctx context.Context, actor *profile.Actor, evaluationID, criterionID uuid.UUID, req ScoreRequest) (*evaluation.Evaluation, error) {
	if req.Score == nil {
		return nil, common.Invalid("score", "is required")
	}
	return s.engine.SubmitScore(ctx, actor, evaluationID, criterionID, *req.Score, req.Comment)
}

// RemoveScore deletes a criterion score
func (s *EvaluationService) RemoveScore(ctx context.Context, actor *profile.Actor, evaluationID, criterionID uuid.UUID) (*evaluation.Evaluation, error) {
	return s.engine.RemoveScore(ctx, actor, evaluationID, criterionID)
}

// Get returns an evaluation visible to the caller
func (s *EvaluationService) Get(ctx context.Context, actor *profile.Actor, id uuid.UUID) (*evaluation.Evaluation, error) {
	return s.engine.GetEvaluation(ctx, actor, id)
}

// Total computes the current total of an evaluation visible to the caller
func (s *EvaluationService) Total(ctx context.Context, actor *profile.Actor, id uuid.UUID) (evaluation.Result, error) {
	if _, err := s.engine.GetEvaluation(ctx, actor, id); err != nil {
		return evaluation.Result{}, err
	}
	return s.engine.ComputeTotal(ctx, id)
}

// Recalculate re-derives and stores the status and total of an evaluation
func (s *EvaluationService) Recalculate(ctx context.Context, id uuid.UUID) (*evaluation.Evaluation, error) {
	return s.engine.TransitionStatus(ctx, id)
}

// UpdateComments replaces the free-text comment of an evaluation
func (s *EvaluationService) UpdateComments(ctx context.Context, actor *profile.Actor, id uuid.UUID, req CommentsRequest) (*evaluation.Evaluation, error) {
	return s.engine.UpdateComments(ctx, actor, id, req.Comments)
}

// Mine lists the caller's evaluations
func (s *EvaluationService) Mine(ctx context.Context, actor *profile.Actor) ([]*evaluation.Evaluation, error) {
	if !actor.HasProfile() {
		return []*evaluation.Evaluation{}, nil
	}
	out, err := s.store.Evaluations().ListByJudge(ctx, actor.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	if out == nil {
		out = []*evaluation.Evaluation{}
	}
	return out, nil
}

// ForProject lists every evaluation of a project
func (s *EvaluationService) ForProject(ctx context.Context, projectID uuid.UUID) ([]*evaluation.Evaluation, error) {
	if _, err := s.store.Projects().GetByID(ctx, projectID); err != nil {
		return nil, err
	}
	out, err := s.store.Evaluations().ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	if out == nil {
		out = []*evaluation.Evaluation{}
	}
	return out, nil
}
