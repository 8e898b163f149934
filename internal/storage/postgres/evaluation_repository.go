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
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// PostgresEvaluationRepository implements evaluation.EvaluationRepository using GORM
type PostgresEvaluationRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresEvaluationRepository creates a new PostgreSQL evaluation repository
func NewPostgresEvaluationRepository(db *gorm.DB) *PostgresEvaluationRepository {
	return &PostgresEvaluationRepository{
		db:  db,
		log: logger.Repository("evaluation"),
	}
}

func (r *PostgresEvaluationRepository) Create(ctx context.Context, ev *evaluation.Evaluation) error {
	r.log.Debug("Creating evaluation", "judge_id", ev.JudgeID, "project_id", ev.ProjectID)

	err := conn(ctx, r.db).Omit(clause.Associations).Create(ev).Error
	switch {
	case err == nil:
		r.log.Info("Evaluation created successfully", "id", ev.ID, "judge_id", ev.JudgeID, "project_id", ev.ProjectID)
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return common.Conflict("evaluation for judge %s and project %s already exists", ev.JudgeID, ev.ProjectID)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return common.NotFound("project", ev.ProjectID)
	}
	r.log.Error("Failed to create evaluation", "error", err)
	return fmt.Errorf("failed to create evaluation: %w", err)
}

func (r *PostgresEvaluationRepository) GetByID(ctx context.Context, id uuid.UUID) (*evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	if err := r.hydrated(ctx).First(&ev, "evaluations.id = ?", id).Error; err != nil {
		return nil, translate(err, "evaluation", id)
	}
	return &ev, nil
}

// LockByID takes SELECT ... FOR UPDATE on the evaluation row
func (r *PostgresEvaluationRepository) LockByID(ctx context.Context, id uuid.UUID) (*evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	if err := conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ev, "id = ?", id).Error; err != nil {
		return nil, translate(err, "evaluation", id)
	}
	return &ev, nil
}

func (r *PostgresEvaluationRepository) GetByJudgeAndProject(ctx context.Context, judgeID, projectID uuid.UUID) (*evaluation.Evaluation, error) {
	var ev evaluation.Evaluation
	err := r.hydrated(ctx).
		Where("judge_id = ? AND project_id = ?", judgeID, projectID).
		First(&ev).Error
	if err != nil {
		return nil, translate(err, "evaluation", uuid.Nil)
	}
	return &ev, nil
}

func (r *PostgresEvaluationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*evaluation.Evaluation, error) {
	return r.list(r.hydrated(ctx).Where("evaluations.project_id = ?", projectID))
}

func (r *PostgresEvaluationRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*evaluation.Evaluation, error) {
	return r.list(r.hydrated(ctx).Where("evaluations.judge_id = ?", judgeID))
}

func (r *PostgresEvaluationRepository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*evaluation.Evaluation, error) {
	return r.list(r.hydrated(ctx).
		Joins("JOIN projects p ON p.id = evaluations.project_id").
		Joins("JOIN sessions s ON s.id = p.session_id").
		Where("s.conference_id = ?", conferenceID))
}

func (r *PostgresEvaluationRepository) UpdateDerived(ctx context.Context, id uuid.UUID, status evaluation.Status, total *float64) error {
	res := conn(ctx, r.db).Model(&evaluation.Evaluation{}).Where("id = ?", id).
		Updates(map[string]any{"status": status, "total_score": total})
	if res.Error != nil {
		r.log.Error("Failed to update evaluation", "id", id, "error", res.Error)
		return translate(res.Error, "evaluation", id)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("evaluation", id)
	}
	r.log.Debug("Evaluation derived state stored", "id", id, "status", status)
	return nil
}

func (r *PostgresEvaluationRepository) UpdateComments(ctx context.Context, id uuid.UUID, comments *string) error {
	res := conn(ctx, r.db).Model(&evaluation.Evaluation{}).Where("id = ?", id).Update("comments", comments)
	if res.Error != nil {
		return translate(res.Error, "evaluation", id)
	}
	if res.RowsAffected == 0 {
		return common.NotFound("evaluation", id)
	}
	return nil
}

func (r *PostgresEvaluationRepository) hydrated(ctx context.Context) *gorm.DB {
	return conn(ctx, r.db).
		Preload("Scores", func(db *gorm.DB) *gorm.DB { return db.Order("created_at, id") }).
		Preload("Judge").
		Preload("Project")
}

func (r *PostgresEvaluationRepository) list(q *gorm.DB) ([]*evaluation.Evaluation, error) {
	var out []*evaluation.Evaluation
	if err := q.Order("evaluations.created_at, evaluations.id").Find(&out).Error; err != nil {
		r.log.Error("Failed to list evaluations", "error", err)
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}
	return out, nil
}

// PostgresScoreRepository implements evaluation.ScoreRepository using GORM
type PostgresScoreRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresScoreRepository creates a new PostgreSQL score repository
func NewPostgresScoreRepository(db *gorm.DB) *PostgresScoreRepository {
	return &PostgresScoreRepository{
		db:  db,
		log: logger.Repository("score"),
	}
}

// Upsert relies on the unique (evaluation_id, criteria_id) index
func (r *PostgresScoreRepository) Upsert(ctx context.Context, s *evaluation.Score) error {
	r.log.Debug("Upserting score", "evaluation_id", s.EvaluationID, "criteria_id", s.CriterionID, "score", s.Score)

	err := conn(ctx, r.db).Clauses(
		clause.OnConflict{
			Columns:   []clause.Column{{Name: "evaluation_id"}, {Name: "criteria_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"score", "comment", "updated_at"}),
		},
		clause.Returning{},
	).Create(s).Error

	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return common.NotFound("criterion", s.CriterionID)
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		// validate_evaluation_score trigger; the failed statement aborts the
		// transaction, so the criterion bounds are left to the caller
		return fmt.Errorf("%w: score %g rejected by validate_evaluation_score", common.ErrOutOfRangeScore, s.Score)
	}
	r.log.Error("Failed to upsert score", "evaluation_id", s.EvaluationID, "error", err)
	return fmt.Errorf("failed to upsert score: %w", err)
}

func (r *PostgresScoreRepository) Delete(ctx context.Context, evaluationID, criterionID uuid.UUID) (bool, error) {
	res := conn(ctx, r.db).
		Where("evaluation_id = ? AND criteria_id = ?", evaluationID, criterionID).
		Delete(&evaluation.Score{})
	if res.Error != nil {
		return false, fmt.Errorf("failed to delete score: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *PostgresScoreRepository) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]evaluation.Score, error) {
	var out []evaluation.Score
	if err := conn(ctx, r.db).Where("evaluation_id = ?", evaluationID).Order("created_at, id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return out, nil
}

// PostgresCriterionRepository implements evaluation.CriterionRepository using GORM
type PostgresCriterionRepository struct {
	db  *gorm.DB
	log *log.Logger
}

// NewPostgresCriterionRepository creates a new PostgreSQL criterion repository
func NewPostgresCriterionRepository(db *gorm.DB) *PostgresCriterionRepository {
	return &PostgresCriterionRepository{
		db:  db,
		log: logger.Repository("criterion"),
	}
}

func (r *PostgresCriterionRepository) Create(ctx context.Context, c *evaluation.Criterion) error {
	if err := conn(ctx, r.db).Create(c).Error; err != nil {
		r.log.Error("Failed to create criterion", "name", c.Name, "error", err)
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return common.NotFound("conference", c.ConferenceID)
		}
		return translate(err, "criterion", c.ID)
	}
	r.log.Info("Criterion created", "id", c.ID, "conference_id", c.ConferenceID, "name", c.Name)
	return nil
}

func (r *PostgresCriterionRepository) GetByID(ctx context.Context, id uuid.UUID) (*evaluation.Criterion, error) {
	var c evaluation.Criterion
	if err := conn(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err, "criterion", id)
	}
	return &c, nil
}

func (r *PostgresCriterionRepository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]evaluation.Criterion, error) {
	var out []evaluation.Criterion
	if err := conn(ctx, r.db).
		Where("conference_id = ?", conferenceID).
		Order("order_index, name, id").
		Find(&out).Error; err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return evaluation.SortCriteria(out), nil
}
