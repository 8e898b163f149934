package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
)

var (
	_ conference.ConferenceRepository     = (*PostgresConferenceRepository)(nil)
	_ conference.SpecializationRepository = (*PostgresSpecializationRepository)(nil)
	_ conference.SessionRepository        = (*PostgresSessionRepository)(nil)
	_ conference.ReminderRepository       = (*PostgresReminderRepository)(nil)
	_ project.Repository                  = (*PostgresProjectRepository)(nil)
	_ profile.ProfileRepository           = (*PostgresProfileRepository)(nil)
	_ profile.RoleRepository              = (*PostgresRoleRepository)(nil)
	_ evaluation.EvaluationRepository     = (*PostgresEvaluationRepository)(nil)
	_ evaluation.ScoreRepository          = (*PostgresScoreRepository)(nil)
	_ evaluation.CriterionRepository      = (*PostgresCriterionRepository)(nil)
)

type txKey struct{}

// withinTransaction runs fn with a transaction stored in its context.
// Repositories pick it up through conn; nested calls join the outer transaction.
func withinTransaction(ctx context.Context, db *gorm.DB, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// conn returns the transaction carried by ctx, or db bound to ctx
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

// translate maps gorm errors onto the domain taxonomy
func translate(err error, entity string, id uuid.UUID) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return common.NotFound(entity, id)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return common.Conflict("%s already exists", entity)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return common.Invalid(entity, "references a record that does not exist")
	case errors.Is(err, gorm.ErrCheckConstraintViolated):
		return common.Invalid(entity, "violates a constraint: %v", err)
	}
	return fmt.Errorf("%s: %w", entity, err)
}
