package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/logger"
)

// healthTables are probed by Health
var healthTables = []string{
	"conferences", "sessions", "judge_sessions", "projects", "profiles",
	"user_roles", "evaluation_criteria", "evaluations", "evaluation_scores",
}

// Container holds every PostgreSQL repository over one connection pool
type Container struct {
	db  *gorm.DB
	log *log.Logger

	conferences     *PostgresConferenceRepository
	specializations *PostgresSpecializationRepository
	sessions        *PostgresSessionRepository
	reminders       *PostgresReminderRepository
	projects        *PostgresProjectRepository
	profiles        *PostgresProfileRepository
	roles           *PostgresRoleRepository
	evaluations     *PostgresEvaluationRepository
	scores          *PostgresScoreRepository
	criteria        *PostgresCriterionRepository
}

// NewContainer connects, migrates and builds all repositories
func NewContainer(cfg *config.Config) (*Container, error) {
	log := logger.Repository("postgres_container")
	log.Info("Initializing PostgreSQL repository container...")

	db, err := Connect(cfg)
	if err != nil {
		log.Error("Failed to connect to database", "error", err)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := AutoMigrate(db); err != nil {
		log.Error("Failed to run migrations", "error", err)
		_ = Close(db)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	container := NewContainerWithDB(db)
	if err := container.Health(context.Background()); err != nil {
		log.Error("Container health check failed", "error", err)
		_ = Close(db)
		return nil, fmt.Errorf("container health check failed: %w", err)
	}

	log.Info("PostgreSQL repository container initialized successfully")
	return container, nil
}

// NewContainerWithDB creates a container with an existing database connection
func NewContainerWithDB(db *gorm.DB) *Container {
	return &Container{
		db:              db,
		log:             logger.Repository("postgres_container"),
		conferences:     NewPostgresConferenceRepository(db),
		specializations: NewPostgresSpecializationRepository(db),
		sessions:        NewPostgresSessionRepository(db),
		reminders:       NewPostgresReminderRepository(db),
		projects:        NewPostgresProjectRepository(db),
		profiles:        NewPostgresProfileRepository(db),
		roles:           NewPostgresRoleRepository(db),
		evaluations:     NewPostgresEvaluationRepository(db),
		scores:          NewPostgresScoreRepository(db),
		criteria:        NewPostgresCriterionRepository(db),
	}
}

// WithinTransaction runs fn in a database transaction. Repositories called
// with the context passed to fn take part in it.
func (c *Container) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	c.log.Debug("Database transaction started")
	if err := withinTransaction(ctx, c.db, fn); err != nil {
		c.log.Debug("Database transaction rolled back", "error", err)
		return err
	}
	c.log.Debug("Database transaction committed")
	return nil
}

func (c *Container) Conferences() conference.ConferenceRepository {
	return c.conferences
}

func (c *Container) Specializations() conference.SpecializationRepository {
	return c.specializations
}

func (c *Container) Sessions() conference.SessionRepository {
	return c.sessions
}

func (c *Container) Reminders() conference.ReminderRepository {
	return c.reminders
}

func (c *Container) Projects() project.Repository {
	return c.projects
}

func (c *Container) Profiles() profile.ProfileRepository {
	return c.profiles
}

func (c *Container) Roles() profile.RoleRepository {
	return c.roles
}

func (c *Container) Evaluations() evaluation.EvaluationRepository {
	return c.evaluations
}

func (c *Container) Scores() evaluation.ScoreRepository {
	return c.scores
}

func (c *Container) Criteria() evaluation.CriterionRepository {
	return c.criteria
}

// Health pings the database and probes every table
func (c *Container) Health(ctx context.Context) error {
	c.log.Debug("Performing container health check...")

	if err := HealthCheck(ctx, c.db); err != nil {
		c.log.Error("Database health check failed", "error", err)
		return fmt.Errorf("database health check failed: %w", err)
	}

	for _, table := range healthTables {
		var count int64
		if err := c.db.WithContext(ctx).Table(table).Limit(1).Count(&count).Error; err != nil {
			c.log.Error("Repository health check failed", "table", table, "error", err)
			return fmt.Errorf("table %s health check failed: %w", table, err)
		}
	}

	metrics := GetDatabaseMetrics(c.db)
	c.log.Debug("Container health check completed",
		"open_connections", metrics.OpenConnections,
		"in_use_connections", metrics.InUseConnections,
		"idle_connections", metrics.IdleConnections)
	return nil
}

// Info returns information about the container and its connection pool
func (c *Container) Info() map[string]any {
	info := map[string]any{
		"type":   "postgres",
		"tables": healthTables,
	}
	if c.db != nil {
		info["database"] = GetDatabaseMetrics(c.db)
	} else {
		info["database"] = map[string]any{"connected": false}
	}
	return info
}

// Diagnostics reports table and connection statistics
func (c *Container) Diagnostics(ctx context.Context) (any, error) {
	return NewDiagnostics(c.db).Collect(ctx)
}

// Close gracefully shuts down the container and closes database connections
func (c *Container) Close() error {
	c.log.Info("Closing PostgreSQL repository container...")

	if c.db == nil {
		c.log.Warn("Database connection is nil, nothing to close")
		return nil
	}

	if err := Close(c.db); err != nil {
		return fmt.Errorf("failed to close database connection: %w", err)
	}
	c.db = nil

	c.log.Info("PostgreSQL repository container closed successfully")
	return nil
}

// CloseWithTimeout closes the container with a timeout
func (c *Container) CloseWithTimeout(timeout time.Duration) error {
	done := make(chan error, 1)

	go func() {
		done <- c.Close()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		c.log.Error("Container close operation timed out", "timeout", timeout)
		return fmt.Errorf("container close operation timed out after %v", timeout)
	}
}

// DB returns the underlying connection
func (c *Container) DB() *gorm.DB {
	return c.db
}
