package evaluation

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

// Criterion is one weighted dimension a conference's projects are judged on
type Criterion struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ConferenceID uuid.UUID `json:"conference_id" gorm:"type:uuid;not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	Description  *string   `json:"description,omitempty"`
	MaxScore     int       `json:"max_score" gorm:"not null;default:10"`
	Weight       float64   `json:"weight" gorm:"type:double precision;not null;default:1"`
	OrderIndex   int       `json:"order_index" gorm:"not null;default:0"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Criterion) TableName() string {
	return "evaluation_criteria"
}

// BeforeCreate sets a UUID before creating the record
func (c *Criterion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Default scale of a criterion
const (
	DefaultMaxScore = 10
	DefaultWeight   = 1.0
)

// NewCriterion creates a criterion; zero maxScore takes the default scale
func NewCriterion(conferenceID uuid.UUID, name string, maxScore int, weight float64, orderIndex int) *Criterion {
	if maxScore == 0 {
		maxScore = DefaultMaxScore
	}
	return &Criterion{
		ID:           uuid.New(),
		ConferenceID: conferenceID,
		Name:         strings.TrimSpace(name),
		MaxScore:     maxScore,
		Weight:       weight,
		OrderIndex:   orderIndex,
	}
}

// Validate checks if the criterion data is valid
func (c *Criterion) Validate() error {
	if c.ConferenceID == uuid.Nil {
		return common.Invalid("conference_id", "is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return common.Invalid("name", "is required")
	}
	if c.MaxScore <= 0 {
		return common.Invalid("max_score", "must be positive, got %d", c.MaxScore)
	}
	if math.IsNaN(c.Weight) || math.IsInf(c.Weight, 0) || c.Weight < 0 {
		return common.Invalid("weight", "must be a non-negative number")
	}
	return nil
}

// CheckScore verifies value lies in [0, MaxScore]
func (c *Criterion) CheckScore(value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 || value > float64(c.MaxScore) {
		return &common.OutOfRangeScoreError{Score: value, Min: 0, Max: float64(c.MaxScore)}
	}
	return nil
}

// Evaluation is one judge's assessment of one project. (judge_id, project_id) is unique.
// Status and TotalScore are derived from the scores and never written directly.
type Evaluation struct {
	ID         uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	JudgeID    uuid.UUID             `json:"judge_id" gorm:"type:uuid;not null;uniqueIndex:idx_evaluations_judge_project"`
	ProjectID  uuid.UUID             `json:"project_id" gorm:"type:uuid;not null;uniqueIndex:idx_evaluations_judge_project;index"`
	Status     Status                `json:"status" gorm:"type:evaluation_status;not null;default:'pending'"`
	TotalScore *float64              `json:"total_score" gorm:"type:double precision"`
	Comments   *string               `json:"comments,omitempty"`
	CreatedAt  time.Time             `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time             `json:"updated_at" gorm:"autoUpdateTime"`
	Scores     []Score               `json:"scores,omitempty" gorm:"foreignKey:EvaluationID"`
	Judge      *common.SharedProfile `json:"judge,omitempty" gorm:"foreignKey:JudgeID"`
	Project    *common.SharedProject `json:"project,omitempty" gorm:"foreignKey:ProjectID"`
}

// TableName overrides the table name used by GORM
func (Evaluation) TableName() string {
	return "evaluations"
}

// BeforeCreate sets a UUID before creating the record
func (e *Evaluation) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// NewEvaluation creates a pending evaluation with no scores
func NewEvaluation(judgeID, projectID uuid.UUID) *Evaluation {
	return &Evaluation{
		ID:        uuid.New(),
		JudgeID:   judgeID,
		ProjectID: projectID,
		Status:    StatusPending,
	}
}

// Score is a judge's value for one criterion within an evaluation.
// (evaluation_id, criteria_id) is unique.
type Score struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EvaluationID uuid.UUID `json:"evaluation_id" gorm:"type:uuid;not null;uniqueIndex:idx_evaluation_scores_evaluation_criteria"`
	CriterionID  uuid.UUID `json:"criteria_id" gorm:"column:criteria_id;type:uuid;not null;uniqueIndex:idx_evaluation_scores_evaluation_criteria;index"`
	Score        float64   `json:"score" gorm:"type:double precision;not null"`
	Comment      *string   `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Score) TableName() string {
	return "evaluation_scores"
}

// BeforeCreate sets a UUID before creating the record
func (s *Score) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Status is the completeness of an evaluation
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Scan implements the sql.Scanner interface for database reads
func (s *Status) Scan(value any) error {
	switch v := value.(type) {
	case string:
		*s = Status(v)
	case []byte:
		*s = Status(v)
	default:
		return fmt.Errorf("cannot scan %T into evaluation Status", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for database writes
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid evaluation status: %s", s)
	}
	return string(s), nil
}
