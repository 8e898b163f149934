package project

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

// Project is a poster submitted to a conference
type Project struct {
	ID               uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Title            string         `json:"title" gorm:"not null"`
	Description      *string        `json:"description,omitempty"`
	PosterURL        *string        `json:"poster_url,omitempty"`
	SessionID        *uuid.UUID     `json:"session_id,omitempty" gorm:"type:uuid;index"`
	SpecializationID *uuid.UUID     `json:"specialization_id,omitempty" gorm:"type:uuid;index"`
	Status           Status         `json:"status" gorm:"type:project_status;not null;default:'pending'"`
	Students         pq.StringArray `json:"students" gorm:"type:text[];not null;default:'{}'"`
	Supervisor       *string        `json:"supervisor,omitempty"`
	CreatedAt        time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt        time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Project) TableName() string {
	return "projects"
}

// BeforeCreate sets a UUID before creating the record
func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// NewProject creates a pending project. Student order is preserved.
func NewProject(title string, students []string) *Project {
	list := make(pq.StringArray, 0, len(students))
	for _, s := range students {
		if s = strings.TrimSpace(s); s != "" {
			list = append(list, s)
		}
	}
	return &Project{
		ID:       uuid.New(),
		Title:    strings.TrimSpace(title),
		Status:   StatusPending,
		Students: list,
	}
}

// Validate checks if the project data is valid
func (p *Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return common.Invalid("title", "is required")
	}
	if !p.Status.Valid() {
		return common.Invalid("status", "unknown status %q", p.Status)
	}
	return nil
}

// CanTransitionTo checks if the project can move to a new status
func (p *Project) CanTransitionTo(next Status) bool {
	transitions := map[Status][]Status{
		StatusPending:  {StatusApproved, StatusRejected},
		StatusApproved: {StatusPending, StatusRejected},
		StatusRejected: {StatusPending, StatusApproved},
	}

	allowed, exists := transitions[p.Status]
	if !exists {
		return false
	}
	return slices.Contains(allowed, next)
}

// UpdateStatus updates the status if the transition is valid
func (p *Project) UpdateStatus(next Status) error {
	if !p.CanTransitionTo(next) {
		return common.Invalid("status", "cannot transition from %s to %s", p.Status, next)
	}
	p.Status = next
	return nil
}

// Status is the review state of a project
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus converts a string to a Status
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("invalid project status: %s", s)
	}
	return st, nil
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
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
		return fmt.Errorf("cannot scan %T into project Status", value)
	}
	return nil
}

// Value implements the driver.Valuer interface for database writes
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid project status: %s", s)
	}
	return string(s), nil
}

// Filter narrows project listings. Zero fields are ignored.
type Filter struct {
	ConferenceID *uuid.UUID
	SessionID    *uuid.UUID
	Status       *Status
}
