package conference

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

// Conference groups sessions, projects and evaluation criteria
type Conference struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name        string         `json:"name" gorm:"not null"`
	Description *string        `json:"description,omitempty"`
	StartDate   datatypes.Date `json:"start_date" gorm:"not null"`
	EndDate     datatypes.Date `json:"end_date" gorm:"not null"`
	Location    *string        `json:"location,omitempty"`
	IsActive    bool           `json:"is_active" gorm:"not null;default:false"`
	CreatedAt   time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Conference) TableName() string {
	return "conferences"
}

// BeforeCreate sets a UUID before creating the record
func (c *Conference) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NewConference creates an inactive conference
func NewConference(name string, startDate, endDate time.Time) *Conference {
	return &Conference{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		StartDate: datatypes.Date(startDate),
		EndDate:   datatypes.Date(endDate),
	}
}

// Validate checks if the conference data is valid
func (c *Conference) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return common.Invalid("name", "is required")
	}
	start, end := time.Time(c.StartDate), time.Time(c.EndDate)
	if start.IsZero() || end.IsZero() {
		return common.Invalid("start_date", "start_date and end_date are required")
	}
	if end.Before(start) {
		return common.Invalid("end_date", "must not be before start_date")
	}
	return nil
}

// Specialization is a thematic area shared by sessions and projects
type Specialization struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name        string    `json:"name" gorm:"not null;uniqueIndex:idx_specializations_name"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Specialization) TableName() string {
	return "specializations"
}

// BeforeCreate sets a UUID before creating the record
func (s *Specialization) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Session is a time slot of a conference with a bounded number of judges
type Session struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ConferenceID    uuid.UUID        `json:"conference_id" gorm:"type:uuid;not null;index"`
	Name            string           `json:"name" gorm:"not null"`
	StartTime       time.Time        `json:"start_time" gorm:"not null"`
	EndTime         time.Time        `json:"end_time" gorm:"not null"`
	Location        *string          `json:"location,omitempty"`
	MaxJudges       int              `json:"max_judges" gorm:"not null;default:5"`
	Specializations []Specialization `json:"specializations,omitempty" gorm:"many2many:session_specializations;"`
	CreatedAt       time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName overrides the table name used by GORM
func (Session) TableName() string {
	return "sessions"
}

// BeforeCreate sets a UUID before creating the record
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// DefaultMaxJudges is used when a session is created without a capacity
const DefaultMaxJudges = 5

// NewSession creates a session with the default capacity when maxJudges is zero
func NewSession(conferenceID uuid.UUID, name string, start, end time.Time, maxJudges int) *Session {
	if maxJudges == 0 {
		maxJudges = DefaultMaxJudges
	}
	return &Session{
		ID:           uuid.New(),
		ConferenceID: conferenceID,
		Name:         strings.TrimSpace(name),
		StartTime:    start,
		EndTime:      end,
		MaxJudges:    maxJudges,
	}
}

// Validate checks if the session data is valid
func (s *Session) Validate() error {
	if s.ConferenceID == uuid.Nil {
		return common.Invalid("conference_id", "is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		return common.Invalid("name", "is required")
	}
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return common.Invalid("start_time", "start_time and end_time are required")
	}
	if !s.StartTime.Before(s.EndTime) {
		return common.Invalid("end_time", "must be after start_time")
	}
	if s.MaxJudges <= 0 {
		return common.Invalid("max_judges", "must be positive, got %d", s.MaxJudges)
	}
	return nil
}

// JudgeSession registers a judge (profile) for a session. (judge_id, session_id) is unique.
type JudgeSession struct {
	ID        uuid.UUID             `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	JudgeID   uuid.UUID             `json:"judge_id" gorm:"type:uuid;not null;uniqueIndex:idx_judge_sessions_judge_session"`
	SessionID uuid.UUID             `json:"session_id" gorm:"type:uuid;not null;uniqueIndex:idx_judge_sessions_judge_session;index"`
	Confirmed bool                  `json:"confirmed" gorm:"not null;default:false"`
	CreatedAt time.Time             `json:"created_at" gorm:"autoCreateTime"`
	Session   *Session              `json:"session,omitempty" gorm:"foreignKey:SessionID"`
	Judge     *common.SharedProfile `json:"judge,omitempty" gorm:"foreignKey:JudgeID"`
}

// TableName overrides the table name used by GORM
func (JudgeSession) TableName() string {
	return "judge_sessions"
}

// BeforeCreate sets a UUID before creating the record
func (js *JudgeSession) BeforeCreate(tx *gorm.DB) error {
	if js.ID == uuid.Nil {
		js.ID = uuid.New()
	}
	return nil
}

// NewJudgeSession creates an unconfirmed registration
func NewJudgeSession(judgeID, sessionID uuid.UUID) *JudgeSession {
	return &JudgeSession{
		ID:        uuid.New(),
		JudgeID:   judgeID,
		SessionID: sessionID,
	}
}

// SessionOccupancy is a row of the session_occupancy view
type SessionOccupancy struct {
	SessionID        uuid.UUID `json:"session_id" gorm:"type:uuid"`
	ConferenceID     uuid.UUID `json:"conference_id" gorm:"type:uuid"`
	MaxJudges        int       `json:"max_judges"`
	RegisteredJudges int       `json:"registered_judges"`
	ConfirmedJudges  int       `json:"confirmed_judges"`
	SeatsLeft        int       `json:"seats_left"`
}

// TableName overrides the table name used by GORM
func (SessionOccupancy) TableName() string {
	return "session_occupancy"
}

// Full reports whether no seat is left
func (o SessionOccupancy) Full() bool {
	return o.SeatsLeft <= 0
}

// NewOccupancy derives the occupancy numbers from raw counts
func NewOccupancy(s *Session, registered, confirmed int) SessionOccupancy {
	left := s.MaxJudges - registered
	if left < 0 {
		left = 0
	}
	return SessionOccupancy{
		SessionID:        s.ID,
		ConferenceID:     s.ConferenceID,
		MaxJudges:        s.MaxJudges,
		RegisteredJudges: registered,
		ConfirmedJudges:  confirmed,
		SeatsLeft:        left,
	}
}

// ReminderType classifies reminders. Delivery happens outside this service.
type ReminderType string

const (
	ReminderSessionStart ReminderType = "session_start"
)

// Reminder is a scheduled notice for a judge
type Reminder struct {
	ID          uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	JudgeID     uuid.UUID    `json:"judge_id" gorm:"type:uuid;not null;index"`
	SessionID   *uuid.UUID   `json:"session_id,omitempty" gorm:"type:uuid;index"`
	Message     string       `json:"message" gorm:"not null"`
	Type        ReminderType `json:"type" gorm:"not null"`
	ScheduledAt time.Time    `json:"scheduled_at" gorm:"not null"`
	SentAt      *time.Time   `json:"sent_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at" gorm:"autoCreateTime"`
}

// TableName overrides the table name used by GORM
func (Reminder) TableName() string {
	return "reminders"
}

// BeforeCreate sets a UUID before creating the record
func (r *Reminder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReminderLeadTime is how long before a session starts its reminder is due
const ReminderLeadTime = 24 * time.Hour

// NewSessionReminder schedules the start-of-session notice for a registered judge.
// Sessions starting within the lead time are reminded immediately.
func NewSessionReminder(judgeID uuid.UUID, s *Session, now time.Time) *Reminder {
	at := s.StartTime.Add(-ReminderLeadTime)
	if at.Before(now) {
		at = now
	}
	sessionID := s.ID
	return &Reminder{
		ID:          uuid.New(),
		JudgeID:     judgeID,
		SessionID:   &sessionID,
		Message:     fmt.Sprintf("Session %q starts at %s", s.Name, s.StartTime.UTC().Format(time.RFC3339)),
		Type:        ReminderSessionStart,
		ScheduledAt: at,
	}
}
