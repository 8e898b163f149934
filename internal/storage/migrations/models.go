package migrations

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
)

// Schema models used only to create tables. The domain packages carry their
// own models over the same tables.

type Profile struct {
	ID          uuid.UUID         `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID      uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_profiles_user_id"`
	Email       string            `gorm:"not null"`
	FullName    string            `gorm:"not null"`
	Phone       *string
	Institution *string
	IsExternal  bool              `gorm:"not null;default:false"`
	Metadata    datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'"`
	CreatedAt   time.Time         `gorm:"autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"autoUpdateTime"`
}

func (Profile) TableName() string {
	return "profiles"
}

type UserRole struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_roles_user_role"`
	Role      string    `gorm:"type:app_role;not null;uniqueIndex:idx_user_roles_user_role"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
}

func (UserRole) TableName() string {
	return "user_roles"
}

type Conference struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name        string         `gorm:"not null"`
	Description *string
	StartDate   datatypes.Date `gorm:"not null"`
	EndDate     datatypes.Date `gorm:"not null"`
	Location    *string
	IsActive    bool      `gorm:"not null;default:false"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`

	Sessions []Session   `gorm:"foreignKey:ConferenceID;constraint:OnDelete:CASCADE"`
	Criteria []Criterion `gorm:"foreignKey:ConferenceID;constraint:OnDelete:CASCADE"`
}

func (Conference) TableName() string {
	return "conferences"
}

type Specialization struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Name        string    `gorm:"not null;uniqueIndex:idx_specializations_name"`
	Description *string
	CreatedAt   time.Time `gorm:"autoCreateTime"`
}

func (Specialization) TableName() string {
	return "specializations"
}

type Session struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ConferenceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"not null"`
	StartTime    time.Time `gorm:"not null"`
	EndTime      time.Time `gorm:"not null"`
	Location     *string
	MaxJudges    int       `gorm:"not null;default:5;check:chk_sessions_max_judges,max_judges > 0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`

	Specializations []Specialization `gorm:"many2many:session_specializations;constraint:OnDelete:CASCADE"`
	Judges          []JudgeSession   `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
	Projects        []Project        `gorm:"foreignKey:SessionID;constraint:OnDelete:SET NULL"`
}

func (Session) TableName() string {
	return "sessions"
}

type JudgeSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	JudgeID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_judge_sessions_judge_session"`
	SessionID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_judge_sessions_judge_session;index"`
	Confirmed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`

	Judge Profile `gorm:"foreignKey:JudgeID;constraint:OnDelete:CASCADE"`
}

func (JudgeSession) TableName() string {
	return "judge_sessions"
}

type Project struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	Title            string     `gorm:"not null"`
	Description      *string
	PosterURL        *string
	SessionID        *uuid.UUID `gorm:"type:uuid;index"`
	SpecializationID *uuid.UUID `gorm:"type:uuid;index"`
	Status           string     `gorm:"type:project_status;not null;default:'pending'"`
	Students         pq.StringArray `gorm:"type:text[];not null;default:'{}'"`
	Supervisor       *string
	CreatedAt        time.Time `gorm:"autoCreateTime"`
	UpdatedAt        time.Time `gorm:"autoUpdateTime"`

	Specialization *Specialization `gorm:"foreignKey:SpecializationID;constraint:OnDelete:SET NULL"`
	Evaluations    []Evaluation    `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE"`
}

func (Project) TableName() string {
	return "projects"
}

type Criterion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	ConferenceID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name         string    `gorm:"not null"`
	Description  *string
	MaxScore     int       `gorm:"not null;default:10;check:chk_criteria_max_score,max_score > 0"`
	Weight       float64   `gorm:"type:double precision;not null;default:1;check:chk_criteria_weight,weight >= 0"`
	OrderIndex   int       `gorm:"not null;default:0"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`

	Scores []Score `gorm:"foreignKey:CriterionID;constraint:OnDelete:CASCADE"`
}

func (Criterion) TableName() string {
	return "evaluation_criteria"
}

type Evaluation struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	JudgeID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_evaluations_judge_project"`
	ProjectID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_evaluations_judge_project;index"`
	Status     string    `gorm:"type:evaluation_status;not null;default:'pending'"`
	TotalScore *float64  `gorm:"type:double precision"`
	Comments   *string
	CreatedAt  time.Time `gorm:"autoCreateTime"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`

	Judge  Profile `gorm:"foreignKey:JudgeID;constraint:OnDelete:CASCADE"`
	Scores []Score `gorm:"foreignKey:EvaluationID;constraint:OnDelete:CASCADE"`
}

func (Evaluation) TableName() string {
	return "evaluations"
}

type Score struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	EvaluationID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_evaluation_scores_evaluation_criteria"`
	CriterionID  uuid.UUID `gorm:"column:criteria_id;type:uuid;not null;uniqueIndex:idx_evaluation_scores_evaluation_criteria;index"`
	Score        float64   `gorm:"type:double precision;not null"`
	Comment      *string
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (Score) TableName() string {
	return "evaluation_scores"
}

type Reminder struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()"`
	JudgeID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	SessionID   *uuid.UUID `gorm:"type:uuid;index"`
	Message     string     `gorm:"not null"`
	Type        string     `gorm:"not null"`
	ScheduledAt time.Time  `gorm:"not null"`
	SentAt      *time.Time
	CreatedAt   time.Time `gorm:"autoCreateTime"`

	Judge   Profile  `gorm:"foreignKey:JudgeID;constraint:OnDelete:CASCADE"`
	Session *Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

func (Reminder) TableName() string {
	return "reminders"
}

// AllModels returns every model in dependency order
func AllModels() []any {
	return []any{
		&Profile{},
		&UserRole{},
		&Conference{},
		&Specialization{},
		&Session{},
		&JudgeSession{},
		&Project{},
		&Criterion{},
		&Evaluation{},
		&Score{},
		&Reminder{},
	}
}
