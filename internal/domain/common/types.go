package common

import "github.com/google/uuid"

// SharedProfile represents the minimal Profile structure used across domains
type SharedProfile struct {
	ID       uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email"`
}

func (SharedProfile) TableName() string {
	return "profiles"
}

// SharedSession represents the minimal Session structure used across domains
type SharedSession struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ConferenceID uuid.UUID `json:"conference_id"`
	Name         string    `json:"name"`
}

func (SharedSession) TableName() string {
	return "sessions"
}

// SharedProject represents the minimal Project structure used across domains
type SharedProject struct {
	ID        uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Title     string     `json:"title"`
	SessionID *uuid.UUID `json:"session_id"`
}

func (SharedProject) TableName() string {
	return "projects"
}
