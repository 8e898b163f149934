package project

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByID(ctx context.Context, id uuid.UUID) (*Project, error)
	List(ctx context.Context, filter Filter) ([]*Project, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	AssignSession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error
	SetPosterURL(ctx context.Context, id uuid.UUID, url string) error
	// ConferenceIDForProject resolves the conference through the project's session.
	ConferenceIDForProject(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}
