package services

import (
	"context"
	"fmt"
	"io"
	"mime"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
	"github.com/gravadigital/posterjudge-api/internal/storage/objects"
	"github.com/gravadigital/posterjudge-api/internal/validation"
)

// ProjectService handles projects and their posters
type ProjectService struct {
	store         storage.Container
	engine        *evaluation.Engine
	posters       objects.Store
	maxPosterSize int64
	validator     validation.TextValidation
	log           *log.Logger
}

// NewProjectService creates a new project service
func NewProjectService(store storage.Container, engine *evaluation.Engine, posters objects.Store, maxPosterSize int64) *ProjectService {
	return &ProjectService{
		store:         store,
		engine:        engine,
		posters:       posters,
		maxPosterSize: maxPosterSize,
		validator:     validation.DefaultText,
		log:           logger.Service("projects"),
	}
}

// CreateProjectRequest represents a request to create a project
type CreateProjectRequest struct {
	Title            string   `json:"title" binding:"required"`
	Description      *string  `json:"description"`
	Students         []string `json:"students"`
	Supervisor       *string  `json:"supervisor"`
	SpecializationID *string  `json:"specialization_id"`
	SessionID        *string  `json:"session_id"`
}

// CreateProject creates a pending project
func (s *ProjectService) CreateProject(ctx context.Context, req CreateProjectRequest) (*project.Project, error) {
	if err := s.validator.ValidateName(req.Title, "title"); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDescription(req.Description); err != nil {
		return nil, err
	}

	sessionID, err := validation.ParseOptionalUUID(req.SessionID, "session_id")
	if err != nil {
		return nil, err
	}
	specializationID, err := validation.ParseOptionalUUID(req.SpecializationID, "specialization_id")
	if err != nil {
		return nil, err
	}

	if sessionID != nil {
		if _, err := s.store.Sessions().GetByID(ctx, *sessionID); err != nil {
			return nil, err
		}
	}
	if specializationID != nil {
		if _, err := s.store.Specializations().GetByIDs(ctx, []uuid.UUID{*specializationID}); err != nil {
			return nil, err
		}
	}

	p := project.NewProject(req.Title, req.Students)
	p.Description = trimmed(req.Description)
	p.Supervisor = trimmed(req.Supervisor)
	p.SessionID = sessionID
	p.SpecializationID = specializationID
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Projects().Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("Project created", "project_id", p.ID, "title", p.Title, "students", len(p.Students))
	return p, nil
}

// ListProjectsRequest holds the optional listing filters
type ListProjectsRequest struct {
	ConferenceID string `form:"conference_id"`
	SessionID    string `form:"session_id"`
	Status       string `form:"status"`
}

// ListProjects returns the projects matching the filters
func (s *ProjectService) ListProjects(ctx context.Context, req ListProjectsRequest) ([]*project.Project, error) {
	var filter project.Filter
	var err error

	if filter.ConferenceID, err = validation.ParseOptionalUUID(&req.ConferenceID, "conference_id"); err != nil {
		return nil, err
	}
	if filter.SessionID, err = validation.ParseOptionalUUID(&req.SessionID, "session_id"); err != nil {
		return nil, err
	}
	if req.Status != "" {
		st, err := project.ParseStatus(req.Status)
		if err != nil {
			return nil, common.Invalid("status", "unknown status %q", req.Status)
		}
		filter.Status = &st
	}

	return s.store.Projects().List(ctx, filter)
}

// GetProject returns one project
func (s *ProjectService) GetProject(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	return s.store.Projects().GetByID(ctx, id)
}

// UpdateStatusRequest represents a project review decision
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateStatus moves a project through its review states
func (s *ProjectService) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*project.Project, error) {
	next, err := project.ParseStatus(req.Status)
	if err != nil {
		return nil, common.Invalid("status", "unknown status %q", req.Status)
	}

	p, err := s.store.Projects().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := p.Status
	if err := p.UpdateStatus(next); err != nil {
		return nil, err
	}

	if err := s.store.Projects().UpdateStatus(ctx, id, next); err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}

	s.log.Info("Project status changed", "project_id", id, "from", previous, "to", next)
	return p, nil
}

// AssignSessionRequest assigns a project to a session; a null session unassigns it
type AssignSessionRequest struct {
	SessionID *string `json:"session_id"`
}

// AssignSession moves a project to another session or removes it from its session
func (s *ProjectService) AssignSession(ctx context.Context, id uuid.UUID, req AssignSessionRequest) (*project.Project, error) {
	sessionID, err := validation.ParseOptionalUUID(req.SessionID, "session_id")
	if err != nil {
		return nil, err
	}
	if _, err := s.store.Projects().GetByID(ctx, id); err != nil {
		return nil, err
	}
	if sessionID != nil {
		if _, err := s.store.Sessions().GetByID(ctx, *sessionID); err != nil {
			return nil, err
		}
	}

	err = s.engine.MoveProject(ctx, id, func(ctx context.Context) error {
		return s.store.Projects().AssignSession(ctx, id, sessionID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Project session assigned", "project_id", id, "session_id", sessionID)
	return s.store.Projects().GetByID(ctx, id)
}

// PosterUpload describes an uploaded poster file
type PosterUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// UploadPoster stores the poster file and records its URL on the project
func (s *ProjectService) UploadPoster(ctx context.Context, id uuid.UUID, upload PosterUpload) (*project.Project, error) {
	if _, err := s.store.Projects().GetByID(ctx, id); err != nil {
		return nil, err
	}

	mediaType, _, err := mime.ParseMediaType(upload.ContentType)
	if err != nil {
		return nil, common.Invalid("poster", "missing or malformed content type")
	}
	ext, ok := objects.AllowedPosterTypes[mediaType]
	if !ok {
		return nil, common.Invalid("poster", "content type %s is not accepted; use PDF, PNG or JPEG", mediaType)
	}
	if upload.Size <= 0 {
		return nil, common.Invalid("poster", "file is empty")
	}
	if upload.Size > s.maxPosterSize {
		return nil, common.Invalid("poster", "file exceeds %d bytes", s.maxPosterSize)
	}

	key := fmt.Sprintf("posters/%s/%s%s", id, uuid.NewString(), ext)
	url, err := s.posters.Put(ctx, key, upload.Body, upload.Size, mediaType)
	if err != nil {
		return nil, err
	}

	if err := s.store.Projects().SetPosterURL(ctx, id, url); err != nil {
		if delErr := s.posters.Delete(ctx, key); delErr != nil {
			s.log.Warn("Failed to remove orphaned poster", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("failed to record poster: %w", err)
	}

	s.log.Info("Poster uploaded", "project_id", id, "key", key, "filename", upload.Filename, "size", upload.Size)
	return s.store.Projects().GetByID(ctx, id)
}
