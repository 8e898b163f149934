package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
)

// ProjectRepository is the in-memory project store
type ProjectRepository struct {
	s *Store
}

func (r *ProjectRepository) Create(ctx context.Context, p *project.Project) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if p.SessionID != nil {
		if _, ok := r.s.sessions[*p.SessionID]; !ok {
			return common.NotFound("session", *p.SessionID)
		}
	}
	if p.SpecializationID != nil {
		if _, ok := r.s.specializations[*p.SpecializationID]; !ok {
			return common.NotFound("specialization", *p.SpecializationID)
		}
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Status == "" {
		p.Status = project.StatusPending
	}
	r.s.stamp(&p.CreatedAt)
	p.UpdatedAt = p.CreatedAt

	stored := clone(p)
	stored.Students = slices.Clone(p.Students)
	r.s.projects[p.ID] = stored
	return nil
}

func (r *ProjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return nil, common.NotFound("project", id)
	}
	return clone(p), nil
}

func (r *ProjectRepository) List(ctx context.Context, filter project.Filter) ([]*project.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*project.Project
	for _, p := range r.s.projects {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.SessionID != nil && (p.SessionID == nil || *p.SessionID != *filter.SessionID) {
			continue
		}
		if filter.ConferenceID != nil {
			if p.SessionID == nil {
				continue
			}
			sess, ok := r.s.sessions[*p.SessionID]
			if !ok || sess.ConferenceID != *filter.ConferenceID {
				continue
			}
		}
		out = append(out, clone(p))
	}
	byCreated(out, func(p *project.Project) (time.Time, uuid.UUID) { return p.CreatedAt, p.ID })
	return out, nil
}

func (r *ProjectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status project.Status) error {
	return r.update(id, func(p *project.Project) error {
		p.Status = status
		return nil
	})
}

func (r *ProjectRepository) AssignSession(ctx context.Context, id uuid.UUID, sessionID *uuid.UUID) error {
	return r.update(id, func(p *project.Project) error {
		if sessionID != nil {
			if _, ok := r.s.sessions[*sessionID]; !ok {
				return common.NotFound("session", *sessionID)
			}
		}
		p.SessionID = sessionID
		return nil
	})
}

func (r *ProjectRepository) SetPosterURL(ctx context.Context, id uuid.UUID, url string) error {
	return r.update(id, func(p *project.Project) error {
		p.PosterURL = &url
		return nil
	})
}

func (r *ProjectRepository) ConferenceIDForProject(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.projects[id]
	if !ok {
		return uuid.Nil, common.NotFound("project", id)
	}
	if p.SessionID == nil {
		return uuid.Nil, common.Invalid("session_id", "project %s is not assigned to a session", id)
	}
	sess, ok := r.s.sessions[*p.SessionID]
	if !ok {
		return uuid.Nil, common.NotFound("session", *p.SessionID)
	}
	return sess.ConferenceID, nil
}

func (r *ProjectRepository) update(id uuid.UUID, fn func(p *project.Project) error) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.projects[id]
	if !ok {
		return common.NotFound("project", id)
	}
	next := clone(p)
	if err := fn(next); err != nil {
		return err
	}
	next.UpdatedAt = r.s.now()
	r.s.projects[id] = next
	return nil
}
