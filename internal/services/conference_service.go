package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
	"github.com/gravadigital/posterjudge-api/internal/validation"
)

// ConferenceService manages conferences and everything scoped to one:
// sessions, criteria and standings. Specializations live here too.
type ConferenceService struct {
	store     storage.Container
	engine    *evaluation.Engine
	validator validation.TextValidation
	log       *log.Logger
}

// NewConferenceService creates a new conference service
func NewConferenceService(store storage.Container, engine *evaluation.Engine) *ConferenceService {
	return &ConferenceService{
		store:     store,
		engine:    engine,
		validator: validation.DefaultText,
		log:       logger.Service("conferences"),
	}
}

// CreateConferenceRequest represents a request to create a conference
type CreateConferenceRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	StartDate   string  `json:"start_date" binding:"required"`
	EndDate     string  `json:"end_date" binding:"required"`
	Location    *string `json:"location"`
}

// CreateConference creates an inactive conference
func (s *ConferenceService) CreateConference(ctx context.Context, req CreateConferenceRequest) (*conference.Conference, error) {
	if err := s.validator.ValidateName(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDescription(req.Description); err != nil {
		return nil, err
	}

	start, err := validation.ParseDate(req.StartDate, "start_date")
	if err != nil {
		return nil, err
	}
	end, err := validation.ParseDate(req.EndDate, "end_date")
	if err != nil {
		return nil, err
	}

	c := conference.NewConference(req.Name, start, end)
	c.Description = trimmed(req.Description)
	c.Location = trimmed(req.Location)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Conferences().Create(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create conference: %w", err)
	}

	s.log.Info("Conference created", "conference_id", c.ID, "name", c.Name)
	return c, nil
}

// ListConferences returns every conference, oldest first
func (s *ConferenceService) ListConferences(ctx context.Context) ([]*conference.Conference, error) {
	return s.store.Conferences().List(ctx)
}

// GetConference returns one conference
func (s *ConferenceService) GetConference(ctx context.Context, id uuid.UUID) (*conference.Conference, error) {
	return s.store.Conferences().GetByID(ctx, id)
}

// GetActiveConference returns the conference currently open for judging
func (s *ConferenceService) GetActiveConference(ctx context.Context) (*conference.Conference, error) {
	return s.store.Conferences().GetActive(ctx)
}

// ActivateConference makes id the only active conference
func (s *ConferenceService) ActivateConference(ctx context.Context, id uuid.UUID) (*conference.Conference, error) {
	if err := s.store.Conferences().SetActive(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info("Conference activated", "conference_id", id)
	return s.store.Conferences().GetByID(ctx, id)
}

// CreateSessionRequest represents a request to add a session to a conference
type CreateSessionRequest struct {
	Name              string    `json:"name" binding:"required"`
	StartTime         time.Time `json:"start_time" binding:"required"`
	EndTime           time.Time `json:"end_time" binding:"required"`
	Location          *string   `json:"location"`
	MaxJudges         int       `json:"max_judges"`
	SpecializationIDs []string  `json:"specialization_ids"`
}

// SessionView is a session together with its seat counts
type SessionView struct {
	*conference.Session
	Occupancy conference.SessionOccupancy `json:"occupancy"`
	Judges    []*conference.JudgeSession  `json:"judges,omitempty"`
}

// CreateSession adds a session with a validated window and capacity
func (s *ConferenceService) CreateSession(ctx context.Context, conferenceID uuid.UUID, req CreateSessionRequest) (*SessionView, error) {
	if _, err := s.store.Conferences().GetByID(ctx, conferenceID); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateName(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := validation.ValidateWindow(req.StartTime, req.EndTime, "end_time"); err != nil {
		return nil, err
	}
	if req.MaxJudges < 0 {
		return nil, common.Invalid("max_judges", "must be positive, got %d", req.MaxJudges)
	}

	ids := make([]uuid.UUID, 0, len(req.SpecializationIDs))
	for _, raw := range req.SpecializationIDs {
		id, err := validation.ParseUUID(raw, "specialization_ids")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	sess := conference.NewSession(conferenceID, req.Name, req.StartTime, req.EndTime, req.MaxJudges)
	sess.Location = trimmed(req.Location)
	if len(ids) > 0 {
		specs, err := s.store.Specializations().GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		sess.Specializations = specs
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}

	if err := s.store.Sessions().Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.log.Info("Session created", "session_id", sess.ID, "conference_id", conferenceID, "max_judges", sess.MaxJudges)
	return &SessionView{Session: sess, Occupancy: conference.NewOccupancy(sess, 0, 0)}, nil
}

// ListSessions returns the sessions of a conference with their occupancy
func (s *ConferenceService) ListSessions(ctx context.Context, conferenceID uuid.UUID) ([]SessionView, error) {
	if _, err := s.store.Conferences().GetByID(ctx, conferenceID); err != nil {
		return nil, err
	}

	sessions, err := s.store.Sessions().ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	occupancy, err := s.store.Sessions().OccupancyByConference(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load occupancy: %w", err)
	}

	bySession := make(map[uuid.UUID]conference.SessionOccupancy, len(occupancy))
	for _, o := range occupancy {
		bySession[o.SessionID] = o
	}

	views := make([]SessionView, 0, len(sessions))
	for _, sess := range sessions {
		o, ok := bySession[sess.ID]
		if !ok {
			o = conference.NewOccupancy(sess, 0, 0)
		}
		views = append(views, SessionView{Session: sess, Occupancy: o})
	}
	return views, nil
}

// GetSession returns a session, its occupancy and the registered judges
func (s *ConferenceService) GetSession(ctx context.Context, id uuid.UUID) (*SessionView, error) {
	sess, err := s.store.Sessions().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	occupancy, err := s.store.Sessions().Occupancy(ctx, id)
	if err != nil {
		return nil, err
	}
	judges, err := s.store.Sessions().ListJudges(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list judges: %w", err)
	}
	return &SessionView{Session: sess, Occupancy: *occupancy, Judges: judges}, nil
}

// SessionCapacity returns the seat counts of a session
func (s *ConferenceService) SessionCapacity(ctx context.Context, id uuid.UUID) (*conference.SessionOccupancy, error) {
	return s.store.Sessions().Occupancy(ctx, id)
}

// CreateSpecializationRequest represents a request to create a specialization
type CreateSpecializationRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

// CreateSpecialization creates a specialization; names are unique
func (s *ConferenceService) CreateSpecialization(ctx context.Context, req CreateSpecializationRequest) (*conference.Specialization, error) {
	if err := s.validator.ValidateName(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDescription(req.Description); err != nil {
		return nil, err
	}

	sp := &conference.Specialization{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(req.Name),
		Description: trimmed(req.Description),
	}
	if err := s.store.Specializations().Create(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// ListSpecializations returns every specialization by name
func (s *ConferenceService) ListSpecializations(ctx context.Context) ([]*conference.Specialization, error) {
	return s.store.Specializations().List(ctx)
}

// CreateCriterionRequest represents a request to add an evaluation criterion.
// A missing weight counts as 1; a missing order index appends the criterion.
type CreateCriterionRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description *string  `json:"description"`
	MaxScore    int      `json:"max_score"`
	Weight      *float64 `json:"weight"`
	OrderIndex  *int     `json:"order_index"`
}

// CreateCriterion adds a criterion to a conference and re-derives the
// evaluations already recorded under it
func (s *ConferenceService) CreateCriterion(ctx context.Context, conferenceID uuid.UUID, req CreateCriterionRequest) (*evaluation.Criterion, error) {
	existing, err := s.ListCriteria(ctx, conferenceID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.ValidateName(req.Name, "name"); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateDescription(req.Description); err != nil {
		return nil, err
	}
	if req.MaxScore < 0 {
		return nil, common.Invalid("max_score", "must be positive, got %d", req.MaxScore)
	}

	weight := evaluation.DefaultWeight
	if req.Weight != nil {
		weight = *req.Weight
	}
	order := len(existing)
	if req.OrderIndex != nil {
		order = *req.OrderIndex
	}

	c := evaluation.NewCriterion(conferenceID, req.Name, req.MaxScore, weight, order)
	c.Description = trimmed(req.Description)
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.engine.AddCriterion(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create criterion: %w", err)
	}

	s.log.Info("Criterion created", "criterion_id", c.ID, "conference_id", conferenceID, "max_score", c.MaxScore, "weight", c.Weight)
	return c, nil
}

// ListCriteria returns the criteria of a conference in aggregation order
func (s *ConferenceService) ListCriteria(ctx context.Context, conferenceID uuid.UUID) ([]evaluation.Criterion, error) {
	if _, err := s.store.Conferences().GetByID(ctx, conferenceID); err != nil {
		return nil, err
	}
	criteria, err := s.store.Criteria().ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list criteria: %w", err)
	}
	return evaluation.SortCriteria(criteria), nil
}

// Standings ranks the projects of a conference by their mean completed total
func (s *ConferenceService) Standings(ctx context.Context, conferenceID uuid.UUID) ([]evaluation.Standing, error) {
	if _, err := s.store.Conferences().GetByID(ctx, conferenceID); err != nil {
		return nil, err
	}

	projects, err := s.store.Projects().List(ctx, project.Filter{ConferenceID: &conferenceID})
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	evaluations, err := s.store.Evaluations().ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	refs := make([]evaluation.ProjectRef, 0, len(projects))
	for _, p := range projects {
		refs = append(refs, evaluation.ProjectRef{ID: p.ID, Title: p.Title})
	}
	return evaluation.RankStandings(refs, evaluations), nil
}

// trimmed returns nil for a blank optional string
func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
