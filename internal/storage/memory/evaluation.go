package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
)

// CriterionRepository is the in-memory criterion store
type CriterionRepository struct {
	s *Store
}

func (r *CriterionRepository) Create(ctx context.Context, c *evaluation.Criterion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.conferences[c.ConferenceID]; !ok {
		return common.NotFound("conference", c.ConferenceID)
	}
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	r.s.stamp(&c.CreatedAt)
	r.s.criteria[c.ID] = clone(c)
	return nil
}

func (r *CriterionRepository) GetByID(ctx context.Context, id uuid.UUID) (*evaluation.Criterion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.criteria[id]
	if !ok {
		return nil, common.NotFound("criterion", id)
	}
	return clone(c), nil
}

func (r *CriterionRepository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]evaluation.Criterion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []evaluation.Criterion
	for _, c := range r.s.criteria {
		if c.ConferenceID == conferenceID {
			out = append(out, *c)
		}
	}
	return evaluation.SortCriteria(out), nil
}

// EvaluationRepository is the in-memory evaluation store
type EvaluationRepository struct {
	s *Store
}

func (r *EvaluationRepository) Create(ctx context.Context, ev *evaluation.Evaluation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.projects[ev.ProjectID]; !ok {
		return common.NotFound("project", ev.ProjectID)
	}
	if _, ok := r.s.profiles[ev.JudgeID]; !ok {
		return common.NotFound("profile", ev.JudgeID)
	}
	for _, existing := range r.s.evaluations {
		if existing.JudgeID == ev.JudgeID && existing.ProjectID == ev.ProjectID {
			return common.Conflict("evaluation for judge %s and project %s already exists", ev.JudgeID, ev.ProjectID)
		}
	}
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.Status == "" {
		ev.Status = evaluation.StatusPending
	}
	r.s.stamp(&ev.CreatedAt)
	ev.UpdatedAt = ev.CreatedAt

	stored := clone(ev)
	stored.Scores, stored.Judge, stored.Project = nil, nil, nil
	r.s.evaluations[ev.ID] = stored
	return nil
}

func (r *EvaluationRepository) GetByID(ctx context.Context, id uuid.UUID) (*evaluation.Evaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ev, ok := r.s.evaluations[id]
	if !ok {
		return nil, common.NotFound("evaluation", id)
	}
	return r.hydrateLocked(ev), nil
}

// LockByID relies on the store-wide transaction lock
func (r *EvaluationRepository) LockByID(ctx context.Context, id uuid.UUID) (*evaluation.Evaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ev, ok := r.s.evaluations[id]
	if !ok {
		return nil, common.NotFound("evaluation", id)
	}
	return clone(ev), nil
}

func (r *EvaluationRepository) GetByJudgeAndProject(ctx context.Context, judgeID, projectID uuid.UUID) (*evaluation.Evaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, ev := range r.s.evaluations {
		if ev.JudgeID == judgeID && ev.ProjectID == projectID {
			return r.hydrateLocked(ev), nil
		}
	}
	return nil, common.NotFound("evaluation", uuid.Nil)
}

func (r *EvaluationRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*evaluation.Evaluation, error) {
	return r.list(func(ev *evaluation.Evaluation) bool { return ev.ProjectID == projectID })
}

func (r *EvaluationRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*evaluation.Evaluation, error) {
	return r.list(func(ev *evaluation.Evaluation) bool { return ev.JudgeID == judgeID })
}

func (r *EvaluationRepository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*evaluation.Evaluation, error) {
	r.s.mu.RLock()
	inConference := make(map[uuid.UUID]bool)
	for id, p := range r.s.projects {
		if p.SessionID == nil {
			continue
		}
		if sess, ok := r.s.sessions[*p.SessionID]; ok && sess.ConferenceID == conferenceID {
			inConference[id] = true
		}
	}
	r.s.mu.RUnlock()

	return r.list(func(ev *evaluation.Evaluation) bool { return inConference[ev.ProjectID] })
}

func (r *EvaluationRepository) UpdateDerived(ctx context.Context, id uuid.UUID, status evaluation.Status, total *float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ev, ok := r.s.evaluations[id]
	if !ok {
		return common.NotFound("evaluation", id)
	}
	ev.Status = status
	if total != nil {
		t := *total
		ev.TotalScore = &t
	} else {
		ev.TotalScore = nil
	}
	ev.UpdatedAt = r.s.now()
	return nil
}

func (r *EvaluationRepository) UpdateComments(ctx context.Context, id uuid.UUID, comments *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ev, ok := r.s.evaluations[id]
	if !ok {
		return common.NotFound("evaluation", id)
	}
	ev.Comments = comments
	ev.UpdatedAt = r.s.now()
	return nil
}

func (r *EvaluationRepository) list(keep func(*evaluation.Evaluation) bool) ([]*evaluation.Evaluation, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*evaluation.Evaluation
	for _, ev := range r.s.evaluations {
		if keep(ev) {
			out = append(out, r.hydrateLocked(ev))
		}
	}
	byCreated(out, func(ev *evaluation.Evaluation) (time.Time, uuid.UUID) { return ev.CreatedAt, ev.ID })
	return out, nil
}

// hydrateLocked copies an evaluation and attaches scores, judge and project
func (r *EvaluationRepository) hydrateLocked(ev *evaluation.Evaluation) *evaluation.Evaluation {
	c := clone(ev)
	c.Scores = r.s.scoresLocked(ev.ID)
	if p, ok := r.s.profiles[ev.JudgeID]; ok {
		c.Judge = &common.SharedProfile{ID: p.ID, FullName: p.FullName, Email: p.Email}
	}
	if p, ok := r.s.projects[ev.ProjectID]; ok {
		c.Project = &common.SharedProject{ID: p.ID, Title: p.Title, SessionID: p.SessionID}
	}
	return c
}

// ScoreRepository is the in-memory score store
type ScoreRepository struct {
	s *Store
}

func (r *ScoreRepository) Upsert(ctx context.Context, sc *evaluation.Score) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.evaluations[sc.EvaluationID]; !ok {
		return common.NotFound("evaluation", sc.EvaluationID)
	}
	if _, ok := r.s.criteria[sc.CriterionID]; !ok {
		return common.NotFound("criterion", sc.CriterionID)
	}

	now := r.s.now()
	for _, existing := range r.s.scores {
		if existing.EvaluationID == sc.EvaluationID && existing.CriterionID == sc.CriterionID {
			existing.Score = sc.Score
			existing.Comment = sc.Comment
			existing.UpdatedAt = now
			*sc = *existing
			return nil
		}
	}

	if sc.ID == uuid.Nil {
		sc.ID = uuid.New()
	}
	sc.CreatedAt, sc.UpdatedAt = now, now
	r.s.scores[sc.ID] = clone(sc)
	return nil
}

func (r *ScoreRepository) Delete(ctx context.Context, evaluationID, criterionID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, sc := range r.s.scores {
		if sc.EvaluationID == evaluationID && sc.CriterionID == criterionID {
			delete(r.s.scores, id)
			return true, nil
		}
	}
	return false, nil
}

func (r *ScoreRepository) ListByEvaluation(ctx context.Context, evaluationID uuid.UUID) ([]evaluation.Score, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.s.scoresLocked(evaluationID), nil
}

func (s *Store) scoresLocked(evaluationID uuid.UUID) []evaluation.Score {
	var ptrs []*evaluation.Score
	for _, sc := range s.scores {
		if sc.EvaluationID == evaluationID {
			ptrs = append(ptrs, sc)
		}
	}
	byCreated(ptrs, func(sc *evaluation.Score) (time.Time, uuid.UUID) { return sc.CreatedAt, sc.ID })

	out := make([]evaluation.Score, 0, len(ptrs))
	for _, sc := range ptrs {
		out = append(out, *sc)
	}
	return out
}
