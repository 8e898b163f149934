package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
)

// ConferenceRepository is the in-memory conference store
type ConferenceRepository struct {
	s *Store
}

func (r *ConferenceRepository) Create(ctx context.Context, c *conference.Conference) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if _, exists := r.s.conferences[c.ID]; exists {
		return common.Conflict("conference %s already exists", c.ID)
	}
	r.s.stamp(&c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	r.s.conferences[c.ID] = clone(c)
	return nil
}

func (r *ConferenceRepository) GetByID(ctx context.Context, id uuid.UUID) (*conference.Conference, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.conferences[id]
	if !ok {
		return nil, common.NotFound("conference", id)
	}
	return clone(c), nil
}

func (r *ConferenceRepository) GetActive(ctx context.Context) (*conference.Conference, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, c := range r.s.conferences {
		if c.IsActive {
			return clone(c), nil
		}
	}
	return nil, common.NotFound("active conference", uuid.Nil)
}

func (r *ConferenceRepository) List(ctx context.Context) ([]*conference.Conference, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*conference.Conference, 0, len(r.s.conferences))
	for _, c := range r.s.conferences {
		out = append(out, clone(c))
	}
	byCreated(out, func(c *conference.Conference) (time.Time, uuid.UUID) { return c.CreatedAt, c.ID })
	return out, nil
}

func (r *ConferenceRepository) SetActive(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.conferences[id]; !ok {
		return common.NotFound("conference", id)
	}
	for cid, c := range r.s.conferences {
		c.IsActive = cid == id
	}
	return nil
}

// SpecializationRepository is the in-memory specialization store
type SpecializationRepository struct {
	s *Store
}

func (r *SpecializationRepository) Create(ctx context.Context, sp *conference.Specialization) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.specializations {
		if strings.EqualFold(existing.Name, sp.Name) {
			return common.Conflict("specialization %q already exists", sp.Name)
		}
	}
	if sp.ID == uuid.Nil {
		sp.ID = uuid.New()
	}
	r.s.stamp(&sp.CreatedAt)
	r.s.specializations[sp.ID] = clone(sp)
	return nil
}

func (r *SpecializationRepository) List(ctx context.Context) ([]*conference.Specialization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*conference.Specialization, 0, len(r.s.specializations))
	for _, sp := range r.s.specializations {
		out = append(out, clone(sp))
	}
	byName(out)
	return out, nil
}

func (r *SpecializationRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]conference.Specialization, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]conference.Specialization, 0, len(ids))
	for _, id := range ids {
		sp, ok := r.s.specializations[id]
		if !ok {
			return nil, common.NotFound("specialization", id)
		}
		out = append(out, *sp)
	}
	return out, nil
}

func byName(items []*conference.Specialization) {
	slices.SortFunc(items, func(a, b *conference.Specialization) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// SessionRepository is the in-memory session and registration store
type SessionRepository struct {
	s *Store
}

func (r *SessionRepository) Create(ctx context.Context, sess *conference.Session) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.conferences[sess.ConferenceID]; !ok {
		return common.NotFound("conference", sess.ConferenceID)
	}
	for _, sp := range sess.Specializations {
		if _, ok := r.s.specializations[sp.ID]; !ok {
			return common.NotFound("specialization", sp.ID)
		}
	}
	if sess.ID == uuid.Nil {
		sess.ID = uuid.New()
	}
	r.s.stamp(&sess.CreatedAt)
	sess.UpdatedAt = sess.CreatedAt
	r.s.sessions[sess.ID] = clone(sess)
	return nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*conference.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[id]
	if !ok {
		return nil, common.NotFound("session", id)
	}
	return clone(sess), nil
}

// LockForRegistration relies on the store-wide transaction lock
func (r *SessionRepository) LockForRegistration(ctx context.Context, id uuid.UUID) (*conference.Session, error) {
	return r.GetByID(ctx, id)
}

func (r *SessionRepository) ListByConference(ctx context.Context, conferenceID uuid.UUID) ([]*conference.Session, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*conference.Session
	for _, sess := range r.s.sessions {
		if sess.ConferenceID == conferenceID {
			out = append(out, clone(sess))
		}
	}
	byCreated(out, func(s *conference.Session) (time.Time, uuid.UUID) { return s.StartTime, s.ID })
	return out, nil
}

func (r *SessionRepository) Occupancy(ctx context.Context, sessionID uuid.UUID) (*conference.SessionOccupancy, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	sess, ok := r.s.sessions[sessionID]
	if !ok {
		return nil, common.NotFound("session", sessionID)
	}
	o := r.occupancyLocked(sess)
	return &o, nil
}

func (r *SessionRepository) OccupancyByConference(ctx context.Context, conferenceID uuid.UUID) ([]conference.SessionOccupancy, error) {
	sessions, err := r.ListByConference(ctx, conferenceID)
	if err != nil {
		return nil, err
	}

	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]conference.SessionOccupancy, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, r.occupancyLocked(sess))
	}
	return out, nil
}

func (r *SessionRepository) occupancyLocked(sess *conference.Session) conference.SessionOccupancy {
	registered, confirmed := 0, 0
	for _, js := range r.s.judgeSessions {
		if js.SessionID != sess.ID {
			continue
		}
		registered++
		if js.Confirmed {
			confirmed++
		}
	}
	return conference.NewOccupancy(sess, registered, confirmed)
}

func (r *SessionRepository) CountJudges(ctx context.Context, sessionID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, js := range r.s.judgeSessions {
		if js.SessionID == sessionID {
			n++
		}
	}
	return n, nil
}

func (r *SessionRepository) IsJudgeRegistered(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	return r.findLocked(sessionID, judgeID) != nil, nil
}

func (r *SessionRepository) findLocked(sessionID, judgeID uuid.UUID) *conference.JudgeSession {
	for _, js := range r.s.judgeSessions {
		if js.SessionID == sessionID && js.JudgeID == judgeID {
			return js
		}
	}
	return nil
}

func (r *SessionRepository) AddJudge(ctx context.Context, js *conference.JudgeSession) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	sess, ok := r.s.sessions[js.SessionID]
	if !ok {
		return common.NotFound("session", js.SessionID)
	}
	if _, ok := r.s.profiles[js.JudgeID]; !ok {
		return common.NotFound("profile", js.JudgeID)
	}
	if r.findLocked(js.SessionID, js.JudgeID) != nil {
		return common.Conflict("judge %s is already registered for session %s", js.JudgeID, js.SessionID)
	}
	if o := r.occupancyLocked(sess); o.Full() {
		return common.ErrSessionFull
	}

	if js.ID == uuid.Nil {
		js.ID = uuid.New()
	}
	r.s.stamp(&js.CreatedAt)
	stored := clone(js)
	stored.Session, stored.Judge = nil, nil
	r.s.judgeSessions[js.ID] = stored
	return nil
}

func (r *SessionRepository) RemoveJudge(ctx context.Context, sessionID, judgeID uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	js := r.findLocked(sessionID, judgeID)
	if js == nil {
		return false, nil
	}
	delete(r.s.judgeSessions, js.ID)
	return true, nil
}

func (r *SessionRepository) SetConfirmed(ctx context.Context, sessionID, judgeID uuid.UUID, confirmed bool) (*conference.JudgeSession, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	js := r.findLocked(sessionID, judgeID)
	if js == nil {
		return nil, common.NotFound("registration", sessionID)
	}
	js.Confirmed = confirmed
	return clone(js), nil
}

func (r *SessionRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*conference.JudgeSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*conference.JudgeSession
	for _, js := range r.s.judgeSessions {
		if js.JudgeID != judgeID {
			continue
		}
		c := clone(js)
		if sess, ok := r.s.sessions[js.SessionID]; ok {
			c.Session = clone(sess)
		}
		out = append(out, c)
	}
	byCreated(out, func(js *conference.JudgeSession) (time.Time, uuid.UUID) {
		if js.Session != nil {
			return js.Session.StartTime, js.ID
		}
		return js.CreatedAt, js.ID
	})
	return out, nil
}

func (r *SessionRepository) ListJudges(ctx context.Context, sessionID uuid.UUID) ([]*conference.JudgeSession, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*conference.JudgeSession
	for _, js := range r.s.judgeSessions {
		if js.SessionID != sessionID {
			continue
		}
		c := clone(js)
		if p, ok := r.s.profiles[js.JudgeID]; ok {
			c.Judge = &common.SharedProfile{ID: p.ID, FullName: p.FullName, Email: p.Email}
		}
		out = append(out, c)
	}
	byCreated(out, func(js *conference.JudgeSession) (time.Time, uuid.UUID) { return js.CreatedAt, js.ID })
	return out, nil
}

// ReminderRepository is the in-memory reminder store
type ReminderRepository struct {
	s *Store
}

func (r *ReminderRepository) Create(ctx context.Context, rem *conference.Reminder) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if rem.ID == uuid.Nil {
		rem.ID = uuid.New()
	}
	r.s.stamp(&rem.CreatedAt)
	r.s.reminders[rem.ID] = clone(rem)
	return nil
}

func (r *ReminderRepository) ListByJudge(ctx context.Context, judgeID uuid.UUID) ([]*conference.Reminder, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []*conference.Reminder
	for _, rem := range r.s.reminders {
		if rem.JudgeID == judgeID {
			out = append(out, clone(rem))
		}
	}
	byCreated(out, func(rem *conference.Reminder) (time.Time, uuid.UUID) { return rem.ScheduledAt, rem.ID })
	return out, nil
}

func (r *ReminderRepository) DeleteUnsentForSession(ctx context.Context, judgeID, sessionID uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for id, rem := range r.s.reminders {
		if rem.JudgeID == judgeID && rem.SentAt == nil && rem.SessionID != nil && *rem.SessionID == sessionID {
			delete(r.s.reminders, id)
		}
	}
	return nil
}
