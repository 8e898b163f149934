package services

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
)

// RegistrationService signs judges up for sessions and schedules their reminders
type RegistrationService struct {
	store  storage.Container
	engine *evaluation.Engine
	now    func() time.Time
	log    *log.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(store storage.Container, engine *evaluation.Engine) *RegistrationService {
	return &RegistrationService{
		store:  store,
		engine: engine,
		now:    time.Now,
		log:    logger.Service("registration"),
	}
}

// Register adds the calling judge to a session and schedules the session reminder.
// A failed reminder does not undo the registration.
func (s *RegistrationService) Register(ctx context.Context, actor *profile.Actor, sessionID uuid.UUID) (*conference.JudgeSession, error) {
	js, err := s.engine.RegisterJudge(ctx, actor, sessionID)
	if err != nil {
		return nil, err
	}

	if js.Session != nil {
		reminder := conference.NewSessionReminder(actor.ProfileID, js.Session, s.now())
		if err := s.store.Reminders().Create(ctx, reminder); err != nil {
			s.log.Warn("Failed to schedule reminder", "session_id", sessionID, "judge_id", actor.ProfileID, "error", err)
		}
	}
	return js, nil
}

// Unregister removes the calling judge from a session and drops pending reminders
func (s *RegistrationService) Unregister(ctx context.Context, actor *profile.Actor, sessionID uuid.UUID) error {
	if err := s.engine.UnregisterJudge(ctx, actor, sessionID); err != nil {
		return err
	}
	if err := s.store.Reminders().DeleteUnsentForSession(ctx, actor.ProfileID, sessionID); err != nil {
		s.log.Warn("Failed to drop reminders", "session_id", sessionID, "judge_id", actor.ProfileID, "error", err)
	}
	return nil
}

// ConfirmRequest sets the confirmation flag of a registration
type ConfirmRequest struct {
	Confirmed *bool `json:"confirmed"`
}

// Confirm marks a judge's registration as confirmed (or not). A missing flag confirms.
func (s *RegistrationService) Confirm(ctx context.Context, sessionID, judgeID uuid.UUID, req ConfirmRequest) (*conference.JudgeSession, error) {
	confirmed := true
	if req.Confirmed != nil {
		confirmed = *req.Confirmed
	}

	js, err := s.store.Sessions().SetConfirmed(ctx, sessionID, judgeID, confirmed)
	if err != nil {
		return nil, err
	}

	s.log.Info("Registration confirmation changed", "session_id", sessionID, "judge_id", judgeID, "confirmed", confirmed)
	return js, nil
}

// MySessions lists the caller's registrations with their sessions
func (s *RegistrationService) MySessions(ctx context.Context, actor *profile.Actor) ([]*conference.JudgeSession, error) {
	if !actor.HasProfile() {
		return []*conference.JudgeSession{}, nil
	}
	out, err := s.store.Sessions().ListByJudge(ctx, actor.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list registrations: %w", err)
	}
	if out == nil {
		out = []*conference.JudgeSession{}
	}
	return out, nil
}

// MyReminders lists the caller's scheduled reminders
func (s *RegistrationService) MyReminders(ctx context.Context, actor *profile.Actor) ([]*conference.Reminder, error) {
	if !actor.HasProfile() {
		return []*conference.Reminder{}, nil
	}
	out, err := s.store.Reminders().ListByJudge(ctx, actor.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	if out == nil {
		out = []*conference.Reminder{}
	}
	return out, nil
}
