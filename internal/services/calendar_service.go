package services

import (
	"context"
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/charmbracelet/log"

	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/logger"
	"github.com/gravadigital/posterjudge-api/internal/storage"
)

// CalendarProductID identifies the feeds this service produces
const CalendarProductID = "-//gravadigital//posterjudge//EN"

// CalendarService renders a judge's sessions as an iCalendar feed
type CalendarService struct {
	store storage.Container
	now   func() time.Time
	log   *log.Logger
}

// NewCalendarService creates a new calendar service
func NewCalendarService(store storage.Container) *CalendarService {
	return &CalendarService{
		store: store,
		now:   time.Now,
		log:   logger.Service("calendar"),
	}
}

// JudgeCalendar returns one VEVENT per session the caller is registered for.
// Confirmed registrations are CONFIRMED, the rest TENTATIVE. Each event
// carries a display alarm at the reminder lead time.
func (s *CalendarService) JudgeCalendar(ctx context.Context, actor *profile.Actor) (string, error) {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(CalendarProductID)
	cal.SetXWRCalName("Judging sessions")

	if !actor.HasProfile() {
		return cal.Serialize(), nil
	}

	registrations, err := s.store.Sessions().ListByJudge(ctx, actor.ProfileID)
	if err != nil {
		return "", fmt.Errorf("failed to list registrations: %w", err)
	}

	stamp := s.now().UTC()
	for _, js := range registrations {
		if js.Session == nil {
			continue
		}
		addSessionEvent(cal, js, stamp)
	}

	s.log.Debug("Calendar rendered", "judge_id", actor.ProfileID, "events", len(cal.Events()))
	return cal.Serialize(), nil
}

func addSessionEvent(cal *ics.Calendar, js *conference.JudgeSession, stamp time.Time) {
	sess := js.Session

	event := cal.AddEvent(fmt.Sprintf("%s-%s@posterjudge", sess.ID, js.JudgeID))
	event.SetDtStampTime(stamp)
	event.SetCreatedTime(js.CreatedAt)
	event.SetStartAt(sess.StartTime)
	event.SetEndAt(sess.EndTime)
	event.SetSummary(sess.Name)
	if sess.Location != nil {
		event.SetLocation(*sess.Location)
	}
	event.SetDescription(fmt.Sprintf("Poster judging session (up to %d judges)", sess.MaxJudges))

	if js.Confirmed {
		event.SetStatus(ics.ObjectStatusConfirmed)
	} else {
		event.SetStatus(ics.ObjectStatusTentative)
	}

	alarm := event.AddAlarm()
	alarm.SetAction(ics.ActionDisplay)
	alarm.SetTrigger(fmt.Sprintf("-PT%dH", int(conference.ReminderLeadTime.Hours())))
}
