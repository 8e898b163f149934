package conference

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

func TestConferenceValidate(t *testing.T) {
	start := time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, NewConference("Mostra 2026", start, start).Validate())
	assert.ErrorIs(t, NewConference(" ", start, start).Validate(), common.ErrInvalidInput)
	assert.ErrorIs(t, NewConference("Mostra", start, start.AddDate(0, 0, -1)).Validate(), common.ErrInvalidInput)
	assert.ErrorIs(t, NewConference("Mostra", time.Time{}, start).Validate(), common.ErrInvalidInput)
}

func TestSessionValidate(t *testing.T) {
	conf := uuid.New()
	start := time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)

	tests := []struct {
		name    string
		session *Session
		wantErr bool
	}{
		{"valid", NewSession(conf, "Morning", start, end, 3), false},
		{"default capacity", NewSession(conf, "Morning", start, end, 0), false},
		{"missing conference", NewSession(uuid.Nil, "Morning", start, end, 3), true},
		{"missing name", NewSession(conf, "", start, end, 3), true},
		{"end equals start", NewSession(conf, "Morning", start, start, 3), true},
		{"end before start", NewSession(conf, "Morning", end, start, 3), true},
		{"negative capacity", NewSession(conf, "Morning", start, end, -1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.session.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, common.ErrInvalidInput)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.Equal(t, DefaultMaxJudges, NewSession(conf, "x", start, end, 0).MaxJudges)
}

func TestNewOccupancy(t *testing.T) {
	s := NewSession(uuid.New(), "Afternoon", time.Now(), time.Now().Add(time.Hour), 2)

	o := NewOccupancy(s, 1, 0)
	assert.Equal(t, 1, o.SeatsLeft)
	assert.False(t, o.Full())

	o = NewOccupancy(s, 3, 1)
	assert.Equal(t, 0, o.SeatsLeft)
	assert.True(t, o.Full())
}

func TestNewSessionReminder(t *testing.T) {
	now := time.Date(2026, 11, 1, 12, 0, 0, 0, time.UTC)
	judge := uuid.New()

	later := NewSession(uuid.New(), "Posters A", now.Add(72*time.Hour), now.Add(74*time.Hour), 3)
	r := NewSessionReminder(judge, later, now)
	assert.Equal(t, later.StartTime.Add(-ReminderLeadTime), r.ScheduledAt)
	assert.Equal(t, ReminderSessionStart, r.Type)
	assert.Equal(t, later.ID, *r.SessionID)
	assert.Contains(t, r.Message, "Posters A")

	soon := NewSession(uuid.New(), "Posters B", now.Add(time.Hour), now.Add(2*time.Hour), 3)
	assert.Equal(t, now, NewSessionReminder(judge, soon, now).ScheduledAt)
}
