package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/config"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/storage/memory"
	"github.com/gravadigital/posterjudge-api/internal/storage/objects"
)

var sessionStart = time.Date(2026, 11, 12, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx     context.Context
	store   *memory.Store
	svc     *Services
	posters *objects.DiskStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.Objects.MaxPosterSize = 1 << 10
	cfg.AdminGrant.AllowedEmails = []string{"chair@example.org"}

	store := memory.NewStore()
	posters := objects.NewDiskStore(t.TempDir(), "/uploads")
	return &testEnv{
		ctx:     context.Background(),
		store:   store,
		svc:     New(store, posters, cfg),
		posters: posters,
	}
}

// seedConference creates a conference with one session of the given
// capacity and two criteria: Clarity (0-10, w1) and Method (0-5, w2)
func (e *testEnv) seedConference(t *testing.T, maxJudges int) (*conference.Conference, *conference.Session, []evaluation.Criterion) {
	t.Helper()

	conf, err := e.svc.Conferences.CreateConference(e.ctx, CreateConferenceRequest{
		Name:      "Student Poster Day",
		StartDate: "2026-11-12",
		EndDate:   "2026-11-13",
	})
	require.NoError(t, err)

	view, err := e.svc.Conferences.CreateSession(e.ctx, conf.ID, CreateSessionRequest{
		Name:      "Morning posters",
		StartTime: sessionStart,
		EndTime:   sessionStart.Add(2 * time.Hour),
		MaxJudges: maxJudges,
	})
	require.NoError(t, err)

	two := 2.0
	_, err = e.svc.Conferences.CreateCriterion(e.ctx, conf.ID, CreateCriterionRequest{Name: "Clarity", MaxScore: 10})
	require.NoError(t, err)
	_, err = e.svc.Conferences.CreateCriterion(e.ctx, conf.ID, CreateCriterionRequest{Name: "Method", MaxScore: 5, Weight: &two})
	require.NoError(t, err)

	criteria, err := e.svc.Conferences.ListCriteria(e.ctx, conf.ID)
	require.NoError(t, err)
	return conf, view.Session, criteria
}

func (e *testEnv) seedProject(t *testing.T, title string, sessionID uuid.UUID) *project.Project {
	t.Helper()

	sid := sessionID.String()
	p, err := e.svc.Projects.CreateProject(e.ctx, CreateProjectRequest{
		Title:     title,
		Students:  []string{"Ana", "Bruno"},
		SessionID: &sid,
	})
	require.NoError(t, err)
	return p
}

// actor resolves a fresh user through the user service and grants roles
func (e *testEnv) actor(t *testing.T, email string, roles ...profile.Role) *profile.Actor {
	t.Helper()

	id := &profile.Identity{UserID: uuid.New(), Email: email, Metadata: map[string]any{"full_name": "Judge " + email}}
	for _, r := range roles {
		_, err := e.store.Roles().Add(e.ctx, id.UserID, r)
		require.NoError(t, err)
	}
	a, err := e.svc.Users.ResolveActor(e.ctx, id)
	require.NoError(t, err)
	return a
}

func ptr[T any](v T) *T {
	return &v
}
