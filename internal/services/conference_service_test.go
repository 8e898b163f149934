package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
)

func TestCreateConferenceValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.Conferences.CreateConference(env.ctx, CreateConferenceRequest{
		Name: "Poster day", StartDate: "2026-11-13", EndDate: "2026-11-12",
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.svc.Conferences.CreateConference(env.ctx, CreateConferenceRequest{
		Name: "Poster day", StartDate: "13/11/2026", EndDate: "2026-11-14",
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = env.svc.Conferences.CreateConference(env.ctx, CreateConferenceRequest{
		Name: "P", StartDate: "2026-11-12", EndDate: "2026-11-12",
	})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	c, err := env.svc.Conferences.CreateConference(env.ctx, CreateConferenceRequest{
		Name: "  Poster day ", StartDate: "2026-11-12", EndDate: "2026-11-12", Location: ptr("  "),
	})
	require.NoError(t, err)
	assert.Equal(t, "Poster day", c.Name)
	assert.False(t, c.IsActive)
	assert.Nil(t, c.Location)
}

func TestActivateConferenceKeepsOneActive(t *testing.T) {
	env := newTestEnv(t)
	first, _, _ := env.seedConference(t, 3)
	second, _, _ := env.seedConference(t, 3)

	_, err := env.svc.Conferences.ActivateConference(env.ctx, first.ID)
	require.NoError(t, err)
	active, err := env.svc.Conferences.ActivateConference(env.ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, active.IsActive)

	got, err := env.svc.Conferences.GetActiveConference(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)

	reloaded, err := env.svc.Conferences.GetConference(env.ctx, first.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsActive)

	_, err = env.svc.Conferences.ActivateConference(env.ctx, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCreateSession(t *testing.T) {
	env := newTestEnv(t)
	conf, _, _ := env.seedConference(t, 3)

	spec, err := env.svc.Conferences.CreateSpecialization(env.ctx, CreateSpecializationRequest{Name: "Biology"})
	require.NoError(t, err)
	_, err = env.svc.Conferences.CreateSpecialization(env.ctx, CreateSpecializationRequest{Name: "Biology"})
	assert.ErrorIs(t, err, common.ErrConflict)

	t.Run("window must be ordered", func(t *testing.T) {
		_, err := env.svc.Conferences.CreateSession(env.ctx, conf.ID, CreateSessionRequest{
			Name: "Afternoon", StartTime: sessionStart, EndTime: sessionStart,
		})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		_, err := env.svc.Conferences.CreateSession(env.ctx, conf.ID, CreateSessionRequest{
			Name: "Afternoon", StartTime: sessionStart, EndTime: sessionStart.Add(time.Hour), MaxJudges: -1,
		})
		assert.ErrorIs(t, err, common.ErrInvalidInput)
	})

	t.Run("unknown specialization", func(t *testing.T) {
		_, err := env.svc.Conferences.CreateSession(env.ctx, conf.ID, CreateSessionRequest{
			Name: "Afternoon", StartTime: sessionStart, EndTime: sessionStart.Add(time.Hour),
			SpecializationIDs: []string{uuid.NewString()},
		})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("unknown conference", func(t *testing.T) {
		_, err := env.svc.Conferences.CreateSession(env.ctx, uuid.New(), CreateSessionRequest{
			Name: "Afternoon", StartTime: sessionStart, EndTime: sessionStart.Add(time.Hour),
		})
		assert.ErrorIs(t, err, common.ErrNotFound)
	})

	t.Run("defaults and tags", func(t *testing.T) {
		view, err := env.svc.Conferences.CreateSession(env.ctx, conf.ID, CreateSessionRequest{
			Name: "Afternoon", StartTime: sessionStart.Add(4 * time.Hour), EndTime: sessionStart.Add(6 * time.Hour),
			SpecializationIDs: []string{spec.ID.String()},
		})
		require.NoError(t, err)
		assert.Equal(t, 5, view.MaxJudges)
		assert.Equal(t, 5, view.Occupancy.SeatsLeft)
		require.Len(t, view.Specializations, 1)
		assert.Equal(t, "Biology", view.Specializations[0].Name)
	})
}

func TestListSessionsReportsOccupancy(t *testing.T) {
	env := newTestEnv(t)
	conf, sess, _ := env.seedConference(t, 2)
	judge := env.actor(t, "j1@example.org", profile.RoleJudge)

	_, err := env.svc.Registration.Register(env.ctx, judge, sess.ID)
	require.NoError(t, err)

	views, err := env.svc.Conferences.ListSessions(env.ctx, conf.ID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 1, views[0].Occupancy.RegisteredJudges)
	assert.Equal(t, 0, views[0].Occupancy.ConfirmedJudges)
	assert.Equal(t, 1, views[0].Occupancy.SeatsLeft)

	detail, err := env.svc.Conferences.GetSession(env.ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, detail.Judges, 1)
	assert.Equal(t, judge.ProfileID, detail.Judges[0].JudgeID)
}

func TestCreateCriterionDefaults(t *testing.T) {
	env := newTestEnv(t)
	conf, _, criteria := env.seedConference(t, 3)

	require.Len(t, criteria, 2)
	assert.Equal(t, "Clarity", criteria[0].Name)
	assert.Equal(t, 0, criteria[0].OrderIndex)
	assert.Equal(t, evaluation.DefaultWeight, criteria[0].Weight)
	assert.Equal(t, 1, criteria[1].OrderIndex)

	_, err := env.svc.Conferences.CreateCriterion(env.ctx, conf.ID, CreateCriterionRequest{Name: "Design", Weight: ptr(-1.0)})
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	c, err := env.svc.Conferences.CreateCriterion(env.ctx, conf.ID, CreateCriterionRequest{Name: "Design", OrderIndex: ptr(-1)})
	require.NoError(t, err)
	assert.Equal(t, evaluation.DefaultMaxScore, c.MaxScore)

	listed, err := env.svc.Conferences.ListCriteria(env.ctx, conf.ID)
	require.NoError(t, err)
	assert.Equal(t, "Design", listed[0].Name)
}

func TestStandings(t *testing.T) {
	env := newTestEnv(t)
	conf, sess, criteria := env.seedConference(t, 3)
	judge := env.actor(t, "j1@example.org", profile.RoleJudge)

	soil := env.seedProject(t, "Soil microbiome", sess.ID)
	bees := env.seedProject(t, "Urban bees", sess.ID)
	env.seedProject(t, "Unjudged", sess.ID)

	score := func(p uuid.UUID, c evaluation.Criterion, v float64) {
		_, err := env.svc.Evaluations.ScoreProject(env.ctx, judge, p, c.ID, ScoreRequest{Score: &v})
		require.NoError(t, err)
	}
	score(soil.ID, criteria[0], 10)
	score(soil.ID, criteria[1], 5)
	score(bees.ID, criteria[0], 5)
	score(bees.ID, criteria[1], 5)

	standings, err := env.svc.Conferences.Standings(env.ctx, conf.ID)
	require.NoError(t, err)
	require.Len(t, standings, 3)

	assert.Equal(t, "Soil microbiome", standings[0].Title)
	assert.Equal(t, 1, standings[0].Rank)
	require.NotNil(t, standings[0].MeanTotal)
	assert.InDelta(t, 1.0, *standings[0].MeanTotal, 1e-9)

	assert.Equal(t, "Urban bees", standings[1].Title)
	assert.InDelta(t, (0.5+2.0)/3.0, *standings[1].MeanTotal, 1e-9)

	assert.Equal(t, "Unjudged", standings[2].Title)
	assert.Nil(t, standings[2].MeanTotal)
}

func TestCreateCriterionReopensCompletedEvaluations(t *testing.T) {
	env := newTestEnv(t)
	conf, sess, criteria := env.seedConference(t, 3)
	judge := env.actor(t, "j1@example.org", profile.RoleJudge)
	p := env.seedProject(t, "Soil microbiome", sess.ID)

	_, err := env.svc.Evaluations.ScoreProject(env.ctx, judge, p.ID, criteria[0].ID, ScoreRequest{Score: ptr(8.0)})
	require.NoError(t, err)
	ev, err := env.svc.Evaluations.ScoreProject(env.ctx, judge, p.ID, criteria[1].ID, ScoreRequest{Score: ptr(4.0)})
	require.NoError(t, err)
	require.Equal(t, evaluation.StatusCompleted, ev.Status)

	impact, err := env.svc.Conferences.CreateCriterion(env.ctx, conf.ID, CreateCriterionRequest{Name: "Impact", MaxScore: 10})
	require.NoError(t, err)

	got, err := env.svc.Evaluations.Get(env.ctx, judge, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, got.Status)
	require.NotNil(t, got.TotalScore)
	assert.InDelta(t, 0.8, *got.TotalScore, 1e-9)

	mine, err := env.svc.Evaluations.Mine(env.ctx, judge)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, evaluation.StatusInProgress, mine[0].Status)

	standings, err := env.svc.Conferences.Standings(env.ctx, conf.ID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Zero(t, standings[0].Completed)
	assert.Nil(t, standings[0].MeanTotal)

	got, err = env.svc.Evaluations.Submit(env.ctx, judge, ev.ID, impact.ID, ScoreRequest{Score: ptr(5.0)})
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusCompleted, got.Status)
	require.NotNil(t, got.TotalScore)
	assert.InDelta(t, (0.8+0.8+0.8+0.5)/4.0, *got.TotalScore, 1e-9)
}
