package evaluation_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
	"github.com/gravadigital/posterjudge-api/internal/domain/conference"
	"github.com/gravadigital/posterjudge-api/internal/domain/evaluation"
	"github.com/gravadigital/posterjudge-api/internal/domain/profile"
	"github.com/gravadigital/posterjudge-api/internal/domain/project"
	"github.com/gravadigital/posterjudge-api/internal/storage/memory"
)

type fixture struct {
	ctx     context.Context
	store   *memory.Store
	engine  *evaluation.Engine
	conf    *conference.Conference
	session *conference.Session
	project *project.Project
	judge   *profile.Actor
	admin   *profile.Actor
	clarity *evaluation.Criterion
	method  *evaluation.Criterion
}

// newFixture builds a conference with two criteria (Clarity 0-10 w1, Method 0-5 w2),
// one session, one project and a registered judge.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{ctx: context.Background(), store: memory.NewStore()}
	f.engine = evaluation.NewEngine(evaluation.Dependencies{
		Tx:          f.store,
		Evaluations: f.store.Evaluations(),
		Scores:      f.store.Scores(),
		Criteria:    f.store.Criteria(),
		Projects:    f.store.Projects(),
		Sessions:    f.store.Sessions(),
	})

	start := time.Date(2026, 11, 3, 9, 0, 0, 0, time.UTC)
	f.conf = conference.NewConference("Mostra 2026", start, start.AddDate(0, 0, 2))
	require.NoError(t, f.store.Conferences().Create(f.ctx, f.conf))

	f.session = conference.NewSession(f.conf.ID, "Posters A", start, start.Add(2*time.Hour), 3)
	require.NoError(t, f.store.Sessions().Create(f.ctx, f.session))

	f.project = project.NewProject("Soil microbiome", []string{"Zoe"})
	f.project.SessionID = &f.session.ID
	require.NoError(t, f.store.Projects().Create(f.ctx, f.project))

	f.clarity = evaluation.NewCriterion(f.conf.ID, "Clarity", 10, 1, 0)
	f.method = evaluation.NewCriterion(f.conf.ID, "Method", 5, 2, 1)
	require.NoError(t, f.store.Criteria().Create(f.ctx, f.clarity))
	require.NoError(t, f.store.Criteria().Create(f.ctx, f.method))

	f.judge = f.newActor(t, profile.RoleJudge)
	f.admin = f.newActor(t, profile.RoleAdmin)
	return f
}

func (f *fixture) newActor(t *testing.T, roles ...profile.Role) *profile.Actor {
	t.Helper()

	userID := uuid.New()
	p := profile.NewProfileFromIdentity(&profile.Identity{UserID: userID, Email: userID.String() + "@example.org"})
	require.NoError(t, f.store.Profiles().Create(f.ctx, p))
	for _, r := range roles {
		_, err := f.store.Roles().Add(f.ctx, userID, r)
		require.NoError(t, err)
	}
	return &profile.Actor{UserID: userID, ProfileID: p.ID, Email: p.Email, Roles: roles}
}

func (f *fixture) start(t *testing.T) *evaluation.Evaluation {
	t.Helper()
	ev, err := f.engine.StartEvaluation(f.ctx, f.judge, f.project.ID)
	require.NoError(t, err)
	return ev
}

func TestSubmitScoreWorkedExample(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)
	assert.Equal(t, evaluation.StatusPending, ev.Status)
	assert.Nil(t, ev.TotalScore)

	got, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 8, nil)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, got.Status)
	require.NotNil(t, got.TotalScore)
	assert.InDelta(t, 0.8, *got.TotalScore, 1e-12)

	got, err = f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.method.ID, 4, nil)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusCompleted, got.Status)
	assert.InDelta(t, 0.8, *got.TotalScore, 1e-12)
	assert.Len(t, got.Scores, 2)

	stored, err := f.store.Evaluations().GetByID(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusCompleted, stored.Status)
	assert.InDelta(t, 0.8, *stored.TotalScore, 1e-12)
}

func TestSubmitScoreOutOfRangeLeavesStateUnchanged(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 7, nil)
	require.NoError(t, err)

	for _, bad := range []float64{6, -1} {
		_, err = f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.method.ID, bad, nil)
		require.ErrorIs(t, err, common.ErrOutOfRangeScore)

		var oor *common.OutOfRangeScoreError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, 5.0, oor.Max)
	}

	stored, err := f.store.Evaluations().GetByID(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, stored.Status)
	assert.InDelta(t, 0.7, *stored.TotalScore, 1e-12)
	require.Len(t, stored.Scores, 1)
	assert.Equal(t, f.clarity.ID, stored.Scores[0].CriterionID)
}

func TestSubmitScoreReplacesEarlierValue(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	comment := "  clear poster "
	_, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 8, &comment)
	require.NoError(t, err)

	got, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 6, nil)
	require.NoError(t, err)

	scores, err := f.store.Scores().ListByEvaluation(f.ctx, ev.ID)
	require.NoError(t, err)
	require.Len(t, scores, 1)
	assert.Equal(t, 6.0, scores[0].Score)
	assert.Nil(t, scores[0].Comment)
	assert.InDelta(t, 0.6, *got.TotalScore, 1e-12)

	again, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 6, nil)
	require.NoError(t, err)
	assert.Equal(t, *got.TotalScore, *again.TotalScore)
	assert.Equal(t, got.Status, again.Status)
}

func TestRemoveScoreRevertsCompletion(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 10, nil)
	require.NoError(t, err)
	done, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.method.ID, 0, nil)
	require.NoError(t, err)
	require.Equal(t, evaluation.StatusCompleted, done.Status)

	got, err := f.engine.RemoveScore(f.ctx, f.judge, ev.ID, f.method.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, got.Status)
	assert.InDelta(t, 1.0, *got.TotalScore, 1e-12)

	got, err = f.engine.RemoveScore(f.ctx, f.judge, ev.ID, f.clarity.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusPending, got.Status)
	assert.Nil(t, got.TotalScore)

	_, err = f.engine.RemoveScore(f.ctx, f.judge, ev.ID, f.clarity.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestOnlyOwnerOrAdminMayScore(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)
	other := f.newActor(t, profile.RoleJudge)

	_, err := f.engine.SubmitScore(f.ctx, other, ev.ID, f.clarity.ID, 5, nil)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.engine.GetEvaluation(f.ctx, other, ev.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	got, err := f.engine.SubmitScore(f.ctx, f.admin, ev.ID, f.clarity.ID, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, got.Status)

	anonymous := &profile.Actor{UserID: uuid.New()}
	_, err = f.engine.SubmitScore(f.ctx, anonymous, ev.ID, f.clarity.ID, 5, nil)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestSubmitScoreUnknownReferences(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.SubmitScore(f.ctx, f.judge, uuid.New(), f.clarity.ID, 5, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = f.engine.SubmitScore(f.ctx, f.judge, ev.ID, uuid.New(), 5, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)

	start := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	otherConf := conference.NewConference("Other", start, start)
	require.NoError(t, f.store.Conferences().Create(f.ctx, otherConf))
	foreign := evaluation.NewCriterion(otherConf.ID, "Foreign", 10, 1, 0)
	require.NoError(t, f.store.Criteria().Create(f.ctx, foreign))

	_, err = f.engine.SubmitScore(f.ctx, f.judge, ev.ID, foreign.ID, 5, nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestComputeTotalWithoutCriteria(t *testing.T) {
	f := newFixture(t)

	start := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	bare := conference.NewConference("Bare", start, start)
	require.NoError(t, f.store.Conferences().Create(f.ctx, bare))
	sess := conference.NewSession(bare.ID, "Only", start, start.Add(time.Hour), 2)
	require.NoError(t, f.store.Sessions().Create(f.ctx, sess))
	p := project.NewProject("Lonely poster", nil)
	p.SessionID = &sess.ID
	require.NoError(t, f.store.Projects().Create(f.ctx, p))

	ev, err := f.engine.StartEvaluation(f.ctx, f.judge, p.ID)
	require.NoError(t, err)

	_, err = f.engine.ComputeTotal(f.ctx, ev.ID)
	assert.ErrorIs(t, err, common.ErrNoCriteriaDefined)

	got, err := f.engine.TransitionStatus(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusPending, got.Status)
	assert.Nil(t, got.TotalScore)
}

func TestComputeTotalAndTransitionAreIdempotent(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 8, nil)
	require.NoError(t, err)

	res, err := f.engine.ComputeTotal(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, *res.Total, 1e-12)
	assert.Equal(t, 1, res.Scored)
	assert.Equal(t, 2, res.Required)

	first, err := f.engine.TransitionStatus(f.ctx, ev.ID)
	require.NoError(t, err)
	second, err := f.engine.TransitionStatus(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Status, second.Status)
	assert.Equal(t, *first.TotalScore, *second.TotalScore)
}

func TestNewCriterionReopensCompletedEvaluation(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 8, nil)
	require.NoError(t, err)
	_, err = f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.method.ID, 4, nil)
	require.NoError(t, err)

	extra := evaluation.NewCriterion(f.conf.ID, "Impact", 10, 1, 2)
	require.NoError(t, f.engine.AddCriterion(f.ctx, extra))

	got, err := f.store.Evaluations().GetByID(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, got.Status)
	require.NotNil(t, got.TotalScore)
	assert.InDelta(t, 0.8, *got.TotalScore, 1e-9)

	again, err := f.engine.TransitionStatus(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Status, again.Status)
}

func TestMoveProjectKeepsEvaluationsWhenMoveFails(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.SubmitScore(f.ctx, f.judge, ev.ID, f.clarity.ID, 8, nil)
	require.NoError(t, err)

	err = f.engine.MoveProject(f.ctx, f.project.ID, func(ctx context.Context) error {
		return common.NotFound("session", uuid.New())
	})
	assert.ErrorIs(t, err, common.ErrNotFound)

	got, err := f.store.Evaluations().GetByID(f.ctx, ev.ID)
	require.NoError(t, err)
	assert.Equal(t, evaluation.StatusInProgress, got.Status)
}

func TestStartEvaluation(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	_, err := f.engine.StartEvaluation(f.ctx, f.judge, f.project.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	same, err := f.engine.EnsureEvaluation(f.ctx, f.judge, f.project.ID)
	require.NoError(t, err)
	assert.Equal(t, ev.ID, same.ID)

	plainUser := f.newActor(t, profile.RoleUser)
	_, err = f.engine.StartEvaluation(f.ctx, plainUser, f.project.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	_, err = f.engine.StartEvaluation(f.ctx, f.judge, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	unscheduled := project.NewProject("Unscheduled", nil)
	require.NoError(t, f.store.Projects().Create(f.ctx, unscheduled))
	_, err = f.engine.StartEvaluation(f.ctx, f.judge, unscheduled.ID)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}

func TestUpdateComments(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	text := " strong methodology "
	got, err := f.engine.UpdateComments(f.ctx, f.judge, ev.ID, &text)
	require.NoError(t, err)
	require.NotNil(t, got.Comments)
	assert.Equal(t, "strong methodology", *got.Comments)

	other := f.newActor(t, profile.RoleJudge)
	_, err = f.engine.UpdateComments(f.ctx, other, ev.ID, &text)
	assert.ErrorIs(t, err, common.ErrForbidden)
}

func TestRegisterJudge(t *testing.T) {
	f := newFixture(t)

	js, err := f.engine.RegisterJudge(f.ctx, f.judge, f.session.ID)
	require.NoError(t, err)
	assert.False(t, js.Confirmed)
	require.NotNil(t, js.Session)
	assert.Equal(t, f.session.ID, js.Session.ID)

	_, err = f.engine.RegisterJudge(f.ctx, f.judge, f.session.ID)
	assert.ErrorIs(t, err, common.ErrConflict)

	_, err = f.engine.RegisterJudge(f.ctx, f.judge, uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)

	plainUser := f.newActor(t, profile.RoleUser)
	_, err = f.engine.RegisterJudge(f.ctx, plainUser, f.session.ID)
	assert.ErrorIs(t, err, common.ErrForbidden)

	require.NoError(t, f.engine.UnregisterJudge(f.ctx, f.judge, f.session.ID))
	assert.ErrorIs(t, f.engine.UnregisterJudge(f.ctx, f.judge, f.session.ID), common.ErrNotFound)
}

func TestRegisterJudgeRespectsCapacityUnderConcurrency(t *testing.T) {
	f := newFixture(t)

	const contenders = 8
	judges := make([]*profile.Actor, contenders)
	for i := range judges {
		judges[i] = f.newActor(t, profile.RoleJudge)
	}

	var wg sync.WaitGroup
	var ok, full, other atomic.Int32
	for _, j := range judges {
		wg.Add(1)
		go func(actor *profile.Actor) {
			defer wg.Done()
			_, err := f.engine.RegisterJudge(f.ctx, actor, f.session.ID)
			switch {
			case err == nil:
				ok.Add(1)
			case errors.Is(err, common.ErrSessionFull):
				full.Add(1)
			default:
				other.Add(1)
			}
		}(j)
	}
	wg.Wait()

	assert.Equal(t, int32(f.session.MaxJudges), ok.Load())
	assert.Equal(t, int32(contenders-f.session.MaxJudges), full.Load())
	assert.Zero(t, other.Load())

	n, err := f.store.Sessions().CountJudges(f.ctx, f.session.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(f.session.MaxJudges), n)

	assert.ErrorIs(t, f.engine.CheckSessionCapacity(f.ctx, f.session.ID), common.ErrSessionFull)
}

func TestCheckSessionCapacity(t *testing.T) {
	f := newFixture(t)

	assert.NoError(t, f.engine.CheckSessionCapacity(f.ctx, f.session.ID))
	assert.ErrorIs(t, f.engine.CheckSessionCapacity(f.ctx, uuid.New()), common.ErrNotFound)
}

// rangeCheckedScores rejects every upsert the way the score trigger does
type rangeCheckedScores struct {
	evaluation.ScoreRepository
}

func (rangeCheckedScores) Upsert(ctx context.Context, s *evaluation.Score) error {
	return fmt.Errorf("%w: rejected by validate_evaluation_score", common.ErrOutOfRangeScore)
}

func TestStorageRangeRejectionCarriesCriterionBounds(t *testing.T) {
	f := newFixture(t)
	ev := f.start(t)

	engine := evaluation.NewEngine(evaluation.Dependencies{
		Tx:          f.store,
		Evaluations: f.store.Evaluations(),
		Scores:      rangeCheckedScores{f.store.Scores()},
		Criteria:    f.store.Criteria(),
		Projects:    f.store.Projects(),
		Sessions:    f.store.Sessions(),
	})

	_, err := engine.SubmitScore(f.ctx, f.judge, ev.ID, f.method.ID, 3, nil)
	var oor *common.OutOfRangeScoreError
	require.ErrorAs(t, err, &oor)
	assert.Equal(t, 3.0, oor.Score)
	assert.Equal(t, 0.0, oor.Min)
	assert.Equal(t, 5.0, oor.Max)
}
