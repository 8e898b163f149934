package evaluation

import (
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

func criterion(name string, max int, weight float64, order int) Criterion {
	return Criterion{ID: uuid.New(), ConferenceID: uuid.Nil, Name: name, MaxScore: max, Weight: weight, OrderIndex: order}
}

func score(c Criterion, v float64) Score {
	return Score{ID: uuid.New(), CriterionID: c.ID, Score: v}
}

func TestAggregateWorkedExample(t *testing.T) {
	a := criterion("Clarity", 10, 1, 0)
	b := criterion("Method", 5, 2, 1)

	res, err := Aggregate([]Criterion{a, b}, []Score{score(a, 8)})
	require.NoError(t, err)
	require.NotNil(t, res.Total)
	assert.InDelta(t, 0.8, *res.Total, 1e-12)
	assert.Equal(t, StatusInProgress, res.Status)
	assert.Equal(t, 1, res.Scored)
	assert.Equal(t, 2, res.Required)

	res, err = Aggregate([]Criterion{a, b}, []Score{score(a, 8), score(b, 4)})
	require.NoError(t, err)
	assert.InDelta(t, 0.8, *res.Total, 1e-12)
	assert.Equal(t, StatusCompleted, res.Status)
	assert.InDelta(t, 80.0, *res.Percent(), 1e-9)
}

func TestAggregateWeightsTheMix(t *testing.T) {
	a := criterion("Clarity", 10, 1, 0)
	b := criterion("Method", 5, 3, 1)

	res, err := Aggregate([]Criterion{a, b}, []Score{score(a, 10), score(b, 0)})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, *res.Total, 1e-12)
}

func TestAggregateNoCriteria(t *testing.T) {
	res, err := Aggregate(nil, nil)
	assert.ErrorIs(t, err, common.ErrNoCriteriaDefined)
	assert.Equal(t, StatusPending, res.Status)
	assert.Nil(t, res.Total)
}

func TestAggregateNothingScored(t *testing.T) {
	a := criterion("Clarity", 10, 1, 0)

	res, err := Aggregate([]Criterion{a}, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Total)
	assert.Nil(t, res.Percent())
	assert.Equal(t, StatusPending, res.Status)
}

func TestAggregateZeroWeightScoredCriteria(t *testing.T) {
	a := criterion("Bonus", 10, 0, 0)
	b := criterion("Clarity", 10, 1, 1)

	res, err := Aggregate([]Criterion{a, b}, []Score{score(a, 7)})
	require.NoError(t, err)
	assert.Nil(t, res.Total)
	assert.Equal(t, StatusInProgress, res.Status)

	res, err = Aggregate([]Criterion{a, b}, []Score{score(a, 7), score(b, 5)})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, *res.Total, 1e-12)
	assert.Equal(t, StatusCompleted, res.Status)
}

func TestAggregateIgnoresForeignScores(t *testing.T) {
	a := criterion("Clarity", 10, 1, 0)
	stray := Score{CriterionID: uuid.New(), Score: 99}

	res, err := Aggregate([]Criterion{a}, []Score{stray})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, res.Status)
	assert.Nil(t, res.Total)
}

func TestAggregateIsDeterministic(t *testing.T) {
	cs := []Criterion{
		criterion("A", 7, 0.3, 2),
		criterion("B", 9, 1.7, 0),
		criterion("C", 3, 2.9, 1),
		criterion("D", 10, 0.1, 1),
	}
	ss := []Score{score(cs[0], 5.5), score(cs[1], 2.25), score(cs[2], 1), score(cs[3], 9.75)}

	first, err := Aggregate(cs, ss)
	require.NoError(t, err)

	reversedC := []Criterion{cs[3], cs[2], cs[1], cs[0]}
	reversedS := []Score{ss[2], ss[0], ss[3], ss[1]}
	for i := 0; i < 20; i++ {
		again, err := Aggregate(reversedC, reversedS)
		require.NoError(t, err)
		assert.Equal(t, math.Float64bits(*first.Total), math.Float64bits(*again.Total))
	}
}

func TestTotalStaysWithinUnitInterval(t *testing.T) {
	a := criterion("A", 10, 2, 0)
	b := criterion("B", 4, 0.5, 1)

	for _, va := range []float64{0, 3.3, 10} {
		for _, vb := range []float64{0, 1, 4} {
			res, err := Aggregate([]Criterion{a, b}, []Score{score(a, va), score(b, vb)})
			require.NoError(t, err)
			assert.GreaterOrEqual(t, *res.Total, 0.0)
			assert.LessOrEqual(t, *res.Total, 1.0)
		}
	}
}

func TestDeriveStatus(t *testing.T) {
	assert.Equal(t, StatusPending, DeriveStatus(0, 3))
	assert.Equal(t, StatusInProgress, DeriveStatus(2, 3))
	assert.Equal(t, StatusCompleted, DeriveStatus(3, 3))
}

func TestCheckScore(t *testing.T) {
	c := criterion("A", 5, 1, 0)

	assert.NoError(t, c.CheckScore(0))
	assert.NoError(t, c.CheckScore(5))

	for _, v := range []float64{-0.01, 5.01, math.NaN(), math.Inf(1)} {
		err := c.CheckScore(v)
		require.ErrorIs(t, err, common.ErrOutOfRangeScore)

		var oor *common.OutOfRangeScoreError
		require.ErrorAs(t, err, &oor)
		assert.Equal(t, 0.0, oor.Min)
		assert.Equal(t, 5.0, oor.Max)
	}
}

func TestCriterionValidate(t *testing.T) {
	conf := uuid.New()

	assert.NoError(t, NewCriterion(conf, "Clarity", 0, 1, 0).Validate())
	assert.Equal(t, DefaultMaxScore, NewCriterion(conf, "Clarity", 0, 1, 0).MaxScore)
	assert.ErrorIs(t, NewCriterion(conf, "", 10, 1, 0).Validate(), common.ErrInvalidInput)
	assert.ErrorIs(t, NewCriterion(conf, "x", -1, 1, 0).Validate(), common.ErrInvalidInput)
	assert.ErrorIs(t, NewCriterion(conf, "x", 10, -0.5, 0).Validate(), common.ErrInvalidInput)
	assert.ErrorIs(t, NewCriterion(uuid.Nil, "x", 10, 1, 0).Validate(), common.ErrInvalidInput)
}

func TestRankStandings(t *testing.T) {
	p1 := ProjectRef{ID: uuid.New(), Title: "Algae"}
	p2 := ProjectRef{ID: uuid.New(), Title: "Bees"}
	p3 := ProjectRef{ID: uuid.New(), Title: "Corals"}
	p4 := ProjectRef{ID: uuid.New(), Title: "Dunes"}

	total := func(v float64) *float64 { return &v }
	evs := []*Evaluation{
		{ProjectID: p1.ID, Status: StatusCompleted, TotalScore: total(0.5)},
		{ProjectID: p1.ID, Status: StatusCompleted, TotalScore: total(1)},
		{ProjectID: p2.ID, Status: StatusCompleted, TotalScore: total(0.9)},
		{ProjectID: p2.ID, Status: StatusInProgress, TotalScore: total(0.1)},
		{ProjectID: p3.ID, Status: StatusCompleted, TotalScore: total(0.75)},
		{ProjectID: p3.ID, Status: StatusCompleted, TotalScore: total(0.75)},
		{ProjectID: uuid.New(), Status: StatusCompleted, TotalScore: total(1)},
	}

	got := RankStandings([]ProjectRef{p4, p3, p2, p1}, evs)
	require.Len(t, got, 4)

	assert.Equal(t, p2.ID, got[0].ProjectID)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, 2, got[0].Evaluations)
	assert.Equal(t, 1, got[0].Completed)

	// p1 and p3 both average 0.75 over two completed evaluations
	assert.Equal(t, p1.ID, got[1].ProjectID)
	assert.Equal(t, p3.ID, got[2].ProjectID)
	assert.Equal(t, 2, got[1].Rank)
	assert.Equal(t, 2, got[2].Rank)

	assert.Equal(t, p4.ID, got[3].ProjectID)
	assert.Nil(t, got[3].MeanTotal)
	assert.Equal(t, 4, got[3].Rank)
}
