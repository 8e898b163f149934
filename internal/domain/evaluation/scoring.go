package evaluation

import (
	"cmp"
	"slices"

	"github.com/google/uuid"

	"github.com/gravadigital/posterjudge-api/internal/domain/common"
)

// Result is the derived state of an evaluation
type Result struct {
	Total    *float64 `json:"total_score"`
	Status   Status   `json:"status"`
	Scored   int      `json:"scored_criteria"`
	Required int      `json:"total_criteria"`
}

// Percent returns the total on a 0-100 scale, or nil
func (r Result) Percent() *float64 {
	if r.Total == nil {
		return nil
	}
	p := *r.Total * 100
	return &p
}

// SortCriteria orders criteria by order_index, then name, then id.
// The aggregation folds in this order so totals are bit-for-bit reproducible.
func SortCriteria(criteria []Criterion) []Criterion {
	ordered := slices.Clone(criteria)
	slices.SortStableFunc(ordered, func(a, b Criterion) int {
		return cmp.Or(
			cmp.Compare(a.OrderIndex, b.OrderIndex),
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.ID.String(), b.ID.String()),
		)
	})
	return ordered
}

// Aggregate computes the weighted total and status of an evaluation.
//
//	total = Σ (score/max_score · weight) / Σ weight
//
// Both sums run over the criteria that have a score, so a partially scored
// evaluation gets a partial total. Scores for criteria outside the set are
// ignored. Total stays nil until something is scored, or while the scored
// criteria weigh nothing. An empty criteria set yields ErrNoCriteriaDefined
// along with a pending result.
func Aggregate(criteria []Criterion, scores []Score) (Result, error) {
	if len(criteria) == 0 {
		return Result{Status: StatusPending}, common.ErrNoCriteriaDefined
	}

	byCriterion := make(map[uuid.UUID]float64, len(scores))
	for _, s := range scores {
		byCriterion[s.CriterionID] = s.Score
	}

	var weighted, weights float64
	scored := 0
	for _, c := range SortCriteria(criteria) {
		value, ok := byCriterion[c.ID]
		if !ok {
			continue
		}
		scored++
		if c.MaxScore <= 0 {
			continue
		}
		weighted += value / float64(c.MaxScore) * c.Weight
		weights += c.Weight
	}

	res := Result{
		Status:   DeriveStatus(scored, len(criteria)),
		Scored:   scored,
		Required: len(criteria),
	}
	if scored > 0 && weights > 0 {
		total := weighted / weights
		res.Total = &total
	}
	return res, nil
}

// DeriveStatus maps score coverage onto the evaluation status
func DeriveStatus(scored, required int) Status {
	switch {
	case scored == 0:
		return StatusPending
	case scored >= required:
		return StatusCompleted
	default:
		return StatusInProgress
	}
}

// ProjectRef is the part of a project the standings need
type ProjectRef struct {
	ID    uuid.UUID
	Title string
}

// Standing is a project's position in its conference
type Standing struct {
	Rank        int       `json:"rank"`
	ProjectID   uuid.UUID `json:"project_id"`
	Title       string    `json:"title"`
	Evaluations int       `json:"evaluations"`
	Completed   int       `json:"completed"`
	MeanTotal   *float64  `json:"mean_total"`
}

// RankStandings averages the totals of completed evaluations per project and
// ranks projects by that mean, then by number of completed evaluations.
// Equal keys share a rank; unscored projects come last.
func RankStandings(projects []ProjectRef, evaluations []*Evaluation) []Standing {
	type acc struct {
		count, completed int
		sum              float64
	}
	stats := make(map[uuid.UUID]*acc, len(projects))
	for _, p := range projects {
		stats[p.ID] = &acc{}
	}
	for _, ev := range evaluations {
		a, ok := stats[ev.ProjectID]
		if !ok {
			continue
		}
		a.count++
		if ev.Status == StatusCompleted && ev.TotalScore != nil {
			a.completed++
			a.sum += *ev.TotalScore
		}
	}

	out := make([]Standing, 0, len(projects))
	for _, p := range projects {
		a := stats[p.ID]
		st := Standing{ProjectID: p.ID, Title: p.Title, Evaluations: a.count, Completed: a.completed}
		if a.completed > 0 {
			mean := a.sum / float64(a.completed)
			st.MeanTotal = &mean
		}
		out = append(out, st)
	}

	slices.SortStableFunc(out, func(a, b Standing) int {
		if c := compareMean(a.MeanTotal, b.MeanTotal); c != 0 {
			return c
		}
		return cmp.Or(
			cmp.Compare(b.Completed, a.Completed),
			cmp.Compare(a.Title, b.Title),
			cmp.Compare(a.ProjectID.String(), b.ProjectID.String()),
		)
	})

	for i := range out {
		if i > 0 && compareMean(out[i-1].MeanTotal, out[i].MeanTotal) == 0 && out[i-1].Completed == out[i].Completed {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

// compareMean sorts higher means first and nil means last
func compareMean(a, b *float64) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	return cmp.Compare(*b, *a)
}
