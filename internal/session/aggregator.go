// Package session groups impression rows into per-session ranked lists and
// scores each list with the ranking evaluator.
package session

import (
	"sort"
	"time"

	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/ranking"
	"github.com/ranklens/ranklens/internal/relevance"
)

// Item is one slot of a session's feed in as-served order.
type Item struct {
	Position  int
	EntityID  string
	Grade     int
	Sources   []string
	Clicked   bool
	Purchased bool
	Revenue   float64
}

// Quality counts the data anomalies absorbed while building a session.
type Quality struct {
	// MalformedRows is the number of rows attached to this session that had
	// a non-positive position and were dropped.
	MalformedRows int
	// PositionCollisions is the number of rows dropped because an earlier
	// row already claimed their position. First-seen wins.
	PositionCollisions int
}

// Result is the evaluated ranked list of a single session.
type Result struct {
	SessionID string
	Surface   string
	Segment   string
	Category  string

	// Items are the deduplicated slots sorted by position ascending.
	// Positions need not be contiguous; a gap simply contributes no slot.
	Items []Item

	// Scores holds DCG/IDCG/NDCG per configured cutoff.
	Scores map[int]ranking.Score

	// IdealGrades is the descending multiset of non-zero grades that the
	// ideal ordering is built from.
	IdealGrades []int

	Quality   Quality
	Revenue   float64
	Clicks    int
	Purchases int

	// EventTime is the earliest event time among the kept rows, used to
	// place the session on a daily trend. Zero when no row carried a time.
	EventTime time.Time
}

// Flagged reports whether any data-quality anomaly was absorbed.
func (r *Result) Flagged() bool {
	return r.Quality.MalformedRows > 0 || r.Quality.PositionCollisions > 0
}

// HasSignal reports whether NDCG is defined at cutoff k.
func (r *Result) HasSignal(k int) bool {
	return r.Scores[k].Defined
}

// Grades returns the as-served grade sequence.
func (r *Result) Grades() []int {
	grades := make([]int, len(r.Items))
	for i, it := range r.Items {
		grades[i] = it.Grade
	}
	return grades
}

// Batch is the output of one aggregation pass.
type Batch struct {
	Results []Result

	// OrphanedRows counts rows with no session identifier. They cannot be
	// attached to any session result, so they are surfaced here.
	OrphanedRows int

	// FilteredRows counts rows removed by the pre-filter.
	FilteredRows int
}

type builder struct {
	result    Result
	positions map[int]struct{}
	cats      map[string]int
}

// Aggregate filters rows, groups them by session, orders each session by
// position, grades every slot under the given policy and evaluates the
// session at each cutoff. Input rows are never mutated; session order in the
// output follows first appearance in the input, so the pass is deterministic
// for a stable input order.
func Aggregate(rows []domain.Impression, policy relevance.Policy, window domain.AttributionWindow, cutoffs []int, filter domain.Filter) Batch {
	var batch Batch

	builders := make(map[string]*builder)
	var order []string

	for _, row := range rows {
		if !filter.Match(row) {
			batch.FilteredRows++
			continue
		}
		if row.SessionID == "" {
			batch.OrphanedRows++
			continue
		}

		b, ok := builders[row.SessionID]
		if !ok {
			b = &builder{
				result: Result{
					SessionID: row.SessionID,
					Surface:   row.Surface,
					Segment:   row.Segment,
				},
				positions: make(map[int]struct{}),
				cats:      make(map[string]int),
			}
			builders[row.SessionID] = b
			order = append(order, row.SessionID)
		}

		if row.Position <= 0 {
			b.result.Quality.MalformedRows++
			continue
		}
		if _, taken := b.positions[row.Position]; taken {
			b.result.Quality.PositionCollisions++
			continue
		}
		b.positions[row.Position] = struct{}{}

		if row.Category != "" {
			b.cats[row.Category]++
		}

		grade := relevance.Grade(row, policy, window)
		purchased := row.Purchased(window)

		b.result.Items = append(b.result.Items, Item{
			Position:  row.Position,
			EntityID:  row.EntityID,
			Grade:     grade,
			Sources:   row.Sources,
			Clicked:   row.Clicked,
			Purchased: purchased,
			Revenue:   row.Revenue,
		})
		if !row.EventTime.IsZero() && (b.result.EventTime.IsZero() || row.EventTime.Before(b.result.EventTime)) {
			b.result.EventTime = row.EventTime
		}
		b.result.Revenue += row.Revenue
		if row.Clicked {
			b.result.Clicks++
		}
		if purchased {
			b.result.Purchases++
		}
	}

	batch.Results = make([]Result, 0, len(order))
	for _, id := range order {
		b := builders[id]
		if len(b.result.Items) == 0 {
			// Every row of the session was malformed; still report it so the
			// anomaly counts are not lost.
			batch.Results = append(batch.Results, b.result)
			continue
		}

		sort.Slice(b.result.Items, func(i, j int) bool {
			return b.result.Items[i].Position < b.result.Items[j].Position
		})

		b.result.Category = primaryCategory(b.cats)

		grades := b.result.Grades()
		b.result.Scores = ranking.Evaluate(grades, cutoffs)
		b.result.IdealGrades = nonZeroDescending(grades)

		batch.Results = append(batch.Results, b.result)
	}

	return batch
}

// primaryCategory picks the most frequent category label of a session,
// breaking frequency ties lexicographically so the pick is deterministic.
func primaryCategory(counts map[string]int) string {
	var best string
	bestCount := 0
	for cat, n := range counts {
		if n > bestCount || (n == bestCount && (best == "" || cat < best)) {
			best = cat
			bestCount = n
		}
	}
	return best
}

func nonZeroDescending(grades []int) []int {
	var out []int
	for _, g := range ranking.IdealOrder(grades) {
		if g <= 0 {
			break
		}
		out = append(out, g)
	}
	return out
}
