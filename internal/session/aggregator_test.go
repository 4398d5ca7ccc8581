package session

import (
	"testing"
	"time"

	"github.com/ranklens/ranklens/internal/domain"
	"github.com/ranklens/ranklens/internal/relevance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(session string, pos int, mutate ...func(*domain.Impression)) domain.Impression {
	imp := domain.Impression{
		SessionID: session,
		EntityID:  "item",
		Position:  pos,
		Viewed:    true,
		Surface:   "home",
		Segment:   "new",
	}
	for _, m := range mutate {
		m(&imp)
	}
	return imp
}

func TestAggregateGroupsAndOrders(t *testing.T) {
	rows := []domain.Impression{
		row("s1", 3),
		row("s1", 1, func(i *domain.Impression) { i.Purchased1D = true; i.Revenue = 25 }),
		row("s1", 2, func(i *domain.Impression) { i.Clicked = true }),
		row("s2", 1),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	require.Len(t, batch.Results, 2)

	s1 := batch.Results[0]
	assert.Equal(t, "s1", s1.SessionID)
	require.Len(t, s1.Items, 3)
	assert.Equal(t, []int{4, 2, 1}, s1.Grades())
	assert.Equal(t, 1, s1.Clicks)
	assert.Equal(t, 1, s1.Purchases)
	assert.InDelta(t, 25.0, s1.Revenue, 1e-9)
	require.True(t, s1.HasSignal(10))
	assert.InDelta(t, 1.0, s1.Scores[10].NDCG, 1e-9)

	// s2 is a pure-view session graded 1 at the top slot.
	s2 := batch.Results[1]
	require.True(t, s2.HasSignal(10))
	assert.InDelta(t, 1.0, s2.Scores[10].NDCG, 1e-9)
}

func TestAggregatePositionCollisionFirstSeenWins(t *testing.T) {
	rows := []domain.Impression{
		row("s1", 1, func(i *domain.Impression) { i.EntityID = "first" }),
		row("s1", 1, func(i *domain.Impression) { i.EntityID = "second"; i.Purchased1D = true }),
		row("s1", 2),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	require.Len(t, batch.Results, 1)

	r := batch.Results[0]
	require.Len(t, r.Items, 2)
	assert.Equal(t, "first", r.Items[0].EntityID)
	assert.Equal(t, 1, r.Quality.PositionCollisions)
	assert.True(t, r.Flagged())
	// The colliding row's purchase never counts.
	assert.Equal(t, 0, r.Purchases)
}

func TestAggregateMalformedAndOrphanedRows(t *testing.T) {
	rows := []domain.Impression{
		row("s1", 0),
		row("s1", -2),
		row("s1", 1),
		row("", 1),
		row("", 2),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	assert.Equal(t, 2, batch.OrphanedRows)

	require.Len(t, batch.Results, 1)
	r := batch.Results[0]
	assert.Equal(t, 2, r.Quality.MalformedRows)
	assert.True(t, r.Flagged())
	require.Len(t, r.Items, 1)
}

func TestAggregateSessionWithOnlyMalformedRowsIsKept(t *testing.T) {
	rows := []domain.Impression{
		row("s1", 0),
		row("s1", -1),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	require.Len(t, batch.Results, 1)

	r := batch.Results[0]
	assert.Empty(t, r.Items)
	assert.Equal(t, 2, r.Quality.MalformedRows)
	assert.False(t, r.HasSignal(10))
}

func TestAggregatePreFilter(t *testing.T) {
	cutover := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	rows := []domain.Impression{
		row("s1", 1, func(i *domain.Impression) { i.EventTime = cutover.Add(time.Hour) }),
		row("s1", 2, func(i *domain.Impression) { i.EventTime = cutover.Add(-time.Hour) }),
		row("s2", 1, func(i *domain.Impression) { i.Surface = "search"; i.EventTime = cutover.Add(time.Hour) }),
	}

	filter := domain.Filter{Surface: "home", From: cutover}
	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, filter)

	assert.Equal(t, 2, batch.FilteredRows)
	require.Len(t, batch.Results, 1)
	assert.Len(t, batch.Results[0].Items, 1)
}

func TestAggregatePrimaryCategory(t *testing.T) {
	rows := []domain.Impression{
		row("s1", 1, func(i *domain.Impression) { i.Category = "shoes" }),
		row("s1", 2, func(i *domain.Impression) { i.Category = "hats" }),
		row("s1", 3, func(i *domain.Impression) { i.Category = "shoes" }),
		// Tie between bags and coats resolves lexicographically.
		row("s2", 1, func(i *domain.Impression) { i.Category = "coats" }),
		row("s2", 2, func(i *domain.Impression) { i.Category = "bags" }),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	require.Len(t, batch.Results, 2)
	assert.Equal(t, "shoes", batch.Results[0].Category)
	assert.Equal(t, "bags", batch.Results[1].Category)
}

func TestAggregateIdealGrades(t *testing.T) {
	rows := []domain.Impression{
		row("s1", 1),
		row("s1", 2, func(i *domain.Impression) { i.Purchased1D = true }),
		row("s1", 3, func(i *domain.Impression) { i.Viewed = false }),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	require.Len(t, batch.Results, 1)
	assert.Equal(t, []int{4, 1}, batch.Results[0].IdealGrades)
}

func TestAggregateEventTimeEarliestKeptRow(t *testing.T) {
	at := func(s string) time.Time {
		ts, err := time.Parse(time.RFC3339, s)
		if err != nil {
			panic(err)
		}
		return ts
	}
	rows := []domain.Impression{
		row("s1", 2, func(i *domain.Impression) { i.EventTime = at("2026-08-12T10:00:00Z") }),
		row("s1", 1, func(i *domain.Impression) { i.EventTime = at("2026-08-12T09:30:00Z") }),
		// Dropped rows must not move the session's time.
		row("s1", 1, func(i *domain.Impression) { i.EventTime = at("2026-08-12T08:00:00Z") }),
		row("s1", 3),
		// A session whose rows carry no time stays at the zero value.
		row("s2", 1),
	}

	batch := Aggregate(rows, relevance.PolicyGraded, domain.Window1D, []int{10}, domain.Filter{})
	require.Len(t, batch.Results, 2)
	assert.Equal(t, at("2026-08-12T09:30:00Z"), batch.Results[0].EventTime)
	assert.True(t, batch.Results[1].EventTime.IsZero())
}
