package pg

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ranklens/ranklens/internal/storage"
	pkgtesting "github.com/ranklens/ranklens/pkg/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
)

var (
	testCtx    context.Context
	testPool   *ConnectionPool
	testReader *Reader
)

func TestMain(m *testing.M) {
	testCtx = context.Background()

	pg, err := pkgtesting.NewPGContainer(testCtx, pkgtesting.PGConfig{
		Database: "ranklens_test_db",
		Username: "test",
		Password: "test",
	})
	if err != nil {
		panic(err)
	}
	defer testcontainers.TerminateContainer(pg.Container)

	testPool, err = NewConnectionPool(testCtx, PoolConfig{ConnStr: pg.ConnString})
	if err != nil {
		panic(err)
	}
	defer testPool.Close()

	testReader = NewReader(testPool, "")

	os.Exit(m.Run())
}

func truncateTable(t *testing.T) {
	t.Helper()
	_, err := testPool.GetConn().Exec(testCtx, "TRUNCATE TABLE recs_impressions")
	if err != nil {
		t.Fatalf("failed to truncate table: %v", err)
	}
}

func insertImpression(t *testing.T, session string, position int, surface string, sources []string, clicked bool, revenue float64, eventTime time.Time) {
	t.Helper()
	if sources == nil {
		sources = []string{}
	}
	_, err := testPool.GetConn().Exec(testCtx, `
		INSERT INTO recs_impressions
			(session_id, user_id, entity_id, position, sources, viewed, clicked, surface, segment, category, revenue_usd, event_time)
		VALUES ($1, $2, $3, $4, $5, TRUE, $6, $7, 'returning', 'shoes', $8, $9)
	`, session, "u1", "e1", position, sources, clicked, surface, revenue, eventTime)
	if err != nil {
		t.Fatalf("failed to insert test data: %v", err)
	}
}

func TestReaderFetchImpressions(t *testing.T) {
	truncateTable(t)
	defer truncateTable(t)

	now := time.Now().UTC().Truncate(time.Second)
	insertImpression(t, "s1", 2, "home", []string{"trending"}, false, 0, now)
	insertImpression(t, "s1", 1, "home", []string{"trending", "personalized"}, true, 19.99, now)
	insertImpression(t, "s2", 1, "search", nil, false, 0, now)

	imps, err := testReader.FetchImpressions(testCtx, storage.RowFilter{})
	require.NoError(t, err)
	require.Len(t, imps, 3)

	// Ordered by session then position.
	assert.Equal(t, "s1", imps[0].SessionID)
	assert.Equal(t, 1, imps[0].Position)
	assert.True(t, imps[0].Clicked)
	assert.Equal(t, []string{"trending", "personalized"}, imps[0].Sources)
	assert.InDelta(t, 19.99, imps[0].Revenue, 1e-6)
	assert.Equal(t, 2, imps[1].Position)
	assert.Equal(t, "s2", imps[2].SessionID)
}

func TestReaderFetchImpressionsFilters(t *testing.T) {
	truncateTable(t)
	defer truncateTable(t)

	now := time.Now().UTC().Truncate(time.Second)
	insertImpression(t, "s1", 1, "home", nil, false, 0, now.Add(-48*time.Hour))
	insertImpression(t, "s2", 1, "home", nil, false, 0, now)
	insertImpression(t, "s3", 1, "search", nil, false, 0, now)
	insertImpression(t, "s4", 30, "home", nil, false, 0, now)

	imps, err := testReader.FetchImpressions(testCtx, storage.RowFilter{
		Surface:     "home",
		From:        now.Add(-time.Hour),
		MaxPosition: 20,
	})
	require.NoError(t, err)
	require.Len(t, imps, 1)
	assert.Equal(t, "s2", imps[0].SessionID)
}

func TestReaderFetchImpressionsLimit(t *testing.T) {
	truncateTable(t)
	defer truncateTable(t)

	now := time.Now().UTC()
	for pos := 1; pos <= 5; pos++ {
		insertImpression(t, "s1", pos, "home", nil, false, 0, now)
	}

	imps, err := testReader.FetchImpressions(testCtx, storage.RowFilter{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, imps, 3)
}

func TestReaderFilterOptions(t *testing.T) {
	truncateTable(t)
	defer truncateTable(t)

	now := time.Now().UTC()
	insertImpression(t, "s1", 1, "home", []string{"trending"}, false, 0, now)
	insertImpression(t, "s2", 1, "search", []string{"personalized"}, false, 0, now)

	opts, err := testReader.FilterOptions(testCtx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home", "search"}, opts.Surfaces)
	assert.Equal(t, []string{"returning"}, opts.Segments)
	assert.Equal(t, []string{"shoes"}, opts.Categories)
	assert.ElementsMatch(t, []string{"personalized", "trending"}, opts.Sources)
}
