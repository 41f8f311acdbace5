package recommend

import (
	"testing"
	"time"

	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	db, cleanup := testingpkg.NewTestDB(t, "recommendations")
	t.Cleanup(cleanup)
	return New(db.Conn(), zerolog.Nop())
}

func TestRecord_InsertsOneRowPerPick(t *testing.T) {
	repo := newTestRepo(t)
	runDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	runID := NewRunID()

	err := repo.Record("user-1", runDate, runID, map[string]interface{}{"model": "T4"}, "v1", []Pick{
		{TickerCode: "300750", EntryPrice: 180.5, StopLossPrice: 170, AIScore: 82, WinProbability: 65, ReasonTags: []string{"vcp", "sector_resonance"}},
		{TickerCode: "600519", EntryPrice: 1700, StopLossPrice: 1600, AIScore: 70, WinProbability: 55},
	})
	require.NoError(t, err)

	pending, err := repo.PendingForVerification(runDate.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, runID, pending[0].RunID)
	assert.Equal(t, StatusPending, pending[0].VerificationStatus)
}

func TestRecord_UpsertOnSameKeyUpdatesInPlace(t *testing.T) {
	repo := newTestRepo(t)
	runDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Record("user-1", runDate, "run-a", nil, "v1", []Pick{
		{TickerCode: "300750", EntryPrice: 100, AIScore: 50, WinProbability: 50},
	}))
	require.NoError(t, repo.Record("user-1", runDate, "run-b", nil, "v2", []Pick{
		{TickerCode: "300750", EntryPrice: 110, AIScore: 60, WinProbability: 60},
	}))

	pending, err := repo.PendingForVerification(runDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "run-b", pending[0].RunID)
	assert.Equal(t, 110.0, pending[0].EntryPrice)
}

func TestVerify_ResolvedRowsLeavePendingList(t *testing.T) {
	repo := newTestRepo(t)
	runDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record("user-1", runDate, "run-a", nil, "v1", []Pick{
		{TickerCode: "A", EntryPrice: 100}, {TickerCode: "B", EntryPrice: 100},
	}))

	require.NoError(t, repo.Verify("user-1", runDate, "A", 12.0, 7.5))
	require.NoError(t, repo.Verify("user-1", runDate, "B", 3.0, 1.0))

	pending, err := repo.PendingForVerification(runDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, pending) // both now resolved, no longer pending
}
