package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type allWeekdaysSource struct{}

func (allWeekdaysSource) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestVerifyDue_SkipsRowsWithoutFullForwardWindow(t *testing.T) {
	recDB, cleanupRec := testingpkg.NewTestDB(t, "recommendations")
	t.Cleanup(cleanupRec)
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)

	repo := New(recDB.Conn(), zerolog.Nop())
	s := store.New(featuresDB.Conn(), featuresDB.Conn(), zerolog.Nop())
	cal := calendar.New(allWeekdaysSource{}, zerolog.Nop())
	v := NewVerifier(repo, s.DailyBars, cal, zerolog.Nop())

	runDate := time.Now().AddDate(0, 0, -10)
	require.NoError(t, repo.Record("user-1", runDate, "run-a", nil, "v1", []Pick{
		{TickerCode: "600519", EntryPrice: 100},
	}))
	// No daily bars seeded at all: the forward window is never complete.
	verified, err := v.VerifyDue()
	require.NoError(t, err)
	assert.Equal(t, 0, verified)
}

func TestVerifyDue_VerifiesRowWithCompleteForwardWindow(t *testing.T) {
	recDB, cleanupRec := testingpkg.NewTestDB(t, "recommendations")
	t.Cleanup(cleanupRec)
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)

	repo := New(recDB.Conn(), zerolog.Nop())
	s := store.New(featuresDB.Conn(), featuresDB.Conn(), zerolog.Nop())
	cal := calendar.New(allWeekdaysSource{}, zerolog.Nop())
	v := NewVerifier(repo, s.DailyBars, cal, zerolog.Nop())

	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ActiveFlag: true}))

	runDate := time.Now().AddDate(0, 0, -20)
	require.NoError(t, repo.Record("user-1", runDate, "run-a", nil, "v1", []Pick{
		{TickerCode: "600519", EntryPrice: 100},
	}))

	var bars []store.DailyBar
	for i := 1; i <= 10; i++ {
		bars = append(bars, store.DailyBar{
			TickerCode: "600519", TradeDate: runDate.AddDate(0, 0, i),
			Open: 110, Close: 110, High: 115, Low: 105,
		})
	}
	require.NoError(t, s.DailyBars.UpsertBatch(bars))

	verified, err := v.VerifyDue()
	require.NoError(t, err)
	assert.Equal(t, 1, verified)

	pending, err := repo.PendingForVerification(time.Now())
	require.NoError(t, err)
	assert.Empty(t, pending)
}
