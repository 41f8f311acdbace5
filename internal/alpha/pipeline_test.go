package alpha

import (
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) (*Pipeline, *store.Store) {
	t.Helper()
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)
	s := store.New(featuresDB.Conn(), cacheDB.Conn(), zerolog.Nop())
	return New(s, zerolog.Nop()), s
}

func seedNinetyBars(t *testing.T, s *store.Store, code string, changePcts []float64) time.Time {
	t.Helper()
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: code, DisplayName: "测试股份", ActiveFlag: true}))

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	close := 10.0
	var bars []store.DailyBar
	var last time.Time
	for i := 0; i < 90; i++ {
		d := base.AddDate(0, 0, i)
		changePct := 0.5
		if i == 89 && len(changePcts) > 0 {
			changePct = changePcts[0]
		}
		open := close
		close = close * (1 + changePct/100)
		bars = append(bars, store.DailyBar{
			TickerCode: code, TradeDate: d,
			Open: open, Close: close, High: close * 1.01, Low: open * 0.99,
			Volume: 1_000_000, TurnoverAmount: close * 1_000_000 * 100, TurnoverRate: 5, ChangePct: changePct,
		})
		last = d
	}
	require.NoError(t, s.DailyBars.UpsertBatch(bars))
	return last
}

func TestPipelineRun_EmptyUniverseReturnsInsufficientHistory(t *testing.T) {
	p, _ := newTestPipeline(t)
	_, err := p.Run(time.Now(), Params{Model: ModelT4}, 20)
	assert.ErrorIs(t, err, ErrInsufficientHistory)
}

func TestPipelineRun_StarLimitUpExcludedFromResults(t *testing.T) {
	// E2E-6: a STAR-board ticker at change_pct = 20.0 must not survive Level 2.
	p, s := newTestPipeline(t)
	target := seedNinetyBars(t, s, "688001", []float64{20.0})

	_, err := p.Run(target, Params{Model: ModelT4}, 20)
	assert.ErrorIs(t, err, ErrEmptyAfterFilter)
}

func TestPipelineRun_DiagnosticsAttributeEmptyResultToOneLevel(t *testing.T) {
	// property 8: every empty-result call names exactly one level via its error.
	p, _ := newTestPipeline(t)
	_, err := p.Run(time.Now(), Params{Model: ModelT4}, 20)
	require.Error(t, err)
	assert.Contains(t, []error{ErrInsufficientHistory, ErrEmptyAfterFilter}, err)
}
