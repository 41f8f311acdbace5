package metrics

import (
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)
	s := store.New(featuresDB.Conn(), cacheDB.Conn(), zerolog.Nop())
	return New(s, zerolog.Nop()), s
}

func TestRecomputeTickers_WritesMovingAveragesAndRank(t *testing.T) {
	e, s := newTestEngine(t)
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ListingMarket: "SH", ActiveFlag: true}))
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "000001", DisplayName: "平安银行", ListingMarket: "SZ", ActiveFlag: true}))

	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	var bars []store.DailyBar
	for i := 0; i < 10; i++ {
		d := base.AddDate(0, 0, i)
		bars = append(bars,
			store.DailyBar{TickerCode: "600519", TradeDate: d, Open: 100, Close: 100 + float64(i), High: 101 + float64(i), Low: 99, Volume: 1000},
			store.DailyBar{TickerCode: "000001", TradeDate: d, Open: 10, Close: 10 + float64(i)*0.1, High: 10.2 + float64(i)*0.1, Low: 9.9, Volume: 500},
		)
	}
	require.NoError(t, s.DailyBars.UpsertBatch(bars))

	target := base.AddDate(0, 0, 9)
	require.NoError(t, e.RecomputeTickers(target))

	got, err := s.DailyBars.RecentBars("600519", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].MA5.Valid)
	assert.InDelta(t, 107.0, got[0].MA5.Float64, 1e-9) // closes 105..109 averaged
}

func TestRecomputeSectors_WritesRPSAndDefaultsMAStatus(t *testing.T) {
	e, s := newTestEngine(t)
	today := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.SectorFlows.UpsertBatch([]store.SectorFlow{
		{SectorName: "Banking", TradeDate: today, ChangePct: 1.5},
		{SectorName: "Liquor", TradeDate: today, ChangePct: -0.5},
	}))

	require.NoError(t, e.RecomputeSectors(today))

	flows, err := s.SectorFlows.RecentSectorFlows("Banking", 1)
	require.NoError(t, err)
	require.Len(t, flows, 1)
	assert.True(t, flows[0].SectorRPS20.Valid)
	assert.Equal(t, 0, flows[0].SectorMAStatus) // insufficient history (< 20 rows) defaults to 0
}
