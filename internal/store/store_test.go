package store

import (
	"testing"
	"time"

	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)
	return New(featuresDB.Conn(), cacheDB.Conn(), zerolog.Nop())
}

func TestTickerUpsert_IdempotentOnRerun(t *testing.T) {
	s := newTestStore(t)

	ticker := Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ListingMarket: "SH", IndustryLabel: "白酒", ListDate: "2001-08-27", ActiveFlag: true}
	require.NoError(t, s.Tickers.Upsert(ticker))
	require.NoError(t, s.Tickers.Upsert(ticker)) // same batch run twice must not fail

	got, err := s.Tickers.GetByCode("600519")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "贵州茅台", got.DisplayName)
}

func TestSearchTickers_ThreeShapes(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Tickers.Upsert(Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ListingMarket: "SH", ActiveFlag: true}))
	require.NoError(t, s.Tickers.Upsert(Ticker{TickerCode: "000001", DisplayName: "平安银行", ListingMarket: "SZ", ActiveFlag: true}))

	byCode, err := s.Tickers.SearchTickers("6005", 10)
	require.NoError(t, err)
	require.Len(t, byCode, 1)
	assert.Equal(t, "600519", byCode[0].TickerCode)

	byName, err := s.Tickers.SearchTickers("茅台", 10)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "600519", byName[0].TickerCode)

	byPinyin, err := s.Tickers.SearchTickers("p", 10)
	require.NoError(t, err)
	require.NotEmpty(t, byPinyin)
}

func TestDailyBarUpsertBatch_IdempotentAndAscendingRead(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Tickers.Upsert(Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ListingMarket: "SH", ActiveFlag: true}))

	d1 := time.Date(2026, 7, 27, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(2026, 7, 28, 0, 0, 0, 0, time.UTC)
	bars := []DailyBar{
		{TickerCode: "600519", TradeDate: d2, Open: 100, Close: 105, High: 106, Low: 99, Volume: 1000},
		{TickerCode: "600519", TradeDate: d1, Open: 98, Close: 100, High: 101, Low: 97, Volume: 900},
	}

	require.NoError(t, s.DailyBars.UpsertBatch(bars))
	require.NoError(t, s.DailyBars.UpsertBatch(bars)) // idempotent re-run

	got, err := s.DailyBars.RecentBars("600519", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].TradeDate.Before(got[1].TradeDate), "expected ascending trade_date order")
}

func TestDailyBarCleanupOldData(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Tickers.Upsert(Ticker{TickerCode: "600519", ActiveFlag: true}))

	old := time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 7, 28, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.DailyBars.UpsertBatch([]DailyBar{
		{TickerCode: "600519", TradeDate: old, Open: 1, Close: 1, High: 1, Low: 1},
		{TickerCode: "600519", TradeDate: recent, Open: 1, Close: 1, High: 1, Low: 1},
	}))

	n, err := s.DailyBars.CleanupOldData(recent, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	remaining, err := s.DailyBars.RecentBars("600519", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, recent, remaining[0].TradeDate)
}

func TestHotRankReplaceForSourceAndDate_Atomic(t *testing.T) {
	s := newTestStore(t)
	today := time.Date(2026, 7, 28, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.HotRank.ReplaceForSourceAndDate("xueqiu", today, []HotRankEntry{
		{TickerCode: "600519", Source: "xueqiu", TradeDate: today, Rank: 1, HotScore: 99.5},
		{TickerCode: "000001", Source: "xueqiu", TradeDate: today, Rank: 2, HotScore: 88.1},
	}))

	// A second, smaller snapshot fully replaces the first.
	require.NoError(t, s.HotRank.ReplaceForSourceAndDate("xueqiu", today, []HotRankEntry{
		{TickerCode: "600519", Source: "xueqiu", TradeDate: today, Rank: 1, HotScore: 99.9},
	}))

	got, err := s.HotRank.Latest("xueqiu")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "600519", got[0].TickerCode)
}
