package predictor

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/diskcache"
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

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)

	s := store.New(featuresDB.Conn(), cacheDB.Conn(), zerolog.Nop())
	cal := calendar.New(allWeekdaysSource{}, zerolog.Nop())
	cacheRepo := NewCacheRepository(cacheDB.Conn(), zerolog.Nop())

	dir, err := os.MkdirTemp("", "predictor_diskcache_*")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	disk, err := diskcache.New(dir, zerolog.Nop())
	require.NoError(t, err)

	boards := NewBoardMap(s.Concepts, disk, zerolog.Nop())

	e := New(EngineConfig{
		Log: zerolog.Nop(), Calendar: cal, Store: s, Cache: cacheRepo, Boards: boards,
		Sources: []string{"eastmoney"},
	})
	return e, s
}

func nullFloat(v float64) sql.NullFloat64 { return sql.NullFloat64{Float64: v, Valid: true} }

func seedFixture(t *testing.T, s *store.Store, dataDate time.Time) {
	t.Helper()
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ActiveFlag: true}))
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "300750", DisplayName: "宁德时代", ActiveFlag: true}))

	conceptID, err := s.Concepts.UpsertConcept(store.Concept{ConceptName: "新能源", ConceptCode: "NE", OriginSource: "eastmoney"})
	require.NoError(t, err)
	require.NoError(t, s.Concepts.ReplaceMemberships(conceptID, []store.ConceptMembership{
		{TickerCode: "600519", ConceptID: conceptID, Weight: 0.6},
		{TickerCode: "300750", ConceptID: conceptID, Weight: 0.8},
	}))
	require.NoError(t, s.Concepts.UpsertVirtualBoardMapping(store.VirtualBoardMapping{
		VirtualBoardName: "新能源板块", SourceConceptName: "新能源", Weight: 1.0, ActiveFlag: true,
	}))

	var flows []store.SectorFlow
	for i, net := range []float64{1_000_000, 1_500_000, 2_200_000} {
		flows = append(flows, store.SectorFlow{
			SectorName: "新能源", TradeDate: dataDate.AddDate(0, 0, -2+i),
			MainNet: net, LargeNet: net * 0.4, SuperLargeNet: net * 0.2,
			ChangePct: 2.5, LimitUpCount: 1,
		})
	}
	require.NoError(t, s.SectorFlows.UpsertBatch(flows))

	require.NoError(t, s.HotRank.ReplaceForSourceAndDate("eastmoney", dataDate, []store.HotRankEntry{
		{TickerCode: "600519", Source: "eastmoney", TradeDate: dataDate, Rank: 3, HotScore: 88, Volume: 1000},
		{TickerCode: "300750", Source: "eastmoney", TradeDate: dataDate, Rank: 7, HotScore: 72, Volume: 900},
	}))

	require.NoError(t, s.DailyBars.UpsertBatch([]store.DailyBar{
		{TickerCode: "600519", TradeDate: dataDate, Open: 1700, Close: 1720, High: 1730, Low: 1695, RPS250: nullFloat(82)},
		{TickerCode: "300750", TradeDate: dataDate, Open: 180, Close: 182, High: 185, Low: 179, RPS250: nullFloat(65)},
	}))
}

func TestPredict_GeneratesBoardsAndCandidatesFromFixture(t *testing.T) {
	e, s := newTestEngine(t)
	dataDate := time.Now().AddDate(0, 0, -1)
	seedFixture(t, s, dataDate)

	payload, err := e.Predict(context.Background(), true)
	require.NoError(t, err)

	require.Len(t, payload.Boards, 1)
	assert.Equal(t, "新能源板块", payload.Boards[0].Name)

	require.Len(t, payload.Candidates, 2)
	codes := map[string]bool{}
	for _, c := range payload.Candidates {
		codes[c.TickerCode] = true
	}
	assert.True(t, codes["600519"])
	assert.True(t, codes["300750"])
}

func TestPredict_ReusesCacheWithinFreshnessWindowWithoutForce(t *testing.T) {
	e, s := newTestEngine(t)
	dataDate := time.Now().AddDate(0, 0, -1)
	seedFixture(t, s, dataDate)

	first, err := e.Predict(context.Background(), true)
	require.NoError(t, err)

	second, err := e.Predict(context.Background(), false)
	require.NoError(t, err)
	assert.Equal(t, first.GeneratedAt.Unix(), second.GeneratedAt.Unix())
}
