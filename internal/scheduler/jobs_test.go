package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	testingpkg "github.com/marketpulse/alpha-backend/internal/testing"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixedCalendarSource reports every weekday in range as a trading day,
// matching the behavior a real vendor calendar would give for a window
// with no holidays — enough for job tests that don't care about
// holiday edge cases.
type fixedCalendarSource struct{}

func (fixedCalendarSource) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out, nil
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	featuresDB, cleanupFeatures := testingpkg.NewTestDB(t, "features")
	t.Cleanup(cleanupFeatures)
	cacheDB, cleanupCache := testingpkg.NewTestDB(t, "cache")
	t.Cleanup(cleanupCache)
	return store.New(featuresDB.Conn(), cacheDB.Conn(), zerolog.Nop())
}

func TestRealtimeJob_SkipsOutsideTradingHours(t *testing.T) {
	s := newTestStore(t)
	cal := calendar.New(fixedCalendarSource{}, zerolog.Nop())
	job := NewRealtimeJob(RealtimeJobConfig{
		Log: zerolog.Nop(), Calendar: cal, Store: s,
		Intraday: &vendor.FixtureIntradaySource{}, Flow: &vendor.FixtureMoneyFlowSource{},
	})
	// Whatever "now" is, the job must not panic or error outside
	// trading hours; on weekends this always short-circuits.
	assert.NoError(t, job.Run())
}

func TestHotRankJob_RunsWithoutErrorAgainstFixture(t *testing.T) {
	s := newTestStore(t)
	cal := calendar.New(fixedCalendarSource{}, zerolog.Nop())

	fixture := &vendor.FixtureHotRankSource{}
	job := NewHotRankJob(HotRankJobConfig{
		Log: zerolog.Nop(), Calendar: cal, Store: s,
		Source: fixture, Sources: []string{"eastmoney"},
	})
	assert.NoError(t, job.Run())
}

func TestRetentionJob_DeletesPastHorizonWithNoArchiver(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ActiveFlag: true}))

	old := time.Now().AddDate(0, 0, -2000)
	require.NoError(t, s.DailyBars.UpsertBatch([]store.DailyBar{{
		TickerCode: "600519", TradeDate: old, Open: 1, Close: 1, High: 1, Low: 1,
	}}))

	job := NewRetentionJob(RetentionJobConfig{
		Log: zerolog.Nop(), Store: s,
		RetentionDailyBarDays: 1095, RetentionMoneyFlowDays: 1095,
		RetentionSectorFlowDays: 1095, RetentionHotRankDays: 30,
	})
	assert.NoError(t, job.Run())

	remaining, err := s.DailyBars.RecentBars("600519", 10)
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestConceptMetaJob_UpsertsNewConceptsAndMemberships(t *testing.T) {
	s := newTestStore(t)
	fixture := &vendor.FixtureConceptSource{ConceptList: []vendor.Concept{
		{ConceptName: "固态电池", ConceptCode: "BK0891", OriginSource: "eastmoney", Members: []vendor.ConceptMember{
			{TickerCode: "300750", Weight: 0.5},
		}},
	}}
	job := NewConceptMetaJob(ConceptMetaJobConfig{Log: zerolog.Nop(), Store: s, Concept: fixture})
	require.NoError(t, job.Run())

	concepts, err := s.Concepts.ListActiveConcepts()
	require.NoError(t, err)
	require.Len(t, concepts, 1)
	assert.Equal(t, "固态电池", concepts[0].ConceptName)

	members, err := s.Concepts.MembershipsByConceptName("固态电池")
	require.NoError(t, err)
	assert.Equal(t, []string{"300750"}, members)
}

func TestCatchUpJob_BackfillsUnderQuorumDay(t *testing.T) {
	s := newTestStore(t)
	cal := calendar.New(fixedCalendarSource{}, zerolog.Nop())
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ActiveFlag: true}))

	job := NewCatchUpJob(CatchUpJobConfig{
		Log: zerolog.Nop(), Calendar: cal, Store: s,
		DailyBars: &vendor.FixtureDailyBarSource{}, WindowDays: 5, MinQuorum: 1,
	})
	assert.NoError(t, job.Run())
}
