package alpha

import (
	"context"
	"testing"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeoutForSpan_BucketsByDayCount(t *testing.T) {
	assert.Equal(t, 300*time.Second, timeoutForSpan(10))
	assert.Equal(t, 300*time.Second, timeoutForSpan(30))
	assert.Equal(t, 450*time.Second, timeoutForSpan(31))
	assert.Equal(t, 450*time.Second, timeoutForSpan(90))
	assert.Equal(t, 600*time.Second, timeoutForSpan(91))
}

type weekdayCalendarSource struct{}

func (weekdayCalendarSource) TradingDays(ctx context.Context, from, to time.Time) ([]time.Time, error) {
	var out []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestRunBacktest_EmptyUniverseYieldsZeroTrades(t *testing.T) {
	p, _ := newTestPipeline(t)
	cal := calendar.New(weekdayCalendarSource{}, zerolog.Nop())

	start := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)
	summary, err := p.RunBacktest(context.Background(), cal, start, end, Params{Model: ModelT4}, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalTrades)
	assert.Equal(t, 0.0, summary.WinRate)
}

func TestScoreOutcome_ComputesMaxAndFinalReturn(t *testing.T) {
	p, s := newTestPipeline(t)
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ActiveFlag: true}))

	entry := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	var bars []store.DailyBar
	prices := []float64{100, 110, 105, 120, 108, 112} // entry day + 5 forward days
	for i, px := range prices {
		bars = append(bars, store.DailyBar{
			TickerCode: "600519", TradeDate: entry.AddDate(0, 0, i),
			Open: px, Close: px, High: px * 1.02, Low: px * 0.98,
		})
	}
	require.NoError(t, s.DailyBars.UpsertBatch(bars))

	trade, err := p.scoreOutcome("600519", entry, 100)
	require.NoError(t, err)
	assert.InDelta(t, 22.4, trade.MaxReturn, 0.01) // (120*1.02-100)/100*100
	assert.InDelta(t, 12.0, trade.FinalReturn, 0.01)
}

func TestScoreOutcome_InsufficientForwardHistoryErrors(t *testing.T) {
	p, s := newTestPipeline(t)
	require.NoError(t, s.Tickers.Upsert(store.Ticker{TickerCode: "600519", DisplayName: "贵州茅台", ActiveFlag: true}))

	entry := time.Now()
	require.NoError(t, s.DailyBars.UpsertBatch([]store.DailyBar{{
		TickerCode: "600519", TradeDate: entry.AddDate(0, 0, 1), Open: 10, Close: 10, High: 10, Low: 10,
	}}))

	_, err := p.scoreOutcome("600519", entry, 10)
	assert.Error(t, err)
}
