package alpha

import (
	"context"
	"fmt"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
)

// lookaheadDays is the number of trading days after entry used to score
// a simulated position's outcome.
const lookaheadDays = 5

// Trade is one simulated position opened by the walk-forward engine.
type Trade struct {
	TickerCode  string
	EntryDate   time.Time
	EntryPrice  float64
	MaxReturn   float64 // percent
	FinalReturn float64 // percent
}

// BacktestSummary aggregates outcomes across a date range.
type BacktestSummary struct {
	TotalTrades   int
	WinningTrades int // final_return > 0
	WinRate       float64
	AvgMaxReturn  float64
	AvgFinalReturn float64
	Trades        []Trade
}

// timeoutForSpan scales the simulated budget to the requested date span,
// per the ~300/450/600s guidance: short spans get 300s, long spans 600s.
func timeoutForSpan(days int) time.Duration {
	switch {
	case days <= 30:
		return 300 * time.Second
	case days <= 90:
		return 450 * time.Second
	default:
		return 600 * time.Second
	}
}

// RunBacktest iterates every trading day in [start, end], runs the
// pipeline at each day, opens simulated positions at that day's close for
// the top-N tickers, and scores each position after lookaheadDays trading
// days. It does not persist anything — the caller owns that if needed.
func (p *Pipeline) RunBacktest(ctx context.Context, cal *calendar.Calendar, start, end time.Time, params Params, topN int) (BacktestSummary, error) {
	days := cal.TradingDaysIn(ctx, start, end)

	budget := timeoutForSpan(len(days))
	deadline := time.Now().Add(budget)

	var summary BacktestSummary
	for _, day := range days {
		if time.Now().After(deadline) {
			p.log.Warn().Msg("backtest time budget exhausted, stopping early")
			break
		}

		result, err := p.Run(day, params, topN)
		if err != nil {
			// insufficient_history / empty_after_level2 on a given day are
			// expected in a long backtest window; skip the day rather than
			// aborting the whole run.
			continue
		}

		for _, ticker := range result.Ranked {
			trade, err := p.scoreOutcome(ticker.TickerCode, day, ticker.Close)
			if err != nil {
				continue
			}
			summary.Trades = append(summary.Trades, trade)
		}
	}

	summary.TotalTrades = len(summary.Trades)
	var sumMax, sumFinal float64
	for _, t := range summary.Trades {
		sumMax += t.MaxReturn
		sumFinal += t.FinalReturn
		if t.FinalReturn > 0 {
			summary.WinningTrades++
		}
	}
	if summary.TotalTrades > 0 {
		summary.AvgMaxReturn = sumMax / float64(summary.TotalTrades)
		summary.AvgFinalReturn = sumFinal / float64(summary.TotalTrades)
		summary.WinRate = float64(summary.WinningTrades) / float64(summary.TotalTrades) * 100
	}
	return summary, nil
}

// scoreOutcome loads the lookaheadDays bars following entryDate and
// computes max_return/final_return against entryPrice.
func (p *Pipeline) scoreOutcome(tickerCode string, entryDate time.Time, entryPrice float64) (Trade, error) {
	// RecentBars pulls the most recent N rows as of "now"; the backtest
	// needs the window strictly after entryDate, so pull a generous
	// trailing window and slice to the days following entry.
	bars, err := p.store.DailyBars.RecentBars(tickerCode, 400)
	if err != nil {
		return Trade{}, err
	}

	var future []store.DailyBar
	for _, b := range bars {
		if b.TradeDate.After(entryDate) {
			future = append(future, b)
		}
	}
	if len(future) < lookaheadDays {
		return Trade{}, fmt.Errorf("insufficient forward history for %s after %s", tickerCode, entryDate.Format("2006-01-02"))
	}
	window := future[:lookaheadDays]

	maxHigh := window[0].High
	for _, b := range window {
		if b.High > maxHigh {
			maxHigh = b.High
		}
	}
	finalClose := window[lookaheadDays-1].Close

	if entryPrice == 0 {
		return Trade{}, fmt.Errorf("zero entry price for %s", tickerCode)
	}

	return Trade{
		TickerCode:  tickerCode,
		EntryDate:   entryDate,
		EntryPrice:  entryPrice,
		MaxReturn:   (maxHigh - entryPrice) / entryPrice * 100,
		FinalReturn: (finalClose - entryPrice) / entryPrice * 100,
	}, nil
}
