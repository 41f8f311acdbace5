package scheduler

import (
	"context"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	"github.com/rs/zerolog"
)

// CatchUpJobConfig holds the dependencies for CatchUpJob.
type CatchUpJobConfig struct {
	Log         zerolog.Logger
	Calendar    *calendar.Calendar
	Store       *store.Store
	DailyBars   vendor.DailyBarSource
	WindowDays  int // K: trailing days inspected
	MinQuorum   int // minimum distinct tickers with a bar on a day before it's "complete"
}

// CatchUpJob runs once at process start: over the trailing WindowDays
// trading days it counts how many tickers have a daily bar row, and for
// any day under MinQuorum it re-fetches and fills that single day for
// every active ticker. Unlike the scheduled jobs this one expects to be
// invoked directly via Scheduler.RunNow, not registered on a cron
// expression, and is safe to run on the worker pool since a full window
// backfill can take longer than a single cron tick should block for.
type CatchUpJob struct {
	log        zerolog.Logger
	cal        *calendar.Calendar
	store      *store.Store
	dailyBars  vendor.DailyBarSource
	windowDays int
	minQuorum  int
}

// NewCatchUpJob builds a CatchUpJob.
func NewCatchUpJob(cfg CatchUpJobConfig) *CatchUpJob {
	return &CatchUpJob{
		log:        cfg.Log.With().Str("job", "catch_up").Logger(),
		cal:        cfg.Calendar,
		store:      cfg.Store,
		dailyBars:  cfg.DailyBars,
		windowDays: cfg.WindowDays,
		minQuorum:  cfg.MinQuorum,
	}
}

// Name identifies this job to the scheduler.
func (j *CatchUpJob) Name() string { return "catch_up" }

// Run scans the trailing window for under-quorum days and fills them.
func (j *CatchUpJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	now := time.Now()
	from := now.AddDate(0, 0, -j.windowDays)
	days := j.cal.TradingDaysIn(ctx, from, j.cal.LastTradingDay(ctx, now))

	tickers, err := j.store.Tickers.ListActive()
	if err != nil {
		return err
	}

	var incomplete []time.Time
	for _, d := range days {
		n, err := j.countTickersWithBar(tickers, d)
		if err != nil {
			return err
		}
		if n < j.minQuorum {
			incomplete = append(incomplete, d)
		}
	}
	if len(incomplete) == 0 {
		j.log.Debug().Msg("no under-quorum days in window")
		return nil
	}
	j.log.Warn().Int("days", len(incomplete)).Msg("under-quorum days found, backfilling")

	for _, d := range incomplete {
		for _, t := range tickers {
			bars, err := j.dailyBars.DailyBars(ctx, t.TickerCode, d, d)
			if err != nil {
				j.log.Warn().Err(err).Str("ticker", t.TickerCode).Time("date", d).Msg("backfill fetch failed")
				continue
			}
			if len(bars) == 0 {
				continue
			}
			rows := make([]store.DailyBar, 0, len(bars))
			for _, b := range bars {
				rows = append(rows, store.DailyBar{
					TickerCode: b.TickerCode, TradeDate: b.TradeDate,
					Open: b.Open, Close: b.Close, High: b.High, Low: b.Low,
					Volume: b.Volume, TurnoverAmount: b.TurnoverAmount,
					TurnoverRate: b.TurnoverRate, ChangePct: b.ChangePct,
				})
			}
			if err := j.store.DailyBars.UpsertBatch(rows); err != nil {
				return err
			}
		}
	}
	return nil
}

// countTickersWithBar counts how many tickers have a daily_bars row for
// day. The count covers every stored ticker, not only those in tickers.
func (j *CatchUpJob) countTickersWithBar(tickers []store.Ticker, day time.Time) (int, error) {
	return j.store.DailyBars.CountForDate(day)
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
