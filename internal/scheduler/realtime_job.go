package scheduler

import (
	"context"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	"github.com/rs/zerolog"
)

// RealtimeJobConfig holds the dependencies for RealtimeJob.
type RealtimeJobConfig struct {
	Log      zerolog.Logger
	Calendar *calendar.Calendar
	Store    *store.Store
	Intraday vendor.IntradaySource
	Flow     vendor.MoneyFlowSource
}

// RealtimeJob is the every-minute intraday job: it is a no-op outside
// trading hours, and during trading hours it writes only the live
// columns of DailyBar (open/close/high/low/volume/turnover/change_pct)
// plus today's MoneyFlow row — it never touches the derived columns
// (moving averages, RPS, VCP), which are the exclusive responsibility of
// the daily_close job's C4 recomputation pass.
type RealtimeJob struct {
	log      zerolog.Logger
	cal      *calendar.Calendar
	store    *store.Store
	intraday vendor.IntradaySource
	flow     vendor.MoneyFlowSource
}

// NewRealtimeJob builds a RealtimeJob.
func NewRealtimeJob(cfg RealtimeJobConfig) *RealtimeJob {
	return &RealtimeJob{
		log:      cfg.Log.With().Str("job", "realtime").Logger(),
		cal:      cfg.Calendar,
		store:    cfg.Store,
		intraday: cfg.Intraday,
		flow:     cfg.Flow,
	}
}

// Name identifies this job to the scheduler.
func (j *RealtimeJob) Name() string { return "realtime" }

// Run fetches the current intraday snapshot and writes live OHLCV rows.
func (j *RealtimeJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	if !j.cal.IsTradingHours(ctx, now) {
		j.log.Debug().Msg("outside trading hours, skipping")
		return nil
	}

	snapshot, err := j.intraday.IntradaySnapshot(ctx)
	if err != nil {
		return err
	}
	if len(snapshot) == 0 {
		j.log.Warn().Msg("empty intraday snapshot")
		return nil
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	bars := make([]store.DailyBar, 0, len(snapshot))
	for _, row := range snapshot {
		// The push/poll snapshot carries last price and cumulative volume
		// only; open/high/low for the still-forming daily bar are left at
		// last price until the daily_close job overwrites the full bar.
		bars = append(bars, store.DailyBar{
			TickerCode:     row.TickerCode,
			TradeDate:      today,
			Open:           row.LastPrice,
			Close:          row.LastPrice,
			High:           row.LastPrice,
			Low:            row.LastPrice,
			Volume:         row.Volume,
			TurnoverAmount: row.TurnoverAmount,
			ChangePct:      row.ChangePct,
		})
	}
	if err := j.store.DailyBars.UpsertBatch(bars); err != nil {
		return err
	}
	j.log.Info().Int("tickers", len(bars)).Msg("intraday snapshot written")

	tickers, err := j.store.Tickers.ListActive()
	if err != nil {
		return err
	}
	var flowRows []store.MoneyFlow
	for _, t := range tickers {
		flows, err := j.flow.MoneyFlows(ctx, t.TickerCode, today, today)
		if err != nil {
			j.log.Warn().Err(err).Str("ticker", t.TickerCode).Msg("money flow fetch failed")
			continue
		}
		for _, f := range flows {
			flowRows = append(flowRows, store.MoneyFlow{
				TickerCode:    f.TickerCode,
				TradeDate:     f.TradeDate,
				MainNet:       f.MainNet,
				SuperLargeNet: f.SuperLargeNet,
				LargeNet:      f.LargeNet,
				MediumNet:     f.MediumNet,
				SmallNet:      f.SmallNet,
			})
		}
	}
	if len(flowRows) > 0 {
		if err := j.store.MoneyFlows.UpsertBatch(flowRows); err != nil {
			return err
		}
	}
	return nil
}
