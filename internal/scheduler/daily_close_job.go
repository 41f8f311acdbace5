package scheduler

import (
	"context"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/metrics"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	"github.com/rs/zerolog"
)

// DailyCloseJobConfig holds the dependencies for DailyCloseJob.
type DailyCloseJobConfig struct {
	Log          zerolog.Logger
	Calendar     *calendar.Calendar
	Store        *store.Store
	Metrics      *metrics.Engine
	DailyBars    vendor.DailyBarSource
	SectorFlows  vendor.SectorFlowSource
	IndexDaily   vendor.IndexDailySource
	RSRSIndexCode string
	LookbackDays int // how many trailing days to re-pull per ticker/sector/index
}

// DailyCloseJob runs once at 15:00 on trading days: it pulls the settled
// daily bar for every active ticker, the day's sector flow for every
// sector name seen in the ticker universe's industry labels, the market
// index bar, and then triggers the C4 derived-metric recomputation pass
// so RecomputeDay always sees the freshly written raw rows.
type DailyCloseJob struct {
	log           zerolog.Logger
	cal           *calendar.Calendar
	store         *store.Store
	metricsEngine *metrics.Engine
	dailyBars     vendor.DailyBarSource
	sectorFlows   vendor.SectorFlowSource
	indexDaily    vendor.IndexDailySource
	rsrsIndexCode string
	lookbackDays  int
}

// NewDailyCloseJob builds a DailyCloseJob.
func NewDailyCloseJob(cfg DailyCloseJobConfig) *DailyCloseJob {
	lookback := cfg.LookbackDays
	if lookback <= 0 {
		lookback = 5
	}
	return &DailyCloseJob{
		log:           cfg.Log.With().Str("job", "daily_close").Logger(),
		cal:           cfg.Calendar,
		store:         cfg.Store,
		metricsEngine: cfg.Metrics,
		dailyBars:     cfg.DailyBars,
		sectorFlows:   cfg.SectorFlows,
		indexDaily:    cfg.IndexDaily,
		rsrsIndexCode: cfg.RSRSIndexCode,
		lookbackDays:  lookback,
	}
}

// Name identifies this job to the scheduler.
func (j *DailyCloseJob) Name() string { return "daily_close" }

// Run performs the full end-of-day ingest-then-recompute cycle.
func (j *DailyCloseJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	today := j.cal.LastTradingDay(ctx, time.Now())
	if !j.cal.IsTradingDay(ctx, time.Now()) {
		j.log.Debug().Msg("not a trading day, skipping")
		return nil
	}
	from := today.AddDate(0, 0, -j.lookbackDays)

	tickers, err := j.store.Tickers.ListActive()
	if err != nil {
		return err
	}

	sectors := make(map[string]struct{})
	for _, t := range tickers {
		if t.IndustryLabel != "" {
			sectors[t.IndustryLabel] = struct{}{}
		}

		bars, err := j.dailyBars.DailyBars(ctx, t.TickerCode, from, today)
		if err != nil {
			j.log.Warn().Err(err).Str("ticker", t.TickerCode).Msg("daily bar fetch failed")
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
	j.log.Info().Int("tickers", len(tickers)).Msg("daily bars ingested")

	for sector := range sectors {
		flows, err := j.sectorFlows.SectorFlows(ctx, sector, from, today)
		if err != nil {
			j.log.Warn().Err(err).Str("sector", sector).Msg("sector flow fetch failed")
			continue
		}
		rows := make([]store.SectorFlow, 0, len(flows))
		for _, f := range flows {
			rows = append(rows, store.SectorFlow{
				SectorName: f.SectorName, TradeDate: f.TradeDate,
				MainNet: f.MainNet, SuperLargeNet: f.SuperLargeNet, LargeNet: f.LargeNet,
				MediumNet: f.MediumNet, SmallNet: f.SmallNet,
			})
		}
		if len(rows) > 0 {
			if err := j.store.SectorFlows.UpsertBatch(rows); err != nil {
				return err
			}
		}
	}
	j.log.Info().Int("sectors", len(sectors)).Msg("sector flows ingested")

	if j.rsrsIndexCode != "" {
		idx, err := j.indexDaily.IndexDaily(ctx, j.rsrsIndexCode, from, today)
		if err != nil {
			j.log.Warn().Err(err).Str("index", j.rsrsIndexCode).Msg("index daily fetch failed")
		} else {
			rows := make([]store.MarketIndexBar, 0, len(idx))
			for _, b := range idx {
				rows = append(rows, store.MarketIndexBar{
					IndexCode: b.IndexCode, TradeDate: b.TradeDate,
					Open: b.Open, Close: b.Close, High: b.High, Low: b.Low,
					Volume: b.Volume, Amount: b.Amount, ChangePct: b.ChangePct,
				})
			}
			if len(rows) > 0 {
				if err := j.store.MarketIndex.UpsertBatch(rows); err != nil {
					return err
				}
			}
		}
	}

	if err := j.metricsEngine.RecomputeDay(today); err != nil {
		return err
	}
	j.log.Info().Time("trade_date", today).Msg("derived metrics recomputed")
	return nil
}
