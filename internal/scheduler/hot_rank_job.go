package scheduler

import (
	"context"
	"time"

	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	"github.com/rs/zerolog"
)

// HotRankJobConfig holds the dependencies for HotRankJob.
type HotRankJobConfig struct {
	Log      zerolog.Logger
	Calendar *calendar.Calendar
	Store    *store.Store
	Source   vendor.HotRankSource
	Sources  []string // e.g. {"xueqiu", "dongcai"}
}

// HotRankJob runs every 10 minutes during trading hours: for each
// configured source tag it fetches the current snapshot and atomically
// replaces today's rows for that source, per ReplaceForSourceAndDate's
// delete-then-insert contract.
type HotRankJob struct {
	log     zerolog.Logger
	cal     *calendar.Calendar
	store   *store.Store
	source  vendor.HotRankSource
	sources []string
}

// NewHotRankJob builds a HotRankJob.
func NewHotRankJob(cfg HotRankJobConfig) *HotRankJob {
	return &HotRankJob{
		log:     cfg.Log.With().Str("job", "hot_rank").Logger(),
		cal:     cfg.Calendar,
		store:   cfg.Store,
		source:  cfg.Source,
		sources: cfg.Sources,
	}
}

// Name identifies this job to the scheduler.
func (j *HotRankJob) Name() string { return "hot_rank" }

// Run fetches and replaces today's hot-rank rows per source.
func (j *HotRankJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()
	if !j.cal.IsTradingHours(ctx, now) {
		j.log.Debug().Msg("outside trading hours, skipping")
		return nil
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, src := range j.sources {
		entries, err := j.source.HotRank(ctx, src)
		if err != nil {
			j.log.Warn().Err(err).Str("source", src).Msg("hot rank fetch failed")
			continue
		}
		rows := make([]store.HotRankEntry, 0, len(entries))
		for _, e := range entries {
			rows = append(rows, store.HotRankEntry{
				TickerCode: e.TickerCode, Source: e.Source, TradeDate: today,
				Rank: e.Rank, HotScore: e.HotScore, Volume: e.Volume,
			})
		}
		if err := j.store.HotRank.ReplaceForSourceAndDate(src, today, rows); err != nil {
			return err
		}
		j.log.Debug().Str("source", src).Int("rows", len(rows)).Msg("hot rank replaced")
	}
	return nil
}
