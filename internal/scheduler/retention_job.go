package scheduler

import (
	"time"

	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/rs/zerolog"
)

// RetentionJobConfig holds the dependencies for RetentionJob.
type RetentionJobConfig struct {
	Log                     zerolog.Logger
	Store                   *store.Store
	RetentionDailyBarDays   int
	RetentionMoneyFlowDays  int
	RetentionSectorFlowDays int
	RetentionHotRankDays    int
	// Archive is consulted before each delete so rows can be shipped to
	// cold storage first; a nil Archive means "delete with no archival".
	Archive Archiver
	// Maintenance runs after the deletes commit (WAL checkpoint + VACUUM);
	// nil skips the maintenance pass.
	Maintenance func() error
}

// Archiver is the pre-delete retention hook; internal/archive.Archiver
// satisfies it directly.
type Archiver interface {
	ArchiveDailyBarsBefore(cutoff time.Time) error
	ArchiveMoneyFlowsBefore(cutoff time.Time) error
	ArchiveSectorFlowsBefore(cutoff time.Time) error
}

// RetentionJob runs once daily at 00:30: it deletes rows past each
// table's retention horizon, archiving them first when an Archiver is
// configured.
type RetentionJob struct {
	log      zerolog.Logger
	store    *store.Store
	nDailyBar, nMoneyFlow, nSectorFlow, nHotRank int
	archive     Archiver
	maintenance func() error
}

// NewRetentionJob builds a RetentionJob.
func NewRetentionJob(cfg RetentionJobConfig) *RetentionJob {
	return &RetentionJob{
		log:         cfg.Log.With().Str("job", "retention").Logger(),
		store:       cfg.Store,
		nDailyBar:   cfg.RetentionDailyBarDays,
		nMoneyFlow:  cfg.RetentionMoneyFlowDays,
		nSectorFlow: cfg.RetentionSectorFlowDays,
		nHotRank:    cfg.RetentionHotRankDays,
		archive:     cfg.Archive,
		maintenance: cfg.Maintenance,
	}
}

// Name identifies this job to the scheduler.
func (j *RetentionJob) Name() string { return "retention" }

// Run deletes rows past their table's retention horizon.
func (j *RetentionJob) Run() error {
	today := time.Now()

	if j.archive != nil {
		if err := j.archive.ArchiveDailyBarsBefore(today.AddDate(0, 0, -j.nDailyBar)); err != nil {
			j.log.Warn().Err(err).Msg("daily bar archival failed, proceeding with delete anyway")
		}
		if err := j.archive.ArchiveMoneyFlowsBefore(today.AddDate(0, 0, -j.nMoneyFlow)); err != nil {
			j.log.Warn().Err(err).Msg("money flow archival failed, proceeding with delete anyway")
		}
		if err := j.archive.ArchiveSectorFlowsBefore(today.AddDate(0, 0, -j.nSectorFlow)); err != nil {
			j.log.Warn().Err(err).Msg("sector flow archival failed, proceeding with delete anyway")
		}
	}

	n, err := j.store.DailyBars.CleanupOldData(today, j.nDailyBar)
	if err != nil {
		return err
	}
	j.log.Info().Int64("rows", n).Str("table", "daily_bars").Msg("retention cleanup")

	n, err = j.store.MoneyFlows.CleanupOldData(today, j.nMoneyFlow)
	if err != nil {
		return err
	}
	j.log.Info().Int64("rows", n).Str("table", "money_flows").Msg("retention cleanup")

	n, err = j.store.SectorFlows.CleanupOldData(today, j.nSectorFlow)
	if err != nil {
		return err
	}
	j.log.Info().Int64("rows", n).Str("table", "sector_flows").Msg("retention cleanup")

	n, err = j.store.HotRank.CleanupOldData(today, j.nHotRank)
	if err != nil {
		return err
	}
	j.log.Info().Int64("rows", n).Str("table", "hot_rank_entries").Msg("retention cleanup")

	if j.maintenance != nil {
		if err := j.maintenance(); err != nil {
			return err
		}
	}

	return nil
}
