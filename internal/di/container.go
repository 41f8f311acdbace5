// Package di wires every component into one process: the three SQLite
// databases, vendor adapters, the feature store, the derived-metric
// engine, the alpha pipeline, the scheduler and its six jobs, the
// next-day predictor, the recommendation ledger, and the health gate.
// Grounded on the teacher's DI-container entry point, rebuilt from
// portfolio-management services to this module's market-data services.
package di

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/marketpulse/alpha-backend/internal/alpha"
	"github.com/marketpulse/alpha-backend/internal/archive"
	"github.com/marketpulse/alpha-backend/internal/calendar"
	"github.com/marketpulse/alpha-backend/internal/config"
	"github.com/marketpulse/alpha-backend/internal/database"
	"github.com/marketpulse/alpha-backend/internal/diskcache"
	"github.com/marketpulse/alpha-backend/internal/health"
	"github.com/marketpulse/alpha-backend/internal/metrics"
	"github.com/marketpulse/alpha-backend/internal/predictor"
	"github.com/marketpulse/alpha-backend/internal/recommend"
	"github.com/marketpulse/alpha-backend/internal/scheduler"
	"github.com/marketpulse/alpha-backend/internal/store"
	"github.com/marketpulse/alpha-backend/internal/vendor"
	"github.com/rs/zerolog"
)

// Container holds every wired component. Fields are exported so
// cmd/server and cmd/ingestctl can reach into it directly rather than
// this package growing pass-through accessor methods for each one.
type Container struct {
	Config *config.Config
	Log    zerolog.Logger

	FeaturesDB        *database.DB
	RecommendationsDB *database.DB
	CacheDB           *database.DB

	Store    *store.Store
	Calendar *calendar.Calendar

	Metrics   *metrics.Engine
	Pipeline  *alpha.Pipeline
	Predictor *predictor.Engine
	Recommend *recommend.Repository
	Verifier  *recommend.Verifier

	Health    *health.Gate
	Scheduler *scheduler.Scheduler
	Archiver  *archive.Archiver // nil when ArchiveBucket isn't configured
}

// Build opens the three databases, migrates them, and wires every
// component above. The caller owns Close.
func Build(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Container, error) {
	featuresDB, err := openAndMigrate(cfg.DataDir, "features", database.ProfileStandard)
	if err != nil {
		return nil, err
	}
	recommendationsDB, err := openAndMigrate(cfg.DataDir, "recommendations", database.ProfileLedger)
	if err != nil {
		return nil, err
	}
	cacheDB, err := openAndMigrate(cfg.DataDir, "cache", database.ProfileCache)
	if err != nil {
		return nil, err
	}

	s := store.New(featuresDB.Conn(), cacheDB.Conn(), log)

	calSource := vendor.NewHTTPCalendarSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	cal := calendar.New(calSource, log)
	cal.Refresh(ctx)

	metricsEngine := metrics.New(s, log)
	pipeline := alpha.New(s, log)

	diskDir := filepath.Join(cfg.PredictorCacheDir)
	disk, err := diskcache.New(diskDir, log)
	if err != nil {
		return nil, fmt.Errorf("build predictor disk cache: %w", err)
	}
	boardMap := predictor.NewBoardMap(s.Concepts, disk, log)
	predictorCache := predictor.NewCacheRepository(cacheDB.Conn(), log)
	predictorEngine := predictor.New(predictor.EngineConfig{
		Log: log, Calendar: cal, Store: s, Cache: predictorCache, Boards: boardMap,
		Sources: cfg.HotRankSources,
	})

	recommendRepo := recommend.New(recommendationsDB.Conn(), log)
	verifier := recommend.NewVerifier(recommendRepo, s.DailyBars, cal, log)

	healthGate := health.New(cfg.HealthShedRSSMB, log)

	pool := scheduler.NewWorkerPool(cfg.WorkerPoolSize)
	sched := scheduler.New(pool, log)

	var archiver *archive.Archiver
	if cfg.ArchiveBucket != "" {
		archiver, err = archive.New(ctx, cfg.ArchiveBucket, cfg.ArchiveRegion, s, log)
		if err != nil {
			return nil, fmt.Errorf("build archiver: %w", err)
		}
	}

	if cfg.SchedulerEnabled {
		if err := registerJobs(sched, cfg, log, cal, s, metricsEngine, archiver, featuresDB, recommendationsDB, cacheDB); err != nil {
			return nil, fmt.Errorf("register scheduled jobs: %w", err)
		}
	}

	return &Container{
		Config: cfg, Log: log,
		FeaturesDB: featuresDB, RecommendationsDB: recommendationsDB, CacheDB: cacheDB,
		Store: s, Calendar: cal,
		Metrics: metricsEngine, Pipeline: pipeline, Predictor: predictorEngine,
		Recommend: recommendRepo, Verifier: verifier,
		Health: healthGate, Scheduler: sched, Archiver: archiver,
	}, nil
}

// registerJobs wires five of C6's six jobs against live vendor adapters
// and registers them on the scheduler (daily_close and retention as
// offloaded jobs); catch_up runs once via RunNow from cmd/server at
// startup rather than on a cron schedule.
func registerJobs(
	sched *scheduler.Scheduler,
	cfg *config.Config,
	log zerolog.Logger,
	cal *calendar.Calendar,
	s *store.Store,
	metricsEngine *metrics.Engine,
	archiver *archive.Archiver,
	featuresDB, recommendationsDB, cacheDB *database.DB,
) error {
	intraday := vendor.NewHTTPIntradaySource(cfg.VendorBaseURL, cfg.VendorIntradayWSURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	moneyFlow := vendor.NewHTTPMoneyFlowSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	dailyBars := vendor.NewHTTPDailyBarSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	indexDaily := vendor.NewHTTPIndexDailySource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	hotRank := vendor.NewHTTPHotRankSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	concepts := vendor.NewHTTPConceptSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log)
	sectorFlow := vendor.NewHTTPSectorFlowSource(cfg.VendorBaseURL, cfg.VendorRateLimitRPS, cfg.VendorTimeout, log, moneyFlow,
		func(sectorName string) []string {
			tickers, err := s.Concepts.MembershipsByConceptName(sectorName)
			if err != nil {
				return nil
			}
			return tickers
		})

	if err := sched.AddJob("0 * * * * *", scheduler.NewRealtimeJob(scheduler.RealtimeJobConfig{
		Log: log, Calendar: cal, Store: s, Intraday: intraday, Flow: moneyFlow,
	})); err != nil {
		return err
	}

	if err := sched.AddOffloadedJob("0 0 15 * * *", scheduler.NewDailyCloseJob(scheduler.DailyCloseJobConfig{
		Log: log, Calendar: cal, Store: s, Metrics: metricsEngine,
		DailyBars: dailyBars, SectorFlows: sectorFlow, IndexDaily: indexDaily,
		RSRSIndexCode: cfg.RSRSIndexCode,
	})); err != nil {
		return err
	}

	if err := sched.AddJob("0 */10 * * * *", scheduler.NewHotRankJob(scheduler.HotRankJobConfig{
		Log: log, Calendar: cal, Store: s, Source: hotRank, Sources: cfg.HotRankSources,
	})); err != nil {
		return err
	}

	if err := sched.AddJob("0 0 8 * * *", scheduler.NewConceptMetaJob(scheduler.ConceptMetaJobConfig{
		Log: log, Store: s, Concept: concepts,
	})); err != nil {
		return err
	}

	var archiverIface scheduler.Archiver
	if archiver != nil {
		archiverIface = archiver
	}
	if err := sched.AddOffloadedJob("0 30 0 * * *", scheduler.NewRetentionJob(scheduler.RetentionJobConfig{
		Log: log, Store: s, Archive: archiverIface,
		RetentionDailyBarDays: cfg.RetentionDailyBarDays, RetentionMoneyFlowDays: cfg.RetentionMoneyFlowDays,
		RetentionSectorFlowDays: cfg.RetentionSectorFlowDays, RetentionHotRankDays: cfg.RetentionHotRankDays,
		Maintenance: func() error {
			return archive.RunMaintenance([]*database.DB{featuresDB, recommendationsDB, cacheDB}, log)
		},
	})); err != nil {
		return err
	}

	return nil
}

// RunCatchUp runs the catch_up job immediately, bypassing the cron
// schedule entirely, per §4.6's "run via Scheduler.RunNow at process
// start — not cron-registered" contract.
func (c *Container) RunCatchUp(dailyBars vendor.DailyBarSource) {
	job := scheduler.NewCatchUpJob(scheduler.CatchUpJobConfig{
		Log: c.Log, Calendar: c.Calendar, Store: c.Store, DailyBars: dailyBars,
		WindowDays: c.Config.CatchUpWindowDays, MinQuorum: c.Config.CatchUpMinQuorum,
	})
	c.Scheduler.RunNow(job)
}

// Close releases every open database handle.
func (c *Container) Close() error {
	var firstErr error
	for _, db := range []*database.DB{c.FeaturesDB, c.RecommendationsDB, c.CacheDB} {
		if db == nil {
			continue
		}
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func openAndMigrate(dataDir, name string, profile database.DatabaseProfile) (*database.DB, error) {
	db, err := database.New(database.Config{
		Path:    filepath.Join(dataDir, name+".db"),
		Profile: profile,
		Name:    name,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", name, err)
	}
	if err := db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s database: %w", name, err)
	}
	return db, nil
}
