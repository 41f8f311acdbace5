// Package scheduler is the ingestion scheduler (C6): a single
// robfig/cron/v3 goroutine fires named jobs, each guarded against
// overlapping runs by an atomic in-flight flag (coalescing — an overrun
// firing is skipped, not queued) and optionally offloaded onto a bounded
// worker pool for long-running backfill work. Grounded on the teacher's
// internal/scheduler/scheduler.go wrapper, generalized from portfolio
// jobs to ingestion/derived-metric jobs.
package scheduler

import (
	"sync/atomic"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one named, schedulable unit of work.
type Job interface {
	Name() string
	Run() error
}

// Scheduler wraps cron.Cron with coalescing and worker-pool offload.
type Scheduler struct {
	cron *cron.Cron
	pool *WorkerPool
	log  zerolog.Logger

	inFlight map[string]*int32
}

// New builds a Scheduler. pool may be nil if no job is registered with
// AddOffloadedJob.
func New(pool *WorkerPool, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithSeconds()),
		pool:     pool,
		log:      log.With().Str("component", "scheduler").Logger(),
		inFlight: make(map[string]*int32),
	}
}

// Start starts the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Msg("scheduler started")
}

// Stop stops the cron loop and waits for it to drain.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info().Msg("scheduler stopped")
}

// AddJob registers job on schedule, coalescing: if the previous firing
// is still running when the next one fires, the new firing is skipped
// rather than queued.
func (s *Scheduler) AddJob(schedule string, job Job) error {
	flag := new(int32)
	s.inFlight[job.Name()] = flag

	_, err := s.cron.AddFunc(schedule, func() {
		if !atomic.CompareAndSwapInt32(flag, 0, 1) {
			s.log.Warn().Str("job", job.Name()).Msg("previous firing still in flight, skipping")
			return
		}
		defer atomic.StoreInt32(flag, 0)
		s.runJob(job)
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("job", job.Name()).Str("schedule", schedule).Msg("job registered")
	return nil
}

// AddOffloadedJob registers job on schedule but runs it on the worker
// pool instead of the cron goroutine, for long historical-backfill work
// that must not block other firings.
func (s *Scheduler) AddOffloadedJob(schedule string, job Job) error {
	flag := new(int32)
	s.inFlight[job.Name()] = flag

	_, err := s.cron.AddFunc(schedule, func() {
		if !atomic.CompareAndSwapInt32(flag, 0, 1) {
			s.log.Warn().Str("job", job.Name()).Msg("previous firing still in flight, skipping")
			return
		}
		submitted := s.pool.Submit(func() {
			defer atomic.StoreInt32(flag, 0)
			s.runJob(job)
		})
		if !submitted {
			atomic.StoreInt32(flag, 0)
			s.log.Warn().Str("job", job.Name()).Msg("worker pool saturated, dropping this firing")
		}
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("job", job.Name()).Str("schedule", schedule).Msg("offloaded job registered")
	return nil
}

// RunNow executes job immediately, bypassing its schedule and the
// in-flight guard, used by the catch_up job at process start.
func (s *Scheduler) RunNow(job Job) {
	s.runJob(job)
}

func (s *Scheduler) runJob(job Job) {
	s.log.Debug().Str("job", job.Name()).Msg("running")
	if err := job.Run(); err != nil {
		s.log.Error().Err(err).Str("job", job.Name()).Msg("job failed")
		return
	}
	s.log.Debug().Str("job", job.Name()).Msg("completed")
}
