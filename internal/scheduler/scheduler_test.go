package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type countingJob struct {
	name    string
	calls   int32
	block   chan struct{}
	failErr error
}

func (j *countingJob) Name() string { return j.name }
func (j *countingJob) Run() error {
	atomic.AddInt32(&j.calls, 1)
	if j.block != nil {
		<-j.block
	}
	return j.failErr
}

func TestScheduler_RunNowExecutesImmediately(t *testing.T) {
	s := New(nil, zerolog.Nop())
	job := &countingJob{name: "test"}
	s.RunNow(job)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
}

func TestScheduler_CoalescesOverlappingFirings(t *testing.T) {
	s := New(nil, zerolog.Nop())
	block := make(chan struct{})
	job := &countingJob{name: "slow", block: block}

	require := func(cond bool, msg string) {
		if !cond {
			t.Fatal(msg)
		}
	}
	// robfig/cron rounds "@every" delays below one second up to one second.
	require(s.AddJob("@every 1s", job) == nil, "AddJob failed")

	s.Start()
	defer s.Stop()

	// Let the first firing start and block inside Run, then give the
	// cron loop several more ticks; they must all be skipped since the
	// in-flight flag is still held.
	time.Sleep(1500 * time.Millisecond)
	time.Sleep(2 * time.Second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&job.calls))
	close(block)
}

func TestScheduler_RunJobLogsErrorWithoutPanicking(t *testing.T) {
	s := New(nil, zerolog.Nop())
	job := &countingJob{name: "failing", failErr: assertError("boom")}
	assert.NotPanics(t, func() { s.RunNow(job) })
}

type assertError string

func (e assertError) Error() string { return string(e) }
