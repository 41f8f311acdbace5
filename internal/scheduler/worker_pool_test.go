package scheduler

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkerPool_RunsSubmittedTasks(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	var done int32
	for i := 0; i < 5; i++ {
		assert.True(t, pool.Submit(func() { atomic.AddInt32(&done, 1) }))
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&done) == 5 }, time.Second, 5*time.Millisecond)
}

func TestWorkerPool_SubmitReportsSaturation(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	block := make(chan struct{})
	// Fill the single worker and its queue (capacity size*4 = 4).
	pool.Submit(func() { <-block })
	for i := 0; i < 4; i++ {
		pool.Submit(func() {})
	}

	ok := pool.Submit(func() {})
	assert.False(t, ok)
	close(block)
}
