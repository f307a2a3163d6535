package workflow

import (
	"context"
	"errors"
	"sync"

	"autosite/internal/common/logger"
)

var (
	ErrQueueFull    = errors.New("task queue is full")
	ErrQueueStopped = errors.New("task queue is not accepting work")
)

// Job is one unit of background work.
type Job func(ctx context.Context)

// Queue is a bounded-concurrency task queue. Submit never blocks the
// request path; Wait makes completion observable for deterministic tests.
type Queue struct {
	jobs    chan Job
	workers int
	logger  logger.Logger

	baseCtx context.Context
	cancel  context.CancelFunc

	workerWG sync.WaitGroup
	jobWG    sync.WaitGroup

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewQueue(workers, size int, log logger.Logger) *Queue {
	if workers <= 0 {
		workers = 1
	}
	if size <= 0 {
		size = 16
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Queue{
		jobs:    make(chan Job, size),
		workers: workers,
		logger:  log.With(map[string]interface{}{"component": "queue"}),
		baseCtx: ctx,
		cancel:  cancel,
	}
}

// Start launches the worker goroutines.
func (q *Queue) Start() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.started {
		return
	}
	q.started = true

	for i := 0; i < q.workers; i++ {
		q.workerWG.Add(1)
		go func() {
			defer q.workerWG.Done()
			for job := range q.jobs {
				job(q.baseCtx)
				q.jobWG.Done()
			}
		}()
	}
	q.logger.Info("queue started", map[string]interface{}{"workers": q.workers, "size": cap(q.jobs)})
}

// Submit enqueues a job without blocking. Returns ErrQueueFull when the
// buffer is saturated and ErrQueueStopped after Stop. The mutex is held
// across the send, which cannot block, so Stop can never close the channel
// between the stopped check and the send.
func (q *Queue) Submit(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.stopped || !q.started {
		return ErrQueueStopped
	}

	q.jobWG.Add(1)
	select {
	case q.jobs <- job:
		return nil
	default:
		q.jobWG.Done()
		return ErrQueueFull
	}
}

// Wait blocks until all submitted jobs have completed.
func (q *Queue) Wait() {
	q.jobWG.Wait()
}

// Depth returns the number of queued-but-unstarted jobs.
func (q *Queue) Depth() int {
	return len(q.jobs)
}

// Running reports whether the queue accepts work.
func (q *Queue) Running() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.started && !q.stopped
}

// Stop closes intake and drains in-flight jobs until ctx expires, after
// which remaining work is abandoned (no persisted resume point).
func (q *Queue) Stop(ctx context.Context) error {
	q.mu.Lock()
	if !q.started || q.stopped {
		q.mu.Unlock()
		return nil
	}
	q.stopped = true
	// Closing under the mutex: any in-flight Submit holds the lock through
	// its send, so the channel is never closed underneath one.
	close(q.jobs)
	q.mu.Unlock()

	done := make(chan struct{})
	go func() {
		q.workerWG.Wait()
		close(done)
	}()

	select {
	case <-done:
		q.logger.Info("queue drained", nil)
		return nil
	case <-ctx.Done():
		q.cancel()
		q.logger.Warn("queue stop deadline exceeded, abandoning in-flight work", nil)
		return ctx.Err()
	}
}
