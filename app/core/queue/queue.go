// Package queue runs fire-and-forget background jobs on a bounded buffer.
// The sync layer uses it to mirror local writes to the remote store without
// blocking the caller.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

var (
	ErrStarted = errors.New("queue: already started")
	ErrStopped = errors.New("queue: stopped")
	ErrFull    = errors.New("queue: buffer full")
)

// Job is one unit of background work. A job that keeps failing after
// MaxRetries attempts is dropped; OnDrop, when set, gets the final error.
type Job struct {
	ID             string
	MaxRetries     int
	RetryDelay     time.Duration
	AttemptTimeout time.Duration
	Run            func(context.Context) error
	OnDrop         func(id string, err error)
}

type queuedJob struct {
	job     Job
	attempt int
}

type Queue struct {
	mu       sync.Mutex
	jobs     chan queuedJob
	started  bool
	stopping bool
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	nextID    atomic.Uint64
	inFlight  atomic.Int64
	enqueued  atomic.Uint64
	completed atomic.Uint64
	dropped   atomic.Uint64
	retried   atomic.Uint64
}

// Stats is a point-in-time snapshot of queue counters.
type Stats struct {
	Started   bool   `json:"started"`
	Depth     int    `json:"depth"`
	Capacity  int    `json:"capacity"`
	Enqueued  uint64 `json:"enqueued"`
	Completed uint64 `json:"completed"`
	Dropped   uint64 `json:"dropped"`
	Retried   uint64 `json:"retried"`
}

func New(buffer int) *Queue {
	if buffer <= 0 {
		buffer = 64
	}
	return &Queue{jobs: make(chan queuedJob, buffer)}
}

// Enqueue submits a job without blocking. When the buffer is full the job is
// rejected with ErrFull; mirror traffic is best effort, so callers log and
// move on rather than wait.
func (q *Queue) Enqueue(job Job) (string, error) {
	if job.Run == nil {
		return "", errors.New("queue: job run callback is required")
	}
	if job.MaxRetries < 0 || job.RetryDelay < 0 || job.AttemptTimeout < 0 {
		return "", errors.New("queue: negative retry settings")
	}
	if job.ID == "" {
		job.ID = fmt.Sprintf("q-%d", q.nextID.Add(1))
	}

	q.mu.Lock()
	jobs := q.jobs
	stopping := q.stopping
	q.mu.Unlock()
	if stopping {
		return "", ErrStopped
	}

	select {
	case jobs <- queuedJob{job: job}:
		q.enqueued.Add(1)
		return job.ID, nil
	default:
		return "", ErrFull
	}
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	started := q.started
	q.mu.Unlock()

	return Stats{
		Started:   started,
		Depth:     len(q.jobs),
		Capacity:  cap(q.jobs),
		Enqueued:  q.enqueued.Load(),
		Completed: q.completed.Load(),
		Dropped:   q.dropped.Load(),
		Retried:   q.retried.Load(),
	}
}

func (q *Queue) Start(parent context.Context, workers int) error {
	if workers <= 0 {
		workers = 1
	}

	q.mu.Lock()
	if q.started {
		q.mu.Unlock()
		return ErrStarted
	}
	ctx, cancel := context.WithCancel(parent)
	q.cancel = cancel
	q.started = true
	q.stopping = false
	q.mu.Unlock()

	for i := 0; i < workers; i++ {
		q.wg.Add(1)
		go q.worker(ctx)
	}
	return nil
}

// Stop drains pending jobs, then cancels the workers. With a positive timeout
// the drain is abandoned once it elapses; queued jobs that never ran stay
// unmirrored, which the local store tolerates. A stopped queue rejects all
// further enqueues.
func (q *Queue) Stop(timeout time.Duration) error {
	q.mu.Lock()
	if !q.started {
		q.mu.Unlock()
		return nil
	}
	cancel := q.cancel
	q.cancel = nil
	q.started = false
	q.stopping = true
	q.mu.Unlock()

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	ticker := time.NewTicker(5 * time.Millisecond)
	defer ticker.Stop()
	for len(q.jobs) > 0 || q.inFlight.Load() > 0 {
		select {
		case <-deadline:
			cancel()
			return fmt.Errorf("queue: stop timeout after %s with %d pending", timeout, len(q.jobs))
		case <-ticker.C:
		}
	}

	cancel()
	q.wg.Wait()
	return nil
}

func (q *Queue) worker(ctx context.Context) {
	defer q.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case item := <-q.jobs:
			q.inFlight.Add(1)
			q.runOnce(ctx, item)
			q.inFlight.Add(-1)
		}
	}
}

func (q *Queue) runOnce(parent context.Context, item queuedJob) {
	attempt := item.attempt + 1
	runCtx := parent
	cancel := func() {}
	if item.job.AttemptTimeout > 0 {
		runCtx, cancel = context.WithTimeout(parent, item.job.AttemptTimeout)
	}
	err := item.job.Run(runCtx)
	cancel()
	if err == nil {
		q.completed.Add(1)
		return
	}
	if parent.Err() != nil {
		return
	}

	if attempt > item.job.MaxRetries {
		q.dropped.Add(1)
		if item.job.OnDrop != nil {
			item.job.OnDrop(item.job.ID, err)
		}
		return
	}

	q.retried.Add(1)
	if item.job.RetryDelay > 0 {
		timer := time.NewTimer(item.job.RetryDelay)
		defer timer.Stop()
		select {
		case <-parent.Done():
			return
		case <-timer.C:
		}
	}
	select {
	case <-parent.Done():
	case q.jobs <- queuedJob{job: item.job, attempt: attempt}:
	}
}
