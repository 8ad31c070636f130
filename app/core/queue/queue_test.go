package queue

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for !cond() {
		select {
		case <-deadline:
			t.Fatal("condition not reached in time")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestQueueRunsJobs(t *testing.T) {
	q := New(8)
	if err := q.Start(context.Background(), 2); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop(time.Second)

	var ran atomic.Int64
	for i := 0; i < 5; i++ {
		if _, err := q.Enqueue(Job{Run: func(context.Context) error {
			ran.Add(1)
			return nil
		}}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}
	waitFor(t, func() bool { return ran.Load() == 5 })

	stats := q.Stats()
	if stats.Enqueued != 5 || stats.Completed != 5 || stats.Dropped != 0 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestQueueRetriesThenDrops(t *testing.T) {
	q := New(8)
	if err := q.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop(time.Second)

	var attempts atomic.Int64
	dropped := make(chan error, 1)
	_, err := q.Enqueue(Job{
		ID:         "mirror-1",
		MaxRetries: 2,
		Run: func(context.Context) error {
			attempts.Add(1)
			return errors.New("remote unavailable")
		},
		OnDrop: func(id string, err error) {
			if id != "mirror-1" {
				t.Errorf("drop id = %s", id)
			}
			dropped <- err
		},
	})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	select {
	case err := <-dropped:
		if err == nil {
			t.Fatal("drop callback got nil error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("job never dropped")
	}
	if got := attempts.Load(); got != 3 {
		t.Fatalf("attempts = %d, want 3", got)
	}
	if stats := q.Stats(); stats.Dropped != 1 || stats.Retried != 2 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestQueueRetrySucceedsSecondAttempt(t *testing.T) {
	q := New(8)
	if err := q.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop(time.Second)

	var attempts atomic.Int64
	if _, err := q.Enqueue(Job{
		MaxRetries: 3,
		Run: func(context.Context) error {
			if attempts.Add(1) == 1 {
				return errors.New("transient")
			}
			return nil
		},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	waitFor(t, func() bool { return q.Stats().Completed == 1 })
	if got := attempts.Load(); got != 2 {
		t.Fatalf("attempts = %d, want 2", got)
	}
}

func TestQueueRejectsWhenFull(t *testing.T) {
	q := New(1)
	// not started, so the buffered job stays queued
	if _, err := q.Enqueue(Job{Run: func(context.Context) error { return nil }}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if _, err := q.Enqueue(Job{Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrFull) {
		t.Fatalf("err = %v, want ErrFull", err)
	}
}

func TestQueueValidation(t *testing.T) {
	q := New(4)
	if _, err := q.Enqueue(Job{}); err == nil {
		t.Fatal("nil run accepted")
	}
	if _, err := q.Enqueue(Job{MaxRetries: -1, Run: func(context.Context) error { return nil }}); err == nil {
		t.Fatal("negative retries accepted")
	}
}

func TestQueueStopDrains(t *testing.T) {
	q := New(16)
	if err := q.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}

	var ran atomic.Int64
	for i := 0; i < 10; i++ {
		if _, err := q.Enqueue(Job{Run: func(context.Context) error {
			time.Sleep(2 * time.Millisecond)
			ran.Add(1)
			return nil
		}}); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	if err := q.Stop(5 * time.Second); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := ran.Load(); got != 10 {
		t.Fatalf("drained %d jobs, want 10", got)
	}
	if _, err := q.Enqueue(Job{Run: func(context.Context) error { return nil }}); !errors.Is(err, ErrStopped) {
		t.Fatalf("enqueue after stop: %v, want ErrStopped", err)
	}
}

func TestQueueDoubleStart(t *testing.T) {
	q := New(4)
	if err := q.Start(context.Background(), 1); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer q.Stop(time.Second)
	if err := q.Start(context.Background(), 1); !errors.Is(err, ErrStarted) {
		t.Fatalf("second start: %v, want ErrStarted", err)
	}
}
