// Package sync owns the authoritative in-memory progress state. Every
// mutation happens under a per-mission lock, writes through to the local
// sqlite cache, then mirrors to the remote store from a background queue.
// Local state is the source of truth; the mirror is best effort.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	stdsync "sync"
	"time"

	"missiontrack/app/core/mission"
	"missiontrack/app/core/progress"
	"missiontrack/app/core/queue"
	"missiontrack/app/pkg/logger"
)

type stateKey struct {
	userID    string
	missionID int
}

type missionState struct {
	mu stdsync.Mutex
	p  progress.Progress
}

// Tracker serializes all progress mutations per (user, mission). Reads hand
// out clones so callers can never alias the authoritative copy.
type Tracker struct {
	store  *progress.Store
	remote RemoteStore
	jobs   *queue.Queue

	mirrorTimeout time.Duration

	mu    stdsync.Mutex
	state map[stateKey]*missionState
}

func NewTracker(store *progress.Store, remote RemoteStore, jobs *queue.Queue, mirrorTimeout time.Duration) *Tracker {
	if remote == nil {
		remote = Disabled{}
	}
	if mirrorTimeout <= 0 {
		mirrorTimeout = 10 * time.Second
	}
	return &Tracker{
		store:         store,
		remote:        remote,
		jobs:          jobs,
		mirrorTimeout: mirrorTimeout,
		state:         map[stateKey]*missionState{},
	}
}

// get returns the lock holder for one (user, mission), hydrating it from the
// local cache or seeding from the catalog on first touch.
func (t *Tracker) get(ctx context.Context, userID string, missionID int) (*missionState, error) {
	m, ok := mission.Get(missionID)
	if !ok {
		return nil, fmt.Errorf("unknown mission %d", missionID)
	}

	key := stateKey{userID: userID, missionID: missionID}
	t.mu.Lock()
	ms, ok := t.state[key]
	if !ok {
		ms = &missionState{}
		t.state[key] = ms
	}
	t.mu.Unlock()

	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.p.MissionID != 0 {
		return ms, nil
	}

	cached, err := t.store.GetProgress(ctx, userID, missionID)
	switch {
	case err == nil:
		ms.p = cached
	case errors.Is(err, sql.ErrNoRows):
		ms.p = progress.Seed(m)
	default:
		return nil, err
	}
	return ms, nil
}

// mutate runs fn against the current record under the mission lock. When fn
// reports a change, the new record is written to the local cache and queued
// for the remote mirror before the lock is released.
func (t *Tracker) mutate(ctx context.Context, userID string, missionID int, fn func(p *progress.Progress) bool) (progress.Progress, error) {
	ms, err := t.get(ctx, userID, missionID)
	if err != nil {
		return progress.Progress{}, err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if !fn(&ms.p) {
		return ms.p.Clone(), nil
	}

	snapshot := ms.p.Clone()
	if err := t.store.UpsertProgress(ctx, userID, snapshot); err != nil {
		// in-memory state stays authoritative even when the cache write fails
		logger.Error("local cache write failed for user=%s mission=%d: %v", userID, missionID, err)
	}
	t.enqueueMirror(userID, snapshot)
	return snapshot, nil
}

func (t *Tracker) enqueueMirror(userID string, p progress.Progress) {
	if t.jobs == nil {
		return
	}
	_, err := t.jobs.Enqueue(queue.Job{
		ID:             fmt.Sprintf("progress-%s-%d-%d", userID, p.MissionID, time.Now().UnixNano()),
		MaxRetries:     2,
		RetryDelay:     time.Second,
		AttemptTimeout: t.mirrorTimeout,
		Run: func(ctx context.Context) error {
			return t.remote.UpsertProgress(ctx, userID, p)
		},
		OnDrop: func(id string, err error) {
			logger.Error("remote mirror dropped job=%s: %v", id, err)
		},
	})
	if err != nil {
		logger.Error("remote mirror enqueue failed for user=%s mission=%d: %v", userID, p.MissionID, err)
	}
}

// Snapshot returns a clone of the current record for one mission.
func (t *Tracker) Snapshot(ctx context.Context, userID string, missionID int) (progress.Progress, error) {
	ms, err := t.get(ctx, userID, missionID)
	if err != nil {
		return progress.Progress{}, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.p.Clone(), nil
}

// All returns clones for every catalog mission, seeding any the user has not
// touched yet.
func (t *Tracker) All(ctx context.Context, userID string) (map[int]progress.Progress, error) {
	out := make(map[int]progress.Progress, len(mission.All()))
	for _, m := range mission.All() {
		p, err := t.Snapshot(ctx, userID, m.ID)
		if err != nil {
			return nil, err
		}
		out[m.ID] = p
	}
	return out, nil
}

// AppendLog records a free-text update against a mission.
func (t *Tracker) AppendLog(ctx context.Context, userID string, missionID int, text string) (progress.LogEntry, error) {
	var entry progress.LogEntry
	_, err := t.mutate(ctx, userID, missionID, func(p *progress.Progress) bool {
		entry = p.AppendLog(text, time.Now())
		return true
	})
	return entry, err
}

// CompleteTask resolves a reported task against the mission's open goals and
// marks the match completed. An already-completed match or no match at all is
// a quiet no-op; completion claims never create goals.
func (t *Tracker) CompleteTask(ctx context.Context, userID string, missionID int, task string) (progress.Goal, bool, error) {
	var (
		matched progress.Goal
		changed bool
	)
	_, err := t.mutate(ctx, userID, missionID, func(p *progress.Progress) bool {
		g, ok := progress.MatchGoal(p.Goals, task)
		if !ok {
			logger.Info("no goal matched task %q for mission %d", task, missionID)
			return false
		}
		matched = g
		changed = p.MarkComplete(g.ID, time.Now())
		if changed {
			matched.Completed = true
		}
		return changed
	})
	if err != nil {
		return progress.Goal{}, false, err
	}
	return matched, changed, nil
}

// AddGoal appends a new goal unless an existing goal already covers the same
// text, in which case that goal is returned and added is false.
func (t *Tracker) AddGoal(ctx context.Context, userID string, missionID int, text string) (progress.Goal, bool, error) {
	var (
		goal  progress.Goal
		added bool
	)
	_, err := t.mutate(ctx, userID, missionID, func(p *progress.Progress) bool {
		goal, added = p.AddGoal(text, time.Now())
		return added
	})
	if err != nil {
		return progress.Goal{}, false, err
	}
	return goal, added, nil
}

// CompleteGoal marks one goal completed by id. Already-completed goals are a
// quiet no-op, matching the task-completion path.
func (t *Tracker) CompleteGoal(ctx context.Context, userID string, missionID int, goalID string) (bool, error) {
	var changed bool
	_, err := t.mutate(ctx, userID, missionID, func(p *progress.Progress) bool {
		changed = p.MarkComplete(goalID, time.Now())
		return changed
	})
	return changed, err
}

// ToggleGoal flips one goal's completion flag by id.
func (t *Tracker) ToggleGoal(ctx context.Context, userID string, missionID int, goalID string) (progress.Progress, error) {
	var found bool
	p, err := t.mutate(ctx, userID, missionID, func(p *progress.Progress) bool {
		found = p.Toggle(goalID, time.Now())
		return found
	})
	if err != nil {
		return progress.Progress{}, err
	}
	if !found {
		return progress.Progress{}, fmt.Errorf("mission %d has no goal %s", missionID, goalID)
	}
	return p, nil
}

// RemoveGoal deletes one goal by id.
func (t *Tracker) RemoveGoal(ctx context.Context, userID string, missionID int, goalID string) (progress.Progress, error) {
	var found bool
	p, err := t.mutate(ctx, userID, missionID, func(p *progress.Progress) bool {
		found = p.RemoveGoal(goalID, time.Now())
		return found
	})
	if err != nil {
		return progress.Progress{}, err
	}
	if !found {
		return progress.Progress{}, fmt.Errorf("mission %d has no goal %s", missionID, goalID)
	}
	return p, nil
}

// AppendChat persists one chat turn locally and mirrors it remotely.
func (t *Tracker) AppendChat(ctx context.Context, userID, role, content string) (progress.ChatMessage, error) {
	msg, err := t.store.AppendChat(ctx, userID, role, content)
	if err != nil {
		return progress.ChatMessage{}, err
	}
	if t.jobs != nil {
		_, err := t.jobs.Enqueue(queue.Job{
			ID:             fmt.Sprintf("chat-%s", msg.ID),
			MaxRetries:     2,
			RetryDelay:     time.Second,
			AttemptTimeout: t.mirrorTimeout,
			Run: func(ctx context.Context) error {
				return t.remote.AppendChat(ctx, msg)
			},
			OnDrop: func(id string, err error) {
				logger.Error("remote chat mirror dropped job=%s: %v", id, err)
			},
		})
		if err != nil {
			logger.Error("remote chat mirror enqueue failed for user=%s: %v", userID, err)
		}
	}
	return msg, nil
}

// ChatHistory returns the most recent limit turns in chronological order.
func (t *Tracker) ChatHistory(ctx context.Context, userID string, limit int) ([]progress.ChatMessage, error) {
	return t.store.ChatHistory(ctx, userID, limit)
}
