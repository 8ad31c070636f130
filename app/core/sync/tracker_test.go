package sync

import (
	"context"
	stdsync "sync"
	"testing"
	"time"

	"missiontrack/app/core/db"
	"missiontrack/app/core/progress"
	"missiontrack/app/core/queue"
)

type recordingRemote struct {
	mu       stdsync.Mutex
	upserts  []progress.Progress
	chats    []progress.ChatMessage
	failWith error
}

func (r *recordingRemote) UpsertProgress(_ context.Context, _ string, p progress.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.upserts = append(r.upserts, p)
	return nil
}

func (r *recordingRemote) AppendChat(_ context.Context, msg progress.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	r.chats = append(r.chats, msg)
	return nil
}

func (r *recordingRemote) Name() string { return "recording" }

func (r *recordingRemote) upsertCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.upserts)
}

func (r *recordingRemote) lastUpsert() progress.Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.upserts[len(r.upserts)-1]
}

func newTestTracker(t *testing.T, remote RemoteStore) (*Tracker, *progress.Store) {
	t.Helper()
	database, err := db.NewSQLiteDB(t.TempDir())
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store := progress.NewStore(database)
	jobs := queue.New(64)
	if err := jobs.Start(context.Background(), 1); err != nil {
		t.Fatalf("start queue: %v", err)
	}
	t.Cleanup(func() { jobs.Stop(2 * time.Second) })

	return NewTracker(store, remote, jobs, time.Second), store
}

func waitForTracker(t *testing.T, cond func() bool) {
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

func TestTrackerSeedsUnknownUser(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, &recordingRemote{})

	p, err := tracker.Snapshot(ctx, "fresh", 1)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if p.Status != progress.StatusNotStarted || len(p.Goals) != 4 {
		t.Fatalf("seed wrong: %+v", p)
	}

	all, err := tracker.All(ctx, "fresh")
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 10 {
		t.Fatalf("catalog size = %d", len(all))
	}

	if _, err := tracker.Snapshot(ctx, "fresh", 11); err == nil {
		t.Fatal("unknown mission accepted")
	}
}

func TestTrackerCompleteTaskWritesThroughAndMirrors(t *testing.T) {
	ctx := context.Background()
	remote := &recordingRemote{}
	tracker, store := newTestTracker(t, remote)

	goal, changed, err := tracker.CompleteTask(ctx, "u1", 1, "the NLP part")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if !changed {
		t.Fatal("no goal completed")
	}
	if goal.Text != "Implement natural language processing for updates" {
		t.Fatalf("matched %q", goal.Text)
	}

	// local cache sees the write synchronously
	cached, err := store.GetProgress(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("cache read: %v", err)
	}
	if cached.Status != progress.StatusInProgress {
		t.Fatalf("cached status = %s", cached.Status)
	}

	waitForTracker(t, func() bool { return remote.upsertCount() == 1 })
	if got := remote.lastUpsert().Status; got != progress.StatusInProgress {
		t.Fatalf("mirrored status = %s", got)
	}
}

func TestTrackerCompleteTaskIsIdempotent(t *testing.T) {
	ctx := context.Background()
	remote := &recordingRemote{}
	tracker, _ := newTestTracker(t, remote)

	if _, changed, err := tracker.CompleteTask(ctx, "u1", 1, "the NLP part"); err != nil || !changed {
		t.Fatalf("first completion: changed=%v err=%v", changed, err)
	}
	// second report of the same work: the goal is completed, so the matcher
	// skips it and nothing else may change state
	if _, changed, err := tracker.CompleteTask(ctx, "u1", 1, "the NLP part"); err != nil {
		t.Fatalf("second completion: %v", err)
	} else if changed {
		t.Fatal("second completion mutated state")
	}

	p, err := tracker.Snapshot(ctx, "u1", 1)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	done := 0
	for _, g := range p.Goals {
		if g.Completed {
			done++
		}
	}
	if done != 1 {
		t.Fatalf("completed goals = %d, want 1", done)
	}

	waitForTracker(t, func() bool { return remote.upsertCount() == 1 })
}

func TestTrackerUnmatchedTaskIsSkipped(t *testing.T) {
	ctx := context.Background()
	remote := &recordingRemote{}
	tracker, _ := newTestTracker(t, remote)

	_, changed, err := tracker.CompleteTask(ctx, "u1", 1, "flew a kite all afternoon")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if changed {
		t.Fatal("unmatched task mutated state")
	}

	p, _ := tracker.Snapshot(ctx, "u1", 1)
	if len(p.Goals) != 4 {
		t.Fatal("unmatched completion must never create a goal")
	}
}

func TestTrackerAddGoalDuplicate(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, &recordingRemote{})

	goal, added, err := tracker.AddGoal(ctx, "u1", 1, "Ship the companion app")
	if err != nil || !added {
		t.Fatalf("add: added=%v err=%v", added, err)
	}
	again, added, err := tracker.AddGoal(ctx, "u1", 1, "companion app")
	if err != nil {
		t.Fatalf("duplicate add: %v", err)
	}
	if added {
		t.Fatal("duplicate created a goal")
	}
	if again.ID != goal.ID {
		t.Fatalf("duplicate returned %s, want %s", again.ID, goal.ID)
	}
}

func TestTrackerRemoteFailureKeepsLocalState(t *testing.T) {
	ctx := context.Background()
	remote := &recordingRemote{failWith: context.DeadlineExceeded}
	tracker, store := newTestTracker(t, remote)

	if _, err := tracker.AppendLog(ctx, "u1", 2, "started model comparisons"); err != nil {
		t.Fatalf("append log: %v", err)
	}

	p, err := tracker.Snapshot(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if len(p.Logs) != 1 {
		t.Fatalf("log count = %d", len(p.Logs))
	}
	cached, err := store.GetProgress(ctx, "u1", 2)
	if err != nil {
		t.Fatalf("cache read: %v", err)
	}
	if len(cached.Logs) != 1 {
		t.Fatal("cache missed the write")
	}
}

func TestTrackerToggleAndRemove(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(t, &recordingRemote{})

	seed, _ := tracker.Snapshot(ctx, "u1", 1)
	p, err := tracker.ToggleGoal(ctx, "u1", 1, seed.Goals[0].ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if p.Status != progress.StatusInProgress {
		t.Fatalf("status = %s", p.Status)
	}

	p, err = tracker.RemoveGoal(ctx, "u1", 1, seed.Goals[0].ID)
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(p.Goals) != 3 || p.Status != progress.StatusNotStarted {
		t.Fatalf("after remove: goals=%d status=%s", len(p.Goals), p.Status)
	}

	if _, err := tracker.ToggleGoal(ctx, "u1", 1, "nope"); err == nil {
		t.Fatal("toggle of unknown goal accepted")
	}
}

func TestTrackerChatRoundTrip(t *testing.T) {
	ctx := context.Background()
	remote := &recordingRemote{}
	tracker, _ := newTestTracker(t, remote)

	if _, err := tracker.AppendChat(ctx, "u1", "user", "hello"); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := tracker.AppendChat(ctx, "u1", "assistant", "hi there"); err != nil {
		t.Fatalf("append: %v", err)
	}

	history, err := tracker.ChatHistory(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 || history[0].Role != "user" || history[1].Role != "assistant" {
		t.Fatalf("history = %+v", history)
	}

	waitForTracker(t, func() bool {
		remote.mu.Lock()
		defer remote.mu.Unlock()
		return len(remote.chats) == 2
	})
}

func TestComputeStats(t *testing.T) {
	all := map[int]progress.Progress{
		1: {MissionID: 1, Status: progress.StatusCompleted, Goals: []progress.Goal{{Completed: true}, {Completed: true}}},
		2: {MissionID: 2, Status: progress.StatusInProgress, Goals: []progress.Goal{{Completed: true}, {}}, Logs: []progress.LogEntry{{}, {}}},
		3: {MissionID: 3, Status: progress.StatusNotStarted, Goals: []progress.Goal{{}, {}}},
	}
	s := ComputeStats(all)
	if s.TotalMissions != 3 || s.CompletedMissions != 1 || s.InProgressMissions != 1 {
		t.Fatalf("mission counts wrong: %+v", s)
	}
	if s.TotalGoals != 6 || s.CompletedGoals != 3 || s.TotalLogs != 2 {
		t.Fatalf("goal counts wrong: %+v", s)
	}
	if s.CompletionPercentage != 50 {
		t.Fatalf("percentage = %d", s.CompletionPercentage)
	}

	if got := ComputeStats(nil).CompletionPercentage; got != 0 {
		t.Fatalf("empty percentage = %d", got)
	}
}
