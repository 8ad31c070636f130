// Package progress owns the per-mission progress record: its goal list, its
// append-only log, and the status state machine derived from goal completion.
package progress

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"missiontrack/app/core/mission"
	"missiontrack/app/core/nlp"
)

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

type Goal struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type LogEntry struct {
	ID        int64  `json:"id"` // monotonic per record, unix milliseconds at creation
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"` // unix seconds
}

type Progress struct {
	MissionID   int        `json:"missionId"`
	Status      string     `json:"status"`
	Goals       []Goal     `json:"goals"`
	Logs        []LogEntry `json:"logs"`
	CompletedAt int64      `json:"completedAt,omitempty"` // unix seconds, 0 when not completed
}

// Seed builds the initial record for a mission: one incomplete goal per
// suggested goal, with ids stable across reseeding.
func Seed(m mission.Mission) Progress {
	goals := make([]Goal, 0, len(m.SuggestedGoals))
	for i, text := range m.SuggestedGoals {
		goals = append(goals, Goal{
			ID:   fmt.Sprintf("%d-%d", m.ID, i),
			Text: text,
		})
	}
	return Progress{
		MissionID: m.ID,
		Status:    StatusNotStarted,
		Goals:     goals,
		Logs:      []LogEntry{},
	}
}

// SeedAll returns a record per catalog mission, keyed by mission id.
func SeedAll() map[int]Progress {
	out := make(map[int]Progress, len(mission.All()))
	for _, m := range mission.All() {
		out[m.ID] = Seed(m)
	}
	return out
}

// StatusOf derives the status from the goal list alone: completed iff the
// list is non-empty and every goal is done, in_progress iff at least one is
// done, not_started otherwise.
func StatusOf(goals []Goal) string {
	if len(goals) == 0 {
		return StatusNotStarted
	}
	any, all := false, true
	for _, g := range goals {
		if g.Completed {
			any = true
		} else {
			all = false
		}
	}
	switch {
	case all:
		return StatusCompleted
	case any:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// recompute re-derives Status and maintains CompletedAt: stamped on entry to
// completed, cleared on exit, untouched while the record stays completed.
func (p *Progress) recompute(now time.Time) {
	next := StatusOf(p.Goals)
	if next == StatusCompleted {
		if p.Status != StatusCompleted || p.CompletedAt == 0 {
			p.CompletedAt = now.Unix()
		}
	} else {
		p.CompletedAt = 0
	}
	p.Status = next
}

// Toggle flips the named goal. Returns false when the goal does not exist.
func (p *Progress) Toggle(goalID string, now time.Time) bool {
	for i := range p.Goals {
		if p.Goals[i].ID == goalID {
			p.Goals[i].Completed = !p.Goals[i].Completed
			p.recompute(now)
			return true
		}
	}
	return false
}

// MarkComplete sets the named goal to completed. It is idempotent: a missing
// goal or one that is already completed is a no-op and reports false.
func (p *Progress) MarkComplete(goalID string, now time.Time) bool {
	for i := range p.Goals {
		if p.Goals[i].ID == goalID {
			if p.Goals[i].Completed {
				return false
			}
			p.Goals[i].Completed = true
			p.recompute(now)
			return true
		}
	}
	return false
}

// AddGoal appends a new incomplete goal unless its normalized text is
// contained in, or contains, an existing goal's normalized text; in that
// case the existing goal is returned unchanged.
func (p *Progress) AddGoal(text string, now time.Time) (Goal, bool) {
	if existing, ok := p.findDuplicate(text); ok {
		return existing, false
	}
	goal := Goal{
		ID:   uuid.NewString(),
		Text: text,
	}
	p.Goals = append(p.Goals, goal)
	p.recompute(now)
	return goal, true
}

func (p *Progress) findDuplicate(text string) (Goal, bool) {
	normalized := nlp.Normalize(text)
	if normalized == "" {
		return Goal{}, false
	}
	for _, g := range p.Goals {
		existing := nlp.Normalize(g.Text)
		if existing == "" {
			continue
		}
		if contains(existing, normalized) || contains(normalized, existing) {
			return g, true
		}
	}
	return Goal{}, false
}

// RemoveGoal deletes by id unconditionally; status may revert downward as a
// side effect of the recomputation.
func (p *Progress) RemoveGoal(goalID string, now time.Time) bool {
	for i := range p.Goals {
		if p.Goals[i].ID == goalID {
			p.Goals = append(p.Goals[:i], p.Goals[i+1:]...)
			p.recompute(now)
			return true
		}
	}
	return false
}

// AppendLog adds an entry to the append-only log. Ids stay strictly
// monotonic even when two entries land in the same millisecond.
func (p *Progress) AppendLog(text string, now time.Time) LogEntry {
	id := now.UnixMilli()
	if n := len(p.Logs); n > 0 && id <= p.Logs[n-1].ID {
		id = p.Logs[n-1].ID + 1
	}
	entry := LogEntry{
		ID:        id,
		Text:      text,
		Timestamp: now.Unix(),
	}
	p.Logs = append(p.Logs, entry)
	return entry
}

// Clone returns a deep copy; Tracker mutates copies so readers of a
// previously returned record never observe later writes.
func (p Progress) Clone() Progress {
	out := p
	out.Goals = append([]Goal(nil), p.Goals...)
	out.Logs = append([]LogEntry(nil), p.Logs...)
	return out
}

func contains(haystack, needle string) bool {
	return needle != "" && strings.Contains(haystack, needle)
}
