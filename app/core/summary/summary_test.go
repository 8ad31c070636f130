package summary

import (
	"context"
	"errors"
	"strings"
	"testing"

	"missiontrack/app/core/progress"
)

type cannedCompleter struct {
	reply string
	err   error
	seen  string
}

func (c *cannedCompleter) Complete(_ context.Context, _, user string) (string, error) {
	c.seen = user
	if c.err != nil {
		return "", c.err
	}
	return c.reply, nil
}

func sampleProgress() map[int]progress.Progress {
	return map[int]progress.Progress{
		1: {
			MissionID: 1,
			Status:    progress.StatusInProgress,
			Goals:     []progress.Goal{{Text: "a", Completed: true}, {Text: "b"}},
			Logs:      []progress.LogEntry{{Text: "did a"}},
		},
		2: {
			MissionID: 2,
			Status:    progress.StatusNotStarted,
			Goals:     []progress.Goal{{Text: "c"}, {Text: "d"}},
		},
	}
}

func TestGenerateParsesModelReport(t *testing.T) {
	c := &cannedCompleter{reply: `Here you go: {"overview": "Solid week.", "strengths": "Consistency.", "challenges": "Week 2 untouched.", "nextSteps": ["Start week 2", "Log daily", "Review goals"]}`}
	r := NewService(c).Generate(context.Background(), sampleProgress(), nil)

	if r.Overview != "Solid week." || r.Challenges != "Week 2 untouched." {
		t.Fatalf("report = %+v", r)
	}
	if len(r.NextSteps) != 3 || r.NextSteps[0] != "Start week 2" {
		t.Fatalf("nextSteps = %v", r.NextSteps)
	}
}

func TestGeneratePromptCarriesProgressAndActivity(t *testing.T) {
	c := &cannedCompleter{reply: `{"overview": "x", "nextSteps": ["a"]}`}
	recent := []progress.ChatMessage{{Role: "user", Content: "finished a"}}
	NewService(c).Generate(context.Background(), sampleProgress(), recent)

	if !strings.Contains(c.seen, `"did a"`) {
		t.Fatal("progress data missing from prompt")
	}
	if !strings.Contains(c.seen, "user: finished a") {
		t.Fatal("chat activity missing from prompt")
	}

	c2 := &cannedCompleter{reply: `{"overview": "x", "nextSteps": ["a"]}`}
	NewService(c2).Generate(context.Background(), sampleProgress(), nil)
	if !strings.Contains(c2.seen, "No recent activity") {
		t.Fatal("empty activity placeholder missing")
	}
}

func TestGenerateKeepsProseAsOverviewWhenNoJSON(t *testing.T) {
	c := &cannedCompleter{reply: "You are doing fine but week 2 needs attention."}
	r := NewService(c).Generate(context.Background(), sampleProgress(), nil)

	if r.Overview != "You are doing fine but week 2 needs attention." {
		t.Fatalf("overview = %q", r.Overview)
	}
	if r.Strengths != "Keep tracking your progress consistently." {
		t.Fatalf("strengths = %q", r.Strengths)
	}
	if len(r.NextSteps) != 3 {
		t.Fatalf("nextSteps = %v", r.NextSteps)
	}
}

func TestGenerateFallsBackDeterministically(t *testing.T) {
	c := &cannedCompleter{err: errors.New("down")}
	r := NewService(c).Generate(context.Background(), sampleProgress(), nil)

	if !strings.Contains(r.Overview, "1 of 4 goals (25%)") {
		t.Fatalf("overview = %q", r.Overview)
	}
	if len(r.NextSteps) != 3 {
		t.Fatalf("nextSteps = %v", r.NextSteps)
	}

	// no completer configured at all
	r2 := NewService(nil).Generate(context.Background(), sampleProgress(), nil)
	if r2.Overview != r.Overview {
		t.Fatal("fallback must be deterministic")
	}
}

func TestGenerateFillsMissingSteps(t *testing.T) {
	c := &cannedCompleter{reply: `{"overview": "ok", "strengths": "s", "challenges": "c"}`}
	r := NewService(c).Generate(context.Background(), sampleProgress(), nil)
	if len(r.NextSteps) != 3 {
		t.Fatalf("nextSteps = %v", r.NextSteps)
	}
}
