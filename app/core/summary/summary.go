// Package summary builds the weekly progress report, preferring a model-written
// assessment and falling back to deterministic copy computed from the numbers.
package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"missiontrack/app/core/extract"
	"missiontrack/app/core/progress"
	"missiontrack/app/core/sync"
	"missiontrack/app/pkg/logger"
)

// Report is the weekly summary surfaced to the user.
type Report struct {
	Overview   string   `json:"overview"`
	Strengths  string   `json:"strengths"`
	Challenges string   `json:"challenges"`
	NextSteps  []string `json:"nextSteps"`
}

var cannedSteps = []string{
	"Review your current mission",
	"Set specific daily targets",
	"Log progress daily",
}

type Service struct {
	completer extract.Completer
}

func NewService(c extract.Completer) *Service {
	if c == nil {
		c = extract.Unconfigured{}
	}
	return &Service{completer: c}
}

// Generate never fails: model problems produce a report computed from the
// progress numbers instead.
func (s *Service) Generate(ctx context.Context, all map[int]progress.Progress, recent []progress.ChatMessage) Report {
	prompt, err := buildPrompt(all, recent)
	if err != nil {
		logger.Error("summary prompt build failed: %v", err)
		return fallbackReport(all)
	}

	text, err := s.completer.Complete(ctx, "", prompt)
	if err != nil {
		return fallbackReport(all)
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end <= start {
		// keep the model's prose as the overview, pad the rest
		r := fallbackReport(all)
		r.Overview = clip(text, 200)
		return r
	}
	payload := text[start : end+1]
	if !gjson.Valid(payload) || !gjson.Parse(payload).IsObject() {
		r := fallbackReport(all)
		r.Overview = clip(text, 200)
		return r
	}

	var r Report
	if err := json.Unmarshal([]byte(payload), &r); err != nil {
		fb := fallbackReport(all)
		fb.Overview = clip(text, 200)
		return fb
	}
	if strings.TrimSpace(r.Overview) == "" {
		r.Overview = fallbackReport(all).Overview
	}
	if len(r.NextSteps) == 0 {
		r.NextSteps = cannedSteps
	}
	return r
}

func buildPrompt(all map[int]progress.Progress, recent []progress.ChatMessage) (string, error) {
	progressJSON, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return "", err
	}

	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	activity := "No recent activity"
	if len(recent) > 0 {
		lines := make([]string, 0, len(recent))
		for _, m := range recent {
			lines = append(lines, fmt.Sprintf("%s: %s", m.Role, m.Content))
		}
		activity = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Based on this progress data, generate a weekly summary report.

Progress by week:
%s

Recent chat activity:
%s

Generate a JSON response with:
- overview: 1-2 sentence summary of overall progress
- strengths: what they're doing well
- challenges: areas needing attention
- nextSteps: array of 3 specific action items

Be direct and challenging in your assessment. Don't sugarcoat if they're behind.`, progressJSON, activity), nil
}

// fallbackReport is fully deterministic so the summary endpoint works with no
// model configured at all.
func fallbackReport(all map[int]progress.Progress) Report {
	stats := sync.ComputeStats(all)
	return Report{
		Overview: fmt.Sprintf("You've completed %d of %d goals (%d%%) across %d missions, with %d in progress and %d updates logged.",
			stats.CompletedGoals, stats.TotalGoals, stats.CompletionPercentage,
			stats.TotalMissions, stats.InProgressMissions, stats.TotalLogs),
		Strengths:  "Keep tracking your progress consistently.",
		Challenges: "Stay focused on your weekly goals.",
		NextSteps:  cannedSteps,
	}
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
