package coach

import (
	"fmt"
	"strings"

	"missiontrack/app/core/mission"
	"missiontrack/app/core/progress"
)

const basePersonality = `You are a supportive AI accountability coach helping the user track progress on a 10-week AI Missions challenge.

Your coaching style:
- Be encouraging and constructive - celebrate wins genuinely
- Ask clarifying questions to understand their progress
- Offer helpful suggestions, not criticism
- Keep responses concise and friendly (2-4 sentences max)
- If they mention blockers, offer practical advice
- Acknowledge effort and progress, even small steps
- Be conversational and warm, like a supportive friend
- When relevant, share helpful resources and tips specific to their current mission

When users log progress:
1. Acknowledge what they've accomplished
2. Ask one follow-up question if helpful
3. Suggest a reasonable next step
4. If appropriate, recommend a relevant resource or tip

Keep it brief and positive. You're here to help, not lecture.`

// BuildPrompt renders the system instruction for one coaching turn: the base
// personality, the full challenge overview, and the current mission's goals,
// resources, and tips.
func BuildPrompt(current mission.Mission) string {
	var b strings.Builder
	b.WriteString(basePersonality)
	b.WriteString("\n\nThe 10-week missions are:\n")
	for _, m := range mission.All() {
		fmt.Fprintf(&b, "Week %d: %s - %s\n", m.Week, m.Title, m.Description)
	}
	b.WriteString("\n")

	b.WriteString("=== CURRENT MISSION CONTEXT ===\n")
	fmt.Fprintf(&b, "The user is currently working on Week %d: %s\n", current.Week, current.Title)
	fmt.Fprintf(&b, "Description: %s\n\n", current.Description)

	b.WriteString("Goals for this mission:\n")
	for i, g := range current.SuggestedGoals {
		fmt.Fprintf(&b, "%d. %s\n", i+1, g)
	}
	b.WriteString("\n")

	if len(current.Resources) > 0 {
		b.WriteString("Helpful resources you can recommend:\n")
		for _, r := range current.Resources {
			switch r.Type {
			case mission.ResourceLink:
				fmt.Fprintf(&b, "- %s: %s\n", r.Title, r.URL)
			case mission.ResourceTip:
				fmt.Fprintf(&b, "- Tip: %s\n", r.Content)
			}
		}
		b.WriteString("\n")
	}

	if len(current.ChallengeTips) > 0 {
		b.WriteString("Challenge tips to share when relevant:\n")
		for _, tip := range current.ChallengeTips {
			fmt.Fprintf(&b, "- %s\n", tip)
		}
		b.WriteString("\n")
	}

	b.WriteString("When responding, naturally weave in relevant resources or tips if they would help the user. Don't dump all resources at once - share them contextually based on what the user is working on or struggling with.\n")
	return b.String()
}

// DetectCurrentMission picks the mission to coach against: the extraction's
// mission if it named one, else the first in_progress mission, else the first
// incomplete one, else week 1.
func DetectCurrentMission(extractionMissionID int, all map[int]progress.Progress) mission.Mission {
	if m, ok := mission.Get(extractionMissionID); ok {
		return m
	}
	for _, m := range mission.All() {
		if all[m.ID].Status == progress.StatusInProgress {
			return m
		}
	}
	for _, m := range mission.All() {
		if all[m.ID].Status != progress.StatusCompleted {
			return m
		}
	}
	return mission.All()[0]
}

// ProgressContext renders one line per mission for the model: status,
// completed and pending goal texts, and the last three log entries.
func ProgressContext(all map[int]progress.Progress) string {
	lines := make([]string, 0, len(mission.All()))
	for _, m := range mission.All() {
		p := all[m.ID]
		status := p.Status
		if status == "" {
			status = progress.StatusNotStarted
		}
		var completed, pending []string
		for _, g := range p.Goals {
			if g.Completed {
				completed = append(completed, g.Text)
			} else {
				pending = append(pending, g.Text)
			}
		}
		logs := p.Logs
		if len(logs) > 3 {
			logs = logs[len(logs)-3:]
		}
		recent := make([]string, 0, len(logs))
		for _, l := range logs {
			recent = append(recent, l.Text)
		}
		lines = append(lines, fmt.Sprintf("Week %d (%s): Status: %s, Completed: [%s], Pending: [%s], Recent logs: [%s]",
			m.Week, m.Title, status,
			strings.Join(completed, ", "),
			strings.Join(pending, ", "),
			strings.Join(recent, " | ")))
	}
	return strings.Join(lines, "\n")
}
