package extract

import (
	"fmt"
	"strings"
	"sync"

	"missiontrack/app/core/mission"
)

var (
	promptOnce sync.Once
	prompt     string
)

// ExtractionPrompt returns the system instruction sent with every extraction
// request. The goal lists are rendered from the catalog so the prompt can
// never drift from what the matcher reconciles against.
func ExtractionPrompt() string {
	promptOnce.Do(func() { prompt = buildExtractionPrompt() })
	return prompt
}

func buildExtractionPrompt() string {
	var b strings.Builder
	b.WriteString("You are an NLP extraction system. Analyze the user's message and extract structured progress data.\n\n")
	b.WriteString("The user is tracking progress on a 10-week AI Missions challenge with these specific goals:\n\n")

	for _, m := range mission.All() {
		fmt.Fprintf(&b, "Week %d - %s goals:\n", m.Week, m.Title)
		for _, g := range m.SuggestedGoals {
			fmt.Fprintf(&b, "- %q\n", g)
		}
		b.WriteString("\n")
	}

	b.WriteString(`IMPORTANT RULES:
1. When the user mentions COMPLETING a task, match it to the EXACT goal text from above.
   Examples:
   - "finished the NLP part" -> completedTasks: ["Implement natural language processing for updates"]
   - "completed the dashboard" -> completedTasks: ["Create progress visualization dashboard"]

2. When the user wants to ADD a new goal or task, extract the new goal text.
   Examples:
   - "add a goal for vision models" -> newGoals: ["Investigate vision models"]
   - "I want to add testing to week 1" -> newGoals: ["Add testing"]

3. When the user mentions working on something, add to inProgressTasks.
   - Use EXACT goal text if it matches an existing goal
   - Otherwise, add the new task description

Extract:
1. missionId: Which week (1-10) based on keywords/context
2. completedTasks: Array of EXACT goal texts from above that match what they completed
3. inProgressTasks: Array of EXACT goal texts they're working on (existing goals only)
4. newGoals: Array of NEW goals the user wants to add (not in the list above)
5. blockers: Any challenges mentioned
6. sentiment: positive/neutral/negative/frustrated

Respond ONLY with valid JSON:
{
  "missionId": number or null,
  "missionConfidence": "high" | "medium" | "low",
  "completedTasks": ["exact goal text from list above"],
  "inProgressTasks": ["exact goal text from list above"],
  "newGoals": ["new goal text to add"],
  "blockers": ["blocker description"],
  "sentiment": "positive" | "neutral" | "negative" | "frustrated",
  "suggestedActions": [],
  "rawSummary": "Brief summary"
}`)
	return b.String()
}
