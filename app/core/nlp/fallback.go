package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"missiontrack/app/core/mission"
)

const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"

	SentimentPositive   = "positive"
	SentimentNeutral    = "neutral"
	SentimentNegative   = "negative"
	SentimentFrustrated = "frustrated"
)

// ExtractionResult is the structured record distilled from one user message.
// It is ephemeral: only its effects are persisted into Progress.
type ExtractionResult struct {
	MissionID         int      `json:"missionId,omitempty"`
	MissionConfidence string   `json:"missionConfidence"`
	CompletedTasks    []string `json:"completedTasks"`
	InProgressTasks   []string `json:"inProgressTasks"`
	NewGoals          []string `json:"newGoals"`
	Blockers          []string `json:"blockers"`
	Sentiment         string   `json:"sentiment"`
	SuggestedActions  []string `json:"suggestedActions"`
	RawSummary        string   `json:"rawSummary"`
}

var weekPattern = regexp.MustCompile(`(?i)week\s*(\d+)`)

// Each capture group is an ordered list of patterns anchored on its verbs;
// groups are evaluated independently and matches collected left to right.
var (
	completedPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:finished|completed|done with|wrapped up|built|created|implemented)\s+([^.,]+)`),
		regexp.MustCompile(`(?i)\b(?:i|we)\s+(?:finished|completed|did|made)\s+([^.,]+)`),
	}
	inProgressPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:working on|started|beginning|currently)\s+([^.,]+)`),
		regexp.MustCompile(`(?i)(?:still|halfway through|in the middle of)\s+([^.,]+)`),
	}
	blockerPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:stuck on|blocked by|struggling with|can't figure out|having trouble with)\s+([^.,]+)`),
		regexp.MustCompile(`(?i)(?:issue|problem|challenge|difficulty)\s+(?:with|is)\s+([^.,]+)`),
	}
)

var positiveWords = []string{"great", "awesome", "excited", "happy", "good", "excellent", "amazing", "love"}
var negativeWords = []string{"stuck", "frustrated", "confused", "hard", "difficult", "struggling", "hate", "annoying"}

// FallbackExtract turns raw text into a fully-populated ExtractionResult
// using local heuristics only. It never fails: empty or non-matching input
// yields empty slices and a neutral sentiment.
func FallbackExtract(text string) ExtractionResult {
	lower := strings.ToLower(text)

	missionID := detectMission(lower)
	confidence := ConfidenceLow
	if missionID != 0 {
		confidence = ConfidenceMedium
	}

	return ExtractionResult{
		MissionID:         missionID,
		MissionConfidence: confidence,
		CompletedTasks:    capturePhrases(text, completedPatterns),
		InProgressTasks:   capturePhrases(text, inProgressPatterns),
		NewGoals:          []string{},
		Blockers:          capturePhrases(text, blockerPatterns),
		Sentiment:         detectSentiment(lower),
		SuggestedActions:  []string{},
		RawSummary:        Summarize(text, 100),
	}
}

// detectMission prefers an explicit "week N" mention; out-of-range N is
// treated as unresolved, never clamped. Keyword inference runs only when no
// explicit week resolved.
func detectMission(lower string) int {
	if m := weekPattern.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil && n >= 1 && n <= 10 {
			return n
		}
		return mission.DetectByKeywords(lower)
	}
	return mission.DetectByKeywords(lower)
}

func capturePhrases(text string, patterns []*regexp.Regexp) []string {
	out := []string{}
	for _, p := range patterns {
		for _, m := range p.FindAllStringSubmatch(text, -1) {
			phrase := strings.TrimSpace(m[1])
			if phrase != "" {
				out = append(out, phrase)
			}
		}
	}
	return out
}

func detectSentiment(lower string) string {
	pos := countPresent(lower, positiveWords)
	neg := countPresent(lower, negativeWords)

	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos && neg > 1:
		return SentimentFrustrated
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func countPresent(lower string, words []string) int {
	n := 0
	for _, w := range words {
		if strings.Contains(lower, w) {
			n++
		}
	}
	return n
}

// Summarize keeps the first maxRunes characters and appends an ellipsis
// marker only when the input was actually longer.
func Summarize(text string, maxRunes int) string {
	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}
	return string(runes[:maxRunes]) + "..."
}
