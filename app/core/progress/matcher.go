package progress

import (
	"strings"

	"missiontrack/app/core/nlp"
)

// Topic phrases that stand in for a goal's subject matter. "nlp" expands to
// "natural language processing", which hits two of these, so abbreviation
// reports still land on the canonical goal.
var topicVocabulary = []string{
	"natural language",
	"processing",
	"visualization",
	"dashboard",
	"feedback",
	"architecture",
	"design",
	"tracking",
	"progress",
}

const overlapThreshold = 0.4

// MatchGoal resolves a free-text task description to one existing incomplete
// goal by a strict strategy cascade: exact, containment, topic overlap, then
// weighted word overlap. The first strategy producing any candidate wins;
// within a strategy goals are tried in list order. MatchGoal never mutates;
// callers own the completion write and must re-check Completed before it.
func MatchGoal(goals []Goal, task string) (Goal, bool) {
	lowerTask := strings.ToLower(strings.TrimSpace(task))
	if lowerTask == "" {
		return Goal{}, false
	}
	normalizedTask := nlp.Normalize(nlp.ExpandAbbreviations(lowerTask))

	eligible := make([]Goal, 0, len(goals))
	for _, g := range goals {
		if !g.Completed {
			eligible = append(eligible, g)
		}
	}
	if len(eligible) == 0 {
		return Goal{}, false
	}

	for _, g := range eligible {
		if matchExact(g, lowerTask, normalizedTask) {
			return g, true
		}
	}
	for _, g := range eligible {
		if matchContainment(g, lowerTask, normalizedTask) {
			return g, true
		}
	}

	taskTopics := topicsIn(lowerTask, normalizedTask)
	if len(taskTopics) > 0 {
		for _, g := range eligible {
			lowerGoal := strings.ToLower(g.Text)
			normalizedGoal := nlp.Normalize(nlp.ExpandAbbreviations(lowerGoal))
			if overlaps(taskTopics, topicsIn(lowerGoal, normalizedGoal)) {
				return g, true
			}
		}
	}

	return matchWordOverlap(eligible, normalizedTask)
}

func matchExact(g Goal, lowerTask, normalizedTask string) bool {
	lowerGoal := strings.ToLower(g.Text)
	if lowerGoal == lowerTask {
		return true
	}
	return nlp.Normalize(nlp.ExpandAbbreviations(lowerGoal)) == normalizedTask
}

func matchContainment(g Goal, lowerTask, normalizedTask string) bool {
	lowerGoal := strings.ToLower(g.Text)
	if contains(lowerGoal, lowerTask) || contains(lowerTask, lowerGoal) {
		return true
	}
	normalizedGoal := nlp.Normalize(nlp.ExpandAbbreviations(lowerGoal))
	return contains(normalizedGoal, normalizedTask) || contains(normalizedTask, normalizedGoal)
}

func topicsIn(lower, normalized string) []string {
	present := []string{}
	for _, t := range topicVocabulary {
		if strings.Contains(normalized, t) || strings.Contains(lower, t) {
			present = append(present, t)
		}
	}
	return present
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}

// matchWordOverlap scores each goal by the share of matching words, where a
// task word matches when it equals a goal word or one is a substring of the
// other. Strictly-greater comparison keeps the earliest goal on ties.
func matchWordOverlap(eligible []Goal, normalizedTask string) (Goal, bool) {
	taskWords := nlp.Words(normalizedTask)
	if len(taskWords) == 0 {
		return Goal{}, false
	}

	var best Goal
	bestScore := 0.0
	found := false
	for _, g := range eligible {
		goalWords := nlp.Words(nlp.Normalize(nlp.ExpandAbbreviations(strings.ToLower(g.Text))))
		if len(goalWords) == 0 {
			continue
		}

		matches := 0
		for _, tw := range taskWords {
			if wordMatches(tw, goalWords) {
				matches++
			}
		}
		denom := len(taskWords)
		if len(goalWords) > denom {
			denom = len(goalWords)
		}
		score := float64(matches) / float64(denom)
		if score > overlapThreshold && score > bestScore {
			bestScore = score
			best = g
			found = true
		}
	}
	return best, found
}

func wordMatches(word string, goalWords []string) bool {
	for _, gw := range goalWords {
		if gw == word || strings.Contains(gw, word) || strings.Contains(word, gw) {
			return true
		}
	}
	return false
}
