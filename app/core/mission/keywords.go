package mission

import "strings"

// keyword phrases per mission, used when no explicit week number appears in
// a message. Order matters: lower mission ids are checked first.
var keywordTable = []struct {
	id       int
	keywords []string
}{
	{1, []string{"resolution", "tracker", "goal tracking", "goals"}},
	{2, []string{"model mapping", "compare models", "ai models"}},
	{3, []string{"research", "deep research"}},
	{4, []string{"data analyst", "data analysis", "analyze data"}},
	{5, []string{"visual", "vision", "image"}},
	{6, []string{"pipeline", "information pipeline"}},
	{7, []string{"distribution", "automate distribution"}},
	{8, []string{"productivity", "automate productivity"}},
	{9, []string{"context", "context engineering", "prompt"}},
	{10, []string{"build app", "ai app", "application"}},
}

// DetectByKeywords returns the first mission whose keyword list has a
// substring hit in the lowercased text, or 0 when nothing matches.
func DetectByKeywords(lower string) int {
	for _, entry := range keywordTable {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.id
			}
		}
	}
	return 0
}
