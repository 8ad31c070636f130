package nlp

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Hello, World!", "hello world"},
		{"  lots   of\tspace \n here ", "lots of space here"},
		{"Design the goal-tracking system.", "design the goaltracking system"},
		{"ALL CAPS", "all caps"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestExpandAbbreviations(t *testing.T) {
	got := ExpandAbbreviations("finished the NLP part of the API")
	want := "finished the natural language processing part of the application programming interface"
	if got != want {
		t.Fatalf("ExpandAbbreviations = %q, want %q", got, want)
	}

	// whole-word only: no expansion inside larger words
	if got := ExpandAbbreviations("email maildrop"); got != "email maildrop" {
		t.Fatalf("expanded inside a larger word: %q", got)
	}

	if got := ExpandAbbreviations("ui and UX work"); got != "user interface and user experience work" {
		t.Fatalf("case-insensitive expansion failed: %q", got)
	}
}

func TestWords(t *testing.T) {
	got := Words("an ox ran the big dashboard")
	want := []string{"ran", "the", "big", "dashboard"}
	if len(got) != len(want) {
		t.Fatalf("Words returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Words returned %v, want %v", got, want)
		}
	}
}
