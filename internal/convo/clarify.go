package convo

import (
	"fmt"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// ClarifyChoice is one numbered option in a clarification prompt. Resolving
// a choice yields a concrete question routed exactly as if the user had
// typed it directly.
type ClarifyChoice struct {
	Label    string
	Topic    string
	Question string
	Intent   string
}

// ClarificationEntry is one row of the static clarification table.
type ClarificationEntry struct {
	Prompt  string
	Choices []ClarifyChoice
}

// Clarifications is the static clarification table. Immutable for the
// process lifetime; every key that can appear in a "clarify:<key>" sentinel
// must exist here.
var Clarifications = map[string]ClarificationEntry{
	"grain": {
		Prompt: "Grain covers a few things here. Which did you mean?",
		Choices: []ClarifyChoice{
			{Label: "Grain bags", Topic: "grainBags", Question: "grain bags", Intent: "grainBags"},
			{Label: "Grain bins", Topic: "binSites", Question: "grain bins", Intent: "binSites"},
			{Label: "Grain summary", Topic: "grain", Question: "grain summary", Intent: "grain"},
		},
	},
	"bins": {
		Prompt: "Bins can mean a couple of things. Which did you mean?",
		Choices: []ClarifyChoice{
			{Label: "Bin sites", Topic: "binSites", Question: "bin sites", Intent: "binSites"},
			{Label: "Bin movements", Topic: "binMovements", Question: "bins summary", Intent: "binMovements"},
			{Label: "Grain totals by bin", Topic: "grain", Question: "grain summary", Intent: "grain"},
		},
	},
	"boundaries": {
		Prompt: "Which boundary requests do you want?",
		Choices: []ClarifyChoice{
			{Label: "Pending requests", Topic: "boundaries", Question: "pending boundary requests", Intent: "boundaries"},
			{Label: "Completed requests", Topic: "boundaries", Question: "completed boundary requests", Intent: "boundaries"},
			{Label: "All requests", Topic: "boundaries", Question: "all boundary requests", Intent: "boundaries"},
		},
	},
}

// DetectAmbiguity examines raw (non-rewritten) text for one of the fixed
// broad, underspecified patterns. Returns the clarification key or "".
//
// This must run before follow-up interpretation: a follow-up's rewritten
// output is unambiguous by construction, so only raw user text is checked.
func DetectAmbiguity(question string) string {
	q := textutil.Normalize(question)
	if q == "" {
		return ""
	}
	switch {
	case textutil.HasWord(q, "grain") &&
		!textutil.HasAnyWord(q, "bag", "bags", "bin", "bins", "summary", "bushel", "bushels"):
		return "grain"
	case textutil.HasAnyWord(q, "bin", "bins") &&
		!textutil.HasAnyWord(q, "movement", "movements", "site", "sites", "grain", "summary"):
		return "bins"
	case textutil.HasAnyWord(q, "boundary", "boundaries") &&
		!textutil.HasAnyWord(q, "pending", "completed", "complete", "open", "all", "status"):
		return "boundaries"
	}
	return ""
}

// Prompt renders the numbered clarification prompt for a key.
func Prompt(key string) string {
	entry, ok := Clarifications[key]
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(entry.Prompt)
	for i, c := range entry.Choices {
		fmt.Fprintf(&b, "\n  %d) %s", i+1, c.Label)
	}
	b.WriteString("\nReply with a number.")
	return b.String()
}

// ResolveChoice parses a reply to a pending clarification. Returns the
// chosen entry when the reply is a valid choice token for the key.
//
// Any reply that does not parse as a choice abandons the clarification: the
// caller treats the turn as a fresh question and never re-prompts.
func ResolveChoice(key, reply string) (ClarifyChoice, bool) {
	entry, ok := Clarifications[key]
	if !ok {
		return ClarifyChoice{}, false
	}
	n := parseChoiceToken(textutil.Normalize(reply))
	if n < 1 || n > len(entry.Choices) {
		return ClarifyChoice{}, false
	}
	return entry.Choices[n-1], true
}

func parseChoiceToken(s string) int {
	switch s {
	case "1", "one":
		return 1
	case "2", "two":
		return 2
	case "3", "three":
		return 3
	}
	return 0
}
