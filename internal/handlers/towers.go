package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/query"
	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// Towers answers tower detail when the question names one, otherwise lists
// all towers.
func Towers(req Request) Response {
	all := req.Snapshot.Towers()
	if len(all) == 0 {
		return noData()
	}
	q := textutil.Normalize(req.Question)

	for _, t := range all {
		name := strings.ToLower(t.Name)
		if name != "" && strings.Contains(q, name) {
			answer := fmt.Sprintf("Tower %s in %s, %s.", t.Name, t.County, t.State)
			return Response{
				OK:     true,
				Answer: answer,
				Entity: &convo.Entity{Type: "tower", ID: t.ID, Name: t.Name},
			}
		}
	}

	sorted := make([]string, 0, len(all))
	for _, t := range all {
		sorted = append(sorted, fmt.Sprintf("%s — %s, %s", t.Name, t.County, t.State))
	}
	sort.Strings(sorted)
	lines := make([]string, len(sorted))
	for i, s := range sorted {
		lines[i] = fmt.Sprintf("%d. %s", i+1, s)
	}
	title := fmt.Sprintf("Towers (%d):", len(lines))
	answer, cont := query.BuildPage(title, lines, req.PageSize)
	return Response{OK: true, Answer: answer, Continuation: cont}
}
