package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/query"
	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// Equipment lists equipment, optionally narrowed by category keyword or to
// units currently in maintenance.
func Equipment(req Request) Response {
	q := textutil.Normalize(req.Question)
	all := req.Snapshot.Equipment()
	if len(all) == 0 {
		return noData()
	}

	category := ""
	for _, cat := range []string{"tractor", "combine", "sprayer", "implement"} {
		if textutil.HasAnyWord(q, cat, cat+"s") {
			category = cat
			break
		}
	}
	maintenanceOnly := textutil.ContainsAny(q, "maintenance", "in the shop", "down")

	type row struct {
		name, category, status string
		hours                  float64
	}
	var rows []row
	for _, e := range all {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if maintenanceOnly && !strings.EqualFold(e.Status, "maintenance") {
			continue
		}
		rows = append(rows, row{e.Name, e.Category, e.Status, e.Hours})
	}
	if len(rows) == 0 {
		return noData()
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })

	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = fmt.Sprintf("%d. %s (%s) — %.0f hrs, %s", i+1, r.name, r.category, r.hours, r.status)
	}

	title := fmt.Sprintf("Equipment (%d):", len(rows))
	if maintenanceOnly {
		title = fmt.Sprintf("Equipment in maintenance (%d):", len(rows))
	} else if category != "" {
		title = fmt.Sprintf("%ss (%d):", textutil.TitleCase(category), len(rows))
	}
	answer, cont := query.BuildPage(title, lines, req.PageSize)
	return Response{OK: true, Answer: answer, Continuation: cont}
}
