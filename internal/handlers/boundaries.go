package handlers

import (
	"fmt"

	"github.com/dkillam05/farmvista-copilot/internal/query"
	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// Boundaries lists boundary requests filtered by the status named in the
// question. Bare "boundaries" never reaches here; the clarification table
// resolves it to a status first.
func Boundaries(req Request) Response {
	all := req.Snapshot.BoundaryRequests()
	if len(all) == 0 {
		return noData()
	}

	q := textutil.Normalize(req.Question)
	status := ""
	switch {
	case textutil.HasAnyWord(q, "pending", "open"):
		status = "pending"
	case textutil.HasAnyWord(q, "completed", "complete", "done"):
		status = "completed"
	}

	var lines []string
	for _, b := range all {
		if status != "" && b.Status != status {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. %s — field %s, %s (%s)", len(lines)+1, b.ID, b.FieldID, b.Status, b.RequestedAt))
	}
	if len(lines) == 0 {
		return noData()
	}

	label := "Boundary requests"
	if status != "" {
		label = textutil.TitleCase(status) + " boundary requests"
	}
	title := fmt.Sprintf("%s (%d):", label, len(lines))
	answer, cont := query.BuildPage(title, lines, req.PageSize)
	return Response{OK: true, Answer: answer, Continuation: cont}
}
