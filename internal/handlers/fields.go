package handlers

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/query"
	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// Fields answers single-field detail questions ("tell me about 0832-North")
// and per-farm field lists ("list fields on farm Riverbend").
func Fields(req Request) Response {
	q := textutil.Normalize(req.Question)

	if subject, ok := cutAfter(q, "fields on farm ", "fields on the farm "); ok {
		return fieldsOnFarm(req, subject)
	}
	if subject, ok := cutAfter(q, "tell me about ", "what do you know about "); ok {
		return fieldDetail(req, subject)
	}
	return noData()
}

func fieldDetail(req Request, subject string) Response {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return noData()
	}

	var match *snapshot.FieldRecord
	for _, f := range req.Snapshot.Fields() {
		if strings.EqualFold(f.ID, subject) {
			g := f
			match = &g
			break
		}
		if match == nil && strings.Contains(strings.ToLower(f.ID), subject) {
			g := f
			match = &g
		}
	}
	if match == nil {
		return noData()
	}

	status := "active"
	if !match.IsActive() {
		status = strings.ToLower(match.Status)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Field %s", match.ID)
	if match.FarmName != "" {
		fmt.Fprintf(&b, " on %s", match.FarmName)
	}
	if key := match.CountyKey(); key != "" {
		fmt.Fprintf(&b, " in %s", key)
	}
	fmt.Fprintf(&b, " (%s).", status)
	fmt.Fprintf(&b, "\nTillable: %s ac", formatAcres(match.Tillable))
	if match.HELAcres > 0 {
		fmt.Fprintf(&b, "\nHEL: %s ac", formatAcres(match.HELAcres))
	}
	if match.CRPAcres > 0 {
		fmt.Fprintf(&b, "\nCRP: %s ac", formatAcres(match.CRPAcres))
	}

	return Response{
		OK:     true,
		Answer: b.String(),
		Entity: &convo.Entity{Type: "field", ID: match.ID, Name: match.ID},
	}
}

func fieldsOnFarm(req Request, farm string) Response {
	farm = strings.TrimSpace(farm)
	if farm == "" {
		return noData()
	}

	var matched []snapshot.FieldRecord
	var farmName string
	for _, f := range req.Snapshot.Fields() {
		if !req.IncludeArchived && !f.IsActive() {
			continue
		}
		if strings.EqualFold(f.FarmName, farm) || strings.EqualFold(f.FarmID, farm) ||
			strings.Contains(strings.ToLower(f.FarmName), strings.ToLower(farm)) {
			matched = append(matched, f)
			farmName = f.FarmName
		}
	}
	if len(matched) == 0 {
		return noData()
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	lines := make([]string, len(matched))
	for i, f := range matched {
		lines[i] = fmt.Sprintf("%d. %s — %s ac tillable", i+1, f.ID, formatAcres(f.Tillable))
	}
	title := fmt.Sprintf("Fields on %s (%d):", farmName, len(matched))
	answer, cont := query.BuildPage(title, lines, req.PageSize)

	return Response{
		OK:           true,
		Answer:       answer,
		Entity:       &convo.Entity{Type: "farm", Name: farmName},
		Continuation: cont,
	}
}

// cutAfter returns the text following the first matching prefix phrase.
func cutAfter(q string, phrases ...string) (string, bool) {
	for _, p := range phrases {
		if idx := strings.Index(q, p); idx >= 0 {
			return q[idx+len(p):], true
		}
	}
	return "", false
}

func formatAcres(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
