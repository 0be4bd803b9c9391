package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/query"
)

// BinSites groups grain bins by site with bin counts and stored bushels.
func BinSites(req Request) Response {
	bins := req.Snapshot.GrainBins()
	if len(bins) == 0 {
		return noData()
	}

	type site struct {
		bins    int
		bushels float64
	}
	sites := map[string]*site{}
	for _, b := range bins {
		name := strings.TrimSpace(b.Site)
		if name == "" {
			name = "(unassigned)"
		}
		s := sites[name]
		if s == nil {
			s = &site{}
			sites[name] = s
		}
		s.bins++
		s.bushels += b.Bushels
	}

	names := make([]string, 0, len(sites))
	for name := range sites {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return sites[names[i]].bushels > sites[names[j]].bushels })

	lines := make([]string, len(names))
	for i, name := range names {
		s := sites[name]
		lines[i] = fmt.Sprintf("%d. %s — %d bins, %.0f bu", i+1, name, s.bins, s.bushels)
	}
	title := fmt.Sprintf("Bin sites (%d):", len(names))
	answer, cont := query.BuildPage(title, lines, req.PageSize)
	return Response{OK: true, Answer: answer, Continuation: cont}
}

// BinMovements summarizes recent grain movements, newest first.
func BinMovements(req Request) Response {
	moves := req.Snapshot.BinMovements()
	if len(moves) == 0 {
		return noData()
	}

	var in, out float64
	lines := make([]string, len(moves))
	for i, m := range moves {
		verb := "into"
		if strings.EqualFold(m.Direction, "out") {
			verb = "out of"
			out += m.Bushels
		} else {
			in += m.Bushels
		}
		lines[i] = fmt.Sprintf("%d. %s: %.0f bu %s %s", i+1, m.MovedAt, m.Bushels, verb, m.BinID)
	}
	title := fmt.Sprintf("Bin movements (%d; %.0f bu in, %.0f bu out):", len(moves), in, out)
	answer, cont := query.BuildPage(title, lines, req.PageSize)
	return Response{OK: true, Answer: answer, Continuation: cont}
}
