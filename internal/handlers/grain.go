package handlers

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/query"
)

// Grain answers the grain summary: total bushels on hand per crop, across
// bins and bags.
func Grain(req Request) Response {
	bins := req.Snapshot.GrainBins()
	bags := req.Snapshot.GrainBags()
	if len(bins) == 0 && len(bags) == 0 {
		return noData()
	}

	byCrop := map[string]float64{}
	var total float64
	for _, b := range bins {
		byCrop[strings.ToLower(b.Crop)] += b.Bushels
		total += b.Bushels
	}
	for _, b := range bags {
		byCrop[strings.ToLower(b.Crop)] += b.Bushels
		total += b.Bushels
	}

	crops := make([]string, 0, len(byCrop))
	for crop := range byCrop {
		crops = append(crops, crop)
	}
	sort.Slice(crops, func(i, j int) bool { return byCrop[crops[i]] > byCrop[crops[j]] })

	var b strings.Builder
	fmt.Fprintf(&b, "Grain on hand: %.0f bu across %d bins and %d bags.", total, len(bins), len(bags))
	for _, crop := range crops {
		fmt.Fprintf(&b, "\n  %s: %.0f bu", crop, byCrop[crop])
	}
	return Response{OK: true, Answer: b.String()}
}

// GrainBags lists grain bags with crop and bushels.
func GrainBags(req Request) Response {
	bags := req.Snapshot.GrainBags()
	if len(bags) == 0 {
		return noData()
	}

	lines := make([]string, len(bags))
	for i, bag := range bags {
		lines[i] = fmt.Sprintf("%d. %s — %.0f bu %s (field %s)", i+1, bag.ID, bag.Bushels, bag.Crop, bag.FieldID)
	}
	title := fmt.Sprintf("Grain bags (%d):", len(bags))
	answer, cont := query.BuildPage(title, lines, req.PageSize)
	return Response{OK: true, Answer: answer, Continuation: cont}
}
