// Package query implements the generic aggregation engine: count, list, and
// group-by answers computed directly over snapshot field records, without a
// dedicated feature handler per question shape. It also owns the pagination
// builder used by every list-style answer in the system.
package query

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// Request carries one generic query attempt. Question must be normalized.
type Request struct {
	Question        string
	Snapshot        *snapshot.Handle
	IncludeArchived bool
	PageSize        int
}

// Result is a recognized-and-answered generic query. A nil *Result from
// TryGenericQuery means the question is not a generic field/farm/county
// query and the caller should route elsewhere.
type Result struct {
	OK           bool
	Answer       string
	Intent       string // e.g. "county_count", "tillable_by_county"
	Metric       string
	By           string
	Table        *convo.ResultTable
	Entity       *convo.Entity
	Focus        *convo.Focus
	Continuation *convo.Continuation
}

// blockedDomainTerms short-circuits the engine for questions that belong to
// other feature handlers. The engine's keyword matching is broad enough to
// misfire on these domains without the guard.
var blockedDomainTerms = []string{
	"equipment", "tractor", "tractors", "combine", "combines", "sprayer", "sprayers",
	"implement", "implements", "machinery", "maintenance",
	"grain", "bin", "bins", "bag", "bags", "bushel", "bushels",
	"boundary", "boundaries", "tower", "towers",
	"invoice", "invoices", "report", "reports",
}

// shape is one recognized query form. Shapes are tried in order and the
// first recognizer that fires answers the question; the ordering is load
// bearing because several recognizers are prefixes of others (county count
// before farm count, county field list before generic by-county grouping).
type shape struct {
	name string
	try  func(req Request) *Result
}

var shapes = []shape{
	{"county_count", tryCountyCount},
	{"farm_count", tryFarmCount},
	{"field_count", tryFieldCount},
	{"farm_list", tryFarmList},
	{"field_list_county", tryFieldListInCounty},
	{"metric_by_group", tryGroupedMetric},
}

// TryGenericQuery attempts to answer a field/farm/county question directly.
// Returns nil when the question is out of the engine's domain or matches no
// supported shape. The snapshot is never mutated.
func TryGenericQuery(req Request) *Result {
	q := textutil.Normalize(req.Question)
	if q == "" {
		return nil
	}
	if textutil.HasAnyWord(q, blockedDomainTerms...) {
		return nil
	}
	req.Question = q

	for _, s := range shapes {
		if res := s.try(req); res != nil {
			return res
		}
	}
	return nil
}

// eligibleFields applies the uniform scope filter: archived fields are
// excluded unless the request includes them.
func eligibleFields(req Request) []snapshot.FieldRecord {
	all := req.Snapshot.Fields()
	if req.IncludeArchived {
		return all
	}
	out := make([]snapshot.FieldRecord, 0, len(all))
	for _, f := range all {
		if f.IsActive() {
			out = append(out, f)
		}
	}
	return out
}

// isCountish detects counting questions. "count" is matched on a word
// boundary so "county" never reads as a count request.
func isCountish(q string) bool {
	return textutil.ContainsAny(q, "how many", "number of") || textutil.HasWord(q, "count")
}

func scopeSuffix(includeArchived bool) string {
	if includeArchived {
		return " (including archived)"
	}
	return ""
}

// Shape 1: count distinct counties.
func tryCountyCount(req Request) *Result {
	q := req.Question
	if !isCountish(q) || !textutil.HasAnyWord(q, "county", "counties") {
		return nil
	}
	if textutil.HasAnyWord(q, "field", "fields", "farm", "farms") {
		return nil
	}

	seen := map[string]bool{}
	for _, f := range eligibleFields(req) {
		if key := f.CountyKey(); key != "" {
			seen[key] = true
		}
	}
	if len(seen) == 0 {
		return &Result{OK: false, Intent: "county_count"}
	}
	return &Result{
		OK:     true,
		Intent: "county_count",
		Answer: fmt.Sprintf("Fields span %d counties%s.", len(seen), scopeSuffix(req.IncludeArchived)),
		Table: &convo.ResultTable{
			Kind:  "count",
			Items: []convo.ResultItem{{Label: "counties", Value: float64(len(seen))}},
		},
	}
}

// Shape 2: count distinct farms referenced by eligible fields.
func tryFarmCount(req Request) *Result {
	q := req.Question
	if !isCountish(q) || !textutil.HasAnyWord(q, "farm", "farms") {
		return nil
	}
	if textutil.HasAnyWord(q, "field", "fields") {
		return nil
	}

	seen := map[string]bool{}
	for _, f := range eligibleFields(req) {
		if f.FarmID != "" {
			seen[f.FarmID] = true
		}
	}
	if len(seen) == 0 {
		return &Result{OK: false, Intent: "farm_count"}
	}
	return &Result{
		OK:     true,
		Intent: "farm_count",
		Answer: fmt.Sprintf("Fields reference %d farms%s.", len(seen), scopeSuffix(req.IncludeArchived)),
		Table: &convo.ResultTable{
			Kind:  "count",
			Items: []convo.ResultItem{{Label: "farms", Value: float64(len(seen))}},
		},
	}
}

// Shape 3: count fields, optionally narrowed to a named county.
func tryFieldCount(req Request) *Result {
	q := req.Question
	if !isCountish(q) || !textutil.HasAnyWord(q, "field", "fields") {
		return nil
	}
	if convo.ByFromText(q) != "" {
		// "how many fields per county" is a grouped question.
		return nil
	}

	county := extractCountyName(q)
	n := 0
	for _, f := range eligibleFields(req) {
		if county != "" && !countyMatches(f, county) {
			continue
		}
		n++
	}
	if n == 0 {
		return &Result{OK: false, Intent: "field_count"}
	}

	where := ""
	if county != "" {
		where = " in " + displayCounty(county) + " county"
	}
	res := &Result{
		OK:     true,
		Intent: "field_count",
		Answer: fmt.Sprintf("There are %d fields%s%s.", n, where, scopeSuffix(req.IncludeArchived)),
		Metric: convo.MetricFields,
		Table: &convo.ResultTable{
			Kind:   "count",
			Metric: convo.MetricFields,
			Items:  []convo.ResultItem{{Label: "fields", Value: float64(n)}},
		},
	}
	if county != "" {
		res.Entity = &convo.Entity{Type: "county", Name: displayCounty(county)}
	}
	return res
}

// Shape 4: list distinct farm names, alphabetical, paginated.
func tryFarmList(req Request) *Result {
	q := req.Question
	if !textutil.ContainsAny(q, "list", "what", "which", "show") || !textutil.HasAnyWord(q, "farm", "farms") {
		return nil
	}

	names := map[string]bool{}
	for _, f := range eligibleFields(req) {
		name := strings.TrimSpace(f.FarmName)
		if name == "" {
			name = f.FarmID
		}
		if name != "" {
			names[name] = true
		}
	}
	if len(names) == 0 {
		return &Result{OK: false, Intent: "farm_list"}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	lines := make([]string, len(sorted))
	items := make([]convo.ResultItem, len(sorted))
	for i, name := range sorted {
		lines[i] = fmt.Sprintf("%d. %s", i+1, name)
		items[i] = convo.ResultItem{Label: name}
	}

	title := fmt.Sprintf("Farms (%d)%s:", len(sorted), scopeSuffix(req.IncludeArchived))
	answer, cont := BuildPage(title, lines, req.PageSize)
	return &Result{
		OK:           true,
		Intent:       "farm_list",
		Answer:       answer,
		Table:        &convo.ResultTable{Kind: "list", Items: items},
		Continuation: cont,
	}
}

// Shape 5: list fields within a named county, optionally with a per-line
// acreage metric.
func tryFieldListInCounty(req Request) *Result {
	q := req.Question
	if !textutil.HasAnyWord(q, "field", "fields") {
		return nil
	}
	county := extractCountyName(q)
	if county == "" {
		return nil
	}

	metric := ""
	if m := convo.MetricFromText(q); m == convo.MetricHEL || m == convo.MetricCRP || m == convo.MetricTillable {
		metric = m
	} else if textutil.ContainsAny(q, "with acres", "with acreage", "and acres", "with tillable") {
		metric = convo.MetricTillable
	}

	var matched []snapshot.FieldRecord
	for _, f := range eligibleFields(req) {
		if countyMatches(f, county) {
			matched = append(matched, f)
		}
	}
	if len(matched) == 0 {
		return &Result{OK: false, Intent: "field_list_county"}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })

	lines := make([]string, len(matched))
	items := make([]convo.ResultItem, len(matched))
	for i, f := range matched {
		if metric != "" {
			v := fieldMetricValue(f, metric)
			lines[i] = fmt.Sprintf("%d. %s — %s %s", i+1, f.ID, formatNumber(v), convo.MetricLabel(metric))
			items[i] = convo.ResultItem{Label: f.ID, Value: v}
		} else {
			lines[i] = fmt.Sprintf("%d. %s", i+1, f.ID)
			items[i] = convo.ResultItem{Label: f.ID}
		}
	}

	countyLabel := displayCounty(county)
	title := fmt.Sprintf("Fields in %s county (%d)%s:", countyLabel, len(matched), scopeSuffix(req.IncludeArchived))
	answer, cont := BuildPage(title, lines, req.PageSize)
	return &Result{
		OK:           true,
		Intent:       "field_list_county",
		Answer:       answer,
		Metric:       metric,
		Table:        &convo.ResultTable{Kind: "list", Metric: metric, Items: items},
		Entity:       &convo.Entity{Type: "county", Name: countyLabel},
		Continuation: cont,
	}
}

// Shape 6: grouped metric by county or by farm.
func tryGroupedMetric(req Request) *Result {
	q := req.Question
	by := convo.ByFromText(q)
	metric := convo.MetricFromText(q)
	if by == "" {
		if metric == "" || !textutil.ContainsAny(q, "breakdown", "broken down", "each") {
			return nil
		}
		by = convo.ByCounty
	}
	if metric == "" {
		metric = convo.MetricFields
	}

	groups := Aggregate(eligibleFields(req), by)
	if len(groups) == 0 {
		return &Result{OK: false, Intent: metric + "_by_" + by}
	}
	items := RankByMetric(groups, metric)

	lines := make([]string, len(items))
	for i, it := range items {
		if metric == convo.MetricFields {
			lines[i] = fmt.Sprintf("%d. %s — %d fields", i+1, it.Label, int(it.Value))
		} else {
			lines[i] = fmt.Sprintf("%d. %s — %s ac", i+1, it.Label, formatNumber(it.Value))
		}
	}

	intent := metric + "_by_" + by
	title := fmt.Sprintf("%s by %s%s:", convo.MetricLabel(metric), by, scopeSuffix(req.IncludeArchived))
	answer, cont := BuildPage(title, lines, req.PageSize)

	res := &Result{
		OK:           true,
		Intent:       intent,
		Answer:       answer,
		Metric:       metric,
		By:           by,
		Table:        &convo.ResultTable{Kind: "group", Metric: metric, By: by, Items: items},
		Continuation: cont,
	}
	if by == convo.ByCounty && metric != convo.MetricFields && len(items) > 0 {
		res.Focus = &convo.Focus{
			Module: "fields",
			Entity: convo.Entity{Type: "county", Name: items[0].Label},
			Metric: metric,
		}
	}
	return res
}

// GroupTotals accumulates every metric for one group key in a single pass.
type GroupTotals struct {
	Fields   int
	Tillable float64
	HEL      float64
	CRP      float64
}

// Aggregate buckets fields by the grouping axis. County keys come from
// FieldRecord.CountyKey so buckets never split on state formatting.
func Aggregate(fields []snapshot.FieldRecord, by string) map[string]*GroupTotals {
	groups := map[string]*GroupTotals{}
	for _, f := range fields {
		var key string
		if by == convo.ByFarm {
			key = strings.TrimSpace(f.FarmName)
			if key == "" {
				key = f.FarmID
			}
		} else {
			key = f.CountyKey()
		}
		if key == "" {
			continue
		}
		g := groups[key]
		if g == nil {
			g = &GroupTotals{}
			groups[key] = g
		}
		g.Fields++
		g.Tillable += f.Tillable
		g.HEL += f.HELAcres
		g.CRP += f.CRPAcres
	}
	return groups
}

// RankByMetric orders groups by the metric value descending, breaking ties
// by name ascending.
func RankByMetric(groups map[string]*GroupTotals, metric string) []convo.ResultItem {
	items := make([]convo.ResultItem, 0, len(groups))
	for key, g := range groups {
		var v float64
		switch metric {
		case convo.MetricHEL:
			v = g.HEL
		case convo.MetricCRP:
			v = g.CRP
		case convo.MetricTillable:
			v = g.Tillable
		default:
			v = float64(g.Fields)
		}
		items = append(items, convo.ResultItem{Label: key, Value: v})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Value != items[j].Value {
			return items[i].Value > items[j].Value
		}
		return items[i].Label < items[j].Label
	})
	return items
}

func fieldMetricValue(f snapshot.FieldRecord, metric string) float64 {
	switch metric {
	case convo.MetricHEL:
		return f.HELAcres
	case convo.MetricCRP:
		return f.CRPAcres
	default:
		return f.Tillable
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// The three alternative county-name patterns, tried in order:
// "in X county", "X county", "county X".
var (
	countyInRe   = regexp.MustCompile(`in ([a-z][a-z ,.'-]*?) county`)
	countyPreRe  = regexp.MustCompile(`(?:^|\s)([a-z][a-z',-]*(?: [a-z][a-z',-]*)?) county`)
	countyPostRe = regexp.MustCompile(`county (?:of )?([a-z][a-z',-]*(?: [a-z][a-z',-]*)?)`)
)

// extractCountyName pulls a county name from normalized text, or "".
func extractCountyName(q string) string {
	for _, re := range []*regexp.Regexp{countyInRe, countyPreRe, countyPostRe} {
		if m := re.FindStringSubmatch(q); m != nil {
			if name := cleanCountyCapture(m[1]); name != "" {
				return name
			}
		}
	}
	return ""
}

// cleanCountyCapture drops leading query words that the looser patterns can
// sweep into the capture ("show fields sangamon county" -> "sangamon").
func cleanCountyCapture(raw string) string {
	stop := map[string]bool{
		"list": true, "show": true, "what": true, "which": true, "the": true,
		"all": true, "me": true, "my": true, "in": true, "for": true,
		"field": true, "fields": true, "are": true, "is": true, "of": true,
		"a": true, "any": true, "each": true, "every": true, "per": true, "by": true,
		"count": true, "how": true, "many": true, "number": true, "total": true,
		"have": true, "we": true, "do": true, "you": true, "our": true,
		"acres": true, "acreage": true, "tillable": true, "hel": true, "crp": true,
		"with": true, "and": true,
	}
	words := strings.Fields(raw)
	for len(words) > 0 && stop[words[0]] {
		words = words[1:]
	}
	return strings.Join(words, " ")
}

// displayCounty echoes an extracted county name back with the county part
// title-cased and a trailing state abbreviation uppercased
// ("sangamon, il" -> "Sangamon, IL").
func displayCounty(county string) string {
	name, state, found := strings.Cut(county, ",")
	if !found {
		return textutil.TitleCase(county)
	}
	state = strings.TrimSpace(state)
	if len(state) == 2 {
		return textutil.TitleCase(strings.TrimSpace(name)) + ", " + strings.ToUpper(state)
	}
	return textutil.TitleCase(county)
}

// countyMatches compares a field's county against an extracted name,
// tolerating an appended state ("sangamon, il").
func countyMatches(f snapshot.FieldRecord, county string) bool {
	want := strings.ToLower(strings.TrimSpace(county))
	got := strings.ToLower(strings.TrimSpace(f.County))
	if got == want {
		return true
	}
	return strings.ToLower(f.CountyKey()) == want
}
