package convo

import (
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// RewriteKind discriminates the two outcomes of follow-up interpretation.
type RewriteKind int

const (
	// RewriteQuestion carries a fully-specified question string that the
	// router treats exactly as if the user had typed it.
	RewriteQuestion RewriteKind = iota + 1

	// RewriteResultOp instructs the router to transform the existing
	// tabular result in place instead of re-querying.
	RewriteResultOp
)

// Rewrite is the tagged result of interpreting a follow-up.
type Rewrite struct {
	Kind     RewriteKind
	Question string   // RewriteQuestion only
	Op       ResultOp // RewriteResultOp only
	Delta    Delta
}

// Interpret resolves an elliptical follow-up against the stored context.
// Returns nil when the text is not a recognizable follow-up, so the caller
// falls through to normal routing. Pure: identical inputs always produce
// identical output, and it never errors.
//
// Resolution order (first match wins):
//  1. scope change ("including archived", "active only")
//  2. focus drill-down ("which fields is it")
//  3. result-level operations on the last tabular answer
//  4. list-fields shortcuts tied to the last entity
//  5. "same thing but ..." / "by county" / "by farm"
//  6. deictic entity reference ("that field", "that one")
func Interpret(question string, ctx *Context) *Rewrite {
	if ctx == nil {
		return nil
	}
	q := textutil.Normalize(question)
	if q == "" {
		return nil
	}

	if rw := interpretScopeChange(q, ctx); rw != nil {
		return rw
	}
	if rw := interpretFocusDrillDown(q, ctx); rw != nil {
		return rw
	}
	if rw := interpretResultOp(q, ctx); rw != nil {
		return rw
	}
	if rw := interpretListFieldsShortcut(q, ctx); rw != nil {
		return rw
	}
	if rw := interpretSameThingBut(q, ctx); rw != nil {
		return rw
	}
	if rw := interpretDeictic(q, ctx); rw != nil {
		return rw
	}
	return nil
}

// scopePhrase detects an archived-scope change request. The second return
// is false when the text carries no scope phrase.
func scopePhrase(q string) (includeArchived, matched bool) {
	switch {
	case textutil.ContainsAny(q,
		"including archived", "include archived", "with archived", "and archived",
		"archived too", "plus archived", "show archived", "count archived"):
		return true, true
	case textutil.ContainsAny(q,
		"active only", "only active", "just active", "active fields only",
		"exclude archived", "without archived", "no archived", "drop archived"):
		return false, true
	}
	return false, false
}

// Step 1: scope change. Rebuilds the canonical totals question with the new
// scope, falling back to the stored metric/grouping when the text names
// none. Only LastScope.IncludeArchived is overwritten; county/farm
// narrowing persists.
func interpretScopeChange(q string, ctx *Context) *Rewrite {
	inc, ok := scopePhrase(q)
	if !ok || ctx.LastIntent == "" {
		return nil
	}
	if _, pending := ctx.PendingClarification(); pending {
		return nil
	}

	metric := MetricFromText(q)
	if metric == "" {
		metric = ctx.LastMetric
	}
	if metric == "" {
		// No metric context to rebuild a totals question from; a later
		// step (result-op scope toggle) may still apply.
		return nil
	}
	by := ByFromText(q)
	if by == "" {
		by = ctx.LastBy
	}

	return &Rewrite{
		Kind:     RewriteQuestion,
		Question: TotalsQuestion(metric, by),
		Delta: Delta{
			IncludeArchived: boolptr(inc),
			Metric:          strptr(metric),
		},
	}
}

// Step 2: focus drill-down. "what fields is it" after a county+metric
// answer resolves to an explicit field list for that county and metric.
func interpretFocusDrillDown(q string, ctx *Context) *Rewrite {
	if ctx.Focus == nil || ctx.Focus.Metric == "" || ctx.Focus.Entity.Type != "county" {
		return nil
	}
	if !textutil.ContainsAny(q, "what field", "which field") {
		return nil
	}
	return &Rewrite{
		Kind:     RewriteQuestion,
		Question: ListFieldsInCountyQuestion(ctx.Focus.Entity.Label(), ctx.Focus.Metric),
	}
}

// Step 3: result-level operations. Matched in priority order: scope toggle,
// metric augmentation, metric stripping, total, sort.
func interpretResultOp(q string, ctx *Context) *Rewrite {
	if ctx.LastResult == nil {
		return nil
	}

	if inc, ok := scopePhrase(q); ok {
		return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpScope, IncludeArchived: inc}}
	}

	// Metric augmentation fires only for elliptical phrasing: a leading
	// "with" or an include/add verb. A question that names a county is
	// fully specified and routes on its own.
	augmentish := textutil.ContainsAny(q, "include ", "add ", "also show") ||
		strings.HasPrefix(q, "with ")
	if augmentish && !strings.Contains(q, " county") && !strings.Contains(q, "county ") {
		if metric := MetricFromText(q); metric != "" && metric != MetricFields && metric != ctx.LastResult.Metric {
			return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpAugment, Metric: metric}}
		}
	}

	if textutil.ContainsAny(q, "no acres", "without acres", "without the acres",
		"drop the acres", "just the names", "names only") {
		return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpStrip}}
	}

	if textutil.HasAnyWord(q, "total", "sum") ||
		textutil.ContainsAny(q, "altogether", "overall", "add them up", "add it up") {
		return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpTotal}}
	}

	switch {
	case textutil.ContainsAny(q, "largest", "biggest", "highest", "most first", "descending"):
		return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpSort, Dir: "desc"}}
	case textutil.ContainsAny(q, "smallest", "lowest", "least first", "ascending"):
		return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpSort, Dir: "asc"}}
	case textutil.ContainsAny(q, "alphabetical", "alphabetically", "a to z", "by name"):
		return &Rewrite{Kind: RewriteResultOp, Op: ResultOp{Kind: OpSort, Dir: "alpha"}}
	}

	return nil
}

// Step 4: list-fields shortcuts tied to the last entity. "list the fields"
// after discussing a farm or county resolves against that entity. A question
// that names a county itself is fully specified and is left alone.
func interpretListFieldsShortcut(q string, ctx *Context) *Rewrite {
	if ctx.LastEntity == nil {
		return nil
	}
	if !textutil.ContainsAny(q, "list fields", "list the fields", "what fields",
		"which fields", "show fields", "show me the fields", "show the fields") {
		return nil
	}
	if strings.Contains(q, " county") || strings.Contains(q, "county ") {
		return nil
	}

	metric := ""
	if m := MetricFromText(q); m == MetricHEL || m == MetricCRP || m == MetricTillable {
		metric = m
	} else if textutil.ContainsAny(q, "with acres", "with acreage", "and acres") {
		metric = MetricTillable
	}

	switch ctx.LastEntity.Type {
	case "county":
		return &Rewrite{
			Kind:     RewriteQuestion,
			Question: ListFieldsInCountyQuestion(ctx.LastEntity.Label(), metric),
		}
	case "farm":
		return &Rewrite{
			Kind:     RewriteQuestion,
			Question: ListFieldsOnFarmQuestion(ctx.LastEntity.Label()),
		}
	}
	return nil
}

// lastIntentIsTotals reports whether the prior intent produced a totals,
// breakdown, or count style answer.
func lastIntentIsTotals(intent string) bool {
	if strings.Contains(intent, "_by_") {
		return true
	}
	switch intent {
	case "county_count", "farm_count", "field_count", "farm_list":
		return true
	}
	return false
}

// Step 5: "same thing but ..." and bare regrouping requests. Re-derives the
// metric and grouping, then either rebuilds a totals question (prior totals
// intent) or a detail question (prior single-field lookup).
func interpretSameThingBut(q string, ctx *Context) *Rewrite {
	if ctx.LastIntent == "" {
		return nil
	}
	if _, pending := ctx.PendingClarification(); pending {
		return nil
	}

	trigger := strings.HasPrefix(q, "same thing") || strings.HasPrefix(q, "same but") ||
		strings.HasPrefix(q, "what about") || strings.HasPrefix(q, "how about") ||
		strings.HasPrefix(q, "and for") || strings.HasPrefix(q, "now for") ||
		strings.HasPrefix(q, "by county") || strings.HasPrefix(q, "by farm") ||
		strings.HasSuffix(q, " instead")
	if !trigger {
		return nil
	}

	metric := MetricFromText(q)
	if metric == "" {
		metric = ctx.LastMetric
	}
	by := ByFromText(q)
	if by == "" {
		by = ctx.LastBy
	}

	if lastIntentIsTotals(ctx.LastIntent) || metric != "" {
		if by == "" {
			by = ByCounty
		}
		return &Rewrite{
			Kind:     RewriteQuestion,
			Question: TotalsQuestion(metric, by),
			Delta: Delta{
				Metric: strptr(metricOrDefault(metric)),
				By:     strptr(by),
			},
		}
	}

	if ctx.LastIntent == TopicFields && ctx.LastEntity != nil &&
		!conflictingTypePhrase(q, ctx.LastEntity.Type) {
		return &Rewrite{
			Kind:     RewriteQuestion,
			Question: DetailQuestion(ctx.LastEntity.Label()),
		}
	}
	return nil
}

func metricOrDefault(metric string) string {
	if metric == "" {
		return MetricTillable
	}
	return metric
}

// typedDeicticPhrases maps an entity type to the phrases that reference it
// explicitly.
var typedDeicticPhrases = map[string][]string{
	"field":  {"that field", "this field", "the field again"},
	"farm":   {"that farm", "this farm", "the farm again"},
	"county": {"that county", "this county", "the county again"},
	"tower":  {"that tower", "this tower", "the tower again"},
}

// conflictingTypePhrase reports whether q names an entity type other than
// entType. A mismatched type phrase is never a resolvable reference.
func conflictingTypePhrase(q, entType string) bool {
	for typ, phrases := range typedDeicticPhrases {
		if typ != entType && textutil.ContainsAny(q, phrases...) {
			return true
		}
	}
	return false
}

// Step 6: deictic entity reference. A type-specific phrase ("that farm")
// must agree with the stored entity's type; generic phrases ("that one")
// always resolve to the stored entity.
func interpretDeictic(q string, ctx *Context) *Rewrite {
	if ctx.LastEntity == nil {
		return nil
	}

	matched := false
	if phrases, ok := typedDeicticPhrases[ctx.LastEntity.Type]; ok && textutil.ContainsAny(q, phrases...) {
		matched = true
	}
	if !matched {
		if conflictingTypePhrase(q, ctx.LastEntity.Type) {
			return nil
		}
		if textutil.ContainsAny(q, "that one", "tell me about it", "more about it", "about that one") {
			matched = true
		}
	}
	if !matched {
		return nil
	}

	switch ctx.LastEntity.Type {
	case "field":
		return &Rewrite{Kind: RewriteQuestion, Question: DetailQuestion(ctx.LastEntity.Label())}
	case "farm":
		return &Rewrite{Kind: RewriteQuestion, Question: ListFieldsOnFarmQuestion(ctx.LastEntity.Label())}
	case "county":
		return &Rewrite{Kind: RewriteQuestion, Question: ListFieldsInCountyQuestion(ctx.LastEntity.Label(), "")}
	case "tower":
		return &Rewrite{Kind: RewriteQuestion, Question: DetailQuestion(ctx.LastEntity.Label() + " tower")}
	}
	return nil
}
