package convo

import "github.com/dkillam05/farmvista-copilot/internal/textutil"

// MetricFromText extracts a metric name from normalized text, or "".
// HEL and CRP are checked before tillable because "tillable" is also the
// fallback wording in several canonical questions.
func MetricFromText(q string) string {
	switch {
	case textutil.HasWord(q, "hel") || textutil.ContainsAny(q, "highly erodible"):
		return MetricHEL
	case textutil.HasWord(q, "crp") || textutil.ContainsAny(q, "conservation reserve"):
		return MetricCRP
	case textutil.ContainsAny(q, "tillable"):
		return MetricTillable
	case textutil.ContainsAny(q, "field count", "number of fields", "how many fields") || textutil.HasWord(q, "fields"):
		return MetricFields
	}
	return ""
}

// ByFromText extracts a grouping axis from normalized text, or "".
func ByFromText(q string) string {
	switch {
	case textutil.ContainsAny(q, "by county", "per county", "each county", "by counties"):
		return ByCounty
	case textutil.ContainsAny(q, "by farm", "per farm", "each farm", "by farms"):
		return ByFarm
	}
	return ""
}

// MetricLabel returns the display label used in canonical question strings
// and answer headings.
func MetricLabel(metric string) string {
	switch metric {
	case MetricHEL:
		return "HEL acres"
	case MetricCRP:
		return "CRP acres"
	case MetricTillable:
		return "Tillable acres"
	case MetricFields:
		return "Field count"
	}
	return metric
}

// TotalsQuestion builds the canonical fully-specified grouping question,
// e.g. "CRP acres by county". Every follow-up path that re-derives a totals
// intent funnels through this so downstream routing sees one shape.
func TotalsQuestion(metric, by string) string {
	if metric == "" {
		metric = MetricTillable
	}
	if by == "" {
		by = ByCounty
	}
	return MetricLabel(metric) + " by " + by
}

// DetailQuestion builds the canonical single-entity question,
// e.g. "Tell me about 0832-North".
func DetailQuestion(label string) string {
	return "Tell me about " + label
}

// ListFieldsInCountyQuestion builds the canonical county field-list
// question, optionally carrying a per-line metric qualifier.
func ListFieldsInCountyQuestion(county, metric string) string {
	q := "List fields in " + county + " county"
	if metric != "" {
		q += " with " + metric + " acres"
	}
	return q
}

// ListFieldsOnFarmQuestion builds the canonical farm field-list question.
func ListFieldsOnFarmQuestion(farm string) string {
	return "List fields on farm " + farm
}
