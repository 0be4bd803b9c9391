package convo

import "github.com/dkillam05/farmvista-copilot/internal/textutil"

// Topics in the closed routing vocabulary.
const (
	TopicFields       = "fields"       // single-field detail and per-farm field lists
	TopicFieldsQuery  = "fieldsQuery"  // generic aggregation over field records
	TopicEquipment    = "equipment"
	TopicGrain        = "grain"
	TopicGrainBags    = "grainBags"
	TopicBinSites     = "binSites"
	TopicBinMovements = "binMovements"
	TopicBoundaries   = "boundaries"
	TopicTowers       = "towers"
)

// intentRule pairs a topic with its match predicate. Rules are checked in
// order and the first match wins, so precedence lives in the table, not in
// control flow. More specific rules (grain bags, bin movements) sit above
// the broader ones that share their keywords.
type intentRule struct {
	topic string
	match func(q string) bool
}

var intentRules = []intentRule{
	{TopicTowers, func(q string) bool {
		return textutil.HasAnyWord(q, "tower", "towers")
	}},
	{TopicFields, func(q string) bool {
		return textutil.ContainsAny(q, "tell me about", "what do you know about") ||
			textutil.ContainsAny(q, "fields on farm", "fields on the farm")
	}},
	{TopicGrainBags, func(q string) bool {
		return textutil.HasWord(q, "grain") && textutil.HasAnyWord(q, "bag", "bags")
	}},
	{TopicBinMovements, func(q string) bool {
		return textutil.HasAnyWord(q, "bin", "bins") &&
			(textutil.HasAnyWord(q, "movement", "movements") || textutil.ContainsAny(q, "bins summary"))
	}},
	{TopicBinSites, func(q string) bool {
		return textutil.ContainsAny(q, "bin site", "bin sites", "grain bins", "grain bin")
	}},
	{TopicGrain, func(q string) bool {
		return textutil.HasWord(q, "grain") ||
			(textutil.HasAnyWord(q, "bushel", "bushels") && !textutil.HasAnyWord(q, "bin", "bins"))
	}},
	{TopicEquipment, func(q string) bool {
		return textutil.HasAnyWord(q, "equipment", "tractor", "tractors", "combine", "combines",
			"sprayer", "sprayers", "implement", "implements", "machinery")
	}},
	{TopicBoundaries, func(q string) bool {
		return textutil.HasAnyWord(q, "boundary", "boundaries")
	}},
	{TopicFieldsQuery, func(q string) bool {
		return textutil.HasAnyWord(q, "field", "fields", "farm", "farms", "county", "counties",
			"hel", "crp", "tillable", "acreage", "acres", "acre")
	}},
}

// NormalizeIntent maps a (possibly rewritten) normalized question to a topic
// from the closed vocabulary. Returns ("", false) when nothing matches, in
// which case the router falls through to the unknown-intent path.
func NormalizeIntent(q string) (string, bool) {
	for _, rule := range intentRules {
		if rule.match(q) {
			return rule.topic, true
		}
	}
	return "", false
}
