package convo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIntent(t *testing.T) {
	cases := []struct {
		q     string
		topic string
	}{
		{"tell me about 0832-north", TopicFields},
		{"what do you know about riverbend", TopicFields},
		{"list fields on farm killam home", TopicFields},
		{"grain bags", TopicGrainBags},
		{"how many grain bags do we have", TopicGrainBags},
		{"bin movements", TopicBinMovements},
		{"bins summary", TopicBinMovements},
		{"bin sites", TopicBinSites},
		{"grain bins", TopicBinSites},
		{"grain summary", TopicGrain},
		{"how many bushels total", TopicGrain},
		{"equipment list", TopicEquipment},
		{"where is the combine", TopicEquipment},
		{"pending boundary requests", TopicBoundaries},
		{"towers", TopicTowers},
		{"tell me about north ridge tower", TopicTowers},
		{"tillable acres by county", TopicFieldsQuery},
		{"how many fields do we have", TopicFieldsQuery},
		{"crp acres by farm", TopicFieldsQuery},
	}
	for _, tc := range cases {
		t.Run(tc.q, func(t *testing.T) {
			topic, ok := NormalizeIntent(tc.q)
			require.True(t, ok)
			assert.Equal(t, tc.topic, topic)
		})
	}
}

func TestNormalizeIntentNoMatch(t *testing.T) {
	for _, q := range []string{"", "what's the weather", "hello there"} {
		_, ok := NormalizeIntent(q)
		assert.False(t, ok, "question %q", q)
	}
}

// Precedence lives in the rule table: the specific topics win over the
// broader ones that share their keywords.
func TestNormalizeIntentPrecedence(t *testing.T) {
	topic, ok := NormalizeIntent("grain bags near the bin sites")
	require.True(t, ok)
	assert.Equal(t, TopicGrainBags, topic)

	topic, ok = NormalizeIntent("tell me about the sangamon tower")
	require.True(t, ok)
	assert.Equal(t, TopicTowers, topic)

	topic, ok = NormalizeIntent("fields on farm riverbend")
	require.True(t, ok)
	assert.Equal(t, TopicFields, topic)
}
