package convo

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func totalsContext() *Context {
	return &Context{
		LastIntent: "tillable_by_county",
		LastMetric: MetricTillable,
		LastBy:     ByCounty,
		LastResult: &ResultTable{
			Kind:   "group",
			Metric: MetricTillable,
			By:     ByCounty,
			Items: []ResultItem{
				{Label: "Sangamon, IL", Value: 175},
				{Label: "Christian, IL", Value: 120},
			},
		},
	}
}

func TestInterpretSameThingBut(t *testing.T) {
	cases := []struct {
		name string
		q    string
		want string
	}{
		{"swap metric", "same thing but crp", "CRP acres by county"},
		{"swap grouping", "by farm", "Tillable acres by farm"},
		{"what about", "what about hel", "HEL acres by county"},
		{"instead suffix", "crp instead", "CRP acres by county"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rw := Interpret(tc.q, totalsContext())
			require.NotNil(t, rw)
			assert.Equal(t, RewriteQuestion, rw.Kind)
			assert.Equal(t, tc.want, rw.Question)
		})
	}
}

func TestInterpretDeictic(t *testing.T) {
	fieldCtx := &Context{
		LastIntent: TopicFields,
		LastEntity: &Entity{Type: "field", ID: "0832-North"},
	}

	rw := Interpret("tell me more about that field", fieldCtx)
	require.NotNil(t, rw)
	assert.Equal(t, RewriteQuestion, rw.Kind)
	assert.Equal(t, "Tell me about 0832-North", rw.Question)

	// A type phrase that disagrees with the stored entity does not resolve.
	assert.Nil(t, Interpret("what about that farm", fieldCtx))

	// Generic phrasing resolves regardless of type.
	rw = Interpret("tell me about it", fieldCtx)
	require.NotNil(t, rw)
	assert.Equal(t, "Tell me about 0832-North", rw.Question)

	farmCtx := &Context{
		LastIntent: TopicFields,
		LastEntity: &Entity{Type: "farm", Name: "Killam Home"},
	}
	rw = Interpret("that farm", farmCtx)
	require.NotNil(t, rw)
	assert.Equal(t, "List fields on farm Killam Home", rw.Question)

	towerCtx := &Context{
		LastIntent: TopicTowers,
		LastEntity: &Entity{Type: "tower", Name: "North Ridge"},
	}
	rw = Interpret("that tower", towerCtx)
	require.NotNil(t, rw)
	assert.Equal(t, "Tell me about North Ridge tower", rw.Question)
}

func TestInterpretScopeChange(t *testing.T) {
	rw := Interpret("including archived", totalsContext())
	require.NotNil(t, rw)
	assert.Equal(t, RewriteQuestion, rw.Kind)
	assert.Equal(t, "Tillable acres by county", rw.Question)
	require.NotNil(t, rw.Delta.IncludeArchived)
	assert.True(t, *rw.Delta.IncludeArchived)

	rw = Interpret("active only", totalsContext())
	require.NotNil(t, rw)
	require.NotNil(t, rw.Delta.IncludeArchived)
	assert.False(t, *rw.Delta.IncludeArchived)
}

func TestInterpretScopeChangeWithoutMetricFallsToResultOp(t *testing.T) {
	ctx := &Context{
		LastIntent: "farm_list",
		LastResult: &ResultTable{Kind: "list", Items: []ResultItem{{Label: "Riverbend"}}},
	}
	rw := Interpret("including archived", ctx)
	require.NotNil(t, rw)
	assert.Equal(t, RewriteResultOp, rw.Kind)
	assert.Equal(t, OpScope, rw.Op.Kind)
	assert.True(t, rw.Op.IncludeArchived)
}

func TestInterpretResultOps(t *testing.T) {
	cases := []struct {
		name string
		q    string
		kind string
		dir  string
	}{
		{"sort desc", "largest first", OpSort, "desc"},
		{"sort asc", "smallest first", OpSort, "asc"},
		{"sort alpha", "alphabetical please", OpSort, "alpha"},
		{"total", "what is the total", OpTotal, ""},
		{"strip", "just the names", OpStrip, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rw := Interpret(tc.q, totalsContext())
			require.NotNil(t, rw)
			assert.Equal(t, RewriteResultOp, rw.Kind)
			assert.Equal(t, tc.kind, rw.Op.Kind)
			assert.Equal(t, tc.dir, rw.Op.Dir)
		})
	}
}

func TestInterpretAugment(t *testing.T) {
	rw := Interpret("include crp too", totalsContext())
	require.NotNil(t, rw)
	assert.Equal(t, RewriteResultOp, rw.Kind)
	assert.Equal(t, OpAugment, rw.Op.Kind)
	assert.Equal(t, MetricCRP, rw.Op.Metric)

	// Asking to add the metric already shown is not an augment.
	assert.Nil(t, Interpret("include tillable", totalsContext()))
}

func TestInterpretLeavesFullySpecifiedQuestionAlone(t *testing.T) {
	ctx := totalsContext()

	// Naming a county makes the question self-contained: it must route as a
	// fresh query, not transform the previous table.
	assert.Nil(t, Interpret("list fields in macon county with crp acres", ctx))
	assert.Nil(t, Interpret("fields in macon county with hel acres", ctx))

	// A mid-sentence "with" alone is not an augment request either.
	assert.Nil(t, Interpret("how do we deal with crp ground", ctx))
}

func TestInterpretFocusDrillDown(t *testing.T) {
	ctx := &Context{
		LastIntent: "crp_by_county",
		LastMetric: MetricCRP,
		Focus: &Focus{
			Module: "fields",
			Entity: Entity{Type: "county", Name: "Sangamon, IL"},
			Metric: MetricCRP,
		},
	}
	rw := Interpret("which fields is it", ctx)
	require.NotNil(t, rw)
	assert.Equal(t, RewriteQuestion, rw.Kind)
	assert.Equal(t, "List fields in Sangamon, IL county with crp acres", rw.Question)
}

func TestInterpretListFieldsShortcut(t *testing.T) {
	ctx := &Context{
		LastIntent: "field_count",
		LastEntity: &Entity{Type: "county", Name: "Sangamon, IL"},
	}
	rw := Interpret("list the fields", ctx)
	require.NotNil(t, rw)
	assert.Equal(t, "List fields in Sangamon, IL county", rw.Question)

	// A question that names a county itself is fully specified already.
	assert.Nil(t, Interpret("list the fields in macon county", ctx))
}

func TestInterpretNoContext(t *testing.T) {
	assert.Nil(t, Interpret("same thing but crp", &Context{}))
	assert.Nil(t, Interpret("that field", &Context{}))
	assert.Nil(t, Interpret("largest first", &Context{}))
	assert.Nil(t, Interpret("tillable acres by county", nil))
}

func TestInterpretIsPure(t *testing.T) {
	ctx := totalsContext()
	before := *ctx
	beforeTable := ctx.LastResult.Clone()

	first := Interpret("same thing but crp", ctx)
	second := Interpret("same thing but crp", ctx)

	require.NotNil(t, first)
	assert.Empty(t, cmp.Diff(first, second))

	// The interpreter reads context but never writes it.
	assert.Equal(t, before.LastIntent, ctx.LastIntent)
	assert.Equal(t, before.LastMetric, ctx.LastMetric)
	assert.Empty(t, cmp.Diff(beforeTable, ctx.LastResult))
}

func TestInterpretDuringPendingClarification(t *testing.T) {
	ctx := totalsContext()
	ctx.LastIntent = ClarifyPrefix + "grain"

	// Rewrites that rebuild questions from the prior intent stay out of the
	// way while a clarification is pending.
	assert.Nil(t, Interpret("same thing but crp", ctx))

	// Result-level ops still apply: the last table is unaffected by the
	// pending prompt.
	rw := Interpret("including archived", ctx)
	require.NotNil(t, rw)
	assert.Equal(t, OpScope, rw.Op.Kind)
}
