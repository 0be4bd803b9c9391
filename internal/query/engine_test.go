package query

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
)

func newTestSnapshot(t *testing.T, fields []snapshot.FieldRecord) *snapshot.Handle {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.db")
	require.NoError(t, snapshot.Seed(path, snapshot.SeedData{Fields: fields}))
	h, err := snapshot.Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func sangamonFields() []snapshot.FieldRecord {
	return []snapshot.FieldRecord{
		{ID: "A-1", FarmID: "F-01", FarmName: "Killam Home", County: "Sangamon", State: "IL", Tillable: 100},
		{ID: "A-2", FarmID: "F-01", FarmName: "Killam Home", County: "Sangamon", State: "IL", Tillable: 50},
		{ID: "A-3", FarmID: "F-02", FarmName: "Riverbend", County: "Sangamon", State: "IL", Tillable: 25},
	}
}

func TestGroupedMetricSingleCountyBucket(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	res := TryGenericQuery(Request{Question: "tillable acres by county", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	require.True(t, res.OK)
	assert.Equal(t, "tillable_by_county", res.Intent)

	// All three fields share one CountyKey bucket.
	require.Len(t, res.Table.Items, 1)
	assert.Equal(t, "Sangamon, IL", res.Table.Items[0].Label)
	assert.Equal(t, float64(175), res.Table.Items[0].Value)
	assert.Contains(t, res.Answer, "Sangamon, IL — 175 ac")

	// The top county becomes the drill-down focus.
	require.NotNil(t, res.Focus)
	assert.Equal(t, "county", res.Focus.Entity.Type)
	assert.Equal(t, "Sangamon, IL", res.Focus.Entity.Name)
	assert.Equal(t, convo.MetricTillable, res.Focus.Metric)
}

func TestGroupedMetricExcludesArchivedByDefault(t *testing.T) {
	fields := append(sangamonFields(),
		snapshot.FieldRecord{ID: "A-4", County: "Sangamon", State: "IL", Status: "archived", Tillable: 500})
	snap := newTestSnapshot(t, fields)

	res := TryGenericQuery(Request{Question: "tillable acres by county", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, float64(175), res.Table.Items[0].Value)

	res = TryGenericQuery(Request{Question: "tillable acres by county", Snapshot: snap, IncludeArchived: true, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, float64(675), res.Table.Items[0].Value)
	assert.Contains(t, res.Answer, "(including archived)")
}

func TestCountShapes(t *testing.T) {
	fields := []snapshot.FieldRecord{
		{ID: "A-1", FarmID: "F-01", FarmName: "Killam Home", County: "Sangamon", State: "IL", Tillable: 100},
		{ID: "A-2", FarmID: "F-01", FarmName: "Killam Home", County: "Sangamon", State: "IL", Tillable: 50},
		{ID: "B-1", FarmID: "F-02", FarmName: "Riverbend", County: "Christian", State: "IL", Tillable: 80},
		{ID: "C-1", FarmID: "F-03", FarmName: "Prairie View", County: "Macon", State: "IL", Status: "archived", Tillable: 40},
	}
	snap := newTestSnapshot(t, fields)

	res := TryGenericQuery(Request{Question: "how many counties do we have", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, "county_count", res.Intent)
	assert.Contains(t, res.Answer, "2 counties")

	res = TryGenericQuery(Request{Question: "how many farms do we have", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, "farm_count", res.Intent)
	assert.Contains(t, res.Answer, "2 farms")

	res = TryGenericQuery(Request{Question: "how many fields do we have", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, "field_count", res.Intent)
	assert.Contains(t, res.Answer, "3 fields")

	res = TryGenericQuery(Request{Question: "how many fields in sangamon county", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, "field_count", res.Intent)
	assert.Contains(t, res.Answer, "2 fields in Sangamon county")
	require.NotNil(t, res.Entity)
	assert.Equal(t, "county", res.Entity.Type)
}

func TestCountyWordIsNotACountRequest(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	// "county" must not read as "count"; this is a grouped question.
	res := TryGenericQuery(Request{Question: "tillable by county", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, "tillable_by_county", res.Intent)
}

func TestFieldCountPerCountyRoutesToGrouping(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	res := TryGenericQuery(Request{Question: "how many fields per county", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.Equal(t, "fields_by_county", res.Intent)
	assert.Contains(t, res.Answer, "3 fields")
}

func TestFarmList(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	res := TryGenericQuery(Request{Question: "list the farms", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	require.True(t, res.OK)
	assert.Equal(t, "farm_list", res.Intent)
	// Alphabetical.
	require.Len(t, res.Table.Items, 2)
	assert.Equal(t, "Killam Home", res.Table.Items[0].Label)
	assert.Equal(t, "Riverbend", res.Table.Items[1].Label)
}

func TestFieldListInCounty(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	res := TryGenericQuery(Request{Question: "list fields in sangamon county with tillable acres", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	require.True(t, res.OK)
	assert.Equal(t, "field_list_county", res.Intent)
	require.Len(t, res.Table.Items, 3)
	assert.Equal(t, "A-1", res.Table.Items[0].Label)
	assert.Equal(t, float64(100), res.Table.Items[0].Value)
	require.NotNil(t, res.Entity)
	assert.Equal(t, "Sangamon", res.Entity.Name)
}

func TestFieldListAcceptsCountyKeyForm(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	// The drill-down rewrite names the county in "Name, ST" key form.
	res := TryGenericQuery(Request{Question: "list fields in sangamon, il county with tillable acres", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	require.True(t, res.OK)
	assert.Equal(t, "field_list_county", res.Intent)
	assert.Len(t, res.Table.Items, 3)
	assert.Contains(t, res.Answer, "Fields in Sangamon, IL county")
}

func TestOutOfDomainQuestionsReturnNil(t *testing.T) {
	snap := newTestSnapshot(t, sangamonFields())

	for _, q := range []string{
		"grain bins",
		"equipment list",
		"bin movements",
		"pending boundary requests",
		"how many towers",
		"what's the weather",
		"",
	} {
		assert.Nil(t, TryGenericQuery(Request{Question: q, Snapshot: snap, PageSize: 25}), "question %q", q)
	}
}

func TestNoDataIsNotConfident(t *testing.T) {
	snap := newTestSnapshot(t, nil)

	res := TryGenericQuery(Request{Question: "tillable acres by county", Snapshot: snap, PageSize: 25})
	require.NotNil(t, res)
	assert.False(t, res.OK)
	assert.Equal(t, "tillable_by_county", res.Intent)
}

func TestAggregateAndRank(t *testing.T) {
	fields := []snapshot.FieldRecord{
		{ID: "A", County: "Sangamon", State: "IL", Tillable: 10, HELAcres: 5},
		{ID: "B", County: "Sangamon", State: "IL", Tillable: 20, CRPAcres: 3},
		{ID: "C", County: "Macon", State: "IL", Tillable: 30},
	}
	groups := Aggregate(fields, convo.ByCounty)
	require.Len(t, groups, 2)
	assert.Equal(t, 2, groups["Sangamon, IL"].Fields)
	assert.Equal(t, float64(30), groups["Sangamon, IL"].Tillable)
	assert.Equal(t, float64(5), groups["Sangamon, IL"].HEL)

	items := RankByMetric(groups, convo.MetricTillable)
	assert.Equal(t, "Macon, IL", items[0].Label)
	assert.Equal(t, "Sangamon, IL", items[1].Label)

	// Ties break alphabetically.
	tied := map[string]*GroupTotals{
		"B, IL": {Tillable: 10},
		"A, IL": {Tillable: 10},
	}
	items = RankByMetric(tied, convo.MetricTillable)
	assert.Equal(t, "A, IL", items[0].Label)
}

func TestExtractCountyName(t *testing.T) {
	cases := []struct {
		q    string
		want string
	}{
		{"list fields in sangamon county", "sangamon"},
		{"fields in st. clair county", "st. clair"},
		{"sangamon county fields", "sangamon"},
		{"fields in county of macon", "macon"},
		{"list fields in sangamon, il county", "sangamon, il"},
		{"field count by county", ""},
		{"how many counties", ""},
	}
	for _, tc := range cases {
		t.Run(tc.q, func(t *testing.T) {
			assert.Equal(t, tc.want, extractCountyName(tc.q))
		})
	}
}
