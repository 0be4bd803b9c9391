package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSelectAccepts(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "plain select",
			in:   "SELECT county, SUM(tillable) FROM fields GROUP BY county",
			want: "SELECT county, SUM(tillable) FROM fields GROUP BY county",
		},
		{
			name: "trailing semicolon",
			in:   "select id from towers;",
			want: "select id from towers",
		},
		{
			name: "markdown fence",
			in:   "```sql\nSELECT name FROM equipment\n```",
			want: "SELECT name FROM equipment",
		},
		{
			name: "column named like keyword",
			in:   "SELECT requested_at, updated_ok FROM boundary_requests",
			want: "SELECT requested_at, updated_ok FROM boundary_requests",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ValidateSelect(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestValidateSelectRejects(t *testing.T) {
	cases := []struct {
		name string
		in   string
	}{
		{"empty", "   "},
		{"declined", "UNANSWERABLE"},
		{"not select", "DELETE FROM fields"},
		{"stacked statements", "SELECT 1; DROP TABLE fields"},
		{"write inside select", "SELECT id FROM fields WHERE id IN (DELETE FROM fields)"},
		{"pragma", "PRAGMA table_info(fields)"},
		{"prose answer", "The total tillable acreage is 175."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ValidateSelect(tc.in)
			assert.Error(t, err)
		})
	}
}

func TestContainsWord(t *testing.T) {
	assert.True(t, containsWord("select 1; drop table x", "drop"))
	assert.False(t, containsWord("select dropped_at from t", "drop"))
	assert.False(t, containsWord("select last_update_ts from t", "update"))
	assert.True(t, containsWord("update t set x = 1", "update"))
}
