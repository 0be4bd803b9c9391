package textutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"  How many FIELDS?  ", "how many fields"},
		{"tillable\tacres   by county", "tillable acres by county"},
		{"that one!", "that one"},
		{"", ""},
		{"...", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"  Show ME the grain bins?? ",
		"CRP acres by county",
		"\t\n mixed   Whitespace \n",
		"already normal",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "Normalize not idempotent for %q", in)
	}
}

func TestHasWord_Boundaries(t *testing.T) {
	assert.True(t, HasWord("the bin is full", "bin"))
	assert.True(t, HasWord("bin", "bin"))
	assert.True(t, HasWord("empty the bin", "bin"))
	assert.False(t, HasWord("the combine broke", "bin"))
	assert.False(t, HasWord("binsite roster", "bin"))
	assert.True(t, HasWord("field 0832 status", "0832"))
}

func TestContainsAnyAll(t *testing.T) {
	text := "list fields in sangamon county"
	assert.True(t, ContainsAny(text, "farm", "county"))
	assert.False(t, ContainsAny(text, "grain", "equipment"))
	assert.True(t, ContainsAll(text, "fields", "county"))
	assert.False(t, ContainsAll(text, "fields", "farm"))
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Sangamon", TitleCase("sangamon"))
	assert.Equal(t, "Van Buren", TitleCase("van buren"))
	assert.Equal(t, "", TitleCase(""))
}
