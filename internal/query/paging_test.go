package query

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedLines(n int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = fmt.Sprintf("%d. item", i+1)
	}
	return lines
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, MinPageSize, ClampPageSize(0))
	assert.Equal(t, MinPageSize, ClampPageSize(9))
	assert.Equal(t, 25, ClampPageSize(25))
	assert.Equal(t, MaxPageSize, ClampPageSize(80))
	assert.Equal(t, MaxPageSize, ClampPageSize(500))
}

func TestBuildPageFitsInOnePage(t *testing.T) {
	answer, cont := BuildPage("Items:", numberedLines(10), 25)
	assert.Nil(t, cont)
	assert.Equal(t, 11, len(strings.Split(answer, "\n")))
	assert.NotContains(t, answer, "more")
}

func TestBuildPageEmpty(t *testing.T) {
	answer, cont := BuildPage("Items:", nil, 25)
	assert.Nil(t, cont)
	assert.Equal(t, "Items:", answer)
}

func TestBuildPageSplitsAtPageSize(t *testing.T) {
	answer, cont := BuildPage("Items:", numberedLines(45), 25)

	require.NotNil(t, cont)
	assert.Equal(t, "page", cont.Kind)
	assert.Equal(t, 25, cont.Offset)
	assert.Equal(t, 25, cont.PageSize)
	assert.Len(t, cont.Lines, 45)

	assert.Contains(t, answer, "25. item")
	assert.NotContains(t, answer, "26. item")
	assert.Contains(t, answer, `Showing 1-25 of 45. Say "more" for the rest (20 remaining).`)
}

func TestNextPageServesTheRemainder(t *testing.T) {
	_, cont := BuildPage("Items:", numberedLines(45), 25)
	require.NotNil(t, cont)

	answer, next := NextPage(cont)
	assert.Nil(t, next)
	assert.Contains(t, answer, "26. item")
	assert.Contains(t, answer, "45. item")
	assert.Contains(t, answer, "Showing 26-45 of 45. That's everything.")
}

func TestNextPageChainsAcrossManyPages(t *testing.T) {
	_, cont := BuildPage("Items:", numberedLines(60), 25)
	require.NotNil(t, cont)

	answer, cont := NextPage(cont)
	require.NotNil(t, cont)
	assert.Equal(t, 50, cont.Offset)
	assert.Contains(t, answer, `Showing 26-50 of 60. Say "more" for the rest (10 remaining).`)

	answer, cont = NextPage(cont)
	assert.Nil(t, cont)
	assert.Contains(t, answer, "Showing 51-60 of 60. That's everything.")
}

func TestNextPageExhausted(t *testing.T) {
	answer, cont := NextPage(nil)
	assert.Nil(t, cont)
	assert.Equal(t, "Nothing more to show.", answer)
}
