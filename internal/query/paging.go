package query

import (
	"fmt"
	"strings"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
)

// Pagination bounds for a single answer. The configured default is clamped
// into this range before use.
const (
	MinPageSize = 10
	MaxPageSize = 80
)

// ClampPageSize forces a configured page size into [MinPageSize, MaxPageSize].
func ClampPageSize(n int) int {
	if n < MinPageSize {
		return MinPageSize
	}
	if n > MaxPageSize {
		return MaxPageSize
	}
	return n
}

// BuildPage renders the first page of lines under a title. When lines
// remain, the returned continuation lets the paging collaborator serve
// "show more" by slicing from Offset.
func BuildPage(title string, lines []string, pageSize int) (string, *convo.Continuation) {
	pageSize = ClampPageSize(pageSize)

	var b strings.Builder
	b.WriteString(title)
	n := len(lines)
	if n == 0 {
		return b.String(), nil
	}

	shown := n
	if shown > pageSize {
		shown = pageSize
	}
	for _, line := range lines[:shown] {
		b.WriteString("\n")
		b.WriteString(line)
	}

	if shown >= n {
		return b.String(), nil
	}

	remaining := n - shown
	fmt.Fprintf(&b, "\nShowing 1-%d of %d. Say \"more\" for the rest (%d remaining).",
		shown, n, remaining)
	return b.String(), &convo.Continuation{
		Kind:     "page",
		Title:    title,
		Lines:    lines,
		Offset:   shown,
		PageSize: pageSize,
	}
}

// NextPage serves the next slice of a stored continuation. The second
// return is the successor continuation, nil when the listing is exhausted.
func NextPage(c *convo.Continuation) (string, *convo.Continuation) {
	if c == nil || c.Offset >= len(c.Lines) {
		return "Nothing more to show.", nil
	}
	pageSize := ClampPageSize(c.PageSize)
	end := c.Offset + pageSize
	if end > len(c.Lines) {
		end = len(c.Lines)
	}

	var b strings.Builder
	b.WriteString(c.Title)
	for _, line := range c.Lines[c.Offset:end] {
		b.WriteString("\n")
		b.WriteString(line)
	}

	if end >= len(c.Lines) {
		fmt.Fprintf(&b, "\nShowing %d-%d of %d. That's everything.", c.Offset+1, end, len(c.Lines))
		return b.String(), nil
	}
	fmt.Fprintf(&b, "\nShowing %d-%d of %d. Say \"more\" for the rest (%d remaining).",
		c.Offset+1, end, len(c.Lines), len(c.Lines)-end)
	return b.String(), &convo.Continuation{
		Kind:     "page",
		Title:    c.Title,
		Lines:    c.Lines,
		Offset:   end,
		PageSize: pageSize,
	}
}
