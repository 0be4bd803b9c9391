// Package handlers contains the domain feature handlers the router
// dispatches to. Each handler formats already-filtered snapshot records into
// text and reports, via OK, whether it actually proved it has data. The
// router's truth gate discards anything that does not set OK: a handler
// that cannot answer must return OK false, never a best-effort guess.
package handlers

import (
	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
)

// Request is the single argument every handler receives.
type Request struct {
	Question        string // normalized
	Intent          string
	Snapshot        *snapshot.Handle
	IncludeArchived bool
	PageSize        int
}

// Response is the handler contract. OK is mandatory: the truth gate treats
// anything other than OK true as "no data".
type Response struct {
	OK           bool
	Answer       string
	Meta         map[string]any
	Entity       *convo.Entity
	Continuation *convo.Continuation
}

// Func is a routable handler.
type Func func(Request) Response

// noData is the uniform failure shape for handlers.
func noData() Response {
	return Response{OK: false}
}
