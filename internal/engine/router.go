// Package engine ties the conversational core together: it owns the route
// table, enforces the truth gate over handler results, and orchestrates the
// per-turn control flow (clarification reply, paging, ambiguity, follow-up
// rewrite, intent normalization, dispatch).
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/handlers"
	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
)

// Fixed user-safe messages. Handler internals never leak into these.
const (
	msgBlocked      = "I can't help with that topic yet."
	msgNotConfident = "I can't confidently answer that yet."
	msgUnknown      = "I'm not sure which area that's about. Try naming one: fields, farms, equipment, grain, bins, boundaries, or towers."
)

// Meta reason codes.
const (
	reasonNoRoute       = "no-route"
	reasonFeatureNoData = "feature-no-data"
)

// Planner is the optional fallback invoked only when explicit routing
// fails. Implementations are expected to be non-deterministic (LLM-backed);
// ok false means the engine falls through to the unknown-intent response.
type Planner interface {
	Plan(ctx context.Context, question string) (answer string, ok bool)
}

// route pairs a topic with its handler. The table is ordered and closed;
// dispatch is a lookup, never a scan of regexes.
type route struct {
	topic   string
	handler handlers.Func
}

// Engine answers chat turns over one snapshot.
type Engine struct {
	snap     *snapshot.Handle
	logger   *zap.Logger
	pageSize int
	planner  Planner
	routes   []route
}

// Option configures an Engine.
type Option func(*Engine)

// WithPlanner attaches the LLM fallback planner.
func WithPlanner(p Planner) Option {
	return func(e *Engine) { e.planner = p }
}

// WithPageSize overrides the default answer page size.
func WithPageSize(n int) Option {
	return func(e *Engine) { e.pageSize = n }
}

// New builds an engine with the default route table.
func New(snap *snapshot.Handle, logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		snap:     snap,
		logger:   logger,
		pageSize: 25,
		routes: []route{
			{convo.TopicFields, handlers.Fields},
			{convo.TopicEquipment, handlers.Equipment},
			{convo.TopicGrain, handlers.Grain},
			{convo.TopicGrainBags, handlers.GrainBags},
			{convo.TopicBinSites, handlers.BinSites},
			{convo.TopicBinMovements, handlers.BinMovements},
			{convo.TopicBoundaries, handlers.Boundaries},
			{convo.TopicTowers, handlers.Towers},
		},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Response is one answered turn. The caller applies Delta to its stored
// context before the next turn.
type Response struct {
	Answer string
	Meta   map[string]any
	Delta  convo.Delta
}

func metaFor(intent string) map[string]any {
	return map[string]any{"intent": intent}
}

// dispatch runs the handler for a topic and enforces the truth gate: the
// handler must affirmatively set OK, and a panic or any other result shape
// collapses to the fixed not-confident response. Internal detail from the
// handler never reaches the user on failure.
func (e *Engine) dispatch(topic string, req handlers.Request) (resp handlers.Response, routed bool) {
	var h handlers.Func
	for _, r := range e.routes {
		if r.topic == topic {
			h = r.handler
			break
		}
	}
	if h == nil {
		return handlers.Response{}, false
	}

	routed = true
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("handler panicked",
				zap.String("topic", topic),
				zap.Any("panic", r))
			resp = handlers.Response{OK: false}
		}
	}()
	resp = h(req)
	return resp, true
}

// notConfident is the truth-gate failure response.
func notConfident(intent string) Response {
	return Response{
		Answer: msgNotConfident,
		Meta:   map[string]any{"intent": intent, "reason": reasonFeatureNoData},
	}
}

// blocked is the no-route response.
func blocked() Response {
	return Response{
		Answer: msgBlocked,
		Meta:   map[string]any{"intent": "blocked", "reason": reasonNoRoute},
	}
}
