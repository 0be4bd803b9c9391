package engine

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
)

// Conversation binds a context value to an engine and serializes turns.
// The core itself never locks; this wrapper is where the caller-side
// serialization requirement is discharged for callers that want it handled.
type Conversation struct {
	ID     string
	engine *Engine

	mu  sync.Mutex
	ctx convo.Context
}

// NewConversation starts a fresh conversation on the engine.
func NewConversation(e *Engine) *Conversation {
	return &Conversation{
		ID:     uuid.NewString(),
		engine: e,
	}
}

// Ask answers one turn and applies the returned delta to the stored
// context.
func (c *Conversation) Ask(ctx context.Context, question string) Response {
	c.mu.Lock()
	defer c.mu.Unlock()

	resp := c.engine.HandleTurn(ctx, question, &c.ctx)
	c.ctx.Apply(resp.Delta)
	return resp
}

// Context returns a copy of the current conversation context, for
// inspection and tests.
func (c *Conversation) Context() convo.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ctx
}
