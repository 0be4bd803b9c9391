package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/handlers"
	"github.com/dkillam05/farmvista-copilot/internal/query"
	"github.com/dkillam05/farmvista-copilot/internal/textutil"
)

// HandleTurn answers one chat turn. The caller owns cc and must serialize
// turns for the same conversation; HandleTurn itself never mutates cc. All
// updates travel back in the response delta.
//
// Control flow: pending-clarification reply -> paging -> ambiguity (raw
// text) -> follow-up rewrite -> intent normalization -> dispatch -> truth
// gate.
func (e *Engine) HandleTurn(ctx context.Context, question string, cc *convo.Context) Response {
	norm := textutil.Normalize(question)
	abandonedClarification := false

	// A reply to a pending clarification resolves the stored choice and
	// routes it exactly as if the user had typed the resolved question.
	// Any other reply silently abandons the clarification, with no re-prompt.
	if key, pending := cc.PendingClarification(); pending {
		if choice, ok := convo.ResolveChoice(key, norm); ok {
			e.logger.Debug("clarification resolved",
				zap.String("key", key),
				zap.String("topic", choice.Topic))
			resp := e.routeQuestion(ctx, choice.Topic, textutil.Normalize(choice.Question),
				cc.LastScope.IncludeArchived, convo.Delta{}, cc)
			if resp.Delta.Intent == nil {
				resp.Delta.Intent = strptr(choice.Intent)
			}
			return resp
		}
		abandonedClarification = true
	}

	// Serve "show more" from the stored continuation.
	if isMoreRequest(norm) && cc.More != nil {
		text, next := query.NextPage(cc.More)
		delta := convo.Delta{}
		if next != nil {
			delta.More = next
		} else {
			delta.ClearMore = true
		}
		if abandonedClarification {
			delta.Intent = strptr("")
		}
		return Response{Answer: text, Meta: metaFor("page"), Delta: delta}
	}

	// Ambiguity runs on the raw text, before follow-up interpretation: a
	// rewritten follow-up is unambiguous by construction.
	if key := convo.DetectAmbiguity(question); key != "" {
		intent := convo.ClarifyPrefix + key
		return Response{
			Answer: convo.Prompt(key),
			Meta:   metaFor(intent),
			Delta:  convo.Delta{Intent: strptr(intent)},
		}
	}

	// Follow-up interpretation rewrites elliptical input into a
	// fully-specified question, or into a result op.
	turnQuestion := norm
	var carry convo.Delta
	if rw := convo.Interpret(norm, cc); rw != nil {
		switch rw.Kind {
		case convo.RewriteResultOp:
			e.logger.Debug("result op", zap.String("op", rw.Op.Kind))
			return e.applyResultOp(ctx, rw.Op, cc)
		case convo.RewriteQuestion:
			e.logger.Debug("follow-up rewritten",
				zap.String("from", norm),
				zap.String("to", rw.Question))
			turnQuestion = textutil.Normalize(rw.Question)
			carry = rw.Delta
		}
	}

	includeArchived := cc.LastScope.IncludeArchived
	if carry.IncludeArchived != nil {
		includeArchived = *carry.IncludeArchived
	}

	topic, ok := convo.NormalizeIntent(turnQuestion)
	if !ok {
		resp := e.unknown(ctx, turnQuestion)
		if abandonedClarification && resp.Delta.Intent == nil {
			resp.Delta.Intent = strptr("")
		}
		mergeCarry(&resp.Delta, carry)
		return resp
	}

	resp := e.routeQuestion(ctx, topic, turnQuestion, includeArchived, carry, cc)
	if abandonedClarification && resp.Delta.Intent == nil {
		resp.Delta.Intent = strptr("")
	}
	return resp
}

// routeQuestion dispatches a normalized, fully-specified question.
func (e *Engine) routeQuestion(ctx context.Context, topic, question string,
	includeArchived bool, carry convo.Delta, cc *convo.Context) Response {

	if topic == convo.TopicFieldsQuery {
		return e.runGenericQuery(ctx, question, includeArchived, carry)
	}

	req := handlers.Request{
		Question:        question,
		Intent:          topic,
		Snapshot:        e.snap,
		IncludeArchived: includeArchived,
		PageSize:        e.pageSize,
	}
	hres, routed := e.dispatch(topic, req)
	if !routed {
		return blocked()
	}
	if !hres.OK {
		resp := notConfident(topic)
		mergeCarry(&resp.Delta, carry)
		return resp
	}

	delta := carry
	delta.Intent = strptr(topic)
	if hres.Entity != nil {
		delta.Entity = hres.Entity
	}
	if hres.Continuation != nil {
		delta.More = hres.Continuation
	} else {
		delta.ClearMore = true
	}

	meta := metaFor(topic)
	for k, v := range hres.Meta {
		meta[k] = v
	}
	return Response{Answer: hres.Answer, Meta: meta, Delta: delta}
}

// runGenericQuery sends a question through the aggregation engine, falling
// back to the planner (and then the unknown response) when no shape fires.
func (e *Engine) runGenericQuery(ctx context.Context, question string,
	includeArchived bool, carry convo.Delta) Response {

	res := query.TryGenericQuery(query.Request{
		Question:        question,
		Snapshot:        e.snap,
		IncludeArchived: includeArchived,
		PageSize:        e.pageSize,
	})
	if res == nil {
		resp := e.unknown(ctx, question)
		mergeCarry(&resp.Delta, carry)
		return resp
	}
	if !res.OK {
		resp := notConfident(res.Intent)
		mergeCarry(&resp.Delta, carry)
		return resp
	}

	delta := carry
	delta.Intent = strptr(res.Intent)
	if res.Metric != "" {
		delta.Metric = strptr(res.Metric)
	}
	if res.By != "" {
		delta.By = strptr(res.By)
	}
	if res.Entity != nil {
		delta.Entity = res.Entity
	}
	if res.Table != nil {
		delta.Result = res.Table
	}
	if res.Focus != nil {
		delta.Focus = res.Focus
	}
	if res.Continuation != nil {
		delta.More = res.Continuation
	} else {
		delta.ClearMore = true
	}

	return Response{Answer: res.Answer, Meta: metaFor(res.Intent), Delta: delta}
}

// unknown is the no-topic path: planner fallback when configured, otherwise
// the fixed unknown-intent prompt.
func (e *Engine) unknown(ctx context.Context, question string) Response {
	if e.planner != nil {
		if answer, ok := e.planner.Plan(ctx, question); ok {
			return Response{Answer: answer, Meta: metaFor("planner")}
		}
	}
	return Response{Answer: msgUnknown, Meta: metaFor("unknown")}
}

func isMoreRequest(q string) bool {
	switch q {
	case "more", "show more", "next", "keep going", "continue":
		return true
	}
	return false
}

// mergeCarry folds a follow-up's context delta into the final turn delta
// without clobbering fields the route already set.
func mergeCarry(dst *convo.Delta, carry convo.Delta) {
	if dst.Metric == nil {
		dst.Metric = carry.Metric
	}
	if dst.By == nil {
		dst.By = carry.By
	}
	if dst.IncludeArchived == nil {
		dst.IncludeArchived = carry.IncludeArchived
	}
}

func strptr(s string) *string { return &s }
func boolptr(b bool) *bool    { return &b }
