// Package convo implements the conversational core: the per-conversation
// context, the follow-up interpreter that rewrites elliptical questions, the
// clarification state machine, and the intent normalizer.
//
// Everything here is a pure function over (text, context). No I/O, no
// package-level mutable state. The caller owns the Context value and applies
// the Delta each turn; concurrent turns for the same conversation must be
// serialized by the caller.
package convo

// Metric names in the closed metric vocabulary.
const (
	MetricHEL      = "hel"
	MetricCRP      = "crp"
	MetricTillable = "tillable"
	MetricFields   = "fields"
)

// Grouping axes.
const (
	ByFarm   = "farm"
	ByCounty = "county"
)

// ClarifyPrefix marks a pending clarification in Context.LastIntent.
// "clarify:grain" means the grain disambiguation prompt was shown and the
// next turn may be a numbered choice.
const ClarifyPrefix = "clarify:"

// Entity is the last concrete thing discussed.
type Entity struct {
	Type string // "field", "farm", "county", "tower"
	ID   string
	Name string
}

// Label returns the best display handle for the entity.
func (e Entity) Label() string {
	if e.Name != "" {
		return e.Name
	}
	return e.ID
}

// Scope is the active-vs-archived inclusion filter plus any narrowing the
// conversation has established.
type Scope struct {
	IncludeArchived bool
	County          string
	FarmID          string
	FarmName        string
}

// Focus is the last drill-down anchor: a remembered entity+metric pairing
// that lets a later "which fields is it" resolve without re-specifying
// either.
type Focus struct {
	Module string
	Entity Entity
	Metric string
}

// ResultItem is one row of a tabular answer.
type ResultItem struct {
	Label string
	Value float64
}

// ResultTable is the last tabular answer, kept so result-level follow-ups
// (sort, total, augment) can transform it without re-querying.
type ResultTable struct {
	Kind   string // "group", "list", "count"
	Metric string
	By     string
	Items  []ResultItem
}

// Clone returns a deep copy. Result ops transform a copy so the stored
// table stays consistent if the op fails halfway.
func (r *ResultTable) Clone() *ResultTable {
	if r == nil {
		return nil
	}
	out := &ResultTable{Kind: r.Kind, Metric: r.Metric, By: r.By}
	out.Items = make([]ResultItem, len(r.Items))
	copy(out.Items, r.Items)
	return out
}

// Continuation is a stored page of lines that a later "show more" serves
// from Offset.
type Continuation struct {
	Kind     string // always "page"
	Title    string
	Lines    []string
	Offset   int
	PageSize int
}

// Context is the per-conversation state carried between turns.
//
// Invariant: LastIntent holds either a concrete topic/intent string or the
// ClarifyPrefix sentinel, never both meanings at once.
type Context struct {
	LastIntent string
	LastMetric string // MetricHEL, MetricCRP, MetricTillable, MetricFields, or ""
	LastBy     string // ByFarm, ByCounty, or ""
	LastEntity *Entity
	LastScope  Scope
	LastResult *ResultTable
	Focus      *Focus
	More       *Continuation
}

// PendingClarification returns the clarification key when one is pending.
func (c *Context) PendingClarification() (string, bool) {
	if len(c.LastIntent) > len(ClarifyPrefix) && c.LastIntent[:len(ClarifyPrefix)] == ClarifyPrefix {
		return c.LastIntent[len(ClarifyPrefix):], true
	}
	return "", false
}

// ResultOp describes a transformation of the last tabular result. It is the
// tagged replacement for the old sentinel-string signaling: the router
// branches on Kind, never on a magic question string.
type ResultOp struct {
	Kind            string // OpSort, OpTotal, OpAugment, OpStrip, OpScope
	Dir             string // "desc", "asc", "alpha" (OpSort)
	Metric          string // OpAugment / OpStrip
	IncludeArchived bool   // OpScope
}

// ResultOp kinds.
const (
	OpSort    = "sort"
	OpTotal   = "total"
	OpAugment = "augment"
	OpStrip   = "strip"
	OpScope   = "scope"
)

// Delta is the per-turn context update. Merge semantics are explicit per
// field: a nil pointer means "leave unchanged", a set pointer overwrites
// that field entirely, and the Clear flags reset a field to empty. Nested
// values are never merged piecewise, with one exception: IncludeArchived,
// which overwrites only LastScope.IncludeArchived and preserves the rest of
// the scope.
type Delta struct {
	Intent *string
	Metric *string
	By     *string

	Entity      *Entity
	ClearEntity bool

	Scope           *Scope // whole-scope overwrite
	IncludeArchived *bool  // targeted toggle; preserves County/Farm narrowing

	Result      *ResultTable
	ClearResult bool

	Focus      *Focus
	ClearFocus bool

	More      *Continuation
	ClearMore bool
}

// Apply merges the delta into the context in place.
func (c *Context) Apply(d Delta) {
	if d.Intent != nil {
		c.LastIntent = *d.Intent
	}
	if d.Metric != nil {
		c.LastMetric = *d.Metric
	}
	if d.By != nil {
		c.LastBy = *d.By
	}
	if d.ClearEntity {
		c.LastEntity = nil
	} else if d.Entity != nil {
		e := *d.Entity
		c.LastEntity = &e
	}
	if d.Scope != nil {
		c.LastScope = *d.Scope
	}
	if d.IncludeArchived != nil {
		c.LastScope.IncludeArchived = *d.IncludeArchived
	}
	if d.ClearResult {
		c.LastResult = nil
	} else if d.Result != nil {
		c.LastResult = d.Result.Clone()
	}
	if d.ClearFocus {
		c.Focus = nil
	} else if d.Focus != nil {
		f := *d.Focus
		c.Focus = &f
	}
	if d.ClearMore {
		c.More = nil
	} else if d.More != nil {
		m := *d.More
		c.More = &m
	}
}

// strptr is a convenience for building deltas.
func strptr(s string) *string { return &s }

// boolptr is a convenience for building deltas.
func boolptr(b bool) *bool { return &b }
