package engine

import (
	"context"
	"fmt"
	"sort"

	"github.com/dkillam05/farmvista-copilot/internal/convo"
	"github.com/dkillam05/farmvista-copilot/internal/query"
)

// applyResultOp transforms the stored tabular result in place of a
// re-query. The follow-up interpreter only emits a result op when
// cc.LastResult exists, but the op still proves it can produce a real
// answer; anything it cannot transform collapses to the not-confident
// response.
func (e *Engine) applyResultOp(ctx context.Context, op convo.ResultOp, cc *convo.Context) Response {
	table := cc.LastResult.Clone()
	if table == nil || len(table.Items) == 0 {
		return notConfident("result-op")
	}

	switch op.Kind {
	case convo.OpSort:
		return e.opSort(op, table)
	case convo.OpTotal:
		return e.opTotal(table)
	case convo.OpStrip:
		return e.opStrip(table)
	case convo.OpAugment:
		return e.opAugment(op, table, cc)
	case convo.OpScope:
		return e.opScope(ctx, op, cc)
	}
	return notConfident("result-op")
}

func (e *Engine) opSort(op convo.ResultOp, table *convo.ResultTable) Response {
	switch op.Dir {
	case "asc":
		sort.Slice(table.Items, func(i, j int) bool {
			if table.Items[i].Value != table.Items[j].Value {
				return table.Items[i].Value < table.Items[j].Value
			}
			return table.Items[i].Label < table.Items[j].Label
		})
	case "alpha":
		sort.Slice(table.Items, func(i, j int) bool {
			return table.Items[i].Label < table.Items[j].Label
		})
	default: // desc
		sort.Slice(table.Items, func(i, j int) bool {
			if table.Items[i].Value != table.Items[j].Value {
				return table.Items[i].Value > table.Items[j].Value
			}
			return table.Items[i].Label < table.Items[j].Label
		})
	}
	return e.renderTable(table, "sorted")
}

func (e *Engine) opTotal(table *convo.ResultTable) Response {
	var total float64
	for _, it := range table.Items {
		total += it.Value
	}
	label := convo.MetricLabel(table.Metric)
	if table.Metric == "" || table.Metric == convo.MetricFields {
		label = "entries"
		if table.Metric == convo.MetricFields {
			label = "fields"
		}
		return Response{
			Answer: fmt.Sprintf("Total: %.0f %s across %d groups.", total, label, len(table.Items)),
			Meta:   metaFor("result-op"),
		}
	}
	return Response{
		Answer: fmt.Sprintf("Total %s: %s ac across %d groups.", label, formatValue(total), len(table.Items)),
		Meta:   metaFor("result-op"),
	}
}

// opStrip renders labels only. The stored table keeps its metric and values
// so a later sort or total still operates on the real numbers.
func (e *Engine) opStrip(table *convo.ResultTable) Response {
	lines := make([]string, len(table.Items))
	for i, it := range table.Items {
		lines[i] = fmt.Sprintf("%d. %s", i+1, it.Label)
	}
	answer, cont := query.BuildPage("Results (names):", lines, e.pageSize)

	delta := convo.Delta{Result: table}
	if cont != nil {
		delta.More = cont
	} else {
		delta.ClearMore = true
	}
	return Response{Answer: answer, Meta: metaFor("result-op"), Delta: delta}
}

// opAugment re-derives values for a second metric over the same grouping.
// Only grouped tables can be augmented; a plain list has no grouping to
// recompute against.
func (e *Engine) opAugment(op convo.ResultOp, table *convo.ResultTable, cc *convo.Context) Response {
	if table.Kind != "group" || table.By == "" {
		return notConfident("result-op")
	}

	fields := e.snap.Fields()
	if !cc.LastScope.IncludeArchived {
		kept := fields[:0:0]
		for _, f := range fields {
			if f.IsActive() {
				kept = append(kept, f)
			}
		}
		fields = kept
	}
	groups := query.Aggregate(fields, table.By)
	augmented := map[string]float64{}
	for _, it := range query.RankByMetric(groups, op.Metric) {
		augmented[it.Label] = it.Value
	}

	lines := make([]string, len(table.Items))
	for i, it := range table.Items {
		lines[i] = fmt.Sprintf("%d. %s — %s ac (%s: %s ac)",
			i+1, it.Label, formatValue(it.Value),
			convo.MetricLabel(op.Metric), formatValue(augmented[it.Label]))
	}
	title := fmt.Sprintf("%s by %s, with %s:",
		convo.MetricLabel(table.Metric), table.By, convo.MetricLabel(op.Metric))
	answer, cont := query.BuildPage(title, lines, e.pageSize)

	delta := convo.Delta{Result: table}
	if cont != nil {
		delta.More = cont
	} else {
		delta.ClearMore = true
	}
	return Response{Answer: answer, Meta: metaFor("result-op"), Delta: delta}
}

// opScope re-runs the last answer with the flipped archived scope. A stored
// metric/grouping rebuilds the canonical totals question; metric-less list
// and count intents replay from the intent itself.
func (e *Engine) opScope(ctx context.Context, op convo.ResultOp, cc *convo.Context) Response {
	metric := cc.LastMetric
	if metric == "" && cc.LastResult != nil {
		metric = cc.LastResult.Metric
	}
	by := cc.LastBy
	if by == "" && cc.LastResult != nil {
		by = cc.LastResult.By
	}

	question := ""
	switch {
	case metric != "":
		question = convo.TotalsQuestion(metric, by)
	case cc.LastIntent == "farm_list":
		question = "list farms"
	case cc.LastIntent == "field_list_county" && cc.LastEntity != nil && cc.LastEntity.Type == "county":
		question = convo.ListFieldsInCountyQuestion(cc.LastEntity.Label(), "")
	case cc.LastIntent == "county_count":
		question = "how many counties"
	case cc.LastIntent == "farm_count":
		question = "how many farms"
	default:
		return notConfident("result-op")
	}

	resp := e.runGenericQuery(ctx, question, op.IncludeArchived, convo.Delta{})
	resp.Delta.IncludeArchived = boolptr(op.IncludeArchived)
	return resp
}

// renderTable re-renders a transformed table with pagination.
func (e *Engine) renderTable(table *convo.ResultTable, suffix string) Response {
	lines := make([]string, len(table.Items))
	for i, it := range table.Items {
		switch {
		case table.Metric == "":
			lines[i] = fmt.Sprintf("%d. %s", i+1, it.Label)
		case table.Metric == convo.MetricFields:
			lines[i] = fmt.Sprintf("%d. %s — %d fields", i+1, it.Label, int(it.Value))
		default:
			lines[i] = fmt.Sprintf("%d. %s — %s ac", i+1, it.Label, formatValue(it.Value))
		}
	}

	title := fmt.Sprintf("Results (%s):", suffix)
	if table.Metric != "" && table.By != "" {
		title = fmt.Sprintf("%s by %s (%s):", convo.MetricLabel(table.Metric), table.By, suffix)
	}
	answer, cont := query.BuildPage(title, lines, e.pageSize)

	delta := convo.Delta{Result: table}
	if cont != nil {
		delta.More = cont
	} else {
		delta.ClearMore = true
	}
	return Response{Answer: answer, Meta: metaFor("result-op"), Delta: delta}
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
