// Package planner is the LLM fallback for questions no deterministic route
// answers. It asks Gemini to write one read-only SELECT over the snapshot
// schema, validates the statement, runs it with a row cap, and renders the
// rows. It never sees the user-facing route table; the engine consults it
// only after explicit routing failed.
package planner

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/dkillam05/farmvista-copilot/internal/snapshot"
)

const defaultRowCap = 50

// schemaPrompt describes the snapshot tables to the model. Kept in sync with
// the snapshot schema by hand; the planner only needs column names and
// meanings, not DDL.
const schemaPrompt = `You translate one question about farm operations into exactly one SQLite SELECT statement.

Tables:
  fields(id, farm_id, farm_name, county, state, status, tillable, hel_acres, crp_acres)
  equipment(id, name, category, status, hours)
  grain_bins(id, site, crop, bushels)
  grain_bags(id, field_id, crop, bushels)
  bin_movements(id, bin_id, direction, bushels, moved_at)
  boundary_requests(id, field_id, status, requested_at)
  towers(id, name, county, state)

Rules:
- Reply with ONE SELECT statement and nothing else. No prose, no markdown fences.
- Never modify data. No INSERT, UPDATE, DELETE, DDL, PRAGMA, or ATTACH.
- A field is active unless its status is 'archived' or 'inactive' (case-insensitive).
- If the question cannot be answered from these tables, reply with the single word UNANSWERABLE.`

// Planner generates and executes a single SELECT per question.
type Planner struct {
	client *genai.Client
	model  string
	snap   *snapshot.Handle
	logger *zap.Logger
	rowCap int
}

// Options configures a Planner.
type Options struct {
	APIKey string
	Model  string
	RowCap int
	Logger *zap.Logger
}

// New builds a planner against the given snapshot.
func New(ctx context.Context, snap *snapshot.Handle, opts Options) (*Planner, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("planner requires an API key")
	}
	if opts.Model == "" {
		opts.Model = "gemini-2.0-flash"
	}
	if opts.RowCap <= 0 {
		opts.RowCap = defaultRowCap
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: opts.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Planner{
		client: client,
		model:  opts.Model,
		snap:   snap,
		logger: opts.Logger,
		rowCap: opts.RowCap,
	}, nil
}

// Close releases the GenAI client. The snapshot handle stays open; the
// planner does not own it.
func (p *Planner) Close() error {
	// *genai.Client holds no resources that need releasing and exposes
	// no Close method.
	return nil
}

// Plan answers a question by generating and running one SELECT. ok is false
// whenever generation, validation, or execution fails; the caller falls back
// to its fixed unknown response and the failure detail stays in the log.
func (p *Planner) Plan(ctx context.Context, question string) (string, bool) {
	stmt, err := p.generateSQL(ctx, question)
	if err != nil {
		p.logger.Debug("planner generation failed", zap.Error(err))
		return "", false
	}

	stmt, err = ValidateSelect(stmt)
	if err != nil {
		p.logger.Warn("planner produced unusable SQL",
			zap.String("sql", stmt), zap.Error(err))
		return "", false
	}

	answer, err := p.execute(ctx, stmt)
	if err != nil {
		p.logger.Warn("planner query failed",
			zap.String("sql", stmt), zap.Error(err))
		return "", false
	}
	p.logger.Debug("planner answered",
		zap.String("question", question), zap.String("sql", stmt))
	return answer, true
}

func (p *Planner) generateSQL(ctx context.Context, question string) (string, error) {
	contents := []*genai.Content{
		genai.NewContentFromText(schemaPrompt, genai.RoleUser),
		genai.NewContentFromText("Question: "+question, genai.RoleUser),
	}
	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// ValidateSelect checks that stmt is a single read-only SELECT and returns
// it normalized (fences stripped, trailing semicolon removed).
func ValidateSelect(stmt string) (string, error) {
	s := strings.TrimSpace(stmt)

	// Models wrap answers in markdown fences despite instructions.
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```sql")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
		s = strings.TrimSpace(s)
	}
	s = strings.TrimSuffix(s, ";")
	s = strings.TrimSpace(s)

	if s == "" {
		return "", fmt.Errorf("empty statement")
	}
	if strings.EqualFold(s, "UNANSWERABLE") {
		return "", fmt.Errorf("model declined the question")
	}

	lower := strings.ToLower(s)
	if !strings.HasPrefix(lower, "select ") && !strings.HasPrefix(lower, "select\n") {
		return "", fmt.Errorf("not a SELECT statement")
	}
	if strings.Contains(s, ";") {
		return "", fmt.Errorf("multiple statements")
	}
	for _, kw := range []string{
		"insert", "update", "delete", "drop", "alter", "create",
		"replace", "attach", "detach", "pragma", "vacuum", "reindex",
	} {
		if containsWord(lower, kw) {
			return "", fmt.Errorf("forbidden keyword %q", kw)
		}
	}
	return s, nil
}

// containsWord reports whether lower contains kw as a whole word.
func containsWord(lower, kw string) bool {
	idx := 0
	for {
		i := strings.Index(lower[idx:], kw)
		if i < 0 {
			return false
		}
		i += idx
		before := i == 0 || !isWordByte(lower[i-1])
		after := i+len(kw) == len(lower) || !isWordByte(lower[i+len(kw)])
		if before && after {
			return true
		}
		idx = i + len(kw)
	}
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '_'
}

// execute runs the validated SELECT against the read-only snapshot and
// renders the rows as plain text.
func (p *Planner) execute(ctx context.Context, stmt string) (string, error) {
	rows, err := p.snap.DB().QueryContext(ctx, stmt)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", fmt.Errorf("columns: %w", err)
	}

	var lines []string
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if len(lines) >= p.rowCap {
			lines = append(lines, fmt.Sprintf("(stopped after %d rows)", p.rowCap))
			break
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", fmt.Errorf("scan: %w", err)
		}
		parts := make([]string, len(cols))
		for i, v := range vals {
			parts[i] = fmt.Sprintf("%s: %s", cols[i], renderValue(v))
		}
		lines = append(lines, strings.Join(parts, ", "))
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("rows: %w", err)
	}
	if len(lines) == 0 {
		return "", fmt.Errorf("no rows")
	}
	return strings.Join(lines, "\n"), nil
}

func renderValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case []byte:
		return string(t)
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%.1f", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
