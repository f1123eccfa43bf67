// Package ai wraps the LLM completions API behind a narrow interface. The
// rest of the system never touches the Gemini client directly.
package ai

import "context"

// Completer is the contract with the LLM completions API.
type Completer interface {
	// SQLQuery turns a natural-language question into a SQL query against
	// the given schema description.
	SQLQuery(ctx context.Context, question, schema string) (string, error)
	// Answer phrases query results as a natural-language answer to the
	// original question.
	Answer(ctx context.Context, question string, rows []map[string]interface{}) (string, error)
	// Recommendation produces a short budgeting recommendation from summary
	// figures.
	Recommendation(ctx context.Context, budgetType, summary string) (string, error)
}
