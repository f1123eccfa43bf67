package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"
)

const sqlSystemPrompt = `Given the following schema, write a SQL query that retrieves the requested information.
Return the SQL query inside a JSON structure with the key "sql_query".
<example>{
	"sql_query": "SELECT * FROM users WHERE age > 18;",
	"original_query": "Show me all users older than 18 years old."
}
</example>
<schema>
%s
</schema>`

const answerSystemPrompt = `Given a user's question and the SQL rows response from the database from which the user wants to get the answer,
write a response to the user's question.
<user_question>
%s
</user_question>
<sql_response>
%s
</sql_response>`

const recommendationSystemPrompt = `You are a personal finance assistant. Given the summary figures of a user's
"%s" monthly budget, write a short, concrete budgeting recommendation in two
or three sentences. Do not repeat the raw numbers back to the user.
<summary>
%s
</summary>`

// Gemini implements Completer on top of the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed Completer. Credentials are resolved from
// the environment by the genai client.
func NewGemini(ctx context.Context, model string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model}, nil
}

// sqlQueryResponse is the JSON envelope the model is instructed to return.
type sqlQueryResponse struct {
	SQLQuery string `json:"sql_query"`
}

// SQLQuery asks the model for a SQL query answering the question over the schema.
func (g *Gemini) SQLQuery(ctx context.Context, question, schema string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		SystemInstruction: &genai.Content{Parts: []*genai.Part{
			{Text: fmt.Sprintf(sqlSystemPrompt, schema)},
		}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(question), cfg)
	if err != nil {
		return "", fmt.Errorf("sql query generation failed: %w", err)
	}

	var parsed sqlQueryResponse
	if err := json.Unmarshal([]byte(resp.Text()), &parsed); err != nil {
		return "", fmt.Errorf("malformed sql query response: %w", err)
	}
	if parsed.SQLQuery == "" {
		return "", fmt.Errorf("empty sql query response")
	}
	return parsed.SQLQuery, nil
}

// Answer asks the model to phrase the query results as a reply to the question.
func (g *Gemini) Answer(ctx context.Context, question string, rows []map[string]interface{}) (string, error) {
	rowsJSON, err := json.Marshal(rows)
	if err != nil {
		return "", fmt.Errorf("failed to encode query results: %w", err)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{
			{Text: fmt.Sprintf(answerSystemPrompt, question, rowsJSON)},
		}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(question), cfg)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	return resp.Text(), nil
}

// Recommendation asks the model for budgeting advice from summary figures.
func (g *Gemini) Recommendation(ctx context.Context, budgetType, summary string) (string, error) {
	prompt := fmt.Sprintf(recommendationSystemPrompt, budgetType, summary)

	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("recommendation generation failed: %w", err)
	}
	return resp.Text(), nil
}
