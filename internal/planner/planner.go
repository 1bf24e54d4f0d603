// Package planner expands a single research question or gap into several
// distinct search-query variations, so a round of search casts a wider net
// than the literal wording of the question.
package planner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/openresearch/deepresearch/internal/llm"
	"github.com/rs/zerolog/log"
)

// QueryExpander turns a question or gap into a small set of diverse search
// queries.
type QueryExpander interface {
	Expand(ctx context.Context, question string) ([]string, error)
}

// LLMQueryExpander calls an OpenAI-compatible endpoint and enforces a
// JSON-only contract.
type LLMQueryExpander struct {
	Client  llm.Client
	Model   string
	Verbose bool
}

const expanderSystemPrompt = `You are a search query planning assistant. Respond with strict JSON only, no narration. The JSON schema is {"queries": string[3..6]}. Queries must be diverse, concise, and cover different phrasings and angles on the question (broader, narrower, synonym-based, and one counter-evidence angle such as "limitations of" or "criticism of").`

// Expand implements QueryExpander using the chat completions API.
func (p *LLMQueryExpander) Expand(ctx context.Context, question string) ([]string, error) {
	if p.Client == nil || p.Model == "" {
		return nil, errors.New("query expander not configured")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, errors.New("empty question")
	}

	if p.Verbose {
		log.Debug().Str("stage", "planner").Str("model", p.Model).Int("question_len", len(question)).Msg("expanding query")
	}
	resp, err := p.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: expanderSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0.3,
		N:           1,
	})
	if err != nil {
		return nil, fmt.Errorf("query expansion call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices")
	}

	var out struct {
		Queries []string `json:"queries"`
	}
	raw := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse query expansion json: %w", err)
	}
	queries := sanitizeQueries(out.Queries)
	if len(queries) == 0 {
		return nil, errors.New("no usable queries in expansion output")
	}
	return queries, nil
}

// FallbackQueryExpander produces deterministic query variations when the LLM
// expander is unavailable or returns invalid output.
type FallbackQueryExpander struct{}

func (FallbackQueryExpander) Expand(_ context.Context, question string) ([]string, error) {
	topic := strings.TrimSpace(question)
	if topic == "" {
		return nil, errors.New("empty question")
	}
	suffixes := []string{"overview", "explained", "guide", "limitations", "alternatives"}
	queries := make([]string, 0, len(suffixes)+1)
	queries = append(queries, topic)
	for _, s := range suffixes {
		queries = append(queries, topic+" "+s)
	}
	return sanitizeQueries(queries), nil
}

func sanitizeQueries(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]struct{}{}
	for _, q := range in {
		s := strings.TrimSpace(q)
		if s == "" {
			continue
		}
		s = strings.TrimSuffix(s, ".")
		s = strings.TrimSuffix(s, "?")
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
		if len(out) == 6 {
			break
		}
	}
	return out
}
