// Package reflect expands a short, under-developed answer into a fuller one
// by asking the model to elaborate using the diary it has already produced.
package reflect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/openresearch/deepresearch/internal/llm"
)

const systemMessage = `You previously gave a short, terse answer to a research question. Expand it into a fuller, well-structured answer using the diary of research steps you took, without inventing facts you did not gather. Respond with plain prose, no JSON, no code fences.`

// Expander elaborates a short candidate answer into a longer one.
type Expander struct {
	Client llm.Client
	Model  string
}

// Expand asks the model to rewrite shortAnswer into a fuller response,
// given the question and the diary log built so far. It returns the
// original answer unchanged if the expander is unconfigured or the call
// fails; expansion is a quality improvement, not a required step.
func (e *Expander) Expand(ctx context.Context, question, shortAnswer, diary string) (string, error) {
	if e.Client == nil || strings.TrimSpace(e.Model) == "" {
		return shortAnswer, errors.New("reflect: expander not configured")
	}

	var sb strings.Builder
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\nShort answer to expand: ")
	sb.WriteString(shortAnswer)
	if strings.TrimSpace(diary) != "" {
		sb.WriteString("\n\nResearch diary:\n")
		sb.WriteString(diary)
	}

	resp, err := e.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemMessage},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
		Temperature: 0.2,
		N:           1,
	})
	if err != nil {
		return shortAnswer, fmt.Errorf("reflect: expansion call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return shortAnswer, errors.New("reflect: no choices from model")
	}
	expanded := strings.TrimSpace(resp.Choices[0].Message.Content)
	if expanded == "" {
		return shortAnswer, errors.New("reflect: empty expansion")
	}
	return expanded, nil
}
