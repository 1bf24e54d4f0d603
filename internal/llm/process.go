package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// StreamingClient is an optional capability: a Client that can also serve a
// chat completion as a token stream. Providers that don't support streaming
// can omit it; ProcessText falls back to a single non-streaming call.
type StreamingClient interface {
	CreateChatCompletionStream(ctx context.Context, request openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// ProcessText sends systemPrompt (optional) and userPrompt to client and
// returns the model's full textual reply as a single string. When streaming
// is requested and client supports it, the stream is drained to completion
// before returning; callers never see partial chunks.
func ProcessText(ctx context.Context, client Client, model, systemPrompt, userPrompt string, streaming bool) (string, error) {
	if client == nil || strings.TrimSpace(model) == "" {
		return "", errors.New("llm: client not configured")
	}
	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if strings.TrimSpace(systemPrompt) != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	if streaming {
		if sc, ok := client.(StreamingClient); ok {
			return processStream(ctx, sc, model, messages)
		}
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		N:        1,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("llm: no choices in response")
	}
	return resp.Choices[0].Message.Content, nil
}

func processStream(ctx context.Context, client StreamingClient, model string, messages []openai.ChatCompletionMessage) (string, error) {
	stream, err := client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		N:        1,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion stream: %w", err)
	}
	defer stream.Close()

	var sb strings.Builder
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("chat completion stream recv: %w", err)
		}
		if len(chunk.Choices) > 0 {
			sb.WriteString(chunk.Choices[0].Delta.Content)
		}
	}
	return sb.String(), nil
}
