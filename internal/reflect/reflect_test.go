package reflect

import (
	"context"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

type fakeChatClient struct {
	content string
	err     error
}

func (f fakeChatClient) CreateChatCompletion(_ context.Context, _ openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.content}}},
	}, nil
}

func TestExpander_Expand_ReturnsExpandedText(t *testing.T) {
	e := &Expander{Client: fakeChatClient{content: "Quicksort is a divide-and-conquer algorithm that partitions around a pivot and recursively sorts each side."}, Model: "test-model"}
	out, err := e.Expand(context.Background(), "What is quicksort?", "A sorting algorithm.", "- searched: quicksort basics")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "divide-and-conquer") {
		t.Fatalf("expected expanded answer, got %q", out)
	}
}

func TestExpander_Expand_FallsBackToOriginalOnError(t *testing.T) {
	e := &Expander{Client: fakeChatClient{err: context.DeadlineExceeded}, Model: "test-model"}
	out, err := e.Expand(context.Background(), "q", "short answer", "")
	if err == nil {
		t.Fatal("expected error")
	}
	if out != "short answer" {
		t.Fatalf("expected fallback to original answer, got %q", out)
	}
}

func TestExpander_Expand_RequiresConfiguration(t *testing.T) {
	e := &Expander{}
	out, err := e.Expand(context.Background(), "q", "a", "")
	if err == nil {
		t.Fatal("expected error for unconfigured expander")
	}
	if out != "a" {
		t.Fatalf("expected original answer returned, got %q", out)
	}
}
