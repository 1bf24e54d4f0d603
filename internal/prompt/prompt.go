// Package prompt assembles the system and user messages sent to the LLM on
// each iteration of the research loop.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/openresearch/deepresearch/internal/budget"
	selecter "github.com/openresearch/deepresearch/internal/select"
)

// reservedOutputTokens is the headroom left for the model's reply when
// sizing how much gathered content a prompt can carry.
const reservedOutputTokens = 1024

// DiaryEntry is a single timestamped line from the agent's append-only log,
// included verbatim so the model has continuity across iterations.
type DiaryEntry struct {
	Timestamp time.Time
	Message   string
}

// Input bundles everything the Builder needs to assemble one prompt.
type Input struct {
	Now      time.Time
	Question string
	Contents []selecter.Content
	Diary    []DiaryEntry
	Visited  []string
	// Model is the target chat-completion model, used to size how much
	// gathered content fits the per-call context window.
	Model string
}

const systemPrompt = `You are an autonomous research agent. On each turn you must choose exactly one action: "answer", "search", or "reflect". Respond with strict JSON only, no narration, no code fences, matching this schema:
{ "action": "answer"|"search"|"reflect", "thoughts": "...", "searchQuery": "..." | null, "questionsToAnswer": ["..."] | null, "answer": "..." | null, "references": [ { "exactQuote": "...", "url": "..." } ] | null }
Use "search" when you need more evidence and can name a concrete query. Use "reflect" when the question should be broken into sub-questions. Use "answer" only when you can write a definitive, well-structured answer grounded in the sources you have gathered, with a references list citing the URLs you relied on.`

// Builder renders the system and user messages for one LLM call.
type Builder struct{}

// Build returns the system and user prompt strings for in. The aggregated
// content is truncated at a sentence boundary when it would otherwise push
// the prompt past the target model's context window.
func (Builder) Build(in Input) (system string, user string) {
	var header strings.Builder
	fmt.Fprintf(&header, "Current date: %s\n\n", in.Now.Format("2006-01-02"))
	fmt.Fprintf(&header, "Question: %s\n\n", in.Question)

	var tail strings.Builder
	if len(in.Diary) > 0 {
		tail.WriteString("Diary (previous steps, oldest first):\n")
		for _, d := range in.Diary {
			fmt.Fprintf(&tail, "- %s %s\n", d.Timestamp.Format(time.RFC3339), d.Message)
		}
		tail.WriteString("\n")
	}
	if len(in.Visited) > 0 {
		tail.WriteString("Visited URLs so far:\n")
		for _, u := range in.Visited {
			tail.WriteString("- ")
			tail.WriteString(u)
			tail.WriteString("\n")
		}
		tail.WriteString("\n")
	}
	tail.WriteString("Respond with a single JSON object following the schema described in the system message.")

	content := renderContents(in.Contents)
	content = fitContentToBudget(in.Model, header.String(), tail.String(), content)

	var sb strings.Builder
	sb.WriteString(header.String())
	sb.WriteString(content)
	sb.WriteString(tail.String())
	return systemPrompt, sb.String()
}

func renderContents(contents []selecter.Content) string {
	if len(contents) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("Gathered content:\n")
	for i, c := range contents {
		fmt.Fprintf(&sb, "[%d] %s — %s\n", i+1, c.Title, c.URL)
		if strings.TrimSpace(c.Text) != "" {
			sb.WriteString(c.Text)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// fitContentToBudget trims the gathered-content block at a sentence
// boundary when header+content+tail would not fit in the model's context
// window alongside a reservation for the model's reply.
func fitContentToBudget(model, header, tail, content string) string {
	if content == "" {
		return content
	}
	nonContent := budget.EstimatePromptTokens(systemPrompt, header+tail, nil)
	if budget.FitsInContext(model, reservedOutputTokens, nonContent+budget.EstimateTokens(content)) {
		return content
	}
	contentBudgetTokens := budget.RemainingContextWithHeadroom(model, reservedOutputTokens, nonContent)
	maxChars := contentBudgetTokens * 4
	return truncateAtSentenceBoundary(content, maxChars)
}

// truncateAtSentenceBoundary cuts s to at most maxChars, backing up to the
// nearest preceding sentence end so cut content doesn't trail mid-sentence.
func truncateAtSentenceBoundary(s string, maxChars int) string {
	if maxChars <= 0 {
		return "[content omitted: exceeds the model's context window]\n\n"
	}
	if len(s) <= maxChars {
		return s
	}
	cut := s[:maxChars]
	if end := lastSentenceEnd(cut); end > 0 {
		cut = cut[:end]
	}
	return strings.TrimRight(cut, " \n") + "\n\n[content truncated to fit the model's context window]\n\n"
}

func lastSentenceEnd(s string) int {
	best := -1
	for _, marker := range []string{". ", "! ", "? ", ".\n", "!\n", "?\n"} {
		if idx := strings.LastIndex(s, marker); idx >= 0 && idx+1 > best {
			best = idx + 1
		}
	}
	return best
}
