// Package agent implements the research control loop: it pops gaps from a
// queue, drives concurrent search and extraction, prompts an LLM for a
// decision, and dispatches on that decision until it can return a
// definitive, citation-bearing answer or exhausts its budgets.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/openresearch/deepresearch/internal/budget"
	"github.com/openresearch/deepresearch/internal/extract"
	"github.com/openresearch/deepresearch/internal/llm"
	"github.com/openresearch/deepresearch/internal/llmparser"
	"github.com/openresearch/deepresearch/internal/planner"
	"github.com/openresearch/deepresearch/internal/prompt"
	"github.com/openresearch/deepresearch/internal/reflect"
	"github.com/openresearch/deepresearch/internal/search"
	selecter "github.com/openresearch/deepresearch/internal/select"
	"github.com/openresearch/deepresearch/internal/validate"
)

// Sentinel errors surfaced from GetResponse. These terminate the run; no
// partial answer is returned alongside them.
var (
	ErrNoSearchResults     = errors.New("agent: no search results")
	ErrTokenBudgetExceeded = errors.New("agent: token budget exceeded")
	ErrInvalidLLMResponse  = errors.New("agent: invalid llm response")
	ErrCancelled           = errors.New("agent: cancelled")
)

// Agent owns one research run's state. It is not safe for concurrent use by
// multiple callers of GetResponse; its dependencies (Search, Extractors,
// LLM, Planner, Reflector) are shared, stateless collaborators.
type Agent struct {
	Search     search.Provider
	Extractors *extract.ExtractorFactory
	LLM        llm.Client
	Planner    planner.QueryExpander
	Reflector  *reflect.Expander
	Cfg        Config

	gaps             []string
	visited          map[string]struct{}
	visitedOrder     []string
	diary            []prompt.DiaryEntry
	tokenUsage       int
	candidateAnswers []string
	badAttempts      int
}

func (a *Agent) reset(question string) {
	a.gaps = []string{question}
	a.visited = make(map[string]struct{})
	a.visitedOrder = nil
	a.diary = nil
	a.tokenUsage = 0
	a.candidateAnswers = nil
	a.badAttempts = 0
}

func (a *Agent) logDiary(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	a.diary = append(a.diary, prompt.DiaryEntry{Timestamp: time.Now(), Message: msg})
	if a.Cfg.Verbose {
		log.Debug().Str("stage", "agent").Msg(msg)
	}
}

func (a *Agent) diaryString() string {
	var sb strings.Builder
	for _, d := range a.diary {
		sb.WriteString("- ")
		sb.WriteString(d.Timestamp.Format(time.RFC3339))
		sb.WriteString(" ")
		sb.WriteString(d.Message)
		sb.WriteString("\n")
	}
	return sb.String()
}

// popGap returns the next gap to work on, substituting question when the
// queue is empty rather than ever reading an empty queue directly.
func (a *Agent) popGap(question string) string {
	if len(a.gaps) == 0 {
		return question
	}
	current := a.gaps[0]
	a.gaps = a.gaps[1:]
	return current
}

func (a *Agent) markVisited(url string) bool {
	if _, ok := a.visited[url]; ok {
		return false
	}
	a.visited[url] = struct{}{}
	a.visitedOrder = append(a.visitedOrder, url)
	return true
}

func (a *Agent) withSources(answer string) string {
	if len(a.visitedOrder) == 0 {
		return answer
	}
	if c := validate.ValidateCitations(answer, len(a.visitedOrder)); len(c.OutOfRange) > 0 || c.MissingReferences {
		log.Warn().Ints("outOfRange", c.OutOfRange).Bool("missingReferences", c.MissingReferences).Msg("agent: answer cites references outside the visited-URL list")
	}
	var sb strings.Builder
	sb.WriteString(answer)
	sb.WriteString("\n\nSources:\n")
	sb.WriteString(strings.Join(a.visitedOrder, "\n"))
	return sb.String()
}

// GetResponse runs the control loop for question and returns the final
// answer (with a trailing "Sources:" section) or a terminal error.
// maxBadAttempts overrides Cfg.MaxBadAttempts for this call when positive.
func (a *Agent) GetResponse(ctx context.Context, question string, maxBadAttempts int) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", search.ErrInvalidQuery
	}
	if maxBadAttempts <= 0 {
		maxBadAttempts = a.Cfg.maxBadAttempts()
	}

	a.reset(question)
	a.seedQueries(ctx, question)

	for {
		if err := sleepOrCancel(ctx, a.Cfg.StepSleep); err != nil {
			return "", err
		}

		current := a.popGap(question)

		results, err := a.Search.Search(ctx, current)
		if err != nil {
			a.logDiary("search failed for %q: %v", current, err)
		} else {
			a.logDiary("search returned %d results for %q", len(results), current)
		}

		if (err != nil || len(results) == 0) && len(a.gaps) == 0 {
			return "", fmt.Errorf("%w: %s", ErrNoSearchResults, current)
		}

		unvisited := a.filterUnvisited(results)
		if len(unvisited) == 0 {
			a.gaps = append(a.gaps, current)
			continue
		}
		for _, r := range unvisited {
			a.markVisited(r.URL)
		}

		contents := a.extractConcurrently(ctx, unvisited)
		admitted, _ := selecter.Admit(contents, a.Cfg.contentTokenBudget())

		system, user := prompt.Builder{}.Build(prompt.Input{
			Now:      time.Now(),
			Question: question,
			Contents: admitted,
			Diary:    a.diary,
			Visited:  a.visitedOrder,
			Model:    a.Cfg.Model,
		})

		promptTokens := budget.EstimatePromptTokens(system, user, nil)
		a.tokenUsage += promptTokens
		if a.tokenUsage > a.Cfg.tokenBudget() {
			return "", fmt.Errorf("%w: used=%d budget=%d", ErrTokenBudgetExceeded, a.tokenUsage, a.Cfg.tokenBudget())
		}

		raw, err := llm.ProcessText(ctx, a.LLM, a.Cfg.Model, system, user, true)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidLLMResponse, err)
		}
		a.tokenUsage += budget.EstimateTokens(raw)

		resp, err := a.parse(raw)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidLLMResponse, err)
		}

		a.dispatch(ctx, question, current, resp)

		if len(a.gaps) == 0 || a.badAttempts >= maxBadAttempts {
			if len(a.candidateAnswers) > 0 {
				return a.withSources(a.candidateAnswers[len(a.candidateAnswers)-1]), nil
			}
			return a.beastMode(ctx, question), nil
		}
	}
}

func (a *Agent) seedQueries(ctx context.Context, question string) {
	if a.Planner == nil {
		return
	}
	queries, err := a.Planner.Expand(ctx, question)
	if err != nil || len(queries) == 0 {
		a.logDiary("query expansion unavailable: %v", err)
		return
	}
	n := a.Cfg.maxSearchQueries()
	if n > len(queries) {
		n = len(queries)
	}
	a.gaps = append(append([]string{}, queries[:n]...), question)
	a.logDiary("seeded %d expanded queries", n)
}

func (a *Agent) filterUnvisited(results []search.Result) []search.Result {
	seen := make(map[string]struct{}, len(results))
	out := make([]search.Result, 0, len(results))
	for _, r := range results {
		if _, ok := a.visited[r.URL]; ok {
			continue
		}
		if _, ok := seen[r.URL]; ok {
			continue
		}
		seen[r.URL] = struct{}{}
		out = append(out, r)
	}
	return out
}

func (a *Agent) extractConcurrently(ctx context.Context, results []search.Result) []selecter.Content {
	out := make([]selecter.Content, len(results))
	g, _ := errgroup.WithContext(ctx)
	for i, r := range results {
		i, r := i, r
		g.Go(func() error {
			ex, resolved := a.Extractors.For(r.URL)
			text, err := ex.ExtractContent(ctx, resolved)
			if err != nil {
				log.Warn().Err(err).Str("url", resolved).Msg("agent: extraction failed, dropping")
				return nil
			}
			out[i] = selecter.Content{URL: r.URL, Title: r.Title, Text: text}
			return nil
		})
	}
	_ = g.Wait()

	nonEmpty := make([]selecter.Content, 0, len(out))
	for _, c := range out {
		if strings.TrimSpace(c.Text) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	return nonEmpty
}

func (a *Agent) parse(raw string) (llmparser.Response, error) {
	if a.Cfg.LenientParsing {
		return llmparser.ParseLenient(raw), nil
	}
	return llmparser.ParseStrict(raw)
}

func (a *Agent) dispatch(ctx context.Context, question, current string, resp llmparser.Response) {
	switch resp.Action {
	case llmparser.ActionAnswer:
		a.dispatchAnswer(ctx, question, resp)
	case llmparser.ActionReflect:
		if len(resp.QuestionsToAnswer) > 0 {
			a.gaps = append(a.gaps, resp.QuestionsToAnswer...)
		} else {
			a.gaps = append(a.gaps, current)
		}
		a.badAttempts++
	case llmparser.ActionSearch:
		if strings.TrimSpace(resp.SearchQuery) != "" {
			a.gaps = append([]string{resp.SearchQuery}, a.gaps...)
		} else {
			a.gaps = append(a.gaps, current)
		}
		a.badAttempts++
	default:
		a.badAttempts++
	}
}

func (a *Agent) dispatchAnswer(ctx context.Context, question string, resp llmparser.Response) {
	answer := strings.TrimSpace(resp.Answer)
	if answer == "" {
		a.badAttempts++
		return
	}
	if len(answer) < 40 && a.Reflector != nil {
		if expanded, err := a.Reflector.Expand(ctx, question, answer, a.diaryString()); err == nil {
			answer = expanded
		}
	}
	if a.isDefinite(answer, resp.References) || len(answer) > 50 {
		a.candidateAnswers = append(a.candidateAnswers, answer)
		return
	}
	a.badAttempts++
}

func sleepOrCancel(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	default:
	}
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
	case <-timer.C:
		return nil
	}
}
