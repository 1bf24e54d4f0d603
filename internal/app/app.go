package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/openresearch/deepresearch/internal/agent"
	"github.com/openresearch/deepresearch/internal/extract"
	"github.com/openresearch/deepresearch/internal/fetch"
	"github.com/openresearch/deepresearch/internal/llm"
	"github.com/openresearch/deepresearch/internal/planner"
	"github.com/openresearch/deepresearch/internal/reflect"
	"github.com/openresearch/deepresearch/internal/robots"
	"github.com/openresearch/deepresearch/internal/search"
)

const userAgentDefault = "deepresearch/1.0 (+https://github.com/openresearch/deepresearch)"

// App wires the configured search providers, content extractors, and LLM
// client into a research Agent and drives one question through it.
type App struct {
	cfg   Config
	ai    *openai.Client
	agent *agent.Agent
}

// New builds an App from cfg. It performs a best-effort LLM connectivity
// check (model listing) but never fails startup on that check alone; a
// dry run or a misconfigured backend should still surface through Run's
// normal error handling.
func New(ctx context.Context, cfg Config) (*App, error) {
	transportCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		transportCfg.BaseURL = cfg.LLMBaseURL
	}
	transportCfg.HTTPClient = newHighThroughputHTTPClient()
	client := openai.NewClientWithConfig(transportCfg)

	a := &App{cfg: cfg, ai: client}

	if !cfg.DryRun {
		preflightCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if models, err := client.ListModels(preflightCtx); err != nil {
			log.Warn().Err(err).Msg("LLM model list failed; continuing")
		} else if len(models.Models) > 0 {
			log.Info().Int("count", len(models.Models)).Msg("LLM models available")
		} else {
			log.Warn().Msg("LLM returned zero models")
		}
	}

	a.agent = a.buildAgent()
	return a, nil
}

func (a *App) Close() {}

func (a *App) userAgent() string {
	if a.cfg.SearchUserAgent != "" {
		return a.cfg.SearchUserAgent
	}
	return userAgentDefault
}

func (a *App) buildAgent() *agent.Agent {
	llmProvider := &llm.OpenAIProvider{Inner: a.ai}

	robotsMgr := &robots.Manager{
		HTTPClient:        newHighThroughputHTTPClient(),
		UserAgent:         a.userAgent(),
		EntryExpiry:       a.robotsEntryExpiry(),
		AllowPrivateHosts: a.cfg.AllowPrivateHosts,
	}

	fetchClient := &fetch.Client{
		HTTPClient:        newHighThroughputHTTPClient(),
		UserAgent:         a.userAgent(),
		MaxAttempts:       a.fetchMaxAttempts(),
		PerRequestTimeout: a.fetchTimeout(),
		RedirectMaxHops:   5,
		MaxConcurrent:     a.fetchMaxConcurrent(),
		Robots:            robotsMgr,
		AllowPrivateHosts: a.cfg.AllowPrivateHosts,
	}

	generic := extract.GenericWebExtractor{HTTPClient: fetchClient}
	social := &extract.SocialThreadExtractor{HTTPClient: fetchClient}
	extractors := extract.NewExtractorFactory(generic, social)

	return &agent.Agent{
		Search:     a.buildSearchProvider(),
		Extractors: extractors,
		LLM:        llmProvider,
		Planner:    a.buildPlanner(llmProvider),
		Reflector:  &reflect.Expander{Client: llmProvider, Model: a.cfg.LLMModel},
		Cfg: agent.Config{
			Model:                a.cfg.LLMModel,
			StepSleep:            a.cfg.StepSleep,
			MaxBadAttempts:       a.cfg.MaxBadAttempts,
			TokenBudget:          a.cfg.TokenBudget,
			ContentTokenBudget:   a.cfg.ContentTokenBudget,
			MaxSearchQueries:     a.cfg.MaxSearchQueries,
			MinAnswerLength:      a.cfg.MinAnswerLength,
			MinSources:           a.cfg.MinSources,
			SimpleDefinitiveness: a.cfg.SimpleDefinitiveness,
			LenientParsing:       a.cfg.LenientParsing,
			Verbose:              a.cfg.Verbose,
		},
	}
}

func (a *App) buildSearchProvider() search.Provider {
	var providers []search.Provider
	if a.cfg.SearchHTMLURL != "" {
		providers = append(providers, &search.HTMLProvider{
			BaseURL:            a.cfg.SearchHTMLURL,
			ResultContainerSel: ".result",
			ResultSel:          "a.result__a",
			SnippetSel:         ".result__snippet",
			HTTPClient:         newHighThroughputHTTPClient(),
			UserAgent:          a.userAgent(),
		})
	}
	if a.cfg.SearchJSONURL != "" {
		providers = append(providers, &search.JSONAPIProvider{
			BaseURL:    a.cfg.SearchJSONURL,
			APIKey:     a.cfg.SearchJSONKey,
			HTTPClient: newHighThroughputHTTPClient(),
			UserAgent:  a.userAgent(),
		})
	}
	switch len(providers) {
	case 0:
		return nil
	case 1:
		return providers[0]
	default:
		return &search.CompositeProvider{Providers: providers}
	}
}

// queryExpanderFacade tries the LLM-backed expander first and falls back to
// the deterministic one, matching the teacher's planner-facade pattern.
type queryExpanderFacade struct {
	llm *planner.LLMQueryExpander
	fb  planner.FallbackQueryExpander
}

func (f *queryExpanderFacade) Expand(ctx context.Context, question string) ([]string, error) {
	if f.llm != nil {
		if qs, err := f.llm.Expand(ctx, question); err == nil {
			return qs, nil
		} else {
			log.Warn().Err(err).Msg("query expansion failed, using fallback")
		}
	}
	return f.fb.Expand(ctx, question)
}

func (a *App) buildPlanner(llmProvider llm.Client) planner.QueryExpander {
	facade := &queryExpanderFacade{}
	if a.cfg.LLMModel != "" {
		facade.llm = &planner.LLMQueryExpander{Client: llmProvider, Model: a.cfg.LLMModel, Verbose: a.cfg.Verbose}
	}
	return facade
}

func (a *App) robotsEntryExpiry() time.Duration {
	if a.cfg.RobotsEntryExpiry > 0 {
		return a.cfg.RobotsEntryExpiry
	}
	return 1 * time.Hour
}

func (a *App) fetchMaxAttempts() int {
	if a.cfg.FetchMaxAttempts > 0 {
		return a.cfg.FetchMaxAttempts
	}
	return 2
}

func (a *App) fetchTimeout() time.Duration {
	if a.cfg.FetchTimeout > 0 {
		return a.cfg.FetchTimeout
	}
	return 15 * time.Second
}

func (a *App) fetchMaxConcurrent() int {
	if a.cfg.FetchMaxConcurrent > 0 {
		return a.cfg.FetchMaxConcurrent
	}
	return 8
}

// Run drives the configured question through the agent and writes the
// answer to cfg.OutputPath, or stdout when unset.
func (a *App) Run(ctx context.Context) error {
	if a.cfg.DryRun {
		log.Info().Str("question", a.cfg.Question).Msg("dry run: agent not invoked")
		return a.writeOutput(fmt.Sprintf("# deepresearch (dry run)\n\nQuestion: %s\n", a.cfg.Question))
	}

	answer, err := a.agent.GetResponse(ctx, a.cfg.Question, a.cfg.MaxBadAttempts)
	if err != nil {
		return fmt.Errorf("get response: %w", err)
	}
	return a.writeOutput(answer)
}

func (a *App) writeOutput(content string) error {
	if a.cfg.OutputPath == "" {
		_, err := fmt.Fprintln(os.Stdout, content)
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
	return nil
}
