package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/openresearch/deepresearch/internal/agent"
	"github.com/openresearch/deepresearch/internal/app"
	"github.com/openresearch/deepresearch/internal/search"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		question           string
		outputPath         string
		searchHTMLURL      string
		searchJSONURL      string
		searchJSONKey      string
		llmBaseURL         string
		llmModel           string
		llmKey             string
		maxBadAttempts     int
		tokenBudget        int
		contentTokenBudget int
		maxSearchQueries   int
		minAnswerLength    int
		minSources         int
		simpleDefiniteness bool
		lenientParsing     bool
		dryRun             bool
		verbose            bool
		envFile            string
		configFile         string
	)

	flag.StringVar(&question, "question", "", "The research question to answer")
	flag.StringVar(&outputPath, "output", "", "Path to write the final answer; empty writes to stdout")
	flag.StringVar(&searchHTMLURL, "search.html", os.Getenv("SEARCH_HTML_URL"), "HTML search results page base URL")
	flag.StringVar(&searchJSONURL, "search.json", os.Getenv("SEARCH_JSON_URL"), "JSON search API base URL")
	flag.StringVar(&searchJSONKey, "search.jsonKey", os.Getenv("SEARCH_JSON_KEY"), "JSON search API key (optional)")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for the OpenAI-compatible server")
	flag.IntVar(&maxBadAttempts, "maxBadAttempts", 3, "Unproductive dispatch outcomes tolerated before giving up")
	flag.IntVar(&tokenBudget, "tokenBudget", 900_000, "Maximum estimated tokens for a run")
	flag.IntVar(&contentTokenBudget, "contentTokenBudget", 900_000, "Maximum estimated tokens of admitted page content per prompt")
	flag.IntVar(&maxSearchQueries, "maxSearchQueries", 4, "Query variations seeded ahead of the original question")
	flag.IntVar(&minAnswerLength, "minAnswerLength", 0, "Minimum answer length for the strict definitiveness test (0 means no minimum length)")
	flag.IntVar(&minSources, "minSources", 0, "Minimum references for the strict definitiveness test")
	flag.BoolVar(&simpleDefiniteness, "simpleDefiniteness", false, "Use the length+hedging definitiveness test instead of the structural one")
	flag.BoolVar(&lenientParsing, "lenientParsing", false, "Use the never-fails prose parser instead of the strict JSON decoder")
	flag.BoolVar(&dryRun, "dry-run", false, "Print the question without invoking the agent")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&envFile, "envFile", "", "Optional dotenv file to load before reading flags/env")
	flag.StringVar(&configFile, "config", "", "Optional YAML/JSON config file")
	flag.Parse()

	if envFile != "" {
		if err := app.LoadEnvFiles(envFile); err != nil {
			log.Warn().Err(err).Str("file", envFile).Msg("failed to load env file")
		}
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := app.Config{
		Question:             question,
		OutputPath:           outputPath,
		SearchHTMLURL:        searchHTMLURL,
		SearchJSONURL:        searchJSONURL,
		SearchJSONKey:        searchJSONKey,
		LLMBaseURL:           llmBaseURL,
		LLMModel:             llmModel,
		LLMAPIKey:            llmKey,
		MaxBadAttempts:       maxBadAttempts,
		TokenBudget:          tokenBudget,
		ContentTokenBudget:   contentTokenBudget,
		MaxSearchQueries:     maxSearchQueries,
		MinAnswerLength:      minAnswerLength,
		MinSources:           minSources,
		SimpleDefinitiveness: simpleDefiniteness,
		LenientParsing:       lenientParsing,
		DryRun:               dryRun,
		Verbose:              verbose,
	}

	if configFile != "" {
		if fc, err := app.LoadConfigFile(configFile); err != nil {
			log.Warn().Err(err).Str("file", configFile).Msg("failed to load config file")
		} else {
			app.ApplyFileConfig(&cfg, fc)
		}
	}
	app.ApplyEnvToConfig(&cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps the research loop's sentinel errors to process exit
// codes in the teacher's narrow-matching idiom: a definitive failure to
// produce any answer is a hard failure; everything else is a warning.
func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrNoSearchResults),
		errors.Is(err, agent.ErrTokenBudgetExceeded),
		errors.Is(err, agent.ErrInvalidLLMResponse),
		errors.Is(err, agent.ErrCancelled),
		errors.Is(err, search.ErrInvalidQuery):
		return 2
	default:
		return 1
	}
}

func run(cfg app.Config) error {
	ctx := context.Background()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	return a.Run(ctx)
}
