package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	Question   string
	OutputPath string // empty means stdout

	// Search
	SearchHTMLURL   string // e.g. "https://html.duckduckgo.com/html/"; empty disables the HTML provider
	SearchJSONURL   string // e.g. a SearxNG instance's /search endpoint; empty disables the JSON-API provider
	SearchJSONKey   string
	SearchUserAgent string

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string

	// Agent budgeting / behavior
	MaxBadAttempts       int
	TokenBudget          int
	ContentTokenBudget   int
	MaxSearchQueries     int
	MinAnswerLength      int
	MinSources           int
	StepSleep            time.Duration
	SimpleDefinitiveness bool
	LenientParsing       bool

	// Fetch / politeness
	FetchMaxAttempts     int
	FetchTimeout         time.Duration
	FetchMaxConcurrent   int
	RobotsEntryExpiry    time.Duration
	AllowPrivateHosts    bool

	// Behavior
	DryRun  bool
	Verbose bool
}
