package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values (e.g. already-parsed flags) take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}

	if cfg.SearchHTMLURL == "" {
		cfg.SearchHTMLURL = os.Getenv("SEARCH_HTML_URL")
	}
	if cfg.SearchJSONURL == "" {
		cfg.SearchJSONURL = os.Getenv("SEARCH_JSON_URL")
	}
	if cfg.SearchJSONKey == "" {
		cfg.SearchJSONKey = os.Getenv("SEARCH_JSON_KEY")
	}

	if cfg.TokenBudget == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("TOKEN_BUDGET"))); err == nil && n > 0 {
			cfg.TokenBudget = n
		}
	}
	if cfg.ContentTokenBudget == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("CONTENT_TOKEN_BUDGET"))); err == nil && n > 0 {
			cfg.ContentTokenBudget = n
		}
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		if s := strings.ToLower(strings.TrimSpace(os.Getenv(envKey))); s != "" {
			if s == "1" || s == "true" || s == "yes" || s == "on" {
				*dst = true
			}
		}
	}
	setBool(&cfg.DryRun, "DRY_RUN")
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.SimpleDefinitiveness, "SIMPLE_DEFINITENESS")
	setBool(&cfg.LenientParsing, "LENIENT_PARSING")
	setBool(&cfg.AllowPrivateHosts, "ALLOW_PRIVATE_HOSTS")

	if cfg.RobotsEntryExpiry == 0 {
		if s := os.Getenv("ROBOTS_ENTRY_EXPIRY"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.RobotsEntryExpiry = d
			}
		}
	}
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment
// variables when the corresponding env vars are set, letting env take
// precedence over file config while flags remain highest precedence (the
// caller applies flag values last).
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("SEARCH_HTML_URL"); v != "" {
		cfg.SearchHTMLURL = v
	}
	if v := os.Getenv("SEARCH_JSON_URL"); v != "" {
		cfg.SearchJSONURL = v
	}
	if v := os.Getenv("SEARCH_JSON_KEY"); v != "" {
		cfg.SearchJSONKey = v
	}
}
