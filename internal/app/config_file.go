package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections improve readability and map naturally to flags/env.
type FileConfig struct {
	Question string `yaml:"question" json:"question"`
	Output   string `yaml:"output" json:"output"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Search struct {
		HTMLURL   string `yaml:"htmlURL" json:"htmlURL"`
		JSONURL   string `yaml:"jsonURL" json:"jsonURL"`
		JSONKey   string `yaml:"jsonKey" json:"jsonKey"`
		UserAgent string `yaml:"userAgent" json:"userAgent"`
	} `yaml:"search" json:"search"`

	Budget struct {
		TokenBudget        int `yaml:"tokenBudget" json:"tokenBudget"`
		ContentTokenBudget int `yaml:"contentTokenBudget" json:"contentTokenBudget"`
		MaxBadAttempts     int `yaml:"maxBadAttempts" json:"maxBadAttempts"`
		MaxSearchQueries   int `yaml:"maxSearchQueries" json:"maxSearchQueries"`
		MinAnswerLength    int `yaml:"minAnswerLength" json:"minAnswerLength"`
		MinSources         int `yaml:"minSources" json:"minSources"`
	} `yaml:"budget" json:"budget"`

	Definitiveness struct {
		Simple  bool `yaml:"simple" json:"simple"`
		Lenient bool `yaml:"lenient" json:"lenient"`
	} `yaml:"definitiveness" json:"definitiveness"`

	Fetch struct {
		MaxAttempts   int           `yaml:"maxAttempts" json:"maxAttempts"`
		Timeout       time.Duration `yaml:"timeout" json:"timeout"`
		MaxConcurrent int           `yaml:"maxConcurrent" json:"maxConcurrent"`
	} `yaml:"fetch" json:"fetch"`

	Robots struct {
		EntryExpiry       time.Duration `yaml:"entryExpiry" json:"entryExpiry"`
		AllowPrivateHosts bool          `yaml:"allowPrivateHosts" json:"allowPrivateHosts"`
	} `yaml:"robots" json:"robots"`

	DryRun  bool `yaml:"dryRun" json:"dryRun"`
	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields
// that are currently unset/zero in cfg. Flags should already have been
// parsed; this lets file config supply defaults while preserving explicit
// flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.Question == "" && fc.Question != "" {
		cfg.Question = fc.Question
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}

	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}

	if cfg.SearchHTMLURL == "" && fc.Search.HTMLURL != "" {
		cfg.SearchHTMLURL = fc.Search.HTMLURL
	}
	if cfg.SearchJSONURL == "" && fc.Search.JSONURL != "" {
		cfg.SearchJSONURL = fc.Search.JSONURL
	}
	if cfg.SearchJSONKey == "" && fc.Search.JSONKey != "" {
		cfg.SearchJSONKey = fc.Search.JSONKey
	}
	if cfg.SearchUserAgent == "" && fc.Search.UserAgent != "" {
		cfg.SearchUserAgent = fc.Search.UserAgent
	}

	if cfg.TokenBudget == 0 && fc.Budget.TokenBudget > 0 {
		cfg.TokenBudget = fc.Budget.TokenBudget
	}
	if cfg.ContentTokenBudget == 0 && fc.Budget.ContentTokenBudget > 0 {
		cfg.ContentTokenBudget = fc.Budget.ContentTokenBudget
	}
	if cfg.MaxBadAttempts == 0 && fc.Budget.MaxBadAttempts > 0 {
		cfg.MaxBadAttempts = fc.Budget.MaxBadAttempts
	}
	if cfg.MaxSearchQueries == 0 && fc.Budget.MaxSearchQueries > 0 {
		cfg.MaxSearchQueries = fc.Budget.MaxSearchQueries
	}
	if cfg.MinAnswerLength == 0 && fc.Budget.MinAnswerLength > 0 {
		cfg.MinAnswerLength = fc.Budget.MinAnswerLength
	}
	if cfg.MinSources == 0 && fc.Budget.MinSources > 0 {
		cfg.MinSources = fc.Budget.MinSources
	}

	if !cfg.SimpleDefinitiveness && fc.Definitiveness.Simple {
		cfg.SimpleDefinitiveness = true
	}
	if !cfg.LenientParsing && fc.Definitiveness.Lenient {
		cfg.LenientParsing = true
	}

	if cfg.FetchMaxAttempts == 0 && fc.Fetch.MaxAttempts > 0 {
		cfg.FetchMaxAttempts = fc.Fetch.MaxAttempts
	}
	if cfg.FetchTimeout == 0 && fc.Fetch.Timeout > 0 {
		cfg.FetchTimeout = fc.Fetch.Timeout
	}
	if cfg.FetchMaxConcurrent == 0 && fc.Fetch.MaxConcurrent > 0 {
		cfg.FetchMaxConcurrent = fc.Fetch.MaxConcurrent
	}

	if cfg.RobotsEntryExpiry == 0 && fc.Robots.EntryExpiry > 0 {
		cfg.RobotsEntryExpiry = fc.Robots.EntryExpiry
	}
	if !cfg.AllowPrivateHosts && fc.Robots.AllowPrivateHosts {
		cfg.AllowPrivateHosts = true
	}

	if !cfg.DryRun && fc.DryRun {
		cfg.DryRun = true
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
}

// ValidateConfig performs minimal schema validation for required settings.
// For dry-run, LLM settings may be omitted.
func ValidateConfig(cfg Config) error {
	if trim(cfg.Question) == "" {
		return errors.New("config: question is required")
	}
	if !cfg.DryRun && trim(cfg.LLMModel) == "" {
		return errors.New("config: llm.model is required (or set LLM_MODEL)")
	}
	if cfg.SearchHTMLURL == "" && cfg.SearchJSONURL == "" {
		return errors.New("config: at least one of search.htmlURL or search.jsonURL is required")
	}
	if cfg.TokenBudget < 0 || cfg.ContentTokenBudget < 0 || cfg.MaxBadAttempts < 0 {
		return errors.New("config: negative budgets are not allowed")
	}
	return nil
}

func trim(s string) string {
	i := 0
	j := len(s)
	for i < j && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	for j > i && (s[j-1] == ' ' || s[j-1] == '\t' || s[j-1] == '\n' || s[j-1] == '\r') {
		j--
	}
	return s[i:j]
}
