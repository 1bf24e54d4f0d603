package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestNew_DryRunSkipsLLMPreflight(t *testing.T) {
	cfg := Config{
		Question:      "What is the tallest mountain?",
		SearchJSONURL: "http://example.invalid/search",
		DryRun:        true,
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer a.Close()
	if a.agent == nil {
		t.Fatalf("expected an agent to be wired even in dry-run mode")
	}
}

func TestRun_DryRun_WritesQuestionToOutputFile(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "answer.md")
	cfg := Config{
		Question:      "What is the tallest mountain?",
		OutputPath:    out,
		SearchJSONURL: "http://example.invalid/search",
		DryRun:        true,
	}
	a, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("init error: %v", err)
	}
	defer a.Close()
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || len(b) == 0 {
		t.Fatalf("expected a non-empty output file, err=%v", err)
	}
}

func TestValidateConfig_RequiresAQuestion(t *testing.T) {
	cfg := Config{SearchJSONURL: "http://example.invalid/search", DryRun: true}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected an error for a missing question")
	}
}

func TestValidateConfig_RequiresASearchProvider(t *testing.T) {
	cfg := Config{Question: "anything", DryRun: true}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected an error when no search provider is configured")
	}
}

func TestValidateConfig_RequiresModelWhenNotDryRun(t *testing.T) {
	cfg := Config{Question: "anything", SearchJSONURL: "http://example.invalid/search"}
	if err := ValidateConfig(cfg); err == nil {
		t.Fatalf("expected an error for a missing LLM model outside dry-run")
	}
}

func TestApplyEnvToConfig_LeavesExplicitValuesAlone(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	cfg := Config{LLMModel: "flag-model"}
	ApplyEnvToConfig(&cfg)
	if cfg.LLMModel != "flag-model" {
		t.Fatalf("expected explicit flag value to win, got %q", cfg.LLMModel)
	}
}

func TestApplyEnvToConfig_FillsUnsetFields(t *testing.T) {
	t.Setenv("LLM_MODEL", "env-model")
	cfg := Config{}
	ApplyEnvToConfig(&cfg)
	if cfg.LLMModel != "env-model" {
		t.Fatalf("expected env value to fill unset field, got %q", cfg.LLMModel)
	}
}

func TestApplyFileConfig_FillsUnsetFieldsOnly(t *testing.T) {
	cfg := Config{Question: "explicit question"}
	fc := FileConfig{}
	fc.Question = "file question"
	fc.LLM.Model = "file-model"
	ApplyFileConfig(&cfg, fc)
	if cfg.Question != "explicit question" {
		t.Fatalf("expected explicit question to win, got %q", cfg.Question)
	}
	if cfg.LLMModel != "file-model" {
		t.Fatalf("expected file config to fill unset LLM model, got %q", cfg.LLMModel)
	}
}
