package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/openresearch/deepresearch/internal/agent"
	apppkg "github.com/openresearch/deepresearch/internal/app"
)

// Smoke test: ensure main.run writes output in dry-run mode with minimal config.
func TestRun_DryRun_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.md")
	cfg := apppkg.Config{
		Question:      "What is the capital of Finland?",
		OutputPath:    out,
		SearchJSONURL: "http://example.invalid/search",
		DryRun:        true,
	}
	if err := run(cfg); err != nil {
		t.Fatalf("run error: %v", err)
	}
	b, err := os.ReadFile(out)
	if err != nil || len(b) == 0 {
		t.Fatalf("expected output file, err=%v", err)
	}
}

func TestExitCodeFor_MapsResearchFailuresToTwo(t *testing.T) {
	if got := exitCodeFor(agent.ErrTokenBudgetExceeded); got != 2 {
		t.Fatalf("expected exit code 2 for a research sentinel error, got %d", got)
	}
}

func TestExitCodeFor_FallsBackToOneForOtherErrors(t *testing.T) {
	if got := exitCodeFor(errors.New("some unrelated failure")); got != 1 {
		t.Fatalf("expected fallback exit code 1, got %d", got)
	}
}
