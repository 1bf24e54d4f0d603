package agent

import "time"

// Config holds the immutable knobs for one Agent. All fields are safe at
// their zero value except where noted; Agent applies sensible defaults in
// GetResponse for anything left unset.
type Config struct {
	// Model is the chat-completion model name passed to the LLM client.
	Model string

	// StepSleep is paused at the top of every iteration, mirroring the
	// source's cooperative-yield pacing. Zero disables the pause.
	StepSleep time.Duration

	// MaxBadAttempts bounds how many unproductive dispatch outcomes the
	// loop tolerates before returning (Beast Mode if no candidate exists).
	// Defaults to 3 when zero.
	MaxBadAttempts int

	// TokenBudget is the maximum estimated tokens (prompt + reply) a run
	// may consume before failing with ErrTokenBudgetExceeded. Defaults to
	// 900,000 when zero.
	TokenBudget int

	// ContentTokenBudget caps the aggregate estimated size of extracted
	// page content admitted into a single prompt. Defaults to 900,000
	// when zero, matching the source's content-budget default.
	ContentTokenBudget int

	// MaxSearchQueries bounds how many LLM-generated query variations are
	// seeded ahead of the original question at the start of a run.
	// Defaults to 4 when zero.
	MaxSearchQueries int

	// MinAnswerLength and MinSources parameterize the strict
	// definitiveness test; see isDefinite.
	MinAnswerLength int
	MinSources      int

	// SimpleDefinitiveness selects the "length > 30, no hedging phrase"
	// variant over the stricter structural check. The structural check is
	// the default (zero value), per the source's preference for it when
	// MinAnswerLength is configured.
	SimpleDefinitiveness bool

	// LenientParsing selects the never-fails prose parser over the strict
	// JSON decoder for every LLM reply in the loop. The strict decoder is
	// the default (zero value).
	LenientParsing bool

	Verbose bool
}

func (c Config) maxBadAttempts() int {
	if c.MaxBadAttempts > 0 {
		return c.MaxBadAttempts
	}
	return 3
}

func (c Config) tokenBudget() int {
	if c.TokenBudget > 0 {
		return c.TokenBudget
	}
	return 900_000
}

func (c Config) contentTokenBudget() int {
	if c.ContentTokenBudget > 0 {
		return c.ContentTokenBudget
	}
	return 900_000
}

func (c Config) maxSearchQueries() int {
	if c.MaxSearchQueries > 0 {
		return c.MaxSearchQueries
	}
	return 4
}
