package agent

import (
	"strings"

	"github.com/openresearch/deepresearch/internal/llmparser"
)

var hedgingPhrases = []string{
	"i don't know",
	"unsure",
	"not available",
	"insufficient information",
}

var structuralKeywords = []string{"summary", "background", "analysis", "conclusion"}

var discourseMarkers = []string{"first", "additionally", "furthermore", "in conclusion"}

// isDefinite decides whether answer is a finished, citation-bearing result
// rather than a bad attempt. Both variants reject a hedging answer outright;
// they differ in how strict the remaining structural check is.
func (a *Agent) isDefinite(answer string, references []llmparser.Reference) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range hedgingPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}

	if a.Cfg.SimpleDefinitiveness {
		return len(answer) > 30
	}

	if len(answer) < a.Cfg.MinAnswerLength {
		return false
	}
	for _, kw := range structuralKeywords {
		if !strings.Contains(lower, kw) {
			return false
		}
	}
	if !strings.Contains(answer, "\n\n") {
		return false
	}
	hasMarker := false
	for _, m := range discourseMarkers {
		if strings.Contains(lower, m) {
			hasMarker = true
			break
		}
	}
	if !hasMarker {
		return false
	}
	return len(references) >= a.Cfg.MinSources
}
