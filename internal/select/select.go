// Package selecter admits extracted page content into the agent's working
// context under a hard token budget, shortest-first so more distinct sources
// survive than a few long ones would.
package selecter

import (
	"sort"

	"github.com/openresearch/deepresearch/internal/budget"
)

// Content is a single extracted page ready for budget admission.
type Content struct {
	URL   string
	Title string
	Text  string
}

// Admit greedily accepts contents in ascending size order until the next
// candidate would exceed tokenBudget, returning the admitted slice (in
// original relative order) and the total tokens it consumes. tokenBudget<=0
// admits nothing.
func Admit(contents []Content, tokenBudget int) ([]Content, int) {
	if tokenBudget <= 0 || len(contents) == 0 {
		return nil, 0
	}

	type sized struct {
		idx    int
		tokens int
	}
	sizes := make([]sized, len(contents))
	for i, c := range contents {
		sizes[i] = sized{idx: i, tokens: budget.EstimateTokens(c.Text)}
	}
	sort.SliceStable(sizes, func(i, j int) bool { return sizes[i].tokens < sizes[j].tokens })

	admitted := make([]int, 0, len(contents))
	used := 0
	for _, s := range sizes {
		if used+s.tokens > tokenBudget {
			continue
		}
		admitted = append(admitted, s.idx)
		used += s.tokens
	}
	sort.Ints(admitted)

	out := make([]Content, 0, len(admitted))
	for _, i := range admitted {
		out = append(out, contents[i])
	}
	return out, used
}
