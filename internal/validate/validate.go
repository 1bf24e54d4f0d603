// Package validate checks an agent's final answer against the visited-URL
// references it cites, flagging citation indices that point nowhere.
package validate

import (
	"regexp"
	"sort"
)

// Citations represents the validation result for inline [n] citations
// relative to a references list of length N.
type Citations struct {
	// InRange lists citation indices that are valid (1..N)
	InRange []int
	// OutOfRange lists citation indices that reference >N or <1
	OutOfRange []int
	// MissingReferences is true if N == 0 while citations exist
	MissingReferences bool
}

var citeRe = regexp.MustCompile(`\[(\d+)\]`)

// ValidateCitations scans an answer body for [n] patterns and compares
// against the number of references attached to it. Used when assembling the
// final "Sources:" appendix to flag indices that don't correspond to any
// visited URL; callers log the result rather than treating it as fatal.
func ValidateCitations(answer string, numReferences int) Citations {
	matches := citeRe.FindAllStringSubmatch(answer, -1)
	seen := map[int]struct{}{}
	var inRange []int
	var outRange []int
	for _, m := range matches {
		if len(m) != 2 {
			continue
		}
		var n int
		for _, ch := range m[1] {
			n = n*10 + int(ch-'0')
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		if n >= 1 && n <= numReferences {
			inRange = append(inRange, n)
		} else {
			outRange = append(outRange, n)
		}
	}
	sort.Ints(inRange)
	sort.Ints(outRange)
	return Citations{InRange: inRange, OutOfRange: outRange, MissingReferences: numReferences == 0 && len(matches) > 0}
}
