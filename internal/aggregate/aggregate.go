// Package aggregate merges and deduplicates search result groups. It is
// deliberately decoupled from internal/search's Provider interface — the
// Composite Provider converts at the package boundary — so this package
// depends on nothing in this module and stays reusable.
package aggregate

import (
	"net/url"
	"strings"
)

// Result mirrors search.Result's shape so callers can convert at the
// package boundary without this package importing internal/search.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string
}

// MergeAndNormalize merges result groups, canonicalizes URLs, trims common
// tracking parameters, and deduplicates by URL, preserving first-seen order.
func MergeAndNormalize(groups [][]Result) []Result {
	seen := map[string]struct{}{}
	out := make([]Result, 0, 64)
	for _, g := range groups {
		for _, r := range g {
			if strings.TrimSpace(r.URL) == "" {
				continue
			}
			u, err := url.Parse(r.URL)
			if err != nil || !u.IsAbs() {
				continue
			}
			normalizeURL(u)
			key := u.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			r.URL = key
			out = append(out, r)
		}
	}
	return out
}

func normalizeURL(u *url.URL) {
	u.Fragment = ""
	u.Host = strings.ToLower(u.Host)
	q := u.Query()
	for _, p := range []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content", "utm_id", "gclid", "fbclid"} {
		q.Del(p)
	}
	u.RawQuery = q.Encode()
}
