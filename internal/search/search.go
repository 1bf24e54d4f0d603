// Package search defines the SearchService contract and its implementations:
// an HTML-scraping provider, a paginated JSON-API provider, and a composite
// provider that fans a query out to every configured child.
package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

// Sentinel errors per the SearchService contract.
var (
	ErrInvalidQuery    = errors.New("search: invalid query")
	ErrInvalidURL      = errors.New("search: invalid url")
	ErrInvalidResponse = errors.New("search: invalid response")
	ErrNoResultsFound  = errors.New("search: no results found")
)

// Result is a single search hit from any provider. Two results are equal
// iff their URLs are equal.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Source  string // provider name, for observability
}

// Provider is the minimal interface satisfied by every search backend.
type Provider interface {
	Search(ctx context.Context, query string) ([]Result, error)
	Name() string
}

// NormalizeURL applies the spec's URL normalization: a protocol-relative
// "//host" becomes "https://host"; everything else passes through.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "//") {
		return "https:" + raw
	}
	return raw
}

func validateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return ErrInvalidQuery
	}
	return nil
}

func validateAbsoluteURL(raw string) (string, error) {
	raw = NormalizeURL(raw)
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() {
		return "", ErrInvalidURL
	}
	return raw, nil
}
