package extract

import (
	"net/url"
	"strings"
)

// ExtractorFactory resolves search-result URLs through known redirectors
// and dispatches to a site-specific extractor when one is registered,
// falling back to the generic web extractor otherwise.
type ExtractorFactory struct {
	Generic Extractor
	// BySuffix maps a lower-cased host suffix (e.g. "reddit.com") to the
	// extractor that should handle it.
	BySuffix map[string]Extractor
}

// NewExtractorFactory builds a factory with the generic extractor as the
// default and a social-thread extractor registered for common discussion
// sites.
func NewExtractorFactory(generic Extractor, social Extractor) *ExtractorFactory {
	return &ExtractorFactory{
		Generic: generic,
		BySuffix: map[string]Extractor{
			"reddit.com":    social,
			"old.reddit.com": social,
		},
	}
}

// For resolves rawURL (unwrapping a `uddg=` redirector param if present) and
// returns the extractor registered for its host, or the generic extractor.
func (f *ExtractorFactory) For(rawURL string) (Extractor, string) {
	resolved := UnwrapRedirect(rawURL)
	host := hostOf(resolved)
	for suffix, ex := range f.BySuffix {
		if host == suffix || strings.HasSuffix(host, "."+suffix) {
			if ex != nil {
				return ex, resolved
			}
		}
	}
	return f.Generic, resolved
}

// UnwrapRedirect extracts the inner target URL from a `uddg=`-style
// redirector link, URL-decoding it. It is idempotent: a plain URL with no
// such parameter is returned unchanged.
func UnwrapRedirect(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	if inner := q.Get("uddg"); inner != "" {
		if decoded, err := url.QueryUnescape(inner); err == nil {
			return UnwrapRedirect(decoded)
		}
	}
	return rawURL
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
