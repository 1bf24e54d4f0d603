package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// HTMLQueryDelay is the minimum spacing between query-variation requests.
const HTMLQueryDelay = 1100 * time.Millisecond

// htmlTopicBroadeners are appended to the raw query to widen recall, per
// spec's fixed list of topic-broadening suffixes.
var htmlTopicBroadeners = []string{"overview", "explained", "guide", "tutorial"}

// HTMLProvider scrapes a search engine's HTML results page. It issues up to
// MaxVariations sequential requests (the raw query plus broadened variants),
// each separated by HTMLQueryDelay, and unions the results by URL.
type HTMLProvider struct {
	BaseURL       string // e.g. "https://html.duckduckgo.com/html/"
	ResultSel     string // CSS selector for a single result anchor, e.g. "a.result__a"
	SnippetSel    string // CSS selector for the snippet relative to the result container, e.g. ".result__snippet"
	ResultContainerSel string // CSS selector for the container wrapping one result
	HTTPClient    *http.Client
	UserAgent     string
	MaxVariations int
}

func (p *HTMLProvider) Name() string { return "html-scrape" }

func (p *HTMLProvider) maxVariations() int {
	if p.MaxVariations > 0 {
		return p.MaxVariations
	}
	return 5
}

// Search implements Provider.
func (p *HTMLProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if p.BaseURL == "" {
		return nil, fmt.Errorf("%w: missing base url", ErrInvalidResponse)
	}

	variations := buildQueryVariations(query, p.maxVariations())

	seen := map[string]struct{}{}
	out := make([]Result, 0, 16)
	var lastErr error
	for i, variant := range variations {
		if i > 0 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(HTMLQueryDelay):
			}
		}
		results, err := p.fetchVariant(ctx, variant)
		if err != nil {
			lastErr = err
			log.Warn().Err(err).Str("variant", variant).Msg("html search variation failed")
			continue
		}
		for _, r := range results {
			if _, dup := seen[r.URL]; dup {
				continue
			}
			seen[r.URL] = struct{}{}
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoResultsFound, lastErr)
		}
		return nil, ErrNoResultsFound
	}
	return out, nil
}

func buildQueryVariations(query string, max int) []string {
	out := []string{query}
	for _, suffix := range htmlTopicBroadeners {
		if len(out) >= max {
			break
		}
		out = append(out, query+" "+suffix)
	}
	return out
}

func (p *HTMLProvider) fetchVariant(ctx context.Context, query string) ([]Result, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	q := u.Query()
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	if p.UserAgent != "" {
		req.Header.Set("User-Agent", p.UserAgent)
	}
	hc := p.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: status %d", ErrInvalidResponse, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	containerSel := p.ResultContainerSel
	if containerSel == "" {
		containerSel = "body"
	}
	resultSel := p.ResultSel
	if resultSel == "" {
		resultSel = "a"
	}

	var out []Result
	doc.Find(containerSel).Each(func(_ int, container *goquery.Selection) {
		anchor := container.Find(resultSel).First()
		if anchor.Length() == 0 {
			if container.Is(resultSel) {
				anchor = container
			} else {
				return
			}
		}
		href, ok := anchor.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		absURL, err := validateAbsoluteURL(href)
		if err != nil {
			return
		}
		title := strings.TrimSpace(anchor.Text())
		if title == "" {
			return
		}
		var snippet string
		if p.SnippetSel != "" {
			snippet = strings.TrimSpace(container.Find(p.SnippetSel).First().Text())
		}
		out = append(out, Result{
			Title:   title,
			URL:     absURL,
			Snippet: snippet,
			Source:  p.Name(),
		})
	})
	return out, nil
}
