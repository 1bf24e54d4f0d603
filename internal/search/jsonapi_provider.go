package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openresearch/deepresearch/internal/ratelimit"
)

const (
	jsonAPIPageSize     = 10
	jsonAPIMaxPages     = 6
	jsonAPIMaxResults   = 60
	jsonAPIPageDelay    = 500 * time.Millisecond
	jsonAPIRatePerMin   = 60
)

// JSONAPIProvider queries a paginated JSON search API (e.g. a SearxNG
// instance's /search?format=json endpoint, or any compatible backend).
// It paginates in pages of 10 up to 6 pages (60 results), stopping early
// when a page returns nothing or the accumulated total reaches the cap.
type JSONAPIProvider struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
	UserAgent  string

	limiter *ratelimit.Limiter
}

func (p *JSONAPIProvider) Name() string { return "json-api" }

func (p *JSONAPIProvider) ensureLimiter() *ratelimit.Limiter {
	if p.limiter == nil {
		p.limiter = ratelimit.New(jsonAPIRatePerMin)
	}
	return p.limiter
}

// Search implements Provider.
func (p *JSONAPIProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if p.BaseURL == "" {
		return nil, fmt.Errorf("%w: missing base url", ErrInvalidResponse)
	}
	limiter := p.ensureLimiter()

	out := make([]Result, 0, jsonAPIMaxResults)
	for page := 0; page < jsonAPIMaxPages; page++ {
		if err := limiter.WaitForSlot(ctx); err != nil {
			return out, err
		}
		results, err := p.fetchPage(ctx, query, page)
		if err != nil {
			log.Warn().Err(err).Str("query", query).Int("page", page).Msg("json-api page failed")
			break
		}
		if len(results) == 0 {
			break
		}
		out = append(out, results...)
		if len(out) >= jsonAPIMaxResults {
			out = out[:jsonAPIMaxResults]
			break
		}
		if page < jsonAPIMaxPages-1 {
			select {
			case <-ctx.Done():
				return out, ctx.Err()
			case <-time.After(jsonAPIPageDelay):
			}
		}
	}
	if len(out) == 0 {
		return nil, ErrNoResultsFound
	}
	return out, nil
}

func (p *JSONAPIProvider) fetchPage(ctx context.Context, query string, page int) ([]Result, error) {
	u, err := url.Parse(p.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !strings.HasSuffix(u.Path, "/search") {
		u.Path = strings.TrimRight(u.Path, "/") + "/search"
	}
	q := u.Query()
	q.Set("q", query)
	q.Set("format", "json")
	q.Set("pageno", strconv.Itoa(page+1))
	q.Set("count", strconv.Itoa(jsonAPIPageSize))
	if p.APIKey != "" {
		q.Set("apikey", p.APIKey)
	}
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
	var payload jsonAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	out := make([]Result, 0, len(payload.Results))
	for _, r := range payload.Results {
		if r.URL == "" || r.Title == "" {
			continue
		}
		absURL, err := validateAbsoluteURL(r.URL)
		if err != nil {
			continue
		}
		out = append(out, Result{
			Title:   strings.TrimSpace(r.Title),
			URL:     absURL,
			Snippet: strings.TrimSpace(r.Content),
			Source:  p.Name(),
		})
		if len(out) >= jsonAPIPageSize {
			break
		}
	}
	return out, nil
}

type jsonAPIResponse struct {
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}
