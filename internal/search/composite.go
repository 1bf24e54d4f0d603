package search

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/openresearch/deepresearch/internal/aggregate"
)

// CompositeProvider fans a query out to every configured child concurrently,
// unions their results (first-seen order, deduped by URL), and fails only
// when every child failed and nothing was collected.
type CompositeProvider struct {
	Providers []Provider
}

func (c *CompositeProvider) Name() string { return "composite" }

// Search implements Provider.
func (c *CompositeProvider) Search(ctx context.Context, query string) ([]Result, error) {
	if err := validateQuery(query); err != nil {
		return nil, err
	}
	if len(c.Providers) == 0 {
		return nil, ErrNoResultsFound
	}

	groups := make([][]Result, len(c.Providers))
	errs := make([]error, len(c.Providers))

	var wg sync.WaitGroup
	for i, p := range c.Providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results, err := p.Search(ctx, query)
			if err != nil {
				errs[i] = err
				log.Warn().Err(err).Str("provider", p.Name()).Str("query", query).Msg("composite: child provider failed")
				return
			}
			groups[i] = results
		}(i, p)
	}
	wg.Wait()

	merged := aggregate.MergeAndNormalize(toResultGroups(groups))

	if len(merged) == 0 {
		return nil, firstError(errs)
	}
	return merged, nil
}

func toResultGroups(groups [][]Result) [][]aggregate.Result {
	out := make([][]aggregate.Result, len(groups))
	for i, g := range groups {
		conv := make([]aggregate.Result, len(g))
		for j, r := range g {
			conv[j] = aggregate.Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet, Source: r.Source}
		}
		out[i] = conv
	}
	return out
}

func firstError(errs []error) error {
	var msgs []string
	var first error
	for _, e := range errs {
		if e == nil {
			continue
		}
		if first == nil {
			first = e
		}
		msgs = append(msgs, e.Error())
	}
	if first == nil {
		return ErrNoResultsFound
	}
	return fmt.Errorf("%w: all providers failed: %s", ErrNoResultsFound, strings.Join(msgs, "; "))
}
