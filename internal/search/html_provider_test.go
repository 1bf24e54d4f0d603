package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

const htmlFixture = `<!doctype html><html><body>
<div class="result">
  <a class="result__a" href="https://example.com/a">Result A</a>
  <div class="result__snippet">snippet a</div>
</div>
<div class="result">
  <a class="result__a" href="//example.com/b">Result B</a>
  <div class="result__snippet">snippet b</div>
</div>
</body></html>`

func TestHTMLProvider_ParsesAndNormalizesProtocolRelative(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(htmlFixture))
	}))
	defer srv.Close()

	p := &HTMLProvider{
		BaseURL:            srv.URL,
		ResultContainerSel: ".result",
		ResultSel:          "a.result__a",
		SnippetSel:         ".result__snippet",
		HTTPClient:         srv.Client(),
		MaxVariations:      1,
	}
	got, err := p.Search(context.Background(), "quicksort")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if !strings.HasPrefix(got[1].URL, "https:") {
		t.Fatalf("expected protocol-relative url normalized to https, got %q", got[1].URL)
	}
}

func TestHTMLProvider_SwallowsPerVariationErrorsAndUnions(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(htmlFixture))
	}))
	defer srv.Close()

	p := &HTMLProvider{
		BaseURL:            srv.URL,
		ResultContainerSel: ".result",
		ResultSel:          "a.result__a",
		HTTPClient:         srv.Client(),
		MaxVariations:      2,
	}
	start := time.Now()
	got, err := p.Search(context.Background(), "quicksort")
	if err != nil {
		t.Fatalf("expected swallowed per-variant error, got %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected results from the surviving variation, got %d", len(got))
	}
	if time.Since(start) < HTMLQueryDelay {
		t.Fatalf("expected inter-query delay to be honored")
	}
}

func TestHTMLProvider_EmptyQuery(t *testing.T) {
	p := &HTMLProvider{BaseURL: "http://example.com"}
	_, err := p.Search(context.Background(), "")
	if err != ErrInvalidQuery {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
