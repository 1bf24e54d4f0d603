package extract

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/openresearch/deepresearch/internal/fetch"
)

func newTestExtractor() GenericWebExtractor {
	return GenericWebExtractor{HTTPClient: &fetch.Client{
		HTTPClient:      http.DefaultClient,
		UserAgent:       "deepresearch-test/1.0",
		MaxAttempts:     1,
		RedirectMaxHops: 2,
		MaxConcurrent:   4,
	}}
}

func TestExtractContent_DecodesDeclaredCharset(t *testing.T) {
	// "café" encoded as ISO-8859-1 so a naive UTF-8 read would mangle the é.
	enc, err := charmap.ISO8859_1.NewEncoder().String("<html><body><article><p>café reviews and café culture notes long enough to pass the minimum usable length threshold for extraction</p></article></body></html>")
	require.NoError(t, err)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		_, _ = w.Write([]byte(enc))
	}))
	defer srv.Close()

	e := newTestExtractor()
	text, err := e.ExtractContent(t.Context(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, text, "café")
}

func TestExtractContent_PassesThroughDeclaredUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body><article><p>plain utf-8 content long enough to clear the minimum usable length threshold for extraction</p></article></body></html>"))
	}))
	defer srv.Close()

	e := newTestExtractor()
	text, err := e.ExtractContent(t.Context(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, text, "plain utf-8 content")
}

func TestExtractContent_FallsBackToTagStrippingWhenStructuredTextIsThin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html><body><aside>" + strings.Repeat("word ", 40) + "</aside></body></html>"))
	}))
	defer srv.Close()

	e := newTestExtractor()
	text, err := e.ExtractContent(t.Context(), srv.URL)
	require.NoError(t, err)
	require.Contains(t, text, "word")
}

func TestCharsetFromContentType(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"text/html; charset=ISO-8859-1", "ISO-8859-1"},
		{"text/html; charset=utf-8", ""},
		{"text/html", ""},
		{`application/json; charset="utf-8"`, ""},
		{"text/html; charset=windows-1252;", "windows-1252"},
	}
	for _, c := range cases {
		if got := charsetFromContentType(c.in); got != c.want {
			t.Fatalf("charsetFromContentType(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
