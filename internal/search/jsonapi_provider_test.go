package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
)

func TestJSONAPIProvider_ParsesAcrossPagesUntilEmptyPage(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		page, _ := strconv.Atoi(r.URL.Query().Get("pageno"))
		w.Header().Set("Content-Type", "application/json")
		if page >= 3 {
			_ = json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
			return
		}
		results := []map[string]any{}
		for i := 0; i < 10; i++ {
			results = append(results, map[string]any{
				"title":   fmt.Sprintf("Doc %d-%d", page, i),
				"url":     fmt.Sprintf("https://example.com/%d/%d", page, i),
				"content": "snippet",
			})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"results": results})
	}))
	defer srv.Close()

	p := &JSONAPIProvider{BaseURL: srv.URL, HTTPClient: srv.Client()}
	got, err := p.Search(context.Background(), "quicksort")
	if err != nil {
		t.Fatalf("search error: %v", err)
	}
	if len(got) != 20 {
		t.Fatalf("expected 20 results from 2 non-empty pages, got %d", len(got))
	}
	if hits != 3 {
		t.Fatalf("expected to stop after the first empty page, got %d requests", hits)
	}
}

func TestJSONAPIProvider_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	p := &JSONAPIProvider{BaseURL: srv.URL, HTTPClient: srv.Client()}
	_, err := p.Search(context.Background(), "quicksort")
	if err == nil {
		t.Fatalf("expected error on non-2xx status")
	}
}

func TestJSONAPIProvider_EmptyQuery(t *testing.T) {
	p := &JSONAPIProvider{BaseURL: "http://example.com"}
	_, err := p.Search(context.Background(), "   ")
	if err != ErrInvalidQuery {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
