package aggregate

import "testing"

func TestMergeAndNormalize_Dedup_TrimUTM(t *testing.T) {
	groups := [][]Result{
		{
			{Title: "A", URL: "https://example.com/page?utm_source=x&utm_medium=y", Snippet: "one"},
		},
		{
			{Title: "A dup", URL: "https://EXAMPLE.com/page", Snippet: "two"},
		},
	}
	out := MergeAndNormalize(groups)
	if len(out) != 1 {
		t.Fatalf("expected 1 after dedup, got %d", len(out))
	}
	if out[0].URL != "https://example.com/page" {
		t.Fatalf("unexpected normalized url: %q", out[0].URL)
	}
}

func TestMergeAndNormalize_PreservesFirstSeenOrder(t *testing.T) {
	groups := [][]Result{
		{{Title: "First", URL: "https://a.example/1"}},
		{{Title: "Second", URL: "https://b.example/2"}, {Title: "Third", URL: "https://c.example/3"}},
	}
	out := MergeAndNormalize(groups)
	if len(out) != 3 {
		t.Fatalf("expected 3 results, got %d", len(out))
	}
	if out[0].Title != "First" || out[1].Title != "Second" || out[2].Title != "Third" {
		t.Fatalf("unexpected order: %+v", out)
	}
}

func TestMergeAndNormalize_SkipsRelativeURLs(t *testing.T) {
	groups := [][]Result{{{Title: "Bad", URL: "/relative/path"}}}
	out := MergeAndNormalize(groups)
	if len(out) != 0 {
		t.Fatalf("expected relative urls to be skipped, got %d", len(out))
	}
}
