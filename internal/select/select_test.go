package selecter

import "testing"

func TestAdmit_ShortestFirstMaximizesCount(t *testing.T) {
	in := []Content{
		{URL: "https://a.example/1", Text: repeat("x", 400)},  // ~100 tokens
		{URL: "https://b.example/2", Text: repeat("x", 40)},   // ~10 tokens
		{URL: "https://c.example/3", Text: repeat("x", 4000)}, // ~1000 tokens
	}
	out, used := Admit(in, 120)
	if len(out) != 2 {
		t.Fatalf("expected the two smallest contents admitted, got %d: %+v", len(out), out)
	}
	if out[0].URL != "https://a.example/1" || out[1].URL != "https://b.example/2" {
		t.Fatalf("expected original relative order preserved, got %+v", out)
	}
	if used <= 0 || used > 120 {
		t.Fatalf("used tokens out of range: %d", used)
	}
}

func TestAdmit_ZeroBudgetAdmitsNothing(t *testing.T) {
	in := []Content{{URL: "https://a.example/1", Text: "hello"}}
	out, used := Admit(in, 0)
	if out != nil || used != 0 {
		t.Fatalf("expected nothing admitted with zero budget, got %+v used=%d", out, used)
	}
}

func TestAdmit_EverythingFitsWhenBudgetIsLarge(t *testing.T) {
	in := []Content{
		{URL: "https://a.example/1", Text: "hello world"},
		{URL: "https://b.example/2", Text: "another piece of text"},
	}
	out, _ := Admit(in, 1_000_000)
	if len(out) != len(in) {
		t.Fatalf("expected all contents admitted, got %d", len(out))
	}
}

func repeat(s string, n int) string {
	b := make([]byte, 0, n)
	for len(b) < n {
		b = append(b, s...)
	}
	return string(b[:n])
}
