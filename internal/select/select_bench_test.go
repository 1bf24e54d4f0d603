package selecter

import (
	"fmt"
	"math/rand"
	"testing"
)

func BenchmarkAdmit(b *testing.B) {
	rng := rand.New(rand.NewSource(42))
	makeContents := func(n int) []Content {
		out := make([]Content, n)
		for i := 0; i < n; i++ {
			out[i] = Content{
				URL:  fmt.Sprintf("https://host%02d.example.com/path/%d", rng.Intn(20), i),
				Text: randText(rng, 200, 20_000),
			}
		}
		return out
	}

	cases := []struct {
		name   string
		n      int
		budget int
	}{
		{"n=50, budget=50k", 50, 50_000},
		{"n=200, budget=200k", 200, 200_000},
		{"n=200, budget=900k", 200, 900_000},
	}

	for _, cs := range cases {
		b.Run(cs.name, func(b *testing.B) {
			contents := makeContents(cs.n)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, _ = Admit(contents, cs.budget)
			}
		})
	}
}

func randText(rng *rand.Rand, min, max int) string {
	n := rng.Intn(max-min+1) + min
	buf := make([]byte, 0, n)
	for len(buf) < n {
		buf = append(buf, sampleText...)
	}
	return string(buf[:n])
}

const sampleText = "This is a sample passage of extracted page content used to exercise budget admission. "
