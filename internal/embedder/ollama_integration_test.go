//go:build integration

package embedder

import (
	"context"
	"math"
	"testing"
	"time"
)

// TestOllamaEmbedder_Integration embeds datasheet-like passages with a local
// Ollama and checks that the vectors fit the default collection size and
// rank a related passage above an unrelated one.
//
//	ollama pull nomic-embed-text
//	go test -tags=integration -run TestOllamaEmbedder_Integration ./internal/embedder/
func TestOllamaEmbedder_Integration(t *testing.T) {
	t.Setenv("EMBEDDING_PROVIDER", "ollama")

	emb, err := NewFromEnv(context.Background())
	if err != nil {
		t.Fatalf("NewFromEnv: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	texts := []string{
		"The auxiliary inverter requires liquid cooling at 8 l/min for rated output.",
		"Coolant flow of 8 litres per minute keeps the inverter within its thermal limits.",
		"Contact our sales team for a customised charger offer.",
	}
	vecs, err := emb.Embed(ctx, texts)
	if err != nil {
		t.Fatalf("Embed: %v (is Ollama running with the embedding model pulled?)", err)
	}
	if len(vecs) != len(texts) {
		t.Fatalf("expected %d embeddings, got %d", len(texts), len(vecs))
	}

	if want := DefaultDimensions("ollama"); len(vecs[0]) != want {
		t.Logf("dimension %d differs from default %d; set EMBEDDING_DIMENSIONS=%d", len(vecs[0]), want, len(vecs[0]))
	}

	related, unrelated := cosine(vecs[0], vecs[1]), cosine(vecs[0], vecs[2])
	t.Logf("cosine related=%.3f unrelated=%.3f", related, unrelated)
	if related <= unrelated {
		t.Errorf("related passages should be closer: %.3f <= %.3f", related, unrelated)
	}
}

func cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
