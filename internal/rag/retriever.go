package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/54b3r/refubot-go/internal/logging"
)

// VectorRetriever answers queries by embedding them and searching a
// VectorStore with the resulting vector.
type VectorRetriever struct {
	embedder Embedder
	store    VectorStore
}

// NewRetriever returns a VectorRetriever. Both collaborators are required.
func NewRetriever(embedder Embedder, store VectorStore) (*VectorRetriever, error) {
	switch {
	case embedder == nil:
		return nil, errors.New("rag: retriever needs an embedder")
	case store == nil:
		return nil, errors.New("rag: retriever needs a vector store")
	}
	return &VectorRetriever{embedder: embedder, store: store}, nil
}

// Retrieve implements Retriever. cfg.TopK <= 0 means [DefaultTopK].
func (r *VectorRetriever) Retrieve(ctx context.Context, query string, cfg SearchConfig) ([]Document, error) {
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}

	vecs, err := r.embedder.Embed(ctx, []string{query})
	switch {
	case err != nil:
		return nil, fmt.Errorf("rag: embed query: %w", err)
	case len(vecs) != 1:
		return nil, fmt.Errorf("rag: embed query: got %d vectors for one query", len(vecs))
	}

	docs, err := r.store.Search(ctx, vecs[0], cfg)
	if err != nil {
		return nil, fmt.Errorf("rag: search: %w", err)
	}

	logging.FromContext(ctx).Debug("rag: passages retrieved",
		slog.Int("count", len(docs)),
		slog.String("source", cfg.Filter[SourceKey]),
	)
	return docs, nil
}
