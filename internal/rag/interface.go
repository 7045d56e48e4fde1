// Package rag defines the retrieval side of the answer pipeline: documents,
// the vector store and embedder collaborators, and the per-request search
// configuration derived from the selected product category.
// Concrete implementations (Qdrant, etc.) satisfy these interfaces so the
// orchestrator never depends on a specific backend.
package rag

import (
	"context"
)

// SourceKey is the payload field holding a passage's document-source
// identifier. Category-scoped searches filter on it.
const SourceKey = "source"

// DefaultTopK is the number of passages returned by every search.
const DefaultTopK = 3

// Document represents a unit of retrieved or stored knowledge.
type Document struct {
	// ID is the unique identifier for this document chunk.
	ID string

	// Content is the raw text content of the chunk.
	Content string

	// Source is the document-source identifier of the datasheet the chunk
	// came from (e.g. `Data\OBC 450v.pdf`).
	Source string

	// Metadata holds arbitrary key-value pairs (page, chunk index, etc.).
	Metadata map[string]string

	// Score is the similarity score assigned during retrieval (0.0–1.0).
	// Zero value means the score was not computed.
	Score float32
}

// Filter is a set of payload equality constraints. All must match.
// A nil or empty Filter leaves the search unscoped.
type Filter map[string]string

// SearchConfig is the similarity-search configuration for one query.
type SearchConfig struct {
	// TopK is the maximum number of passages to return.
	TopK int

	// Filter optionally restricts the search to matching passages.
	Filter Filter
}

// VectorStore is the interface for persisting and searching document embeddings.
// Implementations must be safe to call from multiple goroutines.
type VectorStore interface {
	// Upsert stores or updates a batch of documents with their pre-computed embeddings.
	// The embeddings slice must be parallel to docs: embeddings[i] is the vector for docs[i].
	Upsert(ctx context.Context, docs []Document, embeddings [][]float32) error

	// Search performs a semantic similarity search and returns at most
	// cfg.TopK documents that satisfy cfg.Filter.
	Search(ctx context.Context, queryEmbedding []float32, cfg SearchConfig) ([]Document, error)

	// DeleteBySource removes every passage indexed from the given source.
	DeleteBySource(ctx context.Context, source string) error

	// Close releases any resources held by the store.
	Close() error
}

// Embedder is the interface for converting text into dense vector embeddings.
// Implementations must be safe to call from multiple goroutines.
type Embedder interface {
	// Embed converts a batch of texts into their corresponding embeddings.
	// The returned slice is parallel to the input slice.
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Retriever fetches the passages most relevant to a query.
// Implementations must be safe to call from multiple goroutines.
type Retriever interface {
	// Retrieve returns the passages most similar to query under cfg.
	Retrieve(ctx context.Context, query string, cfg SearchConfig) ([]Document, error)
}
