// Package ingestion implements the offline indexing pipeline behind
// `refubot index`. It reads the datasheets named by the category catalog,
// splits them into passages, embeds the passages and upserts them into the
// vector store tagged with their document-source identifier.
package ingestion

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/54b3r/refubot-go/internal/rag"
)

// pointNamespace seeds the deterministic point IDs. Re-indexing a source
// produces the same IDs for the same chunk positions.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceDNS, []byte("refubot.refu.com"))

// Config holds the configuration for the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum passage length in bytes. Defaults to 500.
	ChunkSize int

	// ChunkOverlap is how much of the previous passage is repeated at the
	// start of the next one. Defaults to 20 when zero; negative disables it.
	ChunkOverlap int

	// BatchSize caps the passages sent per embedding request. Defaults to 64.
	BatchSize int
}

// Stats summarises an Index run.
type Stats struct {
	// Sources is the number of sources indexed.
	Sources int
	// Chunks is the number of passages upserted.
	Chunks int
}

// Pipeline orchestrates the load → chunk → embed → upsert flow for a set of
// datasheet sources.
type Pipeline struct {
	// embedder converts passages into dense vector embeddings.
	embedder rag.Embedder

	// store persists the embedded passages.
	store rag.VectorStore

	// cfg holds the resolved pipeline configuration.
	cfg *Config

	// loaders extract text by file extension.
	loaders map[string]Loader
}

// NewPipeline constructs a Pipeline from the provided dependencies and config.
func NewPipeline(embedder rag.Embedder, store rag.VectorStore, cfg *Config) (*Pipeline, error) {
	if embedder == nil {
		return nil, fmt.Errorf("ingestion: embedder must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingestion: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	switch {
	case cfg.ChunkOverlap == 0:
		cfg.ChunkOverlap = 20
	case cfg.ChunkOverlap < 0:
		cfg.ChunkOverlap = 0
	}
	if cfg.ChunkOverlap >= cfg.ChunkSize {
		cfg.ChunkOverlap = cfg.ChunkSize / 10
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 64
	}

	return &Pipeline{
		embedder: embedder,
		store:    store,
		cfg:      cfg,
		loaders:  defaultLoaders(),
	}, nil
}

// Index loads, chunks, embeds and stores every source. The previous passages
// of a source are deleted before its new ones are written, so a source can be
// re-indexed after its datasheet changes. Sources are processed sequentially
// and the first error stops the run. Sources whose text is empty are skipped.
func (p *Pipeline) Index(ctx context.Context, sources []Source, progress func(msg string)) (Stats, error) {
	if progress == nil {
		progress = func(string) {}
	}

	var stats Stats
	for _, src := range sources {
		progress(fmt.Sprintf("loading %s", src.Path))

		text, err := p.load(src.Path)
		if err != nil {
			return stats, fmt.Errorf("ingestion: load failed for %s: %w", src.Path, err)
		}

		chunks := Chunk(text, p.cfg.ChunkSize, p.cfg.ChunkOverlap)
		if len(chunks) == 0 {
			progress(fmt.Sprintf("skipping %s: no extractable text", src.Path))
			continue
		}
		progress(fmt.Sprintf("chunked %s into %d passages", src.ID, len(chunks)))

		if err := p.store.DeleteBySource(ctx, src.ID); err != nil {
			return stats, fmt.Errorf("ingestion: clearing previous passages of %s: %w", src.ID, err)
		}

		meta := InferMetadata(src)
		for start := 0; start < len(chunks); start += p.cfg.BatchSize {
			end := min(start+p.cfg.BatchSize, len(chunks))
			batch := chunks[start:end]

			embeddings, err := p.embedder.Embed(ctx, batch)
			if err != nil {
				return stats, fmt.Errorf("ingestion: embedding failed for %s: %w", src.ID, err)
			}

			docs := make([]rag.Document, 0, len(batch))
			for i, chunk := range batch {
				idx := start + i
				docs = append(docs, rag.Document{
					ID:       chunkID(src.ID, idx),
					Content:  chunk,
					Source:   src.ID,
					Metadata: meta.Payload(idx),
				})
			}

			if err := p.store.Upsert(ctx, docs, embeddings); err != nil {
				return stats, fmt.Errorf("ingestion: upsert failed for %s: %w", src.ID, err)
			}
		}

		stats.Sources++
		stats.Chunks += len(chunks)
		progress(fmt.Sprintf("indexed %d passages from %s", len(chunks), src.ID))
	}

	return stats, nil
}

// chunkID generates a deterministic point ID from the source identifier and
// the chunk index.
func chunkID(source string, index int) string {
	return uuid.NewSHA1(pointNamespace, fmt.Appendf(nil, "%s#%d", source, index)).String()
}
