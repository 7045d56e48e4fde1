package commands

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/54b3r/refubot-go/internal/ingestion"
	"github.com/54b3r/refubot-go/internal/logging"
)

// NewIndexCmd constructs the `refubot index` command, which loads the
// datasheets named in the catalog into the vector store.
func NewIndexCmd() *cobra.Command {
	var root string
	var sourceKeys []string
	var chunkSize, chunkOverlap int
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Index product datasheets into the vector store",
		Long: `Extract, chunk, embed and store the datasheets referenced by the catalog.

Every catalog category that names a document source is resolved to a file
under --root. Sources whose file is missing are reported and skipped.
Re-indexing a source replaces its previous passages.

Environment:
  QDRANT_HOST          Qdrant server hostname (default: localhost)
  QDRANT_PORT          Qdrant gRPC port (default: 6334)
  QDRANT_COLLECTION    Collection name (default: refu)
  EMBEDDING_PROVIDER   Embedding backend (default: MODEL_PROVIDER, then gemini)

Examples:
  refubot index --root ./datasheets
  refubot index --root ./datasheets --source inverter.aux_inverter.single_inverter.17kva
  refubot index --root ./datasheets --dry-run`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.New()
			ctx = logging.WithLogger(ctx, log)

			tree, err := loadCatalog(log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			sources, missing, err := ingestion.ResolveSources(tree, root)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			for _, m := range missing {
				log.Warn("index: datasheet not found", slog.String("source", m))
			}

			sources, err = ingestion.Select(sources, sourceKeys)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			if len(sources) == 0 {
				return fmt.Errorf("index: no datasheets found under %s", root)
			}

			if dryRun {
				out := cmd.OutOrStdout()
				for _, s := range sources {
					fmt.Fprintf(out, "%s\t%s\n", s.Category, s.Path)
				}
				return nil
			}

			vectors, emb, err := openVectorStore(ctx, log)
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			pipeline, err := ingestion.NewPipeline(emb, vectors, &ingestion.Config{
				ChunkSize:    chunkSize,
				ChunkOverlap: chunkOverlap,
			})
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			log.Info("index: starting", slog.Int("sources", len(sources)), slog.Int("missing", len(missing)))
			stats, err := pipeline.Index(ctx, sources, func(msg string) { log.Info(msg) })
			if err != nil {
				return fmt.Errorf("index: %w", err)
			}

			log.Info("index: complete",
				slog.Int("sources", stats.Sources),
				slog.Int("passages", stats.Chunks),
				slog.String("skipped", strings.Join(missing, "; ")),
			)
			return nil
		},
	}

	cmd.Flags().StringVarP(&root, "root", "r", ".", "Directory the catalog source paths are relative to")
	cmd.Flags().StringArrayVarP(&sourceKeys, "source", "s", nil, "Category path or source identifier to index (repeatable; default: all)")
	cmd.Flags().IntVar(&chunkSize, "chunk-size", 500, "Maximum passage length")
	cmd.Flags().IntVar(&chunkOverlap, "chunk-overlap", 20, "Characters repeated between consecutive passages")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "List the resolved datasheets without indexing")

	return cmd
}
