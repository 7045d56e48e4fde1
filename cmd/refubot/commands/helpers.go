package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/54b3r/refubot-go/internal/answer"
	"github.com/54b3r/refubot-go/internal/catalog"
	"github.com/54b3r/refubot-go/internal/embedder"
	"github.com/54b3r/refubot-go/internal/provider"
	"github.com/54b3r/refubot-go/internal/rag"
	"github.com/54b3r/refubot-go/internal/server"
	"github.com/54b3r/refubot-go/internal/store"
)

// probeClientTimeout bounds the HTTP readiness probes.
const probeClientTimeout = 5 * time.Second

// loadCatalog reads the taxonomy named by REFUBOT_CATALOG, or the embedded
// default when it is unset.
func loadCatalog(log *slog.Logger) (*catalog.Tree, error) {
	path := os.Getenv("REFUBOT_CATALOG")
	tree, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}
	if path == "" {
		path = "embedded"
	}
	log.Info("catalog loaded",
		slog.String("source", path),
		slog.Int("datasheets", len(tree.Sources())),
	)
	return tree, nil
}

// openContacts opens the contact store at REFUBOT_CONTACT_DB, defaulting to
// ~/.refubot/contacts.db.
func openContacts(log *slog.Logger) (*store.SQLiteStore, error) {
	path := os.Getenv("REFUBOT_CONTACT_DB")
	if path == "" {
		var err error
		if path, err = store.DefaultDBPath(); err != nil {
			return nil, err
		}
	}
	s, err := store.Open(path)
	if err != nil {
		return nil, err
	}
	log.Info("contact store opened", slog.String("path", path))
	return s, nil
}

// openVectorStore validates the embedding configuration, builds the embedder
// and connects to Qdrant, creating the collection when it is missing.
func openVectorStore(ctx context.Context, log *slog.Logger) (*rag.QdrantStore, rag.Embedder, error) {
	if err := embedder.Validate(log); err != nil {
		return nil, nil, err
	}
	emb, err := embedder.NewFromEnv(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialise embedder: %w", err)
	}

	backend := embedder.Backend()
	cfg := &rag.QdrantConfig{
		Host:       getEnvOrDefault("QDRANT_HOST", "localhost"),
		Port:       getEnvInt("QDRANT_PORT", 6334),
		Collection: getEnvOrDefault("QDRANT_COLLECTION", rag.DefaultCollection),
		VectorSize: uint64(embedder.DefaultDimensions(backend)), //nolint:gosec // dimensions are bounded
		APIKey:     os.Getenv("QDRANT_API_KEY"),
		UseTLS:     os.Getenv("QDRANT_TLS") == "true",
	}
	vectors, err := rag.NewQdrantStore(ctx, cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to Qdrant at %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	log.Info("qdrant store ready",
		slog.String("host", cfg.Host),
		slog.Int("port", cfg.Port),
		slog.String("collection", cfg.Collection),
		slog.String("embedding_backend", backend),
	)
	return vectors, emb, nil
}

// buildOrchestrator wires retrieval and the chat model into the answer
// pipeline. The returned store must be closed by the caller.
func buildOrchestrator(ctx context.Context, tree *catalog.Tree, log *slog.Logger) (*answer.Orchestrator, *rag.QdrantStore, error) {
	vectors, emb, err := openVectorStore(ctx, log)
	if err != nil {
		return nil, nil, err
	}

	retriever, err := rag.NewRetriever(emb, vectors)
	if err != nil {
		_ = vectors.Close()
		return nil, nil, err
	}

	providerCfg := provider.ConfigFromEnv()
	chatModel, err := provider.New(ctx, providerCfg)
	if err != nil {
		_ = vectors.Close()
		return nil, nil, fmt.Errorf("failed to initialise model provider: %w", err)
	}
	log.Info("provider initialised",
		slog.String("provider", string(providerCfg.Backend)),
		slog.String("model", providerCfg.ModelName()),
	)

	orch, err := answer.New(ctx, &answer.Config{
		Catalog:          tree,
		Retriever:        retriever,
		ChatModel:        chatModel,
		MaxContextTokens: getEnvInt("REFUBOT_MAX_CONTEXT_TOKENS", 0),
	})
	if err != nil {
		_ = vectors.Close()
		return nil, nil, err
	}
	return orch, vectors, nil
}

// buildPingers returns the readiness probes of every external dependency.
// Ollama endpoints are probed over HTTP; hosted model APIs are not probed.
func buildPingers(vectors *rag.QdrantStore, contacts *store.SQLiteStore) []server.Pinger {
	pingers := []server.Pinger{
		server.NewQdrantPinger(vectors.Client()),
		server.PingFunc{Label: "contacts", Fn: contacts.Ping},
	}

	client := &http.Client{Timeout: probeClientTimeout}
	chatURL := provider.ConfigFromEnv().HealthCheckURL()
	if chatURL != "" {
		pingers = append(pingers, server.NewHTTPPinger("model", chatURL, client))
	}
	if embURL := embedder.HealthCheckURL(); embURL != "" && embURL != chatURL {
		pingers = append(pingers, server.NewHTTPPinger("embedding", embURL, client))
	}
	return pingers
}

// getEnvOrDefault returns the value of the named environment variable, or
// fallback if the variable is unset or empty.
func getEnvOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getEnvInt returns the integer value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// getEnvFloat returns the float value of the named environment variable, or
// fallback if the variable is unset, empty, or not parseable.
func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
