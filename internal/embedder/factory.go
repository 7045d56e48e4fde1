package embedder

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/54b3r/refubot-go/internal/rag"
)

// backendDefaults describes how one embedding backend inherits its settings
// from the chat provider environment.
type backendDefaults struct {
	model      string
	dimensions int
	// keyVars are the inherited credential variables, first non-empty wins.
	keyVars []string
	// endpointVar is the inherited endpoint variable, if any.
	endpointVar string
	endpoint    string
}

var backends = map[string]backendDefaults{
	"ollama": {
		model:       "nomic-embed-text",
		dimensions:  768,
		endpointVar: "OLLAMA_HOST",
		endpoint:    "http://localhost:11434",
	},
	"openai": {
		model:      "text-embedding-3-small",
		dimensions: 1536,
		keyVars:    []string{"OPENAI_API_KEY"},
		endpoint:   "https://api.openai.com/v1",
	},
	"azure": {
		model:       "text-embedding-3-small",
		dimensions:  1536,
		keyVars:     []string{"AZURE_OPENAI_API_KEY"},
		endpointVar: "AZURE_OPENAI_ENDPOINT",
	},
	"gemini": {
		model:      "text-embedding-004",
		dimensions: 768,
		keyVars:    []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"},
	},
}

// fallbackDimensions applies to a backend with no entry in backends.
const fallbackDimensions = 1536

// Settings is the embedding configuration resolved from the environment.
type Settings struct {
	Backend    string
	Model      string
	APIKey     string
	Endpoint   string
	APIVersion string
	// Dimensions is EMBEDDING_DIMENSIONS, or 0 for the model default.
	Dimensions int
}

// Backend returns EMBEDDING_PROVIDER, else MODEL_PROVIDER, else "gemini".
func Backend() string {
	if b := os.Getenv("EMBEDDING_PROVIDER"); b != "" {
		return b
	}
	return envOr("MODEL_PROVIDER", "gemini")
}

// DefaultDimensions returns the vector size a collection for backend must be
// created with. EMBEDDING_DIMENSIONS wins when set.
func DefaultDimensions(backend string) int {
	if v := envInt("EMBEDDING_DIMENSIONS"); v > 0 {
		return v
	}
	if d, ok := backends[backend]; ok {
		return d.dimensions
	}
	return fallbackDimensions
}

// ResolveSettings reads the embedding configuration. Unset EMBEDDING_*
// variables inherit from the chat provider: credentials, endpoint and backend
// all fall back to their MODEL_PROVIDER counterparts. Missing credentials or
// endpoints are reported as errors.
func ResolveSettings() (Settings, error) {
	s := Settings{Backend: Backend()}
	if s.Backend == "bedrock" {
		return s, fmt.Errorf("embedder: bedrock embeddings are not supported; set EMBEDDING_PROVIDER to ollama, openai, azure or gemini")
	}
	d, ok := backends[s.Backend]
	if !ok {
		return s, fmt.Errorf("embedder: unknown backend %q; valid values: ollama, openai, azure, gemini", s.Backend)
	}

	s.Model = envOr("EMBEDDING_MODEL", d.model)
	s.Dimensions = envInt("EMBEDDING_DIMENSIONS")

	s.APIKey = firstEnv(append([]string{"EMBEDDING_API_KEY"}, d.keyVars...)...)
	if len(d.keyVars) > 0 && s.APIKey == "" {
		return s, fmt.Errorf("embedder: %s requires one of EMBEDDING_API_KEY, %s",
			s.Backend, strings.Join(d.keyVars, ", "))
	}

	s.Endpoint = os.Getenv("EMBEDDING_ENDPOINT")
	if s.Endpoint == "" && d.endpointVar != "" {
		s.Endpoint = os.Getenv(d.endpointVar)
	}
	if s.Endpoint == "" {
		s.Endpoint = d.endpoint
	}
	if s.Backend == "azure" {
		if s.Endpoint == "" {
			return s, fmt.Errorf("embedder: azure requires EMBEDDING_ENDPOINT or AZURE_OPENAI_ENDPOINT")
		}
		s.APIVersion = envOr("AZURE_OPENAI_API_VERSION", "2025-04-01-preview")
	}
	s.Endpoint = strings.TrimRight(s.Endpoint, "/")
	return s, nil
}

// NewFromEnv builds the embedder selected by [ResolveSettings].
func NewFromEnv(ctx context.Context) (rag.Embedder, error) {
	s, err := ResolveSettings()
	if err != nil {
		return nil, err
	}

	switch s.Backend {
	case "ollama":
		return NewOllamaEmbedder(&OllamaConfig{Host: s.Endpoint, Model: s.Model}), nil
	case "openai":
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.Endpoint,
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		}), nil
	case "azure":
		return NewOpenAIEmbedder(&OpenAIConfig{
			BaseURL:    s.Endpoint + "/openai",
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
			Azure:      true,
			APIVersion: s.APIVersion,
		}), nil
	default:
		return NewGeminiEmbedder(ctx, &GeminiConfig{
			APIKey:     s.APIKey,
			Model:      s.Model,
			Dimensions: s.Dimensions,
		})
	}
}

// HealthCheckURL returns the tags endpoint of a local Ollama embedder, or ""
// for hosted backends, which have no free probe.
func HealthCheckURL() string {
	s, err := ResolveSettings()
	if err != nil || s.Backend != "ollama" {
		return ""
	}
	return s.Endpoint + "/api/tags"
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt returns the integer value of key, or 0 when unset or malformed.
func envInt(key string) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return 0
	}
	return n
}
