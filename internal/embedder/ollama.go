package embedder

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// ollamaTimeout is generous because a local model may load on first use.
const ollamaTimeout = 60 * time.Second

// OllamaEmbedder calls the /api/embed endpoint of a local Ollama server.
type OllamaEmbedder struct {
	url    string
	model  string
	client *http.Client
}

// OllamaConfig configures an OllamaEmbedder.
type OllamaConfig struct {
	// Host is the server base URL, e.g. "http://localhost:11434".
	Host  string
	Model string
}

// NewOllamaEmbedder returns an embedder for cfg.
func NewOllamaEmbedder(cfg *OllamaConfig) *OllamaEmbedder {
	return &OllamaEmbedder{
		url:    cfg.Host + "/api/embed",
		model:  cfg.Model,
		client: &http.Client{Timeout: ollamaTimeout},
	}
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error,omitempty"`
}

// Embed implements rag.Embedder.
func (e *OllamaEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var resp ollamaEmbedResponse
	status, err := postJSON(ctx, e.client, e.url, nil, ollamaEmbedRequest{Model: e.model, Input: texts}, &resp)
	switch {
	case err != nil:
		return nil, fmt.Errorf("ollama embedder: %w", err)
	case !ok(status) && resp.Error != "":
		return nil, fmt.Errorf("ollama embedder: %s", resp.Error)
	case !ok(status):
		return nil, fmt.Errorf("ollama embedder: HTTP %d", status)
	}
	if err := checkCount(len(texts), len(resp.Embeddings)); err != nil {
		return nil, fmt.Errorf("ollama embedder: %w", err)
	}
	return resp.Embeddings, nil
}
