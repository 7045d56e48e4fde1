package embedder

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const openaiTimeout = 30 * time.Second

// OpenAIEmbedder calls the embeddings endpoint of OpenAI or of an Azure
// OpenAI deployment.
type OpenAIEmbedder struct {
	url        string
	header     http.Header
	model      string
	dimensions int
	client     *http.Client
}

// OpenAIConfig configures an OpenAIEmbedder.
type OpenAIConfig struct {
	// BaseURL is "https://api.openai.com/v1" for OpenAI or
	// "https://<resource>.openai.azure.com/openai" for Azure.
	BaseURL string
	APIKey  string
	// Model is the model name, or the deployment name on Azure.
	Model      string
	Dimensions int
	// Azure switches to deployment routing, the api-key header and the
	// api-version query parameter.
	Azure      bool
	APIVersion string
}

// NewOpenAIEmbedder returns an embedder for cfg.
func NewOpenAIEmbedder(cfg *OpenAIConfig) *OpenAIEmbedder {
	e := &OpenAIEmbedder{
		header:     http.Header{},
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		client:     &http.Client{Timeout: openaiTimeout},
	}
	if !cfg.Azure {
		e.url = cfg.BaseURL + "/embeddings"
		e.header.Set("Authorization", "Bearer "+cfg.APIKey)
		return e
	}
	q := url.Values{"api-version": {cfg.APIVersion}}
	e.url = fmt.Sprintf("%s/deployments/%s/embeddings?%s", cfg.BaseURL, url.PathEscape(cfg.Model), q.Encode())
	e.header.Set("api-key", cfg.APIKey)
	return e
}

type openaiEmbedRequest struct {
	Input      []string `json:"input"`
	Model      string   `json:"model"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type openaiEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Embed implements rag.Embedder. Results are placed by their index field
// since the API does not promise input order.
func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	req := openaiEmbedRequest{Input: texts, Model: e.model, Dimensions: e.dimensions}
	var resp openaiEmbedResponse
	status, err := postJSON(ctx, e.client, e.url, e.header, req, &resp)
	switch {
	case err != nil:
		return nil, fmt.Errorf("openai embedder: %w", err)
	case !ok(status) && resp.Error != nil:
		return nil, fmt.Errorf("openai embedder: %s", resp.Error.Message)
	case !ok(status):
		return nil, fmt.Errorf("openai embedder: HTTP %d", status)
	}
	if err := checkCount(len(texts), len(resp.Data)); err != nil {
		return nil, fmt.Errorf("openai embedder: %w", err)
	}

	out := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("openai embedder: result index %d outside batch of %d", d.Index, len(out))
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}
