// Package embedder provides implementations of the rag.Embedder interface for
// converting passages and questions into dense vectors. Ollama and
// OpenAI-compatible backends are called over plain HTTP; Gemini goes through
// the genai SDK.
package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// postJSON sends body as JSON to url and decodes the response into out.
// The response is decoded regardless of status so callers can surface the
// provider's error message; the HTTP status code is returned alongside.
func postJSON(ctx context.Context, client *http.Client, url string, header http.Header, body, out any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	return resp.StatusCode, nil
}

// ok reports whether status is a 2xx code.
func ok(status int) bool { return status >= 200 && status < 300 }

// checkCount verifies a backend returned one vector per input text.
func checkCount(want, got int) error {
	if want != got {
		return fmt.Errorf("expected %d embeddings, got %d", want, got)
	}
	return nil
}
