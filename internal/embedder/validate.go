package embedder

import (
	"log/slog"
	"os"
	"strings"
)

// chatModelMarkers are substrings of chat model names. An EMBEDDING_MODEL
// containing one is almost certainly a misconfiguration.
var chatModelMarkers = []string{
	"gpt-4", "gpt-3.5", "gpt-35", "o1", "o3",
	"llama2", "llama3", "llama-2", "llama-3",
	"mistral", "mixtral", "gemma", "phi-", "phi3",
	"claude", "command-r", "deepseek", "qwen",
	"solar", "vicuna", "falcon", "yi-",
}

func looksLikeChatModel(model string) bool {
	lower := strings.ToLower(model)
	for _, m := range chatModelMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// Validate resolves the embedding settings so a broken configuration fails at
// startup instead of on the first visitor question. Suspicious but usable
// settings are logged as warnings.
func Validate(log *slog.Logger) error {
	s, err := ResolveSettings()
	if err != nil {
		return err
	}

	if os.Getenv("EMBEDDING_PROVIDER") == "" && s.Backend != "ollama" && s.Backend != "gemini" {
		log.Warn("embedder: backend inherited from MODEL_PROVIDER",
			slog.String("backend", s.Backend),
			slog.String("hint", "set EMBEDDING_PROVIDER explicitly"),
		)
	}
	if looksLikeChatModel(s.Model) {
		log.Warn("embedder: EMBEDDING_MODEL looks like a chat model",
			slog.String("model", s.Model),
			slog.String("hint", "use an embedding model such as text-embedding-004 or nomic-embed-text"),
		)
	}
	return nil
}
