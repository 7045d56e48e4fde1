package provider

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/cloudwego/eino/components/model"
)

// Chat model defaults applied when the corresponding variable is unset.
const (
	defaultOllamaHost   = "http://localhost:11434"
	defaultOllamaModel  = "llama3"
	defaultOpenAIModel  = "gpt-4o-mini"
	defaultAzureVersion = "2024-02-01"
	defaultAWSRegion    = "us-east-1"
	defaultGeminiModel  = "gemini-1.5-flash-8b"
	defaultMaxTokens    = 1024
	defaultTemperature  = 0.2
)

// constructors maps each backend to its eino chat model factory.
var constructors = map[Backend]func(context.Context, *Config) (model.BaseChatModel, error){
	BackendOllama:  newOllama,
	BackendOpenAI:  newOpenAI,
	BackendAzure:   newAzure,
	BackendBedrock: newBedrock,
	BackendGemini:  newGemini,
}

// ConfigFromEnv reads the chat model configuration. MODEL_PROVIDER picks the
// backend (default gemini); every backend reads its own native variables, so
// switching providers never requires renaming credentials. Gemini accepts
// GOOGLE_API_KEY or GEMINI_API_KEY.
func ConfigFromEnv() *Config {
	return &Config{
		Backend: Backend(envOr("MODEL_PROVIDER", string(DefaultBackend))),
		Ollama: ProviderOllama{
			Host:  envOr("OLLAMA_HOST", defaultOllamaHost),
			Model: envOr("OLLAMA_MODEL", defaultOllamaModel),
		},
		OpenAI: ProviderOpenAI{
			APIKey: os.Getenv("OPENAI_API_KEY"),
			Model:  envOr("OPENAI_MODEL", defaultOpenAIModel),
		},
		AzureOpenAI: ProviderAzureOpenAI{
			APIKey:     os.Getenv("AZURE_OPENAI_API_KEY"),
			Endpoint:   os.Getenv("AZURE_OPENAI_ENDPOINT"),
			Deployment: os.Getenv("AZURE_OPENAI_DEPLOYMENT"),
			APIVersion: envOr("AZURE_OPENAI_API_VERSION", defaultAzureVersion),
		},
		Bedrock: ProviderBedrock{
			AWSRegion: envOr("AWS_REGION", defaultAWSRegion),
			ModelID:   os.Getenv("BEDROCK_MODEL_ID"),
			APIKey:    os.Getenv("BEDROCK_API_KEY"),
			BaseURL:   os.Getenv("BEDROCK_BASE_URL"),
		},
		Gemini: ProviderGemini{
			APIKey: envOr("GOOGLE_API_KEY", os.Getenv("GEMINI_API_KEY")),
			Model:  envOr("GEMINI_MODEL", defaultGeminiModel),
		},
		Tuning: SharedTuning{
			MaxTokens:   envNumber("MODEL_MAX_TOKENS", defaultMaxTokens, strconv.Atoi),
			Temperature: envNumber("MODEL_TEMPERATURE", float32(defaultTemperature), parseFloat32),
		},
	}
}

// NewFromEnv builds the chat model described by [ConfigFromEnv].
func NewFromEnv(ctx context.Context) (model.BaseChatModel, error) {
	return New(ctx, ConfigFromEnv())
}

// New validates cfg and builds its chat model.
func New(ctx context.Context, cfg *Config) (model.BaseChatModel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m, err := constructors[cfg.Backend](ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("provider: failed to create %s chat model: %w", cfg.Backend, err)
	}
	return m, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envNumber parses key with parse, returning fallback when the variable is
// unset or malformed.
func envNumber[T any](key string, fallback T, parse func(string) (T, error)) T {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := parse(v)
	if err != nil {
		return fallback
	}
	return n
}

func parseFloat32(s string) (float32, error) {
	f, err := strconv.ParseFloat(s, 32)
	return float32(f), err
}
