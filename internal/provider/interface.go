// Package provider selects and constructs the chat model that writes the
// answers. Supported backends: Ollama, OpenAI, Azure OpenAI, Volcengine Ark
// (selected as "bedrock") and Google Gemini.
package provider

import (
	"fmt"
	"strings"
)

// Backend enumerates the supported LLM inference providers.
type Backend string

const (
	// BackendOllama selects a locally running Ollama instance.
	BackendOllama Backend = "ollama"
	// BackendOpenAI selects the OpenAI API.
	BackendOpenAI Backend = "openai"
	// BackendAzure selects Azure OpenAI Service.
	BackendAzure Backend = "azure"
	// BackendBedrock selects the Ark runtime configured through BEDROCK_* variables.
	BackendBedrock Backend = "bedrock"
	// BackendGemini selects Google Gemini via AI Studio.
	BackendGemini Backend = "gemini"
)

// DefaultBackend is used when MODEL_PROVIDER is unset.
const DefaultBackend = BackendGemini

// ProviderOllama holds Ollama settings.
type ProviderOllama struct {
	// Host is the Ollama API base URL.
	Host string
	// Model is the Ollama model name.
	Model string
}

// ProviderOpenAI holds OpenAI settings.
type ProviderOpenAI struct {
	// APIKey is the OpenAI API key.
	APIKey string
	// Model is the OpenAI model name.
	Model string
}

// ProviderAzureOpenAI holds Azure OpenAI settings.
type ProviderAzureOpenAI struct {
	// APIKey is the Azure OpenAI key.
	APIKey string
	// Endpoint is the resource endpoint, e.g. https://my.openai.azure.com.
	Endpoint string
	// Deployment is the deployment name used as the model identifier.
	Deployment string
	// APIVersion is the REST API version.
	APIVersion string
}

// ProviderBedrock holds settings for the Ark-backed "bedrock" backend.
type ProviderBedrock struct {
	// AWSRegion is the region the endpoint is served from.
	AWSRegion string
	// ModelID is the model or endpoint identifier.
	ModelID string
	// APIKey is the runtime API key, if the endpoint requires one.
	APIKey string
	// BaseURL overrides the runtime endpoint.
	BaseURL string
}

// ProviderGemini holds Google Gemini settings.
type ProviderGemini struct {
	// APIKey is the Google AI Studio key.
	APIKey string
	// Model is the Gemini model name.
	Model string
}

// SharedTuning holds generation parameters common to all backends.
type SharedTuning struct {
	// MaxTokens caps the number of tokens generated per answer.
	MaxTokens int
	// Temperature controls response randomness (0.0–1.0).
	Temperature float32
}

// Config holds all provider-level configuration resolved from environment
// variables or explicit caller-supplied values. Only the section matching
// Backend is read.
type Config struct {
	// Backend identifies which inference provider to use.
	Backend Backend

	Ollama      ProviderOllama
	OpenAI      ProviderOpenAI
	AzureOpenAI ProviderAzureOpenAI
	Bedrock     ProviderBedrock
	Gemini      ProviderGemini

	// Tuning applies to every backend that supports it.
	Tuning SharedTuning
}

// Validate reports the first missing setting for the selected backend,
// naming the environment variable that supplies it.
func (c *Config) Validate() error {
	var missing []string
	req := func(v, env string) {
		if v == "" {
			missing = append(missing, env)
		}
	}

	switch c.Backend {
	case BackendOllama:
		req(c.Ollama.Host, "OLLAMA_HOST")
		req(c.Ollama.Model, "OLLAMA_MODEL")
	case BackendOpenAI:
		req(c.OpenAI.APIKey, "OPENAI_API_KEY")
		req(c.OpenAI.Model, "OPENAI_MODEL")
	case BackendAzure:
		req(c.AzureOpenAI.APIKey, "AZURE_OPENAI_API_KEY")
		req(c.AzureOpenAI.Endpoint, "AZURE_OPENAI_ENDPOINT")
		req(c.AzureOpenAI.Deployment, "AZURE_OPENAI_DEPLOYMENT")
	case BackendBedrock:
		req(c.Bedrock.ModelID, "BEDROCK_MODEL_ID")
		req(c.Bedrock.AWSRegion, "AWS_REGION")
	case BackendGemini:
		req(c.Gemini.APIKey, "GOOGLE_API_KEY")
		req(c.Gemini.Model, "GEMINI_MODEL")
	default:
		return fmt.Errorf("provider: unknown backend %q; valid values: ollama, openai, azure, bedrock, gemini", c.Backend)
	}

	if len(missing) > 0 {
		return fmt.Errorf("provider: %s backend requires %s", c.Backend, strings.Join(missing, ", "))
	}
	return nil
}

// ModelName returns the model identifier of the selected backend.
func (c *Config) ModelName() string {
	switch c.Backend {
	case BackendOllama:
		return c.Ollama.Model
	case BackendOpenAI:
		return c.OpenAI.Model
	case BackendAzure:
		return c.AzureOpenAI.Deployment
	case BackendBedrock:
		return c.Bedrock.ModelID
	case BackendGemini:
		return c.Gemini.Model
	}
	return ""
}

// HealthCheckURL returns an endpoint that can be probed with a plain GET to
// check the backend is reachable without spending tokens, or "" when the
// backend offers none.
func (c *Config) HealthCheckURL() string {
	if c.Backend == BackendOllama && c.Ollama.Host != "" {
		return strings.TrimRight(c.Ollama.Host, "/") + "/api/tags"
	}
	return ""
}

// isAzureReasoningModel reports whether an Azure deployment name denotes an
// o-series or codex reasoning model. Those reject temperature and max_tokens.
func isAzureReasoningModel(deployment string) bool {
	d := strings.ToLower(deployment)
	for _, prefix := range []string{"o1", "o3", "o4", "codex"} {
		if strings.HasPrefix(d, prefix) {
			return true
		}
	}
	return false
}
