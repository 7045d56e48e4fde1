// Package config layers configuration for refubot. Every setting is
// ultimately an environment variable; this package only fills in variables
// that are still unset. Precedence, highest first:
//
//  1. the process environment
//  2. a .env file in the working directory
//  3. a YAML file
//  4. the built-in defaults of each package
//
// The YAML file is the first of: the --config flag, $REFUBOT_CONFIG,
// ~/.refubot/config.yaml, ./refubot.yaml. Without one the service runs on
// env vars alone.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	dotEnvFile = ".env"
	localFile  = "refubot.yaml"
)

// Config mirrors the YAML file. Each leaf field names, in its env tag, the
// environment variable it feeds. Zero values are treated as absent.
type Config struct {
	Model     ModelConfig     `yaml:"model"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Qdrant    QdrantConfig    `yaml:"qdrant"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Contacts  ContactsConfig  `yaml:"contacts"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Answer    AnswerConfig    `yaml:"answer"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// ModelConfig selects and tunes the chat model.
type ModelConfig struct {
	// Provider is one of ollama, openai, azure, bedrock, gemini.
	Provider    string  `yaml:"provider" env:"MODEL_PROVIDER"`
	MaxTokens   int     `yaml:"max_tokens" env:"MODEL_MAX_TOKENS"`
	Temperature float32 `yaml:"temperature" env:"MODEL_TEMPERATURE"`

	Ollama  OllamaConfig  `yaml:"ollama"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Azure   AzureConfig   `yaml:"azure"`
	Bedrock BedrockConfig `yaml:"bedrock"`
	Gemini  GeminiConfig  `yaml:"gemini"`
}

type OllamaConfig struct {
	Host  string `yaml:"host" env:"OLLAMA_HOST"`
	Model string `yaml:"model" env:"OLLAMA_MODEL"`
}

// OpenAIConfig configures api.openai.com. Secrets such as APIKey are better
// kept in the environment than in the file.
type OpenAIConfig struct {
	APIKey string `yaml:"api_key" env:"OPENAI_API_KEY"`
	Model  string `yaml:"model" env:"OPENAI_MODEL"`
}

type AzureConfig struct {
	APIKey     string `yaml:"api_key" env:"AZURE_OPENAI_API_KEY"`
	Endpoint   string `yaml:"endpoint" env:"AZURE_OPENAI_ENDPOINT"`
	Deployment string `yaml:"deployment" env:"AZURE_OPENAI_DEPLOYMENT"`
	APIVersion string `yaml:"api_version" env:"AZURE_OPENAI_API_VERSION"`
}

// BedrockConfig addresses a Bedrock-compatible chat endpoint. BaseURL
// overrides the regional default.
type BedrockConfig struct {
	Region  string `yaml:"region" env:"AWS_REGION"`
	ModelID string `yaml:"model_id" env:"BEDROCK_MODEL_ID"`
	APIKey  string `yaml:"api_key" env:"BEDROCK_API_KEY"`
	BaseURL string `yaml:"base_url" env:"BEDROCK_BASE_URL"`
}

type GeminiConfig struct {
	APIKey string `yaml:"api_key" env:"GOOGLE_API_KEY"`
	Model  string `yaml:"model" env:"GEMINI_MODEL"`
}

// EmbeddingConfig overrides the embedding backend, which otherwise inherits
// the chat provider settings.
type EmbeddingConfig struct {
	Provider   string `yaml:"provider" env:"EMBEDDING_PROVIDER"`
	Model      string `yaml:"model" env:"EMBEDDING_MODEL"`
	Dimensions int    `yaml:"dimensions" env:"EMBEDDING_DIMENSIONS"`
	APIKey     string `yaml:"api_key" env:"EMBEDDING_API_KEY"`
	Endpoint   string `yaml:"endpoint" env:"EMBEDDING_ENDPOINT"`
}

// QdrantConfig addresses the vector store over gRPC.
type QdrantConfig struct {
	Host       string `yaml:"host" env:"QDRANT_HOST"`
	Port       int    `yaml:"port" env:"QDRANT_PORT"`
	Collection string `yaml:"collection" env:"QDRANT_COLLECTION"`
	APIKey     string `yaml:"api_key" env:"QDRANT_API_KEY"`
	TLS        bool   `yaml:"tls" env:"QDRANT_TLS"`
}

// ServerConfig tunes the chat HTTP server. APIKey guards /metrics.
type ServerConfig struct {
	APIKey    string  `yaml:"api_key" env:"REFUBOT_API_KEY"`
	StaticDir string  `yaml:"static_dir" env:"REFUBOT_STATIC_DIR"`
	IndexFile string  `yaml:"index_file" env:"REFUBOT_INDEX_FILE"`
	RateLimit float64 `yaml:"rate_limit" env:"REFUBOT_RATE_LIMIT"`
	RateBurst int     `yaml:"rate_burst" env:"REFUBOT_RATE_BURST"`
}

type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" env:"LOG_LEVEL"`
	// Format is json or text.
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

type ContactsConfig struct {
	DBPath string `yaml:"db_path" env:"REFUBOT_CONTACT_DB"`
}

// CatalogConfig points at a taxonomy file replacing the embedded default.
type CatalogConfig struct {
	Path string `yaml:"path" env:"REFUBOT_CATALOG"`
}

type AnswerConfig struct {
	MaxContextTokens int `yaml:"max_context_tokens" env:"REFUBOT_MAX_CONTEXT_TOKENS"`
}

type TracingConfig struct {
	PublicKey string `yaml:"public_key" env:"LANGFUSE_PUBLIC_KEY"`
	SecretKey string `yaml:"secret_key" env:"LANGFUSE_SECRET_KEY"`
	Host      string `yaml:"host" env:"LANGFUSE_HOST"`
}

// Load applies the .env file and then the YAML file to the environment.
// It returns the YAML path that was used, or "" when none was found.
func Load(explicitPath string, log *slog.Logger) (string, error) {
	if err := loadDotEnv(dotEnvFile, log); err != nil {
		return "", err
	}

	path := findConfigFile(explicitPath)
	if path == "" {
		log.Debug("config: no YAML file found, using environment only")
		return "", nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return "", fmt.Errorf("config: failed to parse %s: %w", path, err)
	}

	applied := 0
	for key, val := range cfg.Env() {
		if os.Getenv(key) != "" {
			continue
		}
		if err := os.Setenv(key, val); err != nil {
			return "", fmt.Errorf("config: set %s: %w", key, err)
		}
		applied++
	}

	log.Info("config: loaded YAML file",
		slog.String("path", path),
		slog.Int("keys_applied", applied),
	)
	return path, nil
}

// Env flattens c into environment variables, skipping zero values.
func (c *Config) Env() map[string]string {
	out := make(map[string]string)
	collectEnv(reflect.ValueOf(c).Elem(), out)
	return out
}

func collectEnv(v reflect.Value, out map[string]string) {
	t := v.Type()
	for i := range t.NumField() {
		f, fv := t.Field(i), v.Field(i)
		if fv.Kind() == reflect.Struct {
			collectEnv(fv, out)
			continue
		}
		key := f.Tag.Get("env")
		if key == "" || fv.IsZero() {
			continue
		}
		out[key] = formatValue(fv)
	}
}

// formatValue renders a scalar config field the way strconv would parse it.
func formatValue(v reflect.Value) string {
	switch v.Kind() {
	case reflect.Int, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	default:
		return v.String()
	}
}

// loadDotEnv applies a dotenv file when one exists. godotenv leaves
// variables that are already set untouched.
func loadDotEnv(path string, log *slog.Logger) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("config: failed to load %s: %w", path, err)
	}
	log.Debug("config: loaded dotenv file", slog.String("path", path))
	return nil
}

// findConfigFile returns the first existing candidate. An explicit path that
// does not exist disables the search.
func findConfigFile(explicit string) string {
	if explicit != "" {
		if exists(explicit) {
			return explicit
		}
		return ""
	}

	candidates := []string{os.Getenv("REFUBOT_CONFIG")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".refubot", "config.yaml"))
	}
	candidates = append(candidates, localFile)

	for _, p := range candidates {
		if p != "" && exists(p) {
			return p
		}
	}
	return ""
}

func exists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
