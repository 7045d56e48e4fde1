// Package audit writes one structured entry per CLI invocation recording the
// command, the config file in use and the relevant environment. Credentials
// appear only as "set" or "unset".
package audit

import (
	"context"
	"log/slog"
	"os"
	"strings"
)

// secretSuffixes mark environment variables that hold credentials.
var secretSuffixes = []string{
	"_API_KEY",
	"_SECRET_KEY",
	"_PUBLIC_KEY",
	"_SECRET_ACCESS_KEY",
	"_TOKEN",
}

// auditKeys are logged, in this order, at the start of every command.
var auditKeys = []string{
	// chat model
	"MODEL_PROVIDER",
	"OLLAMA_HOST", "OLLAMA_MODEL",
	"OPENAI_API_KEY", "OPENAI_MODEL",
	"AZURE_OPENAI_API_KEY", "AZURE_OPENAI_ENDPOINT", "AZURE_OPENAI_DEPLOYMENT",
	"GOOGLE_API_KEY", "GEMINI_API_KEY", "GEMINI_MODEL",
	"AWS_REGION", "BEDROCK_MODEL_ID", "BEDROCK_API_KEY",
	// retrieval
	"EMBEDDING_PROVIDER", "EMBEDDING_MODEL", "EMBEDDING_API_KEY",
	"QDRANT_HOST", "QDRANT_PORT", "QDRANT_COLLECTION", "QDRANT_API_KEY",
	// service
	"REFUBOT_API_KEY", "REFUBOT_CONTACT_DB", "REFUBOT_CATALOG",
	"REFUBOT_STATIC_DIR", "REFUBOT_MAX_CONTEXT_TOKENS",
	"LOG_LEVEL", "LOG_FORMAT",
	"LANGFUSE_PUBLIC_KEY", "LANGFUSE_SECRET_KEY",
}

// LogCommandStart emits the audit entry for command.
func LogCommandStart(ctx context.Context, log *slog.Logger, command, configPath string) {
	attrs := make([]slog.Attr, 0, len(auditKeys)+2)
	attrs = append(attrs,
		slog.String("command", command),
		slog.String("config_file", sanitiseConfigPath(configPath)),
	)
	for _, key := range auditKeys {
		attrs = append(attrs, slog.String(key, SanitiseKey(key, os.Getenv(key))))
	}
	log.LogAttrs(ctx, slog.LevelInfo, "audit: command start", attrs...)
}

// SanitiseKey returns a loggable form of an environment value: "set" or
// "unset" for credentials, the value itself (or "unset") for anything else.
func SanitiseKey(key, value string) string {
	switch {
	case value == "":
		return "unset"
	case isSecret(key):
		return "set"
	default:
		return value
	}
}

func isSecret(key string) bool {
	for _, s := range secretSuffixes {
		if strings.HasSuffix(key, s) {
			return true
		}
	}
	return false
}

// sanitiseConfigPath abbreviates the home directory to "~" and reports an
// absent path as "none".
func sanitiseConfigPath(p string) string {
	if p == "" {
		return "none"
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if rest, ok := strings.CutPrefix(p, home); ok {
			return "~" + rest
		}
	}
	return p
}
