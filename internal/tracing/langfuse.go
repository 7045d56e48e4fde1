// Package tracing wires optional Langfuse tracing into every eino chain run
// by the process.
package tracing

import (
	"log/slog"
	"os"

	"github.com/cloudwego/eino-ext/callbacks/langfuse"
	"github.com/cloudwego/eino/callbacks"

	"github.com/54b3r/refubot-go/internal/version"
)

// defaultHost is the self-hosted Langfuse address used when LANGFUSE_HOST is unset.
const defaultHost = "http://localhost:3000"

// Setup registers a global Langfuse callback handler when LANGFUSE_PUBLIC_KEY
// and LANGFUSE_SECRET_KEY are set. The returned flush function must be called
// before process exit so buffered traces are sent; it is a no-op when tracing
// is disabled.
func Setup(log *slog.Logger) (flush func()) {
	handler, flusher, ok := newHandler()
	if !ok {
		log.Debug("tracing: langfuse not configured")
		return func() {}
	}
	callbacks.AppendGlobalHandlers(handler)
	log.Info("tracing: langfuse enabled", slog.String("host", hostFromEnv()))
	return flusher
}

// newHandler builds the Langfuse handler from the environment.
func newHandler() (callbacks.Handler, func(), bool) {
	publicKey := os.Getenv("LANGFUSE_PUBLIC_KEY")
	secretKey := os.Getenv("LANGFUSE_SECRET_KEY")
	if publicKey == "" || secretKey == "" {
		return nil, nil, false
	}

	handler, flusher := langfuse.NewLangfuseHandler(&langfuse.Config{
		Host:      hostFromEnv(),
		PublicKey: publicKey,
		SecretKey: secretKey,
		Name:      "refubot",
		Release:   version.Version,
	})
	return handler, flusher, true
}

func hostFromEnv() string {
	if h := os.Getenv("LANGFUSE_HOST"); h != "" {
		return h
	}
	return defaultHost
}
