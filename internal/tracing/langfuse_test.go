package tracing

import (
	"io"
	"log/slog"
	"testing"
)

func TestSetup_DisabledWithoutKeys(t *testing.T) {
	t.Setenv("LANGFUSE_PUBLIC_KEY", "")
	t.Setenv("LANGFUSE_SECRET_KEY", "")

	flush := Setup(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if flush == nil {
		t.Fatal("flush must never be nil")
	}
	flush()
}

func TestHostFromEnv(t *testing.T) {
	t.Setenv("LANGFUSE_HOST", "")
	if got := hostFromEnv(); got != defaultHost {
		t.Errorf("want %q, got %q", defaultHost, got)
	}
	t.Setenv("LANGFUSE_HOST", "https://cloud.langfuse.com")
	if got := hostFromEnv(); got != "https://cloud.langfuse.com" {
		t.Errorf("got %q", got)
	}
}
