package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/54b3r/refubot-go/internal/logging"
	"github.com/54b3r/refubot-go/internal/server"
	"github.com/54b3r/refubot-go/internal/tracing"
	"github.com/54b3r/refubot-go/internal/version"
)

// startupProbeTimeout bounds the dependency check run before listening.
const startupProbeTimeout = 10 * time.Second

// NewServeCmd constructs the `refubot serve` command, which starts the HTTP
// server behind the chat page.
func NewServeCmd() *cobra.Command {
	var host string
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the refubot HTTP server",
		Long: `Start the chatbot HTTP server.

The server answers category navigation, chat and contact form requests,
serves the chat page and the cooling graph images, and exposes
/api/health, /api/ready and /metrics for operators.

Environment:
  REFUBOT_API_KEY      Bearer token for /metrics (unset: unauthenticated)
  REFUBOT_CONTACT_DB   Contact store path (default: ~/.refubot/contacts.db)
  REFUBOT_CATALOG      Taxonomy YAML replacing the embedded default
  REFUBOT_STATIC_DIR   Directory served under /static/ (default: static)
  REFUBOT_INDEX_FILE   Chat page served at / (default: templates/chat.html)

Examples:
  refubot serve
  refubot serve --port 9090
  MODEL_PROVIDER=ollama refubot serve`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			log := logging.New()
			ctx = logging.WithLogger(ctx, log)
			log.Info("serve starting", slog.String("build", version.String()))

			flush := tracing.Setup(log)
			defer flush()

			tree, err := loadCatalog(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			contacts, err := openContacts(log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = contacts.Close() }()

			orch, vectors, err := buildOrchestrator(ctx, tree, log)
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer func() { _ = vectors.Close() }()

			pingers := buildPingers(vectors, contacts)
			probeCtx, cancel := context.WithTimeout(ctx, startupProbeTimeout)
			if err := server.NewMultiPinger(pingers...).Ping(probeCtx); err != nil {
				log.Warn("serve: dependency not reachable at startup", slog.Any("error", err))
			}
			cancel()

			srv, err := server.New(orch, contacts, tree, &server.Config{
				Host:      host,
				Port:      port,
				Logger:    log,
				Pingers:   pingers,
				RateLimit: getEnvFloat("REFUBOT_RATE_LIMIT", 0),
				RateBurst: getEnvInt("REFUBOT_RATE_BURST", 0),
				APIKey:    os.Getenv("REFUBOT_API_KEY"),
				StaticDir: os.Getenv("REFUBOT_STATIC_DIR"),
				IndexFile: os.Getenv("REFUBOT_INDEX_FILE"),
			})
			if err != nil {
				return fmt.Errorf("serve: failed to create server: %w", err)
			}

			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "Host address to bind to")
	cmd.Flags().IntVarP(&port, "port", "p", 8080, "TCP port to listen on")

	return cmd
}
