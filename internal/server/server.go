// Package server implements the HTTP surface of the chatbot: the chat page
// and its static assets, category navigation, the answer endpoint, the
// contact form, and the operational health, readiness and metrics endpoints.
// The server is started by the `refubot serve` CLI command.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/54b3r/refubot-go/internal/catalog"
	"github.com/54b3r/refubot-go/internal/logging"
)

// New constructs a Server from its collaborators and config.
func New(a Answerer, contacts ContactStore, tree *catalog.Tree, cfg *Config) (*Server, error) {
	if a == nil {
		return nil, fmt.Errorf("server: answerer must not be nil")
	}
	if contacts == nil {
		return nil, fmt.Errorf("server: contact store must not be nil")
	}
	if tree == nil {
		return nil, fmt.Errorf("server: catalog must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	applyDefaults(cfg)

	log := cfg.Logger
	if log == nil {
		log = logging.New()
	}

	s := &Server{
		answerer: a,
		contacts: contacts,
		tree:     tree,
		cfg:      cfg,
		log:      log,
		pingers:  cfg.Pingers,
		metrics:  newServerMetrics(cfg.MetricsRegistry),
	}

	limit := func(h http.Handler) http.Handler { return h }
	s.stopRL = func() {}
	if cfg.RateLimit > 0 {
		rl, stop := newRateLimiter(cfg.RateLimit, cfg.RateBurst, log)
		rl.onReject = func(path string) {
			s.metrics.rateLimitedTotal.WithLabelValues(path).Inc()
		}
		limit, s.stopRL = rl.middleware, stop
		log.Info("server: per-IP rate limit enabled",
			slog.Float64("rps", cfg.RateLimit),
			slog.Int("burst", cfg.RateBurst),
		)
	}

	if cfg.APIKey == "" {
		log.Warn("server: REFUBOT_API_KEY is not set, /metrics is unauthenticated")
	}

	mux := http.NewServeMux()
	route := func(pattern, name string, h http.Handler) {
		mux.Handle(pattern, s.instrument(name, h))
	}

	route("GET /{$}", "index", http.HandlerFunc(s.handleIndex))
	route("GET /static/", "static",
		http.StripPrefix("/static/", http.FileServer(http.Dir(cfg.StaticDir))))
	route("GET /get_greeting", "greeting", http.HandlerFunc(s.handleGreeting))
	route("POST /get_buttons", "buttons", http.HandlerFunc(s.handleButtons))
	route("POST /get", "answer", limit(http.HandlerFunc(s.handleAnswer)))
	route("POST /submit_customize_data", "contact", limit(http.HandlerFunc(s.handleSubmit)))
	route("GET /api/health", "health", http.HandlerFunc(s.handleHealth))
	route("GET /api/ready", "ready", http.HandlerFunc(s.handleReady))
	route("GET /metrics", "metrics",
		authMiddleware(cfg.APIKey, promhttp.HandlerFor(cfg.MetricsGatherer, promhttp.HandlerOpts{})))

	s.httpServer = &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      corsMiddleware(requestLogger(log, mux)),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// applyDefaults fills the zero fields of cfg. RateLimit stays zero, which
// leaves the form endpoints unthrottled.
func applyDefaults(cfg *Config) {
	if cfg.Host == "" {
		cfg.Host = "0.0.0.0"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 30 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 2 * time.Minute
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.RateLimit > 0 && cfg.RateBurst <= 0 {
		cfg.RateBurst = defaultRateBurst
	}
	if cfg.StaticDir == "" {
		cfg.StaticDir = "static"
	}
	if cfg.IndexFile == "" {
		cfg.IndexFile = filepath.Join("templates", "chat.html")
	}
	if cfg.MetricsRegistry == nil {
		cfg.MetricsRegistry = prometheus.DefaultRegisterer
	}
	if cfg.MetricsGatherer == nil {
		cfg.MetricsGatherer = prometheus.DefaultGatherer
	}
}

// Handler returns the fully wrapped HTTP handler. Used by tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Addr returns the listen address.
func (s *Server) Addr() string { return s.httpServer.Addr }

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	defer s.stopRL()

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", slog.String("addr", "http://"+s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		s.log.Info("server shutting down", slog.Duration("timeout", s.cfg.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}
