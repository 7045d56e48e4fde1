package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/refubot-go/internal/answer"
	"github.com/54b3r/refubot-go/internal/catalog"
	"github.com/54b3r/refubot-go/internal/store"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 0.0.0.0).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response. It
	// also bounds retrieval plus generation for one /get request.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.New] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /api/ready.
	// If empty, /api/ready returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
	// RateLimit is the sustained request rate allowed per IP on /get and
	// /submit_customize_data (requests/second). Zero disables limiting.
	RateLimit float64
	// RateBurst is the per-IP burst when RateLimit is set. Defaults to 20.
	RateBurst int
	// APIKey is the Bearer token required on GET /metrics.
	// If empty, authentication is disabled (development mode).
	APIKey string
	// StaticDir is served under /static/ and holds the cooling graph images
	// (default: static).
	StaticDir string
	// IndexFile is the chat page served at / (default: templates/chat.html).
	IndexFile string
	// MetricsRegistry receives the server metrics. Defaults to
	// prometheus.DefaultRegisterer.
	MetricsRegistry prometheus.Registerer
	// MetricsGatherer is exposed on /metrics. Defaults to
	// prometheus.DefaultGatherer.
	MetricsGatherer prometheus.Gatherer
}

// Answerer produces the reply to one chat message.
// *answer.Orchestrator satisfies it; tests inject a fake.
type Answerer interface {
	Answer(ctx context.Context, req answer.Request) (*answer.Reply, error)
}

// ContactStore persists contact form submissions.
// *store.SQLiteStore satisfies it; tests inject a fake.
type ContactStore interface {
	Submit(ctx context.Context, sub store.Submission) (int64, error)
}

// Server is the HTTP front end of the chatbot.
type Server struct {
	// answerer handles POST /get.
	answerer Answerer
	// contacts handles POST /submit_customize_data.
	contacts ContactStore
	// tree drives the navigation buttons.
	tree *catalog.Tree
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// pingers is the ordered list of dependency probes for GET /api/ready.
	pingers []Pinger
	// metrics holds the Prometheus collectors. Nil disables recording.
	metrics *serverMetrics
	// stopRL stops the rate limiter's background eviction goroutine on shutdown.
	stopRL func()
}

// button is one navigation option.
type button struct {
	// Label is the button text.
	Label string `json:"label"`
	// Value is the full dotted category path sent back on click.
	Value string `json:"value"`
}

// greetingResponse is the JSON response for GET /get_greeting.
type greetingResponse struct {
	Greeting string   `json:"greeting"`
	Buttons  []button `json:"buttons"`
}

// buttonsResponse is the JSON response for POST /get_buttons.
type buttonsResponse struct {
	// Buttons are the options one level below the selected path.
	Buttons []button `json:"buttons"`
	// CurrentLabel is the label of the deepest resolved category.
	CurrentLabel string `json:"current_label"`
	// HasChildren reports whether any option leads to further options.
	HasChildren bool `json:"has_children"`
	// PDFURL is reserved for a datasheet link and is always null.
	PDFURL *string `json:"pdf_url"`
}

// errorResponse is the JSON error body used by the JSON endpoints.
type errorResponse struct {
	Error string `json:"error"`
}

// messageResponse is the JSON success body of POST /submit_customize_data.
type messageResponse struct {
	Message string `json:"message"`
}
