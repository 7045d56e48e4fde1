package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/54b3r/refubot-go/internal/answer"
	"github.com/54b3r/refubot-go/internal/catalog"
	"github.com/54b3r/refubot-go/internal/logging"
	"github.com/54b3r/refubot-go/internal/store"
)

// User-facing texts of POST /get and POST /submit_customize_data.
const (
	msgNoMessage      = "No message provided"
	msgUnknownProduct = "I couldn't find information about that specific product. Please try another query."
	msgNoAnswer       = "I apologize, but I couldn't find a relevant answer. Could you please rephrase your question?"
	msgAnswerFailed   = "I apologize, but I encountered an error processing your request. Please try again."
	msgStored         = "Data stored successfully"
	msgStoreFailed    = "Failed to store data"
)

// Outcome label values of the answer metrics.
const (
	outcomeOK           = "ok"
	outcomeCoolingGraph = "cooling_graph"
	outcomeClientError  = "client_error"
	outcomeNotFound     = "not_found"
	outcomeError        = "error"
)

// maxContactBody caps the JSON body of the contact form.
const maxContactBody = 64 << 10

// handleIndex serves the chat page.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, s.cfg.IndexFile)
}

// handleGreeting handles GET /get_greeting.
func (s *Server) handleGreeting(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, greetingResponse{
		Greeting: s.tree.Greeting(),
		Buttons:  toButtons(s.tree.RootCategories()),
	})
}

// handleButtons handles POST /get_buttons. The form field selected_button
// carries the dotted path; unknown segments are ignored.
func (s *Server) handleButtons(w http.ResponseWriter, r *http.Request) {
	res := s.tree.Resolve(r.FormValue("selected_button"))
	writeJSON(w, r, http.StatusOK, buttonsResponse{
		Buttons:      toButtons(res.Children),
		CurrentLabel: res.Leaf(),
		HasChildren:  res.HasNestedChildren(),
	})
}

// handleAnswer handles POST /get. Form fields: msg (required) and
// button_path (optional). Successful answers are HTML paragraphs; the
// cooling graph follow-up is JSON; not-found and server errors are plain text.
func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())
	start := time.Now()

	reply, err := s.answerer.Answer(r.Context(), answer.Request{
		Message: r.FormValue("msg"),
		Path:    r.FormValue("button_path"),
	})

	var outcome string
	switch {
	case err == nil && reply.Kind == answer.KindCoolingGraph:
		outcome = outcomeCoolingGraph
		writeJSON(w, r, http.StatusOK, reply.Graph)

	case err == nil:
		outcome = outcomeOK
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if _, werr := w.Write([]byte(reply.HTML)); werr != nil {
			log.Warn("answer write failed", slog.Any("error", werr))
		}

	case errors.Is(err, answer.ErrEmptyMessage):
		outcome = outcomeClientError
		writeJSON(w, r, http.StatusBadRequest, errorResponse{Error: msgNoMessage})

	case errors.Is(err, answer.ErrUnknownProduct):
		outcome = outcomeNotFound
		log.Info("answer: unknown product", slog.Any("error", err))
		writeText(w, http.StatusNotFound, msgUnknownProduct)

	case errors.Is(err, answer.ErrNotFound):
		outcome = outcomeNotFound
		log.Info("answer: no answer", slog.Any("error", err))
		writeText(w, http.StatusNotFound, msgNoAnswer)

	default:
		outcome = outcomeError
		attrs := []any{slog.Any("error", err)}
		var ue *answer.UpstreamError
		if errors.As(err, &ue) {
			attrs = append(attrs, slog.String("stage", ue.Stage))
		}
		log.Error("answer: request failed", attrs...)
		writeText(w, http.StatusInternalServerError, msgAnswerFailed)
	}

	if s.metrics != nil {
		s.metrics.answerRequestsTotal.WithLabelValues(outcome).Inc()
		s.metrics.answerDurationSeconds.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	}
}

// handleSubmit handles POST /submit_customize_data with a JSON body of
// phone, email and description. Every failure, including a malformed body,
// is reported with the same generic 500 body; the cause is only logged.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	var sub store.Submission
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBody)).Decode(&sub)
	var id int64
	if err == nil {
		// Only the three form fields are accepted from the client.
		id, err = s.contacts.Submit(r.Context(), store.Submission{
			Phone:       sub.Phone,
			Email:       sub.Email,
			Description: sub.Description,
		})
	}

	if err != nil {
		log.Error("contact: failed to store submission", slog.Any("error", err))
		s.countSubmission(outcomeError)
		writeJSON(w, r, http.StatusInternalServerError, errorResponse{Error: msgStoreFailed})
		return
	}

	log.Info("contact: submission stored", slog.Int64("id", id))
	s.countSubmission(outcomeOK)
	writeJSON(w, r, http.StatusOK, messageResponse{Message: msgStored})
}

func (s *Server) countSubmission(outcome string) {
	if s.metrics != nil {
		s.metrics.contactSubmissionsTotal.WithLabelValues(outcome).Inc()
	}
}

// handleHealth handles GET /api/health for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func toButtons(opts []catalog.Option) []button {
	out := make([]button, 0, len(opts))
	for _, o := range opts {
		out = append(out, button{Label: o.Label, Value: o.Path})
	}
	return out
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.FromContext(r.Context()).Error("json encode error", slog.Any("error", err))
	}
}

// writeText writes a plain-text body with the given status.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(msg))
}
