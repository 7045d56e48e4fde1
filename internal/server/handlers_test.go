package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/54b3r/refubot-go/internal/answer"
	"github.com/54b3r/refubot-go/internal/catalog"
	"github.com/54b3r/refubot-go/internal/logging"
	"github.com/54b3r/refubot-go/internal/store"
)

const testTree = `
greeting: "Welcome, pick a category:"
categories:
  - key: inverter
    label: Inverter
    children:
      - key: traction_inverter
        label: Traction Inverter
        children:
          - {key: 80kva, label: 80 kVA, source: 'Data\Traction inverter 80kva.pdf'}
      - key: combi_inverter
        label: Combi Inverter
  - key: Customize
    label: Customize Product
`

// fakeAnswerer records the last request and returns a canned outcome.
type fakeAnswerer struct {
	mu    sync.Mutex
	got   answer.Request
	calls int
	reply *answer.Reply
	err   error
}

func (f *fakeAnswerer) Answer(_ context.Context, req answer.Request) (*answer.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = req
	f.calls++
	return f.reply, f.err
}

// fakeContacts records submissions in memory.
type fakeContacts struct {
	mu   sync.Mutex
	subs []store.Submission
	err  error
}

func (f *fakeContacts) Submit(_ context.Context, sub store.Submission) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return 0, f.err
	}
	f.subs = append(f.subs, sub)
	return int64(len(f.subs)), nil
}

// newTestServer builds a bare *Server for direct handler calls.
func newTestServer() *Server {
	return &Server{cfg: &Config{}, log: logging.Discard()}
}

func testCatalog(t *testing.T) *catalog.Tree {
	t.Helper()
	tree, err := catalog.Parse([]byte(testTree))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return tree
}

// newRouteServer builds a fully wired Server with an isolated metrics
// registry and a temporary static tree.
func newRouteServer(t *testing.T, a Answerer, c ContactStore, mutate func(*Config)) (*Server, *prometheus.Registry) {
	t.Helper()

	dir := t.TempDir()
	index := filepath.Join(dir, "chat.html")
	if err := os.WriteFile(index, []byte("<html>chat</html>"), 0o600); err != nil {
		t.Fatalf("write index: %v", err)
	}
	graphs := filepath.Join(dir, "static", "cooling_graphs")
	if err := os.MkdirAll(graphs, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(graphs, "inverter_combi_inverter.png"), []byte("PNG"), 0o600); err != nil {
		t.Fatalf("write graph: %v", err)
	}

	reg := prometheus.NewRegistry()
	cfg := &Config{
		Logger:          logging.Discard(),
		StaticDir:       filepath.Join(dir, "static"),
		IndexFile:       index,
		MetricsRegistry: reg,
		MetricsGatherer: reg,
	}
	if mutate != nil {
		mutate(cfg)
	}

	s, err := New(a, c, testCatalog(t), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.stopRL)
	return s, reg
}

func postForm(h http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	tree := testCatalog(t)
	if _, err := New(nil, &fakeContacts{}, tree, nil); err == nil {
		t.Error("expected error for nil answerer")
	}
	if _, err := New(&fakeAnswerer{}, nil, tree, nil); err == nil {
		t.Error("expected error for nil contact store")
	}
	if _, err := New(&fakeAnswerer{}, &fakeContacts{}, nil, nil); err == nil {
		t.Error("expected error for nil catalog")
	}
}

func TestNew_Defaults(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.Host != "0.0.0.0" || cfg.Port != 8080 {
		t.Errorf("bind: expected 0.0.0.0:8080, got %s:%d", cfg.Host, cfg.Port)
	}
	if cfg.RateLimit != 0 || cfg.RateBurst != 0 {
		t.Errorf("rate limiting must stay off by default, got %v/%d", cfg.RateLimit, cfg.RateBurst)
	}

	limited := &Config{RateLimit: 2}
	applyDefaults(limited)
	if limited.RateBurst != defaultRateBurst {
		t.Errorf("burst for configured rate: expected %d, got %d", defaultRateBurst, limited.RateBurst)
	}
	if cfg.IndexFile != filepath.Join("templates", "chat.html") {
		t.Errorf("index file: got %q", cfg.IndexFile)
	}
	if cfg.StaticDir != "static" {
		t.Errorf("static dir: got %q", cfg.StaticDir)
	}
}

func TestServer_Addr(t *testing.T) {
	t.Parallel()

	s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, func(c *Config) {
		c.Host = "127.0.0.1"
		c.Port = 9090
	})
	if s.Addr() != "127.0.0.1:9090" {
		t.Errorf("expected 127.0.0.1:9090, got %q", s.Addr())
	}
}

func TestIndexAndStatic(t *testing.T) {
	t.Parallel()

	s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, nil)
	h := s.Handler()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "chat") {
		t.Errorf("GET /: got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/cooling_graphs/inverter_combi_inverter.png", nil))
	if w.Code != http.StatusOK || w.Body.String() != "PNG" {
		t.Errorf("GET static: got %d %q", w.Code, w.Body.String())
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/cooling_graphs/missing.png", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("GET missing static: expected 404, got %d", w.Code)
	}
}

func TestHandleGreeting(t *testing.T) {
	t.Parallel()

	s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get_greeting", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp greetingResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Greeting != "Welcome, pick a category:" {
		t.Errorf("greeting: got %q", resp.Greeting)
	}
	want := []button{{Label: "Inverter", Value: "inverter"}, {Label: "Customize Product", Value: "Customize"}}
	if len(resp.Buttons) != len(want) {
		t.Fatalf("buttons: expected %v, got %v", want, resp.Buttons)
	}
	for i := range want {
		if resp.Buttons[i] != want[i] {
			t.Errorf("button %d: expected %v, got %v", i, want[i], resp.Buttons[i])
		}
	}
}

func TestHandleButtons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		selected     string
		wantValues   []string
		wantLabel    string
		wantChildren bool
	}{
		{
			name:         "root category",
			selected:     "inverter",
			wantValues:   []string{"inverter.traction_inverter", "inverter.combi_inverter"},
			wantLabel:    "Inverter",
			wantChildren: true,
		},
		{
			name:       "second level",
			selected:   "inverter.traction_inverter",
			wantValues: []string{"inverter.traction_inverter.80kva"},
			wantLabel:  "Traction Inverter",
		},
		{
			name:       "leaf",
			selected:   "inverter.traction_inverter.80kva",
			wantValues: []string{},
			wantLabel:  "80 kVA",
		},
		{
			name:       "unknown tail is ignored",
			selected:   "inverter.bogus",
			wantValues: []string{"inverter.traction_inverter", "inverter.combi_inverter"},
			wantLabel:  "Inverter",
			// the prefix "inverter" still has nested children
			wantChildren: true,
		},
		{
			name:         "missing field lists roots",
			selected:     "",
			wantValues:   []string{"inverter", "Customize"},
			wantChildren: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, nil)
			form := url.Values{}
			if tc.selected != "" {
				form.Set("selected_button", tc.selected)
			}
			w := postForm(s.Handler(), "/get_buttons", form)

			if w.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d", w.Code)
			}
			raw := w.Body.String()
			if !strings.Contains(raw, `"pdf_url":null`) {
				t.Errorf("expected pdf_url null, body: %s", raw)
			}
			if !strings.Contains(raw, `"buttons":[`) {
				t.Errorf("expected buttons array, body: %s", raw)
			}

			var resp buttonsResponse
			if err := json.Unmarshal([]byte(raw), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			var values []string
			for _, b := range resp.Buttons {
				values = append(values, b.Value)
			}
			if strings.Join(values, ",") != strings.Join(tc.wantValues, ",") {
				t.Errorf("values: expected %v, got %v", tc.wantValues, values)
			}
			if resp.CurrentLabel != tc.wantLabel {
				t.Errorf("current_label: expected %q, got %q", tc.wantLabel, resp.CurrentLabel)
			}
			if resp.HasChildren != tc.wantChildren {
				t.Errorf("has_children: expected %v, got %v", tc.wantChildren, resp.HasChildren)
			}
		})
	}
}

func TestHandleAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		reply      *answer.Reply
		err        error
		wantStatus int
		wantType   string
		wantBody   string
	}{
		{
			name:       "answer",
			reply:      &answer.Reply{Kind: answer.KindAnswer, Text: "Hi", HTML: "<p>Hi</p>"},
			wantStatus: http.StatusOK,
			wantType:   "text/html",
			wantBody:   "<p>Hi</p>",
		},
		{
			name:       "cooling graph",
			reply:      &answer.Reply{Kind: answer.KindCoolingGraph, Graph: answer.NewCoolingGraph("inverter.combi_inverter")},
			wantStatus: http.StatusOK,
			wantType:   "application/json",
			wantBody:   `"coolingImageUrl":"/static/cooling_graphs/inverter_combi_inverter.png"`,
		},
		{
			name:       "empty message",
			err:        answer.ErrEmptyMessage,
			wantStatus: http.StatusBadRequest,
			wantType:   "application/json",
			wantBody:   `{"error":"No message provided"}`,
		},
		{
			name:       "unknown product",
			err:        answer.ErrUnknownProduct,
			wantStatus: http.StatusNotFound,
			wantType:   "text/plain",
			wantBody:   msgUnknownProduct,
		},
		{
			name:       "no answer",
			err:        answer.ErrNoAnswer,
			wantStatus: http.StatusNotFound,
			wantType:   "text/plain",
			wantBody:   msgNoAnswer,
		},
		{
			name:       "upstream failure",
			err:        &answer.UpstreamError{Stage: answer.StageGeneration, Err: errors.New("api key=secret rejected")},
			wantStatus: http.StatusInternalServerError,
			wantType:   "text/plain",
			wantBody:   msgAnswerFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fa := &fakeAnswerer{reply: tc.reply, err: tc.err}
			s, _ := newRouteServer(t, fa, &fakeContacts{}, nil)
			w := postForm(s.Handler(), "/get", url.Values{
				"msg":         {"Tell me about inverter"},
				"button_path": {"inverter.combi_inverter"},
			})

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d; body: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, tc.wantType) {
				t.Errorf("Content-Type: expected %s, got %q", tc.wantType, ct)
			}
			if !strings.Contains(w.Body.String(), tc.wantBody) {
				t.Errorf("body: expected %q in %q", tc.wantBody, w.Body.String())
			}
			if strings.Contains(w.Body.String(), "secret") {
				t.Errorf("internal error detail leaked: %q", w.Body.String())
			}
			if fa.got.Message != "Tell me about inverter" || fa.got.Path != "inverter.combi_inverter" {
				t.Errorf("answerer received %+v", fa.got)
			}
		})
	}
}

func TestHandleAnswer_PathOptional(t *testing.T) {
	t.Parallel()

	fa := &fakeAnswerer{reply: &answer.Reply{HTML: "<p>ok</p>"}}
	s, _ := newRouteServer(t, fa, &fakeContacts{}, nil)
	w := postForm(s.Handler(), "/get", url.Values{"msg": {"hello"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if fa.got.Path != "" {
		t.Errorf("expected empty path, got %q", fa.got.Path)
	}
}

func TestHandleAnswer_RateLimited(t *testing.T) {
	t.Parallel()

	fa := &fakeAnswerer{reply: &answer.Reply{HTML: "<p>ok</p>"}}
	s, _ := newRouteServer(t, fa, &fakeContacts{}, func(c *Config) {
		c.RateLimit = 0.001
		c.RateBurst = 1
	})

	form := url.Values{"msg": {"hello"}}
	if w := postForm(s.Handler(), "/get", form); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	if w := postForm(s.Handler(), "/get", form); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}
	if fa.calls != 1 {
		t.Errorf("answerer called %d times, expected 1", fa.calls)
	}
}

func TestHandleAnswer_UnlimitedByDefault(t *testing.T) {
	t.Parallel()

	fa := &fakeAnswerer{reply: &answer.Reply{HTML: "<p>ok</p>"}}
	fc := &fakeContacts{}
	s, _ := newRouteServer(t, fa, fc, nil)

	const n = 3 * defaultRateBurst
	for i := range n {
		if w := postForm(s.Handler(), "/get", url.Values{"msg": {"hello"}}); w.Code != http.StatusOK {
			t.Fatalf("answer request %d: expected 200, got %d", i, w.Code)
		}
		req := httptest.NewRequest(http.MethodPost, "/submit_customize_data",
			strings.NewReader(`{"phone":"1","email":"a@b.c","description":"d"}`))
		w := httptest.NewRecorder()
		s.Handler().ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("contact request %d: expected 200, got %d", i, w.Code)
		}
	}
	if fa.calls != n {
		t.Errorf("answerer called %d times, expected %d", fa.calls, n)
	}
	if len(fc.subs) != n {
		t.Errorf("stored %d submissions, expected %d", len(fc.subs), n)
	}
}

func TestHandleAnswer_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/get", nil))

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestHandleSubmit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		storeErr   error
		wantStatus int
		wantBody   string
		wantStored int
	}{
		{
			name:       "stored",
			body:       `{"phone":"+49 123","email":"a@b.c","description":"Need a 48V charger","id":99}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"message":"Data stored successfully"}`,
			wantStored: 1,
		},
		{
			name:       "store rejects",
			body:       `{"phone":"","email":"","description":""}`,
			storeErr:   store.ErrInvalidSubmission,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to store data"}`,
		},
		{
			name:       "malformed body",
			body:       `{"phone":`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error":"Failed to store data"}`,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			fc := &fakeContacts{err: tc.storeErr}
			s, _ := newRouteServer(t, &fakeAnswerer{}, fc, nil)

			req := httptest.NewRequest(http.MethodPost, "/submit_customize_data", strings.NewReader(tc.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			s.Handler().ServeHTTP(w, req)

			if w.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d; body: %s", tc.wantStatus, w.Code, w.Body.String())
			}
			if got := strings.TrimSpace(w.Body.String()); got != tc.wantBody {
				t.Errorf("body: expected %s, got %s", tc.wantBody, got)
			}
			if len(fc.subs) != tc.wantStored {
				t.Fatalf("stored: expected %d, got %d", tc.wantStored, len(fc.subs))
			}
			if tc.wantStored > 0 {
				got := fc.subs[0]
				if got.ID != 0 {
					t.Errorf("client-supplied id must be ignored, got %d", got.ID)
				}
				if got.Description != "Need a 48V charger" || got.Phone != "+49 123" {
					t.Errorf("unexpected submission %+v", got)
				}
			}
		})
	}
}

func TestMetricsEndpoint_Auth(t *testing.T) {
	t.Parallel()

	s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, func(c *Config) {
		c.APIKey = "secret"
	})

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("without token: expected 401, got %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("with token: expected 200, got %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	t.Parallel()

	s, _ := newRouteServer(t, &fakeAnswerer{}, &fakeContacts{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/get", nil)
	req.Header.Set("Origin", "https://example.com")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight: expected 204, got %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Allow-Origin: expected *, got %q", got)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); !strings.Contains(got, "POST") {
		t.Errorf("Allow-Methods: expected POST, got %q", got)
	}

	w = httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("simple request Allow-Origin: expected *, got %q", got)
	}
}
