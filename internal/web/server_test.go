package web

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ortrealty/ort/internal/config"
	"github.com/ortrealty/ort/internal/db"
	"github.com/ortrealty/ort/internal/property"
	"github.com/ortrealty/ort/internal/valuation"
)

const testAdmin = "admin@example.com"

type testEnv struct {
	srv   *Server
	db    *sql.DB
	reg   *prometheus.Registry
	token string // bearer key for testAdmin
}

func testConfig() config.Config {
	return config.Config{
		Server: config.Server{
			Port:       8080,
			BaseURL:    "http://localhost:8080",
			AdminEmail: testAdmin,
			DevMode:    true,
		},
	}
}

// newTestEnv creates a server backed by a temp database, using the
// rule-based estimator unless valuer is given.
func newTestEnv(t *testing.T, valuer property.Valuer) *testEnv {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if cerr := d.Close(); cerr != nil {
			t.Errorf("close db: %v", cerr)
		}
	})

	reg := prometheus.NewRegistry()
	if valuer == nil {
		valuer = valuation.New(nil, valuation.WithMetrics(valuation.NewMetrics(reg)))
	}

	srv, err := NewServer(d, testConfig(), valuer, reg)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	rawKey, _, err := srv.apiKeys.Create("test", testAdmin)
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}

	return &testEnv{srv: srv, db: d, reg: reg, token: rawKey}
}

// keyFor returns a bearer key owned by email.
func (e *testEnv) keyFor(t *testing.T, email string) string {
	t.Helper()
	rawKey, _, err := e.srv.apiKeys.Create("test", email)
	if err != nil {
		t.Fatalf("create api key: %v", err)
	}
	return rawKey
}

func apiRequest(t *testing.T, srv *Server, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	reqBody := &bytes.Buffer{}
	if body != nil {
		if err := json.NewEncoder(reqBody).Encode(body); err != nil {
			t.Fatalf("marshal body: %v", err)
		}
	}

	r := httptest.NewRequest(method, path, reqBody)
	if body != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, want, w.Body.String())
	}
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, substr string) {
	t.Helper()
	var body map[string]string
	decodeBody(t, w, &body)
	if !strings.Contains(body["error"], substr) {
		t.Errorf("error = %q, want it to contain %q", body["error"], substr)
	}
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)

	w := apiRequest(t, env.srv, "GET", "/health", "", nil)
	assertStatus(t, w, http.StatusOK)
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Error("expected request ID header")
	}
}

func TestMetricsExposeValuations(t *testing.T) {
	env := newTestEnv(t, nil)
	id := createTestListing(t, env, env.token, nil)

	w := apiRequest(t, env.srv, "GET", "/api/properties/"+itoa(id)+"/valuation", env.token, nil)
	assertStatus(t, w, http.StatusOK)

	w = apiRequest(t, env.srv, "GET", "/metrics", "", nil)
	assertStatus(t, w, http.StatusOK)
	if !strings.Contains(w.Body.String(), `ort_valuations_total{path="rule_based"} 1`) {
		t.Errorf("metrics missing valuation counter:\n%s", w.Body.String())
	}
}

func TestUnknownRouteIsJSON(t *testing.T) {
	env := newTestEnv(t, nil)

	w := apiRequest(t, env.srv, "GET", "/nope", "", nil)
	assertStatus(t, w, http.StatusNotFound)
	assertError(t, w, "not found")
}

func TestAPIRequiresBearer(t *testing.T) {
	env := newTestEnv(t, nil)

	paths := []string{"/api/properties", "/api/me", "/api/keys", "/api/users"}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			w := apiRequest(t, env.srv, "GET", path, "", nil)
			assertStatus(t, w, http.StatusUnauthorized)

			w = apiRequest(t, env.srv, "GET", path, "ort_invalid", nil)
			assertStatus(t, w, http.StatusUnauthorized)
		})
	}
}

func TestAuthEndpointsRateLimited(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < authRateLimit; i++ {
		w := apiRequest(t, env.srv, "GET", "/api/auth/verify?token=bogus", "", nil)
		assertStatus(t, w, http.StatusUnauthorized)
	}

	w := apiRequest(t, env.srv, "GET", "/api/auth/verify?token=bogus", "", nil)
	assertStatus(t, w, http.StatusTooManyRequests)
	assertError(t, w, "too many requests")
}

func TestListenAndServeStopsOnCancel(t *testing.T) {
	env := newTestEnv(t, nil)
	env.srv.cfg.Server.Port = 0

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.ListenAndServe(ctx) }()

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("listen: %v", err)
	}
}

// gatedValuer blocks until release is closed, or fails with
// valuation.ErrCancelled if the request context ends first.
type gatedValuer struct {
	started chan struct{}
	release chan struct{}
}

func (g *gatedValuer) Estimate(ctx context.Context, a valuation.Attributes) (valuation.Result, error) {
	close(g.started)
	select {
	case <-g.release:
		return valuation.EstimateFallback(a), nil
	case <-ctx.Done():
		return valuation.Result{}, fmt.Errorf("%w: %w", valuation.ErrCancelled, ctx.Err())
	}
}

func TestShutdownDrainsInFlightValuation(t *testing.T) {
	gate := &gatedValuer{started: make(chan struct{}), release: make(chan struct{})}
	env := newTestEnv(t, gate)
	id := createTestListing(t, env, env.token, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- env.srv.Serve(ctx, ln) }()

	type result struct {
		code int
		err  error
	}
	got := make(chan result, 1)
	go func() {
		req, err := http.NewRequest("GET", "http://"+ln.Addr().String()+"/api/properties/"+itoa(id)+"/valuation", nil)
		if err != nil {
			got <- result{err: err}
			return
		}
		req.Header.Set("Authorization", "Bearer "+env.token)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			got <- result{err: err}
			return
		}
		defer func() { _ = resp.Body.Close() }()
		got <- result{code: resp.StatusCode}
	}()

	<-gate.started
	cancel()
	time.Sleep(50 * time.Millisecond)
	close(gate.release)

	r := <-got
	if r.err != nil {
		t.Fatalf("request: %v", r.err)
	}
	if r.code != http.StatusOK {
		t.Errorf("status = %d, want 200 for a request in flight at shutdown", r.code)
	}
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
}

func TestServeWaitsForBackgroundWork(t *testing.T) {
	env := newTestEnv(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- env.srv.Serve(ctx, ln) }()

	release := make(chan struct{})
	var finished atomic.Bool
	env.srv.goBackground(func() {
		<-release
		finished.Store(true)
	})

	cancel()
	select {
	case err := <-done:
		t.Fatalf("Serve returned before background work finished: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("serve: %v", err)
	}
	if !finished.Load() {
		t.Error("background work did not finish before Serve returned")
	}
}
