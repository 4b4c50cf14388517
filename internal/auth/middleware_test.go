package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func echoEmail() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(UserEmailFromContext(r.Context())))
	})
}

func TestRequireAPIKeyMissingHeader(t *testing.T) {
	store := testAPIKeyStore(t)
	handler := RequireAPIKey(store, echoEmail())

	r := httptest.NewRequest("GET", "/api/properties", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRequireAPIKeyInvalid(t *testing.T) {
	store := testAPIKeyStore(t)
	handler := RequireAPIKey(store, echoEmail())

	r := httptest.NewRequest("GET", "/api/properties", nil)
	r.Header.Set("Authorization", "Bearer ort_bogus")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestRequireAPIKeySetsEmail(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("CLI", "alice@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	handler := RequireAPIKey(store, echoEmail())

	r := httptest.NewRequest("GET", "/api/properties", nil)
	r.Header.Set("Authorization", "Bearer "+rawKey)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if w.Body.String() != "alice@example.com" {
		t.Errorf("email = %q", w.Body.String())
	}
}

func TestRequireAPIKeyRateLimitsFailures(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("CLI", "alice@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	handler := RequireAPIKey(store, echoEmail())

	for i := 0; i < rateLimitMaxFail; i++ {
		r := httptest.NewRequest("GET", "/api/properties", nil)
		r.Header.Set("Authorization", "Bearer ort_wrong")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status = %d", i, w.Code)
		}
	}

	// Even a valid key is refused once the IP is blocked.
	r := httptest.NewRequest("GET", "/api/properties", nil)
	r.Header.Set("Authorization", "Bearer "+rawKey)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
}

func TestRequireAPIKeySuccessDoesNotCount(t *testing.T) {
	store := testAPIKeyStore(t)
	rawKey, _, err := store.Create("CLI", "alice@example.com")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	handler := RequireAPIKey(store, echoEmail())

	for i := 0; i < rateLimitMaxFail+5; i++ {
		r := httptest.NewRequest("GET", "/api/properties", nil)
		r.Header.Set("Authorization", "Bearer "+rawKey)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, w.Code)
		}
	}
}

func TestUserEmailFromContextEmpty(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := UserEmailFromContext(r.Context()); got != "" {
		t.Errorf("email = %q, want empty", got)
	}
}
