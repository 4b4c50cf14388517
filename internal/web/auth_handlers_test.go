package web

import (
	"net/http"
	"strings"
	"testing"

	"github.com/ortrealty/ort/internal/auth"
)

func TestLoginAlwaysAccepted(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, email := range []string{testAdmin, "nobody@example.com"} {
		t.Run(email, func(t *testing.T) {
			w := apiRequest(t, env.srv, "POST", "/api/auth/login", "", map[string]string{"email": email})
			assertStatus(t, w, http.StatusAccepted)

			var body map[string]string
			decodeBody(t, w, &body)
			if body["message"] != loginMessage {
				t.Errorf("message = %q", body["message"])
			}
		})
	}
}

func TestLoginCreatesTokenOnlyForAuthorized(t *testing.T) {
	env := newTestEnv(t, nil)

	apiRequest(t, env.srv, "POST", "/api/auth/login", "", map[string]string{"email": " Admin@Example.com "})
	apiRequest(t, env.srv, "POST", "/api/auth/login", "", map[string]string{"email": "nobody@example.com"})

	var n int
	if err := env.db.QueryRow("SELECT COUNT(*) FROM auth_tokens WHERE email = ?", testAdmin).Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 1 {
		t.Errorf("admin tokens = %d, want 1", n)
	}
	if err := env.db.QueryRow("SELECT COUNT(*) FROM auth_tokens WHERE email = ?", "nobody@example.com").Scan(&n); err != nil {
		t.Fatalf("query: %v", err)
	}
	if n != 0 {
		t.Errorf("unknown tokens = %d, want 0", n)
	}
}

func TestLoginRequiresEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	w := apiRequest(t, env.srv, "POST", "/api/auth/login", "", map[string]string{"email": "  "})
	assertStatus(t, w, http.StatusBadRequest)
	assertError(t, w, "email is required")
}

func TestVerifyIssuesKey(t *testing.T) {
	env := newTestEnv(t, nil)

	token, err := env.srv.tokens.Create(testAdmin)
	if err != nil {
		t.Fatalf("create token: %v", err)
	}

	w := apiRequest(t, env.srv, "GET", "/api/auth/verify?token="+token, "", nil)
	assertStatus(t, w, http.StatusOK)

	var body map[string]string
	decodeBody(t, w, &body)
	if body["email"] != testAdmin {
		t.Errorf("email = %q", body["email"])
	}
	if !strings.HasPrefix(body["key"], "ort_") {
		t.Fatalf("key = %q", body["key"])
	}

	w = apiRequest(t, env.srv, "GET", "/api/me", body["key"], nil)
	assertStatus(t, w, http.StatusOK)

	// the link is single use
	w = apiRequest(t, env.srv, "GET", "/api/auth/verify?token="+token, "", nil)
	assertStatus(t, w, http.StatusUnauthorized)
	assertError(t, w, "invalid or expired")
}

func TestVerifyBadToken(t *testing.T) {
	env := newTestEnv(t, nil)

	w := apiRequest(t, env.srv, "GET", "/api/auth/verify?token=nope", "", nil)
	assertStatus(t, w, http.StatusUnauthorized)

	w = apiRequest(t, env.srv, "GET", "/api/auth/verify", "", nil)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, nil)
	if _, err := env.srv.users.Add("agent@example.com", "Dana Agent", auth.RoleAgent); err != nil {
		t.Fatalf("add user: %v", err)
	}

	tests := []struct {
		name  string
		token string
		email string
		role  auth.Role
		admin bool
	}{
		{"configured admin", env.token, testAdmin, auth.RoleAdmin, true},
		{"registered agent", env.keyFor(t, "agent@example.com"), "agent@example.com", auth.RoleAgent, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := apiRequest(t, env.srv, "GET", "/api/me", tt.token, nil)
			assertStatus(t, w, http.StatusOK)

			var body struct {
				Email string    `json:"email"`
				Role  auth.Role `json:"role"`
				Admin bool      `json:"admin"`
			}
			decodeBody(t, w, &body)
			if body.Email != tt.email || body.Role != tt.role || body.Admin != tt.admin {
				t.Errorf("me = %+v", body)
			}
		})
	}
}

func TestAPIKeyLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)

	w := apiRequest(t, env.srv, "POST", "/api/keys", env.token, map[string]string{"name": "laptop"})
	assertStatus(t, w, http.StatusCreated)

	var created apiKeyCreateResponse
	decodeBody(t, w, &created)
	if created.APIKeyResponse.Name != "laptop" {
		t.Errorf("name = %q", created.APIKeyResponse.Name)
	}
	if !strings.HasPrefix(created.Key, created.APIKeyResponse.KeyPrefix) {
		t.Errorf("key %q does not start with prefix %q", created.Key, created.APIKeyResponse.KeyPrefix)
	}

	w = apiRequest(t, env.srv, "GET", "/api/keys", created.Key, nil)
	assertStatus(t, w, http.StatusOK)

	var keys []apiKeyResponse
	decodeBody(t, w, &keys)
	if len(keys) != 2 {
		t.Fatalf("got %d keys, want 2", len(keys))
	}
	if keys[0].ID != created.APIKeyResponse.ID {
		t.Errorf("newest key first: got %d", keys[0].ID)
	}
	if keys[0].LastUsedAt == nil {
		t.Error("expected last_used_at after use")
	}

	// another user cannot revoke it
	w = apiRequest(t, env.srv, "DELETE", "/api/keys/"+itoa(created.APIKeyResponse.ID), env.keyFor(t, "other@example.com"), nil)
	assertStatus(t, w, http.StatusNotFound)

	w = apiRequest(t, env.srv, "DELETE", "/api/keys/"+itoa(created.APIKeyResponse.ID), env.token, nil)
	assertStatus(t, w, http.StatusNoContent)

	w = apiRequest(t, env.srv, "GET", "/api/me", created.Key, nil)
	assertStatus(t, w, http.StatusUnauthorized)
}

func TestCreateKeyDefaultName(t *testing.T) {
	env := newTestEnv(t, nil)

	w := apiRequest(t, env.srv, "POST", "/api/keys", env.token, map[string]string{})
	assertStatus(t, w, http.StatusCreated)

	var created apiKeyCreateResponse
	decodeBody(t, w, &created)
	if created.APIKeyResponse.Name != "API Key" {
		t.Errorf("name = %q", created.APIKeyResponse.Name)
	}
}
