package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ortrealty/ort/internal/auth"
)

// loginMessage is returned whether or not the email is registered, so the
// endpoint does not reveal which addresses have accounts.
const loginMessage = "If that email is registered, a login link has been sent. Check your inbox."

// handleLogin sends a magic link to an authorized email.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" {
		apiError(w, r, "email is required", http.StatusBadRequest)
		return
	}

	if s.users.IsAuthorized(email) {
		token, err := s.tokens.Create(email)
		if err != nil {
			slog.Error("creating token", "err", err)
		} else if _, err := s.mailer.SendMagicLink(email, token); err != nil {
			slog.Error("sending magic link", "err", err)
		}
	} else {
		slog.Info("login attempt for unknown email", "email", email)
	}

	apiJSON(w, r, map[string]string{"message": loginMessage}, http.StatusAccepted)
}

// handleVerify exchanges a magic link token for a new API key.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		apiError(w, r, "token is required", http.StatusBadRequest)
		return
	}

	email, err := s.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrTokenUsed) || errors.Is(err, auth.ErrTokenExpired) {
			apiError(w, r, "invalid or expired login link", http.StatusUnauthorized)
			return
		}
		writeDomainError(w, r, "verifying token", err)
		return
	}

	rawKey, _, err := s.apiKeys.Create("CLI", email)
	if err != nil {
		writeDomainError(w, r, "creating api key", err)
		return
	}

	slog.Info("login success", "email", email, "method", "magic_link")
	apiJSON(w, r, map[string]string{"key": rawKey, "email": email}, http.StatusOK)
}

// handleMe describes the authenticated caller.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmailFromContext(r.Context())

	resp := struct {
		Email string    `json:"email"`
		Name  string    `json:"name,omitempty"`
		Role  auth.Role `json:"role"`
		Admin bool      `json:"admin"`
	}{Email: email, Role: auth.RoleBuyer, Admin: s.users.IsAdmin(email)}

	u, err := s.users.GetByEmail(email)
	switch {
	case err == nil:
		resp.Name = u.Name
		resp.Role = u.Role
	case errors.Is(err, auth.ErrUserNotFound):
		// the configured admin has no users row
	default:
		writeDomainError(w, r, "loading user", err)
		return
	}
	if resp.Admin {
		resp.Role = auth.RoleAdmin
	}

	apiJSON(w, r, resp, http.StatusOK)
}

type apiKeyResponse struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	KeyPrefix  string  `json:"key_prefix"`
	CreatedAt  string  `json:"created_at"`
	LastUsedAt *string `json:"last_used_at,omitempty"`
}

type apiKeyCreateResponse struct {
	Key            string         `json:"key"` // raw key, shown once
	APIKeyResponse apiKeyResponse `json:"api_key"`
}

func toAPIKeyResponse(k auth.APIKey) apiKeyResponse {
	resp := apiKeyResponse{
		ID:        k.ID,
		Name:      k.Name,
		KeyPrefix: k.KeyPrefix,
		CreatedAt: k.CreatedAt.UTC().Format(time.RFC3339),
	}
	if k.LastUsedAt != nil {
		s := k.LastUsedAt.UTC().Format(time.RFC3339)
		resp.LastUsedAt = &s
	}
	return resp
}

// handleCreateKey generates a new API key for the caller.
func (s *Server) handleCreateKey(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		name = "API Key"
	}

	rawKey, key, err := s.apiKeys.Create(name, auth.UserEmailFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, "creating api key", err)
		return
	}

	apiJSON(w, r, apiKeyCreateResponse{Key: rawKey, APIKeyResponse: toAPIKeyResponse(*key)}, http.StatusCreated)
}

// handleListKeys returns the caller's API keys (without raw keys).
func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.apiKeys.List(auth.UserEmailFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, "listing api keys", err)
		return
	}

	resp := make([]apiKeyResponse, len(keys))
	for i, k := range keys {
		resp[i] = toAPIKeyResponse(k)
	}
	apiJSON(w, r, resp, http.StatusOK)
}

// handleDeleteKey revokes one of the caller's API keys.
func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.apiKeys.Delete(id, auth.UserEmailFromContext(r.Context())); err != nil {
		if errors.Is(err, auth.ErrKeyNotFound) {
			apiError(w, r, "key not found", http.StatusNotFound)
			return
		}
		writeDomainError(w, r, "deleting api key", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
