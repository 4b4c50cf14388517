package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"

	"github.com/ortrealty/ort/internal/auth"
)

// passkeyHandlers holds WebAuthn-related HTTP handlers.
type passkeyHandlers struct {
	wan        *webauthn.WebAuthn
	passkeys   *auth.PasskeyStore
	apiKeys    *auth.APIKeyStore
	users      *auth.UserStore
	ceremonies *auth.Ceremonies
}

// ceremonyResponse pairs WebAuthn options with the ID the client echoes
// back on finish.
type ceremonyResponse struct {
	ChallengeID string      `json:"challenge_id"`
	Options     interface{} `json:"options"`
}

func newPasskeyHandlers(baseURL string, passkeys *auth.PasskeyStore, apiKeys *auth.APIKeyStore, users *auth.UserStore) (*passkeyHandlers, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}

	wan, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Ort Realty",
		RPID:          parsed.Hostname(),
		RPOrigins:     []string{baseURL},
	})
	if err != nil {
		return nil, err
	}

	return &passkeyHandlers{
		wan:        wan,
		passkeys:   passkeys,
		apiKeys:    apiKeys,
		users:      users,
		ceremonies: auth.NewCeremonies(),
	}, nil
}

// handleBeginRegistration starts passkey registration for the caller.
func (h *passkeyHandlers) handleBeginRegistration(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmailFromContext(r.Context())

	creds, err := h.passkeys.WebAuthnCredentials(email)
	if err != nil {
		writeDomainError(w, r, "loading credentials", err)
		return
	}

	user := auth.NewPasskeyUser(email, creds)

	// Exclude existing credentials so the same key is not registered twice
	excludeList := make([]protocol.CredentialDescriptor, len(creds))
	for i, c := range creds {
		excludeList[i] = c.Descriptor()
	}

	creation, session, err := h.wan.BeginRegistration(user,
		webauthn.WithExclusions(excludeList),
	)
	if err != nil {
		writeDomainError(w, r, "beginning registration", err)
		return
	}

	id := h.ceremonies.Put(email, session)
	apiJSON(w, r, ceremonyResponse{ChallengeID: id, Options: creation}, http.StatusOK)
}

// handleFinishRegistration completes passkey registration.
func (h *passkeyHandlers) handleFinishRegistration(w http.ResponseWriter, r *http.Request) {
	email := auth.UserEmailFromContext(r.Context())

	session, ok := h.ceremonies.Take(r.URL.Query().Get("challenge_id"), email)
	if !ok {
		apiError(w, r, "no registration in progress", http.StatusBadRequest)
		return
	}

	creds, err := h.passkeys.WebAuthnCredentials(email)
	if err != nil {
		writeDomainError(w, r, "loading credentials", err)
		return
	}

	credential, err := h.wan.FinishRegistration(auth.NewPasskeyUser(email, creds), *session, r)
	if err != nil {
		slog.Warn("finishing registration", "err", err, "email", email)
		apiError(w, r, "registration failed", http.StatusBadRequest)
		return
	}

	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		name = "Passkey"
	}

	if err := h.passkeys.Save(email, name, credential); err != nil {
		writeDomainError(w, r, "saving credential", err)
		return
	}

	apiJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
}

type passkeyResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// handleListPasskeys lists the caller's registered passkeys.
func (h *passkeyHandlers) handleListPasskeys(w http.ResponseWriter, r *http.Request) {
	stored, err := h.passkeys.ListByEmail(auth.UserEmailFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, "listing passkeys", err)
		return
	}

	resp := make([]passkeyResponse, len(stored))
	for i, sc := range stored {
		resp[i] = passkeyResponse{ID: sc.ID, Name: sc.Name}
	}
	apiJSON(w, r, resp, http.StatusOK)
}

// handleDeletePasskey removes one of the caller's passkeys.
func (h *passkeyHandlers) handleDeletePasskey(w http.ResponseWriter, r *http.Request) {
	err := h.passkeys.Delete(chi.URLParam(r, "id"), auth.UserEmailFromContext(r.Context()))
	if errors.Is(err, auth.ErrCredentialNotFound) {
		apiError(w, r, "passkey not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeDomainError(w, r, "deleting passkey", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleBeginLogin starts a discoverable passkey login.
func (h *passkeyHandlers) handleBeginLogin(w http.ResponseWriter, r *http.Request) {
	assertion, session, err := h.wan.BeginDiscoverableLogin()
	if err != nil {
		writeDomainError(w, r, "beginning passkey login", err)
		return
	}

	id := h.ceremonies.Put("", session)
	apiJSON(w, r, ceremonyResponse{ChallengeID: id, Options: assertion}, http.StatusOK)
}

// handleFinishLogin completes passkey login and issues an API key.
func (h *passkeyHandlers) handleFinishLogin(w http.ResponseWriter, r *http.Request) {
	session, ok := h.ceremonies.Take(r.URL.Query().Get("challenge_id"), "")
	if !ok {
		apiError(w, r, "no login in progress", http.StatusBadRequest)
		return
	}

	handler := func(rawID, userHandle []byte) (webauthn.User, error) {
		emails, err := h.users.AllEmails()
		if err != nil {
			return nil, err
		}
		user, err := h.passkeys.FindUser(emails, userHandle)
		if err != nil {
			return nil, protocol.ErrBadRequest.WithDetails("unknown user")
		}
		return user, nil
	}

	user, _, err := h.wan.FinishPasskeyLogin(handler, *session, r)
	if err != nil {
		slog.Warn("finishing passkey login", "err", err)
		apiError(w, r, "login failed", http.StatusUnauthorized)
		return
	}

	email := user.WebAuthnName()
	rawKey, _, err := h.apiKeys.Create("Passkey login", email)
	if err != nil {
		writeDomainError(w, r, "creating api key", err)
		return
	}

	slog.Info("login success", "email", email, "method", "passkey")
	apiJSON(w, r, map[string]string{"key": rawKey, "email": email}, http.StatusOK)
}
