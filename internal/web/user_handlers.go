package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ortrealty/ort/internal/auth"
)

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.users.List()
	if err != nil {
		writeDomainError(w, r, "listing users", err)
		return
	}
	apiJSON(w, r, users, http.StatusOK)
}

func (s *Server) addUser(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
		Role  string `json:"role"`
		Phone string `json:"phone"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Email) == "" {
		apiError(w, r, "email is required", http.StatusBadRequest)
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		apiError(w, r, err.Error(), http.StatusBadRequest)
		return
	}

	user, err := s.users.Add(req.Email, req.Name, role)
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			apiError(w, r, err.Error(), http.StatusConflict)
			return
		}
		writeDomainError(w, r, "adding user", err)
		return
	}

	if phone := strings.TrimSpace(req.Phone); phone != "" {
		if err := s.users.SetPhone(user.ID, phone); err != nil {
			writeDomainError(w, r, "saving phone", err)
			return
		}
		user.Phone = phone
	}

	apiJSON(w, r, user, http.StatusCreated)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r, "id")
	if !ok {
		return
	}

	if err := s.users.Delete(id); err != nil {
		if errors.Is(err, auth.ErrUserNotFound) {
			apiError(w, r, "user not found", http.StatusNotFound)
			return
		}
		writeDomainError(w, r, "deleting user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
