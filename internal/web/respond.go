package web

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/ortrealty/ort/internal/appointment"
	"github.com/ortrealty/ort/internal/inquiry"
	"github.com/ortrealty/ort/internal/property"
	"github.com/ortrealty/ort/internal/valuation"
)

// apiError writes a JSON error response.
func apiError(w http.ResponseWriter, r *http.Request, msg string, code int) {
	apiJSON(w, r, map[string]string{"error": msg}, code)
}

// apiJSON writes a JSON response with the given status code.
func apiJSON(w http.ResponseWriter, r *http.Request, data interface{}, code int) {
	render.Status(r, code)
	render.JSON(w, r, data)
}

// decodeJSON reads a JSON request body into v, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		apiError(w, r, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

// idParam parses a positive integer URL parameter, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		apiError(w, r, "invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, r *http.Request, action string, err error) {
	switch {
	case errors.Is(err, property.ErrNotFound),
		errors.Is(err, inquiry.ErrNotFound),
		errors.Is(err, appointment.ErrNotFound):
		apiError(w, r, err.Error(), http.StatusNotFound)
	case errors.Is(err, property.ErrForbidden):
		apiError(w, r, "only the owner or an admin may change this listing", http.StatusForbidden)
	case errors.Is(err, property.ErrInvalid),
		errors.Is(err, inquiry.ErrInvalid),
		errors.Is(err, appointment.ErrInvalid):
		apiError(w, r, err.Error(), http.StatusBadRequest)
	case errors.Is(err, valuation.ErrCancelled):
		apiError(w, r, "valuation cancelled", http.StatusServiceUnavailable)
	default:
		slog.Error(action, "err", err, "path", r.URL.Path)
		apiError(w, r, action+" failed", http.StatusInternalServerError)
	}
}
