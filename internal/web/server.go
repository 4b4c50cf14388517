// Package web provides the HTTP API server for the ort listing service.
package web

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ortrealty/ort/internal/appointment"
	"github.com/ortrealty/ort/internal/auth"
	"github.com/ortrealty/ort/internal/config"
	"github.com/ortrealty/ort/internal/email"
	"github.com/ortrealty/ort/internal/inquiry"
	"github.com/ortrealty/ort/internal/logging"
	"github.com/ortrealty/ort/internal/property"
	"github.com/ortrealty/ort/internal/valuation"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
	cleanupInterval   = time.Hour
	authRateLimit     = 10
)

// Server is the JSON API HTTP server.
type Server struct {
	cfg          config.Config
	props        *property.Service
	inquiries    *inquiry.Repository
	appointments *appointment.Repository
	users        *auth.UserStore
	apiKeys      *auth.APIKeyStore
	tokens       *auth.TokenStore
	mailer       *auth.Mailer
	notifier     *email.Notifier
	passkeys     *passkeyHandlers
	gatherer     prometheus.Gatherer
	router       chi.Router

	// background tracks work that outlives its request, such as
	// notification emails. Serve waits for it before returning.
	background sync.WaitGroup
}

// NewServer creates an API server backed by db. A nil valuer uses the
// rule-based model only; a nil gatherer serves the default registry.
func NewServer(db *sql.DB, cfg config.Config, valuer property.Valuer, gatherer prometheus.Gatherer) (*Server, error) {
	if valuer == nil {
		valuer = valuation.New(nil)
	}
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	s := &Server{
		cfg:          cfg,
		props:        property.NewService(property.NewRepository(db), valuer),
		inquiries:    inquiry.NewRepository(db),
		appointments: appointment.NewRepository(db),
		users:        auth.NewUserStore(db, cfg.Server.AdminEmail),
		apiKeys:      auth.NewAPIKeyStore(db),
		tokens:       auth.NewTokenStore(db),
		mailer:       auth.NewMailer(cfg.Mail()),
		notifier:     email.NewNotifier(cfg.Outbox(), cfg.Server.BaseURL, cfg.Server.DevMode),
		gatherer:     gatherer,
	}

	ph, err := newPasskeyHandlers(cfg.Server.BaseURL, auth.NewPasskeyStore(db), s.apiKeys, s.users)
	if err != nil {
		return nil, fmt.Errorf("configuring passkeys: %w", err)
	}
	s.passkeys = ph

	s.router = s.routes()
	return s, nil
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(logging.RequestLogger)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, r, "not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apiError(w, r, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		apiJSON(w, r, map[string]string{"status": "ok"}, http.StatusOK)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		// public auth endpoints
		r.Group(func(r chi.Router) {
			r.Use(httprate.Limit(authRateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					apiError(w, r, "too many requests", http.StatusTooManyRequests)
				}),
			))
			r.Post("/auth/login", s.handleLogin)
			r.Get("/auth/verify", s.handleVerify)
			r.Post("/auth/passkey/login/begin", s.passkeys.handleBeginLogin)
			r.Post("/auth/passkey/login/finish", s.passkeys.handleFinishLogin)
		})

		// bearer-authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(func(next http.Handler) http.Handler {
				return auth.RequireAPIKey(s.apiKeys, next)
			})

			r.Get("/me", s.handleMe)

			r.Route("/properties", func(r chi.Router) {
				r.Get("/", s.apiListProperties)
				r.Post("/", s.apiCreateProperty)
				r.Post("/search", s.apiSearchProperties)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", s.apiGetProperty)
					r.Put("/", s.apiUpdateProperty)
					r.Delete("/", s.apiDeleteProperty)
					r.Get("/valuation", s.apiValuateProperty)
					r.Get("/inquiries", s.apiListInquiries)
					r.Post("/inquiries", s.apiAddInquiry)
					r.Delete("/inquiries/{inquiryID}", s.apiDeleteInquiry)
					r.Get("/appointments", s.apiListAppointments)
					r.Post("/appointments", s.apiAddAppointment)
					r.Delete("/appointments/{appointmentID}", s.apiDeleteAppointment)
				})
			})

			r.Route("/keys", func(r chi.Router) {
				r.Get("/", s.handleListKeys)
				r.Post("/", s.handleCreateKey)
				r.Delete("/{id}", s.handleDeleteKey)
			})

			r.Post("/auth/passkey/register/begin", s.passkeys.handleBeginRegistration)
			r.Post("/auth/passkey/register/finish", s.passkeys.handleFinishRegistration)
			r.Get("/passkeys", s.passkeys.handleListPasskeys)
			r.Delete("/passkeys/{id}", s.passkeys.handleDeletePasskey)

			r.Route("/users", func(r chi.Router) {
				r.Use(s.requireAdmin)
				r.Get("/", s.listUsers)
				r.Post("/", s.addUser)
				r.Delete("/{id}", s.deleteUser)
			})
		})
	})

	return r
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured port until ctx is cancelled,
// then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("listening: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled. In-flight requests
// keep running after cancellation and are drained, along with background
// work, before Serve returns.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext: func(net.Listener) context.Context {
			return context.WithoutCancel(ctx)
		},
	}

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutting down server", "err", err)
		}
	}()

	go s.purgeTokens(ctx)

	slog.Info("server listening", "addr", ln.Addr().String(), "base_url", s.cfg.Server.BaseURL)
	err := httpServer.Serve(ln)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}

	<-drained
	s.background.Wait()
	return nil
}

// goBackground runs fn outside the request, tracked for shutdown.
func (s *Server) goBackground(fn func()) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		fn()
	}()
}

// purgeTokens deletes expired login tokens until ctx is cancelled.
func (s *Server) purgeTokens(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		if err := s.tokens.Cleanup(); err != nil {
			slog.Warn("purging login tokens", "err", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// requireAdmin rejects callers who are not administrators.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.users.IsAdmin(auth.UserEmailFromContext(r.Context())) {
			apiError(w, r, "admin access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// actor describes the authenticated caller for ownership checks.
func (s *Server) actor(r *http.Request) property.Actor {
	email := auth.UserEmailFromContext(r.Context())
	return property.Actor{Email: email, Admin: s.users.IsAdmin(email)}
}
