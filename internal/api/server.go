// Package api provides the HTTP server: login and control pages, the /ws
// controller socket, health and session admin endpoints.
package api

import (
	"context"
	"embed"
	"html/template"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"remotepad/internal/auth"
	"remotepad/internal/logger"
	"remotepad/internal/session"
)

//go:embed pages/*.html
var pageFS embed.FS

// Server provides the HTTP surface
type Server struct {
	secret   func() *auth.Secret
	registry *session.Registry
	acceptor http.Handler
	pages    *template.Template
	log      zerolog.Logger
	srv      *http.Server
}

// NewServer creates a new server. secret returns the current shared secret
// and acceptor handles /ws.
func NewServer(secret func() *auth.Secret, registry *session.Registry, acceptor http.Handler, log zerolog.Logger) (*Server, error) {
	pages, err := template.ParseFS(pageFS, "pages/*.html")
	if err != nil {
		return nil, eris.Wrap(err, "parse pages")
	}
	s := &Server{
		secret:   secret,
		registry: registry,
		acceptor: acceptor,
		pages:    pages,
		log:      logger.Component(log, "api"),
	}
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleLogin).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodPost)
	r.Handle("/ws", s.acceptor)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	admin := r.PathPrefix("/api").Subrouter()
	admin.Use(s.authMiddleware)
	admin.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	admin.HandleFunc("/sessions", s.handleDisconnectSessions).Methods(http.MethodDelete)

	return s.logMiddleware(s.recoverMiddleware(r))
}

// Listen binds addr.
func (s *Server) Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, eris.Wrapf(err, "listen on %s", addr)
	}
	return ln, nil
}

// Serve blocks until the server is shut down.
func (s *Server) Serve(ln net.Listener) error {
	s.log.Info().Str("addr", ln.Addr().String()).Msg("HTTP server listening")
	if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
		return eris.Wrap(err, "serve")
	}
	return nil
}

// Shutdown stops accepting requests. Websocket sessions are hijacked and
// must be ended through the registry.
func (s *Server) Shutdown(ctx context.Context) error {
	return eris.Wrap(s.srv.Shutdown(ctx), "shutdown")
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panicked")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Msg("request")
		next.ServeHTTP(w, r)
	})
}

// authMiddleware requires "Authorization: Bearer <secret>"
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || !s.secret().Matches(token) {
			s.log.Warn().Str("path", r.URL.Path).Str("remote_addr", r.RemoteAddr).Msg("unauthorized admin request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleLogin handles GET /
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	s.render(w, "login.html", nil)
}

// handleIndex handles POST / with the password form field
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	password := r.PostForm.Get("password")
	if !s.secret().Matches(password) {
		s.log.Info().Str("remote_addr", r.RemoteAddr).Msg("failed login")
		s.render(w, "failed_login.html", nil)
		return
	}
	s.render(w, "control.html", struct{ Password string }{password})
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.pages.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error().Err(err).Str("page", name).Msg("render failed")
	}
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleListSessions handles GET /api/sessions
func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.registry.List())
}

// handleDisconnectSessions handles DELETE /api/sessions
func (s *Server) handleDisconnectSessions(w http.ResponseWriter, r *http.Request) {
	n := s.registry.DisconnectAll()
	s.log.Info().Int("sessions", n).Str("remote_addr", r.RemoteAddr).Msg("disconnected controllers")
	writeJSON(w, http.StatusOK, map[string]int{"disconnected": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
