// Package server wires the chi router: middleware chain, health and version
// endpoints, the metrics handler, and the signing job API.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	apperrors "github.com/signrelay/signrelay/internal/errors"
	"github.com/signrelay/signrelay/internal/observability"
	"github.com/signrelay/signrelay/internal/server/handlers"
	"github.com/signrelay/signrelay/internal/server/middleware"
)

// Server hosts the HTTP API.
type Server struct {
	host string
	port int

	allowedOrigin  string
	uploadRPS      float64
	uploadBurst    int
	maxUploadBytes int64
	metricsEnabled bool

	signing handlers.SigningService
	logger  *zap.Logger

	router     chi.Router
	httpServer *http.Server
}

// Option configures a Server before its routes are built.
type Option func(*Server)

// WithSigningService mounts the /api/sign endpoints.
func WithSigningService(svc handlers.SigningService) Option {
	return func(s *Server) { s.signing = svc }
}

// WithAllowedOrigin sets the CORS origin. Empty disables CORS headers.
func WithAllowedOrigin(origin string) Option {
	return func(s *Server) { s.allowedOrigin = origin }
}

// WithUploadLimit rate-limits POST /api/sign.
func WithUploadLimit(rps float64, burst int) Option {
	return func(s *Server) { s.uploadRPS = rps; s.uploadBurst = burst }
}

// WithMaxUploadBytes caps the upload request body.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) { s.maxUploadBytes = n }
}

// WithMetrics exposes GET /metrics.
func WithMetrics(enabled bool) Option {
	return func(s *Server) { s.metricsEnabled = enabled }
}

// WithLogger attaches the request-level logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New builds a server listening on host:port once started.
func New(host string, port int, opts ...Option) *Server {
	s := &Server{
		host:   host,
		port:   port,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.buildRouter()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Port returns the configured listen port.
func (s *Server) Port() int {
	return s.port
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.host, s.port)
}

// ListenAndServe blocks serving requests until Shutdown or a listener error.
func (s *Server) ListenAndServe(readTimeout, writeTimeout, idleTimeout time.Duration) error {
	s.httpServer = &http.Server{
		Addr:         s.Addr(),
		Handler:      s.router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}
	s.logger.Info("HTTP server listening", zap.String("addr", s.Addr()))
	return s.httpServer.ListenAndServe()
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery)
	r.Use(middleware.CORS(s.allowedOrigin))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusNotFound, apperrors.HTTPErrorBody{
			Code:      apperrors.CodeNotFound,
			Message:   fmt.Sprintf("no route for %s %s", req.Method, req.URL.Path),
			RequestID: middleware.GetRequestID(req.Context()),
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		apperrors.WriteError(w, http.StatusMethodNotAllowed, apperrors.HTTPErrorBody{
			Code:      apperrors.CodeMethodNotAllowed,
			Message:   fmt.Sprintf("method %s not allowed for %s", req.Method, req.URL.Path),
			RequestID: middleware.GetRequestID(req.Context()),
		})
	})

	r.Get("/health", handlers.HealthHandler)
	r.Get("/health/live", handlers.LivenessHandler)
	r.Get("/health/ready", handlers.ReadinessHandler)
	r.Get("/health/startup", handlers.StartupHandler)
	r.Get("/healthz", handlers.LivenessHandler)
	r.Get("/version", handlers.VersionHandler)

	if s.metricsEnabled {
		r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())
	}

	if s.signing != nil {
		sign := handlers.NewSignHandlers(s.signing, s.maxUploadBytes, s.logger)
		r.Route("/api/sign", func(r chi.Router) {
			r.With(middleware.RateLimit(s.uploadRPS, s.uploadBurst)).Post("/", sign.Submit)
			r.Get("/{jobID}", sign.Status)
			r.Get("/{jobID}/file", sign.Download)
		})
	}

	return r
}
