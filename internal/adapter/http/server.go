package http

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/datasteward/steward/internal/infra/logger"
)

// Server represents the HTTP server
type Server struct {
	addr   string
	log    logger.Logger
	server *http.Server
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	CORSOrigins  []string
}

// HealthCheck reports whether the database is reachable
type HealthCheck func(ctx context.Context) error

// NewServer creates a new HTTP server
func NewServer(
	config ServerConfig,
	browse BrowseService,
	reconciler ReconcileService,
	authn *Authenticator,
	health HealthCheck,
	log logger.Logger,
) *Server {
	addr := net.JoinHostPort(config.Host, config.Port)
	return &Server{
		addr: addr,
		log:  log,
		server: &http.Server{
			Addr:         addr,
			Handler:      NewRouter(config, browse, reconciler, authn, health, log),
			ReadTimeout:  config.ReadTimeout,
			WriteTimeout: config.WriteTimeout,
			IdleTimeout:  config.IdleTimeout,
		},
	}
}

// NewRouter wires handlers and middleware
func NewRouter(
	config ServerConfig,
	browse BrowseService,
	reconciler ReconcileService,
	authn *Authenticator,
	health HealthCheck,
	log logger.Logger,
) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				writeErrorResponse(w, err)
				return
			}
		}
		writeSuccessResponse(w, http.StatusOK, "ok", nil)
	}).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(authn.Middleware)
	NewTableHandler(browse).RegisterRoutes(api)
	NewReconcileHandler(reconciler).RegisterRoutes(api)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, envelope{Status: false, Message: "no route for " + r.Method + " " + r.URL.Path})
	})

	// correlation is outermost so every log line of a request carries its id
	var handler http.Handler = router
	handler = corsMiddleware(config.CORSOrigins)(handler)
	handler = recoveryMiddleware(log)(handler)
	handler = loggingMiddleware(log)(handler)
	handler = correlationMiddleware(handler)
	return handler
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info(context.Background(), "Starting HTTP server", map[string]interface{}{"addr": s.addr})
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info(ctx, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}
