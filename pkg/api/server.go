package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/engine"
	"github.com/vuer-ai/zaku-go/pkg/health"
	"github.com/vuer-ai/zaku-go/pkg/log"
	"github.com/vuer-ai/zaku-go/pkg/metrics"
	"github.com/vuer-ai/zaku-go/pkg/pubsub"
	"github.com/vuer-ai/zaku-go/pkg/security"
)

// Version is stamped by the main package at startup and reported on
// /health.
var Version = "dev"

// Server is the broker's HTTP front. It owns request framing,
// validation, dispatch to the job and pub/sub engines, and response
// framing; all queue state lives behind those engines.
type Server struct {
	cfg      *config.Config
	jobs     *engine.Engine
	topics   *pubsub.Engine
	registry *health.Registry
	router   chi.Router
	http     *http.Server
}

// NewServer creates the API server and builds its route table
func NewServer(cfg *config.Config, jobs *engine.Engine, topics *pubsub.Engine, registry *health.Registry) *Server {
	s := &Server{
		cfg:      cfg,
		jobs:     jobs,
		topics:   topics,
		registry: registry,
	}
	s.router = s.routes()
	return s
}

// routes wires middleware and endpoints
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(instrument)
	r.Use(corsHandler(s.cfg.CORS))
	r.Use(limitBody(s.cfg.RequestMaxSize))

	r.Put("/queues", s.handleCreateQueue)
	r.Delete("/queues", s.handleDropQueue)

	r.Put("/tasks", s.handleAdd)
	r.Post("/tasks", s.handleTake)
	r.Get("/tasks/counts", s.handleCount)
	r.Post("/tasks/reset", s.handleReset)
	r.Delete("/tasks", s.handleRemove)
	r.Put("/tasks/unstale", s.handleUnstale)

	r.Put("/publish", s.handlePublish)
	r.Post("/subscribe_one", s.handleSubscribeOne)
	r.Post("/subscribe_stream", s.handleSubscribeStream)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	if s.cfg.StaticRoot != "" {
		files := http.StripPrefix("/static", http.FileServer(http.Dir(s.cfg.StaticRoot)))
		r.Get("/static/*", files.ServeHTTP)
	}

	return r
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start binds the configured address and serves until Stop or a fatal
// listener error. Serving is plaintext unless certificate files are
// configured.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	// Streaming subscribers hold their responses open for the caller's
	// deadline, so the server sets no write timeout.
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	scheme := "http"
	if s.cfg.Cert != "" {
		tlsCfg, err := security.ServerTLSConfig(s.cfg.Cert, s.cfg.Key, s.cfg.CACert)
		if err != nil {
			_ = lis.Close()
			return err
		}
		lis = tls.NewListener(lis, tlsCfg)
		scheme = "https"
	}

	log.Info(fmt.Sprintf("Broker API listening on %s://%s", scheme, lis.Addr()))
	return s.http.Serve(lis)
}

// Stop drains in-flight requests and shuts the server down
func (s *Server) Stop(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
