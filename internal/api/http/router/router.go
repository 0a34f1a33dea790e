package router

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/playground"

	"github.com/dtroode/usergraph/internal/api/http/middleware"
	"github.com/dtroode/usergraph/internal/logger"
)

const readyTimeout = 2 * time.Second

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config selects the optional endpoints.
type Config struct {
	GraphQLPath string
	Playground  bool
	MetricsPath string
}

// Router mounts the GraphQL endpoint and the operational endpoints.
type Router struct {
	cfg     Config
	graphql http.Handler
	metrics http.Handler
	pinger  Pinger
	logger  *logger.Logger
}

// New creates a Router. metrics may be nil to leave the metrics path unmounted.
func New(cfg Config, graphql http.Handler, metrics http.Handler, pinger Pinger, logger *logger.Logger) *Router {
	return &Router{
		cfg:     cfg,
		graphql: graphql,
		metrics: metrics,
		pinger:  pinger,
		logger:  logger,
	}
}

func (r *Router) Register() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(r.cfg.GraphQLPath, r.graphql)
	mux.HandleFunc("GET /health", r.health)
	mux.HandleFunc("GET /ready", r.ready)

	if r.metrics != nil {
		mux.Handle("GET "+r.cfg.MetricsPath, r.metrics)
	}
	if r.cfg.Playground {
		mux.Handle("GET /{$}", playground.Handler("usergraph", r.cfg.GraphQLPath))
	}

	logging := middleware.NewLogging(r.logger)
	return middleware.RequestID(logging.Handle(mux))
}

// health reports liveness only and never touches the database.
func (r *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, http.StatusOK, "ok")
}

func (r *Router) ready(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), readyTimeout)
	defer cancel()

	if err := r.pinger.Ping(ctx); err != nil {
		r.logger.Warn("Router: database is not ready",
			"error", err.Error())
		writeStatus(w, http.StatusServiceUnavailable, "unavailable")
		return
	}
	writeStatus(w, http.StatusOK, "ok")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
