// Package api exposes the JSON HTTP surface: public profile and question
// answering for visitors, profile and ingestion management for the owner.
package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/askfolio/askfolio/internal/answer"
	"github.com/askfolio/askfolio/internal/ingest"
	"github.com/askfolio/askfolio/internal/profile"
	"github.com/askfolio/askfolio/internal/qna"
)

// ServerConfig contains the dependencies for the API server.
type ServerConfig struct {
	Logger   *slog.Logger
	Profiles *profile.Store  // Required
	Answers  *answer.Service // Required
	Ingester *ingest.Service // Required
	History  *qna.Store      // Required
	Pool     *pgxpool.Pool   // Optional: nil disables the DB check in /readyz
}

// Server is the JSON API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates the server with all routes configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Profiles == nil {
		return nil, errors.New("profile store is required")
	}
	if cfg.Answers == nil {
		return nil, errors.New("answer service is required")
	}
	if cfg.Ingester == nil {
		return nil, errors.New("ingest service is required")
	}
	if cfg.History == nil {
		return nil, errors.New("qna store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	pub := &publicHandler{profiles: cfg.Profiles, answers: cfg.Answers, logger: logger}
	adm := &adminHandler{ingester: cfg.Ingester, history: cfg.History, logger: logger}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/profile", pub.getProfile)
	mux.HandleFunc("POST /api/ask", pub.ask)

	mux.HandleFunc("PUT /api/admin/profile", adm.updateProfile)
	mux.HandleFunc("POST /api/admin/scrape", adm.scrape)
	mux.HandleFunc("POST /api/admin/resume", adm.uploadResume)
	mux.HandleFunc("GET /api/admin/qna", adm.listQnA)

	var handler http.Handler = mux
	handler = loggingMiddleware(logger)(handler)
	handler = recoveryMiddleware(logger)(handler)

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /healthz", health)
	topMux.Handle("GET /readyz", readiness(cfg.Pool, logger))
	topMux.Handle("/", handler)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
