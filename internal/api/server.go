package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/motorsig/internal/config"
	"github.com/dgallion1/motorsig/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for motorsig.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config

	// syncTimeout bounds how long the JSON endpoints wait for a result.
	syncTimeout time.Duration
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		log:          log,
		cfg:          cfg,
		syncTimeout:  2 * time.Minute,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/handwriting", s.handleSubmitHandwriting)
		r.Post("/api/speech", s.handleSubmitSpeech)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)
		r.Get("/api/jobs/{jobID}/report", s.handleJobReport)
		r.Get("/api/stats", s.handleStats)

		// JSON endpoints of the original analysis service.
		r.Post("/writing-analysis", s.handleWritingAnalysis)
		r.Post("/speech-analysis", s.handleSpeechAnalysis)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"services": map[string]string{
			"handwriting_analysis": "ok",
			"speech_analysis":      "ok",
			"ocr":                  s.cfg.OCRProvider,
		},
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}
