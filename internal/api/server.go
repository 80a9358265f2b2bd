// Package api exposes the pipeline and the time parser over HTTP next to
// the health, readiness and metrics endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"assistant-nlu/internal/common/logger"
	pte "assistant-nlu/internal/workers/nlu/parse-time-expression"
	pu "assistant-nlu/internal/workers/nlu/process-utterance"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 64 << 10

type UtteranceProcessor interface {
	Execute(ctx context.Context, input *pu.Input) (*pu.Output, error)
}

type TimeExpressionParser interface {
	Execute(ctx context.Context, input *pte.Input) (*pte.Output, error)
}

// ReadinessCheck reports whether a dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Server struct {
	processor UtteranceProcessor
	times     TimeExpressionParser
	checks    map[string]ReadinessCheck
	logger    logger.Logger
	router    *chi.Mux
}

func NewServer(processor UtteranceProcessor, times TimeExpressionParser, checks map[string]ReadinessCheck, log logger.Logger) *Server {
	s := &Server{
		processor: processor,
		times:     times,
		checks:    checks,
		logger:    log.With(map[string]interface{}{"component": "http"}),
	}
	s.setupRouter()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/process", s.handleProcess)
		r.Post("/time", s.handleTime)
	})

	s.router = r
}

// --- Response helpers ---

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failures := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			failures[name] = err.Error()
		}
	}

	if len(failures) > 0 {
		s.respondJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	var input pu.Input
	if err := decodeBody(w, r, &input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := s.processor.Execute(r.Context(), &input)
	if err != nil {
		if errors.Is(err, pu.ErrInvalidUtterance) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.logger.Error("process request failed", map[string]interface{}{
			"requestId": middleware.GetReqID(r.Context()),
			"error":     err.Error(),
		})
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.respondJSON(w, http.StatusOK, output)
}

func (s *Server) handleTime(w http.ResponseWriter, r *http.Request) {
	var input pte.Input
	if err := decodeBody(w, r, &input); err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	output, err := s.times.Execute(r.Context(), &input)
	if err != nil {
		if errors.Is(err, pte.ErrInvalidReference) {
			s.respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	s.respondJSON(w, http.StatusOK, output)
}
