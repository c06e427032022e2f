// Package server exposes the grading service over HTTP: a JSON
// assessment endpoint, a health probe, and Prometheus metrics.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gradeband/examiner/infrastructure/llm"
	"github.com/gradeband/examiner/internal/application"
	"github.com/gradeband/examiner/internal/domain"
)

// Server routes HTTP traffic to the grading service.
type Server struct {
	svc     *application.Service
	metrics http.Handler
	logger  *log.Logger
}

// New creates a Server. The metrics handler defaults to the Prometheus
// default registry when nil.
func New(svc *application.Service, metrics http.Handler, logger *log.Logger) (*Server, error) {
	if svc == nil {
		return nil, errors.New("grading service required")
	}
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Server{svc: svc, metrics: metrics, logger: logger}, nil
}

// Routes builds the HTTP handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/assessments", s.handleAssess)
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.Handle("/metrics", s.metrics)
	return s.logMiddleware(mux)
}

type assessRequest struct {
	Topic string        `json:"topic"`
	Essay string        `json:"essay"`
	Image *imagePayload `json:"image,omitempty"`
}

// imagePayload carries the task image. Data is standard base64 per
// encoding/json's []byte convention.
type imagePayload struct {
	Data     []byte `json:"data"`
	MIMEType string `json:"mime_type"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleAssess(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req assessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("decode request: %v", err))
		return
	}

	sub := application.Submission{Topic: req.Topic, Essay: req.Essay}
	if req.Image != nil {
		sub.Image = &domain.ImagePayload{Data: req.Image.Data, MIMEType: req.Image.MIMEType}
	}

	assessment, err := s.svc.Grade(r.Context(), sub)
	if err != nil {
		status, msg := classifyGradeError(err)
		writeError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, assessment)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// classifyGradeError maps a grading failure to an HTTP status and a
// client-facing message. Credential exhaustion consolidates the attempt
// count with the final underlying error in one line.
func classifyGradeError(err error) (int, string) {
	var dispatchErr *llm.DispatchError
	if errors.As(err, &dispatchErr) {
		return http.StatusBadGateway, fmt.Sprintf(
			"grading failed after %d credential attempt(s): %v",
			dispatchErr.Attempts, dispatchErr.LastErr)
	}

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		return http.StatusBadRequest, err.Error()
	}

	return http.StatusInternalServerError, err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Printf("%s %s %s", r.Method, r.URL.Path, time.Since(start))
	})
}
