// Package server is the HTTP surface: health and status probes, the
// Prometheus endpoint, and the voice-recorder API.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/foremanhq/foreman/internal/agents"
	"github.com/foremanhq/foreman/internal/config"
	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/metrics"
)

// maxUploadBytes bounds recorder uploads (25 MB).
const maxUploadBytes = 25 << 20

// Store is the persistence surface the API needs.
type Store interface {
	SaveTranscript(ctx context.Context, rawContent string, durationSeconds int, source string) (*domain.VoiceTranscript, error)
	GetTranscriptByID(ctx context.Context, id string) (*domain.VoiceTranscript, error)
	MarkTranscriptProcessed(ctx context.Context, id, summary string) error
	UnprocessedTranscripts(ctx context.Context) ([]domain.VoiceTranscript, error)
}

// Transcriber converts uploaded audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error)
	Enabled() bool
}

// Extractor mines a transcript for tasks and knowledge.
type Extractor interface {
	Extract(ctx context.Context, rawContent string) (agents.ExtractedFacts, error)
}

// Server is the HTTP server.
type Server struct {
	cfg         *config.Config
	store       Store
	transcriber Transcriber
	extractor   Extractor
	channels    map[string]bool
	httpServer  *http.Server
	startTime   time.Time
	logger      *slog.Logger
}

// HealthResponse is the /health payload.
type HealthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	Timestamp string `json:"timestamp"`
}

// StatusResponse is the /api/v1/status payload.
type StatusResponse struct {
	Status                  string          `json:"status"`
	Uptime                  string          `json:"uptime"`
	Channels                map[string]bool `json:"channels"`
	PendingTranscripts      int             `json:"pending_transcripts"`
	TranscriptionConfigured bool            `json:"transcription_configured"`
	Timestamp               string          `json:"timestamp"`
}

// TranscribeResponse is the voice upload reply.
type TranscribeResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// ProcessResponse is the transcript processing reply: the extracted facts
// awaiting the user's approval.
type ProcessResponse struct {
	ID      string                `json:"id"`
	Facts   agents.ExtractedFacts `json:"facts"`
	Summary string                `json:"summary"`
}

// New creates the HTTP server.
func New(cfg *config.Config, store Store, transcriber Transcriber, extractor Extractor, channels map[string]bool, logger *slog.Logger) *Server {
	s := &Server{
		cfg:         cfg,
		store:       store,
		transcriber: transcriber,
		extractor:   extractor,
		channels:    channels,
		startTime:   time.Now(),
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /api/v1/status", s.statusHandler)
	mux.HandleFunc("POST /api/v1/voice/transcribe", s.transcribeHandler)
	mux.HandleFunc("POST /api/v1/transcripts/{id}/process", s.processHandler)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: mux,
	}
	return s
}

// Start blocks serving HTTP until Shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	pending, err := s.store.UnprocessedTranscripts(r.Context())
	if err != nil {
		s.logger.Error("status transcript count failed", "error", err)
	}
	writeJSON(w, http.StatusOK, StatusResponse{
		Status:                  "running",
		Uptime:                  time.Since(s.startTime).Round(time.Second).String(),
		Channels:                s.channels,
		PendingTranscripts:      len(pending),
		TranscriptionConfigured: s.transcriber != nil && s.transcriber.Enabled(),
		Timestamp:               time.Now().UTC().Format(time.RFC3339),
	})
}

// transcribeHandler takes a recorder upload, transcribes it and stores the
// raw transcript for later processing.
func (s *Server) transcribeHandler(w http.ResponseWriter, r *http.Request) {
	if s.transcriber == nil || !s.transcriber.Enabled() {
		httpError(w, http.StatusServiceUnavailable, "transcription is not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		httpError(w, http.StatusBadRequest, "invalid upload")
		return
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		httpError(w, http.StatusBadRequest, "missing audio file")
		return
	}
	defer file.Close()

	duration, _ := strconv.Atoi(r.FormValue("duration_seconds"))
	source := r.FormValue("source")
	if source == "" {
		source = "webapp"
	}

	text, err := s.transcriber.Transcribe(r.Context(), file, header.Filename)
	if err != nil {
		s.logger.Error("transcription failed", "error", err)
		httpError(w, http.StatusBadGateway, "transcription failed")
		return
	}

	transcript, err := s.store.SaveTranscript(r.Context(), text, duration, source)
	if err != nil {
		s.logger.Error("transcript save failed", "error", err)
		httpError(w, http.StatusInternalServerError, "could not save transcript")
		return
	}

	metrics.VoiceNotesTotal.Inc()
	writeJSON(w, http.StatusOK, TranscribeResponse{ID: transcript.ID, Text: transcript.RawContent})
}

// processHandler runs fact extraction over a stored transcript and marks
// it processed. The facts come back for the user's approval; nothing is
// committed here.
func (s *Server) processHandler(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	transcript, err := s.store.GetTranscriptByID(r.Context(), id)
	if err != nil {
		s.logger.Error("transcript lookup failed", "error", err)
		httpError(w, http.StatusInternalServerError, "could not load transcript")
		return
	}
	if transcript == nil {
		httpError(w, http.StatusNotFound, "transcript not found")
		return
	}
	if transcript.Processed {
		httpError(w, http.StatusConflict, "transcript already processed")
		return
	}

	facts, err := s.extractor.Extract(r.Context(), transcript.RawContent)
	if err != nil {
		s.logger.Error("transcript extraction failed", "error", err, "transcript_id", id)
		httpError(w, http.StatusBadGateway, "extraction failed")
		return
	}

	summary := facts.Summary()
	if err := s.store.MarkTranscriptProcessed(r.Context(), id, summary); err != nil {
		s.logger.Error("transcript stamp failed", "error", err, "transcript_id", id)
		httpError(w, http.StatusInternalServerError, "could not update transcript")
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{ID: id, Facts: facts, Summary: summary})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
