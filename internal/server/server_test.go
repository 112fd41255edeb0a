package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foremanhq/foreman/internal/agents"
	"github.com/foremanhq/foreman/internal/config"
	"github.com/foremanhq/foreman/internal/domain"
)

type fakeAPIStore struct {
	transcripts map[string]*domain.VoiceTranscript
	saveErr     error
	stamped     map[string]string
}

func newFakeAPIStore() *fakeAPIStore {
	return &fakeAPIStore{
		transcripts: map[string]*domain.VoiceTranscript{},
		stamped:     map[string]string{},
	}
}

func (f *fakeAPIStore) SaveTranscript(ctx context.Context, rawContent string, durationSeconds int, source string) (*domain.VoiceTranscript, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	t := &domain.VoiceTranscript{
		ID:              fmt.Sprintf("vt%d", len(f.transcripts)+1),
		RawContent:      rawContent,
		DurationSeconds: durationSeconds,
		Source:          source,
		RecordedAt:      time.Now(),
	}
	f.transcripts[t.ID] = t
	return t, nil
}

func (f *fakeAPIStore) GetTranscriptByID(ctx context.Context, id string) (*domain.VoiceTranscript, error) {
	return f.transcripts[id], nil
}

func (f *fakeAPIStore) MarkTranscriptProcessed(ctx context.Context, id, summary string) error {
	t, ok := f.transcripts[id]
	if !ok {
		return fmt.Errorf("transcript %s not found", id)
	}
	t.Processed = true
	f.stamped[id] = summary
	return nil
}

func (f *fakeAPIStore) UnprocessedTranscripts(ctx context.Context) ([]domain.VoiceTranscript, error) {
	var out []domain.VoiceTranscript
	for _, t := range f.transcripts {
		if !t.Processed {
			out = append(out, *t)
		}
	}
	return out, nil
}

type fakeTranscriber struct {
	text    string
	err     error
	enabled bool
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audio io.Reader, filename string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.text, nil
}

func (f *fakeTranscriber) Enabled() bool { return f.enabled }

type fakeExtractor struct {
	facts agents.ExtractedFacts
	err   error
}

func (f *fakeExtractor) Extract(ctx context.Context, rawContent string) (agents.ExtractedFacts, error) {
	return f.facts, f.err
}

func newTestServer(store Store, tr Transcriber, ex Extractor) *Server {
	cfg := &config.Config{Server: config.ServerConfig{Port: 8700, Host: "127.0.0.1"}}
	channels := map[string]bool{"telegram": true, "webchat": false}
	return New(cfg, store, tr, ex, channels, slog.New(slog.DiscardHandler))
}

func voiceUpload(t *testing.T, duration string) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("audio", "note.webm")
	require.NoError(t, err)
	_, err = fw.Write([]byte("fake audio bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("duration_seconds", duration))
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestHealthHandler(t *testing.T) {
	s := newTestServer(newFakeAPIStore(), &fakeTranscriber{}, &fakeExtractor{})

	rec := httptest.NewRecorder()
	s.healthHandler(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "healthy", resp.Status)
	require.NotEmpty(t, resp.Timestamp)
}

func TestStatusHandlerReportsChannelsAndBacklog(t *testing.T) {
	store := newFakeAPIStore()
	_, err := store.SaveTranscript(context.Background(), "pending one", 10, "webapp")
	require.NoError(t, err)
	s := newTestServer(store, &fakeTranscriber{enabled: true}, &fakeExtractor{})

	rec := httptest.NewRecorder()
	s.statusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "running", resp.Status)
	require.True(t, resp.Channels["telegram"])
	require.False(t, resp.Channels["webchat"])
	require.Equal(t, 1, resp.PendingTranscripts)
	require.True(t, resp.TranscriptionConfigured)
}

func TestTranscribeHandler(t *testing.T) {
	store := newFakeAPIStore()
	s := newTestServer(store, &fakeTranscriber{enabled: true, text: "drywall goes in thursday"}, &fakeExtractor{})

	body, contentType := voiceUpload(t, "42")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.transcribeHandler(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp TranscribeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "drywall goes in thursday", resp.Text)

	saved := store.transcripts[resp.ID]
	require.NotNil(t, saved)
	require.Equal(t, 42, saved.DurationSeconds)
	require.Equal(t, "webapp", saved.Source)
}

func TestTranscribeHandlerWhenDisabled(t *testing.T) {
	s := newTestServer(newFakeAPIStore(), &fakeTranscriber{enabled: false}, &fakeExtractor{})

	body, contentType := voiceUpload(t, "5")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.transcribeHandler(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestTranscribeHandlerSurfacesProviderFailure(t *testing.T) {
	s := newTestServer(newFakeAPIStore(), &fakeTranscriber{enabled: true, err: fmt.Errorf("provider down")}, &fakeExtractor{})

	body, contentType := voiceUpload(t, "5")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/voice/transcribe", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	s.transcribeHandler(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
}

func processRequest(s *Server, id string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/transcripts/{id}/process", s.processHandler)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/transcripts/"+id+"/process", nil))
	return rec
}

func TestProcessHandlerExtractsAndStamps(t *testing.T) {
	store := newFakeAPIStore()
	transcript, err := store.SaveTranscript(context.Background(), "order windows for henderson", 30, "webapp")
	require.NoError(t, err)

	facts := agents.ExtractedFacts{
		Tasks: []agents.ExtractedTask{{Description: "Order windows", Project: "Henderson"}},
	}
	s := newTestServer(store, &fakeTranscriber{}, &fakeExtractor{facts: facts})

	rec := processRequest(s, transcript.ID)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp ProcessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, transcript.ID, resp.ID)
	require.Len(t, resp.Facts.Tasks, 1)
	require.True(t, store.transcripts[transcript.ID].Processed)
	require.Equal(t, resp.Summary, store.stamped[transcript.ID])
}

func TestProcessHandlerUnknownTranscript(t *testing.T) {
	s := newTestServer(newFakeAPIStore(), &fakeTranscriber{}, &fakeExtractor{})

	rec := processRequest(s, "missing")

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessHandlerRejectsReprocessing(t *testing.T) {
	store := newFakeAPIStore()
	transcript, err := store.SaveTranscript(context.Background(), "already handled", 10, "webapp")
	require.NoError(t, err)
	require.NoError(t, store.MarkTranscriptProcessed(context.Background(), transcript.ID, "done"))

	s := newTestServer(store, &fakeTranscriber{}, &fakeExtractor{})

	rec := processRequest(s, transcript.ID)

	require.Equal(t, http.StatusConflict, rec.Code)
}
