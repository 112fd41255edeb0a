package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foremanhq/foreman/internal/domain"
)

const transcriptColumns = "id, raw_content, duration_seconds, source, recorded_at, processed, processed_at, processing_summary"

// SaveTranscript stores a raw voice transcript awaiting processing.
func (s *Store) SaveTranscript(ctx context.Context, rawContent string, durationSeconds int, source string) (*domain.VoiceTranscript, error) {
	id := newID()
	now := s.timestamp()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO voice_transcripts (id, raw_content, duration_seconds, source, recorded_at) VALUES (?, ?, ?, ?, ?)`,
		id, rawContent, durationSeconds, source, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save transcript: %w", err)
	}

	return &domain.VoiceTranscript{
		ID:              id,
		RawContent:      rawContent,
		DurationSeconds: durationSeconds,
		Source:          source,
		RecordedAt:      parseTime(now),
	}, nil
}

// GetTranscriptByID returns the transcript, or nil when absent.
func (s *Store) GetTranscriptByID(ctx context.Context, id string) (*domain.VoiceTranscript, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+transcriptColumns+" FROM voice_transcripts WHERE id = ?", id)
	t, err := scanTranscript(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transcript: %w", err)
	}
	return t, nil
}

// UnprocessedTranscripts returns transcripts not yet fact-extracted,
// oldest first.
func (s *Store) UnprocessedTranscripts(ctx context.Context) ([]domain.VoiceTranscript, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+transcriptColumns+" FROM voice_transcripts WHERE processed = 0 ORDER BY recorded_at ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query transcripts: %w", err)
	}
	defer rows.Close()

	var out []domain.VoiceTranscript
	for rows.Next() {
		t, err := scanTranscript(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transcript: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// MarkTranscriptProcessed stamps a transcript processed with its summary.
func (s *Store) MarkTranscriptProcessed(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE voice_transcripts SET processed = 1, processed_at = ?, processing_summary = ? WHERE id = ?",
		s.timestamp(), summary, id)
	if err != nil {
		return fmt.Errorf("failed to mark transcript processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("transcript %s not found", id)
	}
	return nil
}

func scanTranscript(row rowScanner) (*domain.VoiceTranscript, error) {
	var t domain.VoiceTranscript
	var recordedAt string
	var processed int
	var processedAt sql.NullString
	err := row.Scan(&t.ID, &t.RawContent, &t.DurationSeconds, &t.Source, &recordedAt, &processed, &processedAt, &t.Summary)
	if err != nil {
		return nil, err
	}
	t.RecordedAt = parseTime(recordedAt)
	t.Processed = processed != 0
	t.ProcessedAt = parseNullTime(processedAt)
	return &t, nil
}
