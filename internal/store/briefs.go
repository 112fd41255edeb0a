package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/foremanhq/foreman/internal/domain"
)

// SaveBrief records a sent daily brief. The date is derived from the
// store clock so at most one brief exists per day.
func (s *Store) SaveBrief(ctx context.Context, content string, taskIDs []string) (*domain.DailyBrief, error) {
	if taskIDs == nil {
		taskIDs = []string{}
	}
	tasksJSON, err := json.Marshal(taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to encode task ids: %w", err)
	}

	id := newID()
	date := s.now().UTC().Format("2006-01-02")
	now := s.timestamp()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO daily_briefs (id, brief_date, content, tasks_included, sent_at) VALUES (?, ?, ?, ?, ?)`,
		id, date, content, string(tasksJSON), now)
	if err != nil {
		return nil, fmt.Errorf("failed to save brief: %w", err)
	}

	return &domain.DailyBrief{
		ID:            id,
		BriefDate:     date,
		Content:       content,
		TasksIncluded: taskIDs,
		SentAt:        parseTime(now),
	}, nil
}

// BriefForToday returns today's brief, or nil when none has been sent.
func (s *Store) BriefForToday(ctx context.Context) (*domain.DailyBrief, error) {
	date := s.now().UTC().Format("2006-01-02")

	var b domain.DailyBrief
	var tasksJSON, sentAt string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, brief_date, content, tasks_included, sent_at FROM daily_briefs WHERE brief_date = ?",
		date).Scan(&b.ID, &b.BriefDate, &b.Content, &tasksJSON, &sentAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get brief: %w", err)
	}

	if err := json.Unmarshal([]byte(tasksJSON), &b.TasksIncluded); err != nil {
		b.TasksIncluded = []string{}
	}
	b.SentAt = parseTime(sentAt)
	return &b, nil
}
