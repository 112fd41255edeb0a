package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/foremanhq/foreman/internal/convo"
	"github.com/foremanhq/foreman/internal/domain"
)

// GetOrCreateConversation returns today's conversation id, creating the
// row on first contact of the day.
func (s *Store) GetOrCreateConversation(ctx context.Context) (string, error) {
	date := s.now().UTC().Format("2006-01-02")

	var id string
	err := s.db.QueryRowContext(ctx,
		"SELECT id FROM conversations WHERE conversation_date = ?", date).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up conversation: %w", err)
	}

	id = newID()
	now := s.timestamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, conversation_date, started_at, last_activity) VALUES (?, ?, ?, ?)`,
		id, date, now, now)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return id, nil
}

// SaveMessage persists one message with its context snapshot and bumps
// the conversation's last_activity.
func (s *Store) SaveMessage(ctx context.Context, conversationID string, role domain.MessageRole, content string, ac domain.ActiveContext) (*domain.Message, error) {
	contextJSON, err := json.Marshal(ac)
	if err != nil {
		return nil, fmt.Errorf("failed to encode context: %w", err)
	}

	id := newID()
	now := s.timestamp()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, role, content, active_context, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, conversationID, string(role), content, string(contextJSON), now)
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		"UPDATE conversations SET last_activity = ? WHERE id = ?", now, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	return &domain.Message{
		ID:             id,
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		Context:        ac,
		CreatedAt:      parseTime(now),
	}, nil
}

// Messages returns a conversation's messages in chronological order.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, active_context, created_at
		 FROM messages WHERE conversation_id = ? ORDER BY created_at ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var out []domain.Message
	for rows.Next() {
		var m domain.Message
		var role, contextJSON, createdAt string
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &contextJSON, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = domain.MessageRole(role)
		m.CreatedAt = parseTime(createdAt)
		if err := json.Unmarshal([]byte(contextJSON), &m.Context); err != nil {
			m.Context = convo.NewEmptyContext()
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// LastMessageContext returns the context snapshot of the newest message
// in the conversation, or a fresh empty context when there is none.
func (s *Store) LastMessageContext(ctx context.Context, conversationID string) (domain.ActiveContext, error) {
	var contextJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT active_context FROM messages WHERE conversation_id = ? ORDER BY created_at DESC LIMIT 1`,
		conversationID).Scan(&contextJSON)
	if err == sql.ErrNoRows {
		return convo.NewEmptyContext(), nil
	}
	if err != nil {
		return domain.ActiveContext{}, fmt.Errorf("failed to load context: %w", err)
	}

	var ac domain.ActiveContext
	if err := json.Unmarshal([]byte(contextJSON), &ac); err != nil {
		return convo.NewEmptyContext(), nil
	}
	if ac.RecentlyMentionedTasks == nil {
		ac.RecentlyMentionedTasks = []string{}
	}
	if ac.RecentlyMentionedProjects == nil {
		ac.RecentlyMentionedProjects = []string{}
	}
	return ac, nil
}

// CloseOldConversations deactivates conversations from previous days.
func (s *Store) CloseOldConversations(ctx context.Context) error {
	date := s.now().UTC().Format("2006-01-02")
	_, err := s.db.ExecContext(ctx,
		"UPDATE conversations SET is_active = 0 WHERE conversation_date < ?", date)
	if err != nil {
		return fmt.Errorf("failed to close old conversations: %w", err)
	}
	return nil
}
