package store

import (
	"context"
	"fmt"

	"github.com/foremanhq/foreman/internal/domain"
)

// SaveKnowledge records a fact about a project (or a general fact when
// projectID is empty) and returns it.
func (s *Store) SaveKnowledge(ctx context.Context, projectID, content, sourceType, sourceID string) (*domain.KnowledgeEntry, error) {
	if sourceType == "" {
		sourceType = "chat"
	}
	id := newID()
	now := s.timestamp()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO project_knowledge (id, project_id, content, source_type, source_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, projectID, content, sourceType, sourceID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to save knowledge: %w", err)
	}

	return &domain.KnowledgeEntry{
		ID:         id,
		ProjectID:  projectID,
		Content:    content,
		SourceType: sourceType,
		SourceID:   sourceID,
		CreatedAt:  parseTime(now),
	}, nil
}

// KnowledgeForProject returns a project's stored facts, newest first.
func (s *Store) KnowledgeForProject(ctx context.Context, projectID string) ([]domain.KnowledgeEntry, error) {
	return s.queryKnowledge(ctx,
		`SELECT id, project_id, content, source_type, source_id, created_at
		 FROM project_knowledge WHERE project_id = ? ORDER BY created_at DESC`,
		projectID)
}

// SearchKnowledge returns facts whose content matches the query text,
// newest first.
func (s *Store) SearchKnowledge(ctx context.Context, query string) ([]domain.KnowledgeEntry, error) {
	return s.queryKnowledge(ctx,
		`SELECT id, project_id, content, source_type, source_id, created_at
		 FROM project_knowledge WHERE content LIKE ? ORDER BY created_at DESC LIMIT 20`,
		"%"+query+"%")
}

func (s *Store) queryKnowledge(ctx context.Context, query string, args ...interface{}) ([]domain.KnowledgeEntry, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query knowledge: %w", err)
	}
	defer rows.Close()

	var out []domain.KnowledgeEntry
	for rows.Next() {
		var k domain.KnowledgeEntry
		var createdAt string
		if err := rows.Scan(&k.ID, &k.ProjectID, &k.Content, &k.SourceType, &k.SourceID, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge: %w", err)
		}
		k.CreatedAt = parseTime(createdAt)
		out = append(out, k)
	}
	return out, rows.Err()
}
