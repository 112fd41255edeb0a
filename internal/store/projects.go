package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/foremanhq/foreman/internal/domain"
)

const projectColumns = "id, name, client_name, address, project_type, status, created_at, updated_at"

// CreateProjectParams holds input for a new project.
type CreateProjectParams struct {
	Name        string
	ClientName  string
	Address     string
	ProjectType string
	Status      domain.ProjectStatus
}

// CreateProject inserts a new project and returns it.
func (s *Store) CreateProject(ctx context.Context, p CreateProjectParams) (*domain.Project, error) {
	if p.Status == "" {
		p.Status = domain.ProjectFuture
	}
	id := newID()
	now := s.timestamp()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, client_name, address, project_type, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.Name, p.ClientName, p.Address, p.ProjectType, string(p.Status), now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return s.GetProjectByID(ctx, id)
}

// UpdateProjectParams holds optional project field updates; nil means keep.
type UpdateProjectParams struct {
	Name        *string
	ClientName  *string
	Address     *string
	ProjectType *string
	Status      *domain.ProjectStatus
}

// UpdateProject applies non-nil fields and returns the updated project.
func (s *Store) UpdateProject(ctx context.Context, id string, u UpdateProjectParams) (*domain.Project, error) {
	existing, err := s.GetProjectByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("project %s not found", id)
	}

	if u.Name != nil {
		existing.Name = *u.Name
	}
	if u.ClientName != nil {
		existing.ClientName = *u.ClientName
	}
	if u.Address != nil {
		existing.Address = *u.Address
	}
	if u.ProjectType != nil {
		existing.ProjectType = *u.ProjectType
	}
	if u.Status != nil {
		existing.Status = *u.Status
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE projects SET name = ?, client_name = ?, address = ?, project_type = ?, status = ?, updated_at = ? WHERE id = ?`,
		existing.Name, existing.ClientName, existing.Address, existing.ProjectType, string(existing.Status), s.timestamp(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.GetProjectByID(ctx, id)
}

// GetProjectByID returns the project, or nil when absent.
func (s *Store) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+projectColumns+" FROM projects WHERE id = ?", id)
	p, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns all projects, most recently updated first.
func (s *Store) ListProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+projectColumns+" FROM projects ORDER BY updated_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// ListActiveProjects returns projects with status active.
func (s *Store) ListActiveProjects(ctx context.Context) ([]domain.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE status = ? ORDER BY updated_at DESC",
		string(domain.ProjectActive))
	if err != nil {
		return nil, fmt.Errorf("failed to list active projects: %w", err)
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProject(row rowScanner) (*domain.Project, error) {
	var p domain.Project
	var status, createdAt, updatedAt string
	err := row.Scan(&p.ID, &p.Name, &p.ClientName, &p.Address, &p.ProjectType, &status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	p.Status = domain.ProjectStatus(status)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return &p, nil
}
