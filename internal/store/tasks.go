package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/foremanhq/foreman/internal/domain"
)

const taskColumns = "id, project_id, description, status, priority, deadline, is_recurring, recurrence_rule, last_reminded_at, created_at, updated_at, completed_at"

// CreateTaskParams holds input for a new task.
type CreateTaskParams struct {
	Description    string
	ProjectID      string
	Deadline       *time.Time
	Priority       domain.TaskPriority
	IsRecurring    bool
	RecurrenceRule string
}

// CreateTask inserts a new pending task and returns it.
func (s *Store) CreateTask(ctx context.Context, p CreateTaskParams) (*domain.Task, error) {
	if p.Priority == "" {
		p.Priority = domain.PriorityMedium
	}
	id := newID()
	now := s.timestamp()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, description, status, priority, deadline, is_recurring, recurrence_rule, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, p.ProjectID, p.Description, string(domain.TaskPending), string(p.Priority),
		formatNullTime(p.Deadline), boolToInt(p.IsRecurring), p.RecurrenceRule, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.GetTaskByID(ctx, id)
}

// UpdateTaskParams holds optional task field updates; nil means keep.
type UpdateTaskParams struct {
	Description *string
	ProjectID   *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	Deadline    *time.Time
}

// UpdateTask applies non-nil fields and returns the updated task.
func (s *Store) UpdateTask(ctx context.Context, id string, u UpdateTaskParams) (*domain.Task, error) {
	existing, err := s.GetTaskByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("task %s not found", id)
	}

	if u.Description != nil {
		existing.Description = *u.Description
	}
	if u.ProjectID != nil {
		existing.ProjectID = *u.ProjectID
	}
	if u.Status != nil {
		existing.Status = *u.Status
	}
	if u.Priority != nil {
		existing.Priority = *u.Priority
	}
	if u.Deadline != nil {
		existing.Deadline = u.Deadline
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE tasks SET description = ?, project_id = ?, status = ?, priority = ?, deadline = ?, updated_at = ? WHERE id = ?`,
		existing.Description, existing.ProjectID, string(existing.Status), string(existing.Priority),
		formatNullTime(existing.Deadline), s.timestamp(), id)
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTaskByID(ctx, id)
}

// CompleteTask marks a task completed and returns it.
func (s *Store) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	now := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET status = ?, completed_at = ?, updated_at = ? WHERE id = ?`,
		string(domain.TaskCompleted), now, now, id)
	if err != nil {
		return nil, fmt.Errorf("failed to complete task: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("task %s not found", id)
	}
	return s.GetTaskByID(ctx, id)
}

// GetTaskByID returns the task, or nil when absent.
func (s *Store) GetTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListTasks returns all non-completed tasks, newest first. This is the
// candidate set for entity resolution.
func (s *Store) ListTasks(ctx context.Context) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status != ? ORDER BY created_at DESC",
		string(domain.TaskCompleted))
}

// ListTasksByProject returns a project's non-completed tasks, newest first.
func (s *Store) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE project_id = ? AND status != ? ORDER BY created_at DESC",
		projectID, string(domain.TaskCompleted))
}

// TodaysTasks returns pending tasks with a deadline inside today.
func (s *Store) TodaysTasks(ctx context.Context) ([]domain.Task, error) {
	start, end := dayBounds(s.now())
	return s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status = ? AND deadline >= ? AND deadline <= ? ORDER BY priority DESC",
		string(domain.TaskPending), start, end)
}

// OverdueTasks returns pending tasks whose deadline has passed.
func (s *Store) OverdueTasks(ctx context.Context) ([]domain.Task, error) {
	return s.queryTasks(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE status = ? AND deadline IS NOT NULL AND deadline < ? ORDER BY deadline ASC",
		string(domain.TaskPending), s.timestamp())
}

// TasksNeedingReminder returns overdue pending tasks not reminded in the
// last 24 hours.
func (s *Store) TasksNeedingReminder(ctx context.Context) ([]domain.Task, error) {
	cutoff := s.now().UTC().Add(-24 * time.Hour).Format(time.RFC3339Nano)
	return s.queryTasks(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE status = ? AND deadline IS NOT NULL AND deadline < ?
		   AND (last_reminded_at IS NULL OR last_reminded_at < ?)
		 ORDER BY deadline ASC`,
		string(domain.TaskPending), s.timestamp(), cutoff)
}

// MarkTaskReminded stamps a task's last_reminded_at.
func (s *Store) MarkTaskReminded(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET last_reminded_at = ? WHERE id = ?", s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("failed to mark task reminded: %w", err)
	}
	return nil
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...interface{}) ([]domain.Task, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var t domain.Task
	var status, priority, createdAt, updatedAt string
	var deadline, lastReminded, completedAt sql.NullString
	var isRecurring int
	err := row.Scan(&t.ID, &t.ProjectID, &t.Description, &status, &priority, &deadline,
		&isRecurring, &t.RecurrenceRule, &lastReminded, &createdAt, &updatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	t.Priority = domain.TaskPriority(priority)
	t.Deadline = parseNullTime(deadline)
	t.IsRecurring = isRecurring != 0
	t.LastRemindedAt = parseNullTime(lastReminded)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	t.CompletedAt = parseNullTime(completedAt)
	return &t, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func dayBounds(now time.Time) (string, string) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	end := start.Add(24*time.Hour - time.Nanosecond)
	return start.Format(time.RFC3339Nano), end.Format(time.RFC3339Nano)
}
