package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/llm"
	"github.com/foremanhq/foreman/internal/store"
)

// fakeStore is an in-memory Store for specialist tests.
type fakeStore struct {
	projects []domain.Project
	tasks    []domain.Task
	entries  []domain.KnowledgeEntry

	createdTasks    []store.CreateTaskParams
	createdProjects []store.CreateProjectParams
	completedIDs    []string
}

func (f *fakeStore) CreateTask(ctx context.Context, p store.CreateTaskParams) (*domain.Task, error) {
	f.createdTasks = append(f.createdTasks, p)
	t := domain.Task{
		ID:          fmt.Sprintf("task-%d", len(f.createdTasks)),
		ProjectID:   p.ProjectID,
		Description: p.Description,
		Status:      domain.TaskPending,
		Priority:    p.Priority,
		Deadline:    p.Deadline,
	}
	if t.Priority == "" {
		t.Priority = domain.PriorityMedium
	}
	f.tasks = append(f.tasks, t)
	return &t, nil
}

func (f *fakeStore) UpdateTask(ctx context.Context, id string, u store.UpdateTaskParams) (*domain.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			if u.Priority != nil {
				f.tasks[i].Priority = *u.Priority
			}
			if u.Deadline != nil {
				f.tasks[i].Deadline = u.Deadline
			}
			if u.ProjectID != nil {
				f.tasks[i].ProjectID = *u.ProjectID
			}
			return &f.tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %s not found", id)
}

func (f *fakeStore) CompleteTask(ctx context.Context, id string) (*domain.Task, error) {
	f.completedIDs = append(f.completedIDs, id)
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			f.tasks[i].Status = domain.TaskCompleted
			return &f.tasks[i], nil
		}
	}
	return nil, fmt.Errorf("task %s not found", id)
}

func (f *fakeStore) GetTaskByID(ctx context.Context, id string) (*domain.Task, error) {
	for i := range f.tasks {
		if f.tasks[i].ID == id {
			return &f.tasks[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) ListTasks(ctx context.Context) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		if t.Status != domain.TaskCompleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.tasks {
		if t.ProjectID == projectID && t.Status != domain.TaskCompleted {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeStore) TodaysTasks(ctx context.Context) ([]domain.Task, error)  { return f.tasks, nil }
func (f *fakeStore) OverdueTasks(ctx context.Context) ([]domain.Task, error) { return nil, nil }

func (f *fakeStore) CreateProject(ctx context.Context, p store.CreateProjectParams) (*domain.Project, error) {
	f.createdProjects = append(f.createdProjects, p)
	proj := domain.Project{
		ID:     fmt.Sprintf("proj-%d", len(f.createdProjects)),
		Name:   p.Name,
		Status: domain.ProjectFuture,
	}
	f.projects = append(f.projects, proj)
	return &proj, nil
}

func (f *fakeStore) UpdateProject(ctx context.Context, id string, u store.UpdateProjectParams) (*domain.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			if u.Status != nil {
				f.projects[i].Status = *u.Status
			}
			if u.Name != nil {
				f.projects[i].Name = *u.Name
			}
			return &f.projects[i], nil
		}
	}
	return nil, fmt.Errorf("project %s not found", id)
}

func (f *fakeStore) GetProjectByID(ctx context.Context, id string) (*domain.Project, error) {
	for i := range f.projects {
		if f.projects[i].ID == id {
			return &f.projects[i], nil
		}
	}
	return nil, nil
}

func (f *fakeStore) KnowledgeForProject(ctx context.Context, projectID string) ([]domain.KnowledgeEntry, error) {
	var out []domain.KnowledgeEntry
	for _, e := range f.entries {
		if e.ProjectID == projectID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) SearchKnowledge(ctx context.Context, query string) ([]domain.KnowledgeEntry, error) {
	return f.entries, nil
}

func (f *fakeStore) SaveKnowledge(ctx context.Context, projectID, content, sourceType, sourceID string) (*domain.KnowledgeEntry, error) {
	e := domain.KnowledgeEntry{ID: fmt.Sprintf("k-%d", len(f.entries)+1), ProjectID: projectID, Content: content}
	f.entries = append(f.entries, e)
	return &e, nil
}

type fakeCompleter struct {
	content string
	err     error
	lastReq *llm.Request
}

func (f *fakeCompleter) Complete(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.content}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func fixedClock() time.Time {
	return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) // a Tuesday
}
