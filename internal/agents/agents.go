// Package agents holds the specialist handlers the orchestrator dispatches
// to once a message is routed and its entity references are resolved: task,
// project, knowledge and schedule specialists, plus the response generator
// that phrases their results for the user.
package agents

import (
	"context"
	"time"

	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/llm"
	"github.com/foremanhq/foreman/internal/store"
)

// Store is the persistence surface the specialists act through.
type Store interface {
	CreateTask(ctx context.Context, p store.CreateTaskParams) (*domain.Task, error)
	UpdateTask(ctx context.Context, id string, u store.UpdateTaskParams) (*domain.Task, error)
	CompleteTask(ctx context.Context, id string) (*domain.Task, error)
	GetTaskByID(ctx context.Context, id string) (*domain.Task, error)
	ListTasks(ctx context.Context) ([]domain.Task, error)
	ListTasksByProject(ctx context.Context, projectID string) ([]domain.Task, error)
	TodaysTasks(ctx context.Context) ([]domain.Task, error)
	OverdueTasks(ctx context.Context) ([]domain.Task, error)

	CreateProject(ctx context.Context, p store.CreateProjectParams) (*domain.Project, error)
	UpdateProject(ctx context.Context, id string, u store.UpdateProjectParams) (*domain.Project, error)
	GetProjectByID(ctx context.Context, id string) (*domain.Project, error)

	KnowledgeForProject(ctx context.Context, projectID string) ([]domain.KnowledgeEntry, error)
	SearchKnowledge(ctx context.Context, query string) ([]domain.KnowledgeEntry, error)
	SaveKnowledge(ctx context.Context, projectID, content, sourceType, sourceID string) (*domain.KnowledgeEntry, error)
}

// Completer is the LLM call the specialists depend on.
type Completer interface {
	Complete(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

// EventSource supplies calendar events for schedule answers. It may be
// absent when no calendar is configured.
type EventSource interface {
	EventsForDay(ctx context.Context, day time.Time) ([]domain.CalendarEvent, error)
}

// Turn is the per-message input every specialist receives: the original
// text, the router's extraction, and the resolved entities.
type Turn struct {
	Message  string
	Routed   domain.RouterResult
	Resolved domain.ResolvedEntities
	Context  domain.ActiveContext
}
