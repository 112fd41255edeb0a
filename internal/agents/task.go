package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/resolve"
	"github.com/foremanhq/foreman/internal/store"
)

// TaskAgent handles task_create, task_update, task_complete and task_query.
type TaskAgent struct {
	store  Store
	now    func() time.Time
	logger *slog.Logger
}

// NewTaskAgent creates a task specialist.
func NewTaskAgent(st Store, logger *slog.Logger) *TaskAgent {
	return &TaskAgent{store: st, now: time.Now, logger: logger}
}

// Handle executes one task intent. Business misses (nothing to act on)
// come back in the result's Err field; store failures return an error for
// the turn-level catch.
func (a *TaskAgent) Handle(ctx context.Context, turn Turn) (domain.Result, error) {
	var (
		tr  *domain.TaskResult
		err error
	)
	switch turn.Routed.Intent {
	case domain.IntentTaskCreate:
		tr, err = a.create(ctx, turn)
	case domain.IntentTaskUpdate:
		tr, err = a.update(ctx, turn)
	case domain.IntentTaskComplete:
		tr, err = a.complete(ctx, turn)
	default:
		tr, err = a.query(ctx, turn)
	}
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{Kind: domain.ResultTask, Task: tr}, nil
}

func (a *TaskAgent) create(ctx context.Context, turn Turn) (*domain.TaskResult, error) {
	description := turn.Message
	if len(turn.Routed.Entities.Tasks) > 0 {
		description = turn.Routed.Entities.Tasks[0]
	}

	projectID, err := a.projectForNewTask(ctx, turn)
	if err != nil {
		return nil, err
	}

	task, err := a.store.CreateTask(ctx, store.CreateTaskParams{
		Description: strings.TrimSpace(description),
		ProjectID:   projectID,
		Deadline:    ParseDeadline(turn.Routed.Entities.Deadline, a.now()),
		Priority:    turn.Routed.Entities.Priority,
	})
	if err != nil {
		return nil, fmt.Errorf("task create: %w", err)
	}

	a.logger.Info("task created", "task_id", task.ID, "project_id", task.ProjectID)
	return &domain.TaskResult{Action: domain.TaskActionCreated, Task: task}, nil
}

// projectForNewTask picks the project a new task attaches to: a resolved
// reference wins; failing that, a message that reads like "start a new X
// project" creates the project on the spot. Empty means unattached.
func (a *TaskAgent) projectForNewTask(ctx context.Context, turn Turn) (string, error) {
	if len(turn.Resolved.Projects) > 0 {
		return turn.Resolved.Projects[0].ID, nil
	}
	if len(turn.Routed.Entities.Projects) == 0 {
		return "", nil
	}

	ref := turn.Routed.Entities.Projects[0]
	if !resolve.SuggestsNewEntity(turn.Message) {
		return "", nil
	}
	name := resolve.ExtractProjectName(turn.Message)
	if name == "" {
		name = ref
	}

	p, err := a.store.CreateProject(ctx, store.CreateProjectParams{Name: name})
	if err != nil {
		return "", fmt.Errorf("auto-create project: %w", err)
	}
	a.logger.Info("project auto-created for task", "project_id", p.ID, "name", name)
	return p.ID, nil
}

func (a *TaskAgent) update(ctx context.Context, turn Turn) (*domain.TaskResult, error) {
	if len(turn.Resolved.Tasks) == 0 {
		return &domain.TaskResult{Action: domain.TaskActionUpdated, Err: "no matching task found"}, nil
	}

	var u store.UpdateTaskParams
	if d := ParseDeadline(turn.Routed.Entities.Deadline, a.now()); d != nil {
		u.Deadline = d
	}
	if p := turn.Routed.Entities.Priority; p != "" {
		u.Priority = &p
	}
	if len(turn.Resolved.Projects) > 0 {
		u.ProjectID = &turn.Resolved.Projects[0].ID
	}

	task, err := a.store.UpdateTask(ctx, turn.Resolved.Tasks[0].ID, u)
	if err != nil {
		return nil, fmt.Errorf("task update: %w", err)
	}
	return &domain.TaskResult{Action: domain.TaskActionUpdated, Task: task}, nil
}

func (a *TaskAgent) complete(ctx context.Context, turn Turn) (*domain.TaskResult, error) {
	if len(turn.Resolved.Tasks) == 0 {
		return &domain.TaskResult{Action: domain.TaskActionCompleted, Err: "no matching task found"}, nil
	}

	task, err := a.store.CompleteTask(ctx, turn.Resolved.Tasks[0].ID)
	if err != nil {
		return nil, fmt.Errorf("task complete: %w", err)
	}
	a.logger.Info("task completed", "task_id", task.ID)
	return &domain.TaskResult{Action: domain.TaskActionCompleted, Task: task}, nil
}

func (a *TaskAgent) query(ctx context.Context, turn Turn) (*domain.TaskResult, error) {
	var (
		tasks []domain.Task
		err   error
	)
	if len(turn.Resolved.Projects) > 0 {
		tasks, err = a.store.ListTasksByProject(ctx, turn.Resolved.Projects[0].ID)
	} else {
		tasks, err = a.store.ListTasks(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("task query: %w", err)
	}
	return &domain.TaskResult{Action: domain.TaskActionQueried, Tasks: tasks}, nil
}
