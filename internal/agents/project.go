package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/resolve"
	"github.com/foremanhq/foreman/internal/store"
)

// ProjectAgent handles project_create and project_update.
type ProjectAgent struct {
	store  Store
	logger *slog.Logger
}

// NewProjectAgent creates a project specialist.
func NewProjectAgent(st Store, logger *slog.Logger) *ProjectAgent {
	return &ProjectAgent{store: st, logger: logger}
}

// Handle executes one project intent.
func (a *ProjectAgent) Handle(ctx context.Context, turn Turn) (domain.Result, error) {
	var (
		pr  *domain.ProjectResult
		err error
	)
	if turn.Routed.Intent == domain.IntentProjectCreate {
		pr, err = a.create(ctx, turn)
	} else {
		pr, err = a.update(ctx, turn)
	}
	if err != nil {
		return domain.Result{}, err
	}
	return domain.Result{Kind: domain.ResultProject, Project: pr}, nil
}

func (a *ProjectAgent) create(ctx context.Context, turn Turn) (*domain.ProjectResult, error) {
	name := resolve.ExtractProjectName(turn.Message)
	if name == "" && len(turn.Routed.Entities.Projects) > 0 {
		name = turn.Routed.Entities.Projects[0]
	}
	if name == "" {
		return &domain.ProjectResult{Action: domain.ProjectActionCreated, Err: "could not tell what to call the project"}, nil
	}

	p, err := a.store.CreateProject(ctx, store.CreateProjectParams{Name: strings.TrimSpace(name)})
	if err != nil {
		return nil, fmt.Errorf("project create: %w", err)
	}
	a.logger.Info("project created", "project_id", p.ID, "name", p.Name)
	return &domain.ProjectResult{Action: domain.ProjectActionCreated, Project: p}, nil
}

func (a *ProjectAgent) update(ctx context.Context, turn Turn) (*domain.ProjectResult, error) {
	if len(turn.Resolved.Projects) == 0 {
		return &domain.ProjectResult{Action: domain.ProjectActionUpdated, Err: "no matching project found"}, nil
	}

	u := store.UpdateProjectParams{}
	if status, ok := statusFromMessage(turn.Message); ok {
		u.Status = &status
	}

	p, err := a.store.UpdateProject(ctx, turn.Resolved.Projects[0].ID, u)
	if err != nil {
		return nil, fmt.Errorf("project update: %w", err)
	}
	return &domain.ProjectResult{Action: domain.ProjectActionUpdated, Project: p}, nil
}

// statusFromMessage sniffs a lifecycle change out of the message text.
func statusFromMessage(message string) (domain.ProjectStatus, bool) {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "on hold") || strings.Contains(lower, "pause"):
		return domain.ProjectOnHold, true
	case strings.Contains(lower, "finished") || strings.Contains(lower, "wrapped up") || strings.Contains(lower, "complete"):
		return domain.ProjectCompleted, true
	case strings.Contains(lower, "kick off") || strings.Contains(lower, "kicked off") || strings.Contains(lower, "underway") || strings.Contains(lower, "started"):
		return domain.ProjectActive, true
	}
	return "", false
}
