// Package convo owns the conversational context lifecycle: the merge of
// resolved entities into ActiveContext after a turn, the helpers used when
// a brand-new entity is created mid-turn, and the summary string handed to
// the intent router.
//
// Every function here is pure: contexts are values, copied on write and
// never mutated in place.
package convo

import (
	"fmt"
	"strings"

	"github.com/foremanhq/foreman/internal/domain"
)

// NewEmptyContext returns a fresh context for the start of a conversation.
func NewEmptyContext() domain.ActiveContext {
	return domain.ActiveContext{
		RecentlyMentionedTasks:    []string{},
		RecentlyMentionedProjects: []string{},
	}
}

// Merge folds a turn's resolved entities into an existing context and
// returns the replacement.
//
// Every resolved entity is prepended to its recency list (skipping
// duplicates), and current_* tracks the last entity processed: when a turn
// resolves several projects, the final one becomes current while all of
// them enter recency. Lists are truncated to MaxRecentEntities.
func Merge(existing domain.ActiveContext, resolved domain.ResolvedEntities) domain.ActiveContext {
	updated := domain.ActiveContext{
		CurrentTaskID:             existing.CurrentTaskID,
		CurrentProjectID:          existing.CurrentProjectID,
		RecentlyMentionedTasks:    append([]string{}, existing.RecentlyMentionedTasks...),
		RecentlyMentionedProjects: append([]string{}, existing.RecentlyMentionedProjects...),
	}

	for _, p := range resolved.Projects {
		if !contains(updated.RecentlyMentionedProjects, p.ID) {
			updated.RecentlyMentionedProjects = prepend(updated.RecentlyMentionedProjects, p.ID)
		}
		updated.CurrentProjectID = p.ID
	}

	for _, t := range resolved.Tasks {
		if !contains(updated.RecentlyMentionedTasks, t.ID) {
			updated.RecentlyMentionedTasks = prepend(updated.RecentlyMentionedTasks, t.ID)
		}
		updated.CurrentTaskID = t.ID
	}

	updated.RecentlyMentionedTasks = truncate(updated.RecentlyMentionedTasks)
	updated.RecentlyMentionedProjects = truncate(updated.RecentlyMentionedProjects)

	return updated
}

// WithNewTask records a just-created task as current and most recent.
func WithNewTask(existing domain.ActiveContext, taskID string) domain.ActiveContext {
	updated := domain.ActiveContext{
		CurrentTaskID:             taskID,
		CurrentProjectID:          existing.CurrentProjectID,
		RecentlyMentionedTasks:    truncate(prepend(without(existing.RecentlyMentionedTasks, taskID), taskID)),
		RecentlyMentionedProjects: append([]string{}, existing.RecentlyMentionedProjects...),
	}
	return updated
}

// WithNewProject records a just-created project as current and most recent.
func WithNewProject(existing domain.ActiveContext, projectID string) domain.ActiveContext {
	updated := domain.ActiveContext{
		CurrentTaskID:             existing.CurrentTaskID,
		CurrentProjectID:          projectID,
		RecentlyMentionedTasks:    append([]string{}, existing.RecentlyMentionedTasks...),
		RecentlyMentionedProjects: truncate(prepend(without(existing.RecentlyMentionedProjects, projectID), projectID)),
	}
	return updated
}

// ClearCurrent drops the current task/project focus, keeping recency.
func ClearCurrent(existing domain.ActiveContext) domain.ActiveContext {
	return domain.ActiveContext{
		RecentlyMentionedTasks:    append([]string{}, existing.RecentlyMentionedTasks...),
		RecentlyMentionedProjects: append([]string{}, existing.RecentlyMentionedProjects...),
	}
}

// Summary renders the context as prompt text for the intent router.
func Summary(ac domain.ActiveContext) string {
	var parts []string

	if ac.CurrentProjectID != "" {
		parts = append(parts, fmt.Sprintf("Current project: %s", ac.CurrentProjectID))
	}
	if ac.CurrentTaskID != "" {
		parts = append(parts, fmt.Sprintf("Current task: %s", ac.CurrentTaskID))
	}
	if len(ac.RecentlyMentionedProjects) > 0 {
		parts = append(parts, fmt.Sprintf("Recently mentioned projects: %s", strings.Join(ac.RecentlyMentionedProjects, ", ")))
	}
	if len(ac.RecentlyMentionedTasks) > 0 {
		parts = append(parts, fmt.Sprintf("Recently mentioned tasks: %s", strings.Join(ac.RecentlyMentionedTasks, ", ")))
	}

	if len(parts) == 0 {
		return "No active context."
	}
	return strings.Join(parts, "\n")
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func prepend(ids []string, id string) []string {
	return append([]string{id}, ids...)
}

func without(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func truncate(ids []string) []string {
	if len(ids) > domain.MaxRecentEntities {
		return ids[:domain.MaxRecentEntities]
	}
	return ids
}
