package domain

// MaxRecentEntities bounds the recency lists in ActiveContext.
const MaxRecentEntities = 5

// ActiveContext is the conversational memory carried between turns: which
// task/project is currently in focus and which were mentioned recently
// (most-recent-first, no duplicates, at most MaxRecentEntities each).
//
// ActiveContext is treated as a value: every turn reads it, derives a new
// one, and persists the replacement. Nothing mutates it in place.
type ActiveContext struct {
	CurrentTaskID             string   `json:"current_task_id,omitempty"`
	CurrentProjectID          string   `json:"current_project_id,omitempty"`
	RecentlyMentionedTasks    []string `json:"recently_mentioned_tasks"`
	RecentlyMentionedProjects []string `json:"recently_mentioned_projects"`
}

// ResolvedProject is a project reference resolved during one turn.
type ResolvedProject struct {
	ID   string
	Name string
}

// ResolvedTask is a task reference resolved during one turn.
type ResolvedTask struct {
	ID          string
	Description string
}

// ResolvedEntities is the ephemeral per-turn result of entity resolution:
// what the user was referring to, deduplicated by id, first-seen order.
// It is folded into ActiveContext at the end of the turn, never persisted
// on its own.
type ResolvedEntities struct {
	Projects []ResolvedProject
	Tasks    []ResolvedTask
}
