package domain

import "time"

// ProjectStatus is the lifecycle status of a project.
type ProjectStatus string

const (
	ProjectFuture    ProjectStatus = "future"
	ProjectActive    ProjectStatus = "active"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCompleted ProjectStatus = "completed"
)

// TaskStatus is the lifecycle status of a task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskCompleted TaskStatus = "completed"
	TaskOnHold    TaskStatus = "on_hold"
	TaskCancelled TaskStatus = "cancelled"
)

// TaskPriority ranks how urgent a task is.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

// Project is a job site the user manages.
type Project struct {
	ID          string
	Name        string
	ClientName  string
	Address     string
	ProjectType string
	Status      ProjectStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Task is a single to-do, optionally attached to a project.
type Task struct {
	ID             string
	ProjectID      string // empty when unattached
	Description    string
	Status         TaskStatus
	Priority       TaskPriority
	Deadline       *time.Time
	IsRecurring    bool
	RecurrenceRule string
	LastRemindedAt *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	CompletedAt    *time.Time
}

// MessageRole distinguishes who authored a conversation message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one persisted conversation turn half, with the context
// snapshot taken when it was saved.
type Message struct {
	ID             string
	ConversationID string
	Role           MessageRole
	Content        string
	Context        ActiveContext
	CreatedAt      time.Time
}

// CalendarEvent is a calendar entry surfaced in schedule answers.
type CalendarEvent struct {
	ID       string
	Summary  string
	Start    time.Time
	End      time.Time
	Location string
}

// KnowledgeEntry is a stored fact about a project.
type KnowledgeEntry struct {
	ID         string
	ProjectID  string
	Content    string
	SourceType string // meeting, chat, manual
	SourceID   string
	CreatedAt  time.Time
}

// VoiceTranscript is a raw recording transcript awaiting processing.
type VoiceTranscript struct {
	ID              string
	RawContent      string
	DurationSeconds int
	Source          string // telegram, webapp
	RecordedAt      time.Time
	Processed       bool
	ProcessedAt     *time.Time
	Summary         string
}

// DailyBrief is a generated morning summary.
type DailyBrief struct {
	ID            string
	BriefDate     string // YYYY-MM-DD
	Content       string
	TasksIncluded []string
	SentAt        time.Time
}
