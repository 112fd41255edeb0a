package domain

// ResultKind discriminates specialist results.
type ResultKind string

const (
	ResultTask      ResultKind = "task"
	ResultProject   ResultKind = "project"
	ResultKnowledge ResultKind = "knowledge"
	ResultSchedule  ResultKind = "schedule"
)

// TaskAction says what the task specialist did.
type TaskAction string

const (
	TaskActionCreated   TaskAction = "created"
	TaskActionUpdated   TaskAction = "updated"
	TaskActionCompleted TaskAction = "completed"
	TaskActionQueried   TaskAction = "queried"
)

// ProjectAction says what the project specialist did.
type ProjectAction string

const (
	ProjectActionCreated ProjectAction = "created"
	ProjectActionUpdated ProjectAction = "updated"
)

// TaskResult is the task specialist's outcome.
type TaskResult struct {
	Action TaskAction
	Task   *Task  // set for created/updated/completed
	Tasks  []Task // set for queried
	Err    string
}

// ProjectResult is the project specialist's outcome.
type ProjectResult struct {
	Action  ProjectAction
	Project *Project
	Err     string
}

// KnowledgeResult is the knowledge specialist's outcome.
type KnowledgeResult struct {
	Answer     string
	Sources    []KnowledgeEntry
	Confidence Confidence
}

// ScheduleResult is the schedule specialist's outcome.
type ScheduleResult struct {
	Tasks  []Task
	Events []CalendarEvent
}

// Result is a tagged union over the specialist outcomes; exactly one of
// the pointer fields matching Kind is non-nil.
type Result struct {
	Kind      ResultKind
	Task      *TaskResult
	Project   *ProjectResult
	Knowledge *KnowledgeResult
	Schedule  *ScheduleResult
}
