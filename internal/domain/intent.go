package domain

// Intent is the classified purpose of an inbound message.
type Intent string

const (
	IntentTaskCreate     Intent = "task_create"
	IntentTaskUpdate     Intent = "task_update"
	IntentTaskComplete   Intent = "task_complete"
	IntentTaskQuery      Intent = "task_query"
	IntentProjectCreate  Intent = "project_create"
	IntentProjectUpdate  Intent = "project_update"
	IntentProjectQuery   Intent = "project_query"
	IntentScheduleQuery  Intent = "schedule_query"
	IntentKnowledgeQuery Intent = "knowledge_query"
	IntentRecordRequest  Intent = "record_request"
	IntentGeneralChat    Intent = "general_chat"
)

// Valid reports whether the intent is one of the known values.
func (i Intent) Valid() bool {
	switch i {
	case IntentTaskCreate, IntentTaskUpdate, IntentTaskComplete, IntentTaskQuery,
		IntentProjectCreate, IntentProjectUpdate, IntentProjectQuery,
		IntentScheduleQuery, IntentKnowledgeQuery, IntentRecordRequest,
		IntentGeneralChat:
		return true
	}
	return false
}

// Confidence is the router's self-reported classification confidence.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ExtractedEntities are the raw reference strings the router pulled out of
// a message, before resolution.
type ExtractedEntities struct {
	Projects []string     `json:"projects"`
	Tasks    []string     `json:"tasks"`
	Deadline string       `json:"deadline"`
	Priority TaskPriority `json:"priority"`
}

// RouterResult is the router's structured output for one message.
type RouterResult struct {
	Intent         Intent            `json:"intent"`
	Entities       ExtractedEntities `json:"entities"`
	RequiresLookup bool              `json:"requires_lookup"`
	Confidence     Confidence        `json:"confidence"`
}
