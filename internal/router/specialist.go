package router

import "github.com/foremanhq/foreman/internal/domain"

// Specialist names the agent category a classified intent dispatches to.
type Specialist string

const (
	SpecialistTask      Specialist = "task"
	SpecialistProject   Specialist = "project"
	SpecialistKnowledge Specialist = "knowledge"
	SpecialistSchedule  Specialist = "schedule"
	SpecialistNone      Specialist = ""
)

// SpecialistFor maps an intent to its specialist. record_request and
// general_chat get a direct response with no specialist.
func SpecialistFor(intent domain.Intent) Specialist {
	switch intent {
	case domain.IntentTaskCreate, domain.IntentTaskUpdate, domain.IntentTaskComplete, domain.IntentTaskQuery:
		return SpecialistTask
	case domain.IntentProjectCreate, domain.IntentProjectUpdate:
		return SpecialistProject
	case domain.IntentProjectQuery, domain.IntentKnowledgeQuery:
		return SpecialistKnowledge
	case domain.IntentScheduleQuery:
		return SpecialistSchedule
	default:
		return SpecialistNone
	}
}
