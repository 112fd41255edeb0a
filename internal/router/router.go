// Package router classifies inbound messages into intents and extracts raw
// entity references via the LLM, and maps intents to specialist agents.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foremanhq/foreman/internal/convo"
	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/llm"
)

const systemPrompt = `You are the routing agent for a construction management assistant. The user is a construction project manager who tracks tasks and manages multiple job sites (projects).

Classify the intent into exactly one of:
- task_create: user wants to create a new task or to-do
- task_update: user wants to modify an existing task (priority, deadline, description)
- task_complete: user is marking a task as done
- task_query: user is asking about tasks (listing, filtering, searching)
- project_create: user wants to create a new project/job site
- project_update: user wants to modify a project (status, details)
- project_query: user is asking about a project's status or details
- schedule_query: user is asking about their schedule, calendar, or what they have to do
- knowledge_query: user is asking about past decisions, context, or information
- record_request: user wants to record or dictate something
- general_chat: greetings, acknowledgments, or unclear intent

Also extract any mentioned project names (even partial or nicknames), task references (descriptions or "that task", "the change order", etc.), deadlines, and priority levels.

If the user says "that task" or "this project", check the active context to resolve what they mean.

Respond with JSON only:
{"intent": "...", "entities": {"projects": [], "tasks": [], "deadline": "", "priority": ""}, "requires_lookup": false, "confidence": "high|medium|low"}`

// Completer is the LLM call the router depends on.
type Completer interface {
	Complete(ctx context.Context, req *llm.Request) (*llm.Response, error)
}

// Router classifies messages.
type Router struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

// New creates a Router. model may be empty to use the client default.
func New(completer Completer, model string, logger *slog.Logger) *Router {
	return &Router{llm: completer, model: model, logger: logger}
}

// Classify routes one message. Upstream or parse failures degrade to
// general_chat with low confidence rather than erroring; a turn should
// never die because classification hiccupped.
func (r *Router) Classify(ctx context.Context, message string, history []domain.Message, ac domain.ActiveContext) domain.RouterResult {
	prompt := fmt.Sprintf(`Active Context:
%s

Today's conversation so far:
%s

New message from the user: %q

Classify this message and extract entities.`, convo.Summary(ac), formatHistory(history), message)

	resp, err := r.llm.Complete(ctx, &llm.Request{
		Model:  r.model,
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		r.logger.Error("router classification failed", "error", err)
		return fallbackResult()
	}

	result, err := parseResult(resp.Content)
	if err != nil {
		r.logger.Error("router output unparseable", "error", err, "output", resp.Content)
		return fallbackResult()
	}
	return result
}

func parseResult(content string) (domain.RouterResult, error) {
	// Models sometimes wrap JSON in fences or prose; take the outermost
	// object.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return domain.RouterResult{}, fmt.Errorf("no JSON object in router output")
	}

	var result domain.RouterResult
	if err := json.Unmarshal([]byte(content[start:end+1]), &result); err != nil {
		return domain.RouterResult{}, fmt.Errorf("decode router output: %w", err)
	}
	if !result.Intent.Valid() {
		return domain.RouterResult{}, fmt.Errorf("unknown intent %q", result.Intent)
	}
	if result.Entities.Projects == nil {
		result.Entities.Projects = []string{}
	}
	if result.Entities.Tasks == nil {
		result.Entities.Tasks = []string{}
	}
	return result, nil
}

func fallbackResult() domain.RouterResult {
	return domain.RouterResult{
		Intent: domain.IntentGeneralChat,
		Entities: domain.ExtractedEntities{
			Projects: []string{},
			Tasks:    []string{},
		},
		RequiresLookup: false,
		Confidence:     domain.ConfidenceLow,
	}
}

func formatHistory(messages []domain.Message) string {
	if len(messages) == 0 {
		return "No previous messages today."
	}
	recent := messages
	if len(recent) > 10 {
		recent = recent[len(recent)-10:]
	}
	var sb strings.Builder
	for i, m := range recent {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
	}
	return sb.String()
}
