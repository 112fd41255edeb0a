package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/llm"
)

const responsePrompt = `You are Foreman, a construction project manager's assistant. Reply in one or two short sentences, plain text, like a competent site secretary. No markdown, no emoji.`

// cannedReplies short-circuits small talk without an LLM round trip. Keys
// are matched against the lowercased, punctuation-trimmed message.
var cannedReplies = map[string]string{
	"thanks":     "You got it.",
	"thank you":  "You got it.",
	"ok":         "Noted.",
	"okay":       "Noted.",
	"got it":     "Noted.",
	"hi":         "Morning. What do you need?",
	"hello":      "Morning. What do you need?",
	"hey":        "Morning. What do you need?",
	"bye":        "Talk later.",
	"goodbye":    "Talk later.",
	"good night": "Talk later.",
}

// CannedReply returns a fixed reply for trivial chat, and whether one
// applied.
func CannedReply(message string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(message))
	key = strings.TrimRight(key, ".!?")
	reply, ok := cannedReplies[key]
	return reply, ok
}

// DisambiguationPrompt renders the numbered clarification question shown
// when a reference matched several entities. kind is "project" or "task".
func DisambiguationPrompt(kind string, labels []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Which %s do you mean?", kind)
	for i, label := range labels {
		fmt.Fprintf(&sb, "\n%d. %s", i+1, label)
	}
	return sb.String()
}

// Generator phrases specialist results as user-facing replies.
type Generator struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

// NewGenerator creates a response generator.
func NewGenerator(completer Completer, model string, logger *slog.Logger) *Generator {
	return &Generator{llm: completer, model: model, logger: logger}
}

// Respond phrases a specialist result. LLM failures degrade to the
// deterministic summary; the user always gets an answer.
func (g *Generator) Respond(ctx context.Context, message string, result domain.Result) string {
	summary := Summarize(result)

	resp, err := g.llm.Complete(ctx, &llm.Request{
		Model:  g.model,
		System: responsePrompt,
		Prompt: fmt.Sprintf("The user said: %q\n\nWhat happened: %s\n\nWrite the reply.", message, summary),
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			g.logger.Error("response generation failed", "error", err)
		}
		return summary
	}
	return strings.TrimSpace(resp.Content)
}

// Chat phrases a general-chat reply when no specialist ran and no canned
// reply applied.
func (g *Generator) Chat(ctx context.Context, message string, history []domain.Message) string {
	var sb strings.Builder
	for _, m := range history {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	resp, err := g.llm.Complete(ctx, &llm.Request{
		Model:  g.model,
		System: responsePrompt,
		Prompt: fmt.Sprintf("Conversation so far:\n%s\nUser: %s", sb.String(), message),
	})
	if err != nil || strings.TrimSpace(resp.Content) == "" {
		if err != nil {
			g.logger.Error("chat generation failed", "error", err)
		}
		return "Noted."
	}
	return strings.TrimSpace(resp.Content)
}

// Summarize renders a deterministic one-liner for a specialist result. It
// is both the LLM's grounding and the fallback reply.
func Summarize(result domain.Result) string {
	switch result.Kind {
	case domain.ResultTask:
		return summarizeTask(result.Task)
	case domain.ResultProject:
		return summarizeProject(result.Project)
	case domain.ResultKnowledge:
		return result.Knowledge.Answer
	case domain.ResultSchedule:
		return summarizeSchedule(result.Schedule)
	}
	return "Done."
}

func summarizeTask(tr *domain.TaskResult) string {
	if tr.Err != "" {
		return "Couldn't do that: " + tr.Err
	}
	switch tr.Action {
	case domain.TaskActionCreated:
		s := fmt.Sprintf("Added task: %s", tr.Task.Description)
		if tr.Task.Deadline != nil {
			s += fmt.Sprintf(" (due %s)", tr.Task.Deadline.Format("Mon Jan 2"))
		}
		return s
	case domain.TaskActionUpdated:
		return fmt.Sprintf("Updated task: %s", tr.Task.Description)
	case domain.TaskActionCompleted:
		return fmt.Sprintf("Marked done: %s", tr.Task.Description)
	default:
		if len(tr.Tasks) == 0 {
			return "No open tasks."
		}
		var sb strings.Builder
		fmt.Fprintf(&sb, "%d open task(s):", len(tr.Tasks))
		for _, t := range tr.Tasks {
			fmt.Fprintf(&sb, "\n- %s", t.Description)
		}
		return sb.String()
	}
}

func summarizeProject(pr *domain.ProjectResult) string {
	if pr.Err != "" {
		return "Couldn't do that: " + pr.Err
	}
	if pr.Action == domain.ProjectActionCreated {
		return fmt.Sprintf("Created project: %s", pr.Project.Name)
	}
	return fmt.Sprintf("Updated project %s (status: %s)", pr.Project.Name, pr.Project.Status)
}

func summarizeSchedule(sr *domain.ScheduleResult) string {
	if len(sr.Tasks) == 0 && len(sr.Events) == 0 {
		return "Nothing on the schedule today."
	}
	var sb strings.Builder
	if len(sr.Events) > 0 {
		sb.WriteString("Calendar:")
		for _, e := range sr.Events {
			fmt.Fprintf(&sb, "\n- %s at %s", e.Summary, e.Start.Format("3:04 PM"))
		}
	}
	if len(sr.Tasks) > 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("Tasks:")
		for _, t := range sr.Tasks {
			fmt.Fprintf(&sb, "\n- %s", t.Description)
		}
	}
	return sb.String()
}
