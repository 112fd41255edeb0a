package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foremanhq/foreman/internal/llm"
)

const extractPrompt = `You process a construction project manager's voice recording transcript. Extract anything actionable:
- tasks: concrete to-dos mentioned ("order the windows", "call the inspector")
- knowledge: decisions and facts worth remembering ("client wants matte black fixtures")
- new_projects: job sites mentioned that sound new

Respond with JSON only:
{"tasks": [{"description": "", "project": "", "deadline": ""}], "knowledge": [{"content": "", "project": ""}], "new_projects": [""]}`

// ExtractedTask is a to-do pulled out of a transcript, pending approval.
type ExtractedTask struct {
	Description string `json:"description"`
	Project     string `json:"project"`
	Deadline    string `json:"deadline"`
}

// ExtractedFact is a piece of knowledge pulled out of a transcript.
type ExtractedFact struct {
	Content string `json:"content"`
	Project string `json:"project"`
}

// ExtractedFacts is everything actionable found in one transcript. Nothing
// here is committed until the user approves it.
type ExtractedFacts struct {
	Tasks       []ExtractedTask `json:"tasks"`
	Knowledge   []ExtractedFact `json:"knowledge"`
	NewProjects []string        `json:"new_projects"`
}

// Empty reports whether the transcript yielded nothing actionable.
func (f ExtractedFacts) Empty() bool {
	return len(f.Tasks) == 0 && len(f.Knowledge) == 0 && len(f.NewProjects) == 0
}

// TranscriptAgent mines voice transcripts for tasks and knowledge.
type TranscriptAgent struct {
	llm    Completer
	model  string
	logger *slog.Logger
}

// NewTranscriptAgent creates a transcript specialist.
func NewTranscriptAgent(completer Completer, model string, logger *slog.Logger) *TranscriptAgent {
	return &TranscriptAgent{llm: completer, model: model, logger: logger}
}

// Extract runs fact extraction over a raw transcript.
func (a *TranscriptAgent) Extract(ctx context.Context, rawContent string) (ExtractedFacts, error) {
	resp, err := a.llm.Complete(ctx, &llm.Request{
		Model:  a.model,
		System: extractPrompt,
		Prompt: "Transcript:\n" + rawContent,
	})
	if err != nil {
		return ExtractedFacts{}, fmt.Errorf("transcript extraction: %w", err)
	}

	facts, err := parseFacts(resp.Content)
	if err != nil {
		a.logger.Error("transcript extraction unparseable", "error", err, "output", resp.Content)
		return ExtractedFacts{}, fmt.Errorf("transcript extraction: %w", err)
	}
	return facts, nil
}

func parseFacts(content string) (ExtractedFacts, error) {
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start < 0 || end <= start {
		return ExtractedFacts{}, fmt.Errorf("no JSON object in extraction output")
	}

	var facts ExtractedFacts
	if err := json.Unmarshal([]byte(content[start:end+1]), &facts); err != nil {
		return ExtractedFacts{}, fmt.Errorf("decode extraction output: %w", err)
	}
	return facts, nil
}

// Summary renders a numbered approval prompt for extracted facts.
func (f ExtractedFacts) Summary() string {
	if f.Empty() {
		return "Nothing actionable in that recording."
	}

	var sb strings.Builder
	sb.WriteString("From your recording:")
	n := 1
	for _, t := range f.Tasks {
		fmt.Fprintf(&sb, "\n%d. Task: %s", n, t.Description)
		if t.Project != "" {
			fmt.Fprintf(&sb, " (%s)", t.Project)
		}
		n++
	}
	for _, k := range f.Knowledge {
		fmt.Fprintf(&sb, "\n%d. Note: %s", n, k.Content)
		n++
	}
	for _, p := range f.NewProjects {
		fmt.Fprintf(&sb, "\n%d. New project: %s", n, p)
		n++
	}
	sb.WriteString("\nSave these?")
	return sb.String()
}
