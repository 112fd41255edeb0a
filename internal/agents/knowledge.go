package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/llm"
)

const knowledgePrompt = `You answer questions for a construction project manager using only the provided notes. If the notes do not cover the question, say you don't have that written down. Keep answers short and practical.`

// KnowledgeAgent handles project_query and knowledge_query: it gathers the
// stored facts relevant to the question and has the LLM synthesize an
// answer from them.
type KnowledgeAgent struct {
	store  Store
	llm    Completer
	model  string
	logger *slog.Logger
}

// NewKnowledgeAgent creates a knowledge specialist.
func NewKnowledgeAgent(st Store, completer Completer, model string, logger *slog.Logger) *KnowledgeAgent {
	return &KnowledgeAgent{store: st, llm: completer, model: model, logger: logger}
}

// Handle answers one knowledge question.
func (a *KnowledgeAgent) Handle(ctx context.Context, turn Turn) (domain.Result, error) {
	entries, err := a.gather(ctx, turn)
	if err != nil {
		return domain.Result{}, err
	}

	kr := &domain.KnowledgeResult{Sources: entries, Confidence: domain.ConfidenceMedium}
	if len(entries) == 0 {
		kr.Answer = "I don't have anything written down about that yet."
		kr.Confidence = domain.ConfidenceLow
		return domain.Result{Kind: domain.ResultKnowledge, Knowledge: kr}, nil
	}

	resp, err := a.llm.Complete(ctx, &llm.Request{
		Model:  a.model,
		System: knowledgePrompt,
		Prompt: fmt.Sprintf("Notes:\n%s\n\nQuestion: %s", formatEntries(entries), turn.Message),
	})
	if err != nil {
		// Degrade to raw notes rather than failing the turn.
		a.logger.Error("knowledge synthesis failed", "error", err)
		kr.Answer = "Here's what I have written down:\n" + formatEntries(entries)
		kr.Confidence = domain.ConfidenceLow
		return domain.Result{Kind: domain.ResultKnowledge, Knowledge: kr}, nil
	}

	kr.Answer = strings.TrimSpace(resp.Content)
	kr.Confidence = domain.ConfidenceHigh
	return domain.Result{Kind: domain.ResultKnowledge, Knowledge: kr}, nil
}

// gather prefers project-scoped facts when a project resolved, falling back
// to a full-text search on the question.
func (a *KnowledgeAgent) gather(ctx context.Context, turn Turn) ([]domain.KnowledgeEntry, error) {
	if len(turn.Resolved.Projects) > 0 {
		entries, err := a.store.KnowledgeForProject(ctx, turn.Resolved.Projects[0].ID)
		if err != nil {
			return nil, fmt.Errorf("knowledge lookup: %w", err)
		}
		if len(entries) > 0 {
			return entries, nil
		}
	}

	query := turn.Message
	if len(turn.Routed.Entities.Tasks) > 0 {
		query = turn.Routed.Entities.Tasks[0]
	}
	entries, err := a.store.SearchKnowledge(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("knowledge search: %w", err)
	}
	return entries, nil
}

func formatEntries(entries []domain.KnowledgeEntry) string {
	var sb strings.Builder
	for i, e := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("- ")
		sb.WriteString(e.Content)
	}
	return sb.String()
}
