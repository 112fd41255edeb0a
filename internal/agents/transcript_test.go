package agents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foremanhq/foreman/internal/domain"
)

func TestExtractParsesFacts(t *testing.T) {
	fc := &fakeCompleter{content: `{"tasks":[{"description":"order drywall","project":"Chen Kitchen","deadline":"friday"}],"knowledge":[{"content":"client approved the tile sample","project":"Chen Kitchen"}],"new_projects":[]}`}
	a := NewTranscriptAgent(fc, "", discardLogger())

	facts, err := a.Extract(context.Background(), "ordered drywall... oh and the client approved the tile")
	require.NoError(t, err)
	require.Len(t, facts.Tasks, 1)
	require.Equal(t, "order drywall", facts.Tasks[0].Description)
	require.Len(t, facts.Knowledge, 1)
	require.False(t, facts.Empty())
}

func TestExtractToleratesFencedJSON(t *testing.T) {
	fc := &fakeCompleter{content: "```json\n{\"tasks\":[],\"knowledge\":[],\"new_projects\":[\"Henderson\"]}\n```"}
	a := NewTranscriptAgent(fc, "", discardLogger())

	facts, err := a.Extract(context.Background(), "met with the Hendersons about their addition")
	require.NoError(t, err)
	require.Equal(t, []string{"Henderson"}, facts.NewProjects)
}

func TestExtractFailsOnGarbage(t *testing.T) {
	fc := &fakeCompleter{content: "I heard someone talking about drywall."}
	a := NewTranscriptAgent(fc, "", discardLogger())

	_, err := a.Extract(context.Background(), "...")
	require.Error(t, err)
}

func TestExtractPropagatesLLMError(t *testing.T) {
	fc := &fakeCompleter{err: fmt.Errorf("upstream down")}
	a := NewTranscriptAgent(fc, "", discardLogger())

	_, err := a.Extract(context.Background(), "...")
	require.Error(t, err)
}

func TestFactsSummary(t *testing.T) {
	facts := ExtractedFacts{
		Tasks:       []ExtractedTask{{Description: "order drywall", Project: "Chen Kitchen"}},
		Knowledge:   []ExtractedFact{{Content: "client approved the tile sample"}},
		NewProjects: []string{"Henderson"},
	}
	got := facts.Summary()
	require.Contains(t, got, "1. Task: order drywall (Chen Kitchen)")
	require.Contains(t, got, "2. Note: client approved the tile sample")
	require.Contains(t, got, "3. New project: Henderson")
	require.Contains(t, got, "Save these?")

	require.Equal(t, "Nothing actionable in that recording.", ExtractedFacts{}.Summary())
}

func TestComposeBrief(t *testing.T) {
	day := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	due := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC)

	got := ComposeBrief(day,
		[]domain.Task{{Description: "Inspection", Priority: domain.PriorityHigh}},
		[]domain.Task{{Description: "Permit filing", Deadline: &due}},
		[]domain.CalendarEvent{{Summary: "Site walk", Start: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), Location: "14 Maple Dr"}},
		2,
	)

	require.Contains(t, got, "Brief for Tuesday, Mar 10")
	require.Contains(t, got, "Site walk")
	require.Contains(t, got, "(14 Maple Dr)")
	require.Contains(t, got, "Inspection [high]")
	require.Contains(t, got, "Permit filing (was due Mar 9)")
	require.Contains(t, got, "2 active projects on the books.")
}

func TestComposeBriefClearDay(t *testing.T) {
	day := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	got := ComposeBrief(day, nil, nil, nil, 0)
	require.Contains(t, got, "Clear day.")
	require.NotContains(t, got, "active project")
}

func TestComposeBriefSingleProject(t *testing.T) {
	day := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	got := ComposeBrief(day, nil, nil, nil, 1)
	require.Contains(t, got, "1 active project on the books.")
}

func TestComposeReminder(t *testing.T) {
	due := time.Date(2026, 3, 9, 17, 0, 0, 0, time.UTC)
	got := ComposeReminder(domain.Task{Description: "Permit filing", Deadline: &due})
	require.Equal(t, `Reminder: "Permit filing" is overdue (was due Mon Mar 9).`, got)
}
