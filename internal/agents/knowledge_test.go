package agents

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foremanhq/foreman/internal/domain"
)

func TestKnowledgeAnswersFromProjectNotes(t *testing.T) {
	fs := &fakeStore{entries: []domain.KnowledgeEntry{
		{ID: "k1", ProjectID: "p1", Content: "Client wants matte black fixtures"},
	}}
	fc := &fakeCompleter{content: "The client asked for matte black fixtures."}
	a := NewKnowledgeAgent(fs, fc, "", discardLogger())

	res, err := a.Handle(context.Background(), Turn{
		Message:  "what finish did the client pick?",
		Resolved: domain.ResolvedEntities{Projects: []domain.ResolvedProject{{ID: "p1"}}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.ResultKnowledge, res.Kind)
	require.Equal(t, "The client asked for matte black fixtures.", res.Knowledge.Answer)
	require.Equal(t, domain.ConfidenceHigh, res.Knowledge.Confidence)
	require.Len(t, res.Knowledge.Sources, 1)
	require.Contains(t, fc.lastReq.Prompt, "matte black")
}

func TestKnowledgeWithNoNotes(t *testing.T) {
	a := NewKnowledgeAgent(&fakeStore{}, &fakeCompleter{}, "", discardLogger())

	res, err := a.Handle(context.Background(), Turn{Message: "what did we decide about tile?"})
	require.NoError(t, err)
	require.Equal(t, domain.ConfidenceLow, res.Knowledge.Confidence)
	require.Empty(t, res.Knowledge.Sources)
}

func TestKnowledgeDegradesToRawNotesOnLLMFailure(t *testing.T) {
	fs := &fakeStore{entries: []domain.KnowledgeEntry{
		{ID: "k1", Content: "Lumber yard closed Mondays"},
	}}
	fc := &fakeCompleter{err: fmt.Errorf("upstream down")}
	a := NewKnowledgeAgent(fs, fc, "", discardLogger())

	res, err := a.Handle(context.Background(), Turn{Message: "when is the lumber yard closed?"})
	require.NoError(t, err)
	require.Contains(t, res.Knowledge.Answer, "Lumber yard closed Mondays")
	require.Equal(t, domain.ConfidenceLow, res.Knowledge.Confidence)
}

func TestScheduleCombinesTasksAndEvents(t *testing.T) {
	fs := &fakeStore{tasks: []domain.Task{{ID: "t1", Description: "Inspection"}}}
	a := NewScheduleAgent(fs, stubEvents{{ID: "e1", Summary: "Site walk"}}, discardLogger())
	a.now = fixedClock

	res, err := a.Handle(context.Background(), Turn{Message: "what's on today?"})
	require.NoError(t, err)
	require.Equal(t, domain.ResultSchedule, res.Kind)
	require.Len(t, res.Schedule.Tasks, 1)
	require.Len(t, res.Schedule.Events, 1)
}

func TestScheduleWithoutCalendar(t *testing.T) {
	a := NewScheduleAgent(&fakeStore{}, nil, discardLogger())
	a.now = fixedClock

	res, err := a.Handle(context.Background(), Turn{Message: "what's on today?"})
	require.NoError(t, err)
	require.Empty(t, res.Schedule.Events)
}

type stubEvents []domain.CalendarEvent

func (s stubEvents) EventsForDay(ctx context.Context, day time.Time) ([]domain.CalendarEvent, error) {
	return s, nil
}
