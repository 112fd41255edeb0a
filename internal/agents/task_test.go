package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/foremanhq/foreman/internal/domain"
)

func TestTaskCreateAttachesResolvedProject(t *testing.T) {
	fs := &fakeStore{projects: []domain.Project{{ID: "p1", Name: "Chen Kitchen"}}}
	a := NewTaskAgent(fs, discardLogger())
	a.now = fixedClock

	res, err := a.Handle(context.Background(), Turn{
		Message: "add a task to order windows for the Chen kitchen by friday",
		Routed: domain.RouterResult{
			Intent: domain.IntentTaskCreate,
			Entities: domain.ExtractedEntities{
				Projects: []string{"Chen kitchen"},
				Tasks:    []string{"order windows"},
				Deadline: "friday",
			},
		},
		Resolved: domain.ResolvedEntities{
			Projects: []domain.ResolvedProject{{ID: "p1", Name: "Chen Kitchen"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, domain.ResultTask, res.Kind)
	require.Equal(t, domain.TaskActionCreated, res.Task.Action)
	require.Equal(t, "p1", res.Task.Task.ProjectID)
	require.Equal(t, "order windows", res.Task.Task.Description)
	require.NotNil(t, res.Task.Task.Deadline)
	// fixed clock is a Tuesday; friday lands three days out
	require.Equal(t, 13, res.Task.Task.Deadline.Day())
}

func TestTaskCreateAutoCreatesNewProject(t *testing.T) {
	fs := &fakeStore{}
	a := NewTaskAgent(fs, discardLogger())
	a.now = fixedClock

	res, err := a.Handle(context.Background(), Turn{
		Message: "starting the Henderson project, add a task to get permits",
		Routed: domain.RouterResult{
			Intent: domain.IntentTaskCreate,
			Entities: domain.ExtractedEntities{
				Projects: []string{"Henderson"},
				Tasks:    []string{"get permits"},
			},
		},
	})
	require.NoError(t, err)
	require.Len(t, fs.createdProjects, 1)
	require.Equal(t, "Henderson", fs.createdProjects[0].Name)
	require.Equal(t, "proj-1", res.Task.Task.ProjectID)
}

func TestTaskCreateLeavesUnknownProjectUnattached(t *testing.T) {
	fs := &fakeStore{}
	a := NewTaskAgent(fs, discardLogger())
	a.now = fixedClock

	res, err := a.Handle(context.Background(), Turn{
		Message: "remind me to call the lumber yard about the Baker job",
		Routed: domain.RouterResult{
			Intent: domain.IntentTaskCreate,
			Entities: domain.ExtractedEntities{
				Projects: []string{"Baker"},
				Tasks:    []string{"call the lumber yard"},
			},
		},
	})
	require.NoError(t, err)
	require.Empty(t, fs.createdProjects)
	require.Empty(t, res.Task.Task.ProjectID)
}

func TestTaskCompleteResolvedTask(t *testing.T) {
	fs := &fakeStore{tasks: []domain.Task{{ID: "t1", Description: "Submit change order", Status: domain.TaskPending}}}
	a := NewTaskAgent(fs, discardLogger())

	res, err := a.Handle(context.Background(), Turn{
		Message:  "mark the change order done",
		Routed:   domain.RouterResult{Intent: domain.IntentTaskComplete},
		Resolved: domain.ResolvedEntities{Tasks: []domain.ResolvedTask{{ID: "t1", Description: "Submit change order"}}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.TaskActionCompleted, res.Task.Action)
	require.Equal(t, []string{"t1"}, fs.completedIDs)
}

func TestTaskCompleteWithoutMatchReportsMiss(t *testing.T) {
	a := NewTaskAgent(&fakeStore{}, discardLogger())

	res, err := a.Handle(context.Background(), Turn{
		Message: "mark the change order done",
		Routed:  domain.RouterResult{Intent: domain.IntentTaskComplete},
	})
	require.NoError(t, err)
	require.Equal(t, "no matching task found", res.Task.Err)
}

func TestTaskUpdateAppliesPriority(t *testing.T) {
	fs := &fakeStore{tasks: []domain.Task{{ID: "t1", Description: "Order windows", Priority: domain.PriorityMedium}}}
	a := NewTaskAgent(fs, discardLogger())
	a.now = fixedClock

	res, err := a.Handle(context.Background(), Turn{
		Message: "bump the windows task to urgent",
		Routed: domain.RouterResult{
			Intent:   domain.IntentTaskUpdate,
			Entities: domain.ExtractedEntities{Priority: domain.PriorityUrgent},
		},
		Resolved: domain.ResolvedEntities{Tasks: []domain.ResolvedTask{{ID: "t1"}}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.PriorityUrgent, res.Task.Task.Priority)
}

func TestTaskQueryScopesToProject(t *testing.T) {
	fs := &fakeStore{tasks: []domain.Task{
		{ID: "t1", ProjectID: "p1", Description: "Call inspector"},
		{ID: "t2", ProjectID: "p2", Description: "Order drywall"},
	}}
	a := NewTaskAgent(fs, discardLogger())

	res, err := a.Handle(context.Background(), Turn{
		Message:  "what's open on the Chen job",
		Routed:   domain.RouterResult{Intent: domain.IntentTaskQuery},
		Resolved: domain.ResolvedEntities{Projects: []domain.ResolvedProject{{ID: "p1"}}},
	})
	require.NoError(t, err)
	require.Equal(t, domain.TaskActionQueried, res.Task.Action)
	require.Len(t, res.Task.Tasks, 1)
	require.Equal(t, "t1", res.Task.Tasks[0].ID)
}

func TestParseDeadline(t *testing.T) {
	now := fixedClock() // Tuesday 2026-03-10

	tests := []struct {
		in      string
		wantDay int
		wantNil bool
	}{
		{in: "", wantNil: true},
		{in: "someday", wantNil: true},
		{in: "today", wantDay: 10},
		{in: "tomorrow", wantDay: 11},
		{in: "friday", wantDay: 13},
		{in: "Friday", wantDay: 13},
		{in: "next friday", wantDay: 13},
		{in: "tuesday", wantDay: 17}, // today's weekday means next week
		{in: "next week", wantDay: 17},
		{in: "2026-03-20", wantDay: 20},
	}
	for _, tt := range tests {
		got := ParseDeadline(tt.in, now)
		if tt.wantNil {
			require.Nil(t, got, "ParseDeadline(%q)", tt.in)
			continue
		}
		require.NotNil(t, got, "ParseDeadline(%q)", tt.in)
		require.Equal(t, tt.wantDay, got.Day(), "ParseDeadline(%q)", tt.in)
	}
}
