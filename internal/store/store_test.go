package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/foremanhq/foreman/internal/domain"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "foreman.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestProjectLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, CreateProjectParams{Name: "Chen Kitchen", ClientName: "Chen"})
	require.NoError(t, err)
	require.Equal(t, domain.ProjectFuture, p.Status)

	status := domain.ProjectActive
	addr := "14 Maple Dr"
	p, err = s.UpdateProject(ctx, p.ID, UpdateProjectParams{Status: &status, Address: &addr})
	require.NoError(t, err)
	require.Equal(t, domain.ProjectActive, p.Status)
	require.Equal(t, "14 Maple Dr", p.Address)
	require.Equal(t, "Chen Kitchen", p.Name)

	got, err := s.GetProjectByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, p.ID, got.ID)

	missing, err := s.GetProjectByID(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)

	active, err := s.ListActiveProjects(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
}

func TestListProjectsOrdersByRecency(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	older, err := s.CreateProject(ctx, CreateProjectParams{Name: "Johnson Bathroom"})
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	newer, err := s.CreateProject(ctx, CreateProjectParams{Name: "Smith Deck"})
	require.NoError(t, err)

	all, err := s.ListProjects(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, newer.ID, all[0].ID)

	// touching the older project moves it to the front
	clock = clock.Add(time.Hour)
	name := "Johnson Bathroom Remodel"
	_, err = s.UpdateProject(ctx, older.ID, UpdateProjectParams{Name: &name})
	require.NoError(t, err)

	all, err = s.ListProjects(ctx)
	require.NoError(t, err)
	require.Equal(t, older.ID, all[0].ID)
}

func TestTaskLifecycle(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	deadline := time.Date(2026, 3, 5, 17, 0, 0, 0, time.UTC)
	task, err := s.CreateTask(ctx, CreateTaskParams{Description: "Order windows", Deadline: &deadline})
	require.NoError(t, err)
	require.Equal(t, domain.TaskPending, task.Status)
	require.Equal(t, domain.PriorityMedium, task.Priority)
	require.NotNil(t, task.Deadline)
	require.True(t, task.Deadline.Equal(deadline))

	prio := domain.PriorityHigh
	task, err = s.UpdateTask(ctx, task.ID, UpdateTaskParams{Priority: &prio})
	require.NoError(t, err)
	require.Equal(t, domain.PriorityHigh, task.Priority)

	done, err := s.CompleteTask(ctx, task.ID)
	require.NoError(t, err)
	require.Equal(t, domain.TaskCompleted, done.Status)
	require.NotNil(t, done.CompletedAt)

	_, err = s.CompleteTask(ctx, "nope")
	require.Error(t, err)

	// completed tasks drop out of the resolution candidate set
	open, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Empty(t, open)
}

func TestListTasksByProjectScopes(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, CreateProjectParams{Name: "Chen Kitchen"})
	require.NoError(t, err)

	_, err = s.CreateTask(ctx, CreateTaskParams{Description: "Call inspector", ProjectID: p.ID})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, CreateTaskParams{Description: "Call inspector"})
	require.NoError(t, err)

	scoped, err := s.ListTasksByProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	require.Equal(t, p.ID, scoped[0].ProjectID)

	all, err := s.ListTasks(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestTodaysAndOverdueTasks(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	today := time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 9, 16, 0, 0, 0, time.UTC)
	nextWeek := time.Date(2026, 3, 17, 16, 0, 0, 0, time.UTC)

	_, err := s.CreateTask(ctx, CreateTaskParams{Description: "Inspection", Deadline: &today})
	require.NoError(t, err)
	late, err := s.CreateTask(ctx, CreateTaskParams{Description: "Permit filing", Deadline: &yesterday})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, CreateTaskParams{Description: "Final walkthrough", Deadline: &nextWeek})
	require.NoError(t, err)
	_, err = s.CreateTask(ctx, CreateTaskParams{Description: "No deadline"})
	require.NoError(t, err)

	due, err := s.TodaysTasks(ctx)
	require.NoError(t, err)
	require.Len(t, due, 1)
	require.Equal(t, "Inspection", due[0].Description)

	overdue, err := s.OverdueTasks(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, late.ID, overdue[0].ID)
}

func TestTasksNeedingReminderHonorsCooldown(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	yesterday := clock.Add(-24 * time.Hour)
	task, err := s.CreateTask(ctx, CreateTaskParams{Description: "Permit filing", Deadline: &yesterday})
	require.NoError(t, err)

	need, err := s.TasksNeedingReminder(ctx)
	require.NoError(t, err)
	require.Len(t, need, 1)

	require.NoError(t, s.MarkTaskReminded(ctx, task.ID))

	need, err = s.TasksNeedingReminder(ctx)
	require.NoError(t, err)
	require.Empty(t, need)

	// the reminder becomes eligible again after 24h
	clock = clock.Add(25 * time.Hour)
	need, err = s.TasksNeedingReminder(ctx)
	require.NoError(t, err)
	require.Len(t, need, 1)
}

func TestConversationPerDay(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	first, err := s.GetOrCreateConversation(ctx)
	require.NoError(t, err)
	again, err := s.GetOrCreateConversation(ctx)
	require.NoError(t, err)
	require.Equal(t, first, again)

	clock = clock.Add(24 * time.Hour)
	tomorrow, err := s.GetOrCreateConversation(ctx)
	require.NoError(t, err)
	require.NotEqual(t, first, tomorrow)
}

func TestMessageContextRoundTrip(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	conv, err := s.GetOrCreateConversation(ctx)
	require.NoError(t, err)

	ac := domain.ActiveContext{
		CurrentTaskID:             "t1",
		CurrentProjectID:          "p1",
		RecentlyMentionedTasks:    []string{"t1"},
		RecentlyMentionedProjects: []string{"p1"},
	}
	clock = clock.Add(time.Second)
	_, err = s.SaveMessage(ctx, conv, domain.RoleUser, "mark it done", ac)
	require.NoError(t, err)
	clock = clock.Add(time.Second)
	_, err = s.SaveMessage(ctx, conv, domain.RoleAssistant, "Done.", ac)
	require.NoError(t, err)

	msgs, err := s.Messages(ctx, conv)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, domain.RoleUser, msgs[0].Role)
	require.Equal(t, "t1", msgs[0].Context.CurrentTaskID)

	last, err := s.LastMessageContext(ctx, conv)
	require.NoError(t, err)
	require.Equal(t, "p1", last.CurrentProjectID)
	require.Equal(t, []string{"t1"}, last.RecentlyMentionedTasks)
}

func TestLastMessageContextEmptyConversation(t *testing.T) {
	s := testStore(t)

	ac, err := s.LastMessageContext(context.Background(), "no-such-conversation")
	require.NoError(t, err)
	require.Empty(t, ac.CurrentTaskID)
	require.NotNil(t, ac.RecentlyMentionedTasks)
	require.NotNil(t, ac.RecentlyMentionedProjects)
}

func TestKnowledgeSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	p, err := s.CreateProject(ctx, CreateProjectParams{Name: "Chen Kitchen"})
	require.NoError(t, err)

	_, err = s.SaveKnowledge(ctx, p.ID, "Client wants matte black fixtures", "chat", "")
	require.NoError(t, err)
	_, err = s.SaveKnowledge(ctx, "", "Lumber yard closed Mondays", "manual", "")
	require.NoError(t, err)

	forProject, err := s.KnowledgeForProject(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, forProject, 1)

	hits, err := s.SearchKnowledge(ctx, "lumber")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "Lumber yard closed Mondays", hits[0].Content)
}

func TestTranscriptProcessing(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	tr, err := s.SaveTranscript(ctx, "ordered drywall for the Chen job", 42, "telegram")
	require.NoError(t, err)
	require.False(t, tr.Processed)

	pending, err := s.UnprocessedTranscripts(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	require.NoError(t, s.MarkTranscriptProcessed(ctx, tr.ID, "1 fact saved"))

	pending, err = s.UnprocessedTranscripts(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)

	require.Error(t, s.MarkTranscriptProcessed(ctx, "nope", ""))
}

func TestBriefOncePerDay(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	clock := time.Date(2026, 3, 10, 7, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return clock }

	none, err := s.BriefForToday(ctx)
	require.NoError(t, err)
	require.Nil(t, none)

	_, err = s.SaveBrief(ctx, "Good morning. 2 tasks due today.", []string{"t1", "t2"})
	require.NoError(t, err)

	got, err := s.BriefForToday(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, []string{"t1", "t2"}, got.TasksIncluded)

	// UNIQUE(brief_date) rejects a second brief the same day
	_, err = s.SaveBrief(ctx, "again", nil)
	require.Error(t, err)
}
