// Package scheduler runs the cron jobs: the morning brief and the
// overdue-task reminder sweep.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/foremanhq/foreman/internal/agents"
	"github.com/foremanhq/foreman/internal/bus"
	"github.com/foremanhq/foreman/internal/domain"
	"github.com/foremanhq/foreman/internal/metrics"
)

// Store is the persistence surface the jobs read and write.
type Store interface {
	TodaysTasks(ctx context.Context) ([]domain.Task, error)
	OverdueTasks(ctx context.Context) ([]domain.Task, error)
	TasksNeedingReminder(ctx context.Context) ([]domain.Task, error)
	MarkTaskReminded(ctx context.Context, id string) error
	ListActiveProjects(ctx context.Context) ([]domain.Project, error)
	CloseOldConversations(ctx context.Context) error
	BriefForToday(ctx context.Context) (*domain.DailyBrief, error)
	SaveBrief(ctx context.Context, content string, taskIDs []string) (*domain.DailyBrief, error)
}

// Sender pushes scheduled messages to the operator's channel.
type Sender interface {
	SendToOperator(ctx context.Context, text string) error
}

// EventSource supplies calendar events for the brief. May be nil.
type EventSource interface {
	EventsForDay(ctx context.Context, day time.Time) ([]domain.CalendarEvent, error)
}

// Publisher emits brief/reminder events. May be nil.
type Publisher interface {
	Publish(ctx context.Context, e bus.Event) error
}

// Scheduler owns the cron runner.
type Scheduler struct {
	cron      *cron.Cron
	store     Store
	sender    Sender
	calendar  EventSource
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

// New creates a Scheduler and registers both jobs.
func New(store Store, sender Sender, calendar EventSource, publisher Publisher, briefCron, reminderCron string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		cron:      cron.New(),
		store:     store,
		sender:    sender,
		calendar:  calendar,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}

	if _, err := s.cron.AddFunc(briefCron, func() { s.runBrief(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid brief schedule %q: %w", briefCron, err)
	}
	if _, err := s.cron.AddFunc(reminderCron, func() { s.runReminders(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid reminder schedule %q: %w", reminderCron, err)
	}
	return s, nil
}

// Start starts the cron runner.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the cron runner and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// runBrief composes, persists and sends the morning brief. At most one
// brief goes out per day even if the job fires again. The job also closes
// out yesterday's conversations so a fresh one starts with the new day.
func (s *Scheduler) runBrief(ctx context.Context) {
	existing, err := s.store.BriefForToday(ctx)
	if err != nil {
		s.logger.Error("brief lookup failed", "error", err)
		return
	}
	if existing != nil {
		return
	}

	if err := s.store.CloseOldConversations(ctx); err != nil {
		s.logger.Error("closing old conversations failed", "error", err)
	}

	today, err := s.store.TodaysTasks(ctx)
	if err != nil {
		s.logger.Error("brief task fetch failed", "error", err)
		return
	}
	overdue, err := s.store.OverdueTasks(ctx)
	if err != nil {
		s.logger.Error("brief overdue fetch failed", "error", err)
		return
	}

	activeProjects := 0
	if projects, err := s.store.ListActiveProjects(ctx); err != nil {
		s.logger.Error("brief project fetch failed", "error", err)
	} else {
		activeProjects = len(projects)
	}

	var events []domain.CalendarEvent
	if s.calendar != nil {
		events, err = s.calendar.EventsForDay(ctx, s.now())
		if err != nil {
			s.logger.Error("brief calendar fetch failed", "error", err)
			events = nil
		}
	}

	content := agents.ComposeBrief(s.now(), today, overdue, events, activeProjects)
	taskIDs := make([]string, 0, len(today)+len(overdue))
	for _, t := range today {
		taskIDs = append(taskIDs, t.ID)
	}
	for _, t := range overdue {
		taskIDs = append(taskIDs, t.ID)
	}

	if _, err := s.store.SaveBrief(ctx, content, taskIDs); err != nil {
		s.logger.Error("brief save failed", "error", err)
		return
	}
	if err := s.sender.SendToOperator(ctx, content); err != nil {
		s.logger.Error("brief send failed", "error", err)
		return
	}

	metrics.BriefsSentTotal.Inc()
	s.publish(ctx, bus.Event{Type: bus.EventBriefSent, Outcome: "sent"})
	s.logger.Info("daily brief sent", "tasks", len(taskIDs), "events", len(events))
}

// runReminders nudges about overdue tasks, at most once per task per 24h.
func (s *Scheduler) runReminders(ctx context.Context) {
	tasks, err := s.store.TasksNeedingReminder(ctx)
	if err != nil {
		s.logger.Error("reminder sweep failed", "error", err)
		return
	}

	for _, t := range tasks {
		if err := s.sender.SendToOperator(ctx, agents.ComposeReminder(t)); err != nil {
			s.logger.Error("reminder send failed", "error", err, "task_id", t.ID)
			continue
		}
		if err := s.store.MarkTaskReminded(ctx, t.ID); err != nil {
			s.logger.Error("reminder stamp failed", "error", err, "task_id", t.ID)
			continue
		}
		metrics.RemindersSentTotal.Inc()
		s.publish(ctx, bus.Event{Type: bus.EventReminderSent, Outcome: "sent", Detail: t.ID})
	}
}

func (s *Scheduler) publish(ctx context.Context, e bus.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.Error("event publish failed", "error", err, "type", e.Type)
	}
}
