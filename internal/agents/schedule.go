package agents

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/foremanhq/foreman/internal/domain"
)

// ScheduleAgent handles schedule_query: today's tasks, overdue tasks, and
// calendar events, fetched concurrently.
type ScheduleAgent struct {
	store    Store
	calendar EventSource // nil when no calendar is configured
	now      func() time.Time
	logger   *slog.Logger
}

// NewScheduleAgent creates a schedule specialist.
func NewScheduleAgent(st Store, calendar EventSource, logger *slog.Logger) *ScheduleAgent {
	return &ScheduleAgent{store: st, calendar: calendar, now: time.Now, logger: logger}
}

// Handle answers one schedule question.
func (a *ScheduleAgent) Handle(ctx context.Context, turn Turn) (domain.Result, error) {
	var (
		today   []domain.Task
		overdue []domain.Task
		events  []domain.CalendarEvent
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		today, err = a.store.TodaysTasks(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		overdue, err = a.store.OverdueTasks(gctx)
		return err
	})
	if a.calendar != nil {
		g.Go(func() error {
			var err error
			events, err = a.calendar.EventsForDay(gctx, a.now())
			if err != nil {
				// A calendar outage shouldn't kill the schedule answer.
				a.logger.Error("calendar fetch failed", "error", err)
				events = nil
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return domain.Result{}, fmt.Errorf("schedule query: %w", err)
	}

	sr := &domain.ScheduleResult{
		Tasks:  append(today, overdue...),
		Events: events,
	}
	return domain.Result{Kind: domain.ResultSchedule, Schedule: sr}, nil
}
