package agents

import (
	"fmt"
	"strings"
	"time"

	"github.com/foremanhq/foreman/internal/domain"
)

// ComposeBrief renders the morning brief from the day's tasks, overdue
// tasks, calendar events and the active-project count. Pure formatting;
// the scheduler persists and sends the result.
func ComposeBrief(day time.Time, today, overdue []domain.Task, events []domain.CalendarEvent, activeProjects int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Good morning. Brief for %s.", day.Format("Monday, Jan 2"))

	if len(events) > 0 {
		sb.WriteString("\n\nOn the calendar:")
		for _, e := range events {
			fmt.Fprintf(&sb, "\n- %s, %s", e.Start.Format("3:04 PM"), e.Summary)
			if e.Location != "" {
				fmt.Fprintf(&sb, " (%s)", e.Location)
			}
		}
	}

	if len(today) > 0 {
		sb.WriteString("\n\nDue today:")
		for _, t := range today {
			fmt.Fprintf(&sb, "\n- %s", t.Description)
			if t.Priority == domain.PriorityHigh || t.Priority == domain.PriorityUrgent {
				fmt.Fprintf(&sb, " [%s]", t.Priority)
			}
		}
	}

	if len(overdue) > 0 {
		sb.WriteString("\n\nStill overdue:")
		for _, t := range overdue {
			fmt.Fprintf(&sb, "\n- %s", t.Description)
			if t.Deadline != nil {
				fmt.Fprintf(&sb, " (was due %s)", t.Deadline.Format("Jan 2"))
			}
		}
	}

	if len(events) == 0 && len(today) == 0 && len(overdue) == 0 {
		sb.WriteString("\n\nClear day. Nothing due, nothing overdue.")
	}

	switch activeProjects {
	case 0:
	case 1:
		sb.WriteString("\n\n1 active project on the books.")
	default:
		fmt.Fprintf(&sb, "\n\n%d active projects on the books.", activeProjects)
	}
	return sb.String()
}

// ComposeReminder renders one overdue-task nudge.
func ComposeReminder(t domain.Task) string {
	s := fmt.Sprintf("Reminder: %q is overdue", t.Description)
	if t.Deadline != nil {
		s += fmt.Sprintf(" (was due %s)", t.Deadline.Format("Mon Jan 2"))
	}
	return s + "."
}
