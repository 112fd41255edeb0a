// Package calendar reads the user's Google Calendar for schedule answers
// and the morning brief. Auth goes through an injected TokenSource.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/foremanhq/foreman/internal/domain"
)

const defaultBaseURL = "https://www.googleapis.com/calendar/v3"

// Client fetches calendar events.
type Client struct {
	calendarID string
	source     TokenSource
	baseURL    string
	http       *http.Client
}

// New creates a calendar client. baseURL may be empty for production.
func New(calendarID string, source TokenSource, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		calendarID: calendarID,
		source:     source,
		baseURL:    baseURL,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
}

type eventList struct {
	Items []eventItem `json:"items"`
}

type eventItem struct {
	ID       string    `json:"id"`
	Summary  string    `json:"summary"`
	Location string    `json:"location"`
	Start    eventTime `json:"start"`
	End      eventTime `json:"end"`
}

type eventTime struct {
	DateTime string `json:"dateTime"`
	Date     string `json:"date"`
}

// EventsForDay returns the day's events in start order.
func (c *Client) EventsForDay(ctx context.Context, day time.Time) ([]domain.CalendarEvent, error) {
	token, err := c.source.Token(ctx)
	if err != nil {
		return nil, err
	}

	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.Add(24 * time.Hour)

	q := url.Values{}
	q.Set("timeMin", start.Format(time.RFC3339))
	q.Set("timeMax", end.Format(time.RFC3339))
	q.Set("singleEvents", "true")
	q.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(c.calendarID), q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token.AccessToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calendar request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("calendar returned %d", resp.StatusCode)
	}

	var list eventList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("failed to decode calendar response: %w", err)
	}

	events := make([]domain.CalendarEvent, 0, len(list.Items))
	for _, item := range list.Items {
		events = append(events, domain.CalendarEvent{
			ID:       item.ID,
			Summary:  item.Summary,
			Location: item.Location,
			Start:    parseEventTime(item.Start, start),
			End:      parseEventTime(item.End, end),
		})
	}
	return events, nil
}

// parseEventTime handles both timed events (dateTime) and all-day events
// (date only), falling back to the given default.
func parseEventTime(et eventTime, fallback time.Time) time.Time {
	if et.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, et.DateTime); err == nil {
			return t
		}
	}
	if et.Date != "" {
		if t, err := time.Parse("2006-01-02", et.Date); err == nil {
			return t
		}
	}
	return fallback
}
