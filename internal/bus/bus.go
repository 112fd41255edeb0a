// Package bus is the Redis Streams event bus: every finished turn, sent
// brief and sent reminder is published so operator tooling can tail the
// stream without touching the database.
package bus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Event types published on the stream.
const (
	EventTurnCompleted = "turn.completed"
	EventTurnFailed    = "turn.failed"
	EventBriefSent     = "brief.sent"
	EventReminderSent  = "reminder.sent"
)

const defaultStream = "foreman:events"

// Event is one bus entry.
type Event struct {
	Type           string
	ConversationID string
	Intent         string
	Outcome        string
	Detail         string
	Timestamp      time.Time
}

// Bus publishes and tails events over a Redis stream.
type Bus struct {
	rdb    *redis.Client
	stream string
	logger *slog.Logger
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, logger *slog.Logger) (*Bus, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &Bus{rdb: rdb, stream: defaultStream, logger: logger}, nil
}

// Publish appends one event to the stream.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	err := b.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: b.stream,
		MaxLen: 10000,
		Approx: true,
		Values: map[string]interface{}{
			"type":            e.Type,
			"conversation_id": e.ConversationID,
			"intent":          e.Intent,
			"outcome":         e.Outcome,
			"detail":          e.Detail,
			"timestamp":       e.Timestamp.UTC().Format(time.RFC3339),
		},
	}).Err()
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", e.Type, err)
	}
	return nil
}

// Subscribe tails the stream from now on, delivering events until ctx is
// cancelled. The returned channel is closed on exit.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	ch := make(chan Event)
	go func() {
		defer close(ch)
		lastID := "$"
		for {
			streams, err := b.rdb.XRead(ctx, &redis.XReadArgs{
				Streams: []string{b.stream, lastID},
				Block:   5 * time.Second,
			}).Result()
			if ctx.Err() != nil {
				return
			}
			if err == redis.Nil {
				continue
			}
			if err != nil {
				b.logger.Error("bus read failed", "error", err)
				time.Sleep(time.Second)
				continue
			}
			for _, s := range streams {
				for _, m := range s.Messages {
					lastID = m.ID
					select {
					case ch <- eventFromValues(m.Values):
					case <-ctx.Done():
						return
					}
				}
			}
		}
	}()
	return ch
}

// IsConnected reports whether Redis answers a ping.
func (b *Bus) IsConnected(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return b.rdb.Ping(ctx).Err() == nil
}

// Close closes the Redis connection.
func (b *Bus) Close() error {
	return b.rdb.Close()
}

func eventFromValues(values map[string]interface{}) Event {
	e := Event{
		Type:           str(values["type"]),
		ConversationID: str(values["conversation_id"]),
		Intent:         str(values["intent"]),
		Outcome:        str(values["outcome"]),
		Detail:         str(values["detail"]),
	}
	if ts, err := time.Parse(time.RFC3339, str(values["timestamp"])); err == nil {
		e.Timestamp = ts
	}
	return e
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}
