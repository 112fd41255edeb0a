// Package channel defines the chat transport abstraction. Adapters turn
// platform updates into Messages and deliver Responses back; everything
// behind the adapter is transport-agnostic.
package channel

import "context"

// Kind distinguishes text messages from voice notes.
type Kind string

const (
	KindText  Kind = "text"
	KindVoice Kind = "voice"
)

// Message is one inbound message from a channel.
type Message struct {
	ID      string
	Channel string
	UserID  string
	Kind    Kind
	Content string

	// Voice note fields, set when Kind is KindVoice.
	VoiceURL        string
	DurationSeconds int

	Timestamp int64
}

// Response is an outbound reply.
type Response struct {
	Content string
}

// Adapter is the interface every chat transport implements.
type Adapter interface {
	// Start begins receiving. It returns once receiving is underway;
	// delivery happens on the Incoming channel.
	Start(ctx context.Context) error

	// Stop shuts the adapter down and closes Incoming.
	Stop() error

	// Send delivers a reply to a user on this channel.
	Send(userID string, resp *Response) error

	// Incoming is the stream of inbound messages.
	Incoming() <-chan *Message

	Name() string

	// Enabled reports whether the adapter is configured to run.
	Enabled() bool
}
