package types

import "context"

const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
	MessageRoleSystem    = "system"
)

// Message represents one chat turn flowing through the system.
type Message struct {
	ID        string
	Content   string
	Role      string // "user", "assistant", "system"
	ChannelID string // source channel identifier (e.g. "cli", "http")
	UserID    string
	Meta      map[string]interface{}
}

// Responder turns an inbound user message into a coaching reply,
// applying any progress effects along the way.
type Responder interface {
	Process(ctx context.Context, msg Message) (Message, error)
	Name() string
}

// Channel represents an input/output interface (CLI, HTTP).
type Channel interface {
	Start(ctx context.Context, handler func(Message)) error
	Send(ctx context.Context, msg Message) error
	ID() string
}

// Gateway orchestrates channels and the responder.
type Gateway interface {
	RegisterChannel(c Channel)
	Start(ctx context.Context) error
}
