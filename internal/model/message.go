package model

import (
	"fmt"
	"time"
)

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Valid reports whether the role is one of the closed set of roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAssistant
}

// Message is a single entry in a conversation. Messages are immutable
// once created; they are only ever appended, never edited or removed.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks a message read from the durable store.
func (m Message) Validate() error {
	if !m.Role.Valid() {
		return fmt.Errorf("unknown message role %q", m.Role)
	}
	return nil
}

// SubmitMessageRequest is the request to submit a user message to the
// active conversation.
type SubmitMessageRequest struct {
	Content string `json:"content"`
}

// SubmitMessageResponse carries the two messages appended this turn.
type SubmitMessageResponse struct {
	ConversationID string  `json:"conversation_id"`
	Title          string  `json:"title"`
	UserMessage    Message `json:"user_message"`
	Assistant      Message `json:"assistant_message"`
}
