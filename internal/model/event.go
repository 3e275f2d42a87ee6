package model

import (
	"time"
)

// EventType represents the type of conversation lifecycle event.
type EventType string

const (
	EventTypeConversationCreated EventType = "conversation.created"
	EventTypeConversationDeleted EventType = "conversation.deleted"
	EventTypeMessageAppended     EventType = "message.appended"
	EventTypeAgentFailed         EventType = "agent.failed"
)

// ConversationEvent is published to the event stream after a mutation.
type ConversationEvent struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Type           EventType `json:"type"`
	Role           Role      `json:"role,omitempty"`
	Reason         string    `json:"reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
