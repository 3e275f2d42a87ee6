// Package model defines data structures for the advisory platform.
package model

import (
	"time"
)

// Conversation represents a single advisory thread.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	TitleLocked bool      `json:"title_locked"`
	CreatedAt   time.Time `json:"created_at"`
	Messages    []Message `json:"messages"`
}

// Clone returns a deep copy of the conversation.
func (c *Conversation) Clone() *Conversation {
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

// Summary is the sidebar view of a conversation: no message bodies.
type Summary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}

// Summarize builds the listing view of a conversation.
func (c *Conversation) Summarize() Summary {
	return Summary{
		ID:           c.ID,
		Title:        c.Title,
		CreatedAt:    c.CreatedAt,
		MessageCount: len(c.Messages),
	}
}

// ListConversationsResponse is the response for listing conversations.
type ListConversationsResponse struct {
	Conversations []Summary `json:"conversations"`
	Total         int       `json:"total"`
}

// SessionResponse describes the session view state.
type SessionResponse struct {
	ActiveID string `json:"active_id"`
	State    string `json:"state"`
}
