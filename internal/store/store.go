// Package store owns the in-memory conversation collection and every
// mutation against it. The store is a pure data manager: it decides
// nothing about persistence timing or active-conversation bookkeeping,
// both of which belong to the session controller.
package store

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/asesoria-ai/advisor-platform/internal/model"
)

// ErrNotFound is returned when an operation targets an id that is not
// present in the collection.
var ErrNotFound = errors.New("conversation not found")

const (
	defaultTitle      = "Nueva Consulta"
	defaultGreeting   = "¡Hola! Soy tu asesor inmobiliario. ¿En qué puedo ayudarte?"
	defaultTitleLimit = 30
)

// Options configure a Store. Zero-value fields fall back to the
// defaults above.
type Options struct {
	// DefaultTitle is the placeholder title given to new conversations.
	DefaultTitle string
	// Greeting seeds every new conversation with one assistant message.
	Greeting string
	// TitleLimit is the hard character cut applied when a title is
	// derived from the first user message.
	TitleLimit int
}

// Store is an insertion-ordered collection of conversations keyed by id.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*model.Conversation
	order []string

	defaultTitle string
	greeting     string
	titleLimit   int
}

// New creates an empty store.
func New(opts Options) *Store {
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = defaultTitle
	}
	if opts.Greeting == "" {
		opts.Greeting = defaultGreeting
	}
	if opts.TitleLimit <= 0 {
		opts.TitleLimit = defaultTitleLimit
	}
	return &Store{
		byID:         make(map[string]*model.Conversation),
		defaultTitle: opts.DefaultTitle,
		greeting:     opts.Greeting,
		titleLimit:   opts.TitleLimit,
	}
}

// Seed installs a previously persisted collection. Slice order becomes
// insertion order. Entries with duplicate ids are dropped.
func (s *Store) Seed(convs []*model.Conversation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, conv := range convs {
		if conv.ID == "" {
			continue
		}
		if _, exists := s.byID[conv.ID]; exists {
			continue
		}
		s.byID[conv.ID] = conv.Clone()
		s.order = append(s.order, conv.ID)
	}
}

// Create inserts a new conversation with a fresh id, the default title,
// an unlocked title flag, and one seeded assistant greeting. It returns
// a copy of the new conversation; persistence is the caller's decision.
func (s *Store) Create() *model.Conversation {
	now := time.Now().UTC()

	conv := &model.Conversation{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Title:     s.defaultTitle,
		CreatedAt: now,
		Messages: []model.Message{
			{Role: model.RoleAssistant, Content: s.greeting, CreatedAt: now},
		},
	}

	s.mu.Lock()
	s.byID[conv.ID] = conv
	s.order = append(s.order, conv.ID)
	s.mu.Unlock()

	return conv.Clone()
}

// Delete removes a conversation. Deleting an absent id is a no-op so
// stale references from the UI are harmless.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[id]; !exists {
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Append adds a message to a conversation, preserving order. It returns
// the stored message, or ErrNotFound when the id is absent.
func (s *Store) Append(id string, role model.Role, content string) (model.Message, error) {
	msg := model.Message{Role: role, Content: content, CreatedAt: time.Now().UTC()}

	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.byID[id]
	if !exists {
		return model.Message{}, ErrNotFound
	}
	conv.Messages = append(conv.Messages, msg)
	return msg, nil
}

// SetTitleIfUnlocked derives the conversation title from the candidate
// text exactly once. The cut is a hard rune count, not word-aware. It
// reports whether the title changed.
func (s *Store) SetTitleIfUnlocked(id, candidate string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, exists := s.byID[id]
	if !exists || conv.TitleLocked {
		return false
	}
	conv.Title = truncate(candidate, s.titleLimit)
	conv.TitleLocked = true
	return true
}

// Get returns a copy of the conversation with the given id.
func (s *Store) Get(id string) (*model.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, exists := s.byID[id]
	if !exists {
		return nil, false
	}
	return conv.Clone(), true
}

// Has reports whether the id is present.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.byID[id]
	return exists
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// NewestID returns the id of the most recently created conversation.
func (s *Store) NewestID() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.order) == 0 {
		return "", false
	}
	return s.order[len(s.order)-1], true
}

// List returns conversation summaries newest-first, truncated at limit.
// A limit of zero or less means no cap.
func (s *Store) List(limit int) []model.Summary {
	return s.collect(limit, func(*model.Conversation) bool { return true })
}

// Find returns summaries of conversations whose title contains the
// query, case-insensitively, newest-first and truncated at limit.
func (s *Store) Find(query string, limit int) []model.Summary {
	folded := strings.ToLower(query)
	return s.collect(limit, func(conv *model.Conversation) bool {
		return strings.Contains(strings.ToLower(conv.Title), folded)
	})
}

// Snapshot returns deep copies of all conversations in insertion order,
// for the persistence adapter.
func (s *Store) Snapshot() []*model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].Clone())
	}
	return out
}

func (s *Store) collect(limit int, match func(*model.Conversation) bool) []model.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Summary, 0)
	for i := len(s.order) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		conv := s.byID[s.order[i]]
		if match(conv) {
			out = append(out, conv.Summarize())
		}
	}
	return out
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
