// Package service provides the session controller: the single owner of
// active-conversation state, persistence timing, and agent invocation.
package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/asesoria-ai/advisor-platform/internal/agent"
	"github.com/asesoria-ai/advisor-platform/internal/events"
	"github.com/asesoria-ai/advisor-platform/internal/model"
	"github.com/asesoria-ai/advisor-platform/internal/store"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
	"github.com/asesoria-ai/advisor-platform/pkg/metrics"
)

// State is the per-action state of the session.
type State int32

const (
	// StateIdle means no user action is in flight.
	StateIdle State = iota
	// StateAwaitingAgent means a submitted message is waiting on the
	// external agent. The session is exclusive while in this state.
	StateAwaitingAgent
)

func (s State) String() string {
	if s == StateAwaitingAgent {
		return "awaiting_agent"
	}
	return "idle"
}

// Backup persists and restores whole-collection snapshots.
type Backup interface {
	Load() []*model.Conversation
	Save([]*model.Conversation) error
}

// Session sequences user actions against the store, the backup adapter,
// and the agent gateway. All mutations of one session are serialized:
// while a submit is awaiting the agent, no other mutation runs.
type Session struct {
	mu    sync.Mutex
	state atomic.Int32

	store   *store.Store
	backup  Backup
	gateway agent.Gateway
	events  *events.Publisher
	logger  *logger.Logger

	searchLimit int
	activeID    string
}

// Option configures a Session.
type Option func(*Session)

// WithEvents attaches a lifecycle event publisher.
func WithEvents(pub *events.Publisher) Option {
	return func(s *Session) { s.events = pub }
}

// WithSearchLimit caps search and listing results.
func WithSearchLimit(limit int) Option {
	return func(s *Session) {
		if limit > 0 {
			s.searchLimit = limit
		}
	}
}

// NewSession creates a session over a seeded store. If the collection is
// empty a default conversation is created and persisted immediately; the
// most recently created conversation becomes active.
func NewSession(st *store.Store, bk Backup, gw agent.Gateway, log *logger.Logger, opts ...Option) *Session {
	s := &Session{
		store:       st,
		backup:      bk,
		gateway:     gw,
		logger:      log,
		searchLimit: 10,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.store.Len() == 0 {
		conv := s.store.Create()
		s.activeID = conv.ID
		metrics.ConversationsTotal.Inc()
		s.persist()
		s.publish(context.Background(), conv.ID, model.EventTypeConversationCreated, "", "")
	} else {
		id, _ := s.store.NewestID()
		s.activeID = id
	}
	metrics.ConversationsActive.Set(float64(s.store.Len()))

	return s
}

// NewConversation creates a fresh conversation and makes it active.
func (s *Session) NewConversation(ctx context.Context) model.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := s.store.Create()
	s.activeID = conv.ID

	metrics.ConversationsTotal.Inc()
	metrics.ConversationsActive.Set(float64(s.store.Len()))
	s.persist()
	s.publish(ctx, conv.ID, model.EventTypeConversationCreated, "", "")

	s.logger.Info("conversation created", zap.String("conversation_id", conv.ID))
	return *conv
}

// Select switches the active conversation. Selecting an absent id is
// ignored so stale UI references are harmless; the result reports
// whether the selection took effect. Selection is view state only and
// never persisted.
func (s *Session) Select(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has(id) {
		return false
	}
	s.activeID = id
	return true
}

// Delete removes a conversation. If the deleted conversation was active,
// the most recently created remaining conversation becomes active; if
// none remain a fresh default conversation is created.
func (s *Session) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.store.Has(id) {
		return
	}
	s.store.Delete(id)
	s.persist()
	s.publish(ctx, id, model.EventTypeConversationDeleted, "", "")

	if s.activeID == id {
		if newest, ok := s.store.NewestID(); ok {
			s.activeID = newest
		} else {
			conv := s.store.Create()
			s.activeID = conv.ID
			metrics.ConversationsTotal.Inc()
			s.persist()
			s.publish(ctx, conv.ID, model.EventTypeConversationCreated, "", "")
		}
	}

	metrics.ConversationsActive.Set(float64(s.store.Len()))
	s.logger.Info("conversation deleted", zap.String("conversation_id", id))
}

// Submit appends the prompt as a user message on the active
// conversation, derives the title on the first user message, asks the
// agent exactly once, and appends the response. Agent failures become a
// visible assistant message rather than an error; the whole collection
// is persisted exactly once per submit, after the assistant message.
func (s *Session) Submit(ctx context.Context, prompt string) (*model.SubmitMessageResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.activeID
	s.store.SetTitleIfUnlocked(id, prompt)

	userMsg, err := s.store.Append(id, model.RoleUser, prompt)
	if err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleUser)).Inc()
	s.publish(ctx, id, model.EventTypeMessageAppended, string(model.RoleUser), "")

	s.state.Store(int32(StateAwaitingAgent))
	answer, askErr := s.gateway.Ask(ctx, prompt, id)
	s.state.Store(int32(StateIdle))

	if askErr != nil {
		answer = failureMessage(askErr)
		s.publish(ctx, id, model.EventTypeAgentFailed, "", askErr.Error())
	}

	assistantMsg, err := s.store.Append(id, model.RoleAssistant, answer)
	if err != nil {
		return nil, err
	}
	metrics.MessagesTotal.WithLabelValues(string(model.RoleAssistant)).Inc()
	s.publish(ctx, id, model.EventTypeMessageAppended, string(model.RoleAssistant), "")

	s.persist()

	conv, _ := s.store.Get(id)
	title := ""
	if conv != nil {
		title = conv.Title
	}

	return &model.SubmitMessageResponse{
		ConversationID: id,
		Title:          title,
		UserMessage:    userMsg,
		Assistant:      assistantMsg,
	}, nil
}

// Search returns conversations whose title matches the query,
// newest-first and capped. Pure read, no persistence.
func (s *Session) Search(query string) []model.Summary {
	return s.store.Find(query, s.searchLimit)
}

// List returns conversation summaries newest-first, capped.
func (s *Session) List() []model.Summary {
	return s.store.List(s.searchLimit)
}

// Get returns a copy of one conversation with its messages.
func (s *Session) Get(id string) (*model.Conversation, bool) {
	return s.store.Get(id)
}

// ActiveID returns the id of the active conversation.
func (s *Session) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// State returns the current per-action state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Flush persists the current collection, for shutdown.
func (s *Session) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backup.Save(s.store.Snapshot())
}

// persist flushes the whole collection. A failed save is visible in the
// logs and metrics but never fatal: the in-memory collection stays
// authoritative and the next mutation retries.
func (s *Session) persist() {
	if err := s.backup.Save(s.store.Snapshot()); err != nil {
		metrics.RecordBackupSave("error")
		s.logger.Warn("backup save failed, in-memory state retained", zap.Error(err))
		return
	}
	metrics.RecordBackupSave("success")
}

func (s *Session) publish(ctx context.Context, conversationID string, eventType model.EventType, role, reason string) {
	if s.events == nil {
		return
	}

	event := &model.ConversationEvent{
		ID:             uuid.Must(uuid.NewV7()).String(),
		ConversationID: conversationID,
		Type:           eventType,
		Role:           model.Role(role),
		Reason:         reason,
		CreatedAt:      time.Now().UTC(),
	}
	if err := s.events.Publish(ctx, event); err != nil {
		metrics.RecordEventPublished(string(eventType), "error")
		s.logger.Warn("event publish failed", zap.String("type", string(eventType)), zap.Error(err))
		return
	}
	metrics.RecordEventPublished(string(eventType), "success")
}

func failureMessage(err error) string {
	var transportErr *agent.TransportError
	var upstreamErr *agent.UpstreamError

	switch {
	case errors.As(err, &transportErr):
		return "Lo siento, no pude contactar al servicio de asesoría en este momento. Inténtalo de nuevo en unos minutos."
	case errors.As(err, &upstreamErr):
		return "Lo siento, el servicio de asesoría devolvió un error al procesar tu consulta. Inténtalo de nuevo."
	default:
		return "Lo siento, ocurrió un error inesperado al procesar tu consulta."
	}
}
