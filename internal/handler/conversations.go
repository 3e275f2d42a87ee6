// Package handler provides HTTP handlers for the API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/asesoria-ai/advisor-platform/internal/middleware"
	"github.com/asesoria-ai/advisor-platform/internal/model"
	"github.com/asesoria-ai/advisor-platform/internal/service"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
)

// ConversationHandler handles conversation endpoints.
type ConversationHandler struct {
	session *service.Session
	logger  *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(session *service.Session, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		session: session,
		logger:  log,
	}
}

// Create handles POST /api/v1/conversations
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	conv := h.session.NewConversation(r.Context())
	writeJSON(w, http.StatusCreated, conv)
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries := h.session.List()
	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: summaries,
		Total:         len(summaries),
	})
}

// Search handles GET /api/v1/conversations/search?q=
func (h *ConversationHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if err := middleware.ValidateSearchQuery(query); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	summaries := h.session.Search(query)
	writeJSON(w, http.StatusOK, model.ListConversationsResponse{
		Conversations: summaries,
		Total:         len(summaries),
	})
}

// Get handles GET /api/v1/conversations/:id
func (h *ConversationHandler) Get(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, ok := h.session.Get(conversationID)
	if !ok {
		writeError(w, http.StatusNotFound, "conversation not found")
		return
	}

	writeJSON(w, http.StatusOK, conv)
}

// Select handles POST /api/v1/conversations/:id/select
func (h *ConversationHandler) Select(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// A stale id is ignored rather than failed; the response reports
	// the id that is actually active afterwards.
	h.session.Select(conversationID)
	writeJSON(w, http.StatusOK, model.SessionResponse{
		ActiveID: h.session.ActiveID(),
		State:    h.session.State().String(),
	})
}

// Delete handles DELETE /api/v1/conversations/:id
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if err := middleware.ValidateConversationID(conversationID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.session.Delete(r.Context(), conversationID)
	w.WriteHeader(http.StatusNoContent)
}

// Session handles GET /api/v1/session
func (h *ConversationHandler) Session(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.SessionResponse{
		ActiveID: h.session.ActiveID(),
		State:    h.session.State().String(),
	})
}
