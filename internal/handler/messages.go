package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/asesoria-ai/advisor-platform/internal/middleware"
	"github.com/asesoria-ai/advisor-platform/internal/model"
	"github.com/asesoria-ai/advisor-platform/internal/service"
	"github.com/asesoria-ai/advisor-platform/pkg/logger"
)

// MessageHandler handles message endpoints.
type MessageHandler struct {
	session *service.Session
	logger  *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(session *service.Session, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		session: session,
		logger:  log,
	}
}

// Submit handles POST /api/v1/messages. The message goes to the active
// conversation; agent failures come back as a normal assistant message.
func (h *MessageHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req model.SubmitMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidatePrompt(req.Content); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.session.Submit(r.Context(), req.Content)
	if err != nil {
		h.logger.Error("failed to submit message", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to submit message")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// List handles GET /api/v1/conversations/:id/messages
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
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

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conv.ID,
		"messages":        conv.Messages,
	})
}
