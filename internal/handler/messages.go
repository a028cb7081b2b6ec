package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/capitalize-ai/sales-coach/internal/middleware"
	"github.com/capitalize-ai/sales-coach/internal/model"
	"github.com/capitalize-ai/sales-coach/internal/service"
	"github.com/capitalize-ai/sales-coach/pkg/logger"
)

// MessageHandler handles chat and feedback endpoints.
type MessageHandler struct {
	chat     *service.ChatService
	feedback *service.FeedbackService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(chat *service.ChatService, feedback *service.FeedbackService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		chat:     chat,
		feedback: feedback,
		logger:   log,
	}
}

// Send handles POST /api/v1/conversations/{id}/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req model.SendMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	resp, err := h.chat.Send(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"), req.Message)
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// Feedback handles POST /api/v1/conversations/{id}/feedback
func (h *MessageHandler) Feedback(w http.ResponseWriter, r *http.Request) {
	resp, err := h.feedback.Request(r.Context(), middleware.GetUserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
