package handler

import (
	"net/http"

	"github.com/reunite-hq/lostfound-platform/internal/middleware"
	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/internal/service"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
)

// ConversationHandler handles the threaded inbox endpoint.
type ConversationHandler struct {
	conversations *service.ConversationService
	logger        *logger.Logger
}

// NewConversationHandler creates a new conversation handler.
func NewConversationHandler(convs *service.ConversationService, log *logger.Logger) *ConversationHandler {
	return &ConversationHandler{
		conversations: convs,
		logger:        log,
	}
}

// List handles GET /api/v1/conversations
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	summaries, err := h.conversations.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to list conversations")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListConversationsResponse{
		Conversations: summaries,
		Total:         len(summaries),
	})
}
