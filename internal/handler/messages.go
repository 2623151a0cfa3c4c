package handler

import (
	"encoding/json"
	"net/http"

	"github.com/reunite-hq/lostfound-platform/internal/middleware"
	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/internal/service"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
)

// MessageHandler handles direct message endpoints.
type MessageHandler struct {
	messages *service.MessageService
	items    *service.ItemService
	logger   *logger.Logger
}

// NewMessageHandler creates a new message handler.
func NewMessageHandler(messages *service.MessageService, items *service.ItemService, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		items:    items,
		logger:   log,
	}
}

// List handles GET /api/v1/messages?with=<user_id>&item_id=<id>&scope=item
//
// History is filtered to the pair in both directions. Passing scope=item
// additionally filters to the given item; the default is pair-only, so
// callers decide whether item scoping applies at read time.
func (h *MessageHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	counterpartID := r.URL.Query().Get("with")
	if err := middleware.ValidateUserID(counterpartID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	itemID := r.URL.Query().Get("item_id")
	if itemID != "" {
		if err := middleware.ValidateItemID(itemID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	scopeToItem := r.URL.Query().Get("scope") == "item"

	messages, lastSeq, err := h.messages.ListMessages(r.Context(), userID, counterpartID, itemID, scopeToItem)
	if err != nil {
		h.logger.Error("failed to list messages")
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, &model.ListMessagesResponse{
		Messages:     messages,
		LastSequence: lastSeq,
	})
}

// Send handles POST /api/v1/messages
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := middleware.ValidateUserID(req.ReceiverID); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := middleware.ValidateMessageBody(req.Body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Item-scoped messages must reference a real listing, and chatting
	// with yourself about your own item is rejected at this surface.
	if req.ItemID != "" {
		if err := middleware.ValidateItemID(req.ItemID); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		item, err := h.items.Get(r.Context(), req.ItemID)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if item.UserID == userID && req.ReceiverID == userID {
			writeError(w, http.StatusBadRequest, "cannot chat about your own item with yourself")
			return
		}
	}

	msg, err := h.messages.Send(r.Context(), userID, userID, req.ReceiverID, req.ItemID, req.Body)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, &model.SendMessageResponse{
		Message:  msg,
		Sequence: msg.Sequence,
	})
}
