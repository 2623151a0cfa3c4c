package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/reunite-hq/lostfound-platform/internal/chat"
	"github.com/reunite-hq/lostfound-platform/internal/middleware"
	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
	"github.com/reunite-hq/lostfound-platform/pkg/metrics"
)

// StreamHandler exposes the live update channel over SSE. One connection
// carries every message addressed to the authenticated user, committed after
// the connection opened. History is never replayed here; clients load it via
// GET /messages and de-duplicate by message id.
type StreamHandler struct {
	subscribe chat.SubscribeFunc
	logger    *logger.Logger
}

// NewStreamHandler creates a new stream handler.
func NewStreamHandler(subscribe chat.SubscribeFunc, log *logger.Logger) *StreamHandler {
	return &StreamHandler{
		subscribe: subscribe,
		logger:    log,
	}
}

// Stream handles GET /api/v1/stream
func (h *StreamHandler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	metrics.IncrementSSEConnections()
	defer metrics.DecrementSSEConnections()

	done := ctx.Done()

	// Delivery is serialized through this channel so SSE writes never race.
	// A blocked send stalls only this user's consumer, preserving
	// at-least-once while connected.
	incoming := make(chan model.Message, 64)
	sub, err := h.subscribe(ctx, userID, func(m model.Message) {
		select {
		case incoming <- m:
		case <-done:
		}
	})
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "live channel unavailable")
		return
	}
	defer sub.Unsubscribe()

	sendSSEEvent(w, flusher, "connected", &model.ConnectedEvent{UserID: userID})

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("SSE client disconnected")
			return

		case msg := <-incoming:
			sendSSEEvent(w, flusher, "message", msg)

		case <-heartbeat.C:
			sendSSEEvent(w, flusher, "heartbeat", &model.HeartbeatEvent{
				Timestamp: time.Now(),
			})
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "event: %s\n", event)
	fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()

	return nil
}
