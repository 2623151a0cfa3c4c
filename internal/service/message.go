// Package service provides business logic for the lost & found platform.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
	"github.com/reunite-hq/lostfound-platform/pkg/metrics"
)

// MessageLog is the durable append-only store behind the message service.
// Implemented by nats.StreamManager.
type MessageLog interface {
	PublishMessage(ctx context.Context, msg *model.Message) (uint64, error)
	FetchPair(ctx context.Context, userA, userB, itemID string, scopeToItem bool) ([]model.Message, uint64, error)
}

// MessageService handles sending and listing direct messages.
type MessageService struct {
	log           MessageLog
	conversations *ConversationService
	logger        *logger.Logger

	// now is the store clock; swapped in tests.
	now func() time.Time

	// lastTS guards the per-service non-decreasing timestamp invariant
	// against wall-clock steps.
	mu     sync.Mutex
	lastTS time.Time
}

// NewMessageService creates a message service.
func NewMessageService(log MessageLog, conversations *ConversationService, lg *logger.Logger) *MessageService {
	return &MessageService{
		log:           log,
		conversations: conversations,
		logger:        lg,
		now:           time.Now,
	}
}

func (s *MessageService) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	ts := s.now()
	if ts.Before(s.lastTS) {
		ts = s.lastTS
	}
	s.lastTS = ts
	return ts
}

// Send validates and appends a message, then refreshes the conversation
// index. The two writes are not atomic: a crash between them leaves a message
// whose conversation row is stale, which is acceptable because the index is a
// convenience view, not the source of truth.
func (s *MessageService) Send(ctx context.Context, callerID, senderID, receiverID, itemID, body string) (*model.Message, error) {
	if callerID != senderID {
		return nil, fmt.Errorf("caller %s cannot send as %s: %w", callerID, senderID, model.ErrAuth)
	}
	if senderID == "" || receiverID == "" {
		return nil, fmt.Errorf("sender and receiver are required: %w", model.ErrValidation)
	}
	if senderID == receiverID {
		return nil, fmt.Errorf("cannot message yourself: %w", model.ErrValidation)
	}
	if !model.ValidBody(body) {
		return nil, fmt.Errorf("message body is empty: %w", model.ErrValidation)
	}

	msg := &model.Message{
		ID:         uuid.Must(uuid.NewV7()).String(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		ItemID:     itemID,
		Body:       body,
		Timestamp:  s.nextTimestamp(),
	}

	seq, err := s.log.PublishMessage(ctx, msg)
	if err != nil {
		return nil, err
	}
	msg.Sequence = seq

	if err := s.conversations.Upsert(ctx, senderID, receiverID, itemID, msg.Timestamp); err != nil {
		// The message is already committed; the index catches up on the
		// next send for this pair.
		s.logger.Warn("conversation upsert failed after send",
			zap.String("message_id", msg.ID),
			zap.Error(err),
		)
	}

	metrics.MessagesTotal.WithLabelValues("sent").Inc()
	return msg, nil
}

// ListMessages returns the history between two users, in either direction,
// ascending by timestamp. When scopeToItem is set and itemID is non-empty the
// history is additionally filtered to that item; the default matches the
// pair-only read behavior.
func (s *MessageService) ListMessages(ctx context.Context, userA, userB, itemID string, scopeToItem bool) ([]model.Message, uint64, error) {
	if userA == "" || userB == "" {
		return nil, 0, fmt.Errorf("both participants are required: %w", model.ErrValidation)
	}
	return s.log.FetchPair(ctx, userA, userB, itemID, scopeToItem)
}
