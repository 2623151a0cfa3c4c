package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
	"github.com/reunite-hq/lostfound-platform/pkg/metrics"
)

// ConversationIndex is the deduplicated pair index behind the conversation
// service. Implemented by store.ConversationStore.
type ConversationIndex interface {
	Upsert(ctx context.Context, conv model.Conversation) error
	List(ctx context.Context, userID string) ([]model.Conversation, error)
}

// UserDirectory resolves user ids to profiles for display.
type UserDirectory interface {
	Get(ctx context.Context, id string) (*model.User, error)
}

// ItemCatalog resolves item ids to listings for display and ownership checks.
type ItemCatalog interface {
	Get(ctx context.Context, id string) (*model.Item, error)
}

// ConversationService maintains the conversation index.
type ConversationService struct {
	index  ConversationIndex
	users  UserDirectory
	items  ItemCatalog
	logger *logger.Logger
}

// NewConversationService creates a conversation service.
func NewConversationService(index ConversationIndex, users UserDirectory, items ItemCatalog, lg *logger.Logger) *ConversationService {
	return &ConversationService{
		index:  index,
		users:  users,
		items:  items,
		logger: lg,
	}
}

// Upsert records activity between two users, optionally about an item. The
// pair is canonicalized so either argument order lands on the same row.
func (s *ConversationService) Upsert(ctx context.Context, userA, userB, itemID string, at time.Time) error {
	if userA == "" || userB == "" {
		return fmt.Errorf("both participants are required: %w", model.ErrValidation)
	}
	if userA == userB {
		return fmt.Errorf("conversation requires two distinct users: %w", model.ErrValidation)
	}

	low, high := model.CanonicalPair(userA, userB)
	err := s.index.Upsert(ctx, model.Conversation{
		UserLow:       low,
		UserHigh:      high,
		ItemID:        itemID,
		LastMessageAt: at,
	})
	if err != nil {
		return err
	}

	metrics.ConversationUpsertsTotal.Inc()
	return nil
}

// List returns the user's threaded inbox, most recently active first, with
// counterpart names and item titles joined at read time. Missing display
// data (deleted item, unknown user) degrades to blank fields rather than
// failing the view.
func (s *ConversationService) List(ctx context.Context, userID string) ([]model.ConversationSummary, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrValidation)
	}

	convs, err := s.index.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.ConversationSummary, 0, len(convs))
	for _, conv := range convs {
		summary := model.ConversationSummary{
			CounterpartID: conv.Counterpart(userID),
			ItemID:        conv.ItemID,
			LastActiveAt:  conv.LastMessageAt,
		}
		if user, err := s.users.Get(ctx, summary.CounterpartID); err == nil {
			summary.CounterpartName = user.Name
		} else if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
		if conv.ItemID != "" {
			if item, err := s.items.Get(ctx, conv.ItemID); err == nil {
				summary.ItemTitle = item.Title
			} else if !errors.Is(err, model.ErrNotFound) {
				return nil, err
			}
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}
