package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reunite-hq/lostfound-platform/internal/model"
)

// ConversationStore persists the conversation index. One hash per canonical
// (pair, item) key plus a per-user zset scored by last activity, so the inbox
// view is a single range read.
type ConversationStore struct {
	client *Client
}

// NewConversationStore creates a conversation store.
func NewConversationStore(client *Client) *ConversationStore {
	return &ConversationStore{client: client}
}

func convKey(pairKey string) string { return "conv:" + pairKey }
func inboxKey(userID string) string { return "inbox:" + userID }

// Upsert writes the conversation row for its canonical key and advances
// last_message_at. Repeating the call with either argument order, or with a
// stale timestamp, never creates a second row: ZADD GT keeps the inbox score
// forward-only and the hash key is order-independent.
func (s *ConversationStore) Upsert(ctx context.Context, conv model.Conversation) error {
	key := convKey(conv.Key())
	score := float64(conv.LastMessageAt.UnixNano())

	// Forward-only refresh of the hash timestamp. A concurrent racer can
	// only replace it with a timestamp at least as recent.
	current, err := s.client.rdb.HGet(ctx, key, "last_message_at").Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("%w: read conversation: %v", model.ErrUnavailable, err)
	}
	writeTS := true
	if err == nil {
		if existing, perr := time.Parse(time.RFC3339Nano, current); perr == nil && existing.After(conv.LastMessageAt) {
			writeTS = false
		}
	}

	pipe := s.client.rdb.Pipeline()
	fields := map[string]interface{}{
		"user_low":  conv.UserLow,
		"user_high": conv.UserHigh,
		"item_id":   conv.ItemID,
	}
	if writeTS {
		fields["last_message_at"] = conv.LastMessageAt.Format(time.RFC3339Nano)
	}
	pipe.HSet(ctx, key, fields)
	pipe.ZAddGT(ctx, inboxKey(conv.UserLow), redis.Z{Score: score, Member: key})
	pipe.ZAddGT(ctx, inboxKey(conv.UserHigh), redis.Z{Score: score, Member: key})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: upsert conversation: %v", model.ErrUnavailable, err)
	}
	return nil
}

// List returns every conversation the user participates in, most recently
// active first.
func (s *ConversationStore) List(ctx context.Context, userID string) ([]model.Conversation, error) {
	keys, err := s.client.rdb.ZRevRange(ctx, inboxKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list inbox: %v", model.ErrUnavailable, err)
	}

	convs := make([]model.Conversation, 0, len(keys))
	for _, key := range keys {
		row, err := s.client.rdb.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: read conversation: %v", model.ErrUnavailable, err)
		}
		if len(row) == 0 {
			continue
		}
		conv := model.Conversation{
			UserLow:  row["user_low"],
			UserHigh: row["user_high"],
			ItemID:   row["item_id"],
		}
		if ts, err := time.Parse(time.RFC3339Nano, row["last_message_at"]); err == nil {
			conv.LastMessageAt = ts
		}
		convs = append(convs, conv)
	}
	return convs, nil
}
