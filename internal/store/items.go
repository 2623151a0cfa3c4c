package store

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reunite-hq/lostfound-platform/internal/model"
)

// ItemStore persists the item catalog: one hash per item, a zset over all
// items by creation time, and one per status for filtered browsing. Mutations
// update the affected keys directly; no full reload happens on write.
type ItemStore struct {
	client *Client
}

// NewItemStore creates an item store.
func NewItemStore(client *Client) *ItemStore {
	return &ItemStore{client: client}
}

func itemKey(id string) string                   { return "item:" + id }
func itemsByCreatedKey() string                  { return "items:by_created" }
func itemsByStatusKey(s model.ItemStatus) string { return "items:status:" + string(s) }

// Create persists a new listing.
func (s *ItemStore) Create(ctx context.Context, item model.Item) error {
	score := float64(item.CreatedAt.UnixNano())

	pipe := s.client.rdb.Pipeline()
	pipe.HSet(ctx, itemKey(item.ID), itemFields(item))
	pipe.ZAdd(ctx, itemsByCreatedKey(), redis.Z{Score: score, Member: item.ID})
	pipe.ZAdd(ctx, itemsByStatusKey(item.Status), redis.Z{Score: score, Member: item.ID})

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: create item: %v", model.ErrUnavailable, err)
	}
	return nil
}

// Get returns a listing by id.
func (s *ItemStore) Get(ctx context.Context, id string) (*model.Item, error) {
	row, err := s.client.rdb.HGetAll(ctx, itemKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read item: %v", model.ErrUnavailable, err)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("item %s: %w", id, model.ErrNotFound)
	}
	item := itemFromRow(id, row)
	return &item, nil
}

// Update replaces the stored listing. When the status changed, the item moves
// between status indexes.
func (s *ItemStore) Update(ctx context.Context, item model.Item, previousStatus model.ItemStatus) error {
	score := float64(item.CreatedAt.UnixNano())

	pipe := s.client.rdb.Pipeline()
	pipe.HSet(ctx, itemKey(item.ID), itemFields(item))
	if item.Status != previousStatus {
		pipe.ZRem(ctx, itemsByStatusKey(previousStatus), item.ID)
		pipe.ZAdd(ctx, itemsByStatusKey(item.Status), redis.Z{Score: score, Member: item.ID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: update item: %v", model.ErrUnavailable, err)
	}
	return nil
}

// Delete removes a listing and its index entries.
func (s *ItemStore) Delete(ctx context.Context, item model.Item) error {
	pipe := s.client.rdb.Pipeline()
	pipe.Del(ctx, itemKey(item.ID))
	pipe.ZRem(ctx, itemsByCreatedKey(), item.ID)
	pipe.ZRem(ctx, itemsByStatusKey(item.Status), item.ID)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: delete item: %v", model.ErrUnavailable, err)
	}
	return nil
}

// List returns listings newest first, optionally filtered by status.
func (s *ItemStore) List(ctx context.Context, status model.ItemStatus) ([]model.Item, error) {
	index := itemsByCreatedKey()
	if status != "" {
		index = itemsByStatusKey(status)
	}

	ids, err := s.client.rdb.ZRevRange(ctx, index, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: list items: %v", model.ErrUnavailable, err)
	}

	items := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		row, err := s.client.rdb.HGetAll(ctx, itemKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: read item: %v", model.ErrUnavailable, err)
		}
		if len(row) == 0 {
			continue
		}
		items = append(items, itemFromRow(id, row))
	}
	return items, nil
}

func itemFields(item model.Item) map[string]interface{} {
	return map[string]interface{}{
		"title":       item.Title,
		"description": item.Description,
		"image_url":   item.ImageURL,
		"category":    item.Category,
		"location":    item.Location,
		"status":      string(item.Status),
		"user_id":     item.UserID,
		"created_at":  item.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":  item.UpdatedAt.Format(time.RFC3339Nano),
	}
}

func itemFromRow(id string, row map[string]string) model.Item {
	item := model.Item{
		ID:          id,
		Title:       row["title"],
		Description: row["description"],
		ImageURL:    row["image_url"],
		Category:    row["category"],
		Location:    row["location"],
		Status:      model.ItemStatus(row["status"]),
		UserID:      row["user_id"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, row["created_at"]); err == nil {
		item.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, row["updated_at"]); err == nil {
		item.UpdatedAt = ts
	}
	return item
}
