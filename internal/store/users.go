package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/reunite-hq/lostfound-platform/internal/model"
)

// UserStore persists the user directory: one hash per account plus an email
// lookup key claimed with SETNX so signups cannot race the same address.
type UserStore struct {
	client *Client
}

// NewUserStore creates a user store.
func NewUserStore(client *Client) *UserStore {
	return &UserStore{client: client}
}

func userKey(id string) string     { return "user:" + id }
func emailKey(email string) string { return "user:email:" + strings.ToLower(email) }

// Create persists a new account. Returns ErrValidation when the email is
// already claimed.
func (s *UserStore) Create(ctx context.Context, user model.User) error {
	claimed, err := s.client.rdb.SetNX(ctx, emailKey(user.Email), user.ID, 0).Result()
	if err != nil {
		return fmt.Errorf("%w: claim email: %v", model.ErrUnavailable, err)
	}
	if !claimed {
		return fmt.Errorf("email already registered: %w", model.ErrValidation)
	}

	err = s.client.rdb.HSet(ctx, userKey(user.ID), map[string]interface{}{
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"created_at":    user.CreatedAt.Format(time.RFC3339Nano),
	}).Err()
	if err != nil {
		return fmt.Errorf("%w: create user: %v", model.ErrUnavailable, err)
	}
	return nil
}

// Get returns an account by id.
func (s *UserStore) Get(ctx context.Context, id string) (*model.User, error) {
	row, err := s.client.rdb.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: read user: %v", model.ErrUnavailable, err)
	}
	if len(row) == 0 {
		return nil, fmt.Errorf("user %s: %w", id, model.ErrNotFound)
	}
	return userFromRow(id, row), nil
}

// GetByEmail resolves an account through the email index.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	id, err := s.client.rdb.Get(ctx, emailKey(email)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("email %s: %w", email, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: resolve email: %v", model.ErrUnavailable, err)
	}
	return s.Get(ctx, id)
}

func userFromRow(id string, row map[string]string) *model.User {
	user := &model.User{
		ID:           id,
		Email:        row["email"],
		Name:         row["name"],
		PasswordHash: row["password_hash"],
	}
	if ts, err := time.Parse(time.RFC3339Nano, row["created_at"]); err == nil {
		user.CreatedAt = ts
	}
	return user
}
