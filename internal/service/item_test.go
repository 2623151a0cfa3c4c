package service

import (
	"context"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
)

// fakeItemStore is an in-memory item catalog.
type fakeItemStore struct {
	mu    sync.Mutex
	items map[string]model.Item
}

func newFakeItemStore() *fakeItemStore {
	return &fakeItemStore{items: make(map[string]model.Item)}
}

func (f *fakeItemStore) Create(_ context.Context, item model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemStore) Get(_ context.Context, id string) (*model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	item, ok := f.items[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &item, nil
}

func (f *fakeItemStore) Update(_ context.Context, item model.Item, _ model.ItemStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[item.ID]; !ok {
		return model.ErrNotFound
	}
	f.items[item.ID] = item
	return nil
}

func (f *fakeItemStore) Delete(_ context.Context, item model.Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, item.ID)
	return nil
}

func (f *fakeItemStore) List(_ context.Context, status model.ItemStatus) ([]model.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Item
	for _, item := range f.items {
		if status != "" && item.Status != status {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

type fakeImageStorage struct{}

func (fakeImageStorage) PresignPut(_ context.Context, key string, _ time.Duration) (*url.URL, error) {
	return url.Parse("https://storage.local/upload/" + key)
}

func (fakeImageStorage) ObjectURL(key string) string {
	return "https://storage.local/item-images/" + key
}

func validCreateRequest() *model.CreateItemRequest {
	return &model.CreateItemRequest{
		Title:       "Blue Umbrella",
		Description: "Left on the 42 bus",
		Category:    "accessories",
		Location:    "Downtown",
		Status:      model.StatusLost,
	}
}

func TestCreateItem(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, nil, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "alice", item.UserID)
	assert.Equal(t, model.StatusLost, item.Status)
	assert.False(t, item.CreatedAt.IsZero())
}

func TestCreateItemValidation(t *testing.T) {
	svc := NewItemService(newFakeItemStore(), nil, logger.NewNop())

	cases := map[string]*model.CreateItemRequest{
		"empty title":    {Category: "c", Location: "l", Status: model.StatusLost},
		"empty category": {Title: "t", Location: "l", Status: model.StatusLost},
		"empty location": {Title: "t", Category: "c", Status: model.StatusLost},
		"bad status":     {Title: "t", Category: "c", Location: "l", Status: "stolen"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "alice", req)
			assert.ErrorIs(t, err, model.ErrValidation)
		})
	}
}

func TestUpdateItemOwnerOnly(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, nil, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "mallory", item.ID, &model.UpdateItemRequest{Title: "Stolen"})
	assert.ErrorIs(t, err, model.ErrAuth)

	updated, err := svc.Update(context.Background(), "alice", item.ID, &model.UpdateItemRequest{Status: model.StatusFound})
	require.NoError(t, err)
	assert.Equal(t, model.StatusFound, updated.Status)
	assert.Equal(t, item.Title, updated.Title)
}

func TestUpdateItemMergesNonZeroFields(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, nil, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), "alice", item.ID, &model.UpdateItemRequest{
		Description: "Found it near the park",
	})
	require.NoError(t, err)
	assert.Equal(t, "Found it near the park", updated.Description)
	assert.Equal(t, item.Title, updated.Title)
	assert.Equal(t, item.Category, updated.Category)

	// The store reflects the mutation on a subsequent read.
	fetched, err := svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Found it near the park", fetched.Description)
}

func TestDeleteItemOwnerOnly(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, nil, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), "mallory", item.ID), model.ErrAuth)

	require.NoError(t, svc.Delete(context.Background(), "alice", item.ID))
	_, err = svc.Get(context.Background(), item.ID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestListItemsByStatus(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, nil, logger.NewNop())

	_, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)
	found := validCreateRequest()
	found.Status = model.StatusFound
	_, err = svc.Create(context.Background(), "bob", found)
	require.NoError(t, err)

	all, err := svc.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	lost, err := svc.List(context.Background(), model.StatusLost)
	require.NoError(t, err)
	require.Len(t, lost, 1)
	assert.Equal(t, model.StatusLost, lost[0].Status)

	_, err = svc.List(context.Background(), "stolen")
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestAttachImage(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, fakeImageStorage{}, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)

	resp, err := svc.AttachImage(context.Background(), "alice", item.ID, "photo.jpg")
	require.NoError(t, err)
	assert.Contains(t, resp.UploadURL, "items/"+item.ID+"/")
	assert.Contains(t, resp.UploadURL, ".jpg")

	fetched, err := svc.Get(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.ImageURL, fetched.ImageURL)
}

func TestAttachImageOwnerOnly(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, fakeImageStorage{}, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)

	_, err = svc.AttachImage(context.Background(), "mallory", item.ID, "photo.jpg")
	assert.ErrorIs(t, err, model.ErrAuth)
}

func TestAttachImageUnconfigured(t *testing.T) {
	store := newFakeItemStore()
	svc := NewItemService(store, nil, logger.NewNop())

	item, err := svc.Create(context.Background(), "alice", validCreateRequest())
	require.NoError(t, err)

	_, err = svc.AttachImage(context.Background(), "alice", item.ID, "photo.jpg")
	assert.ErrorIs(t, err, model.ErrUnavailable)
}
