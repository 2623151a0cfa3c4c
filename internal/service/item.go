package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/logger"
	"github.com/reunite-hq/lostfound-platform/pkg/metrics"
)

// ItemStore persists the item catalog. Implemented by store.ItemStore.
type ItemStore interface {
	Create(ctx context.Context, item model.Item) error
	Get(ctx context.Context, id string) (*model.Item, error)
	Update(ctx context.Context, item model.Item, previousStatus model.ItemStatus) error
	Delete(ctx context.Context, item model.Item) error
	List(ctx context.Context, status model.ItemStatus) ([]model.Item, error)
}

// ImageStorage issues direct-upload URLs for item images. Implemented by
// storage.Storage; nil when object storage is not configured.
type ImageStorage interface {
	PresignPut(ctx context.Context, key string, ttl time.Duration) (*url.URL, error)
	ObjectURL(key string) string
}

// ItemService handles lost/found listing CRUD.
type ItemService struct {
	store  ItemStore
	images ImageStorage
	logger *logger.Logger
	now    func() time.Time
}

// NewItemService creates an item service.
func NewItemService(store ItemStore, images ImageStorage, lg *logger.Logger) *ItemService {
	return &ItemService{
		store:  store,
		images: images,
		logger: lg,
		now:    time.Now,
	}
}

func validateListing(title, category, location string, status model.ItemStatus) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("category is required: %w", model.ErrValidation)
	}
	if strings.TrimSpace(location) == "" {
		return fmt.Errorf("location is required: %w", model.ErrValidation)
	}
	if !model.ValidStatus(status) {
		return fmt.Errorf("status must be lost or found: %w", model.ErrValidation)
	}
	return nil
}

// Create posts a new listing owned by userID.
func (s *ItemService) Create(ctx context.Context, userID string, req *model.CreateItemRequest) (*model.Item, error) {
	if err := validateListing(req.Title, req.Category, req.Location, req.Status); err != nil {
		return nil, err
	}

	now := s.now()
	item := model.Item{
		ID:          uuid.Must(uuid.NewV7()).String(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Status:      req.Status,
		UserID:      userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Create(ctx, item); err != nil {
		return nil, err
	}

	metrics.ItemsTotal.WithLabelValues(string(item.Status)).Inc()
	return &item, nil
}

// Get returns a listing by id.
func (s *ItemService) Get(ctx context.Context, id string) (*model.Item, error) {
	return s.store.Get(ctx, id)
}

// List returns listings newest first, optionally filtered by status.
func (s *ItemService) List(ctx context.Context, status model.ItemStatus) ([]model.Item, error) {
	if status != "" && !model.ValidStatus(status) {
		return nil, fmt.Errorf("status must be lost or found: %w", model.ErrValidation)
	}
	return s.store.List(ctx, status)
}

// Update applies non-zero fields of req to the listing. Only the owner may
// update. The store is updated in place; a subsequent read reflects the
// mutation without any full-list reload.
func (s *ItemService) Update(ctx context.Context, userID, itemID string, req *model.UpdateItemRequest) (*model.Item, error) {
	item, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("only the owner may update a listing: %w", model.ErrAuth)
	}

	previousStatus := item.Status
	if req.Title != "" {
		item.Title = req.Title
	}
	if req.Description != "" {
		item.Description = req.Description
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.Location != "" {
		item.Location = req.Location
	}
	if req.Status != "" {
		if !model.ValidStatus(req.Status) {
			return nil, fmt.Errorf("status must be lost or found: %w", model.ErrValidation)
		}
		item.Status = req.Status
	}
	item.UpdatedAt = s.now()

	if err := s.store.Update(ctx, *item, previousStatus); err != nil {
		return nil, err
	}
	return item, nil
}

// Delete removes a listing. Only the owner may delete.
func (s *ItemService) Delete(ctx context.Context, userID, itemID string) error {
	item, err := s.store.Get(ctx, itemID)
	if err != nil {
		return err
	}
	if item.UserID != userID {
		return fmt.Errorf("only the owner may delete a listing: %w", model.ErrAuth)
	}
	return s.store.Delete(ctx, *item)
}

// AttachImage issues a presigned upload URL for the listing's image and
// records the resulting object URL on the item. Only the owner may attach.
func (s *ItemService) AttachImage(ctx context.Context, userID, itemID, filename string) (*model.ItemImageResponse, error) {
	if s.images == nil {
		return nil, fmt.Errorf("image storage not configured: %w", model.ErrUnavailable)
	}

	item, err := s.store.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != userID {
		return nil, fmt.Errorf("only the owner may attach an image: %w", model.ErrAuth)
	}

	key := fmt.Sprintf("items/%s/%s", itemID, uuid.New().String())
	if ext := extOf(filename); ext != "" {
		key += ext
	}

	uploadURL, err := s.images.PresignPut(ctx, key, 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload: %v", model.ErrUnavailable, err)
	}

	previousStatus := item.Status
	item.ImageURL = s.images.ObjectURL(key)
	item.UpdatedAt = s.now()
	if err := s.store.Update(ctx, *item, previousStatus); err != nil {
		return nil, err
	}

	return &model.ItemImageResponse{
		UploadURL: uploadURL.String(),
		ImageURL:  item.ImageURL,
	}, nil
}

func extOf(filename string) string {
	if i := strings.LastIndexByte(filename, '.'); i >= 0 && i < len(filename)-1 {
		return filename[i:]
	}
	return ""
}
