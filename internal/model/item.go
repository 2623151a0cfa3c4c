package model

import "time"

// ItemStatus is the listing state of an item.
type ItemStatus string

const (
	StatusLost  ItemStatus = "lost"
	StatusFound ItemStatus = "found"
)

// ValidStatus reports whether s is a known item status.
func ValidStatus(s ItemStatus) bool {
	return s == StatusLost || s == StatusFound
}

// Item is a lost or found listing posted by a user.
type Item struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ImageURL    string     `json:"image_url,omitempty"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Status      ItemStatus `json:"status"`
	UserID      string     `json:"user_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateItemRequest is the request to post a new listing.
type CreateItemRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Status      ItemStatus `json:"status"`
}

// UpdateItemRequest is the request to update a listing. Zero-valued fields
// are left unchanged.
type UpdateItemRequest struct {
	Title       string     `json:"title,omitempty"`
	Description string     `json:"description,omitempty"`
	Category    string     `json:"category,omitempty"`
	Location    string     `json:"location,omitempty"`
	Status      ItemStatus `json:"status,omitempty"`
}

// ListItemsResponse is the response for browsing listings.
type ListItemsResponse struct {
	Items []Item `json:"items"`
	Total int    `json:"total"`
}

// ItemImageResponse carries a presigned upload URL for an item image.
type ItemImageResponse struct {
	UploadURL string `json:"upload_url"`
	ImageURL  string `json:"image_url"`
}
