// Package model defines data structures for the lost & found platform.
package model

import (
	"strings"
	"time"
)

// Message is a direct message between two users, optionally tied to an item
// listing. Messages are immutable once created: there is no edit or delete
// operation anywhere in the API.
type Message struct {
	ID         string `json:"id"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`

	// ItemID is empty for a general conversation not tied to any listing.
	ItemID string `json:"item_id,omitempty"`

	Body string `json:"body"`

	// Timestamp is assigned by the store on append and is non-decreasing
	// in commit order.
	Timestamp time.Time `json:"timestamp"`
	Read      bool      `json:"read"`

	// Sequence is the stream commit sequence, populated on read. It breaks
	// ordering ties between messages with equal timestamps.
	Sequence uint64 `json:"sequence,omitempty"`
}

// SendMessageRequest is the request to send a new message.
type SendMessageRequest struct {
	ReceiverID string `json:"receiver_id"`
	ItemID     string `json:"item_id,omitempty"`
	Body       string `json:"body"`
}

// SendMessageResponse is the response after sending a message.
type SendMessageResponse struct {
	Message  *Message `json:"message"`
	Sequence uint64   `json:"sequence,omitempty"`
}

// ListMessagesResponse is the response for listing a pair's history.
type ListMessagesResponse struct {
	Messages     []Message `json:"messages"`
	LastSequence uint64    `json:"last_sequence"`
}

// ValidBody reports whether a message body is acceptable: non-empty after
// trimming whitespace.
func ValidBody(body string) bool {
	return strings.TrimSpace(body) != ""
}
