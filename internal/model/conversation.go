package model

import (
	"strings"
	"time"
)

// GeneralScope is the item scope used for conversations not tied to a listing.
const GeneralScope = "general"

// Conversation is one row of the conversation index: a canonical unordered
// user pair plus an optional item. At most one row exists per (low, high,
// item) regardless of which participant spoke first.
type Conversation struct {
	UserLow       string    `json:"user_low"`
	UserHigh      string    `json:"user_high"`
	ItemID        string    `json:"item_id,omitempty"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// Key returns the storage key for the conversation row.
func (c Conversation) Key() string {
	return PairKey(c.UserLow, c.UserHigh, c.ItemID)
}

// Counterpart returns the other participant for the given viewer.
func (c Conversation) Counterpart(userID string) string {
	if c.UserLow == userID {
		return c.UserHigh
	}
	return c.UserLow
}

// CanonicalPair orders two user identifiers under the lexicographic total
// order so (A,B) and (B,A) map to the same pair.
func CanonicalPair(userA, userB string) (low, high string) {
	if userA < userB {
		return userA, userB
	}
	return userB, userA
}

// PairKey derives the order-independent index key for a user pair and
// optional item. An empty itemID maps to the general scope.
func PairKey(userA, userB, itemID string) string {
	low, high := CanonicalPair(userA, userB)
	scope := itemID
	if scope == "" {
		scope = GeneralScope
	}
	return strings.Join([]string{low, high, scope}, ":")
}

// ConversationSummary is a conversation row joined with display data for the
// viewing user: the counterpart's name and the item title, resolved at read
// time from the user directory and item catalog.
type ConversationSummary struct {
	CounterpartID   string    `json:"counterpart_id"`
	CounterpartName string    `json:"counterpart_name,omitempty"`
	ItemID          string    `json:"item_id,omitempty"`
	ItemTitle       string    `json:"item_title,omitempty"`
	LastActiveAt    time.Time `json:"last_active_at"`
}

// ListConversationsResponse is the response for the threaded inbox view.
type ListConversationsResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Total         int                   `json:"total"`
}
