// Package chat implements the per-conversation client-side controller that
// coordinates history load, live updates and sends.
package chat

import (
	"context"
	"fmt"
	"sync"

	"github.com/reunite-hq/lostfound-platform/internal/model"
)

// State is the session lifecycle phase.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateReady
	StateSending
	StateClosed
)

// Messages is the message store surface a session needs. Implemented by
// service.MessageService.
type Messages interface {
	ListMessages(ctx context.Context, userA, userB, itemID string, scopeToItem bool) ([]model.Message, uint64, error)
	Send(ctx context.Context, callerID, senderID, receiverID, itemID, body string) (*model.Message, error)
}

// Subscription is a live update handle. Unsubscribe must be idempotent.
type Subscription interface {
	Unsubscribe()
}

// SubscribeFunc opens a live subscription delivering messages addressed to
// userID. Implemented by closing over nats.LiveChannel.Subscribe.
type SubscribeFunc func(ctx context.Context, userID string, handler func(model.Message)) (Subscription, error)

// Deps are the collaborators a session binds to.
type Deps struct {
	Messages  Messages
	Subscribe SubscribeFunc
}

// Session binds a local user to a counterpart (plus optional item context),
// holding the visible ordered message sequence. It subscribes before loading
// history so no committed message can fall in a gap; pushes that arrive while
// history is still loading are queued, then merged and de-duplicated by
// message id. The visible sequence is ordered by timestamp with ties broken
// by arrival order.
type Session struct {
	deps           Deps
	localID        string
	counterpartID  string
	itemID         string
	scopeToItem    bool

	mu      sync.Mutex
	state   State
	msgs    []model.Message
	seen    map[string]struct{}
	pending []model.Message
	sub     Subscription
}

// Open loads history and starts live delivery for a pair. The returned
// session is Ready. Closing the session is the only cancellation primitive:
// it stops further visible effects but not in-flight server-side work.
func Open(ctx context.Context, deps Deps, localID, counterpartID, itemID string, scopeToItem bool) (*Session, error) {
	if localID == "" || counterpartID == "" {
		return nil, fmt.Errorf("both participants are required: %w", model.ErrValidation)
	}
	if localID == counterpartID {
		return nil, fmt.Errorf("cannot open a chat with yourself: %w", model.ErrValidation)
	}

	s := &Session{
		deps:          deps,
		localID:       localID,
		counterpartID: counterpartID,
		itemID:        itemID,
		scopeToItem:   scopeToItem,
		state:         StateLoading,
		seen:          make(map[string]struct{}),
	}

	sub, err := deps.Subscribe(ctx, localID, s.onLive)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.sub = sub
	s.mu.Unlock()

	history, _, err := deps.Messages.ListMessages(ctx, localID, counterpartID, itemID, scopeToItem)
	if err != nil {
		sub.Unsubscribe()
		return nil, err
	}

	s.mu.Lock()
	for _, m := range history {
		s.admit(m)
	}
	// Pushes queued during the load merge after history; admit drops any
	// the history fetch already returned.
	for _, m := range s.pending {
		s.admit(m)
	}
	s.pending = nil
	if s.state == StateLoading {
		s.state = StateReady
	}
	s.mu.Unlock()

	return s, nil
}

// onLive receives pushes from the live channel on its dispatch goroutine.
func (s *Session) onLive(m model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateClosed || !s.matches(m) {
		return
	}
	if s.state == StateLoading {
		s.pending = append(s.pending, m)
		return
	}
	s.admit(m)
}

// matches reports whether a pushed message belongs to this session's thread.
// The live channel only delivers messages addressed to the local user, so the
// sender check narrows delivery to this counterpart.
func (s *Session) matches(m model.Message) bool {
	if m.ReceiverID != s.localID || m.SenderID != s.counterpartID {
		return false
	}
	if s.scopeToItem && m.ItemID != s.itemID {
		return false
	}
	return true
}

// admit inserts a message into the visible sequence, keeping timestamp order
// with ties in arrival order. Duplicates by id are dropped. Callers hold mu.
func (s *Session) admit(m model.Message) {
	if _, dup := s.seen[m.ID]; dup {
		return
	}
	s.seen[m.ID] = struct{}{}

	i := len(s.msgs)
	for i > 0 && s.msgs[i-1].Timestamp.After(m.Timestamp) {
		i--
	}
	s.msgs = append(s.msgs, model.Message{})
	copy(s.msgs[i+1:], s.msgs[i:])
	s.msgs[i] = m
}

// Send transmits a message to the counterpart. On success the message joins
// the visible sequence and the session returns to Ready; on failure the error
// is surfaced and nothing is appended. A send completing after Close is
// discarded for the session.
func (s *Session) Send(ctx context.Context, body string) (*model.Message, error) {
	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return nil, fmt.Errorf("session closed: %w", model.ErrChannelDropped)
	case StateLoading:
		s.mu.Unlock()
		return nil, fmt.Errorf("session still loading: %w", model.ErrValidation)
	case StateSending:
		s.mu.Unlock()
		return nil, fmt.Errorf("send already in flight: %w", model.ErrValidation)
	}
	s.state = StateSending
	s.mu.Unlock()

	msg, err := s.deps.Messages.Send(ctx, s.localID, s.localID, s.counterpartID, s.itemID, body)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return nil, err
	}
	s.state = StateReady
	if err != nil {
		return nil, err
	}
	s.admit(*msg)
	return msg, nil
}

// Messages returns a copy of the visible ordered sequence.
func (s *Session) Messages() []model.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Message, len(s.msgs))
	copy(out, s.msgs)
	return out
}

// State returns the current lifecycle phase.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close tears down the live subscription. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	alreadyClosed := s.state == StateClosed
	s.state = StateClosed
	sub := s.sub
	s.mu.Unlock()

	if !alreadyClosed && sub != nil {
		sub.Unsubscribe()
	}
}
