package chat

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reunite-hq/lostfound-platform/internal/model"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func msg(id, sender, receiver, body string, offset time.Duration) model.Message {
	return model.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Body:       body,
		Timestamp:  baseTime.Add(offset),
	}
}

// fakeMessages backs a session with canned history and scripted sends.
type fakeMessages struct {
	mu      sync.Mutex
	history []model.Message
	listErr error
	sendErr error
	sent    []model.Message

	// onList runs during the history fetch, simulating pushes that race the
	// load.
	onList func()
}

func (f *fakeMessages) ListMessages(_ context.Context, _, _, _ string, _ bool) ([]model.Message, uint64, error) {
	if f.onList != nil {
		f.onList()
	}
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.history, uint64(len(f.history)), nil
}

func (f *fakeMessages) Send(_ context.Context, _, senderID, receiverID, itemID, body string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	m := model.Message{
		ID:         fmt.Sprintf("sent-%d", len(f.sent)+1),
		SenderID:   senderID,
		ReceiverID: receiverID,
		ItemID:     itemID,
		Body:       body,
		Timestamp:  baseTime.Add(time.Duration(len(f.sent)+100) * time.Second),
	}
	f.sent = append(f.sent, m)
	return &m, nil
}

// fakeSub counts Unsubscribe calls.
type fakeSub struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSub) Unsubscribe() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
}

// subscriber captures the live handler so tests can push messages.
type subscriber struct {
	handler func(model.Message)
	sub     *fakeSub
	err     error
}

func (s *subscriber) fn(_ context.Context, _ string, handler func(model.Message)) (Subscription, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.handler = handler
	s.sub = &fakeSub{}
	return s.sub, nil
}

func openSession(t *testing.T, msgs *fakeMessages, subs *subscriber) *Session {
	t.Helper()
	s, err := Open(context.Background(), Deps{Messages: msgs, Subscribe: subs.fn}, "alice", "bob", "", false)
	require.NoError(t, err)
	return s
}

func ids(msgs []model.Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.ID
	}
	return out
}

func TestOpenLoadsHistoryAndBecomesReady(t *testing.T) {
	msgs := &fakeMessages{history: []model.Message{
		msg("m1", "alice", "bob", "hi", 0),
		msg("m2", "bob", "alice", "hello", time.Second),
	}}
	subs := &subscriber{}

	s := openSession(t, msgs, subs)
	defer s.Close()

	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, []string{"m1", "m2"}, ids(s.Messages()))
}

func TestOpenRejectsSelfChat(t *testing.T) {
	_, err := Open(context.Background(), Deps{}, "alice", "alice", "", false)
	assert.ErrorIs(t, err, model.ErrValidation)
}

func TestOpenSubscribeFailure(t *testing.T) {
	subs := &subscriber{err: errors.New("no broker")}
	_, err := Open(context.Background(), Deps{Messages: &fakeMessages{}, Subscribe: subs.fn}, "alice", "bob", "", false)
	assert.Error(t, err)
}

func TestOpenHistoryFailureUnsubscribes(t *testing.T) {
	msgs := &fakeMessages{listErr: errors.New("store down")}
	subs := &subscriber{}

	_, err := Open(context.Background(), Deps{Messages: msgs, Subscribe: subs.fn}, "alice", "bob", "", false)
	require.Error(t, err)
	assert.Equal(t, 1, subs.sub.calls)
}

func TestPushDuringLoadMergesWithoutDuplication(t *testing.T) {
	// m2 is both in the history snapshot and pushed live while the snapshot
	// loads. It must appear exactly once.
	subs := &subscriber{}
	msgs := &fakeMessages{history: []model.Message{
		msg("m1", "bob", "alice", "one", 0),
		msg("m2", "bob", "alice", "two", time.Second),
	}}
	msgs.onList = func() {
		subs.handler(msg("m2", "bob", "alice", "two", time.Second))
		subs.handler(msg("m3", "bob", "alice", "three", 2*time.Second))
	}

	s := openSession(t, msgs, subs)
	defer s.Close()

	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s.Messages()))
}

func TestLivePushAfterReady(t *testing.T) {
	subs := &subscriber{}
	msgs := &fakeMessages{history: []model.Message{msg("m1", "bob", "alice", "one", 0)}}

	s := openSession(t, msgs, subs)
	defer s.Close()

	subs.handler(msg("m2", "bob", "alice", "two", time.Second))
	assert.Equal(t, []string{"m1", "m2"}, ids(s.Messages()))

	// Duplicate push is dropped.
	subs.handler(msg("m2", "bob", "alice", "two", time.Second))
	assert.Equal(t, []string{"m1", "m2"}, ids(s.Messages()))
}

func TestLivePushIgnoresOtherThreads(t *testing.T) {
	subs := &subscriber{}
	s := openSession(t, &fakeMessages{}, subs)
	defer s.Close()

	// From a different counterpart.
	subs.handler(msg("m1", "carol", "alice", "hi", 0))
	// Addressed to someone else entirely.
	subs.handler(msg("m2", "bob", "carol", "hi", 0))

	assert.Empty(t, s.Messages())
}

func TestItemScopedSessionFiltersPushes(t *testing.T) {
	subs := &subscriber{}
	msgs := &fakeMessages{}
	s, err := Open(context.Background(), Deps{Messages: msgs, Subscribe: subs.fn}, "alice", "bob", "item-1", true)
	require.NoError(t, err)
	defer s.Close()

	other := msg("m1", "bob", "alice", "different item", 0)
	other.ItemID = "item-2"
	subs.handler(other)

	scoped := msg("m2", "bob", "alice", "right item", time.Second)
	scoped.ItemID = "item-1"
	subs.handler(scoped)

	assert.Equal(t, []string{"m2"}, ids(s.Messages()))
}

func TestAdmitKeepsTimestampOrderWithArrivalTies(t *testing.T) {
	subs := &subscriber{}
	s := openSession(t, &fakeMessages{}, subs)
	defer s.Close()

	subs.handler(msg("late", "bob", "alice", "late", 10*time.Second))
	subs.handler(msg("early", "bob", "alice", "early", time.Second))
	subs.handler(msg("tie-a", "bob", "alice", "a", 5*time.Second))
	subs.handler(msg("tie-b", "bob", "alice", "b", 5*time.Second))

	assert.Equal(t, []string{"early", "tie-a", "tie-b", "late"}, ids(s.Messages()))
}

func TestSendAppendsOnSuccess(t *testing.T) {
	msgs := &fakeMessages{}
	s := openSession(t, msgs, &subscriber{})
	defer s.Close()

	sent, err := s.Send(context.Background(), "hello bob")
	require.NoError(t, err)
	assert.Equal(t, StateReady, s.State())
	assert.Equal(t, []string{sent.ID}, ids(s.Messages()))
	require.Len(t, msgs.sent, 1)
	assert.Equal(t, "alice", msgs.sent[0].SenderID)
	assert.Equal(t, "bob", msgs.sent[0].ReceiverID)
}

func TestSendFailureAppendsNothing(t *testing.T) {
	msgs := &fakeMessages{sendErr: errors.New("broker down")}
	s := openSession(t, msgs, &subscriber{})
	defer s.Close()

	_, err := s.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Empty(t, s.Messages())
	assert.Equal(t, StateReady, s.State())
}

func TestSendAfterClose(t *testing.T) {
	s := openSession(t, &fakeMessages{}, &subscriber{})
	s.Close()

	_, err := s.Send(context.Background(), "too late")
	assert.ErrorIs(t, err, model.ErrChannelDropped)
}

func TestCloseIsIdempotent(t *testing.T) {
	subs := &subscriber{}
	s := openSession(t, &fakeMessages{}, subs)

	s.Close()
	s.Close()

	assert.Equal(t, StateClosed, s.State())
	assert.Equal(t, 1, subs.sub.calls)
}

func TestPushAfterCloseIsDropped(t *testing.T) {
	subs := &subscriber{}
	s := openSession(t, &fakeMessages{}, subs)
	s.Close()

	subs.handler(msg("m1", "bob", "alice", "hi", 0))
	assert.Empty(t, s.Messages())
}

func TestReopenAfterCloseLoadsFreshSession(t *testing.T) {
	msgs := &fakeMessages{history: []model.Message{msg("m1", "bob", "alice", "one", 0)}}
	subs := &subscriber{}

	s1 := openSession(t, msgs, subs)
	s1.Close()

	// The same pair can be opened again; history reloads and live delivery
	// resumes on the new session only.
	msgs.history = append(msgs.history, msg("m2", "bob", "alice", "two", time.Second))
	s2 := openSession(t, msgs, subs)
	defer s2.Close()

	assert.Equal(t, StateReady, s2.State())
	assert.Equal(t, []string{"m1", "m2"}, ids(s2.Messages()))

	subs.handler(msg("m3", "bob", "alice", "three", 2*time.Second))
	assert.Equal(t, []string{"m1", "m2", "m3"}, ids(s2.Messages()))
	assert.Equal(t, []string{"m1"}, ids(s1.Messages()))
	assert.Equal(t, StateClosed, s1.State())
}
