package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/reunite-hq/lostfound-platform/internal/model"
)

const (
	// StreamName is the name of the direct message stream.
	StreamName = "DIRECT_MESSAGES"

	// SubjectPrefix is the prefix for all direct message subjects.
	SubjectPrefix = "dm"

	fetchBatchSize = 200
)

// StreamManager is the durable append-only message log. Subjects encode
// sender, receiver and item scope so history can be filtered server-side:
//
//	dm.<sender_id>.<receiver_id>.<item_id|general>
type StreamManager struct {
	client *Client
}

// NewStreamManager creates a new stream manager.
func NewStreamManager(client *Client) *StreamManager {
	return &StreamManager{client: client}
}

// EnsureStream ensures the message stream exists with proper configuration.
// Deletes and purges are denied: messages are immutable once committed.
func (m *StreamManager) EnsureStream(ctx context.Context) error {
	js := m.client.JetStream()

	_, err := js.Stream(ctx, StreamName)
	if err == nil {
		return nil
	}

	_, err = js.CreateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Subjects:    []string{fmt.Sprintf("%s.>", SubjectPrefix)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      365 * 24 * time.Hour,
		MaxBytes:    10 * 1024 * 1024 * 1024,
		Storage:     jetstream.FileStorage,
		Replicas:    1,
		Compression: jetstream.S2Compression,
		DenyDelete:  true,
		DenyPurge:   true,
		Description: "Direct messages between users",
	})
	if err != nil {
		return fmt.Errorf("failed to create stream: %w", err)
	}

	return nil
}

// MessageSubject returns the subject a message is committed under.
func MessageSubject(senderID, receiverID, itemID string) string {
	scope := itemID
	if scope == "" {
		scope = model.GeneralScope
	}
	return fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, senderID, receiverID, scope)
}

// InboxFilter returns the filter subject matching every message addressed to
// a user, across all senders and items.
func InboxFilter(userID string) string {
	return fmt.Sprintf("%s.*.%s.>", SubjectPrefix, userID)
}

// pairFilters returns the filter subjects covering both directions of a pair.
// With scopeToItem unset the filters span all item scopes, matching the
// pair-only read behavior.
func pairFilters(userA, userB, itemID string, scopeToItem bool) []string {
	if scopeToItem && itemID != "" {
		return []string{
			fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, userA, userB, itemID),
			fmt.Sprintf("%s.%s.%s.%s", SubjectPrefix, userB, userA, itemID),
		}
	}
	return []string{
		fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, userA, userB),
		fmt.Sprintf("%s.%s.%s.>", SubjectPrefix, userB, userA),
	}
}

// PublishMessage appends a message to the log and returns its commit sequence.
func (m *StreamManager) PublishMessage(ctx context.Context, msg *model.Message) (uint64, error) {
	subject := MessageSubject(msg.SenderID, msg.ReceiverID, msg.ItemID)

	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal message: %w", err)
	}

	ack, err := m.client.JetStream().Publish(ctx, subject, data)
	if err != nil {
		return 0, fmt.Errorf("%w: publish message: %v", model.ErrUnavailable, err)
	}

	return ack.Sequence, nil
}

// FetchPair retrieves the full history between two users, in either
// direction, ascending by timestamp with commit sequence breaking ties.
func (m *StreamManager) FetchPair(ctx context.Context, userA, userB, itemID string, scopeToItem bool) ([]model.Message, uint64, error) {
	js := m.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubjects:    pairFilters(userA, userB, itemID, scopeToItem),
		AckPolicy:         jetstream.AckNonePolicy,
		DeliverPolicy:     jetstream.DeliverAllPolicy,
		InactiveThreshold: time.Minute,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: create history consumer: %v", model.ErrUnavailable, err)
	}

	var (
		messages     []model.Message
		lastSequence uint64
	)

	for {
		batch, err := consumer.Fetch(fetchBatchSize, jetstream.FetchMaxWait(2*time.Second))
		if err != nil {
			return nil, 0, fmt.Errorf("%w: fetch history: %v", model.ErrUnavailable, err)
		}

		n := 0
		for raw := range batch.Messages() {
			var msg model.Message
			if err := json.Unmarshal(raw.Data(), &msg); err != nil {
				continue
			}
			if meta, err := raw.Metadata(); err == nil {
				msg.Sequence = meta.Sequence.Stream
				lastSequence = meta.Sequence.Stream
			}
			messages = append(messages, msg)
			n++
		}
		if batch.Error() != nil && batch.Error() != context.DeadlineExceeded {
			return nil, 0, fmt.Errorf("%w: history batch: %v", model.ErrUnavailable, batch.Error())
		}
		if n < fetchBatchSize {
			break
		}
	}

	sort.SliceStable(messages, func(i, j int) bool {
		if messages[i].Timestamp.Equal(messages[j].Timestamp) {
			return messages[i].Sequence < messages[j].Sequence
		}
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})

	return messages, lastSequence, nil
}
