package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/reunite-hq/lostfound-platform/internal/model"
	"github.com/reunite-hq/lostfound-platform/pkg/metrics"
)

// LiveChannel is the push side of the message log. A subscription delivers,
// at-least-once while connected, every message addressed to the subscribed
// user committed after subscription start, in stream commit order. History is
// never replayed; consumers de-duplicate by message id.
type LiveChannel struct {
	client *Client
}

// NewLiveChannel creates a live channel over the message stream.
func NewLiveChannel(client *Client) *LiveChannel {
	return &LiveChannel{client: client}
}

// Subscription is a handle to an active live subscription. Unsubscribe is
// idempotent and safe to call on an already-stopped subscription.
type Subscription struct {
	cc   jetstream.ConsumeContext
	once sync.Once
}

// Unsubscribe stops delivery. Messages already handed to the callback are
// unaffected.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		if s.cc != nil {
			s.cc.Stop()
		}
	})
}

// Subscribe registers a callback for messages addressed to userID. Delivery
// starts at messages committed after this call; the callback runs on the
// consumer's dispatch goroutine, never re-entrant with Subscribe itself.
func (l *LiveChannel) Subscribe(ctx context.Context, userID string, handler func(model.Message)) (*Subscription, error) {
	js := l.client.JetStream()

	consumer, err := js.CreateConsumer(ctx, StreamName, jetstream.ConsumerConfig{
		FilterSubject:     InboxFilter(userID),
		AckPolicy:         jetstream.AckExplicitPolicy,
		DeliverPolicy:     jetstream.DeliverNewPolicy,
		InactiveThreshold: 5 * time.Minute,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create live consumer: %v", model.ErrUnavailable, err)
	}

	log := l.client.logger
	cc, err := consumer.Consume(func(raw jetstream.Msg) {
		var msg model.Message
		if err := json.Unmarshal(raw.Data(), &msg); err != nil {
			log.Warn("dropping undecodable live message", zap.Error(err))
			raw.Ack()
			return
		}
		if meta, err := raw.Metadata(); err == nil {
			msg.Sequence = meta.Sequence.Stream
		}
		handler(msg)
		metrics.LiveDeliveriesTotal.Inc()
		raw.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("%w: start live consumer: %v", model.ErrUnavailable, err)
	}

	return &Subscription{cc: cc}, nil
}
