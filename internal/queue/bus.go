package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

const (
	EventsStreamName  = "EVENTS"
	EventsSubjectBase = "events"
)

// Bus is the NATS connection shared by the core process: an EVENTS
// JetStream stream for the switch/observation audit trail, and a plain
// pub/sub subject for gallery-invalidation fanout (spec §4.2 step 7 —
// other Recognition Worker replicas must drop a stale cache entry the
// instant a centroid or rename lands).
//
// JetStream's ack/redelivery contract does not fit the frame-ingest path
// (spec §4.1's drop-oldest queue must never block or retry), so frames
// never touch this bus — only the audit/invalidation side channels do.
type Bus struct {
	nc                *nats.Conn
	js                jetstream.JetStream
	invalidateSubject string
}

func NewBus(natsURL, invalidateSubject string) (*Bus, error) {
	nc, err := nats.Connect(natsURL,
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("create jetstream context: %w", err)
	}

	return &Bus{nc: nc, js: js, invalidateSubject: invalidateSubject}, nil
}

// EnsureStreams creates the EVENTS stream if it doesn't exist. Tries up to
// 30 times in total (1s apart) to ride out NATS startup delay.
func (b *Bus) EnsureStreams(ctx context.Context) error {
	cfg := jetstream.StreamConfig{
		Name:        EventsStreamName,
		Subjects:    []string{EventsSubjectBase + ".>"},
		Retention:   jetstream.InterestPolicy,
		MaxAge:      24 * time.Hour,
		MaxMsgs:     1000000,
		Storage:     jetstream.FileStorage,
		Description: "Recognition and switch-event audit trail",
	}

	const maxAttempts = 30
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		opCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := b.js.CreateOrUpdateStream(opCtx, cfg)
		cancel()
		if err == nil {
			slog.Info("ensured NATS stream", "name", cfg.Name)
			return nil
		}
		if attempt == maxAttempts {
			return fmt.Errorf("create stream %s: %w (after %d attempts)", cfg.Name, err, maxAttempts)
		}
		slog.Warn("ensure NATS stream (retrying...)", "name", cfg.Name, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	return nil
}

// PublishEvent appends an audit record under events.<kind>.
func (b *Bus) PublishEvent(ctx context.Context, kind string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	subject := fmt.Sprintf("%s.%s", EventsSubjectBase, kind)
	if _, err := b.js.Publish(ctx, subject, payload); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// ConsumeEvents starts a durable consumer over the EVENTS stream.
func (b *Bus) ConsumeEvents(ctx context.Context, consumerName string, handler func(ctx context.Context, subject string, data []byte) error) error {
	stream, err := b.js.Stream(ctx, EventsStreamName)
	if err != nil {
		return fmt.Errorf("get stream %s: %w", EventsStreamName, err)
	}

	cons, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumerName,
		Durable:       consumerName,
		AckPolicy:     jetstream.AckExplicitPolicy,
		AckWait:       10 * time.Second,
		MaxDeliver:    3,
		FilterSubject: EventsSubjectBase + ".>",
		DeliverPolicy: jetstream.DeliverNewPolicy,
	})
	if err != nil {
		return fmt.Errorf("create consumer %s: %w", consumerName, err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			batch, err := cons.Fetch(10, jetstream.FetchMaxWait(5*time.Second))
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				time.Sleep(time.Second)
				continue
			}

			for msg := range batch.Messages() {
				if err := handler(ctx, msg.Subject(), msg.Data()); err != nil {
					slog.Error("process event error", "error", err)
					_ = msg.Nak()
				} else {
					_ = msg.Ack()
				}
			}
		}
	}()

	slog.Info("event consumer started", "consumer", consumerName)
	return nil
}

// PublishInvalidate tells every Recognition Worker replica to drop its
// cached copy of personID's centroid on its next lookup.
func (b *Bus) PublishInvalidate(personID string) error {
	return b.nc.Publish(b.invalidateSubject, []byte(personID))
}

// SubscribeInvalidate registers fn to run for every invalidation published
// on the bus. The returned unsubscribe func is safe to call once.
func (b *Bus) SubscribeInvalidate(fn func(personID string)) (func(), error) {
	sub, err := b.nc.Subscribe(b.invalidateSubject, func(msg *nats.Msg) {
		fn(string(msg.Data))
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe invalidate: %w", err)
	}
	return func() { _ = sub.Unsubscribe() }, nil
}

func (b *Bus) Ping() error {
	if !b.nc.IsConnected() {
		return fmt.Errorf("nats not connected")
	}
	return nil
}

func (b *Bus) Close() {
	b.nc.Close()
}
