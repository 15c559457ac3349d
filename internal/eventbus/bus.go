// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package eventbus

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"github.com/nearline-social/nearline/internal/metrics"
	"github.com/nearline-social/nearline/internal/models"
)

// Bus fans events out by topic. The zero-config constructor (New)
// wires an in-process gochannel pub/sub good for a single server
// instance; NewNATS (build tag "nats") backs the same interface with
// JetStream for a multi-instance deployment.
type Bus struct {
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
}

// New builds an in-process bus. It never fails and never needs a
// running broker, which is why it is the default: a single Nearline
// instance does not need NATS just to hand a chat message from the
// write pipeline to a WebSocket connection in the same process.
func New(cfg Config, logger watermill.LoggerAdapter) *Bus {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}
	gc := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: cfg.OutputChannelBuffer,
		Persistent:          cfg.Persistent,
	}, logger)
	return &Bus{publisher: gc, subscriber: gc, logger: logger}
}

// Publish sends an event to everyone currently subscribed to its
// topic. With the in-process transport, an event published while no
// one is subscribed is simply dropped; callers that need at-least-once
// delivery to a disconnected account go through pushtoken instead.
func (b *Bus) Publish(event Event) error {
	payload, err := marshal(event)
	if err != nil {
		return fmt.Errorf("eventbus: marshal event: %w", err)
	}
	msg := message.NewMessage(uuid.NewString(), payload)
	err = b.publisher.Publish(Topic(event.Kind, event.Account), msg)
	metrics.RecordEventBusPublish(string(event.Kind), err)
	return err
}

// Subscribe returns a channel of events for (kind, account). The
// channel closes when ctx is canceled or Close is called.
func (b *Bus) Subscribe(ctx context.Context, kind Kind, account models.AccountID) (<-chan Event, error) {
	raw, err := b.subscriber.Subscribe(ctx, Topic(kind, account))
	if err != nil {
		return nil, fmt.Errorf("eventbus: subscribe: %w", err)
	}
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range raw {
			event, err := unmarshal(msg.Payload)
			if err != nil {
				b.logger.Error("eventbus: dropping undecodable message", err, nil)
				metrics.RecordEventBusParseFailed()
				msg.Ack()
				continue
			}
			msg.Ack()
			metrics.RecordEventBusConsumed(string(event.Kind))
			select {
			case out <- event:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// Close releases the underlying pub/sub resources.
func (b *Bus) Close() error {
	if closer, ok := b.publisher.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
