// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

//go:build nats

package eventbus

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/nearline-social/nearline/internal/metrics"
)

// natsBus backs Bus's methods with JetStream, so events survive a
// WebSocket gateway restart between publish and a client's reconnect.
// It is built with NewNATS rather than embedded in Bus directly so the
// !nats build keeps a single, dependency-free Bus type.
type natsBus struct {
	publisher      message.Publisher
	subscriber     message.Subscriber
	circuitBreaker *gobreaker.CircuitBreaker[interface{}]
	mu             sync.RWMutex
	closed         bool
	logger         watermill.LoggerAdapter
}

// NewNATS connects to JetStream and returns a Bus-compatible transport.
// cfg.StreamName must already exist (provisioned out of band); this
// mirrors the teacher's "stream is pre-created by StreamInitializer"
// convention rather than racing AutoProvision across instances.
func NewNATS(cfg NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	if logger == nil {
		logger = watermill.NewStdLogger(false, false)
	}

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(nc *natsgo.Conn, err error) {
			if err != nil {
				logger.Error("eventbus: NATS disconnected", err, nil)
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info("eventbus: NATS reconnected", watermill.LogFields{"url": nc.ConnectedUrl()})
		}),
	}

	pubConfig := wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			TrackMsgId:    true,
		},
	}
	pub, err := wmNats.NewPublisher(pubConfig, logger)
	if err != nil {
		return nil, fmt.Errorf("eventbus: create NATS publisher: %w", err)
	}

	subConfig := wmNats.SubscriberConfig{
		URL:            cfg.URL,
		AckWaitTimeout: cfg.ConnectTimeout,
		NatsOptions:    natsOpts,
		Unmarshaler:    &wmNats.NATSMarshaler{},
		JetStream: wmNats.JetStreamConfig{
			Disabled:      false,
			AutoProvision: false,
			DurablePrefix: "nearline",
			SubscribeOptions: []natsgo.SubOpt{
				natsgo.BindStream(cfg.StreamName),
				natsgo.DeliverNew(),
			},
		},
	}
	sub, err := wmNats.NewSubscriber(subConfig, logger)
	if err != nil {
		pub.Close()
		return nil, fmt.Errorf("eventbus: create NATS subscriber: %w", err)
	}

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        "eventbus-nats-publish",
		Timeout:     cfg.CircuitTimeout,
		MaxRequests: 1,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.CircuitMaxFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.RecordCircuitBreakerTransition(name, from.String(), to.String())
		},
	})

	nb := &natsBus{publisher: pub, subscriber: sub, circuitBreaker: cb, logger: logger}
	return &Bus{publisher: nb, subscriber: nb, logger: logger}, nil
}

func (nb *natsBus) Publish(topic string, messages ...*message.Message) error {
	nb.mu.RLock()
	if nb.closed {
		nb.mu.RUnlock()
		return fmt.Errorf("eventbus: publisher is closed")
	}
	nb.mu.RUnlock()

	for _, msg := range messages {
		if msg.Metadata.Get(natsgo.MsgIdHdr) == "" {
			msg.Metadata.Set(natsgo.MsgIdHdr, msg.UUID)
		}
	}
	_, err := nb.circuitBreaker.Execute(func() (interface{}, error) {
		return nil, nb.publisher.Publish(topic, messages...)
	})
	return err
}

func (nb *natsBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return nb.subscriber.Subscribe(ctx, topic)
}

func (nb *natsBus) Close() error {
	nb.mu.Lock()
	defer nb.mu.Unlock()
	if nb.closed {
		return nil
	}
	nb.closed = true
	if err := nb.publisher.Close(); err != nil {
		return err
	}
	return nb.subscriber.Close()
}
