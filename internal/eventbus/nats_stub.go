// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

//go:build !nats

package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
)

// NewNATS is unavailable without the "nats" build tag. Build with
// -tags=nats to link the JetStream transport.
func NewNATS(cfg NATSConfig, logger watermill.LoggerAdapter) (*Bus, error) {
	return nil, fmt.Errorf("eventbus: NATS transport not available: build with -tags=nats")
}
