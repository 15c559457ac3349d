// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package writepipeline

import (
	"context"
	"sync"

	"github.com/nearline-social/nearline/internal/apperr"
)

// quitBarrier tracks writes in flight so Shutdown can wait for the last
// one to finish instead of racing it, and rejects new writes once closed.
// It is the Go equivalent of an mpsc quit-lock: a counted
// barrier rather than a channel of senders, since Go has no analogue to
// dropping a cloned Sender to signal completion.
type quitBarrier struct {
	mu      sync.Mutex
	closed  bool
	count   int
	drained chan struct{}
}

func newQuitBarrier() *quitBarrier {
	return &quitBarrier{}
}

// enter registers one write in flight, failing if shutdown already began.
func (q *quitBarrier) enter() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return apperr.ErrServerClosing
	}
	q.count++
	return nil
}

// leave releases one write, waking Shutdown if it was the last one.
func (q *quitBarrier) leave() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.count--
	if q.closed && q.count == 0 && q.drained != nil {
		close(q.drained)
		q.drained = nil
	}
}

// shutdown marks the barrier closed and blocks until every write already
// in flight completes, or ctx is done first.
func (q *quitBarrier) shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	if q.count == 0 {
		q.mu.Unlock()
		return nil
	}
	drained := make(chan struct{})
	q.drained = drained
	q.mu.Unlock()

	select {
	case <-drained:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
