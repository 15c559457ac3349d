// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package services

import (
	"context"
	"errors"
	"time"
)

// Drainer matches the ProcessNext method both moderation worker types
// expose: claim and resolve one queued request, reporting whether one
// was available.
//
// Satisfied by *moderation.AutomatedContentWorker and
// *moderation.AutomatedTextWorker.
type Drainer interface {
	ProcessNext(ctx context.Context) (bool, error)
}

// ModerationWorkerService drives a Drainer in a supervised loop: drain the
// queue as fast as requests are available, then idle until idleInterval
// elapses before checking again. A request-processing error is logged by
// the caller's event hook and does not stop the loop; suture only sees a
// non-nil return if ctx itself ends.
type ModerationWorkerService struct {
	worker       Drainer
	idleInterval time.Duration
	name         string
}

// NewModerationWorkerService builds a service named name wrapping worker.
// idleInterval <= 0 defaults to one second.
func NewModerationWorkerService(name string, worker Drainer, idleInterval time.Duration) *ModerationWorkerService {
	if idleInterval <= 0 {
		idleInterval = time.Second
	}
	return &ModerationWorkerService{
		worker:       worker,
		idleInterval: idleInterval,
		name:         name,
	}
}

// Serve implements suture.Service.
func (s *ModerationWorkerService) Serve(ctx context.Context) error {
	timer := time.NewTimer(s.idleInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		processed, err := s.worker.ProcessNext(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return ctx.Err()
			}
			return err
		}
		if processed {
			continue
		}

		if !timer.Stop() {
			<-timer.C
		}
		timer.Reset(s.idleInterval)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *ModerationWorkerService) String() string {
	return s.name
}
