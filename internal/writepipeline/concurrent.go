// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package writepipeline

import (
	"context"

	"github.com/nearline-social/nearline/internal/models"
)

// Lane identifies which concurrent-lane semaphore a Token was acquired
// from, for logging and metrics.
type Lane int

const (
	LaneContentUpload Lane = iota
	LaneProfileIndex
)

// Token represents one held slot in a concurrent-lane semaphore plus the
// per-account lock taken alongside it. Callers must call Release exactly
// once when the work finishes.
type Token struct {
	Lane    Lane
	Account models.AccountID
	release func()
	done    bool
}

// Release frees the semaphore slot, the per-account lock, and the quit
// barrier entry this token is holding. Safe to call more than once.
func (t *Token) Release() {
	if t.done {
		return
	}
	t.done = true
	t.release()
}

// AcquireContentUpload reserves one content-upload slot for account,
// serialized against any other concurrent-lane work for the same
// account. Use for raw media uploads to temporary storage.
func (p *Pipeline) AcquireContentUpload(ctx context.Context, account models.AccountID) (*Token, error) {
	return p.acquire(ctx, account, LaneContentUpload, p.contentUpload)
}

// AcquireProfileIndex reserves one profile-index slot for account. Use
// for location-index mutation and iterator paging, which are CPU-bound
// and sized to GOMAXPROCS rather than an IO-bound queue depth.
func (p *Pipeline) AcquireProfileIndex(ctx context.Context, account models.AccountID) (*Token, error) {
	return p.acquire(ctx, account, LaneProfileIndex, p.profileIndex)
}

func (p *Pipeline) acquire(ctx context.Context, account models.AccountID, lane Lane, sem weightedSemaphore) (*Token, error) {
	if err := p.quit.enter(); err != nil {
		return nil, err
	}

	unlockAccount := p.accountLocks.Lock(account)

	if err := sem.Acquire(ctx, 1); err != nil {
		unlockAccount()
		p.quit.leave()
		return nil, err
	}

	return &Token{
		Lane:    lane,
		Account: account,
		release: func() {
			sem.Release(1)
			unlockAccount()
			p.quit.leave()
		},
	}, nil
}

// weightedSemaphore is the subset of *semaphore.Weighted this package
// uses, narrowed so tests can substitute a fake.
type weightedSemaphore interface {
	Acquire(ctx context.Context, n int64) error
	Release(n int64)
}
