// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package writepipeline

import (
	"sync"

	"github.com/nearline-social/nearline/internal/models"
)

// keyedMutex hands out one *sync.Mutex per account, creating it on first
// use. It never removes entries: accounts are bounded in number and the
// mutex itself is tiny, so the map only grows with distinct accounts seen,
// not with operations performed (mirrors the account write lock
// manager pattern of keep-forever per-key locks).
type keyedMutex struct {
	mu    sync.Mutex
	locks map[models.AccountID]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[models.AccountID]*sync.Mutex)}
}

// Lock acquires the per-account lock for id and returns a function that
// releases it.
func (k *keyedMutex) Lock(id models.AccountID) func() {
	k.mu.Lock()
	l, ok := k.locks[id]
	if !ok {
		l = &sync.Mutex{}
		k.locks[id] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
