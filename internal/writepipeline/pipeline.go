// Nearline - Location-aware Dating & Social Backend
// Copyright 2026 Nearline Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/nearline-social/nearline

package writepipeline

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/nearline-social/nearline/internal/accountcache"
	"github.com/nearline-social/nearline/internal/locationindex"
	"github.com/nearline-social/nearline/internal/metrics"
	"github.com/nearline-social/nearline/internal/storage"
)

// defaultContentUploadLanes bounds how many raw content uploads can be
// streaming to temporary storage at once, independent of CPU count: this
// lane is IO-bound, not CPU-bound.
const defaultContentUploadLanes = 4

// Pipeline is the single entry point every mutating operation goes
// through. Handlers never touch storage or the account cache
// directly; they call Write for transactional state changes or one of
// the concurrent-lane Acquire methods for uploads and index work.
type Pipeline struct {
	Store     *storage.Store
	Cache     *accountcache.Cache
	Locations *locationindex.Manager

	serialMu sync.Mutex
	quit     *quitBarrier

	contentUpload *semaphore.Weighted
	profileIndex  *semaphore.Weighted
	accountLocks  *keyedMutex
}

// New builds a Pipeline. contentUploadLanes <= 0 uses
// defaultContentUploadLanes; the profile-index lane is always sized to
// GOMAXPROCS, matching a CPU-bound-work sizing convention.
func New(store *storage.Store, cache *accountcache.Cache, locations *locationindex.Manager, contentUploadLanes int) *Pipeline {
	if contentUploadLanes <= 0 {
		contentUploadLanes = defaultContentUploadLanes
	}
	return &Pipeline{
		Store:         store,
		Cache:         cache,
		Locations:     locations,
		quit:          newQuitBarrier(),
		contentUpload: semaphore.NewWeighted(int64(contentUploadLanes)),
		profileIndex:  semaphore.NewWeighted(int64(runtime.GOMAXPROCS(0))),
		accountLocks:  newKeyedMutex(),
	}
}

// Write runs fn on the serial lane, in submission order, with the rest of
// the pipeline's writes blocked until it returns. It fails immediately
// with apperr.ErrServerClosing if Shutdown has already begun.
func Write[R any](ctx context.Context, p *Pipeline, fn func(ctx context.Context, store *storage.Store, cache *accountcache.Cache) (R, error)) (R, error) {
	var zero R
	if err := p.quit.enter(); err != nil {
		return zero, err
	}
	defer p.quit.leave()

	p.serialMu.Lock()
	defer p.serialMu.Unlock()
	start := time.Now()
	result, err := fn(ctx, p.Store, p.Cache)
	metrics.RecordWritePipelineOperation(time.Since(start), err)
	return result, err
}

// Shutdown marks the pipeline closed and waits for every write already in
// flight to finish, or ctx to be done first.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	return p.quit.shutdown(ctx)
}
