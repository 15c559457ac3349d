package locationindex

import (
	"sync"

	"github.com/google/uuid"
	"github.com/nearline-social/nearline/internal/metrics"
	"github.com/nearline-social/nearline/internal/models"
)

// Manager owns the single process-wide Matrix and the in-flight iterator
// sessions paging clients are currently walking. One Manager backs the whole process — there
// is exactly one location grid.
type Manager struct {
	matrix *Matrix

	mu       sync.Mutex
	sessions map[string]models.IteratorState
}

// NewManager builds a Manager over a width x height grid.
func NewManager(width, height uint16) *Manager {
	return &Manager{
		matrix:   NewMatrix(width, height),
		sessions: make(map[string]models.IteratorState),
	}
}

// Matrix exposes the underlying grid for AddLink/RemoveLink callers
// (the write pipeline updates it as profiles move or toggle visibility).
func (mgr *Manager) Matrix() *Matrix { return mgr.matrix }

// StartSession begins a new iterator session centered on start over area,
// returning the session ID the caller hands back to the client for
// subsequent pages.
func (mgr *Manager) StartSession(area models.Area, start models.LocationKey) string {
	sessionID := uuid.NewString()
	it := NewIterator(mgr.matrix, area, start, sessionID)
	state := it.State()
	state.SessionID = sessionID

	mgr.mu.Lock()
	mgr.sessions[sessionID] = state
	count := len(mgr.sessions)
	mgr.mu.Unlock()
	metrics.RecordLocationIndexOperation("start_session")
	metrics.SetLocationIndexActiveSessions(count)
	return sessionID
}

// Page returns up to limit occupied cells from sessionID's ongoing walk,
// persisting the iterator's progress back into the session for the next
// call. ok is false if sessionID is unknown.
func (mgr *Manager) Page(sessionID string, limit int) ([]models.LocationKey, bool) {
	mgr.mu.Lock()
	state, found := mgr.sessions[sessionID]
	mgr.mu.Unlock()
	if !found {
		return nil, false
	}

	it := Resume(mgr.matrix, state)
	keys := make([]models.LocationKey, 0, limit)
	for len(keys) < limit {
		k, ok := it.Next()
		if !ok {
			break
		}
		keys = append(keys, k)
	}

	mgr.mu.Lock()
	mgr.sessions[sessionID] = it.State()
	mgr.mu.Unlock()
	metrics.RecordLocationIndexOperation("page")
	return keys, true
}

// EndSession drops a session's state, e.g. once the client disconnects.
func (mgr *Manager) EndSession(sessionID string) {
	mgr.mu.Lock()
	delete(mgr.sessions, sessionID)
	count := len(mgr.sessions)
	mgr.mu.Unlock()
	metrics.RecordLocationIndexOperation("end_session")
	metrics.SetLocationIndexActiveSessions(count)
}
