package locationindex

import (
	"sync"
	"sync/atomic"

	"github.com/nearline-social/nearline/internal/models"
)

// Cell is one matrix entry. hasProfiles is the cell's own occupancy bit;
// the four pointers name the nearest occupied cell in that direction, or
// the matrix border when none exists. All fields are touched only through
// atomics: Flag/Unflag is the single writer, ReadCell/Candidates are the
// many readers.
type Cell struct {
	hasProfiles atomic.Bool
	nextUp      atomic.Uint32
	nextDown    atomic.Uint32
	nextLeft    atomic.Uint32
	nextRight   atomic.Uint32
}

// Matrix is the full grid. width/height are fixed at construction time:
// this is a fixed-size location index, not a resizable one.
type Matrix struct {
	width  uint16
	height uint16
	cells  []Cell

	mu    sync.RWMutex
	links map[models.LocationKey][]models.ProfileLink
}

// NewMatrix builds a width x height grid with every cell's pointers
// initialized to the matrix borders, matching an index with no profiles
// placed yet.
func NewMatrix(width, height uint16) *Matrix {
	m := &Matrix{
		width:  width,
		height: height,
		cells:  make([]Cell, int(width)*int(height)),
		links:  make(map[models.LocationKey][]models.ProfileLink),
	}
	for y := 0; y < int(height); y++ {
		for x := 0; x < int(width); x++ {
			c := m.cellAtXY(x, y)
			c.nextUp.Store(0)
			c.nextDown.Store(uint32(height) - 1)
			c.nextLeft.Store(0)
			c.nextRight.Store(uint32(width) - 1)
		}
	}
	return m
}

func (m *Matrix) Width() uint16  { return m.width }
func (m *Matrix) Height() uint16 { return m.height }

func (m *Matrix) inBounds(x, y int) bool {
	return x >= 0 && y >= 0 && x < int(m.width) && y < int(m.height)
}

func (m *Matrix) cellAtXY(x, y int) *Cell {
	return &m.cells[y*int(m.width)+x]
}

func (m *Matrix) cellAt(key models.LocationKey) *Cell {
	return m.cellAtXY(int(key.X), int(key.Y))
}

// ReadCell returns the skip-pointer view of one cell. Callers outside the
// matrix bounds get the zero view; Iterator treats out-of-area cells as
// unpopulated rather than calling ReadCell on them.
func (m *Matrix) ReadCell(key models.LocationKey) models.LocationCellView {
	c := m.cellAt(key)
	return models.LocationCellView{
		HasProfiles: c.hasProfiles.Load(),
		NextUp:      uint16(c.nextUp.Load()),
		NextDown:    uint16(c.nextDown.Load()),
		NextLeft:    uint16(c.nextLeft.Load()),
		NextRight:   uint16(c.nextRight.Load()),
	}
}

// Flag marks key as occupied and repairs the four pointer strips that
// radiate from it: cells strictly right of key in its row get
// nextLeft = key.X (stopping at the first already-populated cell found
// walking outward, since that cell's own pointer is already correct and
// everything past it is that cell's responsibility); cells strictly
// left get nextRight = key.X; cells below in its column get
// nextUp = key.Y; cells above get nextDown = key.Y.
func (m *Matrix) Flag(key models.LocationKey) {
	c := m.cellAt(key)
	if c.hasProfiles.Load() {
		return
	}
	c.hasProfiles.Store(true)
	x, y := int(key.X), int(key.Y)

	for xi := x + 1; xi < int(m.width); xi++ {
		cc := m.cellAtXY(xi, y)
		cc.nextLeft.Store(uint32(x))
		if cc.hasProfiles.Load() {
			break
		}
	}
	for xi := x - 1; xi >= 0; xi-- {
		cc := m.cellAtXY(xi, y)
		cc.nextRight.Store(uint32(x))
		if cc.hasProfiles.Load() {
			break
		}
	}
	for yi := y + 1; yi < int(m.height); yi++ {
		cc := m.cellAtXY(x, yi)
		cc.nextUp.Store(uint32(y))
		if cc.hasProfiles.Load() {
			break
		}
	}
	for yi := y - 1; yi >= 0; yi-- {
		cc := m.cellAtXY(x, yi)
		cc.nextDown.Store(uint32(y))
		if cc.hasProfiles.Load() {
			break
		}
	}
}

// Unflag clears key's occupancy bit and propagates its OLD pointer values
// outward along the same four strips Flag touches: the strip that used
// to point at key now points wherever key itself used to point for that
// direction (key's old nextLeft feeds the right-hand strip, its old
// nextRight feeds the left-hand strip, and symmetrically for up/down) —
// this is the detail easiest to get backwards, since it is the opposite
// of Flag's own assignment.
func (m *Matrix) Unflag(key models.LocationKey) {
	c := m.cellAt(key)
	if !c.hasProfiles.Load() {
		return
	}
	c.hasProfiles.Store(false)
	oldLeft := c.nextLeft.Load()
	oldRight := c.nextRight.Load()
	oldUp := c.nextUp.Load()
	oldDown := c.nextDown.Load()
	x, y := int(key.X), int(key.Y)

	for xi := x + 1; xi < int(m.width); xi++ {
		cc := m.cellAtXY(xi, y)
		cc.nextLeft.Store(oldLeft)
		if cc.hasProfiles.Load() {
			break
		}
	}
	for xi := x - 1; xi >= 0; xi-- {
		cc := m.cellAtXY(xi, y)
		cc.nextRight.Store(oldRight)
		if cc.hasProfiles.Load() {
			break
		}
	}
	for yi := y + 1; yi < int(m.height); yi++ {
		cc := m.cellAtXY(x, yi)
		cc.nextUp.Store(oldUp)
		if cc.hasProfiles.Load() {
			break
		}
	}
	for yi := y - 1; yi >= 0; yi-- {
		cc := m.cellAtXY(x, yi)
		cc.nextDown.Store(oldDown)
		if cc.hasProfiles.Load() {
			break
		}
	}
}

// AddLink records a profile at key and flags the cell if this is its
// first occupant. Candidates returned by an Iterator come from this map.
func (m *Matrix) AddLink(key models.LocationKey, link models.ProfileLink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.links[key]
	for i, l := range existing {
		if l.AccountID == link.AccountID {
			existing[i] = link
			return
		}
	}
	m.links[key] = append(existing, link)
	if len(m.links[key]) == 1 {
		m.Flag(key)
	}
}

// RemoveLink drops a profile from key and unflags the cell once it has
// no remaining occupants.
func (m *Matrix) RemoveLink(key models.LocationKey, account models.AccountID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing := m.links[key]
	for i, l := range existing {
		if l.AccountID == account {
			existing = append(existing[:i], existing[i+1:]...)
			break
		}
	}
	if len(existing) == 0 {
		delete(m.links, key)
		m.Unflag(key)
		return
	}
	m.links[key] = existing
}

// Links returns the profiles currently recorded at key.
func (m *Matrix) Links(key models.LocationKey) []models.ProfileLink {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ProfileLink, len(m.links[key]))
	copy(out, m.links[key])
	return out
}
