package locationindex

import "github.com/nearline-social/nearline/internal/models"

// iteratorStepLimit bounds how many internal moves a single Next call may
// take before giving up and marking the walk complete. It exists purely
// as a safety net against a state-machine bug turning into an infinite
// loop; a correctly bounded Area is exhausted long before this is hit.
const iteratorStepLimit = 350_000

// CellReader is the read surface Iterator needs from a grid. Matrix
// satisfies it; tests can supply a fake.
type CellReader interface {
	Width() uint16
	Height() uint16
	ReadCell(key models.LocationKey) models.LocationCellView
}

// Iterator walks an Area of a grid outward in expanding square rings
// centered on Start, yielding one occupied cell at a time.
// A fresh ring begins heading Down from its top-right corner and runs
// counterclockwise (Down, Left, Up, Right) using each cell's skip
// pointers to jump past empty runs; Next returns the next occupied cell,
// or ok=false once every corner of Area has been reached and the ring
// currently being walked has come back around to its own start.
type Iterator struct {
	reader CellReader
	state  models.IteratorState
}

// NewIterator starts a fresh walk of area centered on start.
func NewIterator(reader CellReader, area models.Area, start models.LocationKey, sessionID string) *Iterator {
	it := &Iterator{
		reader: reader,
		state: models.IteratorState{
			Area:      area,
			Start:     start,
			Cursor:    models.IterPos{X: int32(start.X), Y: int32(start.Y)},
			IterInit:  models.IterPos{X: int32(start.X), Y: int32(start.Y)},
			Ring:      0,
			Direction: models.RingDown,
		},
	}
	return it
}

// Resume rebuilds an Iterator from a previously saved state (e.g. fetched
// back out of the account cache between paging calls).
func Resume(reader CellReader, state models.IteratorState) *Iterator {
	return &Iterator{reader: reader, state: state}
}

// State returns the current cursor snapshot for caching.
func (it *Iterator) State() models.IteratorState { return it.state }

func (it *Iterator) leftMax() int32   { return int32(it.state.Start.X) - it.state.Ring }
func (it *Iterator) rightMax() int32  { return int32(it.state.Start.X) + it.state.Ring }
func (it *Iterator) topMax() int32    { return int32(it.state.Start.Y) - it.state.Ring }
func (it *Iterator) bottomMax() int32 { return int32(it.state.Start.Y) + it.state.Ring }

func (it *Iterator) lastCol() int32 { return int32(it.reader.Width()) - 1 }
func (it *Iterator) lastRow() int32 { return int32(it.reader.Height()) - 1 }

func maxI32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

func minI32(a, b int32) int32 {
	if a < b {
		return a
	}
	return b
}

// pointerAt reads one skip-pointer field from the physical cell at (x, y),
// or returns the default fallback when that position is off the grid
// entirely (which a ring in the middle of expanding regularly visits).
func (it *Iterator) pointerAt(x, y int32, pick func(models.LocationCellView) uint16, fallback int32) int32 {
	if x < 0 || y < 0 || x > it.lastCol() || y > it.lastRow() {
		return fallback
	}
	view := it.reader.ReadCell(models.LocationKey{X: uint16(x), Y: uint16(y)})
	return int32(pick(view))
}

// currentCellOccupied reports whether the cursor's current position both
// falls inside Area and has at least one profile — positions outside
// Area are treated as empty regardless of what the underlying grid holds.
func (it *Iterator) currentCellOccupied() bool {
	x, y := it.state.Cursor.X, it.state.Cursor.Y
	if x < 0 || y < 0 || x > it.lastCol() || y > it.lastRow() {
		return false
	}
	key := models.LocationKey{X: uint16(x), Y: uint16(y)}
	if !it.state.Area.Contains(key) {
		return false
	}
	return it.reader.ReadCell(key).HasProfiles
}

func (it *Iterator) currentRoundComplete() bool {
	return it.state.Cursor == it.state.IterInit && it.state.Direction == models.RingDown
}

func (it *Iterator) moveToNextRoundInitPos() {
	it.state.Ring++
	it.state.Direction = models.RingDown
	it.state.VisitedCorners = 0
	x := it.rightMax()
	y := it.topMax()
	it.state.Cursor = models.IterPos{X: x, Y: y}
	it.state.IterInit = it.state.Cursor
	it.state.Cursor.Y = y + 1
}

func (it *Iterator) updateVisitedCorners() {
	x, y := it.state.Cursor.X, it.state.Cursor.Y
	tl, br := it.state.Area.TopLeft, it.state.Area.BottomRight
	if x == int32(tl.X) && y == int32(tl.Y) {
		it.state.VisitedCorners |= models.CornerTopLeft
	}
	if x == int32(br.X) && y == int32(tl.Y) {
		it.state.VisitedCorners |= models.CornerTopRight
	}
	if x == int32(tl.X) && y == int32(br.Y) {
		it.state.VisitedCorners |= models.CornerBottomLeft
	}
	if x == int32(br.X) && y == int32(br.Y) {
		it.state.VisitedCorners |= models.CornerBottomRight
	}
}

// moveNextPosition advances the cursor by one step, possibly rolling over
// into the next ring. It returns false once the walk is fully exhausted:
// every Area corner has been reached and the current ring has closed.
func (it *Iterator) moveNextPosition() bool {
	if it.state.VisitedCorners == models.CornerAllVisited && it.currentRoundComplete() {
		return false
	}
	if it.currentRoundComplete() {
		it.moveToNextRoundInitPos()
		it.updateVisitedCorners()
		return true
	}

	x, y := it.state.Cursor.X, it.state.Cursor.Y

	switch it.state.Direction {
	case models.RingUp:
		switch {
		case y >= int32(it.reader.Height()):
			y = it.lastRow()
		case y <= 0:
			y = it.topMax()
		default:
			y = maxI32(it.pointerAt(x, y, func(v models.LocationCellView) uint16 { return v.NextUp }, 0), it.topMax())
		}
	case models.RingDown:
		switch {
		case y >= it.lastRow():
			y = it.bottomMax()
		case y < 0:
			y = 0
		default:
			y = minI32(it.pointerAt(x, y, func(v models.LocationCellView) uint16 { return v.NextDown }, int32(it.lastRow())), it.bottomMax())
		}
	case models.RingLeft:
		switch {
		case x > it.lastCol():
			x = it.lastCol()
		case x <= 0:
			x = it.leftMax()
		default:
			x = maxI32(it.pointerAt(x, y, func(v models.LocationCellView) uint16 { return v.NextLeft }, 0), it.leftMax())
		}
	case models.RingRight:
		switch {
		case x >= it.lastCol():
			x = it.rightMax()
		case x < 0:
			x = 0
		default:
			x = minI32(it.pointerAt(x, y, func(v models.LocationCellView) uint16 { return v.NextRight }, int32(it.lastCol())), it.rightMax())
		}
	}

	it.state.Cursor = models.IterPos{X: x, Y: y}

	switch {
	case x == it.rightMax() && y == it.topMax():
		it.state.Direction = models.RingDown
	case x == it.rightMax() && y == it.bottomMax():
		it.state.Direction = models.RingLeft
	case x == it.leftMax() && y == it.bottomMax():
		it.state.Direction = models.RingUp
	case x == it.leftMax() && y == it.topMax():
		it.state.Direction = models.RingRight
	}

	it.updateVisitedCorners()
	return true
}

// Next returns the next occupied cell in the walk. ok is false once the
// walk has exhausted Area; Next never yields the same cell twice for a
// fixed grid (a cell whose own occupancy changes mid-walk may be visited
// inconsistently, same as a other lock-free readers).
func (it *Iterator) Next() (models.LocationKey, bool) {
	if it.state.Completed {
		return models.LocationKey{}, false
	}
	for steps := 0; steps < iteratorStepLimit; steps++ {
		var hit models.LocationKey
		hasHit := it.currentCellOccupied()
		if hasHit {
			hit = models.LocationKey{X: uint16(it.state.Cursor.X), Y: uint16(it.state.Cursor.Y)}
		}
		if !it.moveNextPosition() {
			it.state.Completed = true
			return hit, hasHit
		}
		if hasHit {
			return hit, true
		}
	}
	it.state.Completed = true
	return models.LocationKey{}, false
}
