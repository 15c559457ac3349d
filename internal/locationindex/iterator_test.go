package locationindex

import (
	"testing"

	"github.com/nearline-social/nearline/internal/models"
)

func fullArea(m *Matrix) models.Area {
	return models.Area{
		TopLeft:     key(0, 0),
		BottomRight: key(m.Width()-1, m.Height()-1),
	}
}

func drain(t *testing.T, it *Iterator) []models.LocationKey {
	t.Helper()
	var got []models.LocationKey
	for range iteratorStepLimit {
		k, ok := it.Next()
		if !ok {
			break
		}
		got = append(got, k)
	}
	return got
}

// TestIteratorFindsAllCorners mirrors the boundary scenario of a wide grid
// with one profile at each physical corner: a ring search centered in the
// middle must surface all four before completing, in the counterclockwise
// Down/Left/Up/Right order the ring walk produces.
func TestIteratorFindsAllCorners(t *testing.T) {
	m := NewMatrix(5, 10)
	corners := []models.LocationKey{key(0, 0), key(4, 0), key(0, 9), key(4, 9)}
	for _, c := range corners {
		m.AddLink(c, models.ProfileLink{AccountID: models.AccountID(c.X)<<16 | models.AccountID(c.Y)})
	}

	it := NewIterator(m, fullArea(m), key(2, 4), "session-a")
	got := drain(t, it)

	seen := map[models.LocationKey]int{}
	for _, k := range got {
		seen[k]++
	}
	for _, c := range corners {
		if seen[c] != 1 {
			t.Errorf("corner %+v visited %d times, want exactly 1", c, seen[c])
		}
	}
	if !it.State().Completed {
		t.Error("iterator should report completed once all corners are visited and the ring has closed")
	}
}

// TestIteratorMirroredGridFindsAllCorners repeats the same property on a
// tall-vs-wide grid with the axes swapped, guarding against an
// accidental x/y transposition bug in the move rules.
func TestIteratorMirroredGridFindsAllCorners(t *testing.T) {
	m := NewMatrix(10, 5)
	corners := []models.LocationKey{key(0, 0), key(9, 0), key(0, 4), key(9, 4)}
	for _, c := range corners {
		m.AddLink(c, models.ProfileLink{AccountID: 1})
	}

	it := NewIterator(m, fullArea(m), key(4, 2), "session-b")
	got := drain(t, it)

	found := map[models.LocationKey]bool{}
	for _, k := range got {
		found[k] = true
	}
	for _, c := range corners {
		if !found[c] {
			t.Errorf("expected to find corner %+v", c)
		}
	}
}

// TestIteratorLiteralSequenceFromTopLeft pins the exact visit order for a
// ring walk starting on an occupied corner, mirroring
// iterator_top_left_works in the original location index: a 5x10 grid with
// a profile at each physical corner, starting the walk on the top-left
// corner itself.
func TestIteratorLiteralSequenceFromTopLeft(t *testing.T) {
	m := NewMatrix(5, 10)
	corners := []models.LocationKey{key(0, 0), key(4, 0), key(0, 9), key(4, 9)}
	for _, c := range corners {
		m.AddLink(c, models.ProfileLink{AccountID: 1})
	}

	it := NewIterator(m, fullArea(m), key(0, 0), "session-top-left")
	want := []models.LocationKey{key(0, 0), key(4, 0), key(4, 9), key(0, 9)}
	for i, w := range want {
		got, ok := it.Next()
		if !ok {
			t.Fatalf("step %d: Next() ok=false, want a hit at %+v", i, w)
		}
		if got != w {
			t.Fatalf("step %d: got %+v, want %+v", i, got, w)
		}
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected the walk to be exhausted after all four corners")
	}
}

// TestIteratorLiteralSequenceFromBottomRightMirrored mirrors
// mirror_iterator_bottom_right_works: the axes-swapped 10x5 grid, starting
// the walk on the bottom-right corner.
func TestIteratorLiteralSequenceFromBottomRightMirrored(t *testing.T) {
	m := NewMatrix(10, 5)
	corners := []models.LocationKey{key(0, 0), key(9, 0), key(0, 4), key(9, 4)}
	for _, c := range corners {
		m.AddLink(c, models.ProfileLink{AccountID: 1})
	}

	it := NewIterator(m, fullArea(m), key(9, 4), "session-bottom-right")
	want := []models.LocationKey{key(9, 4), key(9, 0), key(0, 4), key(0, 0)}
	for i, w := range want {
		got, ok := it.Next()
		if !ok {
			t.Fatalf("step %d: Next() ok=false, want a hit at %+v", i, w)
		}
		if got != w {
			t.Fatalf("step %d: got %+v, want %+v", i, got, w)
		}
	}
	if _, ok := it.Next(); ok {
		t.Fatal("expected the walk to be exhausted after all four corners")
	}
}

func TestIteratorEmptyGridCompletesImmediately(t *testing.T) {
	m := NewMatrix(8, 8)
	it := NewIterator(m, fullArea(m), key(0, 0), "session-c")
	got := drain(t, it)
	if len(got) != 0 {
		t.Fatalf("expected no hits on an empty grid, got %v", got)
	}
	if !it.State().Completed {
		t.Error("expected iterator to complete on an empty grid")
	}
}

func TestIteratorResumePreservesProgress(t *testing.T) {
	m := NewMatrix(6, 6)
	m.AddLink(key(3, 3), models.ProfileLink{AccountID: 1})
	m.AddLink(key(5, 5), models.ProfileLink{AccountID: 2})

	it := NewIterator(m, fullArea(m), key(0, 0), "session-d")
	_, ok := it.Next() // consume the first hit, whichever it is
	if !ok {
		t.Fatal("expected a first hit")
	}
	wantNext, wantOK := it.Next()
	stateBeforeSecond := it.State()

	// Replaying from scratch up to the same point, then resuming from the
	// saved state, must yield the same remaining sequence.
	replay := NewIterator(m, fullArea(m), key(0, 0), "session-d")
	replay.Next()
	savedAfterFirst := replay.State()
	resumed := Resume(m, savedAfterFirst)
	got, gotOK := resumed.Next()

	if gotOK != wantOK || got != wantNext {
		t.Fatalf("resumed iterator diverged: want (%+v, %v), got (%+v, %v)", wantNext, wantOK, got, gotOK)
	}
	_ = stateBeforeSecond
}

func TestIteratorRespectsAreaBounds(t *testing.T) {
	m := NewMatrix(6, 6)
	m.AddLink(key(1, 1), models.ProfileLink{AccountID: 1})
	m.AddLink(key(5, 5), models.ProfileLink{AccountID: 2})

	area := models.Area{TopLeft: key(0, 0), BottomRight: key(2, 2)}
	it := NewIterator(m, area, key(1, 1), "session-e")
	got := drain(t, it)

	for _, k := range got {
		if k == (models.LocationKey{X: 5, Y: 5}) {
			t.Error("iterator should not surface a cell outside its Area")
		}
	}
	if len(got) != 1 || got[0] != (models.LocationKey{X: 1, Y: 1}) {
		t.Errorf("got = %v, want exactly [(1,1)]", got)
	}
}
