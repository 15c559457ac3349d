// Package locationindex implements the fixed-size location matrix and the
// expanding-ring profile iterator.
//
// The matrix stores one Cell per (x, y) grid coordinate. A Cell tracks
// whether its own coordinate currently has visible profiles, plus four
// skip pointers (nextUp, nextDown, nextLeft, nextRight) that let a reader
// jump straight to the nearest populated cell in each of the four
// directions without scanning every intervening cell. Flag/Unflag repair
// the four directional pointer strips radiating from the touched cell;
// every other cell's pointers are untouched. All fields are atomics so
// many concurrent readers can walk the matrix while a single writer
// flags or unflags cells (a lock-free single-writer,
// many-reader convention — see internal/cache/spatial_hash.go).
package locationindex
