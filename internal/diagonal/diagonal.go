// Package diagonal provides a packed lower-triangular array whose rows are
// cut off after a fixed number of cells.
//
// Row n holds the cells k = 0..min(n, depth-1). With depth D the array uses
// O(len·D) memory instead of the O(len²) a full triangle would need.
package diagonal

import (
	"errors"
	"fmt"
)

// ErrInvalidDepth is returned when an array is requested with a depth below one.
var ErrInvalidDepth = errors.New("depth must be at least 1")

// Array is a bounded triangular array indexed by (n, k) with k <= n and k < depth.
type Array[T any] struct {
	length int
	depth  int
	data   []T
}

// Length returns the number of cells in the first n rows of an array with the
// given depth. It is also the offset of row n.
func Length(n, depth int) int {
	mi := min(n, depth)
	return (mi+1)*mi/2 + max(0, n-depth)*depth
}

// New allocates an array of length rows with at most depth cells per row.
func New[T any](length, depth int) (*Array[T], error) {
	if depth < 1 {
		return nil, fmt.Errorf("diagonal array of length %d: %w", length, ErrInvalidDepth)
	}
	if length < 0 {
		return nil, fmt.Errorf("diagonal array length %d is negative", length)
	}
	return &Array[T]{
		length: length,
		depth:  depth,
		data:   make([]T, Length(length, depth)),
	}, nil
}

// Len returns the number of rows.
func (a *Array[T]) Len() int { return a.length }

// Depth returns the maximal number of cells per row.
func (a *Array[T]) Depth() int { return a.depth }

// Size returns the number of allocated cells.
func (a *Array[T]) Size() int { return len(a.data) }

// Valid reports whether (n, k) addresses a cell of the array.
func (a *Array[T]) Valid(n, k int) bool {
	return n >= 0 && n < a.length && k >= 0 && k <= n && k < a.depth
}

func (a *Array[T]) offset(n, k int) int {
	return Length(n, a.depth) + k
}

func (a *Array[T]) check(n, k int) {
	if !a.Valid(n, k) {
		panic(fmt.Sprintf("diagonal: index [%d, %d] out of range for length %d and depth %d",
			n, k, a.length, a.depth))
	}
}

// Get returns the cell at (n, k). It panics when (n, k) is not a valid cell.
func (a *Array[T]) Get(n, k int) T {
	a.check(n, k)
	return a.data[a.offset(n, k)]
}

// Set stores v at (n, k). It panics when (n, k) is not a valid cell.
func (a *Array[T]) Set(n, k int, v T) {
	a.check(n, k)
	a.data[a.offset(n, k)] = v
}

// At returns the cell at (n, k) without validating k against n and depth.
// Callers must only use it for indices they know to be valid; an out of range
// row still panics through the slice bounds check.
func (a *Array[T]) At(n, k int) T {
	return a.data[a.offset(n, k)]
}

// Ptr returns a pointer to the cell at (n, k), for in place updates.
func (a *Array[T]) Ptr(n, k int) *T {
	a.check(n, k)
	return &a.data[a.offset(n, k)]
}

// Row returns the cells of row n, k = 0..min(n, depth-1).
func (a *Array[T]) Row(n int) []T {
	a.check(n, 0)
	start := a.offset(n, 0)
	return a.data[start : start+min(n+1, a.depth)]
}
