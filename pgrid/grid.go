// Package pgrid tracks which cells of a figure's rectangular grid
// layout are occupied by subplots.
package pgrid

import (
	"fmt"

	"github.com/bits-and-blooms/bitset"
)

// Region is a rectangular run of grid cells.
// Spans of zero are treated as one.
type Region struct {
	Row, Col         int
	RowSpan, ColSpan int
}

// Normalized returns the region with zero spans replaced by one.
func (r Region) Normalized() Region {
	if r.RowSpan == 0 {
		r.RowSpan = 1
	}
	if r.ColSpan == 0 {
		r.ColSpan = 1
	}
	return r
}

// OutOfBoundsError is returned when a region
// does not fit inside the grid.
type OutOfBoundsError struct {
	Region     Region
	Rows, Cols int
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"region at (%d,%d) spanning %dx%d does not fit a %dx%d grid",
		e.Region.Row, e.Region.Col, e.Region.RowSpan, e.Region.ColSpan,
		e.Rows, e.Cols,
	)
}

// OverlapError is returned when a region
// intersects an already reserved region.
type OverlapError struct {
	Region Region
}

func (e OverlapError) Error() string {
	return fmt.Sprintf(
		"region at (%d,%d) spanning %dx%d superposes an existing subplot",
		e.Region.Row, e.Region.Col, e.Region.RowSpan, e.Region.ColSpan,
	)
}

// Grid is the occupancy map of a rows-by-cols layout.
type Grid struct {
	rows, cols int

	// One bit per cell, row-major.
	occupied *bitset.BitSet
}

// New returns an empty grid. It panics on non-positive dimensions,
// which are always a programming error.
func New(rows, cols int) *Grid {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Errorf("grid dimensions must be positive, got %dx%d", rows, cols))
	}
	return &Grid{
		rows:     rows,
		cols:     cols,
		occupied: bitset.New(uint(rows * cols)),
	}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }

// Reserve marks the region's cells occupied,
// failing if any cell is out of bounds or already taken.
// On failure no cell is marked.
func (g *Grid) Reserve(r Region) error {
	r = r.Normalized()

	if r.Row < 0 || r.Col < 0 || r.RowSpan < 1 || r.ColSpan < 1 ||
		r.Row+r.RowSpan > g.rows || r.Col+r.ColSpan > g.cols {
		return OutOfBoundsError{Region: r, Rows: g.rows, Cols: g.cols}
	}

	for row := r.Row; row < r.Row+r.RowSpan; row++ {
		for col := r.Col; col < r.Col+r.ColSpan; col++ {
			if g.occupied.Test(g.bit(row, col)) {
				return OverlapError{Region: r}
			}
		}
	}

	for row := r.Row; row < r.Row+r.RowSpan; row++ {
		for col := r.Col; col < r.Col+r.ColSpan; col++ {
			g.occupied.Set(g.bit(row, col))
		}
	}
	return nil
}

// Occupied reports whether the given cell is reserved.
func (g *Grid) Occupied(row, col int) bool {
	if row < 0 || col < 0 || row >= g.rows || col >= g.cols {
		return false
	}
	return g.occupied.Test(g.bit(row, col))
}

func (g *Grid) bit(row, col int) uint {
	return uint(row*g.cols + col)
}
