// Package spatial provides a uniform grid for broad-phase collision queries.
//
// The grid stores integer entity indices rather than pointers and reuses its
// cell slices between rebuilds, so a per-tick Clear+Insert cycle does not
// allocate once warmed up.
package spatial

import "math"

// Grid buckets entities into fixed-size square cells.
//
// Cell size should be at least the largest query radius; a query then
// touches at most a 3x3 block of cells. Cells are stored row-major
// (cells[row*cols+col]).
type Grid struct {
	cellSize    float64
	invCellSize float64
	cols, rows  int
	cells       [][]uint32
	scratch     []uint32
}

// NewGrid creates a grid covering [0,width]x[0,height].
func NewGrid(width, height, cellSize float64) *Grid {
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]uint32, cols*rows)
	for i := range cells {
		cells[i] = make([]uint32, 0, 4)
	}

	return &Grid{
		cellSize:    cellSize,
		invCellSize: 1.0 / cellSize,
		cols:        cols,
		rows:        rows,
		cells:       cells,
		scratch:     make([]uint32, 0, 32),
	}
}

// Clear empties every cell, keeping capacity.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
}

// Insert files id under the cell containing (x, y). Positions outside the
// grid are clamped to the border cells.
func (g *Grid) Insert(id uint32, x, y float64) {
	col := g.clampCol(int(x * g.invCellSize))
	row := g.clampRow(int(y * g.invCellSize))
	idx := row*g.cols + col
	g.cells[idx] = append(g.cells[idx], id)
}

// QueryRadius returns ids in every cell overlapping the square around
// (cx, cy) with half-side radius. Candidates still need an exact distance
// check. The slice is reused by the next query.
func (g *Grid) QueryRadius(cx, cy, radius float64) []uint32 {
	g.scratch = g.scratch[:0]

	minCol := g.clampCol(int((cx - radius) * g.invCellSize))
	maxCol := g.clampCol(int((cx + radius) * g.invCellSize))
	minRow := g.clampRow(int((cy - radius) * g.invCellSize))
	maxRow := g.clampRow(int((cy + radius) * g.invCellSize))

	for row := minRow; row <= maxRow; row++ {
		for col := minCol; col <= maxCol; col++ {
			g.scratch = append(g.scratch, g.cells[row*g.cols+col]...)
		}
	}
	return g.scratch
}

// Len returns the number of filed entities.
func (g *Grid) Len() int {
	n := 0
	for _, cell := range g.cells {
		n += len(cell)
	}
	return n
}

// Dimensions returns the grid dimensions.
func (g *Grid) Dimensions() (cols, rows int, cellSize float64) {
	return g.cols, g.rows, g.cellSize
}

func (g *Grid) clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col >= g.cols {
		return g.cols - 1
	}
	return col
}

func (g *Grid) clampRow(row int) int {
	if row < 0 {
		return 0
	}
	if row >= g.rows {
		return g.rows - 1
	}
	return row
}
