package runout

import "fmt"

// Mask is a boolean grid congruent with the terrain grid, marking every cell
// reachable from at least one trigger. Accumulation is a monotonic union: a
// marked cell never reverts within a run.
type Mask struct {
	Width  int
	Height int
	Cells  []bool // row-major, index = row*Width + col
}

// NewMask returns an all-false mask of the given dimensions.
func NewMask(width, height int) *Mask {
	return &Mask{
		Width:  width,
		Height: height,
		Cells:  make([]bool, width*height),
	}
}

// At reports whether cell (row, col) is marked. Out-of-range cells read false.
func (m *Mask) At(row, col int) bool {
	if row < 0 || row >= m.Height || col < 0 || col >= m.Width {
		return false
	}
	return m.Cells[row*m.Width+col]
}

// Set marks cell (row, col).
func (m *Mask) Set(row, col int) {
	m.Cells[row*m.Width+col] = true
}

// Or folds another mask into this one cell-by-cell. The operation is
// commutative and associative, so partial masks may be merged in any order.
// Panics on dimension mismatch, which is always a programming error.
func (m *Mask) Or(other *Mask) {
	if other.Width != m.Width || other.Height != m.Height {
		panic(fmt.Sprintf("runout: mask dimension mismatch: %dx%d vs %dx%d",
			m.Width, m.Height, other.Width, other.Height))
	}
	for i, v := range other.Cells {
		if v {
			m.Cells[i] = true
		}
	}
}

// CountMarked returns the number of marked cells.
func (m *Mask) CountMarked() int {
	n := 0
	for _, v := range m.Cells {
		if v {
			n++
		}
	}
	return n
}
