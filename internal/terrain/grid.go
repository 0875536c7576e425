// Package terrain owns the elevation grid model: raster storage, the affine
// cell-to-coordinate transform, nearest-cell sampling, and readers/writers for
// the supported raster formats (ESRI ASCII grid, SRTM HGT).
package terrain

import (
	"fmt"
	"math"
	"sync"
)

// Grid is a rectangular terrain elevation raster plus its coordinate geometry.
// Elevations are stored row-major (index = row*Width + col). A Grid is
// immutable after construction; the coordinate meshes are derived lazily,
// exactly once, and shared by all readers.
type Grid struct {
	Width  int
	Height int

	// NoData is the sentinel marking missing samples. NaN sentinels are
	// supported: a NaN elevation is always treated as missing.
	NoData float64

	// Elev holds Width*Height elevation samples, row-major from the top row.
	Elev []float64

	// Transform maps raster space to planar coordinates in the CRS named by
	// Proj4.
	Transform GeoTransform

	// Proj4 is the proj4 definition of the grid's projected CRS. Trigger
	// coordinates must be projected into this CRS before evaluation.
	Proj4 string

	meshOnce  sync.Once
	eastings  []float64
	northings []float64
}

// NewGrid validates dimensions against the elevation slice and returns a Grid.
func NewGrid(width, height int, elev []float64, nodata float64, tr GeoTransform, proj4 string) (*Grid, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("terrain: invalid grid dimensions %dx%d", width, height)
	}
	if len(elev) != width*height {
		return nil, fmt.Errorf("terrain: elevation slice has %d samples, want %d", len(elev), width*height)
	}
	return &Grid{
		Width:     width,
		Height:    height,
		NoData:    nodata,
		Elev:      elev,
		Transform: tr,
		Proj4:     proj4,
	}, nil
}

// Cells returns the total cell count.
func (g *Grid) Cells() int { return g.Width * g.Height }

// hasData reports whether v is a real elevation sample rather than the
// no-data sentinel.
func (g *Grid) hasData(v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if math.IsNaN(g.NoData) {
		return true
	}
	return v != g.NoData
}

// ElevationAt returns the elevation of cell (row, col). The second return is
// false when the cell is out of range or holds the no-data sentinel.
func (g *Grid) ElevationAt(row, col int) (float64, bool) {
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return 0, false
	}
	return g.ElevationAtIndex(row*g.Width + col)
}

// ElevationAtIndex is the flat-index form of ElevationAt.
func (g *Grid) ElevationAtIndex(i int) (float64, bool) {
	if i < 0 || i >= len(g.Elev) {
		return 0, false
	}
	v := g.Elev[i]
	if !g.hasData(v) {
		return 0, false
	}
	return v, true
}

// Mesh returns whole-grid arrays of per-cell centre coordinates, row-major and
// congruent with Elev. The arrays are computed once per Grid and reused for
// every trigger; callers must not modify them.
func (g *Grid) Mesh() (eastings, northings []float64) {
	g.meshOnce.Do(func() {
		n := g.Cells()
		g.eastings = make([]float64, n)
		g.northings = make([]float64, n)
		i := 0
		for row := 0; row < g.Height; row++ {
			for col := 0; col < g.Width; col++ {
				g.eastings[i], g.northings[i] = g.Transform.CellCenter(row, col)
				i++
			}
		}
	})
	return g.eastings, g.northings
}

// CellAt maps a planar coordinate to the cell containing it (nearest-cell
// semantics, no interpolation). The bool is false when the coordinate falls
// outside the grid extent.
func (g *Grid) CellAt(x, y float64) (row, col int, ok bool) {
	fr, fc, err := g.Transform.Invert(x, y)
	if err != nil {
		return 0, 0, false
	}
	row = int(math.Floor(fr))
	col = int(math.Floor(fc))
	if row < 0 || row >= g.Height || col < 0 || col >= g.Width {
		return 0, 0, false
	}
	return row, col, true
}

// SampleElevation reads the elevation at the cell containing (x, y). The bool
// is false when the coordinate is outside the extent or lands on a no-data
// cell.
func (g *Grid) SampleElevation(x, y float64) (float64, bool) {
	row, col, ok := g.CellAt(x, y)
	if !ok {
		return 0, false
	}
	return g.ElevationAt(row, col)
}
