package terrain

import "fmt"

// GeoTransform is a GDAL-style affine mapping from raster (row, col) space to
// planar (x, y) coordinates in the grid's coordinate reference system. The
// transform is the single source of truth for cell-to-coordinate conversion.
type GeoTransform struct {
	OriginX     float64 // x of the top-left corner of the top-left cell
	PixelWidth  float64 // column step in x
	RowRotation float64 // row step in x (0 for north-up grids)
	OriginY     float64 // y of the top-left corner of the top-left cell
	ColRotation float64 // column step in y (0 for north-up grids)
	PixelHeight float64 // row step in y (negative for north-up grids)
}

// CellCenter returns the planar coordinate of the centre of cell (row, col).
func (t GeoTransform) CellCenter(row, col int) (x, y float64) {
	fc := float64(col) + 0.5
	fr := float64(row) + 0.5
	x = t.OriginX + fc*t.PixelWidth + fr*t.RowRotation
	y = t.OriginY + fc*t.ColRotation + fr*t.PixelHeight
	return x, y
}

// CellCorner returns the planar coordinate of the top-left corner of cell
// (row, col). Passing row == height or col == width yields the outer edge,
// which is how cell boundary rectangles are constructed.
func (t GeoTransform) CellCorner(row, col int) (x, y float64) {
	fc := float64(col)
	fr := float64(row)
	x = t.OriginX + fc*t.PixelWidth + fr*t.RowRotation
	y = t.OriginY + fc*t.ColRotation + fr*t.PixelHeight
	return x, y
}

// Invert maps a planar coordinate back to fractional raster (row, col) space.
// It returns an error when the transform is degenerate (zero determinant).
func (t GeoTransform) Invert(x, y float64) (row, col float64, err error) {
	det := t.PixelWidth*t.PixelHeight - t.RowRotation*t.ColRotation
	if det == 0 {
		return 0, 0, fmt.Errorf("terrain: degenerate geotransform (zero determinant)")
	}
	dx := x - t.OriginX
	dy := y - t.OriginY
	col = (dx*t.PixelHeight - dy*t.RowRotation) / det
	row = (dy*t.PixelWidth - dx*t.ColRotation) / det
	return row, col, nil
}
