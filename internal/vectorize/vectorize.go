// Package vectorize turns the runout mask into geographic polygons: marked
// cells are decomposed into boundary rectangles, unioned into polygons in the
// grid CRS, reprojected to lon/lat, and written out as GeoJSON. It replaces
// the external gdal_polygonize/ogr2ogr step with direct geometry library
// calls.
package vectorize

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/alpine-data/runout.report/internal/runout"
	"github.com/alpine-data/runout.report/internal/terrain"
)

// Polygons converts a mask into a polygonal region in the grid CRS. Marked
// cells in each row are merged into horizontal strips; the strips are then
// folded together with polygon union, so touching strips coalesce into
// contiguous runout polygons. An empty mask yields nil.
func Polygons(m *runout.Mask, tr terrain.GeoTransform) geom.Polygonal {
	var out geom.Polygonal
	for row := 0; row < m.Height; row++ {
		col := 0
		for col < m.Width {
			if !m.At(row, col) {
				col++
				continue
			}
			start := col
			for col < m.Width && m.At(row, col) {
				col++
			}
			strip := cellStrip(tr, row, start, col)
			if out == nil {
				out = strip
			} else {
				out = out.Union(strip)
			}
		}
	}
	return out
}

// cellStrip builds the boundary rectangle covering cells [colStart, colEnd)
// of one row, wound counter-clockwise for north-up grids.
func cellStrip(tr terrain.GeoTransform, row, colStart, colEnd int) geom.Polygon {
	x0, y0 := tr.CellCorner(row+1, colStart)
	x1, y1 := tr.CellCorner(row+1, colEnd)
	x2, y2 := tr.CellCorner(row, colEnd)
	x3, y3 := tr.CellCorner(row, colStart)
	return geom.Polygon{{
		geom.Point{X: x0, Y: y0},
		geom.Point{X: x1, Y: y1},
		geom.Point{X: x2, Y: y2},
		geom.Point{X: x3, Y: y3},
	}}
}

// Reproject transforms a polygonal region from the grid CRS back to lon/lat
// for GeoJSON output.
func Reproject(p geom.Polygonal, gridProj4 string) (geom.Polygonal, error) {
	gridSR, err := proj.Parse(gridProj4)
	if err != nil {
		return nil, fmt.Errorf("vectorize: parsing grid CRS %q: %w", gridProj4, err)
	}
	lonlatSR, err := proj.Parse("+proj=longlat +datum=WGS84 +no_defs")
	if err != nil {
		return nil, fmt.Errorf("vectorize: parsing lon/lat CRS: %w", err)
	}
	t, err := gridSR.NewTransform(lonlatSR)
	if err != nil {
		return nil, fmt.Errorf("vectorize: building reprojection transform: %w", err)
	}
	gg, err := p.Transform(t)
	if err != nil {
		return nil, fmt.Errorf("vectorize: reprojecting runout polygons: %w", err)
	}
	pp, ok := gg.(geom.Polygonal)
	if !ok {
		return nil, fmt.Errorf("vectorize: reprojection produced unexpected geometry %T", gg)
	}
	return pp, nil
}
