package geo

import (
	"fmt"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"

	"github.com/alpine-data/runout.report/internal/monitoring"
	"github.com/alpine-data/runout.report/internal/terrain"
)

// TriggerProj4 is the CRS trigger coordinates are assumed to arrive in:
// plain lon/lat, matching what mapping tools export.
const TriggerProj4 = "+proj=longlat +datum=WGS84 +no_defs"

// Trigger is one avalanche-start candidate, ready for evaluation: its source
// geographic coordinate, its coordinate projected into the grid CRS, and the
// grid elevation sampled at that location.
type Trigger struct {
	Lon, Lat  float64 // geographic coordinate as supplied
	X, Y      float64 // projected coordinate in the grid CRS
	Elevation float64 // nearest-cell grid elevation at (X, Y)

	// OK is false when the projected coordinate falls outside the grid
	// extent or on a no-data cell. Such a trigger contributes nothing to the
	// runout mask; the run continues without it.
	OK bool
}

// NewTriggerTransform builds the transform from trigger lon/lat coordinates
// into the grid CRS named by gridProj4.
func NewTriggerTransform(gridProj4 string) (proj.Transformer, error) {
	srcSR, err := proj.Parse(TriggerProj4)
	if err != nil {
		return nil, fmt.Errorf("geo: parsing trigger CRS: %w", err)
	}
	dstSR, err := proj.Parse(gridProj4)
	if err != nil {
		return nil, fmt.Errorf("geo: parsing grid CRS %q: %w", gridProj4, err)
	}
	t, err := srcSR.NewTransform(dstSR)
	if err != nil {
		return nil, fmt.Errorf("geo: building trigger transform: %w", err)
	}
	return t, nil
}

// ProjectTriggers projects each lon/lat point into the grid CRS and samples
// the grid elevation at the result. Points that land outside the grid or on
// no-data cells come back with OK == false.
func ProjectTriggers(pts []geom.Point, t proj.Transformer, g *terrain.Grid) ([]Trigger, error) {
	triggers := make([]Trigger, 0, len(pts))
	for i, p := range pts {
		gg, err := p.Transform(t)
		if err != nil {
			return nil, fmt.Errorf("geo: projecting trigger %d (%g, %g): %w", i, p.X, p.Y, err)
		}
		pp, ok := gg.(geom.Point)
		if !ok {
			return nil, fmt.Errorf("geo: projecting trigger %d: unexpected geometry %T", i, gg)
		}
		trig := Trigger{Lon: p.X, Lat: p.Y, X: pp.X, Y: pp.Y}
		if elev, ok := g.SampleElevation(pp.X, pp.Y); ok {
			trig.Elevation = elev
			trig.OK = true
		} else {
			monitoring.Logf("geo: trigger %d (%g, %g) is outside the grid or on no-data; it will be skipped", i, p.X, p.Y)
		}
		triggers = append(triggers, trig)
	}
	return triggers, nil
}
