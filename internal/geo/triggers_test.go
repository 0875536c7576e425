package geo

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpine-data/runout.report/internal/terrain"
)

// lonlatGrid builds a small grid in plain lon/lat coordinates so the trigger
// transform is effectively the identity and elevations can be checked exactly.
// The grid covers lon [10, 10.3), lat [47, 47.2) with 0.1 degree cells.
func lonlatGrid(t *testing.T) *terrain.Grid {
	t.Helper()
	elev := []float64{
		100, 200, 300,
		400, -9999, 600,
	}
	tr := terrain.GeoTransform{
		OriginX:     10,
		PixelWidth:  0.1,
		OriginY:     47.2,
		PixelHeight: -0.1,
	}
	g, err := terrain.NewGrid(3, 2, elev, -9999, tr, TriggerProj4)
	require.NoError(t, err)
	return g
}

func TestNewTriggerTransformBadCRS(t *testing.T) {
	t.Parallel()

	_, err := NewTriggerTransform("+proj=bogus")
	assert.Error(t, err)
}

func TestProjectTriggers(t *testing.T) {
	t.Parallel()

	g := lonlatGrid(t)
	tr, err := NewTriggerTransform(g.Proj4)
	require.NoError(t, err)

	pts := []geom.Point{
		{X: 10.05, Y: 47.15}, // cell (0,0), elevation 100
		{X: 10.25, Y: 47.05}, // cell (1,2), elevation 600
		{X: 10.15, Y: 47.05}, // cell (1,1), no-data
		{X: 11.5, Y: 47.05},  // outside the grid
	}
	triggers, err := ProjectTriggers(pts, tr, g)
	require.NoError(t, err)
	require.Len(t, triggers, 4)

	assert.True(t, triggers[0].OK)
	assert.Equal(t, 100.0, triggers[0].Elevation)
	assert.InDelta(t, 10.05, triggers[0].X, 1e-6)
	assert.InDelta(t, 47.15, triggers[0].Y, 1e-6)

	assert.True(t, triggers[1].OK)
	assert.Equal(t, 600.0, triggers[1].Elevation)

	// A trigger on a no-data cell is kept but unusable.
	assert.False(t, triggers[2].OK)

	// A trigger outside the extent is kept but unusable.
	assert.False(t, triggers[3].OK)

	// Source coordinates are preserved for reporting.
	assert.Equal(t, 11.5, triggers[3].Lon)
	assert.Equal(t, 47.05, triggers[3].Lat)
}
