package runout

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpine-data/runout.report/internal/geo"
	"github.com/alpine-data/runout.report/internal/terrain"
)

// testGrid builds a north-up grid with square cells of the given size, with
// cell (0,0) in the north-west corner and the origin at x=0.
func testGrid(t *testing.T, width, height int, cell float64, elev []float64) *terrain.Grid {
	t.Helper()
	tr := terrain.GeoTransform{
		OriginX:     0,
		PixelWidth:  cell,
		OriginY:     float64(height) * cell,
		PixelHeight: -cell,
	}
	g, err := terrain.NewGrid(width, height, elev, -9999, tr, "+proj=longlat")
	require.NoError(t, err)
	return g
}

// triggerAtCell places a trigger exactly on the centre of cell (row, col)
// with the given elevation.
func triggerAtCell(g *terrain.Grid, row, col int, elevation float64) geo.Trigger {
	x, y := g.Transform.CellCenter(row, col)
	return geo.Trigger{X: x, Y: y, Elevation: elevation, OK: true}
}

func flat(n int, v float64) []float64 {
	e := make([]float64, n)
	for i := range e {
		e[i] = v
	}
	return e
}

func TestParamsValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Params{AlphaDegrees: 19}.Validate())
	assert.Error(t, Params{AlphaDegrees: 0}.Validate())
	assert.Error(t, Params{AlphaDegrees: -5}.Validate())
	assert.Error(t, Params{AlphaDegrees: 90}.Validate())
	assert.Error(t, Params{AlphaDegrees: 19, Workers: -1}.Validate())
}

// Scenario A: a flat grid has no elevation drop anywhere, so no cell is ever
// reachable, the trigger's own cell included.
func TestFlatGridEmptyMask(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 5, 5, 100, flat(25, 1500))
	trig := triggerAtCell(g, 2, 2, 1500)

	res, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Mask.CountMarked())
}

// Scenario B: 1000m drop over 100m distance is far above the 19 degree
// threshold.
func TestSteepDropReachable(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 2, 1, 100, []float64{1000, 0})
	trig := triggerAtCell(g, 0, 0, 1000)

	res, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.True(t, res.Mask.At(0, 1))
	assert.False(t, res.Mask.At(0, 0), "trigger's own cell is unreachable by definition")
}

// Scenario C: the same drop over 10000m falls below the threshold.
func TestShallowDropUnreachable(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 2, 1, 10000, []float64{1000, 0})
	trig := triggerAtCell(g, 0, 0, 1000)

	res, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.False(t, res.Mask.At(0, 1))
	assert.Equal(t, 0, res.Mask.CountMarked())
}

// Scenario D: two triggers with disjoint individual masks combine to exactly
// their set union.
func TestDisjointTriggersUnion(t *testing.T) {
	t.Parallel()

	// 1x9 grid, 2000m cells, flat at 0. A trigger 1000m above the terrain
	// reaches exactly the two cells 2000m away (ratio 0.25) and nothing at
	// 4000m or beyond (ratio 0.0625 < tan^2(19) ~ 0.1187).
	g := testGrid(t, 9, 1, 2000, flat(9, 0))
	t1 := triggerAtCell(g, 0, 1, 1000)
	t2 := triggerAtCell(g, 0, 6, 1000)

	r1, err := Evaluate(g, []geo.Trigger{t1}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	r2, err := Evaluate(g, []geo.Trigger{t2}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	both, err := Evaluate(g, []geo.Trigger{t1, t2}, Params{AlphaDegrees: 19})
	require.NoError(t, err)

	// Individual masks are what the geometry says, and disjoint.
	assert.Equal(t, 2, r1.Mask.CountMarked())
	assert.True(t, r1.Mask.At(0, 0))
	assert.True(t, r1.Mask.At(0, 2))
	assert.Equal(t, 2, r2.Mask.CountMarked())
	assert.True(t, r2.Mask.At(0, 5))
	assert.True(t, r2.Mask.At(0, 7))
	for i := range r1.Mask.Cells {
		assert.False(t, r1.Mask.Cells[i] && r2.Mask.Cells[i], "masks should be disjoint at %d", i)
	}

	// The combined mask is exactly the union.
	union := NewMask(g.Width, g.Height)
	union.Or(r1.Mask)
	union.Or(r2.Mask)
	assert.Empty(t, cmp.Diff(union.Cells, both.Mask.Cells))
}

// Adding triggers never unmarks a cell.
func TestMonotonicUnion(t *testing.T) {
	t.Parallel()

	elev := []float64{
		2000, 1800, 1600, 1400,
		1900, 1700, 1500, 1300,
		1800, 1600, 1400, 1200,
		1700, 1500, 1300, 1100,
	}
	g := testGrid(t, 4, 4, 50, elev)
	t1 := triggerAtCell(g, 0, 0, 2000)
	t2 := triggerAtCell(g, 3, 0, 1700)

	small, err := Evaluate(g, []geo.Trigger{t1}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	large, err := Evaluate(g, []geo.Trigger{t1, t2}, Params{AlphaDegrees: 19})
	require.NoError(t, err)

	for i, v := range small.Mask.Cells {
		if v {
			assert.True(t, large.Mask.Cells[i], "cell %d unmarked by adding a trigger", i)
		}
	}
}

// Cells above the trigger are never reachable, however close.
func TestUphillExclusion(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 3, 1, 10, []float64{500, 9000, 500})
	trig := triggerAtCell(g, 0, 0, 500)

	res, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.False(t, res.Mask.At(0, 1), "uphill cell must never be marked")
	assert.False(t, res.Mask.At(0, 2), "level cell must never be marked")
}

// A steeper threshold angle can only shrink the reachable set.
func TestThresholdMonotonicity(t *testing.T) {
	t.Parallel()

	// A uniform 30%-ish slope: each column drops 40m over 100m.
	elev := make([]float64, 20)
	for i := range elev {
		elev[i] = 1000 - 40*float64(i)
	}
	g := testGrid(t, 20, 1, 100, elev)
	trig := triggerAtCell(g, 0, 0, 1000)

	gentle, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 15})
	require.NoError(t, err)
	steep, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 30})
	require.NoError(t, err)

	assert.Greater(t, gentle.Mask.CountMarked(), 0)
	assert.LessOrEqual(t, steep.Mask.CountMarked(), gentle.Mask.CountMarked())
	for i, v := range steep.Mask.Cells {
		if v {
			assert.True(t, gentle.Mask.Cells[i], "cell %d reachable at 30 deg but not at 15 deg", i)
		}
	}
}

// A trigger exactly on a cell centre is deterministic: the zero-distance cell
// is excluded, nearby cells follow the geometry, and no NaN ever reaches the
// mask.
func TestSelfLocationDeterminism(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 3, 3, 100, flat(9, 0))
	trig := triggerAtCell(g, 1, 1, 1000)

	first, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.False(t, first.Mask.At(1, 1), "zero-distance cell must stay unmarked")
	assert.True(t, first.Mask.At(0, 0), "diagonal neighbour should be reachable")

	for i := 0; i < 25; i++ {
		res, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(first.Mask.Cells, res.Mask.Cells), "run %d differs", i)
	}
}

// Trigger order and worker count never change the result.
func TestOrderAndParallelIndependence(t *testing.T) {
	t.Parallel()

	elev := make([]float64, 100)
	for i := range elev {
		// Deterministic bumpy terrain.
		elev[i] = 1000 + 300*math.Sin(float64(i)) - 5*float64(i)
	}
	g := testGrid(t, 10, 10, 75, elev)
	triggers := []geo.Trigger{
		triggerAtCell(g, 0, 0, 1400),
		triggerAtCell(g, 4, 7, 1300),
		triggerAtCell(g, 9, 3, 1200),
		triggerAtCell(g, 2, 9, 1350),
	}
	reversed := make([]geo.Trigger, len(triggers))
	for i, tr := range triggers {
		reversed[len(triggers)-1-i] = tr
	}

	base, err := Evaluate(g, triggers, Params{AlphaDegrees: 19, Workers: 1})
	require.NoError(t, err)
	assert.Greater(t, base.Mask.CountMarked(), 0)

	perm, err := Evaluate(g, reversed, Params{AlphaDegrees: 19, Workers: 1})
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(base.Mask.Cells, perm.Mask.Cells))

	for _, workers := range []int{2, 4, 16} {
		par, err := Evaluate(g, triggers, Params{AlphaDegrees: 19, Workers: workers})
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(base.Mask.Cells, par.Mask.Cells), "workers=%d", workers)
	}
}

// A trigger with a sampling gap contributes nothing and does not abort the
// run.
func TestSamplingGapSkipped(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 2, 1, 100, []float64{1000, 0})
	good := triggerAtCell(g, 0, 0, 1000)
	bad := geo.Trigger{X: -1e9, Y: -1e9, OK: false}

	res, err := Evaluate(g, []geo.Trigger{bad, good}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TriggersEvaluated)
	assert.Equal(t, 1, res.TriggersSkipped)
	assert.True(t, res.Mask.At(0, 1), "good trigger still applies in full")

	onlyBad, err := Evaluate(g, []geo.Trigger{bad}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.Equal(t, 0, onlyBad.Mask.CountMarked())
	assert.Equal(t, 1, onlyBad.TriggersSkipped)
}

// No-data cells are never marked, even directly below a trigger.
func TestNoDataNeverReachable(t *testing.T) {
	t.Parallel()

	g := testGrid(t, 3, 1, 100, []float64{1000, -9999, 0})
	trig := triggerAtCell(g, 0, 0, 1000)

	res, err := Evaluate(g, []geo.Trigger{trig}, Params{AlphaDegrees: 19})
	require.NoError(t, err)
	assert.False(t, res.Mask.At(0, 1))
	assert.True(t, res.Mask.At(0, 2))
}
