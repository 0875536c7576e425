// Package runout implements the alpha-angle runout evaluator: the per-cell
// geometric reachability test applied across the whole terrain grid for every
// trigger, accumulated into a single boolean mask.
//
// The test for trigger T at (tx, ty, te) against cell (ex, ey, ze) is
//
//	drop = max(te-ze, 0)
//	drop*drop / ((ex-tx)^2 + (ey-ty)^2) > tan(alpha)^2
//
// which is the angle test drop/dist > tan(alpha) in squared form, avoiding a
// square root and tangent per cell. The evaluator assumes trigger coordinates
// are already projected into the grid's CRS; mixing CRSs is a caller bug this
// package cannot detect.
package runout

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"gonum.org/v1/gonum/floats"

	"github.com/alpine-data/runout.report/internal/geo"
	"github.com/alpine-data/runout.report/internal/monitoring"
	"github.com/alpine-data/runout.report/internal/terrain"
)

// DefaultAlphaDegrees is the classic alpha-angle threshold used when no angle
// is configured.
const DefaultAlphaDegrees = 19.0

// Params configures a run.
type Params struct {
	// AlphaDegrees is the runout threshold angle; must be > 0 and < 90. The
	// angle is converted once per run to a squared-tangent threshold.
	AlphaDegrees float64

	// Workers is the number of concurrent trigger workers. Zero means
	// GOMAXPROCS. The result is identical for any worker count.
	Workers int
}

// Validate checks that the parameters describe a usable run.
func (p Params) Validate() error {
	if p.AlphaDegrees <= 0 || p.AlphaDegrees >= 90 {
		return fmt.Errorf("runout: alpha angle must be in (0, 90) degrees, got %g", p.AlphaDegrees)
	}
	if p.Workers < 0 {
		return fmt.Errorf("runout: workers must be non-negative, got %d", p.Workers)
	}
	return nil
}

// threshold returns the squared tangent of the alpha angle.
func (p Params) threshold() float64 {
	t := math.Tan(p.AlphaDegrees * math.Pi / 180)
	return t * t
}

// Result carries the accumulated mask plus run statistics.
type Result struct {
	Mask *Mask

	// TriggersEvaluated counts triggers that contributed a reachability pass;
	// TriggersSkipped counts triggers dropped for sampling gaps (outside the
	// grid or on no-data).
	TriggersEvaluated int
	TriggersSkipped   int
}

// Evaluate computes the runout mask for all triggers over the grid.
//
// Each usable trigger is tested against every cell using the grid's
// precomputed coordinate meshes. Triggers with OK == false contribute the
// empty set and are counted as skipped rather than failing the run. A cell at
// exactly zero distance from a trigger is unreachable from that trigger by
// definition; the division is never performed, so the mask can never absorb a
// NaN or Inf comparison.
func Evaluate(g *terrain.Grid, triggers []geo.Trigger, p Params) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	thresh := p.threshold()
	eastings, northings := g.Mesh()

	usable := make([]geo.Trigger, 0, len(triggers))
	skipped := 0
	for _, t := range triggers {
		if t.OK {
			usable = append(usable, t)
		} else {
			skipped++
		}
	}

	res := &Result{
		Mask:              NewMask(g.Width, g.Height),
		TriggersEvaluated: len(usable),
		TriggersSkipped:   skipped,
	}
	if len(usable) == 0 {
		return res, nil
	}

	workers := p.Workers
	if workers == 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(usable) {
		workers = len(usable)
	}

	jobs := make(chan geo.Trigger)
	var mu sync.Mutex
	var wg sync.WaitGroup
	var done atomic.Int64
	total := len(usable)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Each worker owns a private partial mask and scratch buffers;
			// the shared mask is only touched at the single merge point.
			partial := NewMask(g.Width, g.Height)
			scratch := newScratch(g.Cells())
			for t := range jobs {
				evaluateTrigger(g, eastings, northings, t, thresh, partial, scratch)
				monitoring.Logf("runout: trigger %d of %d", done.Add(1), total)
			}
			mu.Lock()
			res.Mask.Or(partial)
			mu.Unlock()
		}()
	}
	for _, t := range usable {
		jobs <- t
	}
	close(jobs)
	wg.Wait()

	return res, nil
}

// scratch holds per-worker whole-grid buffers reused across triggers.
type scratch struct {
	dx []float64
	dy []float64
}

func newScratch(n int) *scratch {
	return &scratch{dx: make([]float64, n), dy: make([]float64, n)}
}

// evaluateTrigger applies the squared angle test for one trigger across the
// whole grid, marking reachable cells in the partial mask.
func evaluateTrigger(g *terrain.Grid, eastings, northings []float64, t geo.Trigger, thresh float64, m *Mask, s *scratch) {
	// Vectorized squared distance from the trigger to every cell centre:
	// dx = (eastings - tx)^2, then dx += (northings - ty)^2.
	copy(s.dx, eastings)
	floats.AddConst(-t.X, s.dx)
	floats.Mul(s.dx, s.dx)
	copy(s.dy, northings)
	floats.AddConst(-t.Y, s.dy)
	floats.Mul(s.dy, s.dy)
	floats.Add(s.dx, s.dy)

	for i, d2 := range s.dx {
		if d2 == 0 {
			// The trigger's own cell centre: unreachable by definition.
			continue
		}
		ze, ok := g.ElevationAtIndex(i)
		if !ok {
			continue
		}
		drop := t.Elevation - ze
		if drop <= 0 {
			// Uphill or level cells never qualify.
			continue
		}
		if drop*drop/d2 > thresh {
			m.Cells[i] = true
		}
	}
}
