// Command render-raster draws an elevation grid or runout mask raster as a
// PNG heat map, for inspecting runs without a GIS.
package main

import (
	"flag"
	"log"
	"math"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/alpine-data/runout.report/internal/terrain"
)

// rasterXYZ adapts a terrain.Grid to the plotter heat map interface. Rows are
// flipped so north stays up; no-data cells become NaN and are not drawn.
type rasterXYZ struct {
	g *terrain.Grid
}

func (r rasterXYZ) Dims() (c, rows int) { return r.g.Width, r.g.Height }

func (r rasterXYZ) Z(c, row int) float64 {
	v, ok := r.g.ElevationAt(r.g.Height-1-row, c)
	if !ok {
		return math.NaN()
	}
	return v
}

func (r rasterXYZ) X(c int) float64 {
	x, _ := r.g.Transform.CellCenter(0, c)
	return x
}

func (r rasterXYZ) Y(row int) float64 {
	_, y := r.g.Transform.CellCenter(r.g.Height-1-row, 0)
	return y
}

func main() {
	in := flag.String("in", "", "input raster (.asc or .hgt)")
	out := flag.String("o", "raster.png", "output PNG file")
	title := flag.String("title", "", "plot title (default: input filename)")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		log.Fatal("missing -in")
	}

	var (
		g   *terrain.Grid
		err error
	)
	switch strings.ToLower(filepath.Ext(*in)) {
	case ".asc":
		// The CRS is irrelevant for rendering.
		g, err = terrain.ReadASCFile(*in, "")
	case ".hgt":
		g, err = terrain.ReadHGTFile(*in)
	default:
		log.Fatalf("unsupported raster format %q", filepath.Ext(*in))
	}
	if err != nil {
		log.Fatalf("loading raster: %v", err)
	}

	p := plot.New()
	if *title != "" {
		p.Title.Text = *title
	} else {
		p.Title.Text = filepath.Base(*in)
	}
	p.X.Label.Text = "Easting"
	p.Y.Label.Text = "Northing"

	h := plotter.NewHeatMap(rasterXYZ{g}, palette.Heat(16, 1))
	p.Add(h)

	if err := p.Save(10*vg.Inch, 10*vg.Inch, *out); err != nil {
		log.Fatalf("saving plot: %v", err)
	}
	log.Printf("wrote %s (%dx%d cells)", *out, g.Width, g.Height)
}
