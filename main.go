// Command runout estimates avalanche runout extent from a terrain elevation
// grid and a set of GeoJSON trigger points using the alpha-angle heuristic,
// and writes the runout zone as GeoJSON polygons in lon/lat coordinates.
//
// Trigger points should mark the highest point of a potential avalanche path.
// Outdoor mapping tools can export markers, routes, or tracks as GeoJSON; all
// of their waypoints become triggers.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alpine-data/runout.report/internal/config"
	"github.com/alpine-data/runout.report/internal/geo"
	"github.com/alpine-data/runout.report/internal/monitoring"
	"github.com/alpine-data/runout.report/internal/rundb"
	"github.com/alpine-data/runout.report/internal/runout"
	"github.com/alpine-data/runout.report/internal/terrain"
	"github.com/alpine-data/runout.report/internal/vectorize"
	"github.com/alpine-data/runout.report/internal/version"
)

var (
	demPath     = flag.String("dem", "", "terrain elevation grid (.asc or .hgt)")
	triggerPath = flag.String("triggers", "", "GeoJSON file with lon/lat trigger points")
	alphaFlag   = flag.Float64("alpha", 0, "runout (alpha) angle in degrees (default 19, or config value)")
	outputPath  = flag.String("o", "output.geojson", "output GeoJSON file")
	gridProj    = flag.String("grid-proj", "", "proj4 definition of the DEM's CRS (required for .asc)")
	maskRaster  = flag.String("mask-raster", "", "optional path to dump the runout mask as an .asc raster")
	configPath  = flag.String("config", "", "optional JSON run configuration")
	dbPath      = flag.String("db", "", "optional SQLite run history database")
	workersFlag = flag.Int("workers", -1, "trigger workers (0 = all CPUs, default from config)")
	showVersion = flag.Bool("version", false, "print version and exit")
)

// loadDEM dispatches on the raster file extension.
func loadDEM(path, proj4 string) (*terrain.Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".asc":
		if proj4 == "" {
			return nil, fmt.Errorf("ASC grids carry no CRS; -grid-proj is required")
		}
		return terrain.ReadASCFile(path, proj4)
	case ".hgt":
		return terrain.ReadHGTFile(path)
	default:
		return nil, fmt.Errorf("unsupported DEM format %q (want .asc or .hgt)", filepath.Ext(path))
	}
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("runout %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	if *demPath == "" || *triggerPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := &config.RunConfig{}
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	params := runout.Params{
		AlphaDegrees: cfg.GetAlphaDegrees(),
		Workers:      cfg.GetWorkers(),
	}
	if *alphaFlag != 0 {
		params.AlphaDegrees = *alphaFlag
	}
	if *workersFlag >= 0 {
		params.Workers = *workersFlag
	}
	if err := params.Validate(); err != nil {
		log.Fatalf("%v", err)
	}

	proj4 := *gridProj
	if proj4 == "" {
		proj4 = cfg.GetGridProj4()
	}

	grid, err := loadDEM(*demPath, proj4)
	if err != nil {
		log.Fatalf("loading DEM: %v", err)
	}
	monitoring.Logf("loaded DEM %s: %dx%d cells", *demPath, grid.Width, grid.Height)

	fc, err := geo.ReadFeatureCollectionFile(*triggerPath)
	if err != nil {
		log.Fatalf("loading triggers: %v", err)
	}
	points, err := fc.Points()
	if err != nil {
		log.Fatalf("flattening triggers: %v", err)
	}
	if len(points) == 0 {
		log.Fatalf("no trigger points found in %s", *triggerPath)
	}

	transform, err := geo.NewTriggerTransform(grid.Proj4)
	if err != nil {
		log.Fatalf("building trigger projection: %v", err)
	}
	triggers, err := geo.ProjectTriggers(points, transform, grid)
	if err != nil {
		log.Fatalf("projecting triggers: %v", err)
	}

	start := time.Now()
	res, err := runout.Evaluate(grid, triggers, params)
	if err != nil {
		log.Fatalf("evaluating runout: %v", err)
	}
	elapsed := time.Since(start)
	monitoring.Logf("evaluated %d triggers (%d skipped) in %s: %d of %d cells in the runout zone",
		res.TriggersEvaluated, res.TriggersSkipped, elapsed.Round(time.Millisecond),
		res.Mask.CountMarked(), grid.Cells())

	if *maskRaster != "" {
		mg := maskGrid(res.Mask, grid)
		if err := terrain.WriteASCFile(*maskRaster, mg); err != nil {
			log.Fatalf("writing mask raster: %v", err)
		}
	}

	poly := vectorize.Polygons(res.Mask, grid.Transform)
	var lonlat = poly
	if poly != nil {
		lonlat, err = vectorize.Reproject(poly, grid.Proj4)
		if err != nil {
			log.Fatalf("reprojecting runout polygons: %v", err)
		}
	}
	if err := vectorize.WriteGeoJSONFile(*outputPath, lonlat); err != nil {
		log.Fatalf("writing output: %v", err)
	}
	monitoring.Logf("wrote %s", *outputPath)

	if *dbPath != "" {
		store, err := rundb.Open(*dbPath)
		if err != nil {
			log.Fatalf("opening run database: %v", err)
		}
		defer store.Close()
		id, err := store.RecordRun(rundb.Run{
			DEMPath:         *demPath,
			TriggerCount:    res.TriggersEvaluated,
			SkippedTriggers: res.TriggersSkipped,
			AlphaDegrees:    params.AlphaDegrees,
			CellsMarked:     res.Mask.CountMarked(),
			TotalCells:      grid.Cells(),
			Duration:        elapsed,
			OutputPath:      *outputPath,
		})
		if err != nil {
			log.Fatalf("recording run: %v", err)
		}
		monitoring.Logf("recorded run %s in %s", id, *dbPath)
	}
}

// maskGrid wraps the mask as a 0/1 raster congruent with the DEM, with 0 as
// the no-data value so downstream polygonizers ignore unmarked cells.
func maskGrid(m *runout.Mask, dem *terrain.Grid) *terrain.Grid {
	values := make([]float64, len(m.Cells))
	for i, v := range m.Cells {
		if v {
			values[i] = 1
		}
	}
	g, err := terrain.NewGrid(m.Width, m.Height, values, 0, dem.Transform, dem.Proj4)
	if err != nil {
		// Mask dimensions come from the DEM, so this cannot happen.
		panic(err)
	}
	return g
}
