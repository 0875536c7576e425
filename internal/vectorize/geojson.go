package vectorize

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/geom"

	"github.com/alpine-data/runout.report/internal/geo"
)

// WriteGeoJSON encodes the runout region as a GeoJSON FeatureCollection with
// one Polygon feature per disjoint runout polygon. A nil region yields an
// empty (but valid) FeatureCollection.
func WriteGeoJSON(w io.Writer, p geom.Polygonal) error {
	fc := geo.FeatureCollection{Type: "FeatureCollection", Features: []geo.Feature{}}
	if p != nil {
		for _, poly := range p.Polygons() {
			rings := make([][][]float64, 0, len(poly))
			for _, ring := range poly {
				if len(ring) == 0 {
					continue
				}
				coords := make([][]float64, 0, len(ring)+1)
				for _, pt := range ring {
					coords = append(coords, []float64{pt.X, pt.Y})
				}
				// GeoJSON rings must close explicitly.
				if first, last := ring[0], ring[len(ring)-1]; first != last {
					coords = append(coords, []float64{first.X, first.Y})
				}
				rings = append(rings, coords)
			}
			if len(rings) == 0 {
				continue
			}
			raw, err := json.Marshal(rings)
			if err != nil {
				return fmt.Errorf("vectorize: encoding polygon coordinates: %w", err)
			}
			fc.Features = append(fc.Features, geo.Feature{
				Type:     "Feature",
				Geometry: geo.Geometry{Type: "Polygon", Coordinates: raw},
			})
		}
	}
	enc := json.NewEncoder(w)
	if err := enc.Encode(&fc); err != nil {
		return fmt.Errorf("vectorize: encoding FeatureCollection: %w", err)
	}
	return nil
}

// WriteGeoJSONFile writes the runout region to path as GeoJSON.
func WriteGeoJSONFile(path string, p geom.Polygonal) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("vectorize: creating %s: %w", path, err)
	}
	if err := WriteGeoJSON(f, p); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("vectorize: closing %s: %w", path, err)
	}
	return nil
}
