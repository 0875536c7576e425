// Package geo handles the GeoJSON trigger input, coordinate projection, and
// the trigger set handed to the runout evaluator.
package geo

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ctessum/geom"

	"github.com/alpine-data/runout.report/internal/monitoring"
)

// FeatureCollection is the top level of a GeoJSON document.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature with geometry and free-form properties.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	Geometry   Geometry               `json:"geometry"`
}

// Geometry defers coordinate decoding because the shape of the coordinates
// array depends on the geometry type.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// ReadFeatureCollection decodes a GeoJSON FeatureCollection.
func ReadFeatureCollection(r io.Reader) (*FeatureCollection, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("geo: decoding GeoJSON: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, fmt.Errorf("geo: expected FeatureCollection, got %q", fc.Type)
	}
	return &fc, nil
}

// ReadFeatureCollectionFile opens and decodes a GeoJSON file.
func ReadFeatureCollectionFile(path string) (*FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geo: opening %s: %w", path, err)
	}
	defer f.Close()
	fc, err := ReadFeatureCollection(f)
	if err != nil {
		return nil, fmt.Errorf("geo: %s: %w", path, err)
	}
	return fc, nil
}

// Points flattens the collection to a plain sequence of lon/lat points.
// Point features contribute one point; MultiPoint, LineString, and
// MultiLineString features (routes, tracks) contribute each of their
// constituent points. Order is irrelevant downstream because the runout mask
// is union-accumulated. Unsupported geometry types are skipped with a log
// message rather than aborting the whole input.
func (fc *FeatureCollection) Points() ([]geom.Point, error) {
	var pts []geom.Point
	for i, f := range fc.Features {
		switch f.Geometry.Type {
		case "Point":
			var c []float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &c); err != nil {
				return nil, fmt.Errorf("geo: feature %d: decoding Point coordinates: %w", i, err)
			}
			if len(c) < 2 {
				return nil, fmt.Errorf("geo: feature %d: Point has %d coordinates", i, len(c))
			}
			pts = append(pts, geom.Point{X: c[0], Y: c[1]})
		case "MultiPoint", "LineString":
			var cs [][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &cs); err != nil {
				return nil, fmt.Errorf("geo: feature %d: decoding %s coordinates: %w", i, f.Geometry.Type, err)
			}
			for j, c := range cs {
				if len(c) < 2 {
					return nil, fmt.Errorf("geo: feature %d: %s vertex %d has %d coordinates", i, f.Geometry.Type, j, len(c))
				}
				pts = append(pts, geom.Point{X: c[0], Y: c[1]})
			}
		case "MultiLineString":
			var css [][][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &css); err != nil {
				return nil, fmt.Errorf("geo: feature %d: decoding MultiLineString coordinates: %w", i, err)
			}
			for _, cs := range css {
				for j, c := range cs {
					if len(c) < 2 {
						return nil, fmt.Errorf("geo: feature %d: MultiLineString vertex %d has %d coordinates", i, j, len(c))
					}
					pts = append(pts, geom.Point{X: c[0], Y: c[1]})
				}
			}
		default:
			monitoring.Logf("geo: skipping feature %d with unsupported geometry type %q", i, f.Geometry.Type)
		}
	}
	return pts, nil
}
