package terrain

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SRTM HGT tile support. Tiles are square arrays of big-endian int16 samples,
// 3601x3601 for the 1 arc-second product or 1201x1201 for the 3 arc-second
// product, rows north to south. The tile origin is encoded in the filename
// (e.g. N47E011.hgt names the 1x1 degree tile with its south-west corner at
// 47N 11E).

const (
	// HGTSamples1ArcSec is the per-side sample count of a 1 arc-second tile.
	HGTSamples1ArcSec = 3601
	// HGTSamples3ArcSec is the per-side sample count of a 3 arc-second tile.
	HGTSamples3ArcSec = 1201

	// HGTVoid is the sentinel for voids in SRTM data.
	HGTVoid = -32768

	// HGTProj4 is the CRS of every SRTM tile.
	HGTProj4 = "+proj=longlat +datum=WGS84 +no_defs"
)

// parseHGTName extracts the south-west corner of a tile from its filename.
func parseHGTName(name string) (lat, lon float64, err error) {
	base := strings.ToUpper(strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	if len(base) != 7 {
		return 0, 0, fmt.Errorf("terrain: HGT filename %q does not match N00E000 form", name)
	}
	latDeg, err := strconv.Atoi(base[1:3])
	if err != nil {
		return 0, 0, fmt.Errorf("terrain: HGT filename %q: bad latitude: %w", name, err)
	}
	lonDeg, err := strconv.Atoi(base[4:7])
	if err != nil {
		return 0, 0, fmt.Errorf("terrain: HGT filename %q: bad longitude: %w", name, err)
	}
	switch base[0] {
	case 'N':
		lat = float64(latDeg)
	case 'S':
		lat = -float64(latDeg)
	default:
		return 0, 0, fmt.Errorf("terrain: HGT filename %q: latitude hemisphere must be N or S", name)
	}
	switch base[3] {
	case 'E':
		lon = float64(lonDeg)
	case 'W':
		lon = -float64(lonDeg)
	default:
		return 0, 0, fmt.Errorf("terrain: HGT filename %q: longitude hemisphere must be E or W", name)
	}
	return lat, lon, nil
}

// DecodeHGT builds a Grid from raw tile bytes. The tile origin comes from
// name; the sample count is inferred from the data length.
func DecodeHGT(data []byte, name string) (*Grid, error) {
	lat, lon, err := parseHGTName(name)
	if err != nil {
		return nil, err
	}

	var n int
	switch len(data) {
	case HGTSamples1ArcSec * HGTSamples1ArcSec * 2:
		n = HGTSamples1ArcSec
	case HGTSamples3ArcSec * HGTSamples3ArcSec * 2:
		n = HGTSamples3ArcSec
	default:
		return nil, fmt.Errorf("terrain: HGT tile %q has %d bytes, want %d or %d",
			name, len(data), HGTSamples1ArcSec*HGTSamples1ArcSec*2, HGTSamples3ArcSec*HGTSamples3ArcSec*2)
	}

	elev := make([]float64, n*n)
	for i := range elev {
		elev[i] = float64(int16(binary.BigEndian.Uint16(data[2*i:])))
	}

	// Samples sit on grid nodes; the first sample is the north-west node of
	// the tile. Shift by half a step so CellCenter lands on the node.
	step := 1.0 / float64(n-1)
	tr := GeoTransform{
		OriginX:     lon - step/2,
		PixelWidth:  step,
		OriginY:     lat + 1 + step/2,
		PixelHeight: -step,
	}
	return NewGrid(n, n, elev, HGTVoid, tr, HGTProj4)
}

// ReadHGTFile reads and decodes an SRTM tile from disk.
func ReadHGTFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: reading %s: %w", path, err)
	}
	g, err := DecodeHGT(data, path)
	if err != nil {
		return nil, err
	}
	return g, nil
}
