package terrain

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ESRI ASCII grid support. The format carries no CRS of its own, so the
// caller supplies the proj4 definition alongside the file.

// ReadASC parses an ESRI ASCII grid. Header keywords are case-insensitive;
// xllcorner/yllcorner and xllcenter/yllcenter anchoring are both accepted.
func ReadASC(r io.Reader, proj4 string) (*Grid, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	sc.Split(bufio.ScanWords)

	next := func() (string, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return "", err
			}
			return "", io.ErrUnexpectedEOF
		}
		return sc.Text(), nil
	}

	var (
		ncols, nrows   int
		xll, yll, cell float64
		nodata         = math.NaN()
		centerAnchored bool
		haveCols       bool
		haveRows       bool
		haveCell       bool
	)

	// Header: keyword/value pairs until the first bare number.
	var firstValue string
	for {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("terrain: reading ASC header: %w", err)
		}
		if _, err := strconv.ParseFloat(tok, 64); err == nil {
			firstValue = tok
			break
		}
		val, err := next()
		if err != nil {
			return nil, fmt.Errorf("terrain: reading ASC header value for %q: %w", tok, err)
		}
		switch strings.ToLower(tok) {
		case "ncols":
			ncols, err = strconv.Atoi(val)
			haveCols = true
		case "nrows":
			nrows, err = strconv.Atoi(val)
			haveRows = true
		case "xllcorner":
			xll, err = strconv.ParseFloat(val, 64)
		case "yllcorner":
			yll, err = strconv.ParseFloat(val, 64)
		case "xllcenter":
			xll, err = strconv.ParseFloat(val, 64)
			centerAnchored = true
		case "yllcenter":
			yll, err = strconv.ParseFloat(val, 64)
			centerAnchored = true
		case "cellsize":
			cell, err = strconv.ParseFloat(val, 64)
			haveCell = true
		case "nodata_value":
			nodata, err = strconv.ParseFloat(val, 64)
		default:
			return nil, fmt.Errorf("terrain: unknown ASC header keyword %q", tok)
		}
		if err != nil {
			return nil, fmt.Errorf("terrain: parsing ASC header %q=%q: %w", tok, val, err)
		}
	}
	if !haveCols || !haveRows || !haveCell {
		return nil, fmt.Errorf("terrain: ASC header missing ncols, nrows, or cellsize")
	}
	if ncols <= 0 || nrows <= 0 || cell <= 0 {
		return nil, fmt.Errorf("terrain: invalid ASC header ncols=%d nrows=%d cellsize=%g", ncols, nrows, cell)
	}
	if centerAnchored {
		xll -= cell / 2
		yll -= cell / 2
	}

	elev := make([]float64, ncols*nrows)
	v, err := strconv.ParseFloat(firstValue, 64)
	if err != nil {
		return nil, fmt.Errorf("terrain: parsing ASC sample %q: %w", firstValue, err)
	}
	elev[0] = v
	for i := 1; i < len(elev); i++ {
		tok, err := next()
		if err != nil {
			return nil, fmt.Errorf("terrain: ASC data ended after %d of %d samples: %w", i, len(elev), err)
		}
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return nil, fmt.Errorf("terrain: parsing ASC sample %q: %w", tok, err)
		}
		elev[i] = v
	}

	tr := GeoTransform{
		OriginX:     xll,
		PixelWidth:  cell,
		OriginY:     yll + float64(nrows)*cell,
		PixelHeight: -cell,
	}
	return NewGrid(ncols, nrows, elev, nodata, tr, proj4)
}

// ReadASCFile opens and parses an ESRI ASCII grid file.
func ReadASCFile(path, proj4 string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("terrain: opening %s: %w", path, err)
	}
	defer f.Close()
	g, err := ReadASC(f, proj4)
	if err != nil {
		return nil, fmt.Errorf("terrain: %s: %w", path, err)
	}
	return g, nil
}

// WriteASC writes grid values in ESRI ASCII format. Only unrotated grids with
// square cells can be represented; anything else is rejected.
func WriteASC(w io.Writer, g *Grid) error {
	tr := g.Transform
	if tr.RowRotation != 0 || tr.ColRotation != 0 {
		return fmt.Errorf("terrain: cannot write rotated grid as ASC")
	}
	if tr.PixelHeight >= 0 || tr.PixelWidth <= 0 || tr.PixelWidth != -tr.PixelHeight {
		return fmt.Errorf("terrain: ASC requires square north-up cells, got %g x %g", tr.PixelWidth, tr.PixelHeight)
	}
	cell := tr.PixelWidth
	yll := tr.OriginY + float64(g.Height)*tr.PixelHeight

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "ncols %d\n", g.Width)
	fmt.Fprintf(bw, "nrows %d\n", g.Height)
	fmt.Fprintf(bw, "xllcorner %g\n", tr.OriginX)
	fmt.Fprintf(bw, "yllcorner %g\n", yll)
	fmt.Fprintf(bw, "cellsize %g\n", cell)
	fmt.Fprintf(bw, "NODATA_value %g\n", g.NoData)
	for row := 0; row < g.Height; row++ {
		for col := 0; col < g.Width; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := g.Elev[row*g.Width+col]
			if math.IsNaN(v) {
				v = g.NoData
			}
			fmt.Fprintf(bw, "%g", v)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteASCFile writes a grid to path in ESRI ASCII format.
func WriteASCFile(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("terrain: creating %s: %w", path, err)
	}
	if err := WriteASC(f, g); err != nil {
		f.Close()
		return fmt.Errorf("terrain: writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("terrain: closing %s: %w", path, err)
	}
	return nil
}
