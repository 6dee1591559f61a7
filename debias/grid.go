package debias

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Debiaser is the per-location contract shared by all methods in this
// package.
type Debiaser interface {
	// ApplyLocation debiases the future model series of one grid
	// location. The time labels may be nil for methods that do not use
	// them.
	ApplyLocation(obsHist, cmHist, cmFuture []float64, times *TimeInfo) ([]float64, error)
}

// Cube is a gridded daily dataset indexed [time][lat][lon]. All time
// slices must share the same spatial shape.
type Cube [][][]float64

// Shape returns the (time, lat, lon) dimensions of the cube.
func (c Cube) Shape() (nt, nlat, nlon int) {
	nt = len(c)
	if nt == 0 {
		return 0, 0, 0
	}
	nlat = len(c[0])
	if nlat == 0 {
		return nt, 0, 0
	}
	return nt, nlat, len(c[0][0])
}

// At extracts the time series of a single grid cell.
func (c Cube) At(lat, lon int) []float64 {
	out := make([]float64, len(c))
	for t := range c {
		out[t] = c[t][lat][lon]
	}
	return out
}

// NewCube allocates a zero-filled cube of the given shape.
func NewCube(nt, nlat, nlon int) Cube {
	c := make(Cube, nt)
	for t := range c {
		c[t] = make([][]float64, nlat)
		for i := range c[t] {
			c[t][i] = make([]float64, nlon)
		}
	}
	return c
}

// GridOptions controls ApplyGrid.
type GridOptions struct {
	// Times carries the per-sample time labels shared by all grid cells.
	// May be nil for methods that do not use them.
	Times *TimeInfo

	// Workers caps the number of concurrently processed grid cells.
	// Zero or negative means GOMAXPROCS.
	Workers int
}

// ApplyGrid debiases every grid cell of the future cube independently,
// processing cells concurrently. The three cubes must share the same
// spatial shape; the result has the shape of cmFuture.
func ApplyGrid(d Debiaser, obsHist, cmHist, cmFuture Cube, opts GridOptions) (Cube, error) {
	_, nlatObs, nlonObs := obsHist.Shape()
	_, nlatHist, nlonHist := cmHist.Shape()
	ntFut, nlat, nlon := cmFuture.Shape()
	if nlatObs != nlat || nlonObs != nlon || nlatHist != nlat || nlonHist != nlon {
		return nil, fmt.Errorf("grid shapes differ: obs %dx%d, hist %dx%d, future %dx%d",
			nlatObs, nlonObs, nlatHist, nlonHist, nlat, nlon)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	out := NewCube(ntFut, nlat, nlon)
	var g errgroup.Group
	g.SetLimit(workers)
	for lat := 0; lat < nlat; lat++ {
		for lon := 0; lon < nlon; lon++ {
			lat, lon := lat, lon
			g.Go(func() error {
				debiased, err := d.ApplyLocation(
					obsHist.At(lat, lon),
					cmHist.At(lat, lon),
					cmFuture.At(lat, lon),
					opts.Times,
				)
				if err != nil {
					return fmt.Errorf("location (%d,%d): %w", lat, lon, err)
				}
				// Each cell writes a disjoint (lat,lon) column.
				for t, v := range debiased {
					out[t][lat][lon] = v
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
