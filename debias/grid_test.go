package debias

import (
	"math"
	"strings"
	"testing"

	"golang.org/x/exp/rand"
)

func cubeFromSeries(series map[[2]int][]float64, nt, nlat, nlon int) Cube {
	c := NewCube(nt, nlat, nlon)
	for cell, values := range series {
		for t, v := range values {
			c[t][cell[0]][cell[1]] = v
		}
	}
	return c
}

func TestCubeShapeAndAt(t *testing.T) {
	c := NewCube(3, 2, 4)
	nt, nlat, nlon := c.Shape()
	if nt != 3 || nlat != 2 || nlon != 4 {
		t.Errorf("Expected shape (3,2,4), got (%d,%d,%d)", nt, nlat, nlon)
	}

	c[0][1][2] = 7
	c[2][1][2] = 9
	got := c.At(1, 2)
	if got[0] != 7 || got[1] != 0 || got[2] != 9 {
		t.Errorf("Unexpected cell series: %v", got)
	}

	var empty Cube
	if nt, _, _ := empty.Shape(); nt != 0 {
		t.Error("Empty cube should have zero shape")
	}
}

func TestApplyGridMatchesPerLocation(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	nt, nlat, nlon := 100, 2, 3

	obsSeries := map[[2]int][]float64{}
	histSeries := map[[2]int][]float64{}
	futSeries := map[[2]int][]float64{}
	for lat := 0; lat < nlat; lat++ {
		for lon := 0; lon < nlon; lon++ {
			cell := [2]int{lat, lon}
			shift := float64(lat + lon)
			obsSeries[cell] = normalSample(rng, nt, 0, 1)
			histSeries[cell] = normalSample(rng, nt, 3+shift, 1)
			futSeries[cell] = normalSample(rng, nt, 3+shift, 1)
		}
	}
	obs := cubeFromSeries(obsSeries, nt, nlat, nlon)
	hist := cubeFromSeries(histSeries, nt, nlat, nlon)
	fut := cubeFromSeries(futSeries, nt, nlat, nlon)

	ls := &LinearScaling{Delta: DeltaAdditive}
	got, err := ApplyGrid(ls, obs, hist, fut, GridOptions{Workers: 4})
	if err != nil {
		t.Fatalf("ApplyGrid failed: %v", err)
	}

	for lat := 0; lat < nlat; lat++ {
		for lon := 0; lon < nlon; lon++ {
			cell := [2]int{lat, lon}
			expected, err := ls.ApplyLocation(obsSeries[cell], histSeries[cell], futSeries[cell], nil)
			if err != nil {
				t.Fatalf("ApplyLocation failed: %v", err)
			}
			for tt := 0; tt < nt; tt++ {
				if math.Abs(got[tt][lat][lon]-expected[tt]) > 1e-12 {
					t.Fatalf("Cell (%d,%d) differs from per-location result at %d", lat, lon, tt)
				}
			}
		}
	}
}

func TestApplyGridShapeMismatch(t *testing.T) {
	ls := &LinearScaling{Delta: DeltaAdditive}
	_, err := ApplyGrid(ls, NewCube(10, 2, 2), NewCube(10, 2, 2), NewCube(10, 3, 2), GridOptions{})
	if err == nil || !strings.Contains(err.Error(), "shapes differ") {
		t.Errorf("Expected a shape error, got %v", err)
	}
}

func TestApplyGridReportsFailingLocation(t *testing.T) {
	// A zero historical mean makes the multiplicative method fail at
	// every cell; the error must name a location.
	ls := &LinearScaling{Delta: DeltaMultiplicative}
	obs := NewCube(5, 1, 1)
	_, err := ApplyGrid(ls, obs, NewCube(5, 1, 1), NewCube(5, 1, 1), GridOptions{})
	if err == nil || !strings.Contains(err.Error(), "location (0,0)") {
		t.Errorf("Expected a located error, got %v", err)
	}
}

func TestApplyGridDefaultWorkers(t *testing.T) {
	ls := &LinearScaling{Delta: DeltaAdditive}
	rng := rand.New(rand.NewSource(33))
	obs := cubeFromSeries(map[[2]int][]float64{{0, 0}: normalSample(rng, 10, 0, 1)}, 10, 1, 1)
	hist := cubeFromSeries(map[[2]int][]float64{{0, 0}: normalSample(rng, 10, 1, 1)}, 10, 1, 1)
	fut := cubeFromSeries(map[[2]int][]float64{{0, 0}: normalSample(rng, 10, 1, 1)}, 10, 1, 1)

	if _, err := ApplyGrid(ls, obs, hist, fut, GridOptions{}); err != nil {
		t.Errorf("ApplyGrid with default workers failed: %v", err)
	}
}
