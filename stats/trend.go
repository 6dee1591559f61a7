package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// TrendResult holds an OLS linear trend fitted to a sequence of yearly
// means against their year index.
type TrendResult struct {
	Slope     float64
	Intercept float64
	PValue    float64 // two-sided p-value for slope != 0
	NYears    int
}

// FitLinearTrend regresses y against its index 0..len(y)-1 by ordinary
// least squares and tests the slope for significance with a two-sided
// t-test. With fewer than three points the slope cannot be tested and the
// p-value is reported as 1.
func FitLinearTrend(y []float64) *TrendResult {
	n := len(y)
	if n < 2 {
		return &TrendResult{PValue: 1, NYears: n}
	}

	xs := make([]float64, n)
	for i := range xs {
		xs[i] = float64(i)
	}
	intercept, slope := stat.LinearRegression(xs, y, nil, false)

	res := &TrendResult{Slope: slope, Intercept: intercept, PValue: 1, NYears: n}
	if n < 3 {
		return res
	}

	sse := 0.0
	for i := range xs {
		r := y[i] - intercept - slope*xs[i]
		sse += r * r
	}
	xMean := stat.Mean(xs, nil)
	sxx := 0.0
	for _, x := range xs {
		d := x - xMean
		sxx += d * d
	}
	s2 := sse / float64(n-2)
	se := math.Sqrt(s2 / sxx)
	if se == 0 {
		// A perfect fit: the slope is exact.
		if slope != 0 {
			res.PValue = 0
		}
		return res
	}

	t := slope / se
	tDist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	res.PValue = 2 * (1 - tDist.CDF(math.Abs(t)))
	return res
}

// SampleTrend expands an annual trend to per-sample resolution:
// slope * (yearIdx - mean(yearIdx)) for each sample's year index.
func SampleTrend(slope float64, sampleYearIdx []int, nYears int) []float64 {
	mean := float64(nYears-1) / 2
	trend := make([]float64, len(sampleYearIdx))
	for i, j := range sampleYearIdx {
		trend[i] = slope * (float64(j) - mean)
	}
	return trend
}
