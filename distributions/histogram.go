package distributions

import (
	"errors"
	"math"
	"sort"
)

// Histogram is an empirical distribution backed by a histogram with a
// piecewise-linear CDF, analogous to a frozen histogram distribution.
// Bins sets the bin count; zero selects the square-root rule.
type Histogram struct {
	Bins int
}

// Fit bins the sample and returns parameters laid out as
// [nEdges, edges..., cumulative probabilities at the right edge of each bin...].
func (h Histogram) Fit(data []float64) (Parameters, error) {
	if len(data) < 2 {
		return nil, errors.New("histogram: need at least 2 samples")
	}
	bins := h.Bins
	if bins <= 0 {
		bins = int(math.Ceil(math.Sqrt(float64(len(data)))))
	}

	xs := make([]float64, len(data))
	copy(xs, data)
	sort.Float64s(xs)
	lo, hi := xs[0], xs[len(xs)-1]
	if lo == hi {
		return nil, errors.New("histogram: sample has zero range")
	}

	nEdges := bins + 1
	params := make(Parameters, 1+nEdges+bins)
	params[0] = float64(nEdges)
	width := (hi - lo) / float64(bins)
	for i := 0; i < nEdges; i++ {
		params[1+i] = lo + float64(i)*width
	}

	counts := make([]float64, bins)
	for _, v := range xs {
		j := int((v - lo) / width)
		if j >= bins {
			j = bins - 1
		}
		counts[j]++
	}
	cum := 0.0
	for j, c := range counts {
		cum += c / float64(len(xs))
		params[1+nEdges+j] = cum
	}
	// Guard against accumulated floating point error at the top bin.
	params[len(params)-1] = 1
	return params, nil
}

func (Histogram) unpack(params Parameters) (edges, cum []float64, err error) {
	if len(params) < 4 {
		return nil, nil, errors.New("histogram: malformed parameters")
	}
	nEdges := int(params[0])
	if nEdges < 2 || len(params) != 1+nEdges+(nEdges-1) {
		return nil, nil, errors.New("histogram: malformed parameters")
	}
	return params[1 : 1+nEdges], params[1+nEdges:], nil
}

// CDF evaluates the piecewise-linear empirical CDF.
func (h Histogram) CDF(x []float64, params Parameters) ([]float64, error) {
	edges, cum, err := h.unpack(params)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = histCDF(v, edges, cum)
	}
	return out, nil
}

// PPF inverts the piecewise-linear empirical CDF.
func (h Histogram) PPF(p []float64, params Parameters) ([]float64, error) {
	edges, cum, err := h.unpack(params)
	if err != nil {
		return nil, err
	}
	if err := checkProbabilities(p); err != nil {
		return nil, err
	}
	out := make([]float64, len(p))
	for i, pi := range p {
		out[i] = histPPF(pi, edges, cum)
	}
	return out, nil
}

func histCDF(v float64, edges, cum []float64) float64 {
	n := len(edges)
	if v <= edges[0] {
		return 0
	}
	if v >= edges[n-1] {
		return 1
	}
	j := sort.SearchFloat64s(edges, v) - 1
	if j < 0 {
		j = 0
	}
	left := 0.0
	if j > 0 {
		left = cum[j-1]
	}
	frac := (v - edges[j]) / (edges[j+1] - edges[j])
	return left + (cum[j]-left)*frac
}

func histPPF(p float64, edges, cum []float64) float64 {
	if p <= 0 {
		return edges[0]
	}
	if p >= 1 {
		return edges[len(edges)-1]
	}
	j := sort.SearchFloat64s(cum, p)
	left := 0.0
	if j > 0 {
		left = cum[j-1]
	}
	if cum[j] == left {
		// Empty bin: any point maps to its left edge.
		return edges[j]
	}
	frac := (p - left) / (cum[j] - left)
	return edges[j] + frac*(edges[j+1]-edges[j])
}
