package stats

import "gonum.org/v1/gonum/interp"

// InterpSortedCDFVals resamples a sorted sequence of CDF values onto a new
// length by position-proportional linear interpolation. This aligns CDF
// values of reference series with a target series of different sample
// count, following Switanek et al. (2017).
func InterpSortedCDFVals(vals []float64, length int) []float64 {
	if len(vals) == 0 || length <= 0 {
		return nil
	}
	out := make([]float64, length)
	if len(vals) == 1 {
		for i := range out {
			out[i] = vals[0]
		}
		return out
	}
	if length == 1 {
		out[0] = vals[0]
		return out
	}

	xs := make([]float64, len(vals))
	for i := range xs {
		xs[i] = float64(i) / float64(len(vals)-1)
	}
	var pl interp.PiecewiseLinear
	if err := pl.Fit(xs, vals); err != nil {
		// xs is strictly increasing by construction; Fit cannot fail.
		panic(err)
	}
	for i := range out {
		out[i] = pl.Predict(float64(i) / float64(length-1))
	}
	return out
}
