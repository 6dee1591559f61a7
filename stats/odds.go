package stats

import "math"

// cdfThreshold keeps CDF values away from exactly 0 and 1 so that inverse
// CDFs and log-odds stay finite.
const cdfThreshold = 1e-10

// Logit converts a probability to log-odds.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Expit converts log-odds back to a probability.
func Expit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// ThresholdCDFVals clamps CDF values into [eps, 1-eps].
func ThresholdCDFVals(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = math.Min(math.Max(v, cdfThreshold), 1-cdfThreshold)
	}
	return out
}
