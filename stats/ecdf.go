package stats

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ECDFMethod selects the estimator for the empirical CDF.
type ECDFMethod string

// Supported empirical CDF estimators.
const (
	ECDFKernelDensity       ECDFMethod = "kernel_density"
	ECDFLinearInterpolation ECDFMethod = "linear_interpolation"
	ECDFStepFunction        ECDFMethod = "step_function"
)

// Valid reports whether m is a recognized ECDF estimator.
func (m ECDFMethod) Valid() bool {
	switch m {
	case ECDFKernelDensity, ECDFLinearInterpolation, ECDFStepFunction:
		return true
	}
	return false
}

// IECDFMethod selects the estimator for the inverse empirical CDF
// (the sample quantile function). The names follow the classical
// Hyndman & Fan taxonomy of sample-quantile types 1-9.
type IECDFMethod string

// Supported inverse ECDF estimators.
const (
	IECDFInvertedCDF             IECDFMethod = "inverted_cdf"
	IECDFAveragedInvertedCDF     IECDFMethod = "averaged_inverted_cdf"
	IECDFClosestObservation      IECDFMethod = "closest_observation"
	IECDFInterpolatedInvertedCDF IECDFMethod = "interpolated_inverted_cdf"
	IECDFHazen                   IECDFMethod = "hazen"
	IECDFWeibull                 IECDFMethod = "weibull"
	IECDFLinear                  IECDFMethod = "linear"
	IECDFMedianUnbiased          IECDFMethod = "median_unbiased"
	IECDFNormalUnbiased          IECDFMethod = "normal_unbiased"
)

// Valid reports whether m is a recognized inverse ECDF estimator.
func (m IECDFMethod) Valid() bool {
	switch m {
	case IECDFInvertedCDF, IECDFAveragedInvertedCDF, IECDFClosestObservation,
		IECDFInterpolatedInvertedCDF, IECDFHazen, IECDFWeibull, IECDFLinear,
		IECDFMedianUnbiased, IECDFNormalUnbiased:
		return true
	}
	return false
}

// ECDF evaluates the empirical CDF of the sample x at every point of q
// using the selected estimator.
func ECDF(x, q []float64, method ECDFMethod) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("ecdf: empty sample")
	}
	switch method {
	case ECDFStepFunction:
		return ecdfStep(x, q), nil
	case ECDFLinearInterpolation:
		return ecdfLinear(x, q), nil
	case ECDFKernelDensity:
		return ecdfKDE(x, q), nil
	}
	return nil, fmt.Errorf("ecdf: unknown method %q", method)
}

func ecdfStep(x, q []float64) []float64 {
	xs := SortedCopy(x)
	n := float64(len(xs))
	out := make([]float64, len(q))
	for i, v := range q {
		// Number of sample values <= v.
		out[i] = float64(sort.SearchFloat64s(xs, math.Nextafter(v, math.Inf(1)))) / n
	}
	return out
}

func ecdfLinear(x, q []float64) []float64 {
	xs := SortedCopy(x)
	n := len(xs)
	out := make([]float64, len(q))
	if n == 1 {
		for i, v := range q {
			if v < xs[0] {
				out[i] = 0
			} else {
				out[i] = 1
			}
		}
		return out
	}
	for i, v := range q {
		switch {
		case v <= xs[0]:
			out[i] = 0
		case v >= xs[n-1]:
			out[i] = 1
		default:
			j := sort.SearchFloat64s(xs, v)
			if xs[j] == v {
				out[i] = float64(j) / float64(n-1)
				continue
			}
			// Interpolate between the bracketing order statistics.
			x0, x1 := xs[j-1], xs[j]
			p0 := float64(j-1) / float64(n-1)
			p1 := float64(j) / float64(n-1)
			out[i] = p0 + (p1-p0)*(v-x0)/(x1-x0)
		}
	}
	return out
}

// ecdfKDE estimates the CDF as the mean of normal kernel CDFs centered at
// the sample points, with Scott's rule bandwidth.
func ecdfKDE(x, q []float64) []float64 {
	n := len(x)
	sigma := math.Sqrt(stat.Variance(x, nil))
	h := sigma * math.Pow(float64(n), -1.0/5.0)
	if h <= 0 || math.IsNaN(h) {
		// Degenerate sample: fall back to the step estimator.
		return ecdfStep(x, q)
	}
	out := make([]float64, len(q))
	for i, v := range q {
		sum := 0.0
		for _, xi := range x {
			sum += distuv.Normal{Mu: xi, Sigma: h}.CDF(v)
		}
		out[i] = sum / float64(n)
	}
	return out
}

// IECDF evaluates the inverse empirical CDF (sample quantile function) of
// x at every probability in p. Probabilities outside [0, 1] are an error.
func IECDF(x, p []float64, method IECDFMethod) ([]float64, error) {
	if len(x) == 0 {
		return nil, fmt.Errorf("iecdf: empty sample")
	}
	if !method.Valid() {
		return nil, fmt.Errorf("iecdf: unknown method %q", method)
	}
	for _, pi := range p {
		if pi < 0 || pi > 1 || math.IsNaN(pi) {
			return nil, fmt.Errorf("iecdf: probability %v outside [0, 1]", pi)
		}
	}
	xs := SortedCopy(x)
	out := make([]float64, len(p))
	for i, pi := range p {
		out[i] = quantileSorted(xs, pi, method)
	}
	return out, nil
}

// quantileSorted computes a single sample quantile from a sorted sample.
func quantileSorted(xs []float64, p float64, method IECDFMethod) float64 {
	n := len(xs)
	nf := float64(n)

	switch method {
	case IECDFInvertedCDF:
		idx := int(math.Ceil(nf * p))
		return xs[clampIndex(idx, n)-1]
	case IECDFAveragedInvertedCDF:
		h := nf * p
		if h == math.Floor(h) {
			j := int(h)
			if j >= 1 && j < n {
				return (xs[j-1] + xs[j]) / 2
			}
		}
		return xs[clampIndex(int(math.Ceil(h)), n)-1]
	case IECDFClosestObservation:
		idx := int(math.RoundToEven(nf * p))
		return xs[clampIndex(idx, n)-1]
	}

	// Continuous estimators: position h on the 1-based sorted sample.
	var h float64
	switch method {
	case IECDFInterpolatedInvertedCDF:
		h = nf * p
	case IECDFHazen:
		h = nf*p + 0.5
	case IECDFWeibull:
		h = (nf + 1) * p
	case IECDFLinear:
		h = (nf-1)*p + 1
	case IECDFMedianUnbiased:
		h = (nf+1.0/3.0)*p + 1.0/3.0
	case IECDFNormalUnbiased:
		h = (nf+0.25)*p + 0.375
	}

	if h <= 1 {
		return xs[0]
	}
	if h >= nf {
		return xs[n-1]
	}
	fl := math.Floor(h)
	j := int(fl)
	return xs[j-1] + (h-fl)*(xs[j]-xs[j-1])
}

func clampIndex(idx, n int) int {
	if idx < 1 {
		return 1
	}
	if idx > n {
		return n
	}
	return idx
}
