package distributions

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Normal is the normal distribution with parameters [mu, sigma].
type Normal struct{}

// Fit estimates mu and sigma by maximum likelihood.
func (Normal) Fit(data []float64) (Parameters, error) {
	if len(data) < 2 {
		return nil, errors.New("normal: need at least 2 samples")
	}
	mu := stat.Mean(data, nil)
	sigma := math.Sqrt(stat.Variance(data, nil))
	if sigma == 0 {
		return nil, errors.New("normal: sample has zero variance")
	}
	return Parameters{mu, sigma}, nil
}

// CDF evaluates the normal CDF.
func (Normal) CDF(x []float64, params Parameters) ([]float64, error) {
	if err := checkParams("normal", params, 2); err != nil {
		return nil, err
	}
	d := distuv.Normal{Mu: params[0], Sigma: params[1]}
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = d.CDF(v)
	}
	return out, nil
}

// PPF evaluates the normal quantile function.
func (Normal) PPF(p []float64, params Parameters) ([]float64, error) {
	if err := checkParams("normal", params, 2); err != nil {
		return nil, err
	}
	if err := checkProbabilities(p); err != nil {
		return nil, err
	}
	d := distuv.Normal{Mu: params[0], Sigma: params[1]}
	out := make([]float64, len(p))
	for i, pi := range p {
		out[i] = d.Quantile(clampOpen(pi))
	}
	return out, nil
}

// Gamma is the gamma distribution with parameters [alpha, rate] and
// location fixed at zero. All sample values must be positive.
type Gamma struct{}

// Fit estimates alpha via the closed-form approximation of Minka (2002)
// and the rate from the sample mean. No iterative optimization is used.
func (Gamma) Fit(data []float64) (Parameters, error) {
	if len(data) < 2 {
		return nil, errors.New("gamma: need at least 2 samples")
	}
	sum, sumLog := 0.0, 0.0
	for _, v := range data {
		if v <= 0 {
			return nil, errors.New("gamma: sample values must be positive")
		}
		sum += v
		sumLog += math.Log(v)
	}
	n := float64(len(data))
	mean := sum / n
	s := math.Log(mean) - sumLog/n
	if s <= 0 {
		return nil, errors.New("gamma: degenerate sample")
	}
	alpha := (3 - s + math.Sqrt((s-3)*(s-3)+24*s)) / (12 * s)
	rate := alpha / mean
	return Parameters{alpha, rate}, nil
}

// CDF evaluates the gamma CDF.
func (Gamma) CDF(x []float64, params Parameters) ([]float64, error) {
	if err := checkParams("gamma", params, 2); err != nil {
		return nil, err
	}
	d := distuv.Gamma{Alpha: params[0], Beta: params[1]}
	out := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 {
			out[i] = 0
			continue
		}
		out[i] = d.CDF(v)
	}
	return out, nil
}

// PPF evaluates the gamma quantile function.
func (Gamma) PPF(p []float64, params Parameters) ([]float64, error) {
	if err := checkParams("gamma", params, 2); err != nil {
		return nil, err
	}
	if err := checkProbabilities(p); err != nil {
		return nil, err
	}
	d := distuv.Gamma{Alpha: params[0], Beta: params[1]}
	out := make([]float64, len(p))
	for i, pi := range p {
		out[i] = d.Quantile(clampOpen(pi))
	}
	return out, nil
}

// Beta is the four-parameter beta distribution with parameters
// [alpha, beta, loc, scale], supported on [loc, loc+scale].
type Beta struct{}

// betaMargin widens the fitted support slightly beyond the sample range so
// the extreme order statistics do not sit on the support boundary.
const betaMargin = 1e-4

// Fit places the support just outside the sample range and moment-matches
// alpha and beta on the rescaled sample.
func (Beta) Fit(data []float64) (Parameters, error) {
	if len(data) < 2 {
		return nil, errors.New("beta: need at least 2 samples")
	}
	lo, hi := data[0], data[0]
	for _, v := range data[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	span := hi - lo
	if span == 0 {
		return nil, errors.New("beta: sample has zero range")
	}
	loc := lo - betaMargin*span
	scale := span * (1 + 2*betaMargin)

	u := make([]float64, len(data))
	for i, v := range data {
		u[i] = (v - loc) / scale
	}
	m := stat.Mean(u, nil)
	v := stat.Variance(u, nil)
	common := m*(1-m)/v - 1
	if v <= 0 || common <= 0 {
		return nil, errors.New("beta: moments incompatible with a beta distribution")
	}
	return Parameters{m * common, (1 - m) * common, loc, scale}, nil
}

// CDF evaluates the four-parameter beta CDF.
func (Beta) CDF(x []float64, params Parameters) ([]float64, error) {
	if err := checkParams("beta", params, 4); err != nil {
		return nil, err
	}
	d := distuv.Beta{Alpha: params[0], Beta: params[1]}
	loc, scale := params[2], params[3]
	out := make([]float64, len(x))
	for i, v := range x {
		u := (v - loc) / scale
		switch {
		case u <= 0:
			out[i] = 0
		case u >= 1:
			out[i] = 1
		default:
			out[i] = d.CDF(u)
		}
	}
	return out, nil
}

// PPF evaluates the four-parameter beta quantile function.
func (Beta) PPF(p []float64, params Parameters) ([]float64, error) {
	if err := checkParams("beta", params, 4); err != nil {
		return nil, err
	}
	if err := checkProbabilities(p); err != nil {
		return nil, err
	}
	d := distuv.Beta{Alpha: params[0], Beta: params[1]}
	loc, scale := params[2], params[3]
	out := make([]float64, len(p))
	for i, pi := range p {
		out[i] = loc + scale*d.Quantile(clampOpen(pi))
	}
	return out, nil
}

// Weibull is the two-parameter Weibull distribution with parameters
// [k, lambda]. All sample values must be positive.
type Weibull struct{}

// Fit matches the first two moments: the shape k is found by bisection on
// the coefficient of variation and the scale from the mean.
func (Weibull) Fit(data []float64) (Parameters, error) {
	if len(data) < 2 {
		return nil, errors.New("weibull: need at least 2 samples")
	}
	for _, v := range data {
		if v <= 0 {
			return nil, errors.New("weibull: sample values must be positive")
		}
	}
	mean := stat.Mean(data, nil)
	sd := math.Sqrt(stat.Variance(data, nil))
	if sd == 0 {
		return nil, errors.New("weibull: sample has zero variance")
	}
	cv2 := (sd / mean) * (sd / mean)

	// cvSquared is decreasing in k; bisect on [0.05, 50].
	f := func(k float64) float64 {
		g1 := math.Gamma(1 + 1/k)
		g2 := math.Gamma(1 + 2/k)
		return g2/(g1*g1) - 1 - cv2
	}
	lo, hi := 0.05, 50.0
	if f(lo) < 0 || f(hi) > 0 {
		return nil, errors.New("weibull: sample moments out of fittable range")
	}
	for i := 0; i < 100; i++ {
		mid := (lo + hi) / 2
		if f(mid) > 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	k := (lo + hi) / 2
	lambda := mean / math.Gamma(1+1/k)
	return Parameters{k, lambda}, nil
}

// CDF evaluates the Weibull CDF.
func (Weibull) CDF(x []float64, params Parameters) ([]float64, error) {
	if err := checkParams("weibull", params, 2); err != nil {
		return nil, err
	}
	d := distuv.Weibull{K: params[0], Lambda: params[1]}
	out := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 {
			out[i] = 0
			continue
		}
		out[i] = d.CDF(v)
	}
	return out, nil
}

// PPF evaluates the Weibull quantile function.
func (Weibull) PPF(p []float64, params Parameters) ([]float64, error) {
	if err := checkParams("weibull", params, 2); err != nil {
		return nil, err
	}
	if err := checkProbabilities(p); err != nil {
		return nil, err
	}
	d := distuv.Weibull{K: params[0], Lambda: params[1]}
	out := make([]float64, len(p))
	for i, pi := range p {
		out[i] = d.Quantile(clampOpen(pi))
	}
	return out, nil
}

// clampOpen keeps probabilities strictly inside (0, 1) so quantile
// functions stay finite at the endpoints.
func clampOpen(p float64) float64 {
	const eps = 1e-10
	if p < eps {
		return eps
	}
	if p > 1-eps {
		return 1 - eps
	}
	return p
}
