// Package distributions provides fittable statistical models for
// parametric quantile mapping.
//
// Every model implements the same three operations: fit parameters to a
// sample, evaluate the cumulative distribution, and invert it. Continuous
// distributions, the empirical histogram, and composite models such as
// the precipitation hurdle model are interchangeable behind the Method
// interface.
package distributions

import (
	"fmt"
	"math"
)

// Parameters holds the fitted parameters of a Method, in the order the
// Method defines.
type Parameters []float64

// Method is a fittable statistical model: a distribution or composite
// model exposing fit, CDF, and inverse-CDF (ppf) operations.
type Method interface {
	// Fit estimates parameters from a sample.
	Fit(data []float64) (Parameters, error)
	// CDF evaluates the cumulative distribution with the given
	// parameters at every point of x, yielding values in [0, 1].
	CDF(x []float64, params Parameters) ([]float64, error)
	// PPF evaluates the quantile function (inverse CDF) with the given
	// parameters at every probability in p. Probabilities outside
	// [0, 1] are an error, not clamped.
	PPF(p []float64, params Parameters) ([]float64, error)
}

// checkProbabilities rejects quantile levels outside [0, 1].
func checkProbabilities(p []float64) error {
	for _, pi := range p {
		if pi < 0 || pi > 1 || math.IsNaN(pi) {
			return fmt.Errorf("probability %v outside [0, 1]", pi)
		}
	}
	return nil
}

// checkParams verifies the parameter count for a named model.
func checkParams(name string, params Parameters, want int) error {
	if len(params) != want {
		return fmt.Errorf("%s: got %d parameters, want %d", name, len(params), want)
	}
	return nil
}
