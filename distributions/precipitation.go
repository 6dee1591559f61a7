package distributions

import (
	"errors"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// Hurdle is a two-part precipitation model: a point mass at zero (dry
// days) and a continuous amounts distribution for wet days. Parameters
// are [p0, amounts parameters...] where p0 is the dry-day probability.
//
// With Randomize set, CDF values for dry days are drawn uniformly from
// (0, p0) instead of all collapsing onto p0, which avoids ties when the
// CDF values are quantile mapped. Rand supplies the random source; when
// nil the deterministic variant is used.
type Hurdle struct {
	Amounts   Method
	Randomize bool
	Rand      *rand.Rand
}

// NewGammaHurdle returns a hurdle model with gamma-distributed amounts,
// the standard precipitation model.
func NewGammaHurdle(randomize bool, src *rand.Rand) Hurdle {
	return Hurdle{Amounts: Gamma{}, Randomize: randomize, Rand: src}
}

// Fit estimates the dry-day probability as the fraction of values at or
// below zero and fits the amounts distribution to the wet-day values.
func (h Hurdle) Fit(data []float64) (Parameters, error) {
	if h.Amounts == nil {
		return nil, errors.New("hurdle: no amounts distribution configured")
	}
	if len(data) == 0 {
		return nil, errors.New("hurdle: empty sample")
	}
	var wet []float64
	for _, v := range data {
		if v > 0 {
			wet = append(wet, v)
		}
	}
	p0 := 1 - float64(len(wet))/float64(len(data))
	amountParams, err := h.Amounts.Fit(wet)
	if err != nil {
		return nil, err
	}
	return append(Parameters{p0}, amountParams...), nil
}

// CDF evaluates the hurdle CDF: p0 at zero and p0 + (1-p0)*F(x) above.
func (h Hurdle) CDF(x []float64, params Parameters) ([]float64, error) {
	if h.Amounts == nil {
		return nil, errors.New("hurdle: no amounts distribution configured")
	}
	if len(params) < 2 {
		return nil, errors.New("hurdle: malformed parameters")
	}
	p0 := params[0]
	amountCDF, err := h.Amounts.CDF(x, params[1:])
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i, v := range x {
		if v <= 0 {
			if h.Randomize && h.Rand != nil {
				out[i] = distuv.Uniform{Min: 0, Max: p0, Src: h.Rand}.Rand()
			} else {
				out[i] = p0
			}
			continue
		}
		out[i] = p0 + (1-p0)*amountCDF[i]
	}
	return out, nil
}

// PPF inverts the hurdle CDF: probabilities at or below p0 map to zero.
func (h Hurdle) PPF(p []float64, params Parameters) ([]float64, error) {
	if h.Amounts == nil {
		return nil, errors.New("hurdle: no amounts distribution configured")
	}
	if len(params) < 2 {
		return nil, errors.New("hurdle: malformed parameters")
	}
	if err := checkProbabilities(p); err != nil {
		return nil, err
	}
	p0 := params[0]
	out := make([]float64, len(p))
	rescaled := make([]float64, len(p))
	for i, pi := range p {
		if pi <= p0 {
			rescaled[i] = 0
			continue
		}
		rescaled[i] = (pi - p0) / (1 - p0)
	}
	amounts, err := h.Amounts.PPF(rescaled, params[1:])
	if err != nil {
		return nil, err
	}
	for i, pi := range p {
		if pi <= p0 {
			out[i] = 0
			continue
		}
		out[i] = amounts[i]
	}
	return out, nil
}
