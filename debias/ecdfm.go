package debias

import (
	"fmt"
	"strings"

	"github.com/sartorproj/godebias/distributions"
)

// ECDFM is equidistant CDF matching (Li et al. 2010): quantile mapping
// that additionally accounts for the change between the historical and
// future model distributions,
//
//	debiased = cm_future + F_obs^-1(p) - F_cm_hist^-1(p),  p = F_cm_future(cm_future)
//
// so the simulated change at each quantile survives the correction.
type ECDFM struct {
	// Distribution is the statistical model fitted to each of the three
	// series.
	Distribution distributions.Method

	Variable string
}

// EquidistantCDFMatching is the method's full name.
type EquidistantCDFMatching = ECDFM

// NewECDFM returns a validated ECDFM debiaser.
func NewECDFM(dist distributions.Method) (*ECDFM, error) {
	if dist == nil {
		return nil, fmt.Errorf("%w: no distribution configured", ErrConfiguration)
	}
	return &ECDFM{Distribution: dist}, nil
}

// ECDFMFromVariable returns an ECDFM debiaser with the conventional
// distribution for the variable: a normal distribution for temperature
// variables and a gamma hurdle model for precipitation.
func ECDFMFromVariable(variable string) (*ECDFM, error) {
	e := &ECDFM{Variable: variable}
	switch strings.ToLower(variable) {
	case "tas", "temp", "temperature", "tasmin", "tasmax":
		e.Distribution = distributions.Normal{}
	case "pr", "precip", "precipitation", "rainfall":
		e.Distribution = distributions.NewGammaHurdle(true, nil)
	default:
		return nil, fmt.Errorf("no ECDFM defaults for variable %q, use NewECDFM with an explicit distribution", variable)
	}
	return e, nil
}

// ApplyLocation debiases the future model series of a single grid
// location. Time labels are accepted for interface compatibility but not
// used.
func (e *ECDFM) ApplyLocation(obsHist, cmHist, cmFuture []float64, _ *TimeInfo) ([]float64, error) {
	dist := e.Distribution
	if dist == nil {
		return nil, fmt.Errorf("%w: no distribution configured", ErrConfiguration)
	}

	fitObs, err := dist.Fit(obsHist)
	if err != nil {
		return nil, fmt.Errorf("fitting obs_hist: %w", err)
	}
	fitCmHist, err := dist.Fit(cmHist)
	if err != nil {
		return nil, fmt.Errorf("fitting cm_hist: %w", err)
	}
	fitCmFuture, err := dist.Fit(cmFuture)
	if err != nil {
		return nil, fmt.Errorf("fitting cm_future: %w", err)
	}

	p, err := dist.CDF(cmFuture, fitCmFuture)
	if err != nil {
		return nil, err
	}
	qObs, err := dist.PPF(p, fitObs)
	if err != nil {
		return nil, err
	}
	qCmHist, err := dist.PPF(p, fitCmHist)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(cmFuture))
	for i := range out {
		out[i] = cmFuture[i] + qObs[i] - qCmHist[i]
	}
	return out, nil
}
