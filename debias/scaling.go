package debias

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// DeltaType selects how the observed-minus-simulated bias is applied.
type DeltaType string

// Supported delta types.
const (
	DeltaAdditive       DeltaType = "additive"
	DeltaMultiplicative DeltaType = "multiplicative"
)

// LinearScaling corrects the future model series by the mean bias between
// historical observations and historical model output, either as an
// additive shift or as a multiplicative factor. It is the simplest method
// in the package and mainly useful as a baseline.
type LinearScaling struct {
	Delta    DeltaType
	Variable string
}

// NewLinearScaling returns a validated linear-scaling debiaser.
func NewLinearScaling(delta DeltaType) (*LinearScaling, error) {
	switch delta {
	case DeltaAdditive, DeltaMultiplicative:
		return &LinearScaling{Delta: delta}, nil
	}
	return nil, fmt.Errorf("%w: delta type %q, needs to be one of [%s %s]",
		ErrConfiguration, delta, DeltaAdditive, DeltaMultiplicative)
}

// LinearScalingFromVariable returns a linear-scaling debiaser with the
// conventional delta type for the variable: multiplicative for
// precipitation, additive otherwise.
func LinearScalingFromVariable(variable string) (*LinearScaling, error) {
	ls := &LinearScaling{Delta: DeltaAdditive, Variable: variable}
	switch strings.ToLower(variable) {
	case "pr", "precip", "precipitation", "rainfall":
		ls.Delta = DeltaMultiplicative
	}
	return ls, nil
}

// ApplyLocation debiases the future model series of a single grid
// location. Time labels are accepted for interface compatibility but not
// used.
func (ls *LinearScaling) ApplyLocation(obsHist, cmHist, cmFuture []float64, _ *TimeInfo) ([]float64, error) {
	if len(obsHist) == 0 || len(cmHist) == 0 {
		return nil, fmt.Errorf("linear scaling: empty reference series")
	}
	obsMean := stat.Mean(obsHist, nil)
	cmMean := stat.Mean(cmHist, nil)

	out := make([]float64, len(cmFuture))
	copy(out, cmFuture)
	switch ls.Delta {
	case DeltaMultiplicative:
		if cmMean == 0 {
			return nil, fmt.Errorf("linear scaling: historical model mean is zero")
		}
		floats.Scale(obsMean/cmMean, out)
	default:
		floats.AddConst(obsMean-cmMean, out)
	}
	return out, nil
}
