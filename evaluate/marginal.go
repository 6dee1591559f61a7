// Package evaluate quantifies how well a debiased model series matches
// observations, location by location. The bias measures follow the usual
// marginal-statistics convention: a statistic is computed on both series
// and compared, either as a percentage of the observed value or as an
// absolute difference.
package evaluate

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sartorproj/godebias/debias"
)

// BiasType selects percentage or absolute bias.
type BiasType string

// Supported bias types.
const (
	BiasPercentage BiasType = "percentage"
	BiasAbsolute   BiasType = "absolute"
)

// Valid reports whether b is a recognized bias type.
func (b BiasType) Valid() bool {
	return b == BiasPercentage || b == BiasAbsolute
}

func bias(obs, cm float64, biasType BiasType, name string) (float64, error) {
	if biasType == BiasAbsolute {
		return cm - obs, nil
	}
	if obs == 0 {
		return 0, fmt.Errorf("percentage bias undefined: observed %s is zero", name)
	}
	return 100 * (cm - obs) / obs, nil
}

// MeanBias compares the means of the two series. Percentage bias is
// undefined for a zero observed mean and returns an error.
func MeanBias(obs, cm []float64, biasType BiasType) (float64, error) {
	if !biasType.Valid() {
		return 0, fmt.Errorf("bias type %q, needs to be one of [%s %s]", biasType, BiasPercentage, BiasAbsolute)
	}
	return bias(stat.Mean(obs, nil), stat.Mean(cm, nil), biasType, "mean")
}

// QuantileBias compares the series at the given quantile. The quantile
// must lie in [0, 1]. Percentage bias is undefined for a zero observed
// quantile and returns an error.
func QuantileBias(q float64, obs, cm []float64, biasType BiasType) (float64, error) {
	if !biasType.Valid() {
		return 0, fmt.Errorf("bias type %q, needs to be one of [%s %s]", biasType, BiasPercentage, BiasAbsolute)
	}
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, fmt.Errorf("quantile needs to be between 0 and 1, got %v", q)
	}
	return bias(quantile(obs, q), quantile(cm, q), biasType, "quantile")
}

func quantile(x []float64, q float64) float64 {
	sorted := make([]float64, len(x))
	copy(sorted, x)
	sort.Float64s(sorted)
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}

// ThresholdMetric counts the exceedances of a climate threshold, e.g.
// frost days (tas < 273.13) or dry days (pr < 1/86400).
type ThresholdMetric struct {
	Name      string
	Threshold float64

	// Exceeds reports whether a value counts as an exceedance. Nil means
	// v > Threshold.
	Exceeds func(v, threshold float64) bool
}

// Common climate threshold metrics, thresholds in SI units.
var (
	FrostDays = ThresholdMetric{
		Name:      "frost days",
		Threshold: 273.13,
		Exceeds:   func(v, t float64) bool { return v < t },
	}
	DryDays = ThresholdMetric{
		Name:      "dry days",
		Threshold: 1.0 / 86400,
		Exceeds:   func(v, t float64) bool { return v < t },
	}
	WetDays = ThresholdMetric{
		Name:      "wet days",
		Threshold: 1.0 / 86400,
	}
	HotDays = ThresholdMetric{
		Name:      "hot days",
		Threshold: 295,
	}
)

// ExceedanceProbability is the fraction of values exceeding the
// threshold.
func (m ThresholdMetric) ExceedanceProbability(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	exceeds := m.Exceeds
	if exceeds == nil {
		exceeds = func(v, t float64) bool { return v > t }
	}
	count := 0
	for _, v := range x {
		if exceeds(v, m.Threshold) {
			count++
		}
	}
	return float64(count) / float64(len(x))
}

// MetricBias compares the exceedance probabilities of the two series.
// Absolute bias is reported in expected days per year. Percentage bias
// is undefined for a zero observed probability and returns an error.
func (m ThresholdMetric) MetricBias(obs, cm []float64, biasType BiasType) (float64, error) {
	if !biasType.Valid() {
		return 0, fmt.Errorf("bias type %q, needs to be one of [%s %s]", biasType, BiasPercentage, BiasAbsolute)
	}
	pObs := m.ExceedanceProbability(obs)
	pCm := m.ExceedanceProbability(cm)
	if biasType == BiasAbsolute {
		return 365 * (pCm - pObs), nil
	}
	if pObs == 0 {
		return 0, fmt.Errorf("percentage bias undefined: observed %s probability is zero", m.Name)
	}
	return 100 * (pCm - pObs) / pObs, nil
}

// MarginalBias is the per-location result of CalculateMarginalBias.
type MarginalBias struct {
	Mean      float64
	Quantiles map[float64]float64
}

// CalculateMarginalBias computes the mean bias and the bias at each of
// the given quantiles for one location.
func CalculateMarginalBias(obs, cm []float64, quantiles []float64, biasType BiasType) (MarginalBias, error) {
	mean, err := MeanBias(obs, cm, biasType)
	if err != nil {
		return MarginalBias{}, err
	}
	out := MarginalBias{Mean: mean, Quantiles: make(map[float64]float64, len(quantiles))}
	for _, q := range quantiles {
		b, err := QuantileBias(q, obs, cm, biasType)
		if err != nil {
			return MarginalBias{}, err
		}
		out.Quantiles[q] = b
	}
	return out, nil
}

// GridMeanBias computes the mean bias at every grid cell. The two cubes
// must share the same spatial shape.
func GridMeanBias(obs, cm debias.Cube, biasType BiasType) ([][]float64, error) {
	return gridBias(obs, cm, func(o, c []float64) (float64, error) {
		return MeanBias(o, c, biasType)
	})
}

// GridQuantileBias computes the bias at quantile q at every grid cell.
func GridQuantileBias(q float64, obs, cm debias.Cube, biasType BiasType) ([][]float64, error) {
	return gridBias(obs, cm, func(o, c []float64) (float64, error) {
		return QuantileBias(q, o, c, biasType)
	})
}

// GridMetricBias computes the threshold-metric bias at every grid cell.
func GridMetricBias(m ThresholdMetric, obs, cm debias.Cube, biasType BiasType) ([][]float64, error) {
	return gridBias(obs, cm, func(o, c []float64) (float64, error) {
		return m.MetricBias(o, c, biasType)
	})
}

func gridBias(obs, cm debias.Cube, f func(o, c []float64) (float64, error)) ([][]float64, error) {
	_, nlatObs, nlonObs := obs.Shape()
	_, nlat, nlon := cm.Shape()
	if nlatObs != nlat || nlonObs != nlon {
		return nil, fmt.Errorf("grid shapes differ: obs %dx%d, cm %dx%d", nlatObs, nlonObs, nlat, nlon)
	}
	out := make([][]float64, nlat)
	for lat := 0; lat < nlat; lat++ {
		out[lat] = make([]float64, nlon)
		for lon := 0; lon < nlon; lon++ {
			b, err := f(obs.At(lat, lon), cm.At(lat, lon))
			if err != nil {
				return nil, fmt.Errorf("location (%d,%d): %w", lat, lon, err)
			}
			out[lat][lon] = b
		}
	}
	return out, nil
}
