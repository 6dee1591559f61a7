package debias

import (
	"fmt"
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"github.com/sartorproj/godebias/distributions"
	"github.com/sartorproj/godebias/stats"
	"github.com/sartorproj/godebias/timeseries"
	"github.com/sartorproj/godebias/variables"
)

// TrendMethod selects how the simulated climate-change signal is
// transferred onto the historical observations in step 5.
type TrendMethod string

// Supported trend-preservation methods.
const (
	TrendAdditive       TrendMethod = "additive"
	TrendMultiplicative TrendMethod = "multiplicative"
	TrendMixed          TrendMethod = "mixed"
	TrendBounded        TrendMethod = "bounded"
)

// Valid reports whether m is a recognized trend-preservation method.
func (m TrendMethod) Valid() bool {
	switch m {
	case TrendAdditive, TrendMultiplicative, TrendMixed, TrendBounded:
		return true
	}
	return false
}

// Hook customizes the variable-specific pre-processing (step 1) and
// post-processing (step 8) of the ISIMIP pipeline, e.g. converting
// shortwave radiation fluxes to clear-sky fractions and back. The scale
// returned by Pre is handed unchanged to Post.
type Hook interface {
	Pre(obsHist, cmHist, cmFuture []float64) (o, h, f, scale []float64, err error)
	Post(cmFuture, scale []float64) ([]float64, error)
}

// Config holds the parameters of the ISIMIP pipeline. Use DefaultConfig
// as the starting point so absent bounds keep their infinite sentinels,
// then hand the result to New, which validates it.
type Config struct {
	// Distribution is the statistical model fitted during quantile
	// mapping (step 6).
	Distribution distributions.Method

	// TrendPreservation selects the step-5 signal-transfer rule.
	// TrendBounded requires finite LowerBound and UpperBound.
	TrendPreservation TrendMethod

	// Detrending enables removal (step 3) and re-addition (step 7) of
	// significant linear trends.
	Detrending bool

	// Variable names the climate variable, informational only.
	Variable string

	// ReasonablePhysicalRange optionally guards all three input series:
	// [min, max] validity check before any stage runs.
	ReasonablePhysicalRange []float64

	// Bounds and thresholds of the variable. Absent lower values are
	// -Inf, absent upper values are +Inf. A finite threshold requires a
	// finite bound on the same side, with bound <= threshold for the
	// lower side and threshold <= bound for the upper side.
	LowerBound     float64
	LowerThreshold float64
	UpperBound     float64
	UpperThreshold float64

	// TrendRemovalWithSignificanceTest only removes a trend whose
	// regression slope is significant at the 5% level (step 3).
	TrendRemovalWithSignificanceTest bool

	// RestrictTrendTransferToThresholds restricts the step-5 trend
	// transfer to values lying strictly between the thresholds; values
	// beyond a threshold pass through unchanged and have their frequency
	// corrected during quantile mapping instead. DefaultConfig enables
	// this, so thresholded variables are restricted unless it is switched
	// off; set it to false to transfer the trend onto every value.
	RestrictTrendTransferToThresholds bool

	// EventLikelihoodAdjustment additionally adjusts the likelihood of
	// individual events during quantile mapping (step 6), following
	// Switanek et al. (2017).
	EventLikelihoodAdjustment bool

	// ImputeMissing imputes NaN values by inverse-CDF sampling (step 2),
	// used for ratio variables such as the snowfall ratio.
	ImputeMissing bool

	// ECDFMethod and IECDFMethod select the empirical CDF and
	// inverse-CDF estimators used by steps 2 and 5.
	ECDFMethod  stats.ECDFMethod
	IECDFMethod stats.IECDFMethod

	// RunningWindowMode fits within running windows over the days of the
	// year instead of stratifying by calendar month.
	RunningWindowMode       bool
	RunningWindowLength     int
	RunningWindowStepLength int

	// Hook supplies steps 1 and 8. Nil means no-op.
	Hook Hook

	// Rand is the source for the randomized steps (2 and 4). Nil selects
	// a fixed-seed source; pass one explicitly for reproducible or
	// independently seeded runs.
	Rand *rand.Rand
}

// DefaultConfig returns a Config with the ISIMIP v2.5 run settings and no
// bounds configured.
func DefaultConfig() Config {
	return Config{
		TrendPreservation:                 TrendAdditive,
		LowerBound:                        math.Inf(-1),
		LowerThreshold:                    math.Inf(-1),
		UpperBound:                        math.Inf(1),
		UpperThreshold:                    math.Inf(1),
		TrendRemovalWithSignificanceTest:  true,
		RestrictTrendTransferToThresholds: true,
		ECDFMethod:                        stats.ECDFStepFunction,
		IECDFMethod:                       stats.IECDFInvertedCDF,
		RunningWindowMode:                 true,
		RunningWindowLength:               31,
		RunningWindowStepLength:           1,
	}
}

// ISIMIP is the ISIMIP bias-adjustment pipeline, configured once and
// applied independently to many grid locations. A single pipeline may be
// used from multiple goroutines; access to the random source is
// serialized.
type ISIMIP struct {
	cfg Config
	mu  sync.Mutex
	rng *rand.Rand
}

// New validates the configuration and returns a ready pipeline.
func New(cfg Config) (*ISIMIP, error) {
	if cfg.Distribution == nil {
		return nil, fmt.Errorf("%w: no distribution configured", ErrConfiguration)
	}
	if !cfg.TrendPreservation.Valid() {
		return nil, fmt.Errorf("%w: trend preservation method %q, needs to be one of [%s %s %s %s]",
			ErrConfiguration, cfg.TrendPreservation, TrendAdditive, TrendMultiplicative, TrendMixed, TrendBounded)
	}
	if cfg.TrendPreservation == TrendBounded && (math.IsInf(cfg.LowerBound, -1) || math.IsInf(cfg.UpperBound, 1)) {
		return nil, fmt.Errorf("%w: bounded trend preservation requires finite lower and upper bounds", ErrConfiguration)
	}
	if r := cfg.ReasonablePhysicalRange; r != nil {
		if len(r) != 2 {
			return nil, fmt.Errorf("%w: reasonable physical range needs exactly a lower and an upper value", ErrConfiguration)
		}
		if math.IsNaN(r[0]) || math.IsNaN(r[1]) {
			return nil, fmt.Errorf("%w: reasonable physical range must be numeric", ErrConfiguration)
		}
		if !(r[0] < r[1]) {
			return nil, fmt.Errorf("%w: reasonable physical range lower value must be smaller than upper value", ErrConfiguration)
		}
	}
	if !math.IsInf(cfg.LowerThreshold, -1) && math.IsInf(cfg.LowerBound, -1) {
		return nil, fmt.Errorf("%w: lower threshold requires a lower bound", ErrConfiguration)
	}
	if !math.IsInf(cfg.UpperThreshold, 1) && math.IsInf(cfg.UpperBound, 1) {
		return nil, fmt.Errorf("%w: upper threshold requires an upper bound", ErrConfiguration)
	}
	if cfg.LowerBound > cfg.LowerThreshold {
		return nil, fmt.Errorf("%w: lower bound must not exceed lower threshold", ErrConfiguration)
	}
	if cfg.UpperThreshold > cfg.UpperBound {
		return nil, fmt.Errorf("%w: upper threshold must not exceed upper bound", ErrConfiguration)
	}
	if !cfg.ECDFMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown ecdf method %q", ErrConfiguration, cfg.ECDFMethod)
	}
	if !cfg.IECDFMethod.Valid() {
		return nil, fmt.Errorf("%w: unknown iecdf method %q", ErrConfiguration, cfg.IECDFMethod)
	}
	if cfg.RunningWindowLength <= 0 {
		return nil, fmt.Errorf("%w: running window length must be a positive integer", ErrConfiguration)
	}
	if cfg.RunningWindowStepLength <= 0 {
		return nil, fmt.Errorf("%w: running window step length must be a positive integer", ErrConfiguration)
	}
	// A window must cover its own core days, or no output could be
	// written back for them.
	if cfg.RunningWindowStepLength > cfg.RunningWindowLength {
		return nil, fmt.Errorf("%w: running window step length must not exceed the window length", ErrConfiguration)
	}

	rng := cfg.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(12345))
	}
	return &ISIMIP{cfg: cfg, rng: rng}, nil
}

// FromVariable builds the pipeline from a standard variable name using the
// ISIMIP per-variable defaults. To override individual defaults, get the
// config from ConfigFromVariable, adjust it, and pass it to New.
func FromVariable(variable string) (*ISIMIP, error) {
	cfg, err := ConfigFromVariable(variable)
	if err != nil {
		return nil, err
	}
	return New(cfg)
}

// ConfigFromVariable returns the default configuration for a standard
// variable name, ready to be adjusted and passed to New.
func ConfigFromVariable(variable string) (Config, error) {
	s, err := variables.ISIMIPDefaults(variable)
	if err != nil {
		return Config{}, err
	}
	cfg := DefaultConfig()
	cfg.Variable = variable
	cfg.Distribution = s.Distribution
	cfg.TrendPreservation = TrendMethod(s.TrendPreservation)
	cfg.Detrending = s.Detrending
	cfg.LowerBound = s.LowerBound
	cfg.LowerThreshold = s.LowerThreshold
	cfg.UpperBound = s.UpperBound
	cfg.UpperThreshold = s.UpperThreshold
	cfg.ImputeMissing = s.ImputeMissing
	cfg.ReasonablePhysicalRange = s.ReasonablePhysicalRange
	return cfg, nil
}

// Config returns a copy of the pipeline configuration.
func (d *ISIMIP) Config() Config {
	return d.cfg
}

func (d *ISIMIP) hasLowerBound() bool     { return !math.IsInf(d.cfg.LowerBound, -1) }
func (d *ISIMIP) hasLowerThreshold() bool { return !math.IsInf(d.cfg.LowerThreshold, -1) }
func (d *ISIMIP) hasUpperBound() bool     { return !math.IsInf(d.cfg.UpperBound, 1) }
func (d *ISIMIP) hasUpperThreshold() bool { return !math.IsInf(d.cfg.UpperThreshold, 1) }

func (d *ISIMIP) beyondLowerThreshold(v float64) bool {
	return v <= d.cfg.LowerThreshold
}

func (d *ISIMIP) beyondUpperThreshold(v float64) bool {
	return v >= d.cfg.UpperThreshold
}

func (d *ISIMIP) betweenThresholds(v float64) bool {
	return v > d.cfg.LowerThreshold && v < d.cfg.UpperThreshold
}

func (d *ISIMIP) valuesBetweenThresholds(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if d.betweenThresholds(v) {
			out = append(out, v)
		}
	}
	return out
}

// checkReasonablePhysicalRange validates all input series against the
// configured physical range, naming the offending series.
func (d *ISIMIP) checkReasonablePhysicalRange(series map[string][]float64) error {
	r := d.cfg.ReasonablePhysicalRange
	if r == nil {
		return nil
	}
	for _, name := range []string{"obs_hist", "cm_hist", "cm_future"} {
		for _, v := range series[name] {
			if v < r[0] || v > r[1] {
				return fmt.Errorf("%w: values of %s lie outside [%v, %v]", ErrInputRange, name, r[0], r[1])
			}
		}
	}
	return nil
}

// TimeInfo carries optional per-sample time labels for the three input
// series. All three must be set for calendar-aware processing.
type TimeInfo struct {
	ObsHist  []time.Time
	CmHist   []time.Time
	CmFuture []time.Time
}

func (t *TimeInfo) complete() bool {
	return t != nil && len(t.ObsHist) > 0 && len(t.CmHist) > 0 && len(t.CmFuture) > 0
}

// ApplyLocation debiases the future model series of a single grid
// location. The returned series has the same length and ordering as
// cmFuture.
//
// In running-window mode with time labels the pipeline runs per
// day-of-year window; without time labels it runs once over the whole
// series. Outside running-window mode time labels are required and the
// pipeline runs once per calendar month.
func (d *ISIMIP) ApplyLocation(obsHist, cmHist, cmFuture []float64, times *TimeInfo) ([]float64, error) {
	err := d.checkReasonablePhysicalRange(map[string][]float64{
		"obs_hist": obsHist, "cm_hist": cmHist, "cm_future": cmFuture,
	})
	if err != nil {
		return nil, err
	}
	if times.complete() {
		if len(times.ObsHist) != len(obsHist) || len(times.CmHist) != len(cmHist) || len(times.CmFuture) != len(cmFuture) {
			return nil, fmt.Errorf("%w: time labels must match their series lengths", ErrMode)
		}
	}

	if d.cfg.RunningWindowMode {
		if times.complete() {
			return d.applyRunningWindows(obsHist, cmHist, cmFuture, times)
		}
		// Without time labels the whole series forms a single window.
		return d.applyOnWindow(obsHist, cmHist, cmFuture, nil, nil, nil)
	}

	if !times.complete() {
		return nil, fmt.Errorf("%w: month-stratified mode needs time labels for all series, or switch to running-window mode", ErrMode)
	}
	return d.applyPerMonth(obsHist, cmHist, cmFuture, times)
}

// applyPerMonth partitions all series by calendar month, debiases each
// month independently, and reassembles the output in input order.
func (d *ISIMIP) applyPerMonth(obsHist, cmHist, cmFuture []float64, times *TimeInfo) ([]float64, error) {
	out := make([]float64, len(cmFuture))
	for month := time.January; month <= time.December; month++ {
		idxObs := timeseries.MonthIndices(times.ObsHist, month)
		idxHist := timeseries.MonthIndices(times.CmHist, month)
		idxFut := timeseries.MonthIndices(times.CmFuture, month)
		if len(idxFut) == 0 {
			continue
		}
		if len(idxObs) == 0 || len(idxHist) == 0 {
			return nil, fmt.Errorf("no reference data for month %s", month)
		}

		debiased, err := d.applyOnWindow(
			subset(obsHist, idxObs),
			subset(cmHist, idxHist),
			subset(cmFuture, idxFut),
			subsetYears(times.ObsHist, idxObs),
			subsetYears(times.CmHist, idxHist),
			subsetYears(times.CmFuture, idxFut),
		)
		if err != nil {
			return nil, fmt.Errorf("month %s: %w", month, err)
		}
		for i, pos := range idxFut {
			out[pos] = debiased[i]
		}
	}
	return out, nil
}

// applyRunningWindows debiases day-of-year running windows and writes back
// only the central step days of each window.
func (d *ISIMIP) applyRunningWindows(obsHist, cmHist, cmFuture []float64, times *TimeInfo) ([]float64, error) {
	w := timeseries.RunningWindow{
		Length: d.cfg.RunningWindowLength,
		Step:   d.cfg.RunningWindowStepLength,
	}
	doysObs := timeseries.DaysOfYear(times.ObsHist)
	doysHist := timeseries.DaysOfYear(times.CmHist)
	doysFut := timeseries.DaysOfYear(times.CmFuture)

	out := make([]float64, len(cmFuture))
	copy(out, cmFuture)

	for k := 0; k < w.NumWindows(); k++ {
		core := w.InCore(doysFut, k)
		if len(core) == 0 {
			continue
		}
		idxObs := w.InWindow(doysObs, k)
		idxHist := w.InWindow(doysHist, k)
		idxFut := w.InWindow(doysFut, k)
		if len(idxObs) == 0 || len(idxHist) == 0 {
			return nil, fmt.Errorf("no reference data in running window %d", k)
		}

		debiased, err := d.applyOnWindow(
			subset(obsHist, idxObs),
			subset(cmHist, idxHist),
			subset(cmFuture, idxFut),
			subsetYears(times.ObsHist, idxObs),
			subsetYears(times.CmHist, idxHist),
			subsetYears(times.CmFuture, idxFut),
		)
		if err != nil {
			return nil, fmt.Errorf("running window %d: %w", k, err)
		}

		// Both core and idxFut are ascending, and core is a subset of
		// idxFut; copy the core positions out of the window result.
		j := 0
		for _, pos := range core {
			for idxFut[j] != pos {
				j++
			}
			out[pos] = debiased[j]
		}
	}
	return out, nil
}

// applyOnWindow runs the eight pipeline steps over one fitting window.
// The year slices may be nil when no time labels are known.
func (d *ISIMIP) applyOnWindow(obsHist, cmHist, cmFuture []float64, yearsObs, yearsHist, yearsFut []int) ([]float64, error) {
	obsHist, cmHist, cmFuture, scale, err := d.step1(obsHist, cmHist, cmFuture)
	if err != nil {
		return nil, fmt.Errorf("step 1: %w", err)
	}
	obsHist, cmHist, cmFuture = d.step2(obsHist, cmHist, cmFuture)
	obsHist, cmHist, cmFuture, trend := d.step3(obsHist, cmHist, cmFuture, yearsObs, yearsHist, yearsFut)
	cmFuture = d.step4(cmFuture)
	obsFuture, err := d.step5(obsHist, cmHist, cmFuture)
	if err != nil {
		return nil, fmt.Errorf("step 5: %w", err)
	}
	cmFuture, err = d.step6(obsHist, obsFuture, cmHist, cmFuture)
	if err != nil {
		return nil, fmt.Errorf("step 6: %w", err)
	}
	cmFuture = d.step7(cmFuture, trend)
	cmFuture, err = d.step8(cmFuture, scale)
	if err != nil {
		return nil, fmt.Errorf("step 8: %w", err)
	}
	return cmFuture, nil
}

func subset(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = x[j]
	}
	return out
}

func subsetYears(times []time.Time, idx []int) []int {
	out := make([]int, len(idx))
	for i, j := range idx {
		out[i] = times[j].Year()
	}
	return out
}
