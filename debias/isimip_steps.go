package debias

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/sartorproj/godebias/stats"
	"github.com/sartorproj/godebias/timeseries"
)

// step1 runs the variable-specific pre-processing hook.
func (d *ISIMIP) step1(obsHist, cmHist, cmFuture []float64) (o, h, f, scale []float64, err error) {
	if d.cfg.Hook == nil {
		return obsHist, cmHist, cmFuture, nil, nil
	}
	return d.cfg.Hook.Pre(obsHist, cmHist, cmFuture)
}

// step2 imputes missing (NaN) values by sampling the inverse empirical CDF
// of the non-missing values, used for ratio variables whose value is
// undefined on days without the underlying event.
func (d *ISIMIP) step2(obsHist, cmHist, cmFuture []float64) (o, h, f []float64) {
	if !d.cfg.ImputeMissing {
		return obsHist, cmHist, cmFuture
	}
	return d.imputeMissing(obsHist), d.imputeMissing(cmHist), d.imputeMissing(cmFuture)
}

func (d *ISIMIP) imputeMissing(x []float64) []float64 {
	present := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			present = append(present, v)
		}
	}
	if len(present) == len(x) || len(present) == 0 {
		return x
	}
	out := make([]float64, len(x))
	copy(out, x)
	d.mu.Lock()
	for i, v := range x {
		if !math.IsNaN(v) {
			continue
		}
		q, err := stats.IECDF(present, []float64{d.rng.Float64()}, d.cfg.IECDFMethod)
		if err != nil {
			// Probabilities from Float64 are always valid; present is
			// non-empty; IECDF cannot fail here.
			d.mu.Unlock()
			panic(err)
		}
		out[i] = q[0]
	}
	d.mu.Unlock()
	return out
}

// step3 removes significant linear trends from all three series and
// returns the trend removed from cm_future for re-addition in step 7.
func (d *ISIMIP) step3(obsHist, cmHist, cmFuture []float64, yearsObs, yearsHist, yearsFut []int) (o, h, f, trend []float64) {
	trend = make([]float64, len(cmFuture))
	if !d.cfg.Detrending {
		return obsHist, cmHist, cmFuture, trend
	}
	obsHist, _ = d.removeTrend(obsHist, yearsObs)
	cmHist, _ = d.removeTrend(cmHist, yearsHist)
	cmFuture, trend = d.removeTrend(cmFuture, yearsFut)
	return obsHist, cmHist, cmFuture, trend
}

// removeTrend fits an OLS line to the yearly means of x and removes the
// per-sample trend slope*(yearIdx - mean(yearIdx)). With year labels the
// yearly means are exact; without them consecutive chunks of the running
// window length approximate years, which can misalign slightly with leap
// years.
func (d *ISIMIP) removeTrend(x []float64, years []int) (detrended, trend []float64) {
	var means []float64
	var sampleYearIdx []int
	if years == nil {
		means = timeseries.ChunkedMeans(x, d.cfg.RunningWindowLength)
		sampleYearIdx = make([]int, len(x))
		for i := range x {
			sampleYearIdx[i] = i / d.cfg.RunningWindowLength
		}
	} else {
		means, sampleYearIdx = timeseries.YearlyMeans(x, years)
	}

	trend = make([]float64, len(x))
	if len(means) < 2 {
		return x, trend
	}

	fit := stats.FitLinearTrend(means)
	if d.cfg.TrendRemovalWithSignificanceTest && fit.PValue >= 0.05 {
		return x, trend
	}

	trend = stats.SampleTrend(fit.Slope, sampleYearIdx, len(means))
	detrended = make([]float64, len(x))
	for i := range x {
		detrended[i] = x[i] - trend[i]
	}
	return detrended, trend
}

// step4 randomizes cm_future values lying beyond a threshold uniformly
// between the bound and the threshold, preserving their relative order.
// This spreads values pinned at a physical bound (e.g. dry days at zero
// precipitation) so quantile mapping does not degenerate on ties.
func (d *ISIMIP) step4(cmFuture []float64) []float64 {
	out := make([]float64, len(cmFuture))
	copy(out, cmFuture)

	if d.hasLowerBound() && d.hasLowerThreshold() {
		d.randomizeBeyond(out, d.beyondLowerThreshold, d.cfg.LowerBound, d.cfg.LowerThreshold)
	}
	if d.hasUpperBound() && d.hasUpperThreshold() {
		d.randomizeBeyond(out, d.beyondUpperThreshold, d.cfg.UpperThreshold, d.cfg.UpperBound)
	}
	return out
}

// randomizeBeyond redraws the selected values uniformly in [lo, hi] and
// writes them back rank-preservingly.
func (d *ISIMIP) randomizeBeyond(x []float64, beyond func(float64) bool, lo, hi float64) {
	var idx []int
	for i, v := range x {
		if beyond(v) {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return
	}
	u := distuv.Uniform{Min: lo, Max: hi, Src: d.rng}
	draws := make([]float64, len(idx))
	selected := make([]float64, len(idx))
	d.mu.Lock()
	for i := range idx {
		draws[i] = u.Rand()
	}
	d.mu.Unlock()
	for i, j := range idx {
		selected[i] = x[j]
	}
	resorted := stats.SortLike(draws, selected)
	for i, j := range idx {
		x[j] = resorted[i]
	}
}

// step5 generates pseudo future observations by transferring the
// simulated quantile-wise change signal onto the historical observations,
// which makes the method trend-preserving.
func (d *ISIMIP) step5(obsHist, cmHist, cmFuture []float64) ([]float64, error) {
	if !d.cfg.RestrictTrendTransferToThresholds {
		return d.transferTrend(obsHist, cmHist, cmFuture)
	}

	var idx []int
	for i, v := range obsHist {
		if d.betweenThresholds(v) {
			idx = append(idx, i)
		}
	}
	out := make([]float64, len(obsHist))
	copy(out, obsHist)
	if len(idx) == 0 {
		return out, nil
	}
	transferred, err := d.transferTrend(
		subset(obsHist, idx),
		d.valuesBetweenThresholds(cmHist),
		d.valuesBetweenThresholds(cmFuture),
	)
	if err != nil {
		return nil, err
	}
	for i, j := range idx {
		out[j] = transferred[i]
	}
	return out, nil
}

// transferTrend applies the configured signal-transfer rule at the
// probability levels of the historical observations.
func (d *ISIMIP) transferTrend(obsHist, cmHist, cmFuture []float64) ([]float64, error) {
	p, err := stats.ECDF(obsHist, obsHist, d.cfg.ECDFMethod)
	if err != nil {
		return nil, err
	}
	qCmFuture, err := stats.IECDF(cmFuture, p, d.cfg.IECDFMethod)
	if err != nil {
		return nil, err
	}
	qCmHist, err := stats.IECDF(cmHist, p, d.cfg.IECDFMethod)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(obsHist))
	switch d.cfg.TrendPreservation {
	case TrendAdditive:
		for i := range out {
			out[i] = obsHist[i] + (qCmFuture[i] - qCmHist[i])
		}
	case TrendMultiplicative:
		for i := range out {
			out[i] = obsHist[i] * multiplicativeDelta(qCmHist[i], qCmFuture[i])
		}
	case TrendMixed:
		for i := range out {
			gamma := mixedWeight(obsHist[i], qCmHist[i])
			mult := obsHist[i] * multiplicativeDelta(qCmHist[i], qCmFuture[i])
			add := obsHist[i] + (qCmFuture[i] - qCmHist[i])
			out[i] = gamma*mult + (1-gamma)*add
		}
	case TrendBounded:
		a, b := d.cfg.LowerBound, d.cfg.UpperBound
		for i := range out {
			out[i] = boundedTransfer(obsHist[i], qCmHist[i], qCmFuture[i], a, b)
		}
	}
	return out, nil
}

// multiplicativeDelta is the change factor q_future/q_hist, defined as 1
// at zero denominator and clamped into [0.01, 100].
func multiplicativeDelta(qHist, qFuture float64) float64 {
	delta := 1.0
	if qHist != 0 {
		delta = qFuture / qHist
	}
	return math.Max(0.01, math.Min(100, delta))
}

// mixedWeight is the blend weight between the multiplicative and additive
// transfer: 1 when the model quantile is at or above the observation, a
// cosine ramp down to 0 while the observation stays below nine times the
// model quantile, and 0 beyond.
func mixedWeight(obs, qHist float64) float64 {
	switch {
	case qHist >= obs:
		return 1
	case obs < 9*qHist:
		return 0.5 * (1 + math.Cos((obs/qHist-1)*math.Pi/8))
	default:
		return 0
	}
}

// boundedTransfer rescales obs linearly relative to the bounds [a, b],
// branching on the direction of the simulated change.
func boundedTransfer(obs, qHist, qFuture, a, b float64) float64 {
	switch {
	case approxEqual(qHist, qFuture):
		return obs
	case qHist > qFuture:
		return a + (obs-a)*(qFuture-a)/(qHist-a)
	default:
		return b - (b-obs)*(b-qFuture)/(b-qHist)
	}
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) <= 1e-8+1e-5*math.Abs(b)
}

// step6 performs the parametric quantile mapping of cm_future onto the
// pseudo future observations, adjusting the frequency of beyond-threshold
// values first for bounded variables.
func (d *ISIMIP) step6(obsHist, obsFuture, cmHist, cmFuture []float64) ([]float64, error) {
	perm := stats.Argsort(cmFuture)
	futSorted := make([]float64, len(cmFuture))
	for i, j := range perm {
		futSorted[i] = cmFuture[j]
	}
	obsHistSorted := stats.SortedCopy(obsHist)
	obsFutureSorted := stats.SortedCopy(obsFuture)
	cmHistSorted := stats.SortedCopy(cmHist)

	n := len(futSorted)
	nLower := 0
	if d.hasLowerThreshold() {
		nLower = d.entriesToSetToBound(obsHistSorted, cmHistSorted, futSorted, d.beyondLowerThreshold)
	}
	nUpper := 0
	if d.hasUpperThreshold() {
		nUpper = d.entriesToSetToBound(obsHistSorted, cmHistSorted, futSorted, d.beyondUpperThreshold)
	}
	if nLower+nUpper > n {
		nUpper = n - nLower
	}

	mapped := make([]float64, n)
	for i := 0; i < nLower; i++ {
		mapped[i] = d.cfg.LowerBound
	}
	for i := n - nUpper; i < n; i++ {
		mapped[i] = d.cfg.UpperBound
	}

	if between := futSorted[nLower : n-nUpper]; len(between) > 0 {
		adjusted, err := d.adjustBetweenThresholds(
			d.valuesBetweenThresholds(obsHistSorted),
			d.valuesBetweenThresholds(obsFutureSorted),
			d.valuesBetweenThresholds(cmHistSorted),
			between,
		)
		if err != nil {
			return nil, err
		}
		copy(mapped[nLower:], adjusted)
	}

	// Fitted supports can extend marginally past the physical bounds, so
	// the mapped values are held to them.
	for i, v := range mapped {
		if v < d.cfg.LowerBound {
			mapped[i] = d.cfg.LowerBound
		} else if v > d.cfg.UpperBound {
			mapped[i] = d.cfg.UpperBound
		}
	}

	out := make([]float64, n)
	for rank, pos := range perm {
		out[pos] = mapped[rank]
	}
	return out, nil
}

// entriesToSetToBound converts the beyond-threshold fractions of the three
// series into the number of sorted cm_future entries forced to the bound.
func (d *ISIMIP) entriesToSetToBound(obsHistSorted, cmHistSorted, futSorted []float64, beyond func(float64) bool) int {
	pObsHist := fractionBeyond(obsHistSorted, beyond)
	pCmHist := fractionBeyond(cmHistSorted, beyond)
	pCmFuture := fractionBeyond(futSorted, beyond)

	pObsFuture := adjustedFrequency(pObsHist, pCmHist, pCmFuture)
	return int(math.Round(float64(len(futSorted)) * pObsFuture))
}

func fractionBeyond(x []float64, beyond func(float64) bool) float64 {
	if len(x) == 0 {
		return 0
	}
	count := 0
	for _, v := range x {
		if beyond(v) {
			count++
		}
	}
	return float64(count) / float64(len(x))
}

// adjustedFrequency is the target beyond-threshold frequency for the
// debiased series: the simulated frequency change is applied to the
// observed frequency, scaled proportionally and clamped so it cannot
// change sign.
func adjustedFrequency(pObsHist, pCmHist, pCmFuture float64) float64 {
	switch {
	case approxEqual(pCmHist, pObsHist):
		return pCmFuture
	case pCmFuture <= pCmHist && pCmHist > pObsHist:
		return pObsHist * pCmFuture / pCmHist
	case pCmFuture >= pCmHist && pCmHist < pObsHist:
		return 1 - (1-pObsHist)*(1-pCmFuture)/(1-pCmHist)
	default:
		return pObsHist + pCmFuture - pCmHist
	}
}

// adjustBetweenThresholds quantile maps the between-threshold values of
// sorted cm_future onto the fitted pseudo-future-observation distribution.
// All four inputs are ascending.
func (d *ISIMIP) adjustBetweenThresholds(obsHist, obsFuture, cmHist, cmFuture []float64) ([]float64, error) {
	dist := d.cfg.Distribution

	fitCmFuture, err := dist.Fit(cmFuture)
	if err != nil {
		return nil, fmt.Errorf("fitting cm_future: %w", err)
	}
	fitObsFuture, err := dist.Fit(obsFuture)
	if err != nil {
		return nil, fmt.Errorf("fitting obs_future: %w", err)
	}

	cdfCmFuture, err := dist.CDF(cmFuture, fitCmFuture)
	if err != nil {
		return nil, err
	}
	cdfCmFuture = stats.ThresholdCDFVals(cdfCmFuture)

	if !d.cfg.EventLikelihoodAdjustment {
		return dist.PPF(cdfCmFuture, fitObsFuture)
	}

	fitObsHist, err := dist.Fit(obsHist)
	if err != nil {
		return nil, fmt.Errorf("fitting obs_hist: %w", err)
	}
	fitCmHist, err := dist.Fit(cmHist)
	if err != nil {
		return nil, fmt.Errorf("fitting cm_hist: %w", err)
	}

	cdfObsHist, err := dist.CDF(obsHist, fitObsHist)
	if err != nil {
		return nil, err
	}
	cdfCmHist, err := dist.CDF(cmHist, fitCmHist)
	if err != nil {
		return nil, err
	}
	cdfObsHist = stats.InterpSortedCDFVals(stats.ThresholdCDFVals(cdfObsHist), len(cdfCmFuture))
	cdfCmHist = stats.InterpSortedCDFVals(stats.ThresholdCDFVals(cdfCmHist), len(cdfCmFuture))

	// Shift the observed log-odds by the simulated change in log-odds,
	// clamped to a factor of ten (Switanek et al. 2017, eq. 10-14).
	maxShift := math.Log(10)
	adjusted := make([]float64, len(cdfCmFuture))
	for i := range adjusted {
		delta := stats.Logit(cdfCmFuture[i]) - stats.Logit(cdfCmHist[i])
		delta = math.Max(-maxShift, math.Min(maxShift, delta))
		adjusted[i] = stats.Expit(stats.Logit(cdfObsHist[i]) + delta)
	}
	return dist.PPF(adjusted, fitObsFuture)
}

// step7 re-adds the trend removed in step 3.
func (d *ISIMIP) step7(cmFuture, trend []float64) []float64 {
	if !d.cfg.Detrending {
		return cmFuture
	}
	out := make([]float64, len(cmFuture))
	copy(out, cmFuture)
	floats.Add(out, trend)
	return out
}

// step8 runs the variable-specific post-processing hook.
func (d *ISIMIP) step8(cmFuture, scale []float64) ([]float64, error) {
	if d.cfg.Hook == nil {
		return cmFuture, nil
	}
	return d.cfg.Hook.Post(cmFuture, scale)
}
