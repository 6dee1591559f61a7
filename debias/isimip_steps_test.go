package debias

import (
	"math"
	"testing"

	"golang.org/x/exp/rand"

	"github.com/sartorproj/godebias/distributions"
)

func TestMultiplicativeDelta(t *testing.T) {
	if got := multiplicativeDelta(2, 4); got != 2 {
		t.Errorf("Expected factor 2, got %f", got)
	}
	if got := multiplicativeDelta(0, 4); got != 1 {
		t.Errorf("Zero denominator should give factor 1, got %f", got)
	}
	if got := multiplicativeDelta(1, 1000); got != 100 {
		t.Errorf("Factor should be clamped to 100, got %f", got)
	}
	if got := multiplicativeDelta(1000, 1); got != 0.01 {
		t.Errorf("Factor should be clamped to 0.01, got %f", got)
	}
}

func TestMixedWeight(t *testing.T) {
	if got := mixedWeight(1, 2); got != 1 {
		t.Errorf("Observation below the model quantile should give weight 1, got %f", got)
	}
	// Midpoint of the cosine ramp.
	if got := mixedWeight(5, 1); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Expected weight 0.5 at the ramp midpoint, got %f", got)
	}
	if got := mixedWeight(10, 1); got != 0 {
		t.Errorf("Observation far above the model quantile should give weight 0, got %f", got)
	}
}

func TestMixedWeightIsContinuous(t *testing.T) {
	// The ramp meets its neighbors at both ends.
	if got := mixedWeight(1+1e-12, 1); math.Abs(got-1) > 1e-9 {
		t.Errorf("Weight should approach 1 at the lower ramp end, got %f", got)
	}
	if got := mixedWeight(9-1e-9, 1); math.Abs(got) > 1e-6 {
		t.Errorf("Weight should approach 0 at the upper ramp end, got %f", got)
	}
}

func TestBoundedTransfer(t *testing.T) {
	if got := boundedTransfer(0.5, 0.3, 0.3, 0, 1); got != 0.5 {
		t.Errorf("No change should pass the observation through, got %f", got)
	}
	if got := boundedTransfer(0.5, 0.8, 0.4, 0, 1); math.Abs(got-0.25) > 1e-12 {
		t.Errorf("Decreasing change: expected 0.25, got %f", got)
	}
	if got := boundedTransfer(0.5, 0.4, 0.8, 0, 1); math.Abs(got-5.0/6) > 1e-12 {
		t.Errorf("Increasing change: expected %f, got %f", 5.0/6, got)
	}
}

func TestBoundedTransferStaysWithinBounds(t *testing.T) {
	for _, obs := range []float64{0, 0.25, 0.5, 0.75, 1} {
		for _, qh := range []float64{0.2, 0.5, 0.9} {
			for _, qf := range []float64{0.1, 0.5, 0.95} {
				got := boundedTransfer(obs, qh, qf, 0, 1)
				if got < 0 || got > 1 {
					t.Errorf("boundedTransfer(%f, %f, %f) = %f outside [0, 1]", obs, qh, qf, got)
				}
			}
		}
	}
}

func TestAdjustedFrequency(t *testing.T) {
	if got := adjustedFrequency(0.3, 0.3, 0.45); got != 0.45 {
		t.Errorf("Matching historical frequencies should return the future frequency, got %f", got)
	}
	if got := adjustedFrequency(0.2, 0.4, 0.3); math.Abs(got-0.15) > 1e-12 {
		t.Errorf("Proportional decrease: expected 0.15, got %f", got)
	}
	if got := adjustedFrequency(0.6, 0.4, 0.5); math.Abs(got-2.0/3) > 1e-12 {
		t.Errorf("Proportional increase: expected %f, got %f", 2.0/3, got)
	}
	if got := adjustedFrequency(0.2, 0.4, 0.5); math.Abs(got-0.3) > 1e-12 {
		t.Errorf("Additive shift: expected 0.3, got %f", got)
	}
}

func newTestPipeline(t *testing.T, cfg Config) *ISIMIP {
	t.Helper()
	d, err := New(cfg)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return d
}

func TestRemoveTrendRoundtrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	cfg.Detrending = true
	cfg.RunningWindowLength = 10
	d := newTestPipeline(t, cfg)

	// Ten "years" of ten samples each with a strong trend.
	x := make([]float64, 100)
	for i := range x {
		x[i] = 0.5*float64(i/10) + math.Sin(float64(i))
	}
	detrended, trend := d.removeTrend(x, nil)

	for i := range x {
		if math.Abs(detrended[i]+trend[i]-x[i]) > 1e-12 {
			t.Fatalf("Detrended plus trend must reconstruct the input at %d", i)
		}
	}

	slope := trend[99] - trend[89]
	if math.Abs(slope-0.5) > 0.2 {
		t.Errorf("Expected a per-year trend step near 0.5, got %f", slope)
	}
}

func TestRemoveTrendInsignificant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	cfg.Detrending = true
	cfg.RunningWindowLength = 10
	d := newTestPipeline(t, cfg)

	// Yearly means oscillate with no direction.
	x := make([]float64, 100)
	for i := range x {
		x[i] = math.Sin(2.7 * float64(i/10))
	}
	detrended, trend := d.removeTrend(x, nil)
	for i := range trend {
		if trend[i] != 0 {
			t.Fatal("Insignificant trend should not be removed")
		}
		if detrended[i] != x[i] {
			t.Fatal("Series should pass through unchanged")
		}
	}
}

func TestRemoveTrendWithYearLabels(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	cfg.Detrending = true
	d := newTestPipeline(t, cfg)

	x := []float64{0, 0, 1, 1, 2, 2, 3, 3}
	years := []int{2000, 2000, 2001, 2001, 2002, 2002, 2003, 2003}
	detrended, trend := d.removeTrend(x, years)

	// A perfect linear trend in the yearly means is removed entirely.
	for i := range detrended {
		if math.Abs(detrended[i]-1.5) > 1e-9 {
			t.Errorf("Expected constant residual 1.5, got %f at %d", detrended[i], i)
		}
	}
	if math.Abs(trend[0]+1.5) > 1e-9 || math.Abs(trend[7]-1.5) > 1e-9 {
		t.Errorf("Expected centered trend from -1.5 to 1.5, got %f .. %f", trend[0], trend[7])
	}
}

func TestStep4RandomizesBeyondThreshold(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Gamma{}
	cfg.LowerBound = 0
	cfg.LowerThreshold = 0.1
	cfg.Rand = rand.New(rand.NewSource(7))
	d := newTestPipeline(t, cfg)

	x := []float64{0, 5, 0.05, 2, 0, 1}
	got := d.step4(x)

	if got[1] != 5 || got[3] != 2 || got[5] != 1 {
		t.Error("Values above the threshold must pass through unchanged")
	}
	for _, i := range []int{0, 2, 4} {
		if got[i] < 0 || got[i] > 0.1 {
			t.Errorf("Randomized value at %d outside [bound, threshold]: %f", i, got[i])
		}
	}
	// x[2] was the largest of the three dry values, so it must stay the
	// largest after randomization.
	if !(got[2] >= got[0] && got[2] >= got[4]) {
		t.Errorf("Randomization must preserve the rank order: %v", got)
	}
}

func TestStep4NoThresholds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	d := newTestPipeline(t, cfg)

	x := []float64{1, 2, 3}
	got := d.step4(x)
	for i := range x {
		if got[i] != x[i] {
			t.Error("Without thresholds step 4 must be the identity")
		}
	}
}

func TestImputeMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	cfg.ImputeMissing = true
	cfg.Rand = rand.New(rand.NewSource(3))
	d := newTestPipeline(t, cfg)

	x := []float64{1, math.NaN(), 3, math.NaN(), 5}
	got := d.imputeMissing(x)

	if got[0] != 1 || got[2] != 3 || got[4] != 5 {
		t.Error("Present values must pass through unchanged")
	}
	for _, i := range []int{1, 3} {
		if math.IsNaN(got[i]) {
			t.Fatalf("Missing value at %d not imputed", i)
		}
		if got[i] < 1 || got[i] > 5 {
			t.Errorf("Imputed value %f outside the sample range", got[i])
		}
	}
}

func TestStep2Disabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	d := newTestPipeline(t, cfg)

	x := []float64{1, math.NaN(), 3}
	o, _, _ := d.step2(x, x, x)
	if !math.IsNaN(o[1]) {
		t.Error("Imputation must be off by default")
	}
}

func TestTransferTrendAdditive(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	cfg.TrendPreservation = TrendAdditive
	d := newTestPipeline(t, cfg)

	obs := []float64{1, 2, 3, 4, 5}
	cmHist := []float64{11, 12, 13, 14, 15}
	cmFuture := []float64{13, 14, 15, 16, 17}
	got, err := d.transferTrend(obs, cmHist, cmFuture)
	if err != nil {
		t.Fatalf("transferTrend failed: %v", err)
	}
	// A uniform +2 shift in the model must move every observation by +2.
	for i := range got {
		if math.Abs(got[i]-(obs[i]+2)) > 1e-9 {
			t.Errorf("Expected %f, got %f", obs[i]+2, got[i])
		}
	}
}

func TestTransferTrendMultiplicative(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Gamma{}
	cfg.TrendPreservation = TrendMultiplicative
	d := newTestPipeline(t, cfg)

	obs := []float64{1, 2, 3, 4}
	cmHist := []float64{2, 4, 6, 8}
	cmFuture := []float64{4, 8, 12, 16}
	got, err := d.transferTrend(obs, cmHist, cmFuture)
	if err != nil {
		t.Fatalf("transferTrend failed: %v", err)
	}
	for i := range got {
		if math.Abs(got[i]-2*obs[i]) > 1e-9 {
			t.Errorf("A doubling in the model must double the observation, got %f for %f", got[i], obs[i])
		}
	}
}

func TestStep5RestrictedPassesDryDaysThrough(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Gamma{}
	cfg.TrendPreservation = TrendAdditive
	cfg.LowerBound = 0
	cfg.LowerThreshold = 0.1
	d := newTestPipeline(t, cfg)

	obs := []float64{0, 1, 2, 0.05, 3}
	cmHist := []float64{0.5, 1.5, 2.5, 3.5}
	cmFuture := []float64{1.5, 2.5, 3.5, 4.5}
	got, err := d.step5(obs, cmHist, cmFuture)
	if err != nil {
		t.Fatalf("step5 failed: %v", err)
	}
	if got[0] != 0 || got[3] != 0.05 {
		t.Error("Values beyond the threshold must pass through unchanged")
	}
	for _, i := range []int{1, 2, 4} {
		if math.Abs(got[i]-(obs[i]+1)) > 1e-9 {
			t.Errorf("Wet value at %d: expected %f, got %f", i, obs[i]+1, got[i])
		}
	}
}

func TestStep6QuantileMapsOntoPseudoObservations(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Distribution = distributions.Normal{}
	d := newTestPipeline(t, cfg)

	rng := rand.New(rand.NewSource(11))
	obs := normalSample(rng, 200, 0, 1)
	obsFuture := normalSample(rng, 200, 1, 1)
	cmHist := normalSample(rng, 200, 5, 2)
	cmFuture := normalSample(rng, 200, 6, 2)

	got, err := d.step6(obs, obsFuture, cmHist, cmFuture)
	if err != nil {
		t.Fatalf("step6 failed: %v", err)
	}
	if math.Abs(mean(got)-1) > 0.3 {
		t.Errorf("Mapped series should match the pseudo observations, mean %f", mean(got))
	}

	// Quantile mapping is monotone, so ranks are preserved.
	for i := range cmFuture {
		for j := range cmFuture {
			if cmFuture[i] < cmFuture[j] && got[i] > got[j]+1e-9 {
				t.Fatalf("Rank inversion between %d and %d", i, j)
			}
		}
	}
}
