// Package variables defines the standard climate variables and the
// per-variable default settings consulted by the convenience constructors
// of the debiasing methods.
package variables

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sartorproj/godebias/distributions"
)

// Variable describes a standard climate variable together with the
// statistical model used for it by default.
type Variable struct {
	Name   string
	Method distributions.Method
}

// Standard variables.
var (
	Temperature       = Variable{Name: "Temperature", Method: distributions.Normal{}}
	Precipitation     = Variable{Name: "Precipitation", Method: distributions.NewGammaHurdle(true, nil)}
	SeaLevelPressure  = Variable{Name: "Sea level pressure", Method: distributions.Normal{}}
	Radiation         = Variable{Name: "Shortwave radiation", Method: distributions.Beta{}}
	WindSpeed         = Variable{Name: "Near-surface wind speed", Method: distributions.Weibull{}}
	RelativeHumidity  = Variable{Name: "Relative humidity", Method: distributions.Beta{}}
	TemperatureRange  = Variable{Name: "Daily temperature range", Method: distributions.Weibull{}}
	TemperatureSkew   = Variable{Name: "Daily temperature skewness", Method: distributions.Beta{}}
	SnowfallRatio     = Variable{Name: "Snowfall ratio", Method: distributions.Beta{}}
)

var registry = map[string]Variable{
	"tas":         Temperature,
	"temp":        Temperature,
	"temperature": Temperature,

	"pr":            Precipitation,
	"precip":        Precipitation,
	"precipitation": Precipitation,
	"rainfall":      Precipitation,

	"psl":       SeaLevelPressure,
	"rsds":      Radiation,
	"sfcwind":   WindSpeed,
	"hurs":      RelativeHumidity,
	"tasrange":  TemperatureRange,
	"tasskew":   TemperatureSkew,
	"prsnratio": SnowfallRatio,
}

// Names returns the recognized variable names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FromName looks up a variable by its (case-insensitive) standard name.
func FromName(name string) (Variable, error) {
	v, ok := registry[strings.ToLower(name)]
	if !ok {
		return Variable{}, fmt.Errorf("unknown variable %q, needs to be one of %v", name, Names())
	}
	return v, nil
}

// ISIMIPSettings holds the per-variable defaults of an ISIMIP v2.5-style
// run, consumed by the ISIMIP pipeline's convenience constructor.
type ISIMIPSettings struct {
	Distribution            distributions.Method
	TrendPreservation       string // additive, multiplicative, mixed, or bounded
	Detrending              bool
	LowerBound              float64 // -Inf when absent
	LowerThreshold          float64 // -Inf when absent
	UpperBound              float64 // +Inf when absent
	UpperThreshold          float64 // +Inf when absent
	ImputeMissing           bool    // step-2 missing-value imputation (ratio variables)
	ReasonablePhysicalRange []float64
}

func unbounded() ISIMIPSettings {
	return ISIMIPSettings{
		LowerBound:     math.Inf(-1),
		LowerThreshold: math.Inf(-1),
		UpperBound:     math.Inf(1),
		UpperThreshold: math.Inf(1),
	}
}

// isimipDefaults mirrors the ISIMIP v2.5 per-variable configuration.
// Radiation values are clear-sky fractions in [0, 1]; converting fluxes to
// fractions is the job of the step-1 pre-processing hook.
var isimipDefaults = map[string]ISIMIPSettings{
	"tas": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Normal{}
		s.TrendPreservation = "additive"
		s.Detrending = true
		s.ReasonablePhysicalRange = []float64{100, 400}
		return s
	}(),
	"pr": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Gamma{}
		s.TrendPreservation = "mixed"
		s.LowerBound = 0
		s.LowerThreshold = 0.1
		s.ReasonablePhysicalRange = []float64{0, 600}
		return s
	}(),
	"prsnratio": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Beta{}
		s.TrendPreservation = "bounded"
		s.LowerBound = 0
		s.LowerThreshold = 0.0001
		s.UpperBound = 1
		s.UpperThreshold = 0.9999
		s.ImputeMissing = true
		s.ReasonablePhysicalRange = []float64{0, 1}
		return s
	}(),
	"psl": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Normal{}
		s.TrendPreservation = "additive"
		s.ReasonablePhysicalRange = []float64{87000, 109000}
		return s
	}(),
	"rsds": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Beta{}
		s.TrendPreservation = "bounded"
		s.LowerBound = 0
		s.LowerThreshold = 0.0001
		s.UpperBound = 1
		s.UpperThreshold = 0.9999
		s.ReasonablePhysicalRange = []float64{0, 1}
		return s
	}(),
	"sfcwind": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Weibull{}
		s.TrendPreservation = "mixed"
		s.LowerBound = 0
		s.LowerThreshold = 0.01
		s.ReasonablePhysicalRange = []float64{0, 120}
		return s
	}(),
	"hurs": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Beta{}
		s.TrendPreservation = "bounded"
		s.LowerBound = 0
		s.LowerThreshold = 0.01
		s.UpperBound = 100
		s.UpperThreshold = 99.99
		s.ReasonablePhysicalRange = []float64{0, 100}
		return s
	}(),
	"tasrange": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Weibull{}
		s.TrendPreservation = "mixed"
		s.LowerBound = 0
		s.LowerThreshold = 0.01
		s.ReasonablePhysicalRange = []float64{0, 100}
		return s
	}(),
	"tasskew": func() ISIMIPSettings {
		s := unbounded()
		s.Distribution = distributions.Beta{}
		s.TrendPreservation = "bounded"
		s.LowerBound = 0
		s.LowerThreshold = 0.0001
		s.UpperBound = 1
		s.UpperThreshold = 0.9999
		s.ReasonablePhysicalRange = []float64{0, 1}
		return s
	}(),
}

var isimipAliases = map[string]string{
	"temp":          "tas",
	"temperature":   "tas",
	"precip":        "pr",
	"precipitation": "pr",
	"rainfall":      "pr",
}

// ISIMIPDefaults returns the ISIMIP default settings for a variable name.
func ISIMIPDefaults(name string) (ISIMIPSettings, error) {
	key := strings.ToLower(name)
	if canonical, ok := isimipAliases[key]; ok {
		key = canonical
	}
	s, ok := isimipDefaults[key]
	if !ok {
		names := make([]string, 0, len(isimipDefaults))
		for n := range isimipDefaults {
			names = append(names, n)
		}
		sort.Strings(names)
		return ISIMIPSettings{}, fmt.Errorf("no ISIMIP defaults for variable %q, needs to be one of %v", name, names)
	}
	return s, nil
}
