package variables

import (
	"math"
	"sort"
	"testing"
)

func TestFromName(t *testing.T) {
	v, err := FromName("tas")
	if err != nil {
		t.Fatalf("FromName failed: %v", err)
	}
	if v.Name != Temperature.Name {
		t.Errorf("Expected temperature, got %q", v.Name)
	}

	// Aliases and case-insensitivity.
	for _, name := range []string{"PR", "precip", "Rainfall"} {
		v, err := FromName(name)
		if err != nil {
			t.Fatalf("FromName(%q) failed: %v", name, err)
		}
		if v.Name != Precipitation.Name {
			t.Errorf("FromName(%q): expected precipitation, got %q", name, v.Name)
		}
	}
}

func TestFromNameUnknown(t *testing.T) {
	if _, err := FromName("ozone"); err == nil {
		t.Error("Expected error for unknown variable")
	}
}

func TestNamesSorted(t *testing.T) {
	names := Names()
	if len(names) == 0 {
		t.Fatal("Names returned nothing")
	}
	if !sort.StringsAreSorted(names) {
		t.Errorf("Names should be sorted, got %v", names)
	}
}

func TestISIMIPDefaultsTemperature(t *testing.T) {
	s, err := ISIMIPDefaults("tas")
	if err != nil {
		t.Fatalf("ISIMIPDefaults failed: %v", err)
	}
	if s.TrendPreservation != "additive" {
		t.Errorf("Expected additive trend preservation, got %q", s.TrendPreservation)
	}
	if !s.Detrending {
		t.Error("Temperature should be detrended")
	}
	if !math.IsInf(s.LowerBound, -1) || !math.IsInf(s.UpperBound, 1) {
		t.Error("Temperature should be unbounded")
	}
}

func TestISIMIPDefaultsPrecipitation(t *testing.T) {
	s, err := ISIMIPDefaults("precipitation")
	if err != nil {
		t.Fatalf("ISIMIPDefaults failed: %v", err)
	}
	if s.TrendPreservation != "mixed" {
		t.Errorf("Expected mixed trend preservation, got %q", s.TrendPreservation)
	}
	if s.LowerBound != 0 || s.LowerThreshold != 0.1 {
		t.Errorf("Expected lower bound 0 and threshold 0.1, got %f and %f", s.LowerBound, s.LowerThreshold)
	}
	if !math.IsInf(s.UpperBound, 1) {
		t.Error("Precipitation should have no upper bound")
	}
}

func TestISIMIPDefaultsSnowfallRatio(t *testing.T) {
	s, err := ISIMIPDefaults("prsnratio")
	if err != nil {
		t.Fatalf("ISIMIPDefaults failed: %v", err)
	}
	if !s.ImputeMissing {
		t.Error("Snowfall ratio should impute missing values")
	}
	if s.LowerBound != 0 || s.UpperBound != 1 {
		t.Errorf("Expected bounds [0, 1], got [%f, %f]", s.LowerBound, s.UpperBound)
	}
	if s.TrendPreservation != "bounded" {
		t.Errorf("Expected bounded trend preservation, got %q", s.TrendPreservation)
	}
}

func TestISIMIPDefaultsUnknown(t *testing.T) {
	if _, err := ISIMIPDefaults("ozone"); err == nil {
		t.Error("Expected error for unknown variable")
	}
}
