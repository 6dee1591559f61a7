package timeseries

import (
	"errors"
	"math"
	"time"
)

// Series represents a daily climate series at one grid location, with
// optional per-sample time labels.
type Series struct {
	Times  []time.Time
	Values []float64
	Name   string
}

// New creates a series from values without time labels.
func New(values []float64) *Series {
	return &Series{Values: values}
}

// NewWithTimes creates a series with explicit per-sample time labels.
func NewWithTimes(times []time.Time, values []float64) (*Series, error) {
	if len(times) != len(values) {
		return nil, errors.New("times and values must have the same length")
	}
	return &Series{Times: times, Values: values}, nil
}

// Len returns the length of the series.
func (s *Series) Len() int {
	return len(s.Values)
}

// Mean calculates the arithmetic mean of the series.
func (s *Series) Mean() float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range s.Values {
		sum += v
	}
	return sum / float64(len(s.Values))
}

// Min returns the minimum value in the series.
func (s *Series) Min() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	min := s.Values[0]
	for _, v := range s.Values[1:] {
		if v < min {
			min = v
		}
	}
	return min
}

// Max returns the maximum value in the series.
func (s *Series) Max() float64 {
	if len(s.Values) == 0 {
		return math.NaN()
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max
}

// Copy creates a deep copy of the series.
func (s *Series) Copy() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)

	times := make([]time.Time, len(s.Times))
	copy(times, s.Times)

	return &Series{Times: times, Values: values, Name: s.Name}
}

// Years returns the calendar year of every time label, or nil if the
// series carries no time labels.
func (s *Series) Years() []int {
	if len(s.Times) == 0 {
		return nil
	}
	return Years(s.Times)
}

// Years extracts the calendar year of every time label.
func Years(times []time.Time) []int {
	years := make([]int, len(times))
	for i, t := range times {
		years[i] = t.Year()
	}
	return years
}

// MonthIndices returns the positions of all samples falling in the given
// calendar month.
func MonthIndices(times []time.Time, month time.Month) []int {
	var idx []int
	for i, t := range times {
		if t.Month() == month {
			idx = append(idx, i)
		}
	}
	return idx
}

// DaysOfYear returns the day-of-year (1..366) of every time label.
func DaysOfYear(times []time.Time) []int {
	doys := make([]int, len(times))
	for i, t := range times {
		doys[i] = t.YearDay()
	}
	return doys
}

// ChunkedMeans partitions x into consecutive chunks of the given size and
// returns the mean of each chunk. The final chunk may be shorter.
func ChunkedMeans(x []float64, size int) []float64 {
	if size <= 0 || len(x) == 0 {
		return nil
	}
	n := (len(x) + size - 1) / size
	means := make([]float64, 0, n)
	for start := 0; start < len(x); start += size {
		end := start + size
		if end > len(x) {
			end = len(x)
		}
		sum := 0.0
		for _, v := range x[start:end] {
			sum += v
		}
		means = append(means, sum/float64(end-start))
	}
	return means
}

// YearlyMeans groups x by its parallel year labels and returns the mean of
// each year, together with the per-sample index of the year each sample
// belongs to. Years are indexed in order of first appearance.
func YearlyMeans(x []float64, years []int) (means []float64, sampleYearIdx []int) {
	if len(x) == 0 || len(x) != len(years) {
		return nil, nil
	}
	yearToIdx := make(map[int]int)
	var sums []float64
	var counts []int
	sampleYearIdx = make([]int, len(x))
	for i, y := range years {
		j, ok := yearToIdx[y]
		if !ok {
			j = len(sums)
			yearToIdx[y] = j
			sums = append(sums, 0)
			counts = append(counts, 0)
		}
		sums[j] += x[i]
		counts[j]++
		sampleYearIdx[i] = j
	}
	means = make([]float64, len(sums))
	for j := range sums {
		means[j] = sums[j] / float64(counts[j])
	}
	return means, sampleYearIdx
}
