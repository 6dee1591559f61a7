package timeseries

import "time"

// parseDate parses a date string, falling back to a few common layouts
// when the configured format does not match.
func parseDate(s, format string) (time.Time, error) {
	t, err := time.Parse(format, s)
	if err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05", "2006/01/02", "01/02/2006", "2006-01", "2006"} {
		if t, err2 := time.Parse(layout, s); err2 == nil {
			return t, nil
		}
	}
	return time.Time{}, err
}

// DailyRange generates consecutive daily time labels starting at the given
// date. Convenient for building synthetic test and demo series.
func DailyRange(start time.Time, n int) []time.Time {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.AddDate(0, 0, i)
	}
	return times
}
