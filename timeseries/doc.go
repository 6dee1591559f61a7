// Package timeseries provides the series container and calendar utilities
// shared by the bias-correction methods.
//
// A Series pairs values with optional per-sample time labels. The time
// labels drive the calendar-aware parts of the ISIMIP pipeline: exact
// yearly means for trend removal, per-month stratification, and running
// windows over days of the year.
//
// Create a series:
//
//	s := timeseries.New(values)
//	s, err := timeseries.NewWithTimes(times, values)
//
// Calendar helpers operate on plain slices so the debiasing code can stay
// free of container types:
//
//	years := timeseries.Years(times)
//	means, idx := timeseries.YearlyMeans(values, years)
package timeseries
