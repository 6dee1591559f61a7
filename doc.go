// Package godebias provides statistical bias correction of climate model
// output against observational data.
//
// GoDebias is a Go package for debiasing daily climate model simulations so
// that they can be used in impact studies. Its centerpiece is the ISIMIP
// bias adjustment method (Lange 2019): a trend-preserving, eight-step
// pipeline combining trend detection and removal, quantile-wise transfer of
// the simulated climate-change signal, bounded-variable handling, and
// parametric quantile mapping with optional event-likelihood adjustment.
// Simpler methods (linear scaling, ECDFM, equidistant CDF matching) are
// included as well.
//
// # Quick Start
//
// Debias a single grid-cell series with per-variable defaults:
//
//	d, _ := debias.FromVariable("tas")
//	corrected, _ := d.ApplyLocation(obsHist, cmHist, cmFuture, nil)
//
// Run over a full time x lat x lon cube:
//
//	output, _ := debias.ApplyGrid(d, obs, cmHist, cmFuture, debias.GridOptions{})
//
// # Packages
//
// The library is organized into the following packages:
//
//   - debias: bias-correction methods (ISIMIP pipeline, linear scaling,
//     ECDFM, equidistant CDF matching) and the grid harness
//   - distributions: fittable statistical models sharing fit/cdf/ppf
//   - variables: standard climate variables and their default settings
//   - stats: empirical CDF estimators, trend fitting, rank utilities
//   - timeseries: series containers and calendar helpers
//   - evaluate: marginal bias metrics for debiaser output
//
// # References
//
//   - Lange, S. (2019). Trend-preserving bias adjustment and statistical
//     downscaling with ISIMIP3BASD. Geoscientific Model Development.
//   - Switanek, M. et al. (2017). Scaled distribution mapping. HESS.
//   - Li, H., Sheffield, J., & Wood, E. F. (2010). Bias correction using
//     equidistant quantile matching. JGR Atmospheres.
package godebias
