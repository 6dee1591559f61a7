// Package debias implements bias correction of climate model output
// against observational data.
//
// All methods share the same per-location contract: given three aligned
// daily series — historical observations, historical model output, and
// future model output — they return a debiased future series of the same
// length and ordering as the input future series. Looping over the cells
// of a gridded dataset is handled by ApplyGrid.
//
// The centerpiece is the ISIMIP method (Lange 2019), an eight-step
// trend-preserving pipeline:
//
//  1. variable-specific pre-processing (Hook)
//  2. missing-value imputation for ratio variables
//  3. detection and removal of significant linear trends
//  4. randomization of values between a bound and its threshold
//  5. pseudo future observations via quantile-wise trend transfer
//  6. parametric quantile mapping with frequency adjustment of
//     beyond-threshold values and optional event-likelihood adjustment
//  7. re-addition of the trend removed in step 3
//  8. variable-specific post-processing (Hook)
//
// Simpler single-formula methods are included as well: LinearScaling and
// ECDFM (equidistant CDF matching, Li et al. 2010).
package debias
