// Package stats provides the statistical building blocks of the
// bias-correction methods: empirical CDF and inverse-CDF estimators,
// linear trend fitting with a significance test, rank and permutation
// utilities, and log-odds helpers.
//
// The empirical estimators mirror the standard quantile-estimation
// taxonomy (Hyndman & Fan 1996): the inverse ECDF supports the nine
// classical sample-quantile types, and the forward ECDF supports step
// function, linear interpolation, and Gaussian kernel density estimates.
package stats
