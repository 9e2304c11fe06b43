// Package metrics scores synthetic time series against the original ones.
//
// Both scores train a small post-hoc recurrent network from scratch:
//
//   - Discriminative fits a real/fake classifier and reports |accuracy − 0.5|
//     on held-out data. Lower is better.
//   - Predictive fits a next-step regressor on synthetic data and reports its
//     mean absolute error on the original data. Lower is better.
package metrics
