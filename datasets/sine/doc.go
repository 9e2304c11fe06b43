// Package sine generates the multivariate sine benchmark: every feature of every
// series is a sinusoid with its own random frequency and phase.
package sine
