// Package device seeds the random streams of a run and reports the compute
// device the run executes on.
package device
