// Package csvdata loads a real-valued CSV table (one row per time step, one
// column per feature, a header row) into overlapping normalised windows.
package csvdata
