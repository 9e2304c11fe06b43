// Package main loads a trained KoVAE checkpoint and writes synthetic series
// as CSV, one row per time step and a blank line between series.
package main
