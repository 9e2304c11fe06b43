// Package tracking records the scalar history of a training run.
//
// A run in debug mode records nothing. In sync and async modes every Log call
// appends a JSON line to metrics.jsonl in the run directory; async mode does
// the writing on a background goroutine. Close writes a run.yaml summary and
// the final value of every series in Prometheus text format to metrics.prom.
package tracking
