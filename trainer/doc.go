// Package trainer provides high-level training orchestration for KoVAE models.
// It runs the epoch loop over a batch loader, hooks per-epoch bookkeeping,
// resumes from checkpoints and evaluates generated data with repeated
// post-hoc metrics.
package trainer
