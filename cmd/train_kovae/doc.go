// Package main trains a KoVAE on a time-series dataset, generates as many
// synthetic series as the training loader yields, scores them with the
// discriminative and predictive metrics and plots both sets with t-SNE and
// PCA. Everything a run produces lands in its log directory.
package main
