package metrics

import "math"

import "gonum.org/v1/gonum/stat"

// Summary is the mean and population standard deviation of repeated scores,
// rounded to 4 decimals.
type Summary struct {
	Mean float64 `json:"mean" yaml:"mean"`
	Std  float64 `json:"std" yaml:"std"`
}

// Summarize reduces scores to a Summary.
func Summarize(scores []float64) Summary {
	if len(scores) == 0 {
		return Summary{Mean: math.NaN(), Std: math.NaN()}
	}
	mean, std := stat.PopMeanStdDev(scores, nil)
	return Summary{Mean: round4(mean), Std: round4(std)}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
