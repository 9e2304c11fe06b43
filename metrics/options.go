package metrics

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/datasets"

// ErrTooFewFeatures is returned by Predictive for univariate data.
var ErrTooFewFeatures = errors.New("predictive score needs at least two features")

// Options control the post-hoc networks.
type Options struct {
	// Iterations is the number of optimizer steps.
	Iterations int
	// BatchSize is capped to the available data.
	BatchSize int
	LR        float64
}

// DefaultDiscriminative are the settings of the discriminative score.
func DefaultDiscriminative() Options {
	return Options{Iterations: 2000, BatchSize: 128, LR: 1e-3}
}

// DefaultPredictive are the settings of the predictive score.
func DefaultPredictive() Options {
	return Options{Iterations: 5000, BatchSize: 128, LR: 1e-3}
}

func (o Options) validate() error {
	if o.Iterations <= 0 || o.BatchSize <= 0 || o.LR <= 0 {
		return errors.Errorf("metrics: invalid options %+v", o)
	}
	return nil
}

func checkPair(ori, gen datasets.Dataset) error {
	if err := ori.Check(); err != nil {
		return errors.Wrap(err, "original data")
	}
	if err := gen.Check(); err != nil {
		return errors.Wrap(err, "generated data")
	}
	if ori.Len() == 0 || gen.Len() == 0 {
		return errors.Wrap(datasets.ErrShape, "empty dataset")
	}
	if ori.SeqLen() != gen.SeqLen() || ori.Dim() != gen.Dim() {
		return errors.Wrapf(datasets.ErrShape, "original %d×%d, generated %d×%d",
			ori.SeqLen(), ori.Dim(), gen.SeqLen(), gen.Dim())
	}
	return nil
}

func hiddenSize(dim int) int {
	if h := dim / 2; h > 0 {
		return h
	}
	return 1
}
