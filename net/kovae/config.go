package kovae

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/config"

// ErrBatchSize is returned when a batch does not match the graph batch size.
var ErrBatchSize = errors.New("batch size does not match the model")

// Config sizes the model and weighs its losses.
type Config struct {
	InpDim    int
	SeqLen    int
	BatchSize int
	HiddenDim int
	ZDim      int
	NumLayers int
	NumSteps  int
	BatchNorm bool

	WRec       float64
	WKL        float64
	WPredPrior float64

	LR          float64
	WeightDecay float64

	// PinvSolver refits A by least squares after every epoch.
	PinvSolver bool
}

// FromArgs builds the model config of a run over inpDim features.
func FromArgs(a config.Args, inpDim int) Config {
	return Config{
		InpDim:      inpDim,
		SeqLen:      a.SeqLen,
		BatchSize:   a.BatchSize,
		HiddenDim:   a.HiddenDim,
		ZDim:        a.ZDim,
		NumLayers:   a.NumLayers,
		NumSteps:    a.NumSteps,
		BatchNorm:   a.BatchNorm,
		WRec:        a.WRec,
		WKL:         a.WKL,
		WPredPrior:  a.WPredPrior,
		LR:          a.LR,
		WeightDecay: a.WeightDecay,
		PinvSolver:  a.PinvSolver,
	}
}

func (c Config) validate() error {
	if c.InpDim <= 0 || c.SeqLen <= 0 || c.BatchSize <= 0 || c.HiddenDim <= 0 ||
		c.ZDim <= 0 || c.NumLayers <= 0 || c.NumSteps <= 0 {
		return errors.Errorf("kovae: non-positive size in %+v", c)
	}
	if c.NumSteps >= c.SeqLen {
		return errors.Errorf("kovae: num_steps %d must be below seq_len %d", c.NumSteps, c.SeqLen)
	}
	return nil
}
