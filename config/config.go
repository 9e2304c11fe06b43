// Package config holds the hyperparameters of a KoVAE run and the command line,
// config file and environment layers they are read from.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// ErrInvalidArgs is returned by Validate.
var ErrInvalidArgs = errors.New("invalid arguments")

// Tracking modes accepted by --neptune.
const (
	TrackDebug = "debug"
	TrackAsync = "async"
	TrackSync  = "sync"
)

// EnvPrefix prefixes environment overrides, e.g. KOVAE_BATCH_SIZE.
const EnvPrefix = "KOVAE"

// Args is the full set of run parameters.
type Args struct {
	// general
	Epochs      int     `mapstructure:"epochs" yaml:"epochs"`
	LR          float64 `mapstructure:"lr" yaml:"lr"`
	WeightDecay float64 `mapstructure:"weight_decay" yaml:"weight_decay"`
	Seed        int64   `mapstructure:"seed" yaml:"seed"`
	PinvSolver  bool    `mapstructure:"pinv_solver" yaml:"pinv_solver"`
	Neptune     string  `mapstructure:"neptune" yaml:"neptune"`
	Tag         string  `mapstructure:"tag" yaml:"tag"`

	// data
	Dataset      string  `mapstructure:"dataset" yaml:"dataset"`
	DataDir      string  `mapstructure:"data_dir" yaml:"data_dir"`
	BatchSize    int     `mapstructure:"batch_size" yaml:"batch_size"`
	SeqLen       int     `mapstructure:"seq_len" yaml:"seq_len"`
	MissingValue float64 `mapstructure:"missing_value" yaml:"missing_value"`
	Workers      int     `mapstructure:"workers" yaml:"workers"`

	// model
	BatchNorm bool `mapstructure:"batch_norm" yaml:"batch_norm"`
	NumLayers int  `mapstructure:"num_layers" yaml:"num_layers"`
	ZDim      int  `mapstructure:"z_dim" yaml:"z_dim"`
	HiddenDim int  `mapstructure:"hidden_dim" yaml:"hidden_dim"`

	// loss params
	NumSteps   int     `mapstructure:"num_steps" yaml:"num_steps"`
	WRec       float64 `mapstructure:"w_rec" yaml:"w_rec"`
	WKL        float64 `mapstructure:"w_kl" yaml:"w_kl"`
	WPredPrior float64 `mapstructure:"w_pred_prior" yaml:"w_pred_prior"`

	// evaluation
	MetricIteration int `mapstructure:"metric_iteration" yaml:"metric_iteration"`
	DiscIterations  int `mapstructure:"disc_iterations" yaml:"disc_iterations"`
	PredIterations  int `mapstructure:"pred_iterations" yaml:"pred_iterations"`

	// output
	LogDir   string `mapstructure:"log_dir" yaml:"log_dir"`
	DstModel string `mapstructure:"dstmodel" yaml:"dstmodel"`
	Resume   bool   `mapstructure:"resume" yaml:"resume"`
}

// Default returns the stock hyperparameters.
func Default() Args {
	return Args{
		Epochs:      600,
		LR:          7e-4,
		WeightDecay: 0,
		Seed:        10,
		Neptune:     TrackDebug,
		Tag:         "sine",

		Dataset:   "sine",
		DataDir:   "./data",
		BatchSize: 64,
		SeqLen:    24,
		Workers:   4,

		BatchNorm: true,
		NumLayers: 3,
		ZDim:      16,
		HiddenDim: 20,

		NumSteps:   1,
		WRec:       1,
		WKL:        .007,
		WPredPrior: 0.005,

		MetricIteration: 10,
		DiscIterations:  2000,
		PredIterations:  5000,

		LogDir: "./logs",
	}
}

// Bind registers every parameter on flags and binds them to v, together with
// the KOVAE_ environment overrides.
func Bind(flags *pflag.FlagSet, v *viper.Viper) error {
	d := Default()

	flags.Int("epochs", d.Epochs, "number of training epochs")
	flags.Float64("lr", d.LR, "learning rate")
	flags.Float64("weight_decay", d.WeightDecay, "L2 weight decay")
	flags.Int64("seed", d.Seed, "random seed")
	flags.Bool("pinv_solver", d.PinvSolver, "refit the Koopman operator by least squares after every epoch")
	flags.String("neptune", d.Neptune, "run tracking: async runs as usual, debug prevents logging")
	flags.String("tag", d.Tag, "run tag")

	flags.String("dataset", d.Dataset, "dataset name: sine, stock, energy or a CSV path")
	flags.String("data_dir", d.DataDir, "directory holding <dataset>_data.csv files")
	flags.Int("batch_size", d.BatchSize, "batch size")
	flags.Int("seq_len", d.SeqLen, "sequence length")
	flags.Float64("missing_value", d.MissingValue, "fraction of observations dropped from the training data")
	flags.Int("workers", d.Workers, "batch assembly goroutines")

	flags.Bool("batch_norm", d.BatchNorm, "normalise encoder features over the batch")
	flags.Int("num_layers", d.NumLayers, "stacked recurrent layers")
	flags.Int("z_dim", d.ZDim, "latent dimension")
	flags.Int("hidden_dim", d.HiddenDim, "the hidden dimension of the output decoder rnn")

	flags.Int("num_steps", d.NumSteps, "Koopman prediction horizon of the prior loss")
	flags.Float64("w_rec", d.WRec, "reconstruction loss weight")
	flags.Float64("w_kl", d.WKL, "KL loss weight")
	flags.Float64("w_pred_prior", d.WPredPrior, "prior linearity loss weight")

	flags.Int("metric_iteration", d.MetricIteration, "repetitions of each evaluation metric")
	flags.Int("disc_iterations", d.DiscIterations, "training steps of the discriminative metric")
	flags.Int("pred_iterations", d.PredIterations, "training steps of the predictive metric")

	flags.String("log_dir", d.LogDir, "root of the log directory")
	flags.String("dstmodel", d.DstModel, "model destination .json.lzw file")
	flags.Bool("resume", d.Resume, "resume training")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v.BindPFlags(flags)
}

// Load reads the optional config file and returns the merged parameters.
// Precedence is flag, environment, config file, default.
func Load(v *viper.Viper, file string) (Args, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return Args{}, errors.Wrapf(err, "reading config %s", file)
		}
	}
	var a Args
	if err := v.Unmarshal(&a); err != nil {
		return Args{}, errors.Wrap(err, "decoding config")
	}
	return a, a.Validate()
}

// Validate checks the parameters for values the pipeline cannot run with.
func (a Args) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"epochs", a.Epochs},
		{"batch_size", a.BatchSize},
		{"seq_len", a.SeqLen},
		{"num_layers", a.NumLayers},
		{"z_dim", a.ZDim},
		{"hidden_dim", a.HiddenDim},
		{"num_steps", a.NumSteps},
		{"metric_iteration", a.MetricIteration},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return errors.Wrapf(ErrInvalidArgs, "%s must be positive, got %d", p.name, p.value)
		}
	}
	if a.NumSteps >= a.SeqLen {
		return errors.Wrapf(ErrInvalidArgs, "num_steps %d must be below seq_len %d", a.NumSteps, a.SeqLen)
	}
	if a.LR <= 0 {
		return errors.Wrapf(ErrInvalidArgs, "lr must be positive, got %v", a.LR)
	}
	if a.WeightDecay < 0 {
		return errors.Wrapf(ErrInvalidArgs, "weight_decay must not be negative, got %v", a.WeightDecay)
	}
	if a.MissingValue < 0 || a.MissingValue >= 1 {
		return errors.Wrapf(ErrInvalidArgs, "missing_value must be in [0, 1), got %v", a.MissingValue)
	}
	switch a.Neptune {
	case TrackDebug, TrackAsync, TrackSync:
	default:
		return errors.Wrapf(ErrInvalidArgs, "unknown neptune mode %q", a.Neptune)
	}
	if a.Dataset == "" {
		return errors.Wrap(ErrInvalidArgs, "dataset is empty")
	}
	return nil
}

// RunName names the run after its hyperparameters.
func (a Args) RunName() string {
	return fmt.Sprintf("KOVAE-%d_bs=%d-rnn_size=%d-z_dim=%d-lr=%s-n_layers=%d="+
		"-weight:kl=%s-pred=%s-w_decay=%s-seed=%d",
		a.Epochs, a.BatchSize, a.HiddenDim, a.ZDim, pyFloat(a.LR), a.NumLayers,
		pyFloat(a.WKL), pyFloat(a.WPredPrior), pyFloat(a.WeightDecay), a.Seed)
}

// RunDir is <log_dir>/<dataset>/<run name>. Dataset paths contribute their
// base name without extension.
func (a Args) RunDir() string {
	dataset := a.Dataset
	if strings.ContainsAny(dataset, `/\`) || filepath.Ext(dataset) != "" {
		dataset = strings.TrimSuffix(filepath.Base(dataset), filepath.Ext(dataset))
	}
	return filepath.Join(a.LogDir, dataset, a.RunName())
}

// ModelPath is the checkpoint location, --dstmodel when given.
func (a Args) ModelPath() string {
	if a.DstModel != "" {
		return a.DstModel
	}
	return filepath.Join(a.RunDir(), "model.json.lzw")
}

// Save writes the parameters to dir/args.yaml.
func (a Args) Save(dir string) error {
	buf, err := yaml.Marshal(a)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "args.yaml"), buf, 0644)
}

// String renders the parameters as a Namespace-like line for the log.
func (a Args) String() string {
	return fmt.Sprintf("Args(epochs=%d, lr=%s, weight_decay=%s, seed=%d, pinv_solver=%t, neptune=%q, tag=%q, "+
		"dataset=%q, batch_size=%d, seq_len=%d, missing_value=%s, batch_norm=%t, num_layers=%d, "+
		"z_dim=%d, hidden_dim=%d, num_steps=%d, w_rec=%s, w_kl=%s, w_pred_prior=%s)",
		a.Epochs, pyFloat(a.LR), pyFloat(a.WeightDecay), a.Seed, a.PinvSolver, a.Neptune, a.Tag,
		a.Dataset, a.BatchSize, a.SeqLen, pyFloat(a.MissingValue), a.BatchNorm, a.NumLayers,
		a.ZDim, a.HiddenDim, a.NumSteps, pyFloat(a.WRec), pyFloat(a.WKL), pyFloat(a.WPredPrior))
}

// pyFloat formats f as the shortest round-tripping decimal, always carrying
// a fraction or exponent (0 -> "0.0", 7e-4 -> "0.0007", 1e-5 -> "1e-05").
func pyFloat(f float64) string {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if strings.ContainsAny(s, ".eEnN") {
		return s
	}
	return s + ".0"
}
