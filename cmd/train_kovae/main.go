package main

import "context"
import "fmt"
import "os"
import "os/signal"

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"
import "github.com/spf13/cobra"
import "github.com/spf13/viper"

import "github.com/neurlang/kovae/config"
import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/datasets/source"
import "github.com/neurlang/kovae/device"
import "github.com/neurlang/kovae/metrics"
import "github.com/neurlang/kovae/net/kovae"
import "github.com/neurlang/kovae/tracking"
import "github.com/neurlang/kovae/trainer"
import "github.com/neurlang/kovae/visualization"

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	v := viper.New()
	var cfgFile string
	cmd := &cobra.Command{
		Use:          "train_kovae",
		Short:        "Train a KoVAE and score its synthetic series",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			args, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			return run(cmd.Context(), args, log)
		},
	}
	if err := config.Bind(cmd.Flags(), v); err != nil {
		log.Fatal(err)
	}
	cmd.Flags().StringVar(&cfgFile, "config", "", "YAML, TOML or JSON file with parameter defaults")
	cmd.Flags().Bool("pgo", false, "enable pgo")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := cmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args config.Args, log *logrus.Logger) error {
	dev := device.SetSeedDevice(args.Seed, log)
	log.Infof("device: %s", dev)

	data, scaler, err := source.Load(dev.Rand("data"), args.Dataset, args.DataDir, args.SeqLen)
	if err != nil {
		return err
	}
	log.WithField("fingerprint", fmt.Sprintf("%x", datasets.Fingerprint(data))).
		Infof("%s: %d series of %d steps × %d features", args.Dataset, data.Len(), data.SeqLen(), data.Dim())

	_, err = pipeline(ctx, dev, args, data, scaler, log)
	return err
}

// outcome is what a finished run evaluated.
type outcome struct {
	ori, gen datasets.Dataset
	report   trainer.Report
}

// pipeline trains on data, generates and evaluates. Only the training loader
// sees the observations dropped by --missing_value; generation, metrics and
// plots use the complete series.
func pipeline(ctx context.Context, dev *device.Device, args config.Args, data datasets.Dataset,
	scaler *datasets.MinMax, log logrus.FieldLogger) (*outcome, error) {

	dir := args.RunDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := args.Save(dir); err != nil {
		return nil, err
	}
	log.Infof("log directory: %s", dir)

	observed, mask := datasets.DropMissing(dev.Rand("missing"), data, args.MissingValue)
	loader := newLoader(dev, "loader", observed, mask, args)
	if loader.Len() == 0 {
		return nil, errors.Errorf("%d series do not fill a batch of %d", data.Len(), args.BatchSize)
	}

	model, err := kovae.New(kovae.FromArgs(args, data.Dim()), dev.Rand("model"))
	if err != nil {
		return nil, err
	}
	defer model.Close()
	model.SetScaler(scaler)

	log.Info(args)
	log.Infof("number of model parameters: %d", model.NumParams())
	fmt.Println("number of model parameters:", model.NumParams())

	dstmodel := args.ModelPath()
	if err := trainer.Resume(model, &args.Resume, &dstmodel, log); err != nil {
		return nil, err
	}

	tracker, err := tracking.New(args.Neptune, dir, args.Tag, args, log)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			log.WithError(err).Warn("closing run tracker")
		}
	}()

	loop := trainer.NewLoopFunc(model, loader, args.Epochs, log, trainer.NewEpochFunc(model, tracker, &dstmodel, nil, log))
	if err := loop(ctx); err != nil {
		return nil, err
	}

	// generation runs on fresh streams
	dev = device.SetSeedDevice(args.Seed, nil)
	model.Seed(dev.Rand("sample"))
	genLoader := newLoader(dev, "generate", data, nil, args)
	gen, err := trainer.Generate(model, genLoader)
	if err != nil {
		return nil, err
	}
	ori := trainer.Collect(genLoader)
	log.Infof("generated %d series", gen.Len())

	dev = device.SetSeedDevice(args.Seed, nil)
	disc, pred := metrics.DefaultDiscriminative(), metrics.DefaultPredictive()
	disc.Iterations, pred.Iterations = args.DiscIterations, args.PredIterations
	evaluate := trainer.NewEvaluateFunc(ori, gen, dev, trainer.EvaluateOptions{
		Repeats: args.MetricIteration,
		Workers: args.Workers,
		Disc:    disc,
		Pred:    pred,
	}, log)
	report, err := evaluate(ctx)
	if err != nil {
		return nil, err
	}
	for _, s := range report.Values() {
		fmt.Printf("%s: %v\n", s.Name, s.Value)
		tracker.Log(s.Name, args.Epochs, s.Value)
	}
	var size int64
	if st, err := os.Stat(dstmodel); err == nil {
		size = st.Size()
	}
	trainer.PrintReport(os.Stdout, report, size)

	for _, analysis := range []string{"tsne", "pca"} {
		if _, err := visualization.Visualize(dev.Rand(analysis), dir, analysis, ori, gen, log); err != nil {
			return nil, err
		}
	}
	return &outcome{ori: ori, gen: gen, report: report}, nil
}

func newLoader(dev *device.Device, stream string, data, mask datasets.Dataset, args config.Args) *datasets.Loader {
	l := datasets.NewLoader(dev.Rand(stream), data, mask, args.BatchSize)
	l.DropLast = true
	l.Workers = args.Workers
	return l
}
