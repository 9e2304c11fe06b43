package trainer

import "context"
import "fmt"
import "strings"

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"

import "github.com/neurlang/kovae/datasets"

// Model is trained one batch at a time.
type Model interface {
	Names() []string
	TrainStep(b datasets.Batch) ([]float64, error)
}

// EpochFunc is called after every epoch with the mean of each loss.
type EpochFunc func(ctx context.Context, epoch int, means []float64) error

// AggLosses appends the losses of one batch to agg, one column per loss.
func AggLosses(agg [][]float64, losses []float64) [][]float64 {
	if agg == nil {
		agg = make([][]float64, len(losses))
	}
	for i, l := range losses {
		agg[i] = append(agg[i], l)
	}
	return agg
}

// MeanLosses is the per-loss mean of agg.
func MeanLosses(agg [][]float64) []float64 {
	means := make([]float64, len(agg))
	for i, col := range agg {
		var sum float64
		for _, v := range col {
			sum += v
		}
		if len(col) > 0 {
			means[i] = sum / float64(len(col))
		}
	}
	return means
}

// LogLosses logs the epoch means of agg on one line and returns them.
func LogLosses(log logrus.FieldLogger, epoch int, agg [][]float64, names []string) []float64 {
	means := MeanLosses(agg)
	var b strings.Builder
	for i, m := range means {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %.6f", names[i], m)
	}
	log.WithField("epoch", epoch).Info(b.String())
	return means
}

// NewLoopFunc returns the training loop: epochs passes over loader, each one
// followed by onEpoch. The loop stops between batches when ctx is done.
func NewLoopFunc(model Model, loader *datasets.Loader, epochs int, log logrus.FieldLogger, onEpoch EpochFunc) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		names := model.Names()
		log.Info("Starting training loop at step 0.")
		for epoch := 0; epoch < epochs; epoch++ {
			log.Infof("Running Epoch : %d", epoch+1)
			var agg [][]float64
			for i, b := range loader.Epoch() {
				if err := ctx.Err(); err != nil {
					return err
				}
				losses, err := model.TrainStep(b)
				if err != nil {
					return errors.Wrapf(err, "epoch %d batch %d", epoch+1, i)
				}
				agg = AggLosses(agg, losses)
			}
			means := LogLosses(log, epoch+1, agg, names)
			if onEpoch != nil {
				if err := onEpoch(ctx, epoch+1, means); err != nil {
					return err
				}
			}
		}
		log.Info("Training is complete")
		return nil
	}
}
