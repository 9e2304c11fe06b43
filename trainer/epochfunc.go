package trainer

import "context"
import "math"

import "github.com/sirupsen/logrus"

import "github.com/neurlang/kovae/net/kovae"

// Tracker receives scalar series.
type Tracker interface {
	Log(name string, step int, value float64)
}

// EpochModel is a model with a Koopman operator that can be checkpointed.
type EpochModel interface {
	Names() []string
	RefitKoopman() (kovae.KoopmanFit, error)
	WriteCompressedWeightsToFile(name string) error
}

// NewEpochFunc returns the per-epoch hook: it records the epoch losses,
// refits the Koopman operator and writes a checkpoint to dstmodel whenever
// the total loss improves. best holds the best loss seen, nil to start over.
func NewEpochFunc(model EpochModel, run Tracker, dstmodel *string, best *float64, log logrus.FieldLogger) EpochFunc {
	if best == nil {
		inf := math.Inf(1)
		best = &inf
	}
	names := model.Names()
	return func(ctx context.Context, epoch int, means []float64) error {
		for i, m := range means {
			run.Log("train/"+names[i], epoch, m)
		}

		fit, err := model.RefitKoopman()
		if err != nil {
			return err
		}
		run.Log("train/koopman_residual", epoch, fit.Residual)
		run.Log("train/koopman_radius", epoch, fit.LearnedRadius)
		entry := log.WithFields(logrus.Fields{
			"residual":     fit.Residual,
			"fit_radius":   fit.SpectralRadius,
			"model_radius": fit.LearnedRadius,
		})
		if fit.Applied {
			entry.Info("koopman operator replaced by least squares fit")
		} else {
			entry.Debug("koopman fit")
		}

		if len(means) == 0 || dstmodel == nil || *dstmodel == "" || !(means[0] < *best) {
			return nil
		}
		*best = means[0]
		if err := model.WriteCompressedWeightsToFile(*dstmodel); err != nil {
			log.WithError(err).Warn("checkpoint not written")
			return nil
		}
		log.WithField("loss", means[0]).Debugf("checkpoint written to %s", *dstmodel)
		return nil
	}
}
