package trainer

import "context"
import "math/rand"
import "sync"

import "github.com/pkg/errors"
import "github.com/sirupsen/logrus"
import "golang.org/x/sync/errgroup"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/metrics"

// Seeder derives the seed of the i-th repetition of a named stream.
type Seeder interface {
	Derive(stream string, i int) int64
}

// EvaluateOptions configure repeated evaluation.
type EvaluateOptions struct {
	// Repeats is the number of independent runs of each metric.
	Repeats int
	// Workers bounds the number of metric runs in flight.
	Workers int

	Disc metrics.Options
	Pred metrics.Options
}

// Report holds every score and their summaries.
type Report struct {
	DiscScores []float64
	PredScores []float64

	Disc metrics.Summary
	Pred metrics.Summary

	// PredSkipped is set for univariate data.
	PredSkipped bool
}

// Scalar is a named reported value.
type Scalar struct {
	Name  string
	Value float64
}

// Values returns the reported scalars named the way they are printed.
func (r Report) Values() []Scalar {
	return []Scalar{
		{"test/disc_mean", r.Disc.Mean},
		{"test/disc_std", r.Disc.Std},
		{"test/pred_mean", r.Pred.Mean},
		{"test/pred_std", r.Pred.Std},
	}
}

// NewEvaluateFunc returns a function scoring gen against ori opts.Repeats
// times with each metric. Every run has its own seed derived from seeds, so
// the report does not depend on scheduling.
func NewEvaluateFunc(ori, gen datasets.Dataset, seeds Seeder, opts EvaluateOptions, log logrus.FieldLogger) func(ctx context.Context) (Report, error) {
	return func(ctx context.Context) (Report, error) {
		r := Report{
			DiscScores:  make([]float64, opts.Repeats),
			PredScores:  make([]float64, opts.Repeats),
			PredSkipped: ori.Dim() < 2,
		}
		if r.PredSkipped {
			log.Warnf("predictive score skipped: %d feature(s)", ori.Dim())
		}

		g, ctx := errgroup.WithContext(ctx)
		if opts.Workers > 0 {
			g.SetLimit(opts.Workers)
		}
		var mu sync.Mutex
		var done int
		progress := func(name string, i int, score float64) {
			mu.Lock()
			done++
			n := done
			mu.Unlock()
			log.WithFields(logrus.Fields{"metric": name, "repeat": i, "done": n}).Debugf("score %.4f", score)
		}

		for i := 0; i < opts.Repeats; i++ {
			i := i
			g.Go(func() error {
				rng := rand.New(rand.NewSource(seeds.Derive("disc", i)))
				s, err := metrics.Discriminative(ctx, rng, ori, gen, opts.Disc)
				if err != nil {
					return errors.Wrapf(err, "discriminative run %d", i)
				}
				r.DiscScores[i] = s
				progress("disc", i, s)
				return nil
			})
			if r.PredSkipped {
				continue
			}
			g.Go(func() error {
				rng := rand.New(rand.NewSource(seeds.Derive("pred", i)))
				s, err := metrics.Predictive(ctx, rng, ori, gen, opts.Pred)
				if err != nil {
					return errors.Wrapf(err, "predictive run %d", i)
				}
				r.PredScores[i] = s
				progress("pred", i, s)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Report{}, err
		}

		r.Disc = metrics.Summarize(r.DiscScores)
		if r.PredSkipped {
			r.PredScores = nil
		}
		r.Pred = metrics.Summarize(r.PredScores)
		return r, nil
	}
}
