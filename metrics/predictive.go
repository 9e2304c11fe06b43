package metrics

import "context"
import "math"
import "math/rand"

import "github.com/pkg/errors"
import G "gorgonia.org/gorgonia"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/layer"

// nextStep lays out the rows idx of d as predictor inputs and targets: the
// first dim−1 features up to step t predict the last feature at t+1.
func nextStep(d datasets.Dataset, idx []int) (xs, ys [][]float64) {
	steps, dim := d.SeqLen()-1, d.Dim()
	xs = make([][]float64, steps)
	ys = make([][]float64, steps)
	for t := 0; t < steps; t++ {
		x := make([]float64, 0, len(idx)*(dim-1))
		y := make([]float64, 0, len(idx))
		for _, i := range idx {
			x = append(x, d[i][t][:dim-1]...)
			y = append(y, d[i][t+1][dim-1])
		}
		xs[t], ys[t] = x, y
	}
	return
}

func all(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

// Predictive trains a GRU on gen to predict the last feature one step ahead
// from the others, then returns its mean absolute error on ori.
func Predictive(ctx context.Context, rng *rand.Rand, ori, gen datasets.Dataset, opts Options) (float64, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	if err := checkPair(ori, gen); err != nil {
		return 0, err
	}
	if ori.Dim() < 2 {
		return 0, errors.Wrapf(ErrTooFewFeatures, "got %d", ori.Dim())
	}
	if ori.SeqLen() < 2 {
		return 0, errors.Wrap(datasets.ErrShape, "predictive score needs two steps")
	}

	bs := min(opts.BatchSize, gen.Len())
	s := shape{steps: ori.SeqLen() - 1, in: ori.Dim() - 1, hidden: hiddenSize(ori.Dim()), out: 1, act: G.Sigmoid}

	var ys []*G.Node
	t, err := newTrainer(rng, s, bs, opts.LR, func(p *layer.Params, n *network) *G.Node {
		ys = p.Inputs("y", s.steps, bs, 1)
		var sum *G.Node
		for i, out := range n.outs {
			ae := G.Must(G.Mean(G.Must(G.Abs(G.Must(G.Sub(out, ys[i]))))))
			if sum == nil {
				sum = ae
			} else {
				sum = G.Must(G.Add(sum, ae))
			}
		}
		return G.Must(G.Mul(sum, p.Scalar(1/float64(s.steps))))
	})
	if err != nil {
		return 0, err
	}
	defer t.close()

	err = t.fit(ctx, opts.Iterations, func() error {
		xs, y := nextStep(gen, batchIndex(rng, gen.Len(), bs))
		if err := feed(t.xs, xs); err != nil {
			return err
		}
		return feed(ys, y)
	})
	if err != nil {
		return 0, err
	}

	e, err := t.evaluator(ori.Len())
	if err != nil {
		return 0, err
	}
	defer e.close()
	xs, y := nextStep(ori, all(ori.Len()))
	if err := e.run(xs); err != nil {
		return 0, err
	}

	var sum float64
	for i, out := range e.outs {
		for j, v := range layer.Data(out) {
			sum += math.Abs(v - y[i][j])
		}
	}
	return sum / float64(ori.Len()*s.steps), nil
}
