package metrics

import "context"
import "math/rand"

import G "gorgonia.org/gorgonia"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/layer"

// split shuffles d and cuts it 80/20 into train and test.
func split(rng *rand.Rand, d datasets.Dataset) (train, test datasets.Dataset) {
	idx := rng.Perm(d.Len())
	cut := int(0.8 * float64(d.Len()))
	return d.Subset(idx[:cut]), d.Subset(idx[cut:])
}

// labels returns real ones followed by fake zeros.
func labels(real, fake int) []float64 {
	y := make([]float64, real+fake)
	for i := 0; i < real; i++ {
		y[i] = 1
	}
	return y
}

// Discriminative trains a GRU to tell ori from gen and returns
// |accuracy − 0.5| on the held-out fifth of both sets.
func Discriminative(ctx context.Context, rng *rand.Rand, ori, gen datasets.Dataset, opts Options) (float64, error) {
	if err := opts.validate(); err != nil {
		return 0, err
	}
	if err := checkPair(ori, gen); err != nil {
		return 0, err
	}
	oriTrain, oriTest := split(rng, ori)
	genTrain, genTest := split(rng, gen)
	if oriTrain.Len() == 0 || genTrain.Len() == 0 || oriTest.Len()+genTest.Len() == 0 {
		return 0, datasets.ErrShape
	}

	bs := min(opts.BatchSize, oriTrain.Len(), genTrain.Len())
	s := shape{steps: ori.SeqLen(), in: ori.Dim(), hidden: hiddenSize(ori.Dim()), out: 1}
	last := s.steps - 1

	var y *G.Node
	t, err := newTrainer(rng, s, 2*bs, opts.LR, func(p *layer.Params, n *network) *G.Node {
		y = p.Input("y", 2*bs, 1)
		logits := n.outs[last]
		// sigmoid cross entropy on logits: softplus(l) − y·l
		ce := G.Must(G.Sub(G.Must(G.Softplus(logits)), G.Must(G.HadamardProd(y, logits))))
		return G.Must(G.Mean(ce))
	})
	if err != nil {
		return 0, err
	}
	defer t.close()

	target := labels(bs, bs)
	err = t.fit(ctx, opts.Iterations, func() error {
		b := datasets.Stack(
			oriTrain.Subset(batchIndex(rng, oriTrain.Len(), bs)),
			genTrain.Subset(batchIndex(rng, genTrain.Len(), bs)),
		)
		if err := feed(t.xs, b.TimeMajor()); err != nil {
			return err
		}
		return layer.Let(y, target)
	})
	if err != nil {
		return 0, err
	}

	test := datasets.Stack(oriTest, genTest)
	e, err := t.evaluator(test.Len())
	if err != nil {
		return 0, err
	}
	defer e.close()
	if err := e.run(test.TimeMajor()); err != nil {
		return 0, err
	}

	want := labels(oriTest.Len(), genTest.Len())
	var correct int
	for i, l := range layer.Data(e.outs[last]) {
		if (l > 0) == (want[i] == 1) {
			correct++
		}
	}
	acc := float64(correct) / float64(len(want))
	if acc < 0.5 {
		return 0.5 - acc, nil
	}
	return acc - 0.5, nil
}
