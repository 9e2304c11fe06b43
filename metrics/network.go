package metrics

import "context"
import "math/rand"

import "github.com/pkg/errors"
import G "gorgonia.org/gorgonia"

import "github.com/neurlang/kovae/layer"

// network is a one layer GRU with a dense head over every step. The same
// weights can be instantiated on several graphs with different batch sizes.
type network struct {
	params *layer.Params
	xs     []*G.Node
	outs   []*G.Node
	vm     G.VM
}

type shape struct {
	steps, in, hidden, out int
	act                    func(*G.Node) (*G.Node, error)
}

func (s shape) build(p *layer.Params, batch int) *network {
	n := &network{params: p}
	n.xs = p.Inputs("x", s.steps, batch, s.in)
	gru := layer.NewGRU(p, "rnn", batch, s.in, s.hidden, 1)
	head := layer.NewDense(p, "head", s.hidden, s.out, s.act)
	n.outs = layer.Map(head, gru.Unroll(n.xs))
	return n
}

// trainer owns a training graph and its optimizer.
type trainer struct {
	*network
	loss   *G.Node
	solver G.Solver
	shape  shape
}

// newTrainer builds the training graph; lossFn turns the network into a
// scalar loss, adding its own target inputs.
func newTrainer(rng *rand.Rand, s shape, batch int, lr float64,
	lossFn func(p *layer.Params, n *network) *G.Node) (*trainer, error) {

	t := &trainer{shape: s}
	p := layer.NewParams(G.NewGraph(), rng)
	err := layer.Build(func() {
		t.network = s.build(p, batch)
		t.loss = lossFn(p, t.network)
	})
	if err != nil {
		return nil, err
	}
	if _, err := G.Grad(t.loss, p.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "metrics: differentiating loss")
	}
	t.vm = G.NewTapeMachine(p.Graph(), G.BindDualValues(p.Learnables()...))
	t.solver = G.NewAdamSolver(G.WithLearnRate(lr))
	return t, nil
}

// fit runs iterations steps, calling feed before each one.
func (t *trainer) fit(ctx context.Context, iterations int, feed func() error) error {
	for i := 0; i < iterations; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := feed(); err != nil {
			return err
		}
		if err := t.vm.RunAll(); err != nil {
			t.vm.Reset()
			return errors.Wrapf(err, "metrics: iteration %d", i)
		}
		t.vm.Reset()
		if err := t.solver.Step(G.NodesToValueGrads(t.params.Learnables())); err != nil {
			return errors.Wrapf(err, "metrics: optimizer step %d", i)
		}
	}
	return nil
}

// evaluator instantiates the trained weights on a graph of batch rows.
func (t *trainer) evaluator(batch int) (*network, error) {
	p := t.params.Share(G.NewGraph())
	var n *network
	if err := layer.Build(func() { n = t.shape.build(p, batch) }); err != nil {
		return nil, err
	}
	n.vm = G.NewTapeMachine(p.Graph())
	return n, nil
}

// run feeds xs and executes a forward pass.
func (n *network) run(xs [][]float64) error {
	if err := n.params.Resync(); err != nil {
		return err
	}
	if err := feed(n.xs, xs); err != nil {
		return err
	}
	n.vm.Reset()
	return errors.Wrap(n.vm.RunAll(), "metrics: forward")
}

func (n *network) close() {
	if n.vm != nil {
		n.vm.Close()
	}
}

func feed(nodes []*G.Node, values [][]float64) error {
	for t, v := range values {
		if err := layer.Let(nodes[t], v); err != nil {
			return errors.Wrapf(err, "feeding step %d", t)
		}
	}
	return nil
}

// batchIndex draws size distinct indices below n.
func batchIndex(rng *rand.Rand, n, size int) []int {
	return rng.Perm(n)[:size]
}
