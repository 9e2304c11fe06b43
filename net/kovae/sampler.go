package kovae

import "github.com/pkg/errors"
import G "gorgonia.org/gorgonia"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/layer"

// sampler is the generation graph: prior driven by noise, then the decoder.
type sampler struct {
	params     *layer.Params
	epsP, epsS []*G.Node
	zBar, xGen []*G.Node
	vm         G.VM
}

func newSampler(m *Model) (*sampler, error) {
	cfg := m.cfg
	s := &sampler{}
	g := G.NewGraph()
	s.params = m.params.Share(g)
	err := layer.Build(func() {
		p := s.params
		B, T := cfg.BatchSize, cfg.SeqLen
		s.epsP = p.Inputs("eps_p", T, B, cfg.ZDim)
		s.epsS = p.Inputs("eps_s", T, B, cfg.ZDim)

		w := newWeights(p, cfg, B)
		hBar := w.prior.Unroll(s.epsP)
		half := p.Scalar(0.5)
		s.zBar = make([]*G.Node, T)
		z := make([]*G.Node, T)
		for t, h := range hBar {
			s.zBar[t] = w.priorMu.Fwd(h)
			z[t] = reparameterize(s.zBar[t], w.priorLv.Fwd(h), s.epsS[t], half)
		}
		s.xGen = layer.Map(w.out, w.decoder.Unroll(z))
	})
	if err != nil {
		return nil, err
	}
	s.vm = G.NewTapeMachine(g)
	return s, nil
}

// run executes one sampling batch with fresh noise.
func (m *Model) runSampler() error {
	s := m.sampler
	if err := s.params.Resync(); err != nil {
		return err
	}
	if err := m.noise(s.epsP); err != nil {
		return err
	}
	if err := m.noise(s.epsS); err != nil {
		return err
	}
	s.vm.Reset()
	return errors.Wrap(s.vm.RunAll(), "kovae: sampling")
}

func collect(nodes []*G.Node) [][]float64 {
	o := make([][]float64, len(nodes))
	for t, n := range nodes {
		o[t] = append([]float64(nil), layer.Data(n)...)
	}
	return o
}

// SampleData generates n synthetic series.
func (m *Model) SampleData(n int) (datasets.Dataset, error) {
	B := m.cfg.BatchSize
	out := make(datasets.Dataset, 0, n)
	for len(out) < n {
		if err := m.runSampler(); err != nil {
			return nil, err
		}
		chunk := datasets.FromTimeMajor(collect(m.sampler.xGen), B, m.cfg.InpDim)
		if rest := n - len(out); rest < B {
			chunk = chunk[:rest]
		}
		out = append(out, chunk...)
	}
	return out, nil
}

// priorTrajectories draws batches prior mean trajectories z̄, one
// seq_len×z_dim series per row.
func (m *Model) priorTrajectories(batches int) (datasets.Dataset, error) {
	var out datasets.Dataset
	for b := 0; b < batches; b++ {
		if err := m.runSampler(); err != nil {
			return nil, err
		}
		out = append(out, datasets.FromTimeMajor(collect(m.sampler.zBar), m.cfg.BatchSize, m.cfg.ZDim)...)
	}
	return out, nil
}
