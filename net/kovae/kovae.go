package kovae

import "math/rand"

import "github.com/pkg/errors"
import G "gorgonia.org/gorgonia"

import "github.com/neurlang/kovae/datasets"
import "github.com/neurlang/kovae/layer"

// Loss names, in the order TrainStep reports them.
var names = []string{"loss", "rec", "kl", "pred_prior"}

// weights shared by the training and sampling graphs
type weights struct {
	prior   *layer.GRU
	priorMu *layer.Dense
	priorLv *layer.Dense
	koopman *G.Node

	decoder *layer.GRU
	out     *layer.Dense
}

func newWeights(p *layer.Params, cfg Config, batch int) *weights {
	return &weights{
		prior:   layer.NewGRU(p, "prior", batch, cfg.ZDim, cfg.HiddenDim, cfg.NumLayers),
		priorMu: layer.NewDense(p, "prior.mu", cfg.HiddenDim, cfg.ZDim, nil),
		priorLv: layer.NewDense(p, "prior.logvar", cfg.HiddenDim, cfg.ZDim, nil),
		koopman: p.Matrix("koopman.A", cfg.ZDim, cfg.ZDim, identity),
		decoder: layer.NewGRU(p, "decoder", batch, cfg.ZDim, cfg.HiddenDim, cfg.NumLayers),
		out:     layer.NewDense(p, "decoder.out", cfg.HiddenDim, cfg.InpDim, G.Sigmoid),
	}
}

func identity(_ *rand.Rand, w []float64, n, _ int) {
	for i := 0; i < n; i++ {
		w[i*n+i] = 1
	}
}

// Model is a KoVAE with its optimizer state.
type Model struct {
	cfg Config
	rng *rand.Rand

	params *layer.Params
	w      *weights

	// training graph
	g                 *G.ExprGraph
	xs, masks         []*G.Node
	epsQ, epsP        []*G.Node
	xRec, zPost, zBar []*G.Node
	loss, rec, kl     *G.Node
	pred              *G.Node
	vm                G.VM
	solver            G.Solver

	ones    []float64
	sampler *sampler

	scaler *datasets.MinMax
}

// New builds a model. rng seeds the weights and every noise draw.
func New(cfg Config, rng *rand.Rand) (*Model, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Model{
		cfg: cfg,
		rng: rng,
		g:   G.NewGraph(),
	}
	m.ones = make([]float64, cfg.BatchSize*cfg.InpDim)
	for i := range m.ones {
		m.ones[i] = 1
	}
	m.params = layer.NewParams(m.g, rng)

	if err := layer.Build(m.build); err != nil {
		return nil, err
	}
	if _, err := G.Grad(m.loss, m.params.Learnables()...); err != nil {
		return nil, errors.Wrap(err, "kovae: differentiating loss")
	}
	m.vm = G.NewTapeMachine(m.g, G.BindDualValues(m.params.Learnables()...))

	opts := []G.SolverOpt{G.WithLearnRate(cfg.LR)}
	if cfg.WeightDecay > 0 {
		opts = append(opts, G.WithL2Reg(cfg.WeightDecay))
	}
	m.solver = G.NewAdamSolver(opts...)

	s, err := newSampler(m)
	if err != nil {
		m.vm.Close()
		return nil, err
	}
	m.sampler = s
	return m, nil
}

func (m *Model) build() {
	cfg, p := m.cfg, m.params
	B, T := cfg.BatchSize, cfg.SeqLen

	m.xs = p.Inputs("x", T, B, cfg.InpDim)
	m.masks = p.Inputs("mask", T, B, cfg.InpDim)
	m.epsQ = p.Inputs("eps_q", T, B, cfg.ZDim)
	m.epsP = p.Inputs("eps_p", T, B, cfg.ZDim)

	// posterior q(z|x)
	encoder := layer.NewGRU(p, "encoder", B, cfg.InpDim, cfg.HiddenDim, cfg.NumLayers)
	hs := encoder.Unroll(m.xs)
	if cfg.BatchNorm {
		hs = layer.Map(layer.NewBatchNorm(p, "encoder.bn", B, cfg.HiddenDim), hs)
	}
	muQ := layer.Map(layer.NewDense(p, "encoder.mu", cfg.HiddenDim, cfg.ZDim, nil), hs)
	lvQ := layer.Map(layer.NewDense(p, "encoder.logvar", cfg.HiddenDim, cfg.ZDim, nil), hs)

	m.w = newWeights(p, cfg, B)
	half := p.Scalar(0.5)
	m.zPost = make([]*G.Node, T)
	for t := range m.zPost {
		m.zPost[t] = reparameterize(muQ[t], lvQ[t], m.epsQ[t], half)
	}

	// p(x|z)
	m.xRec = layer.Map(m.w.out, m.w.decoder.Unroll(m.zPost))

	// prior p(z̄)
	hBar := m.w.prior.Unroll(m.epsP)
	muP := layer.Map(m.w.priorMu, hBar)
	lvP := layer.Map(m.w.priorLv, hBar)
	m.zBar = muP

	m.rec = m.reconstruction(p)
	m.kl = klDivergence(p, muQ, lvQ, muP, lvP, half)
	m.pred = koopmanLoss(p, m.zBar, m.w.koopman, cfg.NumSteps)

	m.loss = G.Must(G.Add(
		G.Must(G.Add(
			G.Must(G.Mul(m.rec, p.Scalar(cfg.WRec))),
			G.Must(G.Mul(m.kl, p.Scalar(cfg.WKL))))),
		G.Must(G.Mul(m.pred, p.Scalar(cfg.WPredPrior)))))
}

// reparameterize draws μ + exp(½ logσ²)⊙ε.
func reparameterize(mu, logvar, eps, half *G.Node) *G.Node {
	std := G.Must(G.Exp(G.Must(G.Mul(logvar, half))))
	return G.Must(G.Add(mu, G.Must(G.HadamardProd(std, eps))))
}

// reconstruction is the masked squared error averaged over batch, time and
// features. Missing entries count as zero error.
func (m *Model) reconstruction(p *layer.Params) *G.Node {
	var sum *G.Node
	for t := range m.xs {
		diff := G.Must(G.Sub(m.xRec[t], m.xs[t]))
		se := G.Must(G.Mean(G.Must(G.HadamardProd(G.Must(G.Square(diff)), m.masks[t]))))
		sum = accumulate(sum, se)
	}
	return G.Must(G.Mul(sum, p.Scalar(1/float64(len(m.xs)))))
}

// klDivergence is KL(q‖p) between diagonal Gaussians, summed over the latent
// dimension and averaged over batch and time.
func klDivergence(p *layer.Params, muQ, lvQ, muP, lvP []*G.Node, half *G.Node) *G.Node {
	var sum *G.Node
	one := p.Scalar(1)
	for t := range muQ {
		d := G.Must(G.Sub(muQ[t], muP[t]))
		num := G.Must(G.Add(G.Must(G.Exp(lvQ[t])), G.Must(G.Square(d))))
		ratio := G.Must(G.HadamardDiv(num, G.Must(G.Exp(lvP[t]))))
		term := G.Must(G.Sub(G.Must(G.Add(G.Must(G.Sub(lvP[t], lvQ[t])), ratio)), one))
		sum = accumulate(sum, G.Must(G.Sum(term)))
	}
	rows := muQ[0].Shape()[0]
	return G.Must(G.Mul(sum, p.Scalar(0.5/float64(rows*len(muQ)))))
}

// koopmanLoss is the mean squared error of predicting z̄ₜ₊ₖ as z̄ₜAᵏ for
// k = 1..steps.
func koopmanLoss(p *layer.Params, zBar []*G.Node, a *G.Node, steps int) *G.Node {
	var sum *G.Node
	var count int
	ak := a
	for k := 1; k <= steps; k++ {
		if k > 1 {
			ak = G.Must(G.Mul(ak, a))
		}
		for t := 0; t+k < len(zBar); t++ {
			diff := G.Must(G.Sub(G.Must(G.Mul(zBar[t], ak)), zBar[t+k]))
			sum = accumulate(sum, G.Must(G.Mean(G.Must(G.Square(diff)))))
			count++
		}
	}
	return G.Must(G.Mul(sum, p.Scalar(1/float64(count))))
}

func accumulate(sum, v *G.Node) *G.Node {
	if sum == nil {
		return v
	}
	return G.Must(G.Add(sum, v))
}

// Config returns the model configuration.
func (m *Model) Config() Config {
	return m.cfg
}

// SetScaler records the scaler that mapped the training data to [0, 1]. It
// travels with the checkpoint.
func (m *Model) SetScaler(s *datasets.MinMax) {
	m.scaler = s
}

// Scaler is the recorded training data scaler, nil for data that was not
// scaled.
func (m *Model) Scaler() *datasets.MinMax {
	return m.scaler
}

// Seed replaces the noise source of training and sampling.
func (m *Model) Seed(rng *rand.Rand) {
	m.rng = rng
}

// Names lists the loss components reported by TrainStep.
func (m *Model) Names() []string {
	return append([]string(nil), names...)
}

// NumParams is the number of learnable scalars.
func (m *Model) NumParams() int {
	return m.params.Count()
}

// Close releases both graph machines.
func (m *Model) Close() error {
	err := m.vm.Close()
	if m.sampler != nil {
		if serr := m.sampler.vm.Close(); err == nil {
			err = serr
		}
	}
	return err
}

func (m *Model) noise(nodes []*G.Node) error {
	for _, n := range nodes {
		v := make([]float64, n.Shape().TotalSize())
		for i := range v {
			v[i] = m.rng.NormFloat64()
		}
		if err := layer.Let(n, v); err != nil {
			return err
		}
	}
	return nil
}

// TrainStep runs forward, loss, backward and one optimizer step on b and
// returns the loss components in Names order.
func (m *Model) TrainStep(b datasets.Batch) ([]float64, error) {
	if b.Size() != m.cfg.BatchSize || len(b.X) != m.cfg.SeqLen {
		return nil, errors.Wrapf(ErrBatchSize, "got %d×%d, model %d×%d", b.Size(), len(b.X), m.cfg.BatchSize, m.cfg.SeqLen)
	}
	for t := range m.xs {
		if err := layer.Let(m.xs[t], b.X[t]); err != nil {
			return nil, errors.Wrapf(err, "feeding step %d", t)
		}
		mask := m.ones
		if b.Mask != nil {
			mask = b.Mask[t]
		}
		if err := layer.Let(m.masks[t], mask); err != nil {
			return nil, errors.Wrapf(err, "feeding mask %d", t)
		}
	}
	if err := m.noise(m.epsQ); err != nil {
		return nil, err
	}
	if err := m.noise(m.epsP); err != nil {
		return nil, err
	}

	defer m.vm.Reset()
	if err := m.vm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "kovae: forward/backward")
	}
	losses := []float64{
		layer.Scalar(m.loss),
		layer.Scalar(m.rec),
		layer.Scalar(m.kl),
		layer.Scalar(m.pred),
	}
	if err := m.solver.Step(G.NodesToValueGrads(m.params.Learnables())); err != nil {
		return nil, errors.Wrap(err, "kovae: optimizer step")
	}
	return losses, nil
}
