package layer

import G "gorgonia.org/gorgonia"

// BatchNorm normalises every feature over the rows of the batch, then scales
// and shifts it by learned gamma and beta.
type BatchNorm struct {
	gamma, beta *G.Node
	ones        *G.Node
	invN        *G.Node
	eps         *G.Node
}

// NewBatchNorm creates batch normalisation for batch×size inputs.
func NewBatchNorm(p *Params, name string, batch, size int) *BatchNorm {
	return &BatchNorm{
		gamma: p.Matrix(name+".gamma", 1, size, Ones),
		beta:  p.Matrix(name+".beta", 1, size, Zeros),
		ones:  p.Const(1, batch, 1),
		invN:  p.Scalar(1 / float64(batch)),
		eps:   p.Scalar(1e-5),
	}
}

// Fwd implements Layer.
func (b *BatchNorm) Fwd(x *G.Node) *G.Node {
	mean := G.Must(G.Mul(G.Must(G.Mul(b.ones, x)), b.invN))
	xc := G.Must(G.BroadcastSub(x, mean, nil, []byte{0}))
	variance := G.Must(G.Mul(G.Must(G.Mul(b.ones, G.Must(G.Square(xc)))), b.invN))
	std := G.Must(G.Sqrt(G.Must(G.Add(variance, b.eps))))
	xhat := G.Must(G.BroadcastHadamardDiv(xc, std, nil, []byte{0}))
	y := G.Must(G.BroadcastHadamardProd(xhat, b.gamma, nil, []byte{0}))
	return G.Must(G.BroadcastAdd(y, b.beta, nil, []byte{0}))
}
