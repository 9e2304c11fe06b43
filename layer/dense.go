package layer

import G "gorgonia.org/gorgonia"

// Dense is x·W + b.
type Dense struct {
	W, B *G.Node
	act  func(*G.Node) (*G.Node, error)
}

// NewDense creates an in→out dense layer. act may be nil.
func NewDense(p *Params, name string, in, out int, act func(*G.Node) (*G.Node, error)) *Dense {
	return &Dense{
		W:   p.Matrix(name+".w", in, out, Glorot),
		B:   p.Matrix(name+".b", 1, out, Zeros),
		act: act,
	}
}

// Fwd implements Layer.
func (d *Dense) Fwd(x *G.Node) *G.Node {
	y := G.Must(G.BroadcastAdd(G.Must(G.Mul(x, d.W)), d.B, nil, []byte{0}))
	if d.act != nil {
		y = G.Must(d.act(y))
	}
	return y
}
