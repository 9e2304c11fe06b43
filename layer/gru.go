package layer

import "fmt"

import G "gorgonia.org/gorgonia"

// GRUCell is a gated recurrent unit.
type GRUCell struct {
	wz, wr, wn *G.Node
	uz, ur, un *G.Node
	bz, br, bn *G.Node
	size       int
}

// NewGRUCell creates a cell reading in features into a state of size.
func NewGRUCell(p *Params, name string, in, size int) *GRUCell {
	return &GRUCell{
		wz:   p.Matrix(name+".wz", in, size, Glorot),
		wr:   p.Matrix(name+".wr", in, size, Glorot),
		wn:   p.Matrix(name+".wn", in, size, Glorot),
		uz:   p.Matrix(name+".uz", size, size, Glorot),
		ur:   p.Matrix(name+".ur", size, size, Glorot),
		un:   p.Matrix(name+".un", size, size, Glorot),
		bz:   p.Matrix(name+".bz", 1, size, Zeros),
		br:   p.Matrix(name+".br", 1, size, Zeros),
		bn:   p.Matrix(name+".bn", 1, size, Zeros),
		size: size,
	}
}

// Size implements Cell.
func (c *GRUCell) Size() int {
	return c.size
}

func gate(x, w, h, u, b *G.Node) *G.Node {
	xw := G.Must(G.Mul(x, w))
	hu := G.Must(G.Mul(h, u))
	return G.Must(G.BroadcastAdd(G.Must(G.Add(xw, hu)), b, nil, []byte{0}))
}

// Step implements Cell:
//
//	z = σ(x·Wz + h·Uz + bz)
//	r = σ(x·Wr + h·Ur + br)
//	n = tanh(x·Wn + (r⊙h)·Un + bn)
//	h' = h + z⊙(n − h)
func (c *GRUCell) Step(x, h *G.Node) *G.Node {
	z := G.Must(G.Sigmoid(gate(x, c.wz, h, c.uz, c.bz)))
	r := G.Must(G.Sigmoid(gate(x, c.wr, h, c.ur, c.br)))
	n := G.Must(G.Tanh(gate(x, c.wn, G.Must(G.HadamardProd(r, h)), c.un, c.bn)))
	return G.Must(G.Add(h, G.Must(G.HadamardProd(z, G.Must(G.Sub(n, h))))))
}

// GRU is a stack of GRU cells, each reading the states of the one below.
type GRU struct {
	cells []*GRUCell
	h0    []*G.Node
}

// NewGRU creates a layers deep GRU for batches of batch rows.
func NewGRU(p *Params, name string, batch, in, size, layers int) *GRU {
	g := &GRU{}
	for l := 0; l < layers; l++ {
		g.cells = append(g.cells, NewGRUCell(p, fmt.Sprintf("%s.%d", name, l), in, size))
		g.h0 = append(g.h0, p.Const(batch, size, 0))
		in = size
	}
	return g
}

// Size is the state width of the top cell.
func (g *GRU) Size() int {
	return g.cells[len(g.cells)-1].size
}

// Unroll returns the top layer state of every step.
func (g *GRU) Unroll(xs []*G.Node) []*G.Node {
	hs := xs
	for l, cell := range g.cells {
		hs = Unroll(cell, hs, g.h0[l])
	}
	return hs
}
