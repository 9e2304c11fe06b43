package layer

import "fmt"
import "math"
import "math/rand"

import "github.com/pkg/errors"
import G "gorgonia.org/gorgonia"
import "gorgonia.org/tensor"

// ErrUnknownParam is returned when a snapshot names a parameter the registry
// does not hold.
var ErrUnknownParam = errors.New("unknown parameter")

// ErrMissingParam is returned when a snapshot lacks a parameter the registry
// holds.
var ErrMissingParam = errors.New("missing parameter")

// Init fills a fanIn×fanOut weight.
type Init func(rng *rand.Rand, w []float64, fanIn, fanOut int)

// Glorot is the uniform Glorot initialisation.
func Glorot(rng *rand.Rand, w []float64, fanIn, fanOut int) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * limit
	}
}

// Zeros leaves the weight at zero.
func Zeros(*rand.Rand, []float64, int, int) {}

// Ones sets every weight to one.
func Ones(_ *rand.Rand, w []float64, _, _ int) {
	for i := range w {
		w[i] = 1
	}
}

// Params is an ordered registry of the learnable nodes of one graph.
//
// A registry created with Share binds its nodes to the values of another
// registry, so a second graph (an evaluation or sampling graph with a
// different batch size) reads the weights trained in the first.
type Params struct {
	g     *G.ExprGraph
	rng   *rand.Rand
	src   *Params
	nodes []*G.Node
	names map[string]*G.Node
	consts int
}

// NewParams creates a registry initialising weights from rng.
func NewParams(g *G.ExprGraph, rng *rand.Rand) *Params {
	return &Params{
		g:     g,
		rng:   rng,
		names: make(map[string]*G.Node),
	}
}

// Share creates a registry on g whose parameters alias those of p.
func (p *Params) Share(g *G.ExprGraph) *Params {
	return &Params{
		g:     g,
		src:   p,
		names: make(map[string]*G.Node),
	}
}

// Graph is the graph the registry adds nodes to.
func (p *Params) Graph() *G.ExprGraph {
	return p.g
}

// Matrix returns a new rows×cols learnable weight called name.
func (p *Params) Matrix(name string, rows, cols int, init Init) *G.Node {
	if _, dup := p.names[name]; dup {
		panic("duplicate parameter " + name)
	}
	var value tensor.Tensor
	if p.src != nil {
		n, ok := p.src.names[name]
		if !ok {
			panic("shared parameter " + name + " missing in source")
		}
		value = n.Value().(tensor.Tensor)
	} else {
		backing := make([]float64, rows*cols)
		init(p.rng, backing, rows, cols)
		value = tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))
	}
	n := G.NewMatrix(p.g, tensor.Float64, G.WithShape(rows, cols), G.WithName(name), G.WithValue(value))
	p.nodes = append(p.nodes, n)
	p.names[name] = n
	return n
}

// Const returns a non learnable rows×cols matrix filled with v.
func (p *Params) Const(rows, cols int, v float64) *G.Node {
	backing := make([]float64, rows*cols)
	for i := range backing {
		backing[i] = v
	}
	p.consts++
	return G.NewMatrix(p.g, tensor.Float64, G.WithShape(rows, cols),
		G.WithName(fmt.Sprintf("const_%d", p.consts)),
		G.WithValue(tensor.New(tensor.WithShape(rows, cols), tensor.WithBacking(backing))))
}

// Scalar returns a non learnable scalar holding v.
func (p *Params) Scalar(v float64) *G.Node {
	p.consts++
	return G.NewScalar(p.g, tensor.Float64, G.WithName(fmt.Sprintf("const_%d", p.consts)), G.WithValue(v))
}

// Input returns a rows×cols matrix fed with Let before each run.
func (p *Params) Input(name string, rows, cols int) *G.Node {
	return G.NewMatrix(p.g, tensor.Float64, G.WithShape(rows, cols), G.WithName(name), G.WithInit(G.Zeroes()))
}

// Inputs returns n inputs called name_0 .. name_{n-1}.
func (p *Params) Inputs(name string, n, rows, cols int) []*G.Node {
	o := make([]*G.Node, n)
	for i := range o {
		o[i] = p.Input(fmt.Sprintf("%s_%d", name, i), rows, cols)
	}
	return o
}

// Learnables lists the parameters in creation order.
func (p *Params) Learnables() G.Nodes {
	return append(G.Nodes(nil), p.nodes...)
}

// Count is the total number of scalar parameters.
func (p *Params) Count() (n int) {
	for _, v := range p.nodes {
		n += v.Shape().TotalSize()
	}
	return
}

// Resync rebinds shared parameters to the current source values, for
// solvers that replace a value instead of updating it in place.
func (p *Params) Resync() error {
	if p.src == nil {
		return nil
	}
	for _, n := range p.nodes {
		if err := G.Let(n, p.src.names[n.Name()].Value()); err != nil {
			return errors.Wrapf(err, "resync %s", n.Name())
		}
	}
	return nil
}

// Weight is the serialised form of one parameter.
type Weight struct {
	Name  string    `json:"name"`
	Shape []int     `json:"shape"`
	Data  []float64 `json:"data"`
}

// Snapshot copies every parameter value.
func (p *Params) Snapshot() []Weight {
	o := make([]Weight, len(p.nodes))
	for i, n := range p.nodes {
		o[i] = Weight{
			Name:  n.Name(),
			Shape: append([]int(nil), n.Shape()...),
			Data:  append([]float64(nil), Data(n)...),
		}
	}
	return o
}

// Restore copies ws into the parameters of the same name and shape. Every
// parameter must be present exactly once; nothing is copied otherwise.
func (p *Params) Restore(ws []Weight) error {
	seen := make(map[string]bool, len(ws))
	for _, w := range ws {
		n, ok := p.names[w.Name]
		if !ok {
			return errors.Wrap(ErrUnknownParam, w.Name)
		}
		if seen[w.Name] {
			return errors.Errorf("parameter %s given twice", w.Name)
		}
		seen[w.Name] = true
		if want := len(Data(n)); want != len(w.Data) {
			return errors.Errorf("parameter %s: %d values, want %d", w.Name, len(w.Data), want)
		}
	}
	if len(seen) != len(p.nodes) {
		for _, n := range p.nodes {
			if !seen[n.Name()] {
				return errors.Wrap(ErrMissingParam, n.Name())
			}
		}
	}
	for _, w := range ws {
		copy(Data(p.names[w.Name]), w.Data)
	}
	return nil
}

// Data returns the backing slice of the value of a float64 node.
func Data(n *G.Node) []float64 {
	switch v := n.Value().(type) {
	case tensor.Tensor:
		return v.Data().([]float64)
	case *G.F64:
		return []float64{float64(*v)}
	}
	return nil
}

// Scalar reads a scalar node.
func Scalar(n *G.Node) float64 {
	if v, ok := n.Value().(*G.F64); ok {
		return float64(*v)
	}
	if d := Data(n); len(d) > 0 {
		return d[0]
	}
	return math.NaN()
}

// Let feeds a rows×cols input from a row-major slice.
func Let(n *G.Node, data []float64) error {
	shape := n.Shape()
	return G.Let(n, tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)))
}
