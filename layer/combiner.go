package layer

import G "gorgonia.org/gorgonia"

// Cell is a recurrent cell. It combines the input of one time step with the
// previous state to form the next state.
type Cell interface {

	// Step returns the state after consuming x in state h.
	Step(x, h *G.Node) *G.Node

	// Size is the width of the state.
	Size() int
}

// Unroll runs cell over xs starting from h0 and returns every state.
func Unroll(cell Cell, xs []*G.Node, h0 *G.Node) []*G.Node {
	hs := make([]*G.Node, len(xs))
	h := h0
	for t, x := range xs {
		h = cell.Step(x, h)
		hs[t] = h
	}
	return hs
}

// Map applies l to every step.
func Map(l Layer, xs []*G.Node) []*G.Node {
	out := make([]*G.Node, len(xs))
	for t, x := range xs {
		out[t] = l.Fwd(x)
	}
	return out
}
