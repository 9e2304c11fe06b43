// Package layer builds the gorgonia graph pieces shared by the generative model
// and the evaluation networks: a parameter registry, dense and recurrent layers
// and batch normalisation.
package layer

import G "gorgonia.org/gorgonia"

// Layer maps a batch (rows × features) to another batch.
type Layer interface {

	// Fwd adds the layer applied to x to the graph of x.
	Fwd(x *G.Node) *G.Node
}
