package layer

import "github.com/pkg/errors"

// Build runs fn, converting the panics of graph construction helpers such as
// gorgonia.Must into an error.
func Build(fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = errors.Wrap(e, "building graph")
			} else {
				err = errors.Errorf("building graph: %v", r)
			}
		}
	}()
	fn()
	return nil
}
