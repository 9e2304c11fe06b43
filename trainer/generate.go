package trainer

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/datasets"

// Sampler generates synthetic series.
type Sampler interface {
	SampleData(n int) (datasets.Dataset, error)
}

// Generate draws one synthetic batch for every batch of loader, with the
// same sizes, and stacks them.
func Generate(model Sampler, loader *datasets.Loader) (datasets.Dataset, error) {
	var parts []datasets.Dataset
	for i, b := range loader.Epoch() {
		gen, err := model.SampleData(b.Size())
		if err != nil {
			return nil, errors.Wrapf(err, "generating batch %d", i)
		}
		parts = append(parts, gen)
	}
	return datasets.Stack(parts...), nil
}

// Collect stacks the original series of one epoch of loader.
func Collect(loader *datasets.Loader) datasets.Dataset {
	var parts []datasets.Dataset
	for _, b := range loader.Epoch() {
		parts = append(parts, loader.Data().Subset(b.Index))
	}
	return datasets.Stack(parts...)
}
