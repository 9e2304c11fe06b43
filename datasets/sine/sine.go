package sine

import "math"
import "math/rand"

import "github.com/neurlang/kovae/datasets"

// Samples and Dim are the size of the stock sine benchmark.
const Samples = 10000
const Dim = 5

// Generate creates no series of seqLen steps and dim features scaled to [0, 1].
func Generate(rng *rand.Rand, no, seqLen, dim int) datasets.Dataset {
	d := make(datasets.Dataset, no)
	for i := range d {
		s := make(datasets.Series, seqLen)
		for t := range s {
			s[t] = make([]float64, dim)
		}
		for k := 0; k < dim; k++ {
			freq := rng.Float64() * 0.1
			phase := rng.Float64() * 0.1
			for t := range s {
				s[t][k] = (math.Sin(freq*float64(t)+phase) + 1) * 0.5
			}
		}
		d[i] = s
	}
	return d
}
