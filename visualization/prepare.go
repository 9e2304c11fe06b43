package visualization

import "math/rand"

import "github.com/neurlang/kovae/datasets"

// MaxSamples bounds the number of series of each kind that get plotted.
const MaxSamples = 1000

// Prepare picks the same random rows of ori and gen, at most n of them, and
// reduces every series to its per-step mean over features.
func Prepare(rng *rand.Rand, ori, gen datasets.Dataset, n int) (oriPts, genPts [][]float64) {
	if l := min(ori.Len(), gen.Len()); n > l {
		n = l
	}
	idx := rng.Perm(min(ori.Len(), gen.Len()))[:n]
	oriPts = make([][]float64, n)
	genPts = make([][]float64, n)
	for i, j := range idx {
		oriPts[i] = ori[j].MeanOverFeatures()
		genPts[i] = gen[j].MeanOverFeatures()
	}
	return
}
