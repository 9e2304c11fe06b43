package visualization

import "math"
import "math/rand"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"

import "github.com/neurlang/kovae/parallel"

// TSNEOptions configure the embedding.
type TSNEOptions struct {
	Perplexity float64
	Iterations int
	// LearningRate 0 picks max(n/Exaggeration/4, 50).
	LearningRate float64
	// Exaggeration multiplies the affinities during the first
	// ExaggerationIterations steps.
	Exaggeration           float64
	ExaggerationIterations int
	Workers                int
}

// DefaultTSNE embeds with perplexity 40 over 300 iterations.
func DefaultTSNE() TSNEOptions {
	return TSNEOptions{
		Perplexity:             40,
		Iterations:             300,
		LearningRate:           0,
		Exaggeration:           12,
		ExaggerationIterations: 250,
		Workers:                4,
	}
}

// TSNE embeds points in two dimensions with exact t-SNE.
func TSNE(rng *rand.Rand, points [][]float64, opts TSNEOptions) ([][]float64, error) {
	n := len(points)
	if n < 2 {
		return nil, errors.Wrapf(ErrTooFewPoints, "t-sne on %d points", n)
	}
	perplexity := opts.Perplexity
	if limit := float64(n-1) / 3; perplexity > limit {
		perplexity = math.Max(limit, 1)
	}
	p := affinities(points, perplexity, opts.Workers)
	lr := learningRate(n, opts)

	y := make([][]float64, n)
	update := make([][]float64, n)
	gains := make([][]float64, n)
	for i := range y {
		y[i] = []float64{1e-4 * rng.NormFloat64(), 1e-4 * rng.NormFloat64()}
		update[i] = make([]float64, 2)
		gains[i] = []float64{1, 1}
	}

	grad := make([][]float64, n)
	for i := range grad {
		grad[i] = make([]float64, 2)
	}
	q := make([][]float64, n)
	for i := range q {
		q[i] = make([]float64, n)
	}

	for it := 0; it < opts.Iterations; it++ {
		exaggeration, momentum := 1.0, 0.8
		if it < opts.ExaggerationIterations {
			exaggeration, momentum = opts.Exaggeration, 0.5
		}

		// unnormalised Student-t kernel
		parallel.ForEach(n, opts.Workers, func(i int) {
			for j := 0; j < n; j++ {
				if i == j {
					q[i][j] = 0
					continue
				}
				dx, dy := y[i][0]-y[j][0], y[i][1]-y[j][1]
				q[i][j] = 1 / (1 + dx*dx + dy*dy)
			}
		})
		var z float64
		for i := range q {
			z += floats.Sum(q[i])
		}

		parallel.ForEach(n, opts.Workers, func(i int) {
			grad[i][0], grad[i][1] = 0, 0
			for j := 0; j < n; j++ {
				mult := 4 * (exaggeration*p[i][j] - q[i][j]/z) * q[i][j]
				grad[i][0] += mult * (y[i][0] - y[j][0])
				grad[i][1] += mult * (y[i][1] - y[j][1])
			}
		})

		for i := range y {
			for d := 0; d < 2; d++ {
				if (grad[i][d] > 0) != (update[i][d] > 0) {
					gains[i][d] += 0.2
				} else {
					gains[i][d] *= 0.8
				}
				gains[i][d] = math.Max(gains[i][d], 0.01)
				update[i][d] = momentum*update[i][d] - lr*gains[i][d]*grad[i][d]
				y[i][d] += update[i][d]
			}
		}
	}
	return y, nil
}

func learningRate(n int, opts TSNEOptions) float64 {
	if opts.LearningRate > 0 {
		return opts.LearningRate
	}
	exaggeration := opts.Exaggeration
	if exaggeration <= 0 {
		exaggeration = 1
	}
	return math.Max(float64(n)/exaggeration/4, 50)
}

// affinities returns the symmetric joint probabilities P of points.
func affinities(points [][]float64, perplexity float64, workers int) [][]float64 {
	n := len(points)
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	parallel.ForEach(n, workers, func(i int) {
		for j := 0; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j] = d * d
		}
	})

	cond := make([][]float64, n)
	target := math.Log(perplexity)
	parallel.ForEach(n, workers, func(i int) {
		cond[i] = conditional(dist[i], i, target)
	})

	p := make([][]float64, n)
	for i := range p {
		p[i] = make([]float64, n)
		for j := range p[i] {
			p[i][j] = math.Max((cond[i][j]+cond[j][i])/float64(2*n), 1e-12)
		}
	}
	return p
}

// conditional finds by bisection the Gaussian precision for which row i has
// entropy target, and returns the row of conditional probabilities.
func conditional(dist []float64, i int, target float64) []float64 {
	row := make([]float64, len(dist))
	beta, lo, hi := 1.0, math.Inf(-1), math.Inf(1)
	for step := 0; step < 100; step++ {
		var sum, dsum float64
		for j, d := range dist {
			if j == i {
				row[j] = 0
				continue
			}
			row[j] = math.Exp(-d * beta)
			sum += row[j]
			dsum += d * row[j]
		}
		if sum == 0 {
			sum = 1e-12
		}
		entropy := math.Log(sum) + beta*dsum/sum
		floats.Scale(1/sum, row)

		diff := entropy - target
		if math.Abs(diff) < 1e-5 {
			break
		}
		if diff > 0 {
			lo = beta
			if math.IsInf(hi, 1) {
				beta *= 2
			} else {
				beta = (beta + hi) / 2
			}
		} else {
			hi = beta
			if math.IsInf(lo, -1) {
				beta /= 2
			} else {
				beta = (beta + lo) / 2
			}
		}
	}
	return row
}
