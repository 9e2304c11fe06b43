package metrics

import (
	"context"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/kovae/datasets"
	"github.com/neurlang/kovae/datasets/sine"
)

func constant(n, seqLen, dim int, v float64) datasets.Dataset {
	d := make(datasets.Dataset, n)
	for i := range d {
		d[i] = make(datasets.Series, seqLen)
		for t := range d[i] {
			d[i][t] = make([]float64, dim)
			for j := range d[i][t] {
				d[i][t][j] = v
			}
		}
	}
	return d
}

func quick(iterations int) Options {
	return Options{Iterations: iterations, BatchSize: 16, LR: 1e-2}
}

func TestDiscriminativeSeparatesObviousFakes(t *testing.T) {
	ori := sine.Generate(rand.New(rand.NewSource(1)), 60, 6, 2)
	gen := constant(60, 6, 2, 0)

	score, err := Discriminative(context.Background(), rand.New(rand.NewSource(2)), ori, gen, quick(300))
	require.NoError(t, err)
	assert.Greater(t, score, 0.3)
	assert.LessOrEqual(t, score, 0.5)
}

func TestDiscriminativeReproducible(t *testing.T) {
	ori := sine.Generate(rand.New(rand.NewSource(1)), 30, 4, 2)
	gen := sine.Generate(rand.New(rand.NewSource(3)), 30, 4, 2)

	a, err := Discriminative(context.Background(), rand.New(rand.NewSource(7)), ori, gen, quick(20))
	require.NoError(t, err)
	b, err := Discriminative(context.Background(), rand.New(rand.NewSource(7)), ori, gen, quick(20))
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.GreaterOrEqual(t, a, 0.0)
}

func TestPredictive(t *testing.T) {
	ori := sine.Generate(rand.New(rand.NewSource(1)), 40, 6, 3)

	mae, err := Predictive(context.Background(), rand.New(rand.NewSource(2)), ori, ori, quick(200))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, mae, 0.0)
	assert.Less(t, mae, 0.25)

	again, err := Predictive(context.Background(), rand.New(rand.NewSource(2)), ori, ori, quick(200))
	require.NoError(t, err)
	assert.Equal(t, mae, again)
}

func TestPredictiveNeedsTwoFeatures(t *testing.T) {
	d := constant(10, 4, 1, .5)
	_, err := Predictive(context.Background(), rand.New(rand.NewSource(1)), d, d, quick(1))
	assert.True(t, errors.Is(err, ErrTooFewFeatures), "%v", err)
}

func TestShapeMismatch(t *testing.T) {
	a := constant(10, 4, 2, .5)
	b := constant(10, 5, 2, .5)
	_, err := Discriminative(context.Background(), rand.New(rand.NewSource(1)), a, b, quick(1))
	assert.True(t, errors.Is(err, datasets.ErrShape), "%v", err)

	_, err = Predictive(context.Background(), rand.New(rand.NewSource(1)), a, a, Options{})
	assert.Error(t, err)
}

func TestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := constant(10, 4, 2, .5)
	_, err := Discriminative(ctx, rand.New(rand.NewSource(1)), d, d, quick(5))
	assert.True(t, errors.Is(err, context.Canceled), "%v", err)
}

func TestSummarize(t *testing.T) {
	for _, tc := range []struct {
		in   []float64
		want Summary
	}{
		{[]float64{1, 2, 3, 4}, Summary{Mean: 2.5, Std: 1.118}},
		{[]float64{0.12344, 0.12344}, Summary{Mean: 0.1234, Std: 0}},
		{[]float64{0.5}, Summary{Mean: 0.5, Std: 0}},
	} {
		assert.Equal(t, tc.want, Summarize(tc.in))
	}
	assert.True(t, Summarize(nil).Mean != Summarize(nil).Mean)
}
