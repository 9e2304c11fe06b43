package sine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neurlang/kovae/datasets"
)

func TestGenerateShapeAndRange(t *testing.T) {
	d := Generate(rand.New(rand.NewSource(1)), 50, 24, 5)
	require.NoError(t, d.Check())
	assert.Equal(t, 50, d.Len())
	assert.Equal(t, 24, d.SeqLen())
	assert.Equal(t, 5, d.Dim())
	for _, s := range d {
		for _, row := range s {
			for _, v := range row {
				assert.True(t, v >= 0 && v <= 1, "%v out of range", v)
			}
		}
	}
}

func TestGenerateReproducible(t *testing.T) {
	a := Generate(rand.New(rand.NewSource(10)), 20, 8, 3)
	b := Generate(rand.New(rand.NewSource(10)), 20, 8, 3)
	c := Generate(rand.New(rand.NewSource(11)), 20, 8, 3)
	assert.Equal(t, datasets.Fingerprint(a), datasets.Fingerprint(b))
	assert.NotEqual(t, datasets.Fingerprint(a), datasets.Fingerprint(c))
}
