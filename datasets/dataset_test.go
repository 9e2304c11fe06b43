package datasets

import (
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ramp(n, seqLen, dim int) Dataset {
	d := make(Dataset, n)
	for i := range d {
		d[i] = make(Series, seqLen)
		for t := range d[i] {
			d[i][t] = make([]float64, dim)
			for k := range d[i][t] {
				d[i][t][k] = float64(i*1000 + t*10 + k)
			}
		}
	}
	return d
}

func TestShape(t *testing.T) {
	d := ramp(3, 4, 2)
	assert.Equal(t, 3, d.Len())
	assert.Equal(t, 4, d.SeqLen())
	assert.Equal(t, 2, d.Dim())
	require.NoError(t, d.Check())

	d[1] = d[1][:3]
	assert.True(t, errors.Is(d.Check(), ErrShape))

	var empty Dataset
	assert.Equal(t, 0, empty.SeqLen())
	assert.Equal(t, 0, empty.Dim())
}

func TestTimeMajorRoundTrip(t *testing.T) {
	d := ramp(3, 4, 2)
	steps := d.TimeMajor()
	require.Len(t, steps, 4)
	assert.Equal(t, []float64{10, 11, 1010, 1011, 2010, 2011}, steps[1])
	assert.Equal(t, d, FromTimeMajor(steps, 3, 2))
}

func TestStackAndSubset(t *testing.T) {
	d := ramp(4, 2, 1)
	s := Stack(d.Subset([]int{3}), d.Subset([]int{0, 1}))
	assert.Equal(t, Dataset{d[3], d[0], d[1]}, s)
}

func TestMeanOverFeatures(t *testing.T) {
	s := Series{{1, 3}, {2, 2}, {0, 10}}
	assert.Equal(t, []float64{2, 2, 5}, s.MeanOverFeatures())
}

func TestFingerprint(t *testing.T) {
	d := ramp(20, 3, 2)
	assert.Equal(t, Fingerprint(d), Fingerprint(d.Clone()))

	c := d.Clone()
	c[19][2][1] = math.Nextafter(c[19][2][1], math.Inf(1))
	assert.NotEqual(t, c[19][2][1], d[19][2][1])
	assert.NotEqual(t, Fingerprint(d), Fingerprint(c))

	swapped := d.Clone()
	swapped[0], swapped[1] = swapped[1], swapped[0]
	assert.NotEqual(t, Fingerprint(d), Fingerprint(swapped))
}

func TestDropMissing(t *testing.T) {
	d := ramp(50, 10, 3)
	same, mask := DropMissing(rand.New(rand.NewSource(1)), d, 0)
	assert.Nil(t, mask)
	assert.Equal(t, d, same)

	dropped, mask := DropMissing(rand.New(rand.NewSource(1)), d, .3)
	require.NotNil(t, mask)
	var missing, total int
	for i := range dropped {
		for t2 := range dropped[i] {
			for k := range dropped[i][t2] {
				total++
				if mask[i][t2][k] == 0 {
					missing++
					assert.Zero(t, dropped[i][t2][k])
				} else {
					assert.Equal(t, d[i][t2][k], dropped[i][t2][k])
				}
			}
		}
	}
	assert.InDelta(t, .3, float64(missing)/float64(total), .05)
	// the source is untouched
	assert.Equal(t, ramp(50, 10, 3), d)
}

func TestMinMax(t *testing.T) {
	rows := [][]float64{{1, 5}, {3, 5}, {2, 5}}
	var mm MinMax
	mm.Fit(rows)
	mm.Transform(rows)
	assert.InDelta(t, 0, rows[0][0], 1e-6)
	assert.InDelta(t, 1, rows[1][0], 1e-6)
	assert.InDelta(t, .5, rows[2][0], 1e-6)
	assert.Zero(t, rows[0][1])

	mm.Inverse(rows)
	assert.InDelta(t, 3, rows[1][0], 1e-9)
	assert.InDelta(t, 5, rows[1][1], 1e-9)
}

func TestLoaderEpoch(t *testing.T) {
	d := ramp(10, 2, 1)
	l := NewLoader(rand.New(rand.NewSource(1)), d, nil, 4)
	assert.Equal(t, 3, l.Len())

	seen := map[int]int{}
	batches := l.Epoch()
	require.Len(t, batches, 3)
	assert.Equal(t, 2, batches[2].Size())
	for _, b := range batches {
		assert.Nil(t, b.Mask)
		require.Len(t, b.X, 2)
		for r, i := range b.Index {
			seen[i]++
			assert.Equal(t, d[i][1][0], b.X[1][r])
		}
	}
	assert.Len(t, seen, 10)
	for _, n := range seen {
		assert.Equal(t, 1, n)
	}

	l.DropLast = true
	assert.Equal(t, 2, l.Len())
	assert.Len(t, l.Epoch(), 2)
}

func TestLoaderShuffleSeeded(t *testing.T) {
	d := ramp(32, 1, 1)
	a := NewLoader(rand.New(rand.NewSource(5)), d, nil, 8).Epoch()
	b := NewLoader(rand.New(rand.NewSource(5)), d, nil, 8).Epoch()
	assert.Equal(t, a, b)

	l := NewLoader(rand.New(rand.NewSource(5)), d, nil, 8)
	l.Shuffle = false
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5, 6, 7}, l.Epoch()[0].Index)
}

func TestLoaderMask(t *testing.T) {
	d := ramp(6, 2, 2)
	dropped, mask := DropMissing(rand.New(rand.NewSource(3)), d, .5)
	l := NewLoader(rand.New(rand.NewSource(1)), dropped, mask, 3)
	for _, b := range l.Epoch() {
		require.Len(t, b.Mask, 2)
		assert.Len(t, b.Mask[0], 6)
	}
}
