// Package datasets implements the time-series dataset type, its loaders and
// the batch iterator feeding the model.
package datasets

import "crypto/sha256"
import "encoding/binary"
import "math"
import "math/rand"

import "github.com/pkg/errors"

import "github.com/neurlang/kovae/parallel"

// ErrShape reports sequences of inconsistent length or width.
var ErrShape = errors.New("inconsistent dataset shape")

// Series is one sequence, indexed [time][feature].
type Series [][]float64

// Dataset is a set of equally shaped series.
type Dataset []Series

// Len is the number of series.
func (d Dataset) Len() int {
	return len(d)
}

// SeqLen is the number of time steps of each series.
func (d Dataset) SeqLen() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0])
}

// Dim is the number of features of each time step.
func (d Dataset) Dim() int {
	if len(d) == 0 || len(d[0]) == 0 {
		return 0
	}
	return len(d[0][0])
}

// Check verifies every series has the shape of the first one.
func (d Dataset) Check() error {
	seqLen, dim := d.SeqLen(), d.Dim()
	for i, s := range d {
		if len(s) != seqLen {
			return errors.Wrapf(ErrShape, "series %d has %d steps, want %d", i, len(s), seqLen)
		}
		for t, row := range s {
			if len(row) != dim {
				return errors.Wrapf(ErrShape, "series %d step %d has %d features, want %d", i, t, len(row), dim)
			}
		}
	}
	return nil
}

// Clone deep copies the dataset.
func (d Dataset) Clone() Dataset {
	o := make(Dataset, len(d))
	for i, s := range d {
		o[i] = make(Series, len(s))
		for t, row := range s {
			o[i][t] = append([]float64(nil), row...)
		}
	}
	return o
}

// Subset returns the series at idx, sharing storage with d.
func (d Dataset) Subset(idx []int) Dataset {
	o := make(Dataset, len(idx))
	for i, j := range idx {
		o[i] = d[j]
	}
	return o
}

// Stack concatenates datasets in order.
func Stack(parts ...Dataset) Dataset {
	var n int
	for _, p := range parts {
		n += len(p)
	}
	o := make(Dataset, 0, n)
	for _, p := range parts {
		o = append(o, p...)
	}
	return o
}

// TimeMajor lays the dataset out as one row-major len×dim block per time step,
// the input layout of the recurrent graphs.
func (d Dataset) TimeMajor() [][]float64 {
	n, seqLen, dim := d.Len(), d.SeqLen(), d.Dim()
	o := make([][]float64, seqLen)
	for t := range o {
		o[t] = make([]float64, n*dim)
		for i := range d {
			copy(o[t][i*dim:(i+1)*dim], d[i][t])
		}
	}
	return o
}

// FromTimeMajor is the inverse of TimeMajor.
func FromTimeMajor(steps [][]float64, n, dim int) Dataset {
	o := make(Dataset, n)
	for i := range o {
		o[i] = make(Series, len(steps))
		for t := range steps {
			o[i][t] = append([]float64(nil), steps[t][i*dim:(i+1)*dim]...)
		}
	}
	return o
}

// MeanOverFeatures averages each time step over its features.
func (s Series) MeanOverFeatures() []float64 {
	o := make([]float64, len(s))
	for t, row := range s {
		var sum float64
		for _, v := range row {
			sum += v
		}
		if len(row) > 0 {
			o[t] = sum / float64(len(row))
		}
	}
	return o
}

// Fingerprint is an order sensitive digest of every value in d.
func Fingerprint(d Dataset) [32]byte {
	h := parallel.NewHashHasher(len(d))
	parallel.ForEach(len(d), 8, func(i int) {
		var buf [8]byte
		sha := sha256.New()
		for _, row := range d[i] {
			for _, v := range row {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				sha.Write(buf[:])
			}
		}
		var sum [32]byte
		copy(sum[:], sha.Sum(nil))
		h.MustPutHash(i, sum)
	})
	return h.Sum()
}

// DropMissing zeroes a rate fraction of the observations of a copy of d and
// returns it with the observation mask (1 observed, 0 missing). A zero rate
// returns d and a nil mask.
func DropMissing(rng *rand.Rand, d Dataset, rate float64) (Dataset, Dataset) {
	if rate <= 0 {
		return d, nil
	}
	o := d.Clone()
	mask := make(Dataset, len(o))
	for i, s := range o {
		mask[i] = make(Series, len(s))
		for t, row := range s {
			mask[i][t] = make([]float64, len(row))
			for k := range row {
				if rng.Float64() < rate {
					row[k] = 0
				} else {
					mask[i][t][k] = 1
				}
			}
		}
	}
	return o, mask
}
