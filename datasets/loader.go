package datasets

import "math/rand"

import "github.com/neurlang/kovae/parallel"

// Batch is one minibatch, laid out time major.
type Batch struct {
	// Index holds the dataset positions of the batch rows.
	Index []int
	// X and Mask hold seq_len blocks of len(Index)×dim values.
	X    [][]float64
	Mask [][]float64
}

// Size is the number of series in the batch.
func (b Batch) Size() int {
	return len(b.Index)
}

// Loader iterates a dataset in minibatches.
type Loader struct {
	data, mask Dataset

	BatchSize int
	Shuffle   bool
	DropLast  bool
	Workers   int

	rng *rand.Rand
}

// NewLoader creates a shuffling loader over data. mask may be nil.
func NewLoader(rng *rand.Rand, data, mask Dataset, batchSize int) *Loader {
	return &Loader{
		data:      data,
		mask:      mask,
		BatchSize: batchSize,
		Shuffle:   true,
		Workers:   4,
		rng:       rng,
	}
}

// Data returns the underlying dataset.
func (l *Loader) Data() Dataset {
	return l.data
}

// Len is the number of batches in one epoch.
func (l *Loader) Len() int {
	if l.BatchSize <= 0 {
		return 0
	}
	n := len(l.data) / l.BatchSize
	if !l.DropLast && len(l.data)%l.BatchSize != 0 {
		n++
	}
	return n
}

// Epoch returns the batches of one pass over the data. Every series appears
// exactly once, except for the dropped tail when DropLast is set.
func (l *Loader) Epoch() []Batch {
	var order []int
	if l.Shuffle {
		order = l.rng.Perm(len(l.data))
	} else {
		order = make([]int, len(l.data))
		for i := range order {
			order[i] = i
		}
	}

	batches := make([]Batch, l.Len())
	parallel.ForEach(len(batches), l.Workers, func(b int) {
		lo := b * l.BatchSize
		hi := lo + l.BatchSize
		if hi > len(order) {
			hi = len(order)
		}
		idx := order[lo:hi]
		batches[b] = Batch{
			Index: idx,
			X:     l.data.Subset(idx).TimeMajor(),
		}
		if l.mask != nil {
			batches[b].Mask = l.mask.Subset(idx).TimeMajor()
		}
	})
	return batches
}
