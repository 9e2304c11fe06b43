package parallel

import (
	"crypto/sha256"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

// hasher test
func TestHasherOrderIndependent(t *testing.T) {
	digest := func(i int) [32]byte {
		return sha256.Sum256([]byte{byte(i), byte(i >> 8)})
	}

	seq := NewHashHasher(100)
	for i := 0; i < 100; i++ {
		seq.MustPutHash(i, digest(i))
	}

	par := NewHashHasher(100)
	ForEach(100, 8, func(i int) {
		par.MustPutHash(99-i, digest(99-i))
	})

	assert.Equal(t, seq.Sum(), par.Sum())
}

func TestHasherDetectsOrder(t *testing.T) {
	a := NewHashHasher(2)
	a.MustPutHash(0, [32]byte{1})
	a.MustPutHash(1, [32]byte{2})

	b := NewHashHasher(2)
	b.MustPutHash(0, [32]byte{2})
	b.MustPutHash(1, [32]byte{1})

	assert.NotEqual(t, a.Sum(), b.Sum())
}

func TestHasherDuplicatePanics(t *testing.T) {
	h := NewHashHasher(3)
	h.MustPutHash(2, [32]byte{})
	assert.Panics(t, func() { h.MustPutHash(2, [32]byte{}) })
}

func TestForEachVisitsAll(t *testing.T) {
	for _, limit := range []int{0, 1, 3, 1000} {
		var seen [257]atomic.Int32
		ForEach(len(seen), limit, func(i int) {
			seen[i].Add(1)
		})
		for i := range seen {
			assert.Equal(t, int32(1), seen[i].Load(), "limit %d index %d", limit, i)
		}
	}
}
