package parallel

import (
	"crypto/sha256"
	"hash"
	"sync"
)

// Hasher folds n per-item digests into a single sha256 in item order,
// even when the digests arrive out of order from many goroutines.
type Hasher struct {
	mut     sync.Mutex
	sha     hash.Hash
	n       int
	ate     int
	pending map[int][32]byte
}

// NewHashHasher returns a hasher expecting digests for items 0..n-1.
func NewHashHasher(n int) *Hasher {
	return &Hasher{
		sha:     sha256.New(),
		n:       n,
		pending: make(map[int][32]byte),
	}
}

// MustPutHash records the digest of item n. It panics on an out of range or
// duplicate write.
func (h *Hasher) MustPutHash(n int, value [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()

	if n < 0 || n >= h.n {
		panic("hash write out of range")
	}
	if n < h.ate {
		panic("already consumed hash")
	}
	if _, dup := h.pending[n]; dup {
		panic("duplicate hash write")
	}
	h.pending[n] = value

	for {
		v, ok := h.pending[h.ate]
		if !ok {
			break
		}
		h.sha.Write(v[:])
		delete(h.pending, h.ate)
		h.ate++
	}
}

// Sum returns the combined digest. Items never written hash as zeros.
func (h *Hasher) Sum() (ret [32]byte) {
	h.mut.Lock()
	defer h.mut.Unlock()

	for h.ate < h.n {
		v := h.pending[h.ate]
		h.sha.Write(v[:])
		delete(h.pending, h.ate)
		h.ate++
	}
	copy(ret[:], h.sha.Sum(nil))
	return
}
