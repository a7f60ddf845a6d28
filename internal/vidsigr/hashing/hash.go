package hashing

import (
	"crypto/sha256"
	"hash"
)

// DigestSize is the fixed output size of every digest in the wire format.
const DigestSize = sha256.Size

// Sum returns the digest of data. Used for per-NALU hashes.
func Sum(data []byte) []byte {
	h := sha256.Sum256(data)
	return h[:]
}

// Accumulator computes a running GOP hash over the ordered per-NALU digests
// of the hashable non-SEI units in a GOP.
type Accumulator struct {
	h hash.Hash
	n int
}

func NewAccumulator() *Accumulator {
	return &Accumulator{h: sha256.New()}
}

// Update feeds one per-NALU digest into the running GOP hash.
func (a *Accumulator) Update(digest []byte) {
	a.h.Write(digest)
	a.n++
}

// Count returns the number of digests fed so far.
func (a *Accumulator) Count() int {
	return a.n
}

// Finalize returns the GOP hash and resets the accumulator.
func (a *Accumulator) Finalize() []byte {
	sum := a.h.Sum(nil)
	a.h.Reset()
	a.n = 0
	return sum
}

// GopHash computes the GOP hash over a list of per-NALU digests in one shot.
func GopHash(digests [][]byte) []byte {
	h := sha256.New()
	for _, d := range digests {
		h.Write(d)
	}
	return h.Sum(nil)
}
