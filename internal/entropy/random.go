// Package entropy provides the seedable random source every stochastic
// decision in the simulation draws from.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
)

// Source is a deterministic random source. It is not safe for concurrent use.
type Source struct {
	seed int64
	rng  *mrand.Rand
}

// New returns a source seeded with seed. A zero seed picks one from crypto/rand.
func New(seed int64) *Source {
	if seed == 0 {
		seed = CryptoSeed()
	}
	return &Source{seed: seed, rng: mrand.New(mrand.NewSource(seed))}
}

// Seed returns the seed the source was created with.
func (s *Source) Seed() int64 {
	return s.seed
}

// Rand exposes the underlying generator for APIs that take a *rand.Rand.
func (s *Source) Rand() *mrand.Rand {
	return s.rng
}

// Float64 returns a uniform value in [0, 1).
func (s *Source) Float64() float64 {
	return s.rng.Float64()
}

// Intn returns a uniform value in [0, n). It returns 0 when n <= 0.
func (s *Source) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return s.rng.Intn(n)
}

// Int63 returns a non-negative 63-bit value.
func (s *Source) Int63() int64 {
	return s.rng.Int63()
}

// Shuffle permutes n elements using swap.
func (s *Source) Shuffle(n int, swap func(i, j int)) {
	s.rng.Shuffle(n, swap)
}

// Round rounds v up with probability equal to its fractional part, so the
// expected value of Round(v) is v.
func (s *Source) Round(v float64) int {
	return int(math.Floor(v + s.rng.Float64()))
}

// CryptoSeed returns a non-zero seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// crypto/rand does not fail on supported platforms.
		return 1
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		seed = 1
	}
	return seed
}
