// Package randutil derives reproducible PCG generators for trial workers.
package randutil

import rand "math/rand/v2"

const (
	goldenRatio64 = 0x9e3779b97f4a7c15
)

// New returns a *rand.Rand seeded deterministically from the provided int64.
func New(seed int64) *rand.Rand {
	u := uint64(seed)
	return rand.New(rand.NewPCG(mix(u), mix(u+goldenRatio64)))
}

// Derive returns an independent generator for one stream of a seed, such as
// a worker index or a combo. The same (seed, stream) always yields the same
// sequence.
func Derive(seed int64, stream uint64) *rand.Rand {
	u := mix(uint64(seed) ^ mix(stream+goldenRatio64))
	return rand.New(rand.NewPCG(u, mix(u+goldenRatio64)))
}

// Fork draws a seed from parent and returns a new generator built from it.
func Fork(parent *rand.Rand) *rand.Rand {
	return New(parent.Int64())
}

func mix(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
