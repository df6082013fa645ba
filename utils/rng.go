package utils

import (
	"math/rand/v2"
)

// DeriveSeed mixes a parent seed and a stream number into an independent seed
// using the SplitMix64 finalizer
func DeriveSeed(parent, stream uint64) uint64 {
	x := parent ^ (stream + 0x9e3779b97f4a7c15)
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// NewStream returns a PCG source for one stream of a seeded family. Sources are not
// safe for concurrent use; give each goroutine its own stream.
func NewStream(seed, stream uint64) *rand.PCG {
	return rand.NewPCG(DeriveSeed(seed, stream), DeriveSeed(^seed, stream))
}
