// Package sample draws study runs from a card pool. It has the uniform
// shuffle and truncated-sample primitives, the failure-ratio priority model
// and the two adaptive selection strategies built on them.
//
// Every function is pure with respect to its inputs: slices passed in are
// never modified. Randomness comes from an injected Source so that a
// scripted sequence reproduces an exact result.
package sample

import "math/rand/v2"

// Source yields uniform values in [0, 1). *math/rand.Rand and
// *math/rand/v2.Rand both satisfy it.
type Source interface {
	Float64() float64
}

// SourceFunc adapts a plain function to Source.
type SourceFunc func() float64

// Float64 calls f.
func (f SourceFunc) Float64() float64 { return f() }

// Default draws from the process-wide generator.
var Default Source = SourceFunc(rand.Float64)

// Shuffle returns a new slice holding a uniform permutation of items.
// It is a Fisher-Yates pass from the last index down to 1 with one draw
// per step, so a fixed Source always yields the same permutation.
func Shuffle[T any](items []T, rng Source) []T {
	if rng == nil {
		rng = Default
	}
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := int(rng.Float64() * float64(i+1))
		if j > i {
			j = i
		}
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// SampleN returns min(n, len(items)) distinct elements of items chosen
// uniformly at random. It returns an empty slice when n <= 0.
func SampleN[T any](items []T, n int, rng Source) []T {
	if n <= 0 {
		return []T{}
	}
	shuffled := Shuffle(items, rng)
	return shuffled[:min(n, len(shuffled))]
}
