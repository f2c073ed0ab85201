/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package guesser

// RNG is the source of randomness for every draw. *rand.Rand from
// math/rand/v2 satisfies it.
type RNG interface {
	// IntN returns a non-negative random int in [0, n).
	IntN(n int) int
}

// RandomInts draws count integers in [low, high), independently.
func RandomInts(rng RNG, low, high, count int) ([]int, error) {
	if high <= low {
		return nil, ErrInvalidRange
	}
	if count < 0 {
		return nil, ErrInvalidCount
	}

	out := make([]int, count)
	for i := range out {
		out[i] = low + rng.IntN(high-low)
	}

	return out, nil
}

// SampleWithoutReplacement draws count distinct values from items, keeping
// draw order. Duplicate values in items count once.
func SampleWithoutReplacement[T comparable](rng RNG, items []T, count int) ([]T, error) {
	if count < 0 {
		return nil, ErrInvalidCount
	}

	seen := make(map[T]struct{}, len(items))
	pool := make([]T, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		pool = append(pool, item)
	}

	if count > len(pool) {
		return nil, ErrInsufficientPopulation
	}

	// Partial Fisher-Yates: the first count slots end up as the sample.
	for i := 0; i < count; i++ {
		j := i + rng.IntN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}

	return pool[:count:count], nil
}

// SampleWithReplacement draws count values from items, duplicates allowed.
func SampleWithReplacement[T any](rng RNG, items []T, count int) ([]T, error) {
	if count < 0 {
		return nil, ErrInvalidCount
	}
	if count > 0 && len(items) == 0 {
		return nil, ErrInsufficientPopulation
	}

	out := make([]T, count)
	for i := range out {
		out[i] = items[rng.IntN(len(items))]
	}

	return out, nil
}
