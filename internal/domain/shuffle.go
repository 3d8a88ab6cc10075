package domain

// mulberry32 is a tiny 32-bit mixing PRNG. The exact bit pattern matters:
// question order must be reproducible across processes and platforms for
// the lifetime of an attempt, so the generator is fixed here rather than
// delegated to math/rand.
func mulberry32(seed uint32) func() float64 {
	state := seed
	return func() float64 {
		state += 0x6d2b79f5
		t := state
		t = (t ^ (t >> 15)) * (t | 1)
		t ^= t + (t^(t>>7))*(t|61)
		return float64(t^(t>>14)) / 4294967296
	}
}

// SeedFromString reduces a string to a shuffle seed by summing the code
// point of every character. A plain checksum: different strings may
// collide, which is acceptable for ordering purposes.
func SeedFromString(s string) uint32 {
	var sum uint32
	for _, r := range s {
		sum += uint32(r)
	}
	return sum
}

// ShuffleQuestionOrder returns a deterministic permutation of ids for the
// given seed using a Fisher-Yates shuffle. The input is never mutated;
// sequences of length <= 1 come back as an unchanged copy.
func ShuffleQuestionOrder(ids []string, seed uint32) []string {
	result := make([]string, len(ids))
	copy(result, ids)
	if len(result) <= 1 {
		return result
	}

	random := mulberry32(seed)
	for i := len(result) - 1; i > 0; i-- {
		j := int(random() * float64(i+1))
		result[i], result[j] = result[j], result[i]
	}
	return result
}
