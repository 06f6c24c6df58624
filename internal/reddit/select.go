package reddit

import "math/rand"

// Select picks one thread uniformly at random from the pool. The random
// source is injected so tests can pin the sequence. Returns false for an
// empty pool.
func Select(pool []CandidateThread, rng *rand.Rand) (CandidateThread, bool) {
	if len(pool) == 0 {
		return CandidateThread{}, false
	}
	return pool[rng.Intn(len(pool))], true
}
