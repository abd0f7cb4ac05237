package quiz

import (
	"math/rand"
	"time"
)

// shuffle permutes items in place with Fisher–Yates.
func shuffle[T any](items []T, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}

// shuffledIDs returns ids in a uniformly random order without touching ids.
func shuffledIDs(ids []int, rng *rand.Rand) []int {
	out := make([]int, len(ids))
	copy(out, ids)
	shuffle(out, rng)
	return out
}

func newRand() *rand.Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
