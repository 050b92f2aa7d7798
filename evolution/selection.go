package evolution

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// DefaultSelectionSweeps caps acceptance sweeps when Options leaves it unset.
const DefaultSelectionSweeps = 100

// Select picks exactly size parent indices into fitness.
//
// The population is swept repeatedly, accepting index i with probability
// min(1, |fitness[i]|) on every sweep, until ceil(size/2) parents are
// accepted. An index may be accepted more than once, so its share of the
// accepted set follows its fitness. Each sweep starts at a random index
// so no position is favored when the target is hit mid-sweep. When every
// fitness is zero all indices are accepted in one sweep. If maxSweeps pass
// without reaching the target the rest is filled with the fittest index.
// The accepted set is then resampled uniformly with replacement up to size.
func Select(rng *rand.Rand, fitness []float64, size, maxSweeps int) []int {
	n := len(fitness)
	if n == 0 || size <= 0 {
		return nil
	}
	if maxSweeps <= 0 {
		maxSweeps = DefaultSelectionSweeps
	}

	target := (size + 1) / 2

	accepted := make([]int, 0, size)
	if floats.Norm(fitness, math.Inf(1)) == 0 {
		for i := range fitness {
			accepted = append(accepted, i)
		}
	} else {
	sweeps:
		for sweep := 0; sweep < maxSweeps; sweep++ {
			start := rng.Intn(n)
			for k := 0; k < n; k++ {
				i := (start + k) % n
				if rng.Float64() < math.Abs(fitness[i]) {
					accepted = append(accepted, i)
					if len(accepted) == target {
						break sweeps
					}
				}
			}
		}
		best := floats.MaxIdx(fitness)
		for len(accepted) < target {
			accepted = append(accepted, best)
		}
	}

	if len(accepted) >= size {
		rng.Shuffle(len(accepted), func(i, j int) {
			accepted[i], accepted[j] = accepted[j], accepted[i]
		})
		return accepted[:size]
	}

	parents := accepted
	k := len(accepted)
	for len(parents) < size {
		parents = append(parents, accepted[rng.Intn(k)])
	}
	return parents
}
