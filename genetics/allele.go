// Package genetics provides the self-adapting mutation parameters carried by every organism.
package genetics

import "math/rand"

// MinAllele is the floor applied to rates, factors and values after mutation.
// Nothing may collapse to zero, otherwise evolution of that parameter stops.
const MinAllele = 0.001

// Allele is a single self-adaptive scalar: a value plus the rate and
// magnitude with which that value mutates.
type Allele struct {
	Value        float32 `json:"value"`
	MutateRate   float32 `json:"mutate_rate"`
	MutateFactor float32 `json:"mutate_factor"`
}

// NewAllele creates an allele with the given value, rate and factor.
func NewAllele(value, rate, factor float32) Allele {
	return Allele{Value: value, MutateRate: rate, MutateFactor: factor}
}

// Mutate perturbs the allele's own rate and factor.
// With probability metaRate both are shifted by U[-metaFactor, metaFactor].
func (a *Allele) Mutate(rng *rand.Rand, metaRate, metaFactor float32) {
	if rng.Float32() >= metaRate {
		return
	}
	a.MutateRate += uniform(rng, metaFactor)
	a.MutateFactor += uniform(rng, metaFactor)

	a.MutateRate = clamp(a.MutateRate, MinAllele, 1)
	if a.MutateFactor < MinAllele {
		a.MutateFactor = MinAllele
	}
}

// MutateValue perturbs Value by U[-MutateFactor, MutateFactor] with probability MutateRate.
func (a *Allele) MutateValue(rng *rand.Rand) {
	if rng.Float32() >= a.MutateRate {
		return
	}
	a.Value += uniform(rng, a.MutateFactor)
	if a.Value < MinAllele {
		a.Value = MinAllele
	}
}

// uniform draws from U[-f, f].
func uniform(rng *rand.Rand, f float32) float32 {
	return (rng.Float32()*2 - 1) * f
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
