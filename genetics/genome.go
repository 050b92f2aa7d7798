package genetics

import "math/rand"

// Genome is the fixed set of alleles that governs how an organism mutates.
// Meta.MutateRate and Meta.MutateFactor are the genome's meta parameters:
// they drive the mutation of every allele's own rate and factor.
type Genome struct {
	Meta              Allele `json:"meta"`
	LearningRate      Allele `json:"learning_rate"`
	LearningFactor    Allele `json:"learning_factor"`
	JointMutateRate   Allele `json:"joint_mutate_rate"`
	JointMutateFactor Allele `json:"joint_mutate_factor"`
	BoneMutateRate    Allele `json:"bone_mutate_rate"`
	MuscleMutateRate  Allele `json:"muscle_mutate_rate"`
	InternalClock     Allele `json:"internal_clock"`
}

// NamedAllele pairs an allele with its stable name.
type NamedAllele struct {
	Name   string
	Allele *Allele
}

// DefaultGenome returns the starting genome for hand-authored blueprints.
func DefaultGenome() Genome {
	return Genome{
		Meta:              NewAllele(1.0, 0.2, 0.05),
		LearningRate:      NewAllele(0.1, 0.5, 0.02),
		LearningFactor:    NewAllele(0.5, 0.5, 0.1),
		JointMutateRate:   NewAllele(0.1, 0.5, 0.02),
		JointMutateFactor: NewAllele(5.0, 0.5, 1.0),
		BoneMutateRate:    NewAllele(0.02, 0.5, 0.01),
		MuscleMutateRate:  NewAllele(0.02, 0.5, 0.01),
		InternalClock:     NewAllele(1.0, 0.5, 0.1),
	}
}

// Alleles returns every allele in a fixed order, Meta first.
func (g *Genome) Alleles() []NamedAllele {
	return []NamedAllele{
		{"meta", &g.Meta},
		{"learning_rate", &g.LearningRate},
		{"learning_factor", &g.LearningFactor},
		{"joint_mutate_rate", &g.JointMutateRate},
		{"joint_mutate_factor", &g.JointMutateFactor},
		{"bone_mutate_rate", &g.BoneMutateRate},
		{"muscle_mutate_rate", &g.MuscleMutateRate},
		{"internal_clock", &g.InternalClock},
	}
}

// Mutate runs the two-level mutation: every allele's rate and factor first,
// then every value. The meta rate and factor are read before anything
// changes, so this generation uses the previous generation's meta parameters.
func (g *Genome) Mutate(rng *rand.Rand) {
	metaRate := g.Meta.MutateRate
	metaFactor := g.Meta.MutateFactor

	alleles := g.Alleles()
	for _, na := range alleles {
		na.Allele.Mutate(rng, metaRate, metaFactor)
	}
	for _, na := range alleles {
		na.Allele.MutateValue(rng)
	}
}
