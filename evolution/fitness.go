package evolution

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Scores holds the per-organism scores of one finished generation.
// Progress and Efficiency are normalized by their own maximum.
type Scores struct {
	Fitness    []float64
	Progress   []float64
	Efficiency []float64
}

// Fitness combines locomotion progress and energy efficiency into one
// score per organism.
//
// Progress is max(0, displacement), with NaN treated as 0. Efficiency is
// 1/(1+energy). Each vector is divided by its largest absolute value. When
// no organism made progress the whole fitness vector is zero, so that an
// idle population is not ranked by efficiency alone.
func Fitness(displacement, energy []float32, progressWeight, efficiencyWeight float64) Scores {
	n := len(displacement)
	s := Scores{
		Fitness:    make([]float64, n),
		Progress:   make([]float64, n),
		Efficiency: make([]float64, n),
	}
	if n == 0 {
		return s
	}

	for i, d := range displacement {
		p := float64(d)
		if math.IsNaN(p) || p < 0 {
			p = 0
		}
		s.Progress[i] = p
		s.Efficiency[i] = 1 / (1 + float64(energy[i]))
	}

	normalize(s.Progress)
	normalize(s.Efficiency)

	if floats.Max(s.Progress) == 0 {
		return s
	}
	floats.ScaleTo(s.Fitness, progressWeight, s.Progress)
	floats.AddScaled(s.Fitness, efficiencyWeight, s.Efficiency)
	return s
}

// normalize divides x by its infinity norm in place. A zero or
// non-finite norm leaves x zeroed.
func normalize(x []float64) {
	m := floats.Norm(x, math.Inf(1))
	if m == 0 || math.IsInf(m, 0) || math.IsNaN(m) {
		for i := range x {
			x[i] = 0
		}
		return
	}
	floats.Scale(1/m, x)
}
