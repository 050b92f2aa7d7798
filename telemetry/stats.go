package telemetry

import (
	"log/slog"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gait/evolution"
)

// GenerationStats holds aggregated statistics for one finished generation.
type GenerationStats struct {
	Generation uint32 `csv:"generation"`
	Size       int    `csv:"size"`

	// Fitness distribution
	FitnessMean float64 `csv:"fitness_mean"`
	FitnessStd  float64 `csv:"fitness_std"`
	FitnessP10  float64 `csv:"fitness_p10"`
	FitnessP50  float64 `csv:"fitness_p50"`
	FitnessP90  float64 `csv:"fitness_p90"`
	FitnessMax  float64 `csv:"fitness_max"`

	// Raw scores before normalization
	DisplacementMean float64 `csv:"displacement_mean"`
	DisplacementMax  float64 `csv:"displacement_max"`
	EnergyMean       float64 `csv:"energy_mean"`

	// Selection
	Best          int `csv:"best"`
	UniqueParents int `csv:"unique_parents"`
	BestOffspring int `csv:"best_offspring"`
	StaleSkips    int `csv:"stale_skips"`

	// Morphology of the next generation
	JointsMean  float64 `csv:"joints_mean"`
	BonesMean   float64 `csv:"bones_mean"`
	MusclesMean float64 `csv:"muscles_mean"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// Distribution summarizes a sample.
type Distribution struct {
	Mean, Std     float64
	P10, P50, P90 float64
	Max           float64
}

// Summarize computes mean, population std, percentiles and max.
// NaN values are dropped first.
func Summarize(values []float64) Distribution {
	clean := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) {
			clean = append(clean, v)
		}
	}
	if len(clean) == 0 {
		return Distribution{}
	}

	var d Distribution
	d.Mean, d.Std = stat.PopMeanStdDev(clean, nil)
	d.Max = floats.Max(clean)

	sort.Float64s(clean)
	d.P10 = Percentile(clean, 0.10)
	d.P50 = Percentile(clean, 0.50)
	d.P90 = Percentile(clean, 0.90)
	return d
}

// FromReport aggregates a generation report.
func FromReport(r evolution.GenerationReport) GenerationStats {
	s := GenerationStats{
		Generation: r.Generation,
		Size:       len(r.Scores.Fitness),
		Best:       r.Best,
		StaleSkips: r.Stale,
	}

	fit := Summarize(r.Scores.Fitness)
	s.FitnessMean, s.FitnessStd = fit.Mean, fit.Std
	s.FitnessP10, s.FitnessP50, s.FitnessP90 = fit.P10, fit.P50, fit.P90
	s.FitnessMax = fit.Max

	disp := Summarize(widen(r.Displacement))
	s.DisplacementMean, s.DisplacementMax = disp.Mean, disp.Max
	s.EnergyMean = Summarize(widen(r.EnergyUsed)).Mean

	parents := make(map[int]bool, len(r.Parents))
	for _, p := range r.Parents {
		parents[p] = true
		if p == r.Best {
			s.BestOffspring++
		}
	}
	s.UniqueParents = len(parents)

	if n := len(r.Next); n > 0 {
		joints, bones, muscles := make([]float64, n), make([]float64, n), make([]float64, n)
		for i, bp := range r.Next {
			joints[i] = float64(len(bp.Joints))
			bones[i] = float64(len(bp.Bones))
			muscles[i] = float64(len(bp.Muscles))
		}
		s.JointsMean = stat.Mean(joints, nil)
		s.BonesMean = stat.Mean(bones, nil)
		s.MusclesMean = stat.Mean(muscles, nil)
	}
	return s
}

func widen(x []float32) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = float64(v)
	}
	return out
}

// LogValue implements slog.LogValuer for structured logging.
func (s GenerationStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("generation", int(s.Generation)),
		slog.Int("size", s.Size),
		slog.Float64("fitness_mean", s.FitnessMean),
		slog.Float64("fitness_std", s.FitnessStd),
		slog.Float64("fitness_p10", s.FitnessP10),
		slog.Float64("fitness_p50", s.FitnessP50),
		slog.Float64("fitness_p90", s.FitnessP90),
		slog.Float64("fitness_max", s.FitnessMax),
		slog.Float64("displacement_mean", s.DisplacementMean),
		slog.Float64("displacement_max", s.DisplacementMax),
		slog.Float64("energy_mean", s.EnergyMean),
		slog.Int("best", s.Best),
		slog.Int("unique_parents", s.UniqueParents),
		slog.Int("best_offspring", s.BestOffspring),
		slog.Int("stale_skips", s.StaleSkips),
		slog.Float64("joints_mean", s.JointsMean),
		slog.Float64("bones_mean", s.BonesMean),
		slog.Float64("muscles_mean", s.MusclesMean),
	)
}

// LogStats logs the headline numbers using slog.
func (s GenerationStats) LogStats() {
	slog.Info("generation",
		"generation", s.Generation,
		"size", s.Size,
		"fitness_max", s.FitnessMax,
		"fitness_mean", s.FitnessMean,
		"displacement_max", s.DisplacementMax,
		"unique_parents", s.UniqueParents,
		"muscles_mean", s.MusclesMean,
		"stale_skips", s.StaleSkips,
	)
}
