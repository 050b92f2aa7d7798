package main

import (
	"fmt"
	"log/slog"
	"math"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/gait/config"
	"github.com/pthm-cable/gait/game"
	"github.com/pthm-cable/gait/telemetry"
)

// FitnessEvaluator runs short headless training runs and scores how far
// the population learns to walk.
type FitnessEvaluator struct {
	params      *ParamVector
	generations int
	window      int
	seeds       []int64
	baseConfig  *config.Config
	scratchDir  string

	mu           sync.Mutex
	bestFitness  float64
	bestStats    []telemetry.GenerationStats
	lastProgress float64 // progress from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Each run trains for the given
// number of generations; the last window of them is scored.
func NewFitnessEvaluator(params *ParamVector, generations, window int, seeds []int64, baseCfg *config.Config, scratchDir string) *FitnessEvaluator {
	window = min(max(window, 1), max(generations, 1))
	return &FitnessEvaluator{
		params:      params,
		generations: generations,
		window:      window,
		seeds:       seeds,
		baseConfig:  baseCfg,
		scratchDir:  scratchDir,
		bestFitness: math.Inf(1),
	}
}

// BestStats returns the generation stats of the best seed of the best evaluation.
func (fe *FitnessEvaluator) BestStats() []telemetry.GenerationStats {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.bestStats
}

// LastProgress returns the mean scored displacement of the most recent evaluation.
func (fe *FitnessEvaluator) LastProgress() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastProgress
}

// seedResult holds the result from one seed evaluation.
type seedResult struct {
	progress float64
	stats    []telemetry.GenerationStats
	err      error
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Fitness is the negative mean progress across seeds.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := fe.configFor(x)
	if err != nil {
		slog.Warn("rejected parameters", "error", err)
		return math.Inf(1)
	}

	// Run all seeds in parallel
	results := make([]seedResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runTraining(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var total float64
	var scored int
	bestSeed := -1
	for i, r := range results {
		if r.err != nil {
			slog.Warn("training run failed", "seed", fe.seeds[i], "error", r.err)
			continue
		}
		total += r.progress
		scored++
		if bestSeed < 0 || r.progress > results[bestSeed].progress {
			bestSeed = i
		}
	}
	if scored == 0 {
		return math.Inf(1)
	}

	progress := total / float64(scored)
	fitness := -progress

	fe.mu.Lock()
	if fitness < fe.bestFitness {
		fe.bestFitness = fitness
		fe.bestStats = results[bestSeed].stats
	}
	fe.lastProgress = progress
	fe.mu.Unlock()

	return fitness
}

// configFor builds the run config for a raw parameter vector.
func (fe *FitnessEvaluator) configFor(x []float64) (*config.Config, error) {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	// Training runs share nothing: no persistence, no metrics, one brain
	// worker each since seeds already run in parallel.
	cfg.Save.Every = 0
	cfg.Save.Load = false
	cfg.Save.LoadPath = ""
	cfg.Save.Backend = "file"
	cfg.Save.Dir = fe.scratchDir
	cfg.Telemetry.MetricsAddr = ""
	cfg.Parallel.Workers = 1

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runTraining trains one population and scores its last generations.
func (fe *FitnessEvaluator) runTraining(cfg *config.Config, seed int64) seedResult {
	var stats []telemetry.GenerationStats
	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		StepsPerUpdate: 1,
		StatsCallback: func(s telemetry.GenerationStats) {
			stats = append(stats, s)
		},
	})
	if err != nil {
		return seedResult{err: fmt.Errorf("seed %d: %w", seed, err)}
	}
	defer g.Unload()

	for len(stats) < fe.generations {
		g.UpdateHeadless()
	}

	return seedResult{
		progress: scoreProgress(stats, fe.window),
		stats:    stats,
	}
}

// scoreProgress is the mean best displacement over the last window
// generations. Displacement is raw distance, so it stays comparable across
// fitness weightings.
func scoreProgress(stats []telemetry.GenerationStats, window int) float64 {
	if len(stats) == 0 || window < 1 {
		return 0
	}
	tail := stats[max(len(stats)-window, 0):]
	best := make([]float64, len(tail))
	for i, s := range tail {
		best[i] = s.DisplacementMax
	}
	return stat.Mean(best, nil)
}

// scratchPath is where throwaway training runs keep their store directory.
func scratchPath(outputDir string) string {
	return filepath.Join(outputDir, "scratch")
}
