// Package main tunes trainer parameters with CMA-ES: each candidate config
// trains short populations headless and is scored by how far they walk.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/gait/config"
)

type options struct {
	configPath  string
	generations int
	window      int
	seeds       int
	maxEvals    int
	population  int
	outputDir   string
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Base config YAML file (empty = use defaults)")
	flag.IntVar(&opts.generations, "generations", 10, "Generations trained per run")
	flag.IntVar(&opts.window, "window", 3, "Final generations scored per run")
	flag.IntVar(&opts.seeds, "seeds", 3, "Number of seeds per evaluation")
	flag.IntVar(&opts.maxEvals, "max-evals", 200, "Maximum number of evaluations")
	flag.IntVar(&opts.population, "population", 0, "CMA-ES population size (0 = auto)")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(opts); err != nil {
		slog.Error("tuning failed", "error", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if opts.outputDir == "" {
		return errors.New("-output is required")
	}
	if opts.generations < 1 {
		return errors.New("-generations must be at least 1")
	}
	if err := os.MkdirAll(opts.outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	params := NewParamVector()
	seeds := make([]int64, opts.seeds)
	for i := range seeds {
		seeds[i] = int64(i*1000 + 42)
	}
	evaluator := NewFitnessEvaluator(params, opts.generations, opts.window, seeds, baseCfg, scratchPath(opts.outputDir))

	tl, err := newTuneLog(filepath.Join(opts.outputDir, "optimize_log.csv"), params, opts.maxEvals)
	if err != nil {
		return err
	}
	defer tl.Close()

	popSize := opts.population
	if popSize == 0 {
		popSize = 4 + 3*params.Dim()/2
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Denormalize(x)
			fitness := evaluator.Evaluate(raw)
			tl.record(raw, fitness, evaluator.LastProgress())
			return fitness
		},
	}
	settings := &optimize.Settings{
		FuncEvaluations: opts.maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}
	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}

	slog.Info("starting tuning",
		"params", params.Dim(),
		"population", popSize,
		"max_evals", opts.maxEvals,
		"seeds", opts.seeds,
		"generations", opts.generations,
		"window", opts.window,
	)

	result, err := optimize.Minimize(problem, params.Normalize(params.ExtractFromConfig(baseCfg)), settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	best := tl.bestParams
	if best == nil {
		if result == nil {
			return errors.New("no evaluation completed")
		}
		best = params.Clamp(params.Denormalize(result.X))
	}

	attrs := []any{"evals", tl.evals, "best_progress", -tl.bestFitness}
	for i, spec := range params.Specs {
		attrs = append(attrs, spec.Name, best[i])
	}
	slog.Info("tuning complete", attrs...)

	return writeResults(opts.outputDir, baseCfg, params, best, evaluator)
}

// writeResults saves the best config and the generation stats of its best run.
func writeResults(dir string, baseCfg *config.Config, params *ParamVector, best []float64, fe *FitnessEvaluator) error {
	bestCfg := baseCfg.Clone()
	params.ApplyToConfig(bestCfg, best)
	if err := bestCfg.WriteYAML(filepath.Join(dir, "best_config.yaml")); err != nil {
		return err
	}

	stats := fe.BestStats()
	if len(stats) == 0 {
		return nil
	}
	f, err := os.Create(filepath.Join(dir, "best_generations.csv"))
	if err != nil {
		return fmt.Errorf("creating best run stats: %w", err)
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&stats, f); err != nil {
		return fmt.Errorf("writing best run stats: %w", err)
	}
	return nil
}
