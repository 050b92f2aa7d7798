// Package game drives headless training runs: it wires the config, the
// reference physics world, the generation scheduler, persistence and
// telemetry together and advances them one tick at a time.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/pthm-cable/gait/config"
	"github.com/pthm-cable/gait/evolution"
	"github.com/pthm-cable/gait/physics"
	"github.com/pthm-cable/gait/storage"
	"github.com/pthm-cable/gait/telemetry"
)

// Options configures a Game beyond the loaded config.
type Options struct {
	Config         *config.Config // nil = config.Cfg()
	Seed           int64          // 0 = generation.seed, then time based
	LogStats       bool           // log generation and perf stats via slog
	OutputDir      string         // CSV logs and config snapshot; empty disables
	StepsPerUpdate int            // ticks per UpdateHeadless call
	StatsCallback  func(telemetry.GenerationStats)
}

// Game holds the complete training state.
type Game struct {
	cfg *config.Config
	rng *rand.Rand
	dt  float32

	world     *physics.World
	scheduler *evolution.Scheduler
	store     storage.Store

	// Telemetry
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	metrics       *telemetry.Metrics
	statsCallback func(telemetry.GenerationStats)
	lastStats     telemetry.GenerationStats
	logStats      bool

	ctx    context.Context
	cancel context.CancelFunc

	tick           int64
	rngSeed        int64
	stepsPerUpdate int
}

// NewGameWithOptions builds a game ready to run. Persistence and output
// failures are returned; a failed population load falls back to the preset.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	seed := opts.Seed
	if seed == 0 {
		seed = cfg.Generation.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		cfg:            cfg,
		rng:            rand.New(rand.NewSource(seed)),
		dt:             cfg.Derived.DT32,
		world:          physics.NewWorld(physicsConfig(cfg)),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow),
		statsCallback:  opts.StatsCallback,
		logStats:       opts.LogStats,
		ctx:            ctx,
		cancel:         cancel,
		rngSeed:        seed,
		stepsPerUpdate: steps,
	}

	if err := g.setup(opts); err != nil {
		g.Unload()
		return nil, err
	}
	return g, nil
}

func (g *Game) setup(opts Options) error {
	cfg := g.cfg

	store, err := storage.NewStore(cfg.Save.Backend, cfg.Save.Dir, cfg.Save.SQLitePath)
	if err != nil {
		return err
	}
	if err := store.Init(g.ctx); err != nil {
		return fmt.Errorf("initializing %s store: %w", cfg.Save.Backend, err)
	}
	g.store = store

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		return fmt.Errorf("writing config snapshot: %w", err)
	}

	g.metrics = telemetry.NewMetrics()
	if addr := cfg.Telemetry.MetricsAddr; addr != "" {
		bound, err := g.metrics.Start(g.ctx, addr)
		if err != nil {
			return err
		}
		slog.Info("serving metrics", "addr", bound.String())
	}

	bps, generation, err := g.initialPopulation(g.ctx)
	if err != nil {
		return err
	}
	g.scheduler = evolution.NewScheduler(g.world, g.rng, schedulerOptions(cfg), nil)
	g.scheduler.Reset(bps, generation)
	g.scheduler.OnGeneration(g.onGeneration)

	slog.Info("game ready",
		"seed", g.rngSeed,
		"population", len(bps),
		"generation", generation,
		"preset", cfg.Morphology.Preset,
		"backend", cfg.Save.Backend,
	)
	return nil
}

// UpdateHeadless runs StepsPerUpdate simulation ticks.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		g.step()
	}
}

// step runs a single tick: brains and generation bookkeeping, then physics.
func (g *Game) step() {
	g.perfCollector.StartTick()

	g.perfCollector.StartPhase(telemetry.PhaseScheduler)
	g.scheduler.Tick(g.dt)

	g.perfCollector.StartPhase(telemetry.PhasePhysics)
	g.world.Step(g.dt)

	g.perfCollector.EndTick()
	g.tick++
}

// Tick returns the number of simulation ticks run.
func (g *Game) Tick() int64 {
	return g.tick
}

// Generation returns the generation currently being evaluated.
func (g *Game) Generation() uint32 {
	return g.scheduler.Population().Generation
}

// LastStats returns the stats of the most recently finished generation.
func (g *Game) LastStats() telemetry.GenerationStats {
	return g.lastStats
}

// Scheduler exposes the generation scheduler.
func (g *Game) Scheduler() *evolution.Scheduler {
	return g.scheduler
}

// Unload releases all resources.
func (g *Game) Unload() {
	if g.scheduler != nil {
		g.scheduler.Close()
	}
	if g.store != nil {
		if err := g.store.Close(); err != nil {
			slog.Error("failed to close store", "error", err)
		}
	}
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
	g.cancel()
}
