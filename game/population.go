package game

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/pthm-cable/gait/organism"
	"github.com/pthm-cable/gait/storage"
)

// presetPopulation builds the starting population from the configured preset.
func (g *Game) presetPopulation() ([]*organism.Blueprint, error) {
	cfg := g.cfg
	var hidden []int
	if len(cfg.Morphology.HiddenLayers) > 0 {
		hidden = cfg.Morphology.HiddenLayers
	}

	out := make([]*organism.Blueprint, cfg.Generation.Population)
	for i := range out {
		bp, err := organism.NewPreset(g.rng, cfg.Morphology.Preset, hidden)
		if err != nil {
			return nil, err
		}
		out[i] = bp
	}
	return out, nil
}

// loadPopulation reads the population to resume from. An explicit load path
// is always read as a JSON file; otherwise the store's latest generation is used.
func (g *Game) loadPopulation(ctx context.Context) (storage.Snapshot, error) {
	if path := g.cfg.Save.LoadPath; path != "" {
		return storage.NewFileStore(filepath.Dir(path)).Load(ctx, path)
	}
	snap, ok, err := g.store.Latest(ctx)
	if err != nil {
		return storage.Snapshot{}, err
	}
	if !ok {
		return storage.Snapshot{}, fmt.Errorf("no saved generation in %s store", g.cfg.Save.Backend)
	}
	return snap, nil
}

// initialPopulation returns the loaded population when loading is enabled
// and succeeds, else the preset population.
func (g *Game) initialPopulation(ctx context.Context) ([]*organism.Blueprint, uint32, error) {
	if g.cfg.Save.Load {
		snap, err := g.loadPopulation(ctx)
		if err == nil {
			slog.Info("population loaded", "generation", snap.Generation, "size", len(snap.Blueprints))
			return snap.Blueprints, snap.Generation, nil
		}
		slog.Warn("failed to load population, using preset", "preset", g.cfg.Morphology.Preset, "error", err)
	}

	bps, err := g.presetPopulation()
	if err != nil {
		return nil, 0, err
	}
	return bps, 0, nil
}

// savePopulation archives the generation about to be evaluated.
func (g *Game) savePopulation(generation uint32, bestFitness float64, bps []*organism.Blueprint) {
	if g.store == nil {
		return
	}
	if err := g.store.Save(g.ctx, generation, bestFitness, bps); err != nil {
		slog.Error("failed to save population", "generation", generation, "error", err)
		return
	}
	slog.Info("population saved", "generation", generation, "backend", g.cfg.Save.Backend)
}
