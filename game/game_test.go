package game

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/gait/config"
	"github.com/pthm-cable/gait/storage"
	"github.com/pthm-cable/gait/telemetry"
)

// testConfig loads the defaults with a small, fast run on top.
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	yaml := fmt.Sprintf(`
generation:
  population: 4
  duration: 0.5
  seed: 42
morphology:
  preset: crawler
save:
  every: 1
  dir: %s
  sqlite_path: %s
telemetry:
  perf_window: 30
`, filepath.Join(dir, "runs"), filepath.Join(dir, "gait.db"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("loading test config: %v", err)
	}
	return cfg
}

func runGenerations(t *testing.T, g *Game, n uint32) {
	t.Helper()
	start := g.Generation()
	for i := 0; g.Generation() < start+n; i++ {
		if i > 10000 {
			t.Fatalf("stuck at generation %d", g.Generation())
		}
		g.UpdateHeadless()
	}
}

func TestGameRunsAndSaves(t *testing.T) {
	cfg := testConfig(t)
	out := filepath.Join(t.TempDir(), "out")

	var seen []telemetry.GenerationStats
	g, err := NewGameWithOptions(Options{
		Config:         cfg,
		OutputDir:      out,
		StepsPerUpdate: 5,
		StatsCallback:  func(s telemetry.GenerationStats) { seen = append(seen, s) },
	})
	if err != nil {
		t.Fatal(err)
	}
	runGenerations(t, g, 3)
	g.Unload()

	if len(seen) != 3 {
		t.Fatalf("stats callback called %d times, want 3", len(seen))
	}
	for i, s := range seen {
		if s.Generation != uint32(i) || s.Size != 4 {
			t.Errorf("stats %d: generation %d size %d", i, s.Generation, s.Size)
		}
	}
	if g.LastStats() != seen[2] {
		t.Error("LastStats does not match the last callback")
	}

	for gen := 1; gen <= 3; gen++ {
		path := filepath.Join(cfg.Save.Dir, fmt.Sprintf("gen_%05d.json", gen))
		if _, err := os.Stat(path); err != nil {
			t.Errorf("generation %d not saved: %v", gen, err)
		}
	}

	rows, err := telemetry.ReadGenerations(filepath.Join(out, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Errorf("generations.csv has %d rows, want 3", len(rows))
	}
	if _, err := os.Stat(filepath.Join(out, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}

func TestGameResumesFromLatest(t *testing.T) {
	cfg := testConfig(t)
	g, err := NewGameWithOptions(Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	runGenerations(t, g, 2)
	g.Unload()

	cfg.Save.Load = true
	resumed, err := NewGameWithOptions(Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	defer resumed.Unload()

	if resumed.Generation() != 2 {
		t.Errorf("resumed at generation %d, want 2", resumed.Generation())
	}

	snap, err := storage.NewFileStore(cfg.Save.Dir).Load(context.Background(), filepath.Join(cfg.Save.Dir, "gen_00002.json"))
	if err != nil {
		t.Fatal(err)
	}
	got := resumed.Scheduler().Population().Blueprints
	if len(got) != len(snap.Blueprints) {
		t.Fatalf("resumed with %d blueprints, saved %d", len(got), len(snap.Blueprints))
	}
	for i := range got {
		if len(got[i].Muscles) != len(snap.Blueprints[i].Muscles) || got[i].Joints[0] != snap.Blueprints[i].Joints[0] {
			t.Errorf("blueprint %d differs from the saved one", i)
		}
	}

	runGenerations(t, resumed, 1)
	if resumed.Generation() != 3 {
		t.Errorf("generation %d after one more, want 3", resumed.Generation())
	}
}

func TestGameLoadFailureFallsBack(t *testing.T) {
	tests := []struct {
		name     string
		loadPath string
	}{
		{"missing file", "/nonexistent/gen_00009.json"},
		{"empty store", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(t)
			cfg.Save.Load = true
			cfg.Save.LoadPath = tt.loadPath

			g, err := NewGameWithOptions(Options{Config: cfg})
			if err != nil {
				t.Fatal(err)
			}
			defer g.Unload()

			if g.Generation() != 0 {
				t.Errorf("generation %d, want 0", g.Generation())
			}
			bps := g.Scheduler().Population().Blueprints
			if len(bps) != cfg.Generation.Population {
				t.Errorf("fallback population has %d blueprints", len(bps))
			}
			if len(bps[0].Joints) != 3 {
				t.Errorf("fallback should use the crawler preset, got %d joints", len(bps[0].Joints))
			}
		})
	}
}

func TestGameSQLiteBackend(t *testing.T) {
	cfg := testConfig(t)
	cfg.Save.Backend = "sqlite"

	g, err := NewGameWithOptions(Options{Config: cfg})
	if err != nil {
		t.Fatal(err)
	}
	runGenerations(t, g, 2)
	g.Unload()

	ctx := context.Background()
	store := storage.NewSQLiteStore(cfg.Save.SQLitePath, "")
	if err := store.Init(ctx); err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	runs, err := store.Runs(ctx)
	if err != nil || len(runs) != 1 {
		t.Fatalf("runs = %v, err = %v", runs, err)
	}
	history, err := store.History(ctx, runs[0])
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 2 || history[0].Generation != 1 || history[1].Generation != 2 {
		t.Errorf("history = %+v", history)
	}
}

func TestGameRejectsBadPreset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Morphology.Preset = "octopus"
	if _, err := NewGameWithOptions(Options{Config: cfg}); err == nil {
		t.Error("unknown preset should fail")
	}
}
