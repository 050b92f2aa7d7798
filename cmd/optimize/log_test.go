package main

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pthm-cable/gait/config"
	"github.com/pthm-cable/gait/telemetry"
)

func TestTuneLogTracksBest(t *testing.T) {
	pv := NewParamVector()
	path := filepath.Join(t.TempDir(), "optimize_log.csv")
	tl, err := newTuneLog(path, pv, 3)
	if err != nil {
		t.Fatal(err)
	}

	low := pv.DefaultVector()
	high := pv.DefaultVector()
	high[0] = 100 // clamped to max

	tl.record(low, -5, 5)
	tl.record(high, -9, 9)
	tl.record(low, -7, 7)
	if err := tl.Close(); err != nil {
		t.Fatal(err)
	}

	if tl.evals != 3 || tl.bestFitness != -9 {
		t.Errorf("evals=%d best=%v", tl.evals, tl.bestFitness)
	}
	if tl.bestParams[0] != pv.Specs[0].Max {
		t.Errorf("best %s = %v, want clamped %v", pv.Specs[0].Name, tl.bestParams[0], pv.Specs[0].Max)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want header + 3", len(rows))
	}
	if len(rows[0]) != 3+pv.Dim() || rows[0][3] != pv.Specs[0].Name {
		t.Errorf("header = %v", rows[0])
	}
	if rows[2][1] != "-9.000000" {
		t.Errorf("fitness column = %q", rows[2][1])
	}
}

func TestWriteResults(t *testing.T) {
	dir := t.TempDir()
	base, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	pv := NewParamVector()
	best := pv.DefaultVector()
	best[0] = 0.75

	fe := NewFitnessEvaluator(pv, 1, 1, nil, base, dir)
	fe.bestStats = []telemetry.GenerationStats{{Generation: 0, DisplacementMax: 12}, {Generation: 1, DisplacementMax: 20}}

	if err := writeResults(dir, base, pv, best, fe); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(filepath.Join(dir, "best_config.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.MuscleStretch != 0.75 {
		t.Errorf("muscle_stretch = %v, want 0.75", cfg.Generation.MuscleStretch)
	}
	if base.Generation.MuscleStretch == 0.75 {
		t.Error("base config was modified")
	}

	stats, err := telemetry.ReadGenerations(filepath.Join(dir, "best_generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(stats) != 2 || stats[1].DisplacementMax != 20 {
		t.Errorf("best run stats = %+v", stats)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0m00s"},
		{75 * time.Second, "1m15s"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1h02m03s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
