package telemetry

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pthm-cable/gait/config"
)

func TestOutputManagerDisabled(t *testing.T) {
	om, err := NewOutputManager("")
	if err != nil || om != nil {
		t.Fatalf("empty dir: om=%v err=%v", om, err)
	}
	// Methods on a nil manager are no-ops.
	if err := om.WriteGeneration(GenerationStats{}); err != nil {
		t.Error(err)
	}
	if err := om.WritePerf(PerfStats{}, 0); err != nil {
		t.Error(err)
	}
	if err := om.Close(); err != nil {
		t.Error(err)
	}
}

func TestOutputManagerWritesCSV(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	om, err := NewOutputManager(dir)
	if err != nil {
		t.Fatal(err)
	}

	rows := []GenerationStats{
		{Generation: 0, Size: 4, FitnessMax: 0.5, MusclesMean: 2},
		{Generation: 1, Size: 4, FitnessMax: 0.75, MusclesMean: 2.25, StaleSkips: 1},
	}
	for _, r := range rows {
		if err := om.WriteGeneration(r); err != nil {
			t.Fatal(err)
		}
	}
	perf := PerfStats{Ticks: 10, AvgTick: time.Millisecond}
	perf.PhasePct[PhasePhysics] = 50
	if err := om.WritePerf(perf, 0); err != nil {
		t.Fatal(err)
	}
	if err := om.WritePerf(perf, 1); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	if err := om.WriteConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if err := om.Close(); err != nil {
		t.Fatal(err)
	}

	got, err := ReadGenerations(filepath.Join(dir, "generations.csv"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[1] != rows[1] {
		t.Errorf("read back %+v", got)
	}

	data, err := os.ReadFile(filepath.Join(dir, "perf.csv"))
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 3 {
		t.Fatalf("perf.csv has %d lines, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "generation,ticks,avg_tick_us") {
		t.Errorf("unexpected perf header %q", lines[0])
	}

	if _, err := os.Stat(filepath.Join(dir, "config.yaml")); err != nil {
		t.Errorf("config snapshot missing: %v", err)
	}
}
