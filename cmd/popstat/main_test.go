package main

import (
	"bytes"
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gait/organism"
	"github.com/pthm-cable/gait/storage"
)

func population(t *testing.T, rng *rand.Rand, presets ...string) []*organism.Blueprint {
	t.Helper()
	var out []*organism.Blueprint
	for _, name := range presets {
		bp, err := organism.NewPreset(rng, name, nil)
		if err != nil {
			t.Fatal(err)
		}
		out = append(out, bp)
	}
	return out
}

func TestBlueprintView(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	pop := population(t, rng, "runner", "crawler", "crawler")

	fs := storage.NewFileStore(t.TempDir())
	if err := fs.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := fs.Save(ctx, 7, 0, pop); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := execute(ctx, options{file: fs.Path(7), gen: -1, view: "blueprints"}, &buf); err != nil {
		t.Fatalf("execute: %v", err)
	}

	var rows []blueprintRow
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &rows); err != nil {
		t.Fatalf("parsing output: %v", err)
	}
	if len(rows) != len(pop) {
		t.Fatalf("got %d rows, want %d", len(rows), len(pop))
	}
	for i, r := range rows {
		bp := pop[i]
		if r.Index != i || r.Joints != len(bp.Joints) || r.Muscles != len(bp.Muscles) {
			t.Errorf("row %d = %+v", i, r)
		}
		if want := layerString(bp.Brain.Structure()); r.Layers != want {
			t.Errorf("row %d layers = %q, want %q", i, r.Layers, want)
		}
	}
}

func TestInputLayout(t *testing.T) {
	for _, muscles := range []int{1, 4} {
		rows := inputLayout(muscles)
		if len(rows) != organism.InputWidth(muscles) {
			t.Fatalf("muscles=%d: %d inputs, want %d", muscles, len(rows), organism.InputWidth(muscles))
		}

		groups := organism.InputGroups()
		g := 0
		for _, r := range rows {
			for g < len(groups) && groups[g] != r.Group {
				g++
			}
			if g == len(groups) {
				t.Fatalf("muscles=%d: input %s out of group order", muscles, r.ID)
			}
		}
		if rows[0].Index != 0 || rows[0].Group != "memory" {
			t.Errorf("first input = %+v", rows[0])
		}
	}
}

func TestOutputLayout(t *testing.T) {
	rows := outputLayout(3)
	if len(rows) != 3 {
		t.Fatalf("got %d outputs, want 3", len(rows))
	}
	for i, r := range rows {
		if r.Index != i || r.Group != "muscle" {
			t.Errorf("output %d = %+v", i, r)
		}
	}
}

func TestCommonMuscles(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	pop := population(t, rng, "runner", "crawler", "crawler")
	if got, want := commonMuscles(pop), len(pop[1].Muscles); got != want {
		t.Errorf("commonMuscles = %d, want %d", got, want)
	}
	if got := commonMuscles(nil); got != 0 {
		t.Errorf("empty population = %d", got)
	}
}

func TestArchiveViews(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	path := filepath.Join(t.TempDir(), "gait.db")

	older := storage.NewSQLiteStore(path, "run-a")
	if err := older.Init(ctx); err != nil {
		t.Fatal(err)
	}
	for gen := uint32(0); gen < 3; gen++ {
		if err := older.Save(ctx, gen, float64(gen), population(t, rng, "crawler", "crawler")); err != nil {
			t.Fatal(err)
		}
	}
	if err := older.Close(); err != nil {
		t.Fatal(err)
	}

	newer := storage.NewSQLiteStore(path, "run-b")
	if err := newer.Init(ctx); err != nil {
		t.Fatal(err)
	}
	if err := newer.Save(ctx, 5, 1, population(t, rng, "runner")); err != nil {
		t.Fatal(err)
	}
	if err := newer.Close(); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := execute(ctx, options{db: path, run: "run-a", gen: -1, view: "history"}, &buf); err != nil {
		t.Fatalf("history: %v", err)
	}
	var history []storage.GenerationRecord
	if err := gocsv.UnmarshalBytes(buf.Bytes(), &history); err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 || history[2].Generation != 2 || history[2].RunID != "run-a" {
		t.Errorf("history = %+v", history)
	}

	tests := []struct {
		name string
		run  string
		gen  int
		want int
	}{
		{"most recent run", "", -1, 1},
		{"latest of named run", "run-a", -1, 2},
		{"named generation", "run-a", 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			opts := options{db: path, run: tt.run, gen: tt.gen, view: "blueprints"}
			if err := execute(ctx, opts, &buf); err != nil {
				t.Fatal(err)
			}
			var rows []blueprintRow
			if err := gocsv.UnmarshalBytes(buf.Bytes(), &rows); err != nil {
				t.Fatal(err)
			}
			if len(rows) != tt.want {
				t.Errorf("got %d rows, want %d", len(rows), tt.want)
			}
		})
	}
}

func TestExecuteErrors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	tests := []struct {
		name string
		opts options
	}{
		{"no source", options{gen: -1, view: "blueprints"}},
		{"both sources", options{file: "a.json", db: "b.db", gen: -1, view: "blueprints"}},
		{"history from file", options{file: "a.json", gen: -1, view: "history"}},
		{"missing file", options{file: filepath.Join(dir, "gen_00001.json"), gen: -1, view: "blueprints"}},
		{"missing archive", options{db: filepath.Join(dir, "none.db"), gen: -1, view: "blueprints"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := execute(ctx, tt.opts, &buf); err == nil {
				t.Error("expected error")
			}
		})
	}
}
