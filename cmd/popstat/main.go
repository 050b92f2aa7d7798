// Package main prints saved populations as CSV: one row per organism, the
// brain IO layout of the dominant body plan, or a run's archive history.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gait/storage"
)

func main() {
	file := flag.String("file", "", "Population JSON file to read")
	db := flag.String("db", "", "SQLite archive to read (instead of -file)")
	run := flag.String("run", "", "Run id in the archive (empty = most recent)")
	gen := flag.Int("gen", -1, "Archived generation (-1 = latest)")
	view := flag.String("view", "blueprints", "Output: blueprints, inputs, outputs or history")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	opts := options{file: *file, db: *db, run: *run, gen: *gen, view: *view}
	if err := execute(context.Background(), opts, os.Stdout); err != nil {
		slog.Error("popstat failed", "error", err)
		os.Exit(1)
	}
}

type options struct {
	file, db, run string
	gen           int
	view          string
}

func execute(ctx context.Context, opts options, w io.Writer) error {
	if (opts.file == "") == (opts.db == "") {
		return errors.New("exactly one of -file or -db is required")
	}

	if opts.view == "history" {
		if opts.db == "" {
			return errors.New("history needs -db")
		}
		return writeHistory(ctx, opts, w)
	}

	snap, err := readSnapshot(ctx, opts)
	if err != nil {
		return err
	}
	slog.Info("population",
		"generation", snap.Generation,
		"size", len(snap.Blueprints),
		"muscles", commonMuscles(snap.Blueprints),
	)

	switch opts.view {
	case "blueprints":
		return gocsv.Marshal(blueprintRows(snap.Blueprints), w)
	case "inputs":
		return gocsv.Marshal(inputLayout(commonMuscles(snap.Blueprints)), w)
	case "outputs":
		return gocsv.Marshal(outputLayout(commonMuscles(snap.Blueprints)), w)
	default:
		return fmt.Errorf("unknown view %q", opts.view)
	}
}

func readSnapshot(ctx context.Context, opts options) (storage.Snapshot, error) {
	if opts.file != "" {
		return storage.NewFileStore(filepath.Dir(opts.file)).Load(ctx, opts.file)
	}

	store, runID, err := openArchive(ctx, opts)
	if err != nil {
		return storage.Snapshot{}, err
	}
	defer store.Close()

	var snap storage.Snapshot
	var ok bool
	if opts.gen < 0 {
		snap, ok, err = latestOfRun(ctx, store, runID)
	} else {
		snap, ok, err = store.Load(ctx, runID, uint32(opts.gen))
	}
	if err != nil {
		return storage.Snapshot{}, err
	}
	if !ok && opts.gen < 0 {
		return storage.Snapshot{}, fmt.Errorf("run %s has no generations", runID)
	}
	if !ok {
		return storage.Snapshot{}, fmt.Errorf("run %s has no generation %d", runID, opts.gen)
	}
	return snap, nil
}

// latestOfRun loads the highest archived generation of one run.
func latestOfRun(ctx context.Context, store *storage.SQLiteStore, runID string) (storage.Snapshot, bool, error) {
	history, err := store.History(ctx, runID)
	if err != nil || len(history) == 0 {
		return storage.Snapshot{}, false, err
	}
	return store.Load(ctx, runID, history[len(history)-1].Generation)
}

// openArchive opens the database and resolves the run id.
func openArchive(ctx context.Context, opts options) (*storage.SQLiteStore, string, error) {
	if _, err := os.Stat(opts.db); err != nil {
		return nil, "", fmt.Errorf("opening archive: %w", err)
	}
	store := storage.NewSQLiteStore(opts.db, opts.run)
	if err := store.Init(ctx); err != nil {
		return nil, "", err
	}
	if opts.run != "" {
		return store, opts.run, nil
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		store.Close()
		return nil, "", err
	}
	if len(runs) == 0 {
		store.Close()
		return nil, "", errors.New("archive has no runs")
	}
	return store, runs[0], nil
}

func writeHistory(ctx context.Context, opts options, w io.Writer) error {
	store, runID, err := openArchive(ctx, opts)
	if err != nil {
		return err
	}
	defer store.Close()

	history, err := store.History(ctx, runID)
	if err != nil {
		return err
	}
	return gocsv.Marshal(history, w)
}
