package storage

import (
	"context"
	"math/rand"
	"path/filepath"
	"reflect"
	"testing"
)

func openSQLite(t *testing.T, path, runID string) *SQLiteStore {
	t.Helper()
	store := NewSQLiteStore(path, runID)
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	store := openSQLite(t, filepath.Join(t.TempDir(), "gait.db"), "")

	if store.RunID() == "" {
		t.Fatal("expected a generated run id")
	}
	if _, ok, err := store.Latest(ctx); err != nil || ok {
		t.Fatalf("empty archive: ok=%v err=%v", ok, err)
	}

	first := evolvedPopulation(t, rng)
	second := evolvedPopulation(t, rng)
	if err := store.Save(ctx, 0, 0.25, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.Save(ctx, 1, 0.5, second); err != nil {
		t.Fatalf("save: %v", err)
	}

	snap, ok, err := store.Latest(ctx)
	if err != nil || !ok {
		t.Fatalf("latest: ok=%v err=%v", ok, err)
	}
	if snap.Generation != 1 || !reflect.DeepEqual(snap.Blueprints, second) {
		t.Errorf("latest returned generation %d", snap.Generation)
	}

	snap, ok, err = store.Load(ctx, store.RunID(), 0)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if !reflect.DeepEqual(snap.Blueprints, first) {
		t.Error("generation 0 payload differs")
	}
	if _, ok, _ := store.Load(ctx, store.RunID(), 7); ok {
		t.Error("unsaved generation reported as found")
	}
}

func TestSQLiteStoreUpsertAndHistory(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(42))
	path := filepath.Join(t.TempDir(), "gait.db")
	store := openSQLite(t, path, "run-a")

	pop := evolvedPopulation(t, rng)
	for gen, best := range []float64{0.1, 0.2, 0.3} {
		if err := store.Save(ctx, uint32(gen), best, pop); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.Save(ctx, 1, 0.9, pop[:1]); err != nil {
		t.Fatal(err)
	}

	history, err := store.History(ctx, "run-a")
	if err != nil {
		t.Fatal(err)
	}
	want := []GenerationRecord{
		{RunID: "run-a", Generation: 0, BestFitness: 0.1, Size: len(pop)},
		{RunID: "run-a", Generation: 1, BestFitness: 0.9, Size: 1},
		{RunID: "run-a", Generation: 2, BestFitness: 0.3, Size: len(pop)},
	}
	if !reflect.DeepEqual(history, want) {
		t.Errorf("history = %+v, want %+v", history, want)
	}

	other := openSQLite(t, path, "run-b")
	if err := other.Save(ctx, 0, 0.4, pop[:2]); err != nil {
		t.Fatal(err)
	}
	runs, err := other.Runs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(runs, []string{"run-b", "run-a"}) {
		t.Errorf("runs = %v", runs)
	}

	snap, ok, err := store.Latest(ctx)
	if err != nil || !ok {
		t.Fatal(err)
	}
	if len(snap.Blueprints) != 2 {
		t.Errorf("latest should come from run-b, got %d blueprints", len(snap.Blueprints))
	}
}

func TestSQLiteStoreRequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "gait.db"), "")
	if err := store.Save(context.Background(), 0, 0, nil); err == nil {
		t.Error("Save before Init should fail")
	}
	if err := NewSQLiteStore("", "").Init(context.Background()); err == nil {
		t.Error("empty path should fail")
	}
}
