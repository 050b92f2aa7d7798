package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pthm-cable/gait/organism"
)

const filePattern = "gen_%05d.json"

// FileStore writes one JSON file per saved generation into a directory.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Init creates the directory.
func (s *FileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("save directory is required")
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create save directory: %w", err)
	}
	return nil
}

// Path returns the file a generation is saved to.
func (s *FileStore) Path(generation uint32) string {
	return filepath.Join(s.dir, fmt.Sprintf(filePattern, generation))
}

// Save writes <dir>/gen_NNNNN.json. The file is replaced atomically.
// bestFitness is not stored in files.
func (s *FileStore) Save(ctx context.Context, generation uint32, _ float64, blueprints []*organism.Blueprint) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(blueprints)
	if err != nil {
		return err
	}

	path := s.Path(generation)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write generation %d: %w", generation, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("write generation %d: %w", generation, err)
	}
	return nil
}

// Load reads a population file. The generation is taken from the file
// name when it follows the gen_NNNNN.json pattern, else it is 0.
func (s *FileStore) Load(ctx context.Context, path string) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read population: %w", err)
	}
	blueprints, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s: %w", path, err)
	}

	gen, _ := generationOf(path)
	return Snapshot{Generation: gen, Blueprints: blueprints}, nil
}

// generationOf parses the generation number out of a gen_NNNNN.json path.
func generationOf(path string) (uint32, bool) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "gen_") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	n, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "gen_"), ".json"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// Latest loads the highest numbered generation file in the directory.
func (s *FileStore) Latest(ctx context.Context) (Snapshot, bool, error) {
	matches, err := filepath.Glob(filepath.Join(s.dir, "gen_*.json"))
	if err != nil {
		return Snapshot{}, false, err
	}
	latest, found := "", false
	var best uint32
	for _, m := range matches {
		gen, ok := generationOf(m)
		if !ok {
			continue
		}
		if !found || gen >= best {
			latest, best, found = m, gen, true
		}
	}
	if !found {
		return Snapshot{}, false, nil
	}
	snap, err := s.Load(ctx, latest)
	if err != nil {
		return Snapshot{}, false, err
	}
	return snap, true, nil
}

// Close is a no-op.
func (s *FileStore) Close() error {
	return nil
}
