package telemetry

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/gait/config"
)

// csvLog appends gocsv records to one file, writing the header once.
type csvLog[T any] struct {
	name   string
	f      *os.File
	header bool
}

func openCSVLog[T any](dir, name string) (*csvLog[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvLog[T]{name: name, f: f}, nil
}

func (l *csvLog[T]) append(rec T) error {
	records := []T{rec}
	var err error
	if l.header {
		err = gocsv.MarshalWithoutHeaders(records, l.f)
	} else {
		err = gocsv.Marshal(records, l.f)
		l.header = err == nil
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", l.name, err)
	}
	return nil
}

func (l *csvLog[T]) close() error {
	if l == nil {
		return nil
	}
	return l.f.Close()
}

// OutputManager writes a run's generations.csv, perf.csv and config snapshot.
// A nil manager discards everything.
type OutputManager struct {
	dir         string
	generations *csvLog[GenerationStats]
	perf        *csvLog[PerfStatsCSV]
}

// NewOutputManager creates dir and opens the CSV files. An empty dir
// disables output and returns a nil manager.
func NewOutputManager(dir string) (*OutputManager, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	gens, err := openCSVLog[GenerationStats](dir, "generations.csv")
	if err != nil {
		return nil, err
	}
	perf, err := openCSVLog[PerfStatsCSV](dir, "perf.csv")
	if err != nil {
		gens.close()
		return nil, err
	}
	return &OutputManager{dir: dir, generations: gens, perf: perf}, nil
}

// WriteConfig snapshots cfg as config.yaml.
func (om *OutputManager) WriteConfig(cfg *config.Config) error {
	if om == nil {
		return nil
	}
	return cfg.WriteYAML(filepath.Join(om.dir, "config.yaml"))
}

// WriteGeneration appends one row to generations.csv.
func (om *OutputManager) WriteGeneration(stats GenerationStats) error {
	if om == nil {
		return nil
	}
	return om.generations.append(stats)
}

// WritePerf appends the perf window that ended with the given generation.
func (om *OutputManager) WritePerf(stats PerfStats, generation uint32) error {
	if om == nil {
		return nil
	}
	return om.perf.append(stats.ToCSV(generation))
}

// ReadGenerations parses a generations.csv written by WriteGeneration.
func ReadGenerations(path string) ([]GenerationStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening generations: %w", err)
	}
	defer f.Close()

	var records []GenerationStats
	if err := gocsv.UnmarshalFile(f, &records); err != nil {
		return nil, fmt.Errorf("parsing generations: %w", err)
	}
	return records, nil
}

// Dir returns the output directory, or "" when output is disabled.
func (om *OutputManager) Dir() string {
	if om == nil {
		return ""
	}
	return om.dir
}

// Close closes both CSV files and returns the first error.
func (om *OutputManager) Close() error {
	if om == nil {
		return nil
	}
	errG := om.generations.close()
	errP := om.perf.close()
	if errG != nil {
		return errG
	}
	return errP
}
