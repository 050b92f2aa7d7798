package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/pthm-cable/gait/organism"
)

// GenerationRecord is one archived generation without its payload.
type GenerationRecord struct {
	RunID       string  `csv:"run_id"`
	Generation  uint32  `csv:"generation"`
	BestFitness float64 `csv:"best_fitness"`
	Size        int     `csv:"size"`
}

// SQLiteStore archives every saved generation of a run in one table.
type SQLiteStore struct {
	path  string
	runID string

	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore returns a store writing to the database at path. An empty
// runID gets a fresh random one.
func NewSQLiteStore(path, runID string) *SQLiteStore {
	if runID == "" {
		runID = uuid.NewString()
	}
	return &SQLiteStore{path: path, runID: runID}
}

// RunID identifies the rows this store writes.
func (s *SQLiteStore) RunID() string {
	return s.runID
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

// Save upserts a generation of the current run.
func (s *SQLiteStore) Save(ctx context.Context, generation uint32, bestFitness float64, blueprints []*organism.Blueprint) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := Encode(blueprints)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO generations (run_id, generation, best_fitness, size, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(run_id, generation) DO UPDATE SET
			best_fitness = excluded.best_fitness,
			size = excluded.size,
			payload = excluded.payload
	`, s.runID, generation, bestFitness, len(blueprints), payload)
	if err != nil {
		return fmt.Errorf("save generation %d: %w", generation, err)
	}
	return nil
}

// Latest returns the last generation written to the database by any run.
func (s *SQLiteStore) Latest(ctx context.Context) (Snapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Snapshot{}, false, err
	}

	var (
		gen     uint32
		payload []byte
	)
	err = db.QueryRowContext(ctx, `
		SELECT generation, payload FROM generations
		ORDER BY seq DESC LIMIT 1
	`).Scan(&gen, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}

	blueprints, err := Decode(payload)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("decode generation %d: %w", gen, err)
	}
	return Snapshot{Generation: gen, Blueprints: blueprints}, true, nil
}

// Load returns one archived generation of a run.
func (s *SQLiteStore) Load(ctx context.Context, runID string, generation uint32) (Snapshot, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return Snapshot{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `
		SELECT payload FROM generations WHERE run_id = ? AND generation = ?
	`, runID, generation).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, err
	}

	blueprints, err := Decode(payload)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("decode generation %d: %w", generation, err)
	}
	return Snapshot{Generation: generation, Blueprints: blueprints}, true, nil
}

// History lists the archived generations of a run in order.
func (s *SQLiteStore) History(ctx context.Context, runID string) ([]GenerationRecord, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT generation, best_fitness, size FROM generations
		WHERE run_id = ? ORDER BY generation
	`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationRecord
	for rows.Next() {
		r := GenerationRecord{RunID: runID}
		if err := rows.Scan(&r.Generation, &r.BestFitness, &r.Size); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists every run id in the archive, most recent first.
func (s *SQLiteStore) Runs(ctx context.Context) ([]string, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT run_id FROM generations GROUP BY run_id ORDER BY MAX(seq) DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS generations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT NOT NULL,
			generation INTEGER NOT NULL,
			best_fitness REAL NOT NULL,
			size INTEGER NOT NULL,
			payload BLOB NOT NULL,
			UNIQUE (run_id, generation)
		);
	`)
	return err
}
