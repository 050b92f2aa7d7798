package storage

import (
	"context"
	"fmt"

	"github.com/pthm-cable/gait/organism"
)

// Store archives whole generations.
type Store interface {
	Init(ctx context.Context) error
	Save(ctx context.Context, generation uint32, bestFitness float64, blueprints []*organism.Blueprint) error
	// Latest returns the most recently saved generation. ok is false when
	// nothing has been saved.
	Latest(ctx context.Context) (snap Snapshot, ok bool, err error)
	Close() error
}

// NewStore returns an uninitialized store for the named backend.
func NewStore(backend, dir, sqlitePath string) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(dir), nil
	case "sqlite":
		return NewSQLiteStore(sqlitePath, ""), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", backend)
	}
}
