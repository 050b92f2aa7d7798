// Package storage persists blueprint populations: a JSON codec, a
// directory of per-generation files and an SQLite generation archive.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/pthm-cable/gait/organism"
)

// ErrEmptyPopulation is returned when decoding a population with no blueprints.
var ErrEmptyPopulation = errors.New("population has no blueprints")

// Snapshot is one saved generation.
type Snapshot struct {
	Generation uint32
	Blueprints []*organism.Blueprint
}

// Encode serializes blueprints as an ordered JSON array.
func Encode(blueprints []*organism.Blueprint) ([]byte, error) {
	data, err := json.Marshal(blueprints)
	if err != nil {
		return nil, fmt.Errorf("encode population: %w", err)
	}
	return data, nil
}

// Decode parses a JSON array of blueprints and checks every one of them.
func Decode(data []byte) ([]*organism.Blueprint, error) {
	var blueprints []*organism.Blueprint
	if err := json.Unmarshal(data, &blueprints); err != nil {
		return nil, fmt.Errorf("decode population: %w", err)
	}
	if len(blueprints) == 0 {
		return nil, ErrEmptyPopulation
	}
	for i, bp := range blueprints {
		if bp == nil {
			return nil, fmt.Errorf("blueprint %d is null", i)
		}
		if err := bp.Validate(); err != nil {
			return nil, fmt.Errorf("blueprint %d: %w", i, err)
		}
	}
	return blueprints, nil
}
