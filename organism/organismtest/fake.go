// Package organismtest provides an in-memory Simulator for tests.
package organismtest

import (
	"sync"

	"github.com/pthm-cable/gait/organism"
)

type kind int

const (
	joint kind = iota
	bone
	muscle
)

type entity struct {
	kind    kind
	pos     organism.Vec2
	ends    [2]organism.EntityRef
	damping float32
	target  float32
}

// Sim is a Simulator that never moves anything on its own. Tests move
// joints explicitly with MoveJoint and can invalidate handles with Despawn.
type Sim struct {
	mu       sync.Mutex
	next     organism.EntityRef
	entities map[organism.EntityRef]*entity

	Contracts int // successful ContractMuscle calls
}

// NewSim returns an empty fake simulator.
func NewSim() *Sim {
	return &Sim{entities: make(map[organism.EntityRef]*entity)}
}

func (s *Sim) spawn(e *entity) organism.EntityRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.entities[s.next] = e
	return s.next
}

func (s *Sim) SpawnJoint(pos organism.Vec2) organism.EntityRef {
	return s.spawn(&entity{kind: joint, pos: pos})
}

func (s *Sim) SpawnBone(ends [2]organism.EntityRef, _ [2]organism.Vec2) organism.EntityRef {
	return s.spawn(&entity{kind: bone, ends: ends})
}

func (s *Sim) SpawnMuscle(ends [2]organism.EntityRef, _ [2]organism.Vec2) organism.EntityRef {
	return s.spawn(&entity{kind: muscle, ends: ends})
}

func (s *Sim) Despawn(ref organism.EntityRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entities, ref)
}

func (s *Sim) Transform(ref organism.EntityRef) (organism.Transform, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[ref]
	if !ok {
		return organism.Transform{}, organism.ErrStale
	}
	if e.kind == joint {
		return organism.Transform{Position: e.pos}, nil
	}
	a, okA := s.entities[e.ends[0]]
	b, okB := s.entities[e.ends[1]]
	if !okA || !okB {
		return organism.Transform{}, organism.ErrStale
	}
	return organism.Transform{
		Position: a.pos.Add(b.pos).Scale(0.5),
		Rotation: b.pos.Sub(a.pos).Angle(),
	}, nil
}

func (s *Sim) SetLinearDamping(ref organism.EntityRef, damping float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[ref]
	if !ok || e.kind != joint {
		return organism.ErrStale
	}
	e.damping = damping
	return nil
}

func (s *Sim) ContractMuscle(ref organism.EntityRef, targetLength float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entities[ref]
	if !ok || e.kind != muscle {
		return organism.ErrStale
	}
	e.target = targetLength
	s.Contracts++
	return nil
}

// MoveJoint teleports a joint. It is a no-op for unknown handles.
func (s *Sim) MoveJoint(ref organism.EntityRef, pos organism.Vec2) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[ref]; ok {
		e.pos = pos
	}
}

// Damping returns the last damping set on a joint.
func (s *Sim) Damping(ref organism.EntityRef) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[ref]; ok {
		return e.damping
	}
	return 0
}

// Target returns the last target length sent to a muscle.
func (s *Sim) Target(ref organism.EntityRef) float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entities[ref]; ok {
		return e.target
	}
	return 0
}

// Len returns the number of live entities.
func (s *Sim) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entities)
}

var _ organism.Simulator = (*Sim)(nil)
