package organism

import "errors"

// ErrStale is returned by a Simulator when a handle no longer resolves to a
// live entity, typically because of a despawn/respawn race. Callers treat it
// as a soft skip for the current tick.
var ErrStale = errors.New("stale entity handle")

// EntityRef is an opaque handle into the simulator. The zero value is never issued.
type EntityRef uint64

// Transform is the pose reported for an entity. Bones and muscles report
// the midpoint of their joints and the angle of the segment from end 0 to end 1.
type Transform struct {
	Position Vec2
	Rotation float32
}

// Simulator is the physics collaborator. It owns every entity; organisms only hold handles.
type Simulator interface {
	SpawnJoint(pos Vec2) EntityRef
	SpawnBone(ends [2]EntityRef, pos [2]Vec2) EntityRef
	SpawnMuscle(ends [2]EntityRef, pos [2]Vec2) EntityRef
	Despawn(ref EntityRef)

	Transform(ref EntityRef) (Transform, error)
	SetLinearDamping(ref EntityRef, damping float32) error
	ContractMuscle(ref EntityRef, targetLength float32) error
}
