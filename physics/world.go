// Package physics is a small point-mass simulator on an ark ECS world.
// It implements organism.Simulator so the evolution loop can run headless.
// It is not a rigid-body engine and makes no determinism promises.
package physics

import (
	"fmt"
	"math"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gait/organism"
)

// Config holds the physical constants of a World.
type Config struct {
	Gravity        float32 // downward acceleration, units/s^2
	LaneHeight     float32 // height of each horizontal lane; joints never fall below their lane floor
	GroundFriction float32 // horizontal velocity decay on contact, 1/s
	MuscleStrength float32 // spring constant for muscles
	JointMass      float32
	JointDamping   float32 // initial linear damping
	BoneIterations int     // constraint projection passes per step
}

// World owns every joint, bone and muscle entity. Handles given out to
// organisms are opaque EntityRefs mapped onto ecs.Entity.
type World struct {
	cfg   Config
	world *ecs.World

	joints  *ecs.Map[Joint]
	bones   *ecs.Map[Bone]
	muscles *ecs.Map[Muscle]

	jointFilter  *ecs.Filter1[Joint]
	boneFilter   *ecs.Filter1[Bone]
	muscleFilter *ecs.Filter1[Muscle]

	refs map[organism.EntityRef]ecs.Entity
	next organism.EntityRef
}

// NewWorld creates an empty world.
func NewWorld(cfg Config) *World {
	if cfg.LaneHeight <= 0 {
		cfg.LaneHeight = math.MaxFloat32
	}
	if cfg.JointMass <= 0 {
		cfg.JointMass = 1
	}
	w := ecs.NewWorld()
	return &World{
		cfg:          cfg,
		world:        w,
		joints:       ecs.NewMap[Joint](w),
		bones:        ecs.NewMap[Bone](w),
		muscles:      ecs.NewMap[Muscle](w),
		jointFilter:  ecs.NewFilter1[Joint](w),
		boneFilter:   ecs.NewFilter1[Bone](w),
		muscleFilter: ecs.NewFilter1[Muscle](w),
		refs:         make(map[organism.EntityRef]ecs.Entity),
	}
}

func (w *World) issue(e ecs.Entity) organism.EntityRef {
	w.next++
	w.refs[w.next] = e
	return w.next
}

// resolve maps a handle to a live entity.
func (w *World) resolve(ref organism.EntityRef) (ecs.Entity, error) {
	e, ok := w.refs[ref]
	if !ok || !w.world.Alive(e) {
		return ecs.Entity{}, fmt.Errorf("entity %d: %w", ref, organism.ErrStale)
	}
	return e, nil
}

// laneFloor returns the floor of the lane containing y.
func (w *World) laneFloor(y float32) float32 {
	return float32(math.Floor(float64(y/w.cfg.LaneHeight))) * w.cfg.LaneHeight
}

// SpawnJoint implements organism.Simulator.
func (w *World) SpawnJoint(pos organism.Vec2) organism.EntityRef {
	j := Joint{
		Pos:     pos,
		Mass:    w.cfg.JointMass,
		Damping: w.cfg.JointDamping,
		FloorY:  w.laneFloor(pos.Y),
	}
	return w.issue(w.joints.NewEntity(&j))
}

// SpawnBone implements organism.Simulator.
func (w *World) SpawnBone(ends [2]organism.EntityRef, pos [2]organism.Vec2) organism.EntityRef {
	a, b := w.refs[ends[0]], w.refs[ends[1]]
	bone := Bone{A: a, B: b, Length: pos[1].Sub(pos[0]).Len()}
	return w.issue(w.bones.NewEntity(&bone))
}

// SpawnMuscle implements organism.Simulator.
func (w *World) SpawnMuscle(ends [2]organism.EntityRef, pos [2]organism.Vec2) organism.EntityRef {
	a, b := w.refs[ends[0]], w.refs[ends[1]]
	rest := pos[1].Sub(pos[0]).Len()
	m := Muscle{A: a, B: b, Rest: rest, Target: rest, Strength: w.cfg.MuscleStrength}
	return w.issue(w.muscles.NewEntity(&m))
}

// Despawn implements organism.Simulator. Unknown handles are ignored.
func (w *World) Despawn(ref organism.EntityRef) {
	e, ok := w.refs[ref]
	if !ok {
		return
	}
	delete(w.refs, ref)
	if w.world.Alive(e) {
		w.world.RemoveEntity(e)
	}
}

// Transform implements organism.Simulator.
func (w *World) Transform(ref organism.EntityRef) (organism.Transform, error) {
	e, err := w.resolve(ref)
	if err != nil {
		return organism.Transform{}, err
	}
	switch {
	case w.joints.Has(e):
		return organism.Transform{Position: w.joints.Get(e).Pos}, nil
	case w.bones.Has(e):
		b := w.bones.Get(e)
		return w.segment(ref, b.A, b.B)
	case w.muscles.Has(e):
		m := w.muscles.Get(e)
		return w.segment(ref, m.A, m.B)
	}
	return organism.Transform{}, fmt.Errorf("entity %d has no body: %w", ref, organism.ErrStale)
}

func (w *World) segment(ref organism.EntityRef, a, b ecs.Entity) (organism.Transform, error) {
	if !w.world.Alive(a) || !w.world.Alive(b) {
		return organism.Transform{}, fmt.Errorf("entity %d lost a joint: %w", ref, organism.ErrStale)
	}
	pa, pb := w.joints.Get(a).Pos, w.joints.Get(b).Pos
	return organism.Transform{
		Position: pa.Add(pb).Scale(0.5),
		Rotation: pb.Sub(pa).Angle(),
	}, nil
}

// SetLinearDamping implements organism.Simulator.
func (w *World) SetLinearDamping(ref organism.EntityRef, damping float32) error {
	e, err := w.resolve(ref)
	if err != nil {
		return err
	}
	if !w.joints.Has(e) {
		return fmt.Errorf("entity %d is not a joint", ref)
	}
	w.joints.Get(e).Damping = damping
	return nil
}

// ContractMuscle implements organism.Simulator.
func (w *World) ContractMuscle(ref organism.EntityRef, targetLength float32) error {
	e, err := w.resolve(ref)
	if err != nil {
		return err
	}
	if !w.muscles.Has(e) {
		return fmt.Errorf("entity %d is not a muscle", ref)
	}
	w.muscles.Get(e).Target = targetLength
	return nil
}

// Len returns the number of live handles.
func (w *World) Len() int {
	return len(w.refs)
}

// Step advances the world by dt seconds: gravity and muscle forces,
// damped semi-implicit Euler, bone projection, then lane floors.
func (w *World) Step(dt float32) {
	if dt <= 0 {
		return
	}

	// Forces
	query := w.jointFilter.Query()
	for query.Next() {
		j := query.Get()
		j.Force = organism.V2(0, -w.cfg.Gravity*j.Mass)
	}

	mq := w.muscleFilter.Query()
	for mq.Next() {
		m := mq.Get()
		if !w.world.Alive(m.A) || !w.world.Alive(m.B) {
			continue
		}
		a, b := w.joints.Get(m.A), w.joints.Get(m.B)
		delta := b.Pos.Sub(a.Pos)
		length := delta.Len()
		if length == 0 {
			continue
		}
		f := delta.Scale(m.Strength * (length - m.Target) / length)
		a.Force = a.Force.Add(f)
		b.Force = b.Force.Sub(f)
	}

	// Integrate
	query = w.jointFilter.Query()
	for query.Next() {
		j := query.Get()
		j.Vel = j.Vel.Add(j.Force.Scale(dt / j.Mass))
		j.Vel = j.Vel.Scale(1 / (1 + j.Damping*dt))
		j.Pos = j.Pos.Add(j.Vel.Scale(dt))
	}

	// Bones
	for i := 0; i < w.cfg.BoneIterations; i++ {
		bq := w.boneFilter.Query()
		for bq.Next() {
			bone := bq.Get()
			if !w.world.Alive(bone.A) || !w.world.Alive(bone.B) {
				continue
			}
			a, b := w.joints.Get(bone.A), w.joints.Get(bone.B)
			delta := b.Pos.Sub(a.Pos)
			length := delta.Len()
			if length == 0 {
				continue
			}
			corr := delta.Scale(0.5 * (length - bone.Length) / length)
			a.Pos = a.Pos.Add(corr)
			b.Pos = b.Pos.Sub(corr)
		}
	}

	// Floors
	friction := 1 - w.cfg.GroundFriction*dt
	if friction < 0 {
		friction = 0
	}
	query = w.jointFilter.Query()
	for query.Next() {
		j := query.Get()
		if j.Pos.Y > j.FloorY {
			continue
		}
		j.Pos.Y = j.FloorY
		if j.Vel.Y < 0 {
			j.Vel.Y = 0
		}
		j.Vel.X *= friction
	}
}

var _ organism.Simulator = (*World)(nil)
