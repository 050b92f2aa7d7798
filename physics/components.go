package physics

import (
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/gait/organism"
)

// Joint is a point mass. All forces act on joints.
type Joint struct {
	Pos     organism.Vec2
	Vel     organism.Vec2
	Force   organism.Vec2 // accumulated this step
	Mass    float32
	Damping float32 // linear damping coefficient, 1/s
	FloorY  float32 // floor of the lane the joint spawned in
}

// Bone keeps two joints at a fixed distance.
type Bone struct {
	A, B   ecs.Entity
	Length float32
}

// Muscle is a spring between two joints pulling toward Target length.
type Muscle struct {
	A, B     ecs.Entity
	Rest     float32
	Target   float32
	Strength float32
}
