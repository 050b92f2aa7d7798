// Package organism describes evolvable creatures: their serializable
// blueprint, the mutation operators that reshape it, and the live runtime
// spawned into a physics simulator.
package organism

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/pthm-cable/gait/genetics"
	"github.com/pthm-cable/gait/neural"
)

// Stimulus contract. The brain input is
//
//	memory (M) | clock phase, body orientation | muscle orientation (M)
//
// so every muscle contributes MuscleInputs values on top of ExternalStimuli.
const (
	ExternalStimuli = 2
	MuscleInputs    = 2
)

// InputWidth returns the brain input width for a body with the given muscle count.
func InputWidth(muscles int) int {
	return ExternalStimuli + MuscleInputs*muscles
}

// Blueprint is the heritable description of one creature. Bones and
// muscles are index pairs into Joints.
type Blueprint struct {
	Brain   *neural.Brain   `json:"brain"`
	Genome  genetics.Genome `json:"genome"`
	Joints  []Vec2          `json:"joints"`
	Bones   [][2]int        `json:"bones"`
	Muscles [][2]int        `json:"muscles"`
}

// NewBlueprint builds a blueprint with a fresh random brain sized for the
// muscle count and the default genome. hidden lists hidden layer widths.
// It panics if the morphology is inconsistent.
func NewBlueprint(rng *rand.Rand, hidden []int, joints []Vec2, bones, muscles [][2]int) *Blueprint {
	structure := make([]int, 0, len(hidden)+2)
	structure = append(structure, InputWidth(len(muscles)))
	structure = append(structure, hidden...)
	structure = append(structure, len(muscles))

	bp := &Blueprint{
		Brain:   neural.NewBrain(rng, structure),
		Genome:  genetics.DefaultGenome(),
		Joints:  append([]Vec2(nil), joints...),
		Bones:   append([][2]int(nil), bones...),
		Muscles: append([][2]int(nil), muscles...),
	}
	if err := bp.Validate(); err != nil {
		panic(fmt.Sprintf("organism: new blueprint: %v", err))
	}
	return bp
}

// Clone returns a deep copy.
func (bp *Blueprint) Clone() *Blueprint {
	return &Blueprint{
		Brain:   bp.Brain.Clone(),
		Genome:  bp.Genome,
		Joints:  append([]Vec2(nil), bp.Joints...),
		Bones:   append([][2]int(nil), bp.Bones...),
		Muscles: append([][2]int(nil), bp.Muscles...),
	}
}

// Validate checks the morphology indices and that the brain shape matches the muscle count.
func (bp *Blueprint) Validate() error {
	if bp.Brain == nil {
		return errors.New("blueprint has no brain")
	}
	if err := bp.Brain.Validate(); err != nil {
		return fmt.Errorf("brain: %w", err)
	}
	if err := checkPairs("bone", bp.Bones, len(bp.Joints)); err != nil {
		return err
	}
	if err := checkPairs("muscle", bp.Muscles, len(bp.Joints)); err != nil {
		return err
	}
	m := len(bp.Muscles)
	if bp.Brain.OutputWidth() != m {
		return fmt.Errorf("brain has %d outputs for %d muscles", bp.Brain.OutputWidth(), m)
	}
	if bp.Brain.InputWidth() != InputWidth(m) {
		return fmt.Errorf("brain has %d inputs, %d muscles need %d", bp.Brain.InputWidth(), m, InputWidth(m))
	}
	return nil
}

func checkPairs(kind string, pairs [][2]int, joints int) error {
	for i, p := range pairs {
		if p[0] < 0 || p[0] >= joints || p[1] < 0 || p[1] >= joints {
			return fmt.Errorf("%s %d references joint %v, have %d joints", kind, i, p, joints)
		}
		if p[0] == p[1] {
			return fmt.Errorf("%s %d connects joint %d to itself", kind, i, p[0])
		}
	}
	return nil
}

// Spawn creates the blueprint's entities in sim, offset by translation.
func (bp *Blueprint) Spawn(sim Simulator, translation Vec2) (*Runtime, error) {
	if err := bp.Validate(); err != nil {
		return nil, fmt.Errorf("spawn blueprint: %w", err)
	}

	rt := &Runtime{
		Brain:       bp.Brain.Clone(),
		Genome:      bp.Genome,
		Joints:      make([]EntityRef, len(bp.Joints)),
		Bones:       make([]EntityRef, len(bp.Bones)),
		Muscles:     make([]EntityRef, len(bp.Muscles)),
		RestLengths: make([]float32, len(bp.Muscles)),
		Targets:     make([]float32, len(bp.Muscles)),
	}

	var sumX float32
	world := make([]Vec2, len(bp.Joints))
	for i, p := range bp.Joints {
		world[i] = translation.Add(p)
		rt.Joints[i] = sim.SpawnJoint(world[i])
		sumX += world[i].X
	}
	if len(world) > 0 {
		rt.StartX = sumX / float32(len(world))
	}

	for i, b := range bp.Bones {
		rt.Bones[i] = sim.SpawnBone(
			[2]EntityRef{rt.Joints[b[0]], rt.Joints[b[1]]},
			[2]Vec2{world[b[0]], world[b[1]]},
		)
	}
	for i, m := range bp.Muscles {
		rt.Muscles[i] = sim.SpawnMuscle(
			[2]EntityRef{rt.Joints[m[0]], rt.Joints[m[1]]},
			[2]Vec2{world[m[0]], world[m[1]]},
		)
		rt.RestLengths[i] = world[m[1]].Sub(world[m[0]]).Len()
	}
	return rt, nil
}
