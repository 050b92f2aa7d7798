package organism

import (
	"errors"
	"math"

	"github.com/pthm-cable/gait/genetics"
	"github.com/pthm-cable/gait/neural"
)

// Thawed is the FreezeProgress sentinel once the freeze ramp has finished.
const Thawed float32 = -1

// FreezeCurve maps freeze progress to a joint linear damping coefficient.
type FreezeCurve struct {
	FreezeDamping float32 // extra damping at progress 0
	FloorDamping  float32 // damping once thawed
}

// Damping returns FreezeDamping*(x-1)^2 + FloorDamping for x < 1, FloorDamping otherwise.
func (c FreezeCurve) Damping(x float32) float32 {
	if x >= 1 {
		return c.FloorDamping
	}
	if x < 0 {
		x = 0
	}
	d := x - 1
	return c.FreezeDamping*d*d + c.FloorDamping
}

// Runtime is a spawned organism. It holds live copies of the blueprint's
// brain and genome plus handles into the simulator.
type Runtime struct {
	Brain  *neural.Brain
	Genome genetics.Genome

	Joints  []EntityRef
	Bones   []EntityRef
	Muscles []EntityRef

	RestLengths []float32 // muscle length at spawn
	Targets     []float32 // last brain output per muscle, in [-1, 1]

	EnergyUsed     float32
	FreezeProgress float32
	StartX         float32 // mean joint x at spawn
}

// Stimuli builds the external stimulus vector for the brain: clock phase,
// body orientation, then one orientation per muscle. Angles are scaled to
// [-1, 1]. Any simulator error, ErrStale included, is returned unchanged.
func (rt *Runtime) Stimuli(sim Simulator, elapsed float32) ([]float32, error) {
	out := make([]float32, 0, ExternalStimuli+len(rt.Muscles))
	out = append(out, ClockPhase(elapsed, rt.Genome.InternalClock.Value))

	var body float32
	if len(rt.Bones) > 0 {
		tf, err := sim.Transform(rt.Bones[0])
		if err != nil {
			return nil, err
		}
		body = tf.Rotation / math.Pi
	}
	out = append(out, body)

	for _, m := range rt.Muscles {
		tf, err := sim.Transform(m)
		if err != nil {
			return nil, err
		}
		out = append(out, tf.Rotation/math.Pi)
	}
	return out, nil
}

// ClockPhase maps elapsed time onto a saw wave in [-1, 1) with the given period.
func ClockPhase(elapsed, period float32) float32 {
	if period < genetics.MinAllele {
		period = genetics.MinAllele
	}
	t := float32(math.Mod(float64(elapsed), float64(period)))
	if t < 0 {
		t += period
	}
	return 2*t/period - 1
}

// Think runs the brain, stores the output as memory and as the new muscle
// targets, and charges the total target change to EnergyUsed.
// It touches only the runtime, so distinct runtimes may think concurrently.
func (rt *Runtime) Think(stimuli []float32) []float32 {
	out := rt.Brain.Forward(stimuli)
	rt.Brain.SetMemory(out)

	for i, v := range out {
		d := v - rt.Targets[i]
		if d < 0 {
			d = -d
		}
		rt.EnergyUsed += d
	}
	copy(rt.Targets, out)
	return out
}

// Actuate sends every muscle its target length RestLength*(1+stretch*target).
// All muscles are attempted; the first error is returned.
func (rt *Runtime) Actuate(sim Simulator, stretch float32) error {
	var first error
	for i, m := range rt.Muscles {
		length := rt.RestLengths[i] * (1 + stretch*rt.Targets[i])
		if err := sim.ContractMuscle(m, length); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// AdvanceFreeze moves the freeze ramp forward by dt and returns the damping
// to apply. Once progress reaches 1 the runtime is marked Thawed and the
// floor damping is returned one last time. active is false for thawed runtimes.
func (rt *Runtime) AdvanceFreeze(dt float32, curve FreezeCurve) (damping float32, active bool) {
	if rt.FreezeProgress == Thawed {
		return 0, false
	}
	rt.FreezeProgress += dt
	if rt.FreezeProgress >= 1 {
		rt.FreezeProgress = Thawed
		return curve.FloorDamping, true
	}
	return curve.Damping(rt.FreezeProgress), true
}

// SetDamping applies a linear damping coefficient to every joint.
func (rt *Runtime) SetDamping(sim Simulator, damping float32) error {
	var errs []error
	for _, j := range rt.Joints {
		if err := sim.SetLinearDamping(j, damping); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Displacement returns the mean joint x minus the mean at spawn. Joints
// that no longer resolve are ignored; NaN is returned when none do.
func (rt *Runtime) Displacement(sim Simulator) float32 {
	var sum float32
	n := 0
	for _, j := range rt.Joints {
		tf, err := sim.Transform(j)
		if err != nil {
			continue
		}
		sum += tf.Position.X
		n++
	}
	if n == 0 {
		return float32(math.NaN())
	}
	return sum/float32(n) - rt.StartX
}

// Despawn releases every handle. The runtime must not be used afterwards.
func (rt *Runtime) Despawn(sim Simulator) {
	for _, m := range rt.Muscles {
		sim.Despawn(m)
	}
	for _, b := range rt.Bones {
		sim.Despawn(b)
	}
	for _, j := range rt.Joints {
		sim.Despawn(j)
	}
	rt.Joints, rt.Bones, rt.Muscles = nil, nil, nil
}
