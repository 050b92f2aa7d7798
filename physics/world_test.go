package physics

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/pthm-cable/gait/organism"
)

func testConfig() Config {
	return Config{
		Gravity:        400,
		LaneHeight:     200,
		GroundFriction: 2,
		MuscleStrength: 50,
		JointMass:      1,
		JointDamping:   0.2,
		BoneIterations: 8,
	}
}

const dt = 1.0 / 60

func TestTransformAndDespawn(t *testing.T) {
	w := NewWorld(testConfig())

	a := w.SpawnJoint(organism.V2(0, 10))
	b := w.SpawnJoint(organism.V2(10, 20))
	bone := w.SpawnBone([2]organism.EntityRef{a, b}, [2]organism.Vec2{organism.V2(0, 10), organism.V2(10, 20)})

	tf, err := w.Transform(a)
	if err != nil {
		t.Fatal(err)
	}
	if tf.Position != organism.V2(0, 10) {
		t.Errorf("joint at %v", tf.Position)
	}

	tf, err = w.Transform(bone)
	if err != nil {
		t.Fatal(err)
	}
	if tf.Position != organism.V2(5, 15) {
		t.Errorf("bone midpoint %v, want (5,15)", tf.Position)
	}
	if math.Abs(float64(tf.Rotation)-math.Pi/4) > 1e-5 {
		t.Errorf("bone rotation %f, want pi/4", tf.Rotation)
	}

	w.Despawn(a)
	if _, err := w.Transform(a); !errors.Is(err, organism.ErrStale) {
		t.Errorf("despawned joint: err = %v, want ErrStale", err)
	}
	if _, err := w.Transform(bone); !errors.Is(err, organism.ErrStale) {
		t.Errorf("bone with dead joint: err = %v, want ErrStale", err)
	}
	if err := w.SetLinearDamping(a, 1); !errors.Is(err, organism.ErrStale) {
		t.Errorf("SetLinearDamping: err = %v, want ErrStale", err)
	}
	if _, err := w.Transform(999); !errors.Is(err, organism.ErrStale) {
		t.Errorf("unknown ref: err = %v, want ErrStale", err)
	}

	// Stepping with a dangling bone must not panic.
	w.Step(dt)

	w.Despawn(bone)
	w.Despawn(b)
	w.Despawn(b)
	if w.Len() != 0 {
		t.Errorf("Len = %d after despawning everything", w.Len())
	}
}

func TestWrongKind(t *testing.T) {
	w := NewWorld(testConfig())
	j := w.SpawnJoint(organism.V2(0, 0))

	if err := w.ContractMuscle(j, 3); err == nil {
		t.Error("ContractMuscle on a joint should fail")
	}
}

func TestGravityAndLaneFloor(t *testing.T) {
	w := NewWorld(testConfig())
	low := w.SpawnJoint(organism.V2(0, 50))
	high := w.SpawnJoint(organism.V2(0, 250))

	for i := 0; i < 600; i++ {
		w.Step(dt)
	}

	tf, _ := w.Transform(low)
	if tf.Position.Y != 0 {
		t.Errorf("lane 0 joint rests at y=%f, want 0", tf.Position.Y)
	}
	tf, _ = w.Transform(high)
	if tf.Position.Y != 200 {
		t.Errorf("lane 1 joint rests at y=%f, want 200", tf.Position.Y)
	}
}

func TestDampingSlowsFall(t *testing.T) {
	w := NewWorld(testConfig())
	free := w.SpawnJoint(organism.V2(0, 150))
	frozen := w.SpawnJoint(organism.V2(50, 150))
	if err := w.SetLinearDamping(frozen, 1000); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 10; i++ {
		w.Step(dt)
	}

	a, _ := w.Transform(free)
	b, _ := w.Transform(frozen)
	if b.Position.Y <= a.Position.Y {
		t.Errorf("damped joint fell further (%f) than free joint (%f)", b.Position.Y, a.Position.Y)
	}
	if 150-b.Position.Y > 1 {
		t.Errorf("damped joint fell %f units in 10 steps", 150-b.Position.Y)
	}
}

func TestBoneHoldsLength(t *testing.T) {
	w := NewWorld(testConfig())
	pa, pb := organism.V2(0, 100), organism.V2(40, 130)
	a := w.SpawnJoint(pa)
	b := w.SpawnJoint(pb)
	w.SpawnBone([2]organism.EntityRef{a, b}, [2]organism.Vec2{pa, pb})

	for i := 0; i < 300; i++ {
		w.Step(dt)
	}

	ta, _ := w.Transform(a)
	tb, _ := w.Transform(b)
	got := tb.Position.Sub(ta.Position).Len()
	if math.Abs(float64(got-50)) > 1 {
		t.Errorf("bone length %f, want ~50", got)
	}
}

func TestMuscleContracts(t *testing.T) {
	cfg := testConfig()
	cfg.Gravity = 0
	cfg.JointDamping = 5
	w := NewWorld(cfg)

	pa, pb := organism.V2(0, 100), organism.V2(60, 100)
	a := w.SpawnJoint(pa)
	b := w.SpawnJoint(pb)
	m := w.SpawnMuscle([2]organism.EntityRef{a, b}, [2]organism.Vec2{pa, pb})

	if err := w.ContractMuscle(m, 30); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 600; i++ {
		w.Step(dt)
	}

	ta, _ := w.Transform(a)
	tb, _ := w.Transform(b)
	got := tb.Position.Sub(ta.Position).Len()
	if math.Abs(float64(got-30)) > 2 {
		t.Errorf("muscle length %f, want ~30", got)
	}
}

func TestSpawnedOrganismStaysFinite(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	w := NewWorld(testConfig())

	var runtimes []*organism.Runtime
	for i, name := range organism.PresetNames() {
		bp, err := organism.NewPreset(rng, name, nil)
		if err != nil {
			t.Fatal(err)
		}
		rt, err := bp.Spawn(w, organism.V2(0, float32(i)*200))
		if err != nil {
			t.Fatal(err)
		}
		runtimes = append(runtimes, rt)
	}

	for step := 0; step < 600; step++ {
		for _, rt := range runtimes {
			stimuli, err := rt.Stimuli(w, float32(step)*dt)
			if err != nil {
				t.Fatalf("Stimuli: %v", err)
			}
			rt.Think(stimuli)
			if err := rt.Actuate(w, 0.3); err != nil {
				t.Fatalf("Actuate: %v", err)
			}
		}
		w.Step(dt)
	}

	for i, rt := range runtimes {
		d := rt.Displacement(w)
		if math.IsNaN(float64(d)) || math.IsInf(float64(d), 0) {
			t.Errorf("organism %d displacement %f", i, d)
		}
		for _, j := range rt.Joints {
			tf, err := w.Transform(j)
			if err != nil {
				t.Fatal(err)
			}
			lane := float32(i) * 200
			if tf.Position.Y < lane {
				t.Errorf("organism %d joint below its lane floor: %f", i, tf.Position.Y)
			}
		}
		rt.Despawn(w)
	}
	if w.Len() != 0 {
		t.Errorf("Len = %d after despawn", w.Len())
	}
}
