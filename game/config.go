package game

import (
	"github.com/pthm-cable/gait/config"
	"github.com/pthm-cable/gait/evolution"
	"github.com/pthm-cable/gait/organism"
	"github.com/pthm-cable/gait/physics"
)

// physicsConfig maps the loaded config onto the reference simulator.
func physicsConfig(cfg *config.Config) physics.Config {
	p := cfg.Physics
	return physics.Config{
		Gravity:        float32(p.Gravity),
		LaneHeight:     cfg.Derived.LaneHeight32,
		GroundFriction: float32(p.GroundFriction),
		MuscleStrength: float32(p.MuscleStrength),
		JointMass:      float32(p.JointMass),
		JointDamping:   float32(p.JointDamping),
		BoneIterations: p.BoneIterations,
	}
}

// mutationBounds converts the configured joint box.
func mutationBounds(cfg *config.Config) organism.Bounds {
	b := cfg.Morphology.Bounds
	return organism.Bounds{
		Min: organism.V2(float32(b.MinX), float32(b.MinY)),
		Max: organism.V2(float32(b.MaxX), float32(b.MaxY)),
	}
}

// schedulerOptions maps the loaded config onto the generation scheduler.
func schedulerOptions(cfg *config.Config) evolution.Options {
	g := cfg.Generation
	return evolution.Options{
		Population:         g.Population,
		VerticalSeparation: float32(g.VerticalSeparation),
		Duration:           cfg.Derived.Duration32,
		Unfreeze:           g.Unfreeze,
		Debug:              g.Debug,
		Curve: organism.FreezeCurve{
			FreezeDamping: float32(g.FreezeDamping),
			FloorDamping:  float32(g.FloorDamping),
		},
		ProgressWeight:    g.ProgressWeight,
		EfficiencyWeight:  g.EfficiencyWeight,
		SelectionSweeps:   g.SelectionSweeps,
		MuscleStretch:     float32(g.MuscleStretch),
		Bounds:            mutationBounds(cfg),
		ParallelThreshold: cfg.Parallel.Threshold,
		Workers:           cfg.Derived.Workers,
	}
}
