package main

import (
	"github.com/pthm-cable/gait/config"
)

// ParamSpec is one tunable config field and its search range.
type ParamSpec struct {
	Name     string
	Min, Max float64
	Default  float64
	field    func(*config.Config) *float64
}

// ParamVector is the ordered set of tuned fields.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector returns the fields that shape how fast walkers improve.
func NewParamVector() *ParamVector {
	return &ParamVector{Specs: []ParamSpec{
		{"muscle_stretch", 0.1, 0.9, 0.5, func(c *config.Config) *float64 { return &c.Generation.MuscleStretch }},
		{"freeze_damping", 10, 2000, 1000, func(c *config.Config) *float64 { return &c.Generation.FreezeDamping }},
		{"floor_damping", 0, 2, 0.2, func(c *config.Config) *float64 { return &c.Generation.FloorDamping }},
		{"progress_weight", 0.1, 1, 0.5, func(c *config.Config) *float64 { return &c.Generation.ProgressWeight }},
		{"efficiency_weight", 0, 1, 0.5, func(c *config.Config) *float64 { return &c.Generation.EfficiencyWeight }},
		{"ground_friction", 0.5, 10, 4, func(c *config.Config) *float64 { return &c.Physics.GroundFriction }},
		{"muscle_strength", 5, 100, 40, func(c *config.Config) *float64 { return &c.Physics.MuscleStrength }},
		{"joint_damping", 0, 2, 0.2, func(c *config.Config) *float64 { return &c.Physics.JointDamping }},
	}}
}

func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns every spec's default.
func (pv *ParamVector) DefaultVector() []float64 {
	return pv.each(func(_ int, s ParamSpec) float64 { return s.Default })
}

// Normalize maps raw values onto [0, 1] per spec range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	return pv.each(func(i int, s ParamSpec) float64 { return (raw[i] - s.Min) / (s.Max - s.Min) })
}

// Denormalize is the inverse of Normalize. Results may fall outside the range.
func (pv *ParamVector) Denormalize(unit []float64) []float64 {
	return pv.each(func(i int, s ParamSpec) float64 { return s.Min + unit[i]*(s.Max-s.Min) })
}

// Clamp limits each value to its spec range.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	return pv.each(func(i int, s ParamSpec) float64 { return min(max(v[i], s.Min), s.Max) })
}

// ApplyToConfig writes clamped values into cfg.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	for i, v := range pv.Clamp(values) {
		*pv.Specs[i].field(cfg) = v
	}
}

// ExtractFromConfig reads the tuned fields from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return pv.each(func(_ int, s ParamSpec) float64 { return *s.field(cfg) })
}

func (pv *ParamVector) each(f func(int, ParamSpec) float64) []float64 {
	out := make([]float64, len(pv.Specs))
	for i, s := range pv.Specs {
		out[i] = f(i, s)
	}
	return out
}
