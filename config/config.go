// Package config provides configuration loading and access for the trainer.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all trainer configuration parameters.
type Config struct {
	Generation GenerationConfig `yaml:"generation"`
	Morphology MorphologyConfig `yaml:"morphology"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Parallel   ParallelConfig   `yaml:"parallel"`
	Save       SaveConfig       `yaml:"save"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// GenerationConfig holds the generation scheduler parameters.
type GenerationConfig struct {
	Population         int     `yaml:"population"`          // Blueprints per generation
	VerticalSeparation float64 `yaml:"vertical_separation"` // Spawn offset between organisms
	Duration           float64 `yaml:"duration"`            // Seconds of simulated time per generation
	Unfreeze           bool    `yaml:"unfreeze"`            // Run the freeze ramp; false holds organisms frozen
	Debug              bool    `yaml:"debug"`               // Log organism 0's memory every half second
	Seed               int64   `yaml:"seed"`                // RNG seed for mutation (0 = time based)

	FreezeDamping float64 `yaml:"freeze_damping"` // Extra joint damping right after spawn
	FloorDamping  float64 `yaml:"floor_damping"`  // Joint damping once thawed

	ProgressWeight   float64 `yaml:"progress_weight"`   // Fitness weight of normalized displacement
	EfficiencyWeight float64 `yaml:"efficiency_weight"` // Fitness weight of normalized 1/(1+energy)
	SelectionSweeps  int     `yaml:"selection_sweeps"`  // Cap on acceptance sweeps before argmax fill
	MuscleStretch    float64 `yaml:"muscle_stretch"`    // Target length = rest * (1 + stretch*output)
}

// MorphologyConfig selects the starting body and mutation bounds.
type MorphologyConfig struct {
	Preset       string       `yaml:"preset"`
	HiddenLayers []int        `yaml:"hidden_layers"` // Empty uses the preset's own
	Bounds       BoundsConfig `yaml:"bounds"`
}

// BoundsConfig is the box joint positions are clamped into, relative to the spawn point.
type BoundsConfig struct {
	MinX float64 `yaml:"min_x"`
	MinY float64 `yaml:"min_y"`
	MaxX float64 `yaml:"max_x"`
	MaxY float64 `yaml:"max_y"`
}

// PhysicsConfig holds reference simulator parameters.
type PhysicsConfig struct {
	DT             float64 `yaml:"dt"`
	Gravity        float64 `yaml:"gravity"`
	LaneHeight     float64 `yaml:"lane_height"` // 0 = generation.vertical_separation
	GroundFriction float64 `yaml:"ground_friction"`
	MuscleStrength float64 `yaml:"muscle_strength"`
	BoneIterations int     `yaml:"bone_iterations"`
	JointMass      float64 `yaml:"joint_mass"`
	JointDamping   float64 `yaml:"joint_damping"`
}

// ParallelConfig controls the brain worker pool.
type ParallelConfig struct {
	Threshold int `yaml:"threshold"` // Below this many organisms brains run serially
	Workers   int `yaml:"workers"`   // 0 = runtime.NumCPU()
}

// SaveConfig controls population persistence.
type SaveConfig struct {
	Every      int    `yaml:"every"`       // Save every N generations (0 = never)
	Dir        string `yaml:"dir"`         // Directory for gen_NNNNN.json files
	Load       bool   `yaml:"load"`        // Load a population at startup
	LoadPath   string `yaml:"load_path"`   // File to load; empty = latest archived generation
	Backend    string `yaml:"backend"`     // "file" or "sqlite"
	SQLitePath string `yaml:"sqlite_path"` // Archive database for the sqlite backend
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	PerfWindow  int    `yaml:"perf_window"`  // Ticks per perf sample
	MetricsAddr string `yaml:"metrics_addr"` // Serve /metrics here when set
	LogEvery    int    `yaml:"log_every"`    // Log a generation summary every N generations
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	DT32         float32 // Physics.DT as float32
	Duration32   float32 // Generation.Duration as float32
	LaneHeight32 float32 // Effective lane height
	Workers      int     // Effective worker count
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Refresh(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the scheduler cannot run.
func (c *Config) Validate() error {
	g := c.Generation
	if g.Population < 2 {
		return fmt.Errorf("generation.population must be at least 2, got %d", g.Population)
	}
	if g.Duration <= 0 {
		return fmt.Errorf("generation.duration must be positive, got %v", g.Duration)
	}
	if c.Physics.DT <= 0 {
		return fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT)
	}
	b := c.Morphology.Bounds
	if b.MinX > b.MaxX || b.MinY > b.MaxY {
		return fmt.Errorf("morphology.bounds min %v,%v exceeds max %v,%v", b.MinX, b.MinY, b.MaxX, b.MaxY)
	}
	switch c.Save.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("save.backend must be file or sqlite, got %q", c.Save.Backend)
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Morphology.HiddenLayers = append([]int(nil), c.Morphology.HiddenLayers...)
	return &out
}

// Refresh validates the configuration and recomputes derived values.
// Call it after changing fields of a loaded config.
func (c *Config) Refresh() error {
	if err := c.Validate(); err != nil {
		return err
	}
	c.computeDerived()
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.DT32 = float32(c.Physics.DT)
	c.Derived.Duration32 = float32(c.Generation.Duration)

	lane := c.Physics.LaneHeight
	if lane == 0 {
		lane = c.Generation.VerticalSeparation
	}
	c.Derived.LaneHeight32 = float32(lane)

	c.Derived.Workers = c.Parallel.Workers
	if c.Derived.Workers <= 0 {
		c.Derived.Workers = runtime.NumCPU()
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
