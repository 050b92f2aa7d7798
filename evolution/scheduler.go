// Package evolution runs generations of organisms against a Simulator:
// spawning, the freeze ramp, brain ticks, fitness, selection and
// reproduction.
package evolution

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/pthm-cable/gait/organism"
)

// debugInterval is the generation time between memory dumps of organism 0.
const debugInterval float32 = 0.5

// Options configures a Scheduler.
type Options struct {
	Population         int     // blueprints bred per generation
	VerticalSeparation float32 // spawn offset between consecutive organisms
	Duration           float32 // generation length in seconds
	Unfreeze           bool    // false holds every organism at full freeze damping
	Debug              bool    // log organism 0's memory every half second

	Curve            organism.FreezeCurve
	ProgressWeight   float64
	EfficiencyWeight float64
	SelectionSweeps  int
	MuscleStretch    float32
	Bounds           organism.Bounds // joint mutation box, relative to spawn

	ParallelThreshold int // below this many organisms brains think serially
	Workers           int // 0 = GOMAXPROCS
}

// Population is the set of blueprints under evaluation and, once spawned,
// their runtimes. Runtimes[i] was spawned from Blueprints[i].
type Population struct {
	Blueprints []*organism.Blueprint
	Runtimes   []*organism.Runtime
	Spawned    bool
	Generation uint32
}

// GenerationReport summarizes a finished generation. Next holds the
// blueprints of the generation that was just spawned.
type GenerationReport struct {
	Generation   uint32 // the generation that finished
	Scores       Scores
	Displacement []float32
	EnergyUsed   []float32
	Best         int   // index of the fittest organism
	Parents      []int // selected index per child
	Stale        int   // organism ticks skipped on stale handles
	Next         []*organism.Blueprint
}

// Hook receives a report after every generation transition.
type Hook func(GenerationReport)

// Scheduler drives a Population through generations. It is not safe for
// concurrent use; Tick runs brains in parallel internally.
type Scheduler struct {
	sim  organism.Simulator
	rng  *rand.Rand
	opts Options
	pop  Population
	pool *brainPool

	elapsed   float32
	nextDebug float32
	stale     int
	hooks     []Hook
}

// NewScheduler creates a scheduler over the given initial blueprints.
// Nothing is spawned until the first Tick.
func NewScheduler(sim organism.Simulator, rng *rand.Rand, opts Options, blueprints []*organism.Blueprint) *Scheduler {
	if opts.Population <= 0 {
		opts.Population = len(blueprints)
	}
	if opts.SelectionSweeps <= 0 {
		opts.SelectionSweeps = DefaultSelectionSweeps
	}
	return &Scheduler{
		sim:  sim,
		rng:  rng,
		opts: opts,
		pop:  Population{Blueprints: blueprints},
		pool: newBrainPool(opts.Workers, opts.ParallelThreshold),
	}
}

// OnGeneration registers a hook called after each generation transition.
func (s *Scheduler) OnGeneration(h Hook) {
	s.hooks = append(s.hooks, h)
}

// Population returns the live population. Callers must not modify it.
func (s *Scheduler) Population() *Population {
	return &s.pop
}

// Elapsed returns the simulated time spent in the current generation.
func (s *Scheduler) Elapsed() float32 {
	return s.elapsed
}

// Reset despawns the current population and replaces it. The new
// blueprints are spawned on the next Tick.
func (s *Scheduler) Reset(blueprints []*organism.Blueprint, generation uint32) {
	s.despawn()
	s.pop = Population{Blueprints: blueprints, Generation: generation}
	s.elapsed = 0
	s.nextDebug = 0
	s.stale = 0
}

// Close despawns the population and stops the brain workers.
func (s *Scheduler) Close() {
	s.despawn()
	s.pool.stop()
}

// Tick advances the current generation by dt seconds. The caller steps
// the simulator after each Tick.
func (s *Scheduler) Tick(dt float32) {
	if len(s.pop.Blueprints) == 0 {
		return
	}
	if !s.pop.Spawned {
		s.spawn()
		return
	}

	s.elapsed += dt
	s.freeze(dt)
	s.think()

	if s.opts.Debug && s.elapsed >= s.nextDebug {
		s.nextDebug = s.elapsed + debugInterval
		if rt := s.pop.Runtimes[0]; rt != nil {
			slog.Debug("organism memory", "generation", s.pop.Generation, "elapsed", s.elapsed, "memory", rt.Brain.Memory)
		}
	}

	if s.elapsed >= s.opts.Duration {
		s.advance()
	}
}

func (s *Scheduler) spawn() {
	initial := s.opts.Curve.Damping(0)
	s.pop.Runtimes = make([]*organism.Runtime, len(s.pop.Blueprints))
	for i, bp := range s.pop.Blueprints {
		at := organism.V2(0, float32(i)*s.opts.VerticalSeparation)
		rt, err := bp.Spawn(s.sim, at)
		if err != nil {
			panic(fmt.Sprintf("evolution: spawning blueprint %d: %v", i, err))
		}
		if err := rt.SetDamping(s.sim, initial); err != nil {
			s.skip(i, "freeze", err)
		}
		s.pop.Runtimes[i] = rt
	}
	s.pop.Spawned = true
}

func (s *Scheduler) despawn() {
	if !s.pop.Spawned {
		return
	}
	for _, rt := range s.pop.Runtimes {
		rt.Despawn(s.sim)
	}
	s.pop.Runtimes = nil
	s.pop.Spawned = false
}

// freeze moves every organism along the freeze ramp. When unfreezing is
// disabled the spawn damping stays in place.
func (s *Scheduler) freeze(dt float32) {
	if !s.opts.Unfreeze {
		return
	}
	for i, rt := range s.pop.Runtimes {
		d, active := rt.AdvanceFreeze(dt, s.opts.Curve)
		if !active {
			continue
		}
		if err := rt.SetDamping(s.sim, d); err != nil {
			s.skip(i, "freeze", err)
		}
	}
}

// think runs one brain step for every organism whose handles resolve.
func (s *Scheduler) think() {
	// Phase A: gather stimuli (reads only)
	s.pool.jobs = s.pool.jobs[:0]
	for i, rt := range s.pop.Runtimes {
		stimuli, err := rt.Stimuli(s.sim, s.elapsed)
		if err != nil {
			s.skip(i, "stimuli", err)
			continue
		}
		s.pool.jobs = append(s.pool.jobs, thinkJob{idx: i, rt: rt, stimuli: stimuli})
	}

	// Phase B: forward passes
	s.pool.run()

	// Phase C: apply muscle targets
	for i := range s.pool.jobs {
		job := &s.pool.jobs[i]
		if err := job.rt.Actuate(s.sim, s.opts.MuscleStretch); err != nil {
			s.skip(job.idx, "actuate", err)
		}
	}
}

// skip records a collaborator failure. Staleness is expected around
// despawns and only logged at debug level.
func (s *Scheduler) skip(i int, stage string, err error) {
	if errors.Is(err, organism.ErrStale) {
		s.stale++
		slog.Debug("stale organism", "organism", i, "stage", stage, "err", err)
		return
	}
	slog.Warn("organism tick failed", "organism", i, "stage", stage, "err", err)
}

// advance scores the finished generation, breeds the next one and
// respawns it.
func (s *Scheduler) advance() {
	n := len(s.pop.Runtimes)
	report := GenerationReport{
		Generation:   s.pop.Generation,
		Displacement: make([]float32, n),
		EnergyUsed:   make([]float32, n),
		Stale:        s.stale,
	}
	for i, rt := range s.pop.Runtimes {
		report.Displacement[i] = rt.Displacement(s.sim)
		report.EnergyUsed[i] = rt.EnergyUsed
	}

	report.Scores = Fitness(report.Displacement, report.EnergyUsed, s.opts.ProgressWeight, s.opts.EfficiencyWeight)
	report.Best = floats.MaxIdx(report.Scores.Fitness)
	report.Parents = Select(s.rng, report.Scores.Fitness, s.opts.Population, s.opts.SelectionSweeps)

	next := make([]*organism.Blueprint, len(report.Parents))
	for i, p := range report.Parents {
		child := s.pop.Blueprints[p].Clone()
		child.Mutate(s.rng, s.opts.Bounds)
		next[i] = child
	}
	report.Next = next

	s.despawn()
	s.pop.Blueprints = next
	s.pop.Generation++
	s.elapsed = 0
	s.nextDebug = 0
	s.stale = 0
	s.spawn()

	for _, h := range s.hooks {
		h(report)
	}
}
