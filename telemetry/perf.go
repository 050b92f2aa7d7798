package telemetry

import (
	"log/slog"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

// Phase is one timed section of a trainer tick.
type Phase int

// Phases of the trainer step. Persist and telemetry run inside the
// scheduler tick that finishes a generation.
const (
	PhaseScheduler Phase = iota // freeze ramp, brains, generation transitions
	PhasePhysics
	PhasePersist
	PhaseTelemetry
	numPhases
)

var phaseNames = [numPhases]string{"scheduler", "physics", "persist", "telemetry"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// tickSample is the timing of one tick.
type tickSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// PerfCollector keeps the last windowSize tick timings in a ring.
type PerfCollector struct {
	ring  []tickSample
	next  int
	count int

	cur        tickSample
	tickStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool
}

// NewPerfCollector creates a collector averaging over windowSize ticks.
func NewPerfCollector(windowSize int) *PerfCollector {
	if windowSize < 1 {
		windowSize = 60
	}
	return &PerfCollector{ring: make([]tickSample, windowSize)}
}

// StartTick begins timing a new tick.
func (p *PerfCollector) StartTick() {
	p.tickStart = time.Now()
	p.cur = tickSample{}
	p.inPhase = false
}

// StartPhase closes the running phase, if any, and opens the next.
func (p *PerfCollector) StartPhase(phase Phase) {
	now := time.Now()
	p.closePhase(now)
	p.phaseStart = now
	p.phase = phase
	p.inPhase = true
}

func (p *PerfCollector) closePhase(now time.Time) {
	if p.inPhase && p.phase >= 0 && p.phase < numPhases {
		p.cur.phases[p.phase] += now.Sub(p.phaseStart)
	}
}

// EndTick finishes the tick and stores it in the ring.
func (p *PerfCollector) EndTick() {
	now := time.Now()
	p.closePhase(now)
	p.inPhase = false
	p.cur.total = now.Sub(p.tickStart)

	p.ring[p.next] = p.cur
	p.next = (p.next + 1) % len(p.ring)
	if p.count < len(p.ring) {
		p.count++
	}
}

// PerfStats summarizes the tick timings in the window.
type PerfStats struct {
	Ticks          int
	AvgTick        time.Duration
	P50Tick        time.Duration
	P99Tick        time.Duration
	MaxTick        time.Duration
	TicksPerSecond float64

	// Share of tick time per phase, in percent
	PhasePct [numPhases]float64
}

// Stats computes the window summary.
func (p *PerfCollector) Stats() PerfStats {
	if p.count == 0 {
		return PerfStats{}
	}

	totals := make([]float64, p.count)
	var sum time.Duration
	var phaseSum [numPhases]time.Duration
	for i, s := range p.ring[:p.count] {
		totals[i] = float64(s.total)
		sum += s.total
		for ph, d := range s.phases {
			phaseSum[ph] += d
		}
	}
	sort.Float64s(totals)

	out := PerfStats{
		Ticks:   p.count,
		AvgTick: sum / time.Duration(p.count),
		P50Tick: time.Duration(stat.Quantile(0.5, stat.Empirical, totals, nil)),
		P99Tick: time.Duration(stat.Quantile(0.99, stat.Empirical, totals, nil)),
		MaxTick: time.Duration(totals[len(totals)-1]),
	}
	if sum > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(out.AvgTick)
		for ph, d := range phaseSum {
			out.PhasePct[ph] = float64(d) / float64(sum) * 100
		}
	}
	return out
}

// LogStats logs the window summary, skipping phases under 0.1%.
func (s PerfStats) LogStats() {
	attrs := []any{
		"avg_tick_us", s.AvgTick.Microseconds(),
		"p99_tick_us", s.P99Tick.Microseconds(),
		"ticks_per_sec", int(s.TicksPerSecond),
	}
	for ph, pct := range s.PhasePct {
		if pct > 0.1 {
			attrs = append(attrs, Phase(ph).String()+"_pct", float64(int(pct*10))/10)
		}
	}
	slog.Info("perf", attrs...)
}

// LogValue implements slog.LogValuer.
func (s PerfStats) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int("ticks", s.Ticks),
		slog.Int64("avg_tick_us", s.AvgTick.Microseconds()),
		slog.Int64("p50_tick_us", s.P50Tick.Microseconds()),
		slog.Int64("p99_tick_us", s.P99Tick.Microseconds()),
		slog.Int64("max_tick_us", s.MaxTick.Microseconds()),
		slog.Float64("ticks_per_sec", s.TicksPerSecond),
	}
	for ph, pct := range s.PhasePct {
		attrs = append(attrs, slog.Float64(Phase(ph).String()+"_pct", pct))
	}
	return slog.GroupValue(attrs...)
}

// PerfStatsCSV is one perf.csv row.
type PerfStatsCSV struct {
	Generation   uint32  `csv:"generation"`
	Ticks        int     `csv:"ticks"`
	AvgTickUS    int64   `csv:"avg_tick_us"`
	P50TickUS    int64   `csv:"p50_tick_us"`
	P99TickUS    int64   `csv:"p99_tick_us"`
	MaxTickUS    int64   `csv:"max_tick_us"`
	TicksPerSec  float64 `csv:"ticks_per_sec"`
	SchedulerPct float64 `csv:"scheduler_pct"`
	PhysicsPct   float64 `csv:"physics_pct"`
	PersistPct   float64 `csv:"persist_pct"`
	TelemetryPct float64 `csv:"telemetry_pct"`
}

// ToCSV flattens the stats for the given generation.
func (s PerfStats) ToCSV(generation uint32) PerfStatsCSV {
	return PerfStatsCSV{
		Generation:   generation,
		Ticks:        s.Ticks,
		AvgTickUS:    s.AvgTick.Microseconds(),
		P50TickUS:    s.P50Tick.Microseconds(),
		P99TickUS:    s.P99Tick.Microseconds(),
		MaxTickUS:    s.MaxTick.Microseconds(),
		TicksPerSec:  s.TicksPerSecond,
		SchedulerPct: s.PhasePct[PhaseScheduler],
		PhysicsPct:   s.PhasePct[PhasePhysics],
		PersistPct:   s.PhasePct[PhasePersist],
		TelemetryPct: s.PhasePct[PhaseTelemetry],
	}
}
