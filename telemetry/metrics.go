package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes generation progress as Prometheus metrics on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	generations  prometheus.Counter
	staleSkips   prometheus.Counter
	generation   prometheus.Gauge
	fitness      *prometheus.GaugeVec
	displacement prometheus.Gauge
	morphology   *prometheus.GaugeVec
	ticksPerSec  prometheus.Gauge
}

// NewMetrics creates and registers the trainer metrics.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gait_generations_total",
			Help: "Generations completed by this process.",
		}),
		staleSkips: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gait_stale_skips_total",
			Help: "Organism ticks skipped because a simulator handle no longer resolved.",
		}),
		generation: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gait_generation",
			Help: "Number of the last finished generation.",
		}),
		fitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gait_fitness",
			Help: "Fitness of the last finished generation.",
		}, []string{"stat"}),
		displacement: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gait_best_displacement",
			Help: "Largest horizontal displacement in the last finished generation.",
		}),
		morphology: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "gait_morphology_mean",
			Help: "Mean part count per blueprint of the current generation.",
		}, []string{"part"}),
		ticksPerSec: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gait_ticks_per_second",
			Help: "Trainer ticks per wall-clock second over the perf window.",
		}),
	}
	m.registry.MustRegister(
		m.generations, m.staleSkips, m.generation, m.fitness,
		m.displacement, m.morphology, m.ticksPerSec,
	)
	return m
}

// Observe records a finished generation.
func (m *Metrics) Observe(s GenerationStats) {
	if m == nil {
		return
	}
	m.generations.Inc()
	m.staleSkips.Add(float64(s.StaleSkips))
	m.generation.Set(float64(s.Generation))
	m.fitness.With(prometheus.Labels{"stat": "max"}).Set(s.FitnessMax)
	m.fitness.With(prometheus.Labels{"stat": "mean"}).Set(s.FitnessMean)
	m.fitness.With(prometheus.Labels{"stat": "p50"}).Set(s.FitnessP50)
	m.displacement.Set(s.DisplacementMax)
	m.morphology.With(prometheus.Labels{"part": "joints"}).Set(s.JointsMean)
	m.morphology.With(prometheus.Labels{"part": "bones"}).Set(s.BonesMean)
	m.morphology.With(prometheus.Labels{"part": "muscles"}).Set(s.MusclesMean)
}

// ObservePerf records trainer throughput.
func (m *Metrics) ObservePerf(s PerfStats) {
	if m == nil {
		return
	}
	m.ticksPerSec.Set(s.TicksPerSecond)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Start listens on addr and serves /metrics in the background until ctx
// is cancelled. It returns the bound address.
func (m *Metrics) Start(ctx context.Context, addr string) (net.Addr, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listening for metrics: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server stopped", "error", err)
		}
	}()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	return ln.Addr(), nil
}
