package game

import (
	"log/slog"

	"github.com/pthm-cable/gait/evolution"
	"github.com/pthm-cable/gait/telemetry"
)

// onGeneration records a finished generation and saves the next one on cadence.
func (g *Game) onGeneration(r evolution.GenerationReport) {
	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)

	stats := telemetry.FromReport(r)
	perfStats := g.perfCollector.Stats()
	g.lastStats = stats

	// Call stats callback if provided
	if g.statsCallback != nil {
		g.statsCallback(stats)
	}

	if g.logStats && logEvery(g.cfg.Telemetry.LogEvery, r.Generation) {
		stats.LogStats()
		perfStats.LogStats()
	}

	// Write to CSV if output manager is enabled
	if g.outputManager != nil {
		if err := g.outputManager.WriteGeneration(stats); err != nil {
			slog.Error("failed to write generation", "error", err)
		}
		if err := g.outputManager.WritePerf(perfStats, r.Generation); err != nil {
			slog.Error("failed to write perf", "error", err)
		}
	}

	g.metrics.Observe(stats)
	g.metrics.ObservePerf(perfStats)

	next := r.Generation + 1
	if every := g.cfg.Save.Every; every > 0 && next%uint32(every) == 0 {
		g.perfCollector.StartPhase(telemetry.PhasePersist)
		g.savePopulation(next, stats.FitnessMax, r.Next)
	}
}

func logEvery(every int, generation uint32) bool {
	return every > 0 && generation%uint32(every) == 0
}
