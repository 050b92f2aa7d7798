package main

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

// tuneLog appends one CSV row per evaluation and tracks the best point.
// Columns depend on the parameter set, so rows are written field by field.
type tuneLog struct {
	params   *ParamVector
	f        *os.File
	w        *csv.Writer
	maxEvals int
	start    time.Time

	evals       int
	bestFitness float64
	bestParams  []float64
}

func newTuneLog(path string, params *ParamVector, maxEvals int) (*tuneLog, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating tuning log: %w", err)
	}
	l := &tuneLog{
		params:      params,
		f:           f,
		w:           csv.NewWriter(f),
		maxEvals:    maxEvals,
		start:       time.Now(),
		bestFitness: 1e9,
	}

	header := []string{"eval", "fitness", "progress"}
	for _, spec := range params.Specs {
		header = append(header, spec.Name)
	}
	if err := l.w.Write(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing tuning log header: %w", err)
	}
	return l, nil
}

// record logs one evaluation of raw (denormalized) values.
func (l *tuneLog) record(raw []float64, fitness, progress float64) {
	l.evals++
	clamped := l.params.Clamp(raw)
	if fitness < l.bestFitness {
		l.bestFitness = fitness
		l.bestParams = clamped
	}

	row := make([]string, 0, 3+len(clamped))
	row = append(row,
		strconv.Itoa(l.evals),
		strconv.FormatFloat(fitness, 'f', 6, 64),
		strconv.FormatFloat(progress, 'f', 6, 64),
	)
	for _, v := range clamped {
		row = append(row, strconv.FormatFloat(v, 'f', 6, 64))
	}
	if err := l.w.Write(row); err != nil {
		slog.Error("failed to write tuning log", "error", err)
	}
	l.w.Flush()

	elapsed := time.Since(l.start)
	eta := time.Duration(l.maxEvals-l.evals) * (elapsed / time.Duration(l.evals))
	slog.Info("evaluation",
		"eval", l.evals,
		"max_evals", l.maxEvals,
		"progress", progress,
		"best_progress", -l.bestFitness,
		"elapsed", formatDuration(elapsed),
		"eta", formatDuration(eta),
	)
}

func (l *tuneLog) Close() error {
	l.w.Flush()
	if err := l.w.Error(); err != nil {
		l.f.Close()
		return err
	}
	return l.f.Close()
}

// formatDuration formats a duration as 1h02m03s, or 2m03s under an hour.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}
