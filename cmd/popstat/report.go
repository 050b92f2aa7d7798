package main

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pthm-cable/gait/organism"
)

// blueprintRow is one organism of a saved population.
type blueprintRow struct {
	Index   int    `csv:"index"`
	Joints  int    `csv:"joints"`
	Bones   int    `csv:"bones"`
	Muscles int    `csv:"muscles"`
	Layers  string `csv:"layers"`
	Params  int    `csv:"params"`

	LearningRate   float64 `csv:"learning_rate"`
	LearningFactor float64 `csv:"learning_factor"`
	InternalClock  float64 `csv:"internal_clock"`
	MetaRate       float64 `csv:"meta_rate"`
}

func blueprintRows(bps []*organism.Blueprint) []blueprintRow {
	rows := make([]blueprintRow, len(bps))
	for i, bp := range bps {
		g := bp.Genome
		rows[i] = blueprintRow{
			Index:          i,
			Joints:         len(bp.Joints),
			Bones:          len(bp.Bones),
			Muscles:        len(bp.Muscles),
			Layers:         layerString(bp.Brain.Structure()),
			Params:         paramCount(bp),
			LearningRate:   float64(g.LearningRate.Value),
			LearningFactor: float64(g.LearningFactor.Value),
			InternalClock:  float64(g.InternalClock.Value),
			MetaRate:       float64(g.Meta.MutateRate),
		}
	}
	return rows
}

func layerString(structure []int) string {
	parts := make([]string, len(structure))
	for i, w := range structure {
		parts[i] = strconv.Itoa(w)
	}
	return strings.Join(parts, "x")
}

// paramCount is the number of weights and biases in the brain.
func paramCount(bp *organism.Blueprint) int {
	n := 0
	for _, l := range bp.Brain.Layers {
		n += len(l.Weights.Data) + len(l.Bias.Data)
	}
	return n
}

// ioRow is one brain input or output of a body plan.
type ioRow struct {
	Index int     `csv:"index"`
	ID    string  `csv:"id"`
	Group string  `csv:"group"`
	Min   float32 `csv:"min"`
	Max   float32 `csv:"max"`
	Label string  `csv:"label"`
}

// inputLayout lists the brain inputs of a body with the given muscle count,
// ordered by group.
func inputLayout(muscles int) []ioRow {
	descs := organism.BrainInputDescriptors(muscles)
	rank := make(map[string]int)
	for i, g := range organism.InputGroups() {
		rank[g] = i
	}

	rows := ioRows(descs)
	sort.SliceStable(rows, func(a, b int) bool {
		return rank[rows[a].Group] < rank[rows[b].Group]
	})
	return rows
}

// outputLayout lists the muscle targets a brain drives.
func outputLayout(muscles int) []ioRow {
	return ioRows(organism.BrainOutputDescriptors(muscles))
}

func ioRows(descs []organism.IODescriptor) []ioRow {
	rows := make([]ioRow, len(descs))
	for i, d := range descs {
		rows[i] = ioRow{Index: i, ID: d.ID, Group: d.Group, Min: d.Min, Max: d.Max, Label: d.Label}
	}
	return rows
}

// commonMuscles returns the most frequent muscle count, ties to the smaller.
func commonMuscles(bps []*organism.Blueprint) int {
	counts := make(map[int]int)
	for _, bp := range bps {
		counts[len(bp.Muscles)]++
	}
	best, bestN := 0, 0
	for m, n := range counts {
		if n > bestN || (n == bestN && m < best) {
			best, bestN = m, n
		}
	}
	return best
}
