package organism

import (
	"fmt"
	"math/rand"
	"sort"
)

// preset is a hand-authored morphology with a default hidden structure.
type preset struct {
	hidden  []int
	joints  []Vec2
	bones   [][2]int
	muscles [][2]int
}

var presets = map[string]preset{
	// Two legs hanging off a braced torso.
	"runner": {
		hidden: []int{3, 3},
		joints: []Vec2{
			V2(-20, 80), V2(20, 80),
			V2(-70, 60), V2(0, 60), V2(70, 60),
			V2(-40, 25), V2(40, 25),
		},
		bones: [][2]int{
			{0, 1}, {2, 0}, {0, 3}, {1, 3}, {4, 1},
			{5, 0}, {6, 1}, {3, 2}, {3, 4},
		},
		muscles: [][2]int{{5, 2}, {6, 4}},
	},
	// Triangle body on four feet.
	"quadruped": {
		hidden: []int{10, 10},
		joints: []Vec2{
			V2(0, 65), V2(-45, 40), V2(45, 40),
			V2(-45, 0), V2(-15, 10), V2(15, 10), V2(45, 0),
		},
		bones:   [][2]int{{1, 0}, {0, 2}, {2, 1}, {3, 1}, {4, 0}, {5, 0}, {6, 2}},
		muscles: [][2]int{{3, 2}, {4, 0}, {5, 1}, {6, 2}},
	},
	// Two feet under a short truss.
	"walker": {
		hidden: []int{16, 16},
		joints: []Vec2{
			V2(-40, 0), V2(40, 0), V2(0, 30), V2(-30, 40), V2(30, 40),
		},
		bones:   [][2]int{{0, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}},
		muscles: [][2]int{{0, 2}, {1, 3}},
	},
	// Smallest body that can move: a hinged pair of bones and one muscle.
	"crawler": {
		hidden:  []int{3},
		joints:  []Vec2{V2(0, 0), V2(25, 50), V2(50, 0)},
		bones:   [][2]int{{1, 2}, {0, 1}},
		muscles: [][2]int{{1, 0}},
	},
}

// PresetNames returns the available preset names, sorted.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewPreset builds a blueprint from a named preset. A nil hidden uses the
// preset's own hidden structure.
func NewPreset(rng *rand.Rand, name string, hidden []int) (*Blueprint, error) {
	p, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %v)", name, PresetNames())
	}
	if hidden == nil {
		hidden = p.hidden
	}
	return NewBlueprint(rng, hidden, p.joints, p.bones, p.muscles), nil
}
