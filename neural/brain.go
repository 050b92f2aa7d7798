// Package neural provides the recurrent feed-forward brains that drive organism muscles.
package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

// Layer is one affine transition: out = tanh(in·Weights + Bias).
type Layer struct {
	Weights Matrix `json:"weights"` // inputs x outputs
	Bias    Matrix `json:"bias"`    // 1 x outputs
}

// Brain is a feed-forward network with one step of memory.
// The first layer's input is Memory followed by the external stimuli.
//
// The input layout is fixed so that muscles can be added and removed:
//
//	[ memory (M) | fixed stimuli | per-muscle stimuli (M) ]
//
// where M is the output width. AddIO and RemoveIO keep that layout.
type Brain struct {
	Layers []Layer   `json:"layers"`
	Memory []float32 `json:"memory"`
}

// NewBrain builds a brain with the given layer widths.
// structure[0] is the full input width (memory included) and the last
// entry is the output width. Weights and biases are drawn from U[-1, 1].
func NewBrain(rng *rand.Rand, structure []int) *Brain {
	if len(structure) < 2 {
		panic(fmt.Sprintf("neural: brain needs at least 2 widths, got %v", structure))
	}
	out := structure[len(structure)-1]
	if structure[0] < out {
		panic(fmt.Sprintf("neural: input width %d smaller than memory width %d", structure[0], out))
	}

	b := &Brain{
		Layers: make([]Layer, 0, len(structure)-1),
		Memory: make([]float32, out),
	}
	for i := 0; i < len(structure)-1; i++ {
		b.Layers = append(b.Layers, Layer{
			Weights: RandomMatrix(rng, structure[i], structure[i+1]),
			Bias:    RandomMatrix(rng, 1, structure[i+1]),
		})
	}
	return b
}

// InputWidth is the width of the first layer, memory included.
func (b *Brain) InputWidth() int {
	return b.Layers[0].Weights.Rows
}

// OutputWidth is the width of the last layer.
func (b *Brain) OutputWidth() int {
	return b.Layers[len(b.Layers)-1].Weights.Cols
}

// StimuliWidth is the number of external stimuli Forward expects.
func (b *Brain) StimuliWidth() int {
	return b.InputWidth() - len(b.Memory)
}

// Structure returns the layer widths in the form accepted by NewBrain.
func (b *Brain) Structure() []int {
	s := make([]int, 0, len(b.Layers)+1)
	s = append(s, b.InputWidth())
	for _, l := range b.Layers {
		s = append(s, l.Weights.Cols)
	}
	return s
}

// Forward runs memory ++ stimuli through every layer and returns the final activations.
// Memory is not updated; callers decide when to call SetMemory.
func (b *Brain) Forward(stimuli []float32) []float32 {
	in := b.InputWidth()
	if len(b.Memory)+len(stimuli) != in {
		panic(fmt.Sprintf("neural: forward got %d memory + %d stimuli, layer 0 expects %d",
			len(b.Memory), len(stimuli), in))
	}

	x := make([]float32, 0, in)
	x = append(x, b.Memory...)
	x = append(x, stimuli...)

	for _, l := range b.Layers {
		x = l.apply(x)
	}
	return x
}

func (l Layer) apply(x []float32) []float32 {
	w := l.Weights
	out := make([]float32, w.Cols)
	copy(out, l.Bias.Data)
	for r := 0; r < w.Rows; r++ {
		xr := x[r]
		if xr == 0 {
			continue
		}
		row := w.Data[r*w.Cols : (r+1)*w.Cols]
		for c, v := range row {
			out[c] += xr * v
		}
	}
	for c := range out {
		out[c] = tanh(out[c])
	}
	return out
}

// SetMemory replaces the memory with m.
func (b *Brain) SetMemory(m []float32) {
	if len(m) != len(b.Memory) {
		panic(fmt.Sprintf("neural: memory width %d, got %d", len(b.Memory), len(m)))
	}
	copy(b.Memory, m)
}

// Learn perturbs every weight and bias cell by U[-factor, factor] with probability rate.
func (b *Brain) Learn(rng *rand.Rand, rate, factor float32) {
	for _, l := range b.Layers {
		l.Weights.mutate(rng, rate, factor)
		l.Bias.mutate(rng, rate, factor)
	}
}

// AddIO grows the brain by one muscle. The new memory input goes at the end
// of the memory block, the new per-muscle input at the end of layer 0, and the
// new output at the end of the last layer. New weights start at zero so the
// existing behaviour is unchanged until mutation touches them.
func (b *Brain) AddIO() {
	m := b.OutputWidth()

	first := &b.Layers[0]
	first.Weights = AppendRow(InsertRow(first.Weights, m))

	last := &b.Layers[len(b.Layers)-1]
	last.Weights = AppendCol(last.Weights)
	last.Bias = AppendCol(last.Bias)

	b.Memory = append(b.Memory, 0)
}

// RemoveIO drops muscle i: its memory input, its per-muscle input and its output.
func (b *Brain) RemoveIO(i int) {
	m := b.OutputWidth()
	if i < 0 || i >= m {
		panic(fmt.Sprintf("neural: remove io %d out of range [0,%d)", i, m))
	}
	fixed := b.InputWidth() - 2*m
	if fixed < 0 {
		panic(fmt.Sprintf("neural: input width %d cannot hold %d muscles", b.InputWidth(), m))
	}

	first := &b.Layers[0]
	// Higher row first so the memory row index stays valid.
	first.Weights = RemoveRow(RemoveRow(first.Weights, m+fixed+i), i)

	last := &b.Layers[len(b.Layers)-1]
	last.Weights = RemoveCol(last.Weights, i)
	last.Bias = RemoveCol(last.Bias, i)

	b.Memory = append(b.Memory[:i:i], b.Memory[i+1:]...)
}

// Clone returns a deep copy.
func (b *Brain) Clone() *Brain {
	c := &Brain{
		Layers: make([]Layer, len(b.Layers)),
		Memory: make([]float32, len(b.Memory)),
	}
	for i, l := range b.Layers {
		c.Layers[i] = Layer{Weights: l.Weights.Clone(), Bias: l.Bias.Clone()}
	}
	copy(c.Memory, b.Memory)
	return c
}

// Validate checks every shape invariant. Decoded brains must pass it before use.
func (b *Brain) Validate() error {
	if len(b.Layers) == 0 {
		return errors.New("brain has no layers")
	}
	for i, l := range b.Layers {
		if err := l.Weights.Validate(); err != nil {
			return fmt.Errorf("layer %d weights: %w", i, err)
		}
		if err := l.Bias.Validate(); err != nil {
			return fmt.Errorf("layer %d bias: %w", i, err)
		}
		if l.Bias.Rows != 1 || l.Bias.Cols != l.Weights.Cols {
			return fmt.Errorf("layer %d bias is %dx%d, want 1x%d", i, l.Bias.Rows, l.Bias.Cols, l.Weights.Cols)
		}
		if i > 0 && l.Weights.Rows != b.Layers[i-1].Weights.Cols {
			return fmt.Errorf("layer %d has %d inputs, previous layer has %d outputs",
				i, l.Weights.Rows, b.Layers[i-1].Weights.Cols)
		}
	}
	if len(b.Memory) != b.OutputWidth() {
		return fmt.Errorf("memory width %d, output width %d", len(b.Memory), b.OutputWidth())
	}
	if b.InputWidth() < len(b.Memory) {
		return fmt.Errorf("input width %d smaller than memory width %d", b.InputWidth(), len(b.Memory))
	}
	return nil
}

func tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}
