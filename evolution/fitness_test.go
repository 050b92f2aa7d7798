package evolution

import (
	"math"
	"testing"
)

func TestFitnessZeroProgressIsAllZero(t *testing.T) {
	s := Fitness([]float32{0, -3, float32(math.NaN()), 0}, []float32{0, 10, 2, 5}, 0.5, 0.5)
	for i, f := range s.Fitness {
		if f != 0 {
			t.Errorf("fitness[%d] = %f, want 0", i, f)
		}
	}
	for i, p := range s.Progress {
		if p != 0 {
			t.Errorf("progress[%d] = %f, want 0", i, p)
		}
	}
	if s.Efficiency[0] != 1 {
		t.Errorf("efficiency[0] = %f, want 1 (zero energy is the maximum)", s.Efficiency[0])
	}
}

func TestFitnessNormalization(t *testing.T) {
	tests := []struct {
		name         string
		displacement []float32
		energy       []float32
		wP, wE       float64
		want         []float64
	}{
		{
			name:         "balanced",
			displacement: []float32{2, 4},
			energy:       []float32{0, 1},
			wP:           0.5, wE: 0.5,
			want: []float64{0.75, 0.75},
		},
		{
			name:         "progress only",
			displacement: []float32{1, 3, -2},
			energy:       []float32{0, 0, 0},
			wP:           1, wE: 0,
			want: []float64{1.0 / 3, 1, 0},
		},
		{
			name:         "nan displacement scores no progress",
			displacement: []float32{float32(math.NaN()), 5},
			energy:       []float32{1, 1},
			wP:           0.5, wE: 0.5,
			want: []float64{0.5, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Fitness(tt.displacement, tt.energy, tt.wP, tt.wE)
			for i := range tt.want {
				if math.Abs(s.Fitness[i]-tt.want[i]) > 1e-9 {
					t.Errorf("fitness[%d] = %f, want %f", i, s.Fitness[i], tt.want[i])
				}
			}
		})
	}
}

func TestFitnessEmpty(t *testing.T) {
	s := Fitness(nil, nil, 0.5, 0.5)
	if len(s.Fitness) != 0 {
		t.Errorf("got %d scores for empty population", len(s.Fitness))
	}
}
