package neural

import (
	"reflect"
	"testing"
)

func seq(rows, cols int) Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = float32(i + 1)
	}
	return m
}

func TestMatrixResize(t *testing.T) {
	tests := []struct {
		name string
		op   func(Matrix) Matrix
		want Matrix
	}{
		{"insert row middle", func(m Matrix) Matrix { return InsertRow(m, 1) },
			Matrix{3, 2, []float32{1, 2, 0, 0, 3, 4}}},
		{"append row", AppendRow,
			Matrix{3, 2, []float32{1, 2, 3, 4, 0, 0}}},
		{"remove row", func(m Matrix) Matrix { return RemoveRow(m, 0) },
			Matrix{1, 2, []float32{3, 4}}},
		{"insert col front", func(m Matrix) Matrix { return InsertCol(m, 0) },
			Matrix{2, 3, []float32{0, 1, 2, 0, 3, 4}}},
		{"append col", AppendCol,
			Matrix{2, 3, []float32{1, 2, 0, 3, 4, 0}}},
		{"remove col", func(m Matrix) Matrix { return RemoveCol(m, 1) },
			Matrix{2, 1, []float32{1, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := seq(2, 2)
			got := tt.op(src)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
			if !reflect.DeepEqual(src, seq(2, 2)) {
				t.Error("resize modified its input")
			}
		})
	}
}

func TestMatrixResizePanics(t *testing.T) {
	ops := map[string]func(){
		"insert row":  func() { InsertRow(seq(2, 2), 3) },
		"remove row":  func() { RemoveRow(seq(2, 2), 2) },
		"insert col":  func() { InsertCol(seq(2, 2), -1) },
		"remove col":  func() { RemoveCol(seq(2, 2), 2) },
		"empty shape": func() { NewMatrix(-1, 2) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			op()
		})
	}
}
