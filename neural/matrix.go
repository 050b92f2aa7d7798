package neural

import (
	"fmt"
	"math/rand"
)

// Matrix is a dense row-major float32 buffer with explicit dimensions.
// Shape-changing operations return a new Matrix and leave the receiver untouched.
type Matrix struct {
	Rows int       `json:"rows"`
	Cols int       `json:"cols"`
	Data []float32 `json:"data"`
}

// NewMatrix returns a zero matrix of the given shape.
func NewMatrix(rows, cols int) Matrix {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("neural: invalid matrix shape %dx%d", rows, cols))
	}
	return Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// RandomMatrix returns a matrix with cells drawn from U[-1, 1].
func RandomMatrix(rng *rand.Rand, rows, cols int) Matrix {
	m := NewMatrix(rows, cols)
	for i := range m.Data {
		m.Data[i] = rng.Float32()*2 - 1
	}
	return m
}

// At returns the cell at (r, c).
func (m Matrix) At(r, c int) float32 {
	return m.Data[r*m.Cols+c]
}

// Set writes the cell at (r, c).
func (m Matrix) Set(r, c int, v float32) {
	m.Data[r*m.Cols+c] = v
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	data := make([]float32, len(m.Data))
	copy(data, m.Data)
	return Matrix{Rows: m.Rows, Cols: m.Cols, Data: data}
}

// Validate checks that the buffer length matches the declared shape.
func (m Matrix) Validate() error {
	if m.Rows < 0 || m.Cols < 0 {
		return fmt.Errorf("negative shape %dx%d", m.Rows, m.Cols)
	}
	if len(m.Data) != m.Rows*m.Cols {
		return fmt.Errorf("shape %dx%d needs %d cells, has %d", m.Rows, m.Cols, m.Rows*m.Cols, len(m.Data))
	}
	return nil
}

// InsertRow returns a copy of m with a zero row inserted before row at.
// at == m.Rows appends.
func InsertRow(m Matrix, at int) Matrix {
	if at < 0 || at > m.Rows {
		panic(fmt.Sprintf("neural: insert row %d out of range [0,%d]", at, m.Rows))
	}
	out := NewMatrix(m.Rows+1, m.Cols)
	copy(out.Data[:at*m.Cols], m.Data[:at*m.Cols])
	copy(out.Data[(at+1)*m.Cols:], m.Data[at*m.Cols:])
	return out
}

// RemoveRow returns a copy of m without row at.
func RemoveRow(m Matrix, at int) Matrix {
	if at < 0 || at >= m.Rows {
		panic(fmt.Sprintf("neural: remove row %d out of range [0,%d)", at, m.Rows))
	}
	out := NewMatrix(m.Rows-1, m.Cols)
	copy(out.Data[:at*m.Cols], m.Data[:at*m.Cols])
	copy(out.Data[at*m.Cols:], m.Data[(at+1)*m.Cols:])
	return out
}

// InsertCol returns a copy of m with a zero column inserted before column at.
// at == m.Cols appends.
func InsertCol(m Matrix, at int) Matrix {
	if at < 0 || at > m.Cols {
		panic(fmt.Sprintf("neural: insert col %d out of range [0,%d]", at, m.Cols))
	}
	out := NewMatrix(m.Rows, m.Cols+1)
	for r := 0; r < m.Rows; r++ {
		src := m.Data[r*m.Cols : (r+1)*m.Cols]
		dst := out.Data[r*out.Cols : (r+1)*out.Cols]
		copy(dst[:at], src[:at])
		copy(dst[at+1:], src[at:])
	}
	return out
}

// RemoveCol returns a copy of m without column at.
func RemoveCol(m Matrix, at int) Matrix {
	if at < 0 || at >= m.Cols {
		panic(fmt.Sprintf("neural: remove col %d out of range [0,%d)", at, m.Cols))
	}
	out := NewMatrix(m.Rows, m.Cols-1)
	for r := 0; r < m.Rows; r++ {
		src := m.Data[r*m.Cols : (r+1)*m.Cols]
		dst := out.Data[r*out.Cols : (r+1)*out.Cols]
		copy(dst[:at], src[:at])
		copy(dst[at:], src[at+1:])
	}
	return out
}

// mutate perturbs each cell by U[-factor, factor] with probability rate.
func (m Matrix) mutate(rng *rand.Rand, rate, factor float32) {
	for i := range m.Data {
		if rng.Float32() < rate {
			m.Data[i] += (rng.Float32()*2 - 1) * factor
		}
	}
}

// AppendRow returns a copy of m with a zero row added at the bottom.
func AppendRow(m Matrix) Matrix {
	return InsertRow(m, m.Rows)
}

// AppendCol returns a copy of m with a zero column added on the right.
func AppendCol(m Matrix) Matrix {
	return InsertCol(m, m.Cols)
}
