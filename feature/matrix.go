// Package feature provides the precomputed cross-species feature matrices
// and the store that loads them.
//
// Each of the four surfaces carries one matrix with rows = vertices and
// columns = feature dimensions. Vertex counts differ between surfaces, but
// the feature dimensionality is shared across all four.
package feature

import (
	"fmt"

	"github.com/cmi-dair/csmgo/surface"
)

// Matrix is a dense row-major float32 matrix.
type Matrix struct {
	rows int
	cols int
	data []float32
}

// NewMatrix creates a Matrix over data, which must hold rows*cols values.
// The matrix takes ownership of data.
func NewMatrix(rows, cols int, data []float32) (Matrix, error) {
	if rows < 0 || cols < 0 {
		return Matrix{}, fmt.Errorf("invalid matrix shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return Matrix{}, fmt.Errorf("matrix data length %d does not match shape %dx%d", len(data), rows, cols)
	}
	return Matrix{rows: rows, cols: cols, data: data}, nil
}

// Rows returns the number of rows (vertices).
func (m Matrix) Rows() int { return m.rows }

// Cols returns the number of columns (feature dimensions).
func (m Matrix) Cols() int { return m.cols }

// Row returns row i as a slice into the underlying data.
func (m Matrix) Row(i int) []float32 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// At returns the value at row i, column j.
func (m Matrix) At(i, j int) float32 {
	return m.data[i*m.cols+j]
}

// Concat stacks matrices vertically. All inputs must share a column count.
func Concat(ms ...Matrix) (Matrix, error) {
	if len(ms) == 0 {
		return Matrix{}, fmt.Errorf("concat of zero matrices")
	}
	cols := ms[0].cols
	rows := 0
	for _, m := range ms {
		if m.cols != cols {
			return Matrix{}, fmt.Errorf("concat column mismatch: %d vs %d", cols, m.cols)
		}
		rows += m.rows
	}
	data := make([]float32, 0, rows*cols)
	for _, m := range ms {
		data = append(data, m.data...)
	}
	return Matrix{rows: rows, cols: cols, data: data}, nil
}

// Set holds the four per-surface feature matrices.
// A Set is immutable once constructed.
type Set struct {
	matrices [4]Matrix
}

// NewSet builds a Set from per-surface matrices. All four surfaces must be
// present with a shared column count.
func NewSet(matrices map[surface.Surface]Matrix) (*Set, error) {
	set := &Set{}
	cols := -1
	for _, surf := range surface.All() {
		m, ok := matrices[surf]
		if !ok {
			return nil, fmt.Errorf("missing feature matrix for surface %s", surf)
		}
		if cols == -1 {
			cols = m.cols
		} else if m.cols != cols {
			return nil, fmt.Errorf("surface %s has %d feature dimensions, want %d", surf, m.cols, cols)
		}
		set.matrices[surf] = m
	}
	return set, nil
}

// Matrix returns the matrix for one surface.
func (s *Set) Matrix(surf surface.Surface) Matrix {
	return s.matrices[surf]
}

// Species returns the concatenated (left, right) matrix for a species.
func (s *Set) Species(sp surface.Species) Matrix {
	left, right := sp.Surfaces()
	m, _ := Concat(s.matrices[left], s.matrices[right])
	return m
}

// Reference returns all four matrices concatenated in canonical order.
// Row ranges of the result correspond to surface.All().
func (s *Set) Reference() Matrix {
	m, _ := Concat(s.matrices[0], s.matrices[1], s.matrices[2], s.matrices[3])
	return m
}

// VertexCount returns the total vertex count (left + right) for a species.
func (s *Set) VertexCount(sp surface.Species) int {
	left, right := sp.Surfaces()
	return s.matrices[left].rows + s.matrices[right].rows
}

// FeatureDim returns the shared feature dimensionality.
func (s *Set) FeatureDim() int {
	return s.matrices[0].cols
}
