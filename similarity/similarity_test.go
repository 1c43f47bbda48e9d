package similarity

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmi-dair/csmgo/feature"
	"github.com/cmi-dair/csmgo/surface"
)

func buildSet(t *testing.T, rows map[surface.Surface]int, cols int, fill func(surf surface.Surface, i, j int) float32) *feature.Set {
	t.Helper()
	matrices := make(map[surface.Surface]feature.Matrix, 4)
	for _, surf := range surface.All() {
		n := rows[surf]
		data := make([]float32, n*cols)
		for i := 0; i < n; i++ {
			for j := 0; j < cols; j++ {
				data[i*cols+j] = fill(surf, i, j)
			}
		}
		m, err := feature.NewMatrix(n, cols, data)
		require.NoError(t, err)
		matrices[surf] = m
	}
	set, err := feature.NewSet(matrices)
	require.NoError(t, err)
	return set
}

func uniformRows(n int) map[surface.Surface]int {
	return map[surface.Surface]int{
		surface.HumanLeft:    n,
		surface.HumanRight:   n,
		surface.MacaqueLeft:  n,
		surface.MacaqueRight: n,
	}
}

func ones(n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = 1
	}
	return out
}

func TestCosineIdenticalVectorsClipped(t *testing.T) {
	// Every row equals the same unit vector, so every cosine is 1.0 before
	// clipping and must come back as exactly 0.9999.
	set := buildSet(t, uniformRows(2), 3, func(_ surface.Surface, _, j int) float32 {
		if j == 0 {
			return 1
		}
		return 0
	})

	result, err := NewEngine().Compute(set, ones(4), surface.Human)
	require.NoError(t, err)

	for _, v := range result.Flat() {
		assert.Equal(t, float32(threshold), v)
	}
}

func TestCosineZeroRowsCoercedToZero(t *testing.T) {
	// Macaque rows are all zero; their similarity against any vector is the
	// NaN guard value 0.
	set := buildSet(t, uniformRows(2), 3, func(surf surface.Surface, _, j int) float32 {
		if surf.Species() == surface.Macaque {
			return 0
		}
		return float32(j + 1)
	})

	result, err := NewEngine().Compute(set, ones(4), surface.Human)
	require.NoError(t, err)

	for _, surf := range []surface.Surface{surface.MacaqueLeft, surface.MacaqueRight} {
		for _, v := range result.Surface(surf) {
			assert.Equal(t, float32(0), v)
		}
	}
	for _, v := range result.Surface(surface.HumanLeft) {
		assert.Equal(t, float32(threshold), v)
	}
}

func TestAllZeroWeights(t *testing.T) {
	// Unspecified upstream; here a zero weight sum produces the zero user
	// vector and therefore all-zero similarity.
	set := buildSet(t, uniformRows(2), 3, func(_ surface.Surface, i, j int) float32 {
		return float32(i + j + 1)
	})

	result, err := NewEngine().Compute(set, make([]float32, 4), surface.Human)
	require.NoError(t, err)

	for _, v := range result.Flat() {
		assert.Equal(t, float32(0), v)
	}
}

func TestWrongWeightLength(t *testing.T) {
	set := buildSet(t, uniformRows(3), 2, func(_ surface.Surface, i, j int) float32 {
		return float32(i*2 + j)
	})

	_, err := NewEngine().Compute(set, ones(5), surface.Human)
	var wl *ErrWeightLength
	require.ErrorAs(t, err, &wl)
	assert.Equal(t, surface.Human, wl.Species)
	assert.Equal(t, 6, wl.Expected)
	assert.Equal(t, 5, wl.Actual)

	// Macaque has the same count here, but the check is per species.
	_, err = NewEngine().Compute(set, ones(6), surface.Macaque)
	require.NoError(t, err)
}

func TestSplitRoundTrip(t *testing.T) {
	rows := map[surface.Surface]int{
		surface.HumanLeft:    4,
		surface.HumanRight:   3,
		surface.MacaqueLeft:  5,
		surface.MacaqueRight: 2,
	}
	set := buildSet(t, rows, 3, func(surf surface.Surface, i, j int) float32 {
		return float32(int(surf)*31+i*3+j) - 7
	})

	result, err := NewEngine().Compute(set, ones(7), surface.Human)
	require.NoError(t, err)

	// Concatenating the four segments in canonical order reproduces the
	// flat similarity vector exactly.
	var rebuilt []float32
	for _, surf := range surface.All() {
		assert.Len(t, result.Surface(surf), rows[surf])
		rebuilt = append(rebuilt, result.Surface(surf)...)
	}
	assert.Equal(t, result.Flat(), rebuilt)

	human := result.Species(surface.Human)
	assert.Len(t, human, 7)
	assert.Equal(t, result.Surface(surface.HumanLeft), human[:4])
}

func TestEndToEndHundredVertices(t *testing.T) {
	const (
		rows = 100
		cols = 10
	)
	set := buildSet(t, uniformRows(rows), cols, func(surf surface.Surface, i, j int) float32 {
		return float32(math.Sin(float64(int(surf)*rows*cols + i*cols + j)))
	})

	weights := ones(2 * rows)
	result, err := NewEngine().Compute(set, weights, surface.Human)
	require.NoError(t, err)

	flat := result.Flat()
	assert.Len(t, flat, 4*rows)
	for _, surf := range surface.All() {
		assert.Len(t, result.Surface(surf), rows)
	}

	// All-ones weights make the weighted vector the plain column mean of the
	// human rows; verify against an independently computed expectation.
	human := set.Species(surface.Human)
	mean := make([]float64, cols)
	for i := 0; i < human.Rows(); i++ {
		for j, v := range human.Row(i) {
			mean[j] += float64(v)
		}
	}
	var meanNorm float64
	for j := range mean {
		mean[j] /= float64(human.Rows())
		meanNorm += mean[j] * mean[j]
	}
	meanNorm = math.Sqrt(meanNorm)

	ref := set.Reference()
	for i, got := range flat {
		var dot, rowNorm2 float64
		for j, v := range ref.Row(i) {
			dot += mean[j] * float64(v)
			rowNorm2 += float64(v) * float64(v)
		}
		want := dot / (meanNorm * math.Sqrt(rowNorm2))
		if want > threshold {
			want = threshold
		}
		if want < -threshold {
			want = -threshold
		}
		assert.InDelta(t, want, float64(got), 1e-6, "row %d", i)
	}
}

func TestSimilarityWithinClipBand(t *testing.T) {
	set := buildSet(t, uniformRows(8), 4, func(surf surface.Surface, i, j int) float32 {
		return float32((int(surf)+1)*(i+1)) * float32(j%3) / 7
	})

	weights := make([]float32, 16)
	for i := range weights {
		weights[i] = float32(i%5) / 4
	}

	result, err := NewEngine().Compute(set, weights, surface.Macaque)
	require.NoError(t, err)

	for _, v := range result.Flat() {
		assert.LessOrEqual(t, v, float32(threshold))
		assert.GreaterOrEqual(t, v, float32(-threshold))
		assert.False(t, math.IsNaN(float64(v)))
	}
}
