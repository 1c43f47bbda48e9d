// Package similarity computes weighted cosine similarity between a
// user-supplied activation pattern and the precomputed cross-species
// feature matrices.
//
// Similarity values feed a downstream Fisher Z-transform, which diverges at
// ±1, so results are clipped to ±0.9999 and never reach unity exactly.
package similarity

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/cmi-dair/csmgo/feature"
	"github.com/cmi-dair/csmgo/surface"
)

// threshold bounds similarity away from the Fisher Z singularity at ±1.
const threshold = 0.9999

// ErrWeightLength indicates a weight vector whose length does not match the
// species' total vertex count (left + right).
type ErrWeightLength struct {
	Species  surface.Species
	Expected int
	Actual   int
}

func (e *ErrWeightLength) Error() string {
	return fmt.Sprintf("weight vector length %d does not match %s vertex count %d", e.Actual, e.Species, e.Expected)
}

// Result holds one similarity scalar per vertex for each of the four
// surfaces, split in canonical order.
type Result struct {
	segments [4][]float32
}

// Surface returns the similarity vector for one surface.
func (r *Result) Surface(surf surface.Surface) []float32 {
	return r.segments[surf]
}

// Species returns the concatenated (left, right) similarity for a species.
func (r *Result) Species(sp surface.Species) []float32 {
	left, right := sp.Surfaces()
	out := make([]float32, 0, len(r.segments[left])+len(r.segments[right]))
	out = append(out, r.segments[left]...)
	return append(out, r.segments[right]...)
}

// Flat re-concatenates all four segments in canonical order.
func (r *Result) Flat() []float32 {
	var out []float32
	for _, surf := range surface.All() {
		out = append(out, r.segments[surf]...)
	}
	return out
}

// Engine computes similarity results. It is stateless apart from its logger
// and safe for concurrent use.
type Engine struct {
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a similarity Engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compute derives the per-vertex similarity of a weighted activation pattern
// against all four surfaces.
//
// weights holds one weight per vertex of the selected species, left vertices
// followed by right. The weighted mean of the species' feature rows is
// compared by cosine similarity against every row of the reference matrix
// (all four surfaces in canonical order); the flat result is split back into
// per-surface segments.
//
// Compute is a pure function of its inputs: no I/O, no external calls.
func (e *Engine) Compute(set *feature.Set, weights []float32, sp surface.Species) (*Result, error) {
	if expected := set.VertexCount(sp); len(weights) != expected {
		err := &ErrWeightLength{Species: sp, Expected: expected, Actual: len(weights)}
		e.logger.Error("invalid weight vector", "species", sp.String(), "error", err)
		return nil, err
	}

	e.logger.Debug("computing feature similarity", "species", sp.String(), "vertices", len(weights))

	user := weightedMean(set.Species(sp), weights)
	userNorm := norm(user)

	ref := set.Reference()
	flat := make([]float32, ref.Rows())
	for i := range flat {
		flat[i] = cosine(user, userNorm, ref.Row(i))
	}

	result := &Result{}
	offset := 0
	for _, surf := range surface.All() {
		rows := set.Matrix(surf).Rows()
		result.segments[surf] = flat[offset : offset+rows]
		offset += rows
	}
	return result, nil
}

// weightedMean computes the per-dimension weighted arithmetic mean across
// vertices. Accumulation is in float64 to keep 40k-row sums stable.
//
// An all-zero weight sum yields the zero vector; the NaN guard in cosine
// then coerces every similarity to 0.
func weightedMean(m feature.Matrix, weights []float32) []float64 {
	mean := make([]float64, m.Cols())
	var weightSum float64
	for i := 0; i < m.Rows(); i++ {
		w := float64(weights[i])
		weightSum += w
		row := m.Row(i)
		for j, v := range row {
			mean[j] += w * float64(v)
		}
	}
	if weightSum == 0 {
		return make([]float64, m.Cols())
	}
	for j := range mean {
		mean[j] /= weightSum
	}
	return mean
}

// cosine computes clip(dot(u, v) / (‖u‖·‖v‖)), with NaN coerced to 0.
//
// Clipping runs before the NaN guard: NaN fails both threshold comparisons,
// so a zero-norm vector still ends at exactly 0.
func cosine(u []float64, uNorm float64, v []float32) float32 {
	var dot, vNorm2 float64
	for j, x := range v {
		dot += u[j] * float64(x)
		vNorm2 += float64(x) * float64(x)
	}
	c := dot / (uNorm * math.Sqrt(vNorm2))
	if c > threshold {
		c = threshold
	}
	if c < -threshold {
		c = -threshold
	}
	if math.IsNaN(c) {
		c = 0
	}
	return float32(c)
}

func norm(u []float64) float64 {
	var sum float64
	for _, x := range u {
		sum += x * x
	}
	return math.Sqrt(sum)
}
