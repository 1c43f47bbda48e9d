// Package workbench adapts the external geometry-processing tool behind a
// validated command-line interface.
//
// Two operations are exposed: mapping a per-vertex surface metric into a
// volume grid, and voxel-wise arithmetic across volumes. Both refuse to
// overwrite existing outputs; overwriting is never implicit anywhere in the
// pipeline.
package workbench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// DefaultDistance is the nearest-vertex mapping distance in the linear units
// of the volume space.
const DefaultDistance = 3.0

// ErrUnavailable indicates the geometry tool's version probe failed, because
// the executable is missing, not executable, or not the expected binary.
type ErrUnavailable struct {
	Executable string
	cause      error
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("geometry tool %q not available: %v", e.Executable, e.cause)
}

func (e *ErrUnavailable) Unwrap() error { return e.cause }

// ErrMissingFile indicates a required input file does not exist.
type ErrMissingFile struct {
	Path string
}

func (e *ErrMissingFile) Error() string {
	return fmt.Sprintf("file %s does not exist", e.Path)
}

// ErrOutputExists indicates an output path is already occupied.
type ErrOutputExists struct {
	Path string
}

func (e *ErrOutputExists) Error() string {
	return fmt.Sprintf("file %s already exists", e.Path)
}

// Workbench issues validated invocations of the external geometry tool.
// It is stateless apart from the executable path and safe to share, provided
// concurrent callers use distinct output paths.
type Workbench struct {
	executable string
	runner     Runner
	logger     *slog.Logger
}

// Option configures a Workbench.
type Option func(*Workbench)

// WithRunner substitutes the process runner. Primarily for tests.
func WithRunner(runner Runner) Option {
	return func(w *Workbench) {
		if runner != nil {
			w.runner = runner
		}
	}
}

// WithLogger sets the adapter's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workbench) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// New creates a Workbench for the given executable and verifies it responds
// to a version probe.
func New(ctx context.Context, executable string, opts ...Option) (*Workbench, error) {
	w := &Workbench{
		executable: executable,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.runner == nil {
		w.runner = NewExecRunner(WithRunnerLogger(w.logger))
	}

	if err := w.runner.Run(ctx, w.executable, "-version"); err != nil {
		err = &ErrUnavailable{Executable: executable, cause: err}
		w.logger.Error("geometry tool probe failed", "error", err)
		return nil, err
	}
	return w, nil
}

// MetricToVolume maps a per-vertex metric defined on a surface mesh into the
// given volume grid using nearest-vertex sampling within distance.
//
// All inputs must exist and the output must not; both are checked before any
// process is spawned.
func (w *Workbench) MetricToVolume(ctx context.Context, metric, surfaceMesh, volumeSpace, volumeOut string, distance float64) error {
	w.logger.Info("mapping surface metric to volume", "metric", metric, "volume", volumeOut)

	for _, input := range []string{metric, surfaceMesh, volumeSpace} {
		if err := w.requireExists(input); err != nil {
			return err
		}
	}
	if err := w.requireAbsent(volumeOut); err != nil {
		return err
	}

	return w.runner.Run(ctx, w.executable,
		"-metric-to-volume-mapping",
		metric,
		surfaceMesh,
		volumeSpace,
		volumeOut,
		"-nearest-vertex",
		strconv.FormatFloat(distance, 'g', -1, 64),
	)
}

// VolumeMath evaluates a voxel-wise expression over named volumes. Volumes
// are bound to the variables x0, x1, ... in order.
func (w *Workbench) VolumeMath(ctx context.Context, expression, volumeOut string, volumes []string) error {
	w.logger.Info("performing volume math", "expression", expression, "volume", volumeOut)

	if err := w.requireAbsent(volumeOut); err != nil {
		return err
	}

	args := []string{"-volume-math", expression, volumeOut}
	for i, volume := range volumes {
		args = append(args, "-var", fmt.Sprintf("x%d", i), volume)
	}
	return w.runner.Run(ctx, w.executable, args...)
}

// AverageVolumes combines N volumes into their voxel-wise arithmetic mean.
func (w *Workbench) AverageVolumes(ctx context.Context, volumes []string, volumeOut string) error {
	if len(volumes) == 0 {
		return fmt.Errorf("no volumes to average")
	}
	return w.VolumeMath(ctx, averageExpression(len(volumes)), volumeOut, volumes)
}

// averageExpression builds "(x0 + x1 + ... + xN-1) / N".
func averageExpression(n int) string {
	terms := make([]string, n)
	for i := range terms {
		terms[i] = fmt.Sprintf("x%d", i)
	}
	return fmt.Sprintf("(%s) / %d", strings.Join(terms, " + "), n)
}

func (w *Workbench) requireExists(path string) error {
	if _, err := os.Stat(path); err != nil {
		err = &ErrMissingFile{Path: path}
		w.logger.Error("missing input file", "path", path)
		return err
	}
	return nil
}

func (w *Workbench) requireAbsent(path string) error {
	if _, err := os.Stat(path); err == nil {
		err = &ErrOutputExists{Path: path}
		w.logger.Error("output file already exists", "path", path)
		return err
	}
	return nil
}
