package workbench

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ErrPairCountMismatch indicates the metric and surface sequences passed to
// a projection differ in length.
type ErrPairCountMismatch struct {
	Metrics  int
	Surfaces int
}

func (e *ErrPairCountMismatch) Error() string {
	return fmt.Sprintf("metric count %d does not match surface count %d", e.Metrics, e.Surfaces)
}

// Projector orchestrates multi-surface-to-volume projection: each
// (metric, surface) pair is mapped into a transient per-hemisphere volume,
// and the volumes are combined into one averaged output volume.
type Projector struct {
	wb       *Workbench
	distance float64
	logger   *slog.Logger
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithDistance overrides the nearest-vertex mapping distance.
func WithDistance(distance float64) ProjectorOption {
	return func(p *Projector) {
		p.distance = distance
	}
}

// WithProjectorLogger sets the projector's logger.
func WithProjectorLogger(logger *slog.Logger) ProjectorOption {
	return func(p *Projector) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewProjector creates a Projector driving the given Workbench.
func NewProjector(wb *Workbench, opts ...ProjectorOption) *Projector {
	p := &Projector{
		wb:       wb,
		distance: DefaultDistance,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Project maps metrics[i] on surfaces[i] into volume space for every i, then
// averages the per-hemisphere volumes into volumeOut.
//
// Intermediate volumes live in a scoped temporary directory that is removed
// when Project returns, on success and on failure alike. The mapping calls
// are issued strictly sequentially; a failed call aborts the projection.
func (p *Projector) Project(ctx context.Context, metrics, surfaces []string, volumeSpace, volumeOut string) error {
	if len(metrics) != len(surfaces) {
		err := &ErrPairCountMismatch{Metrics: len(metrics), Surfaces: len(surfaces)}
		p.logger.Error("invalid projection input", "error", err)
		return err
	}

	tempDir, err := os.MkdirTemp("", "csm-projection-*")
	if err != nil {
		return fmt.Errorf("create projection temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	volumes := make([]string, 0, len(metrics))
	for i := range metrics {
		volume := filepath.Join(tempDir, fmt.Sprintf("volume_%d.nii.gz", i))
		if err := p.wb.MetricToVolume(ctx, metrics[i], surfaces[i], volumeSpace, volume, p.distance); err != nil {
			return fmt.Errorf("map %s into volume space: %w", metrics[i], err)
		}
		volumes = append(volumes, volume)
	}

	if err := p.wb.AverageVolumes(ctx, volumes, volumeOut); err != nil {
		return fmt.Errorf("average %d volumes: %w", len(volumes), err)
	}
	return nil
}
