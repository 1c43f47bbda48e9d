package feature

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/cmi-dair/csmgo/blobstore"
	"github.com/cmi-dair/csmgo/surface"
)

// DatasetName is the dataset each feature container must provide.
const DatasetName = "data"

// FileName returns the container file name for a surface.
func FileName(surf surface.Surface) string {
	return fmt.Sprintf("%s_gradient_10k_fs_lr.csmf", surf)
}

// Store loads the four precomputed feature matrices from a blob store.
// It performs no caching; callers own the lifetime of the returned Set.
type Store struct {
	blobs  blobstore.Store
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithLogger sets the logger used during loads.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewStore creates a Store reading from the given blob store.
func NewStore(blobs blobstore.Store, opts ...StoreOption) *Store {
	s := &Store{
		blobs:  blobs,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads all four feature matrices.
//
// The four containers are independent, so they are fetched concurrently;
// the first failure cancels the remaining fetches. Degenerate (size 1)
// dimensions are squeezed, and the result must be two-dimensional.
func (s *Store) Load(ctx context.Context) (*Set, error) {
	s.logger.Info("loading feature data")

	var matrices [4]Matrix
	g, gctx := errgroup.WithContext(ctx)
	for _, surf := range surface.All() {
		g.Go(func() error {
			m, err := s.loadSurface(gctx, surf)
			if err != nil {
				s.logger.Error("feature load failed", "surface", surf.String(), "error", err)
				return err
			}
			matrices[surf] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	set, err := NewSet(map[surface.Surface]Matrix{
		surface.HumanLeft:    matrices[surface.HumanLeft],
		surface.HumanRight:   matrices[surface.HumanRight],
		surface.MacaqueLeft:  matrices[surface.MacaqueLeft],
		surface.MacaqueRight: matrices[surface.MacaqueRight],
	})
	if err != nil {
		s.logger.Error("inconsistent feature data", "error", err)
		return nil, err
	}
	return set, nil
}

func (s *Store) loadSurface(ctx context.Context, surf surface.Surface) (Matrix, error) {
	name := FileName(surf)
	s.logger.Debug("loading feature container", "surface", surf.String(), "name", name)

	data, err := blobstore.ReadAll(ctx, s.blobs, name)
	if err != nil {
		return Matrix{}, fmt.Errorf("open feature container %s: %w", name, err)
	}

	ds, err := DecodeDataset(data, DatasetName)
	if err != nil {
		return Matrix{}, fmt.Errorf("feature container %s: %w", name, err)
	}

	dims := ds.Squeeze()
	if len(dims) != 2 {
		return Matrix{}, fmt.Errorf("feature container %s: expected 2 dimensions after squeeze, got %v", name, dims)
	}
	return NewMatrix(dims[0], dims[1], ds.Values)
}
