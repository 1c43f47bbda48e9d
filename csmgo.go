package csmgo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/time/rate"

	"github.com/cmi-dair/csmgo/blobstore"
	miniostore "github.com/cmi-dair/csmgo/blobstore/minio"
	s3store "github.com/cmi-dair/csmgo/blobstore/s3"
	"github.com/cmi-dair/csmgo/config"
	"github.com/cmi-dair/csmgo/feature"
	"github.com/cmi-dair/csmgo/gifti"
	"github.com/cmi-dair/csmgo/imagesearch"
	"github.com/cmi-dair/csmgo/similarity"
	"github.com/cmi-dair/csmgo/surface"
	"github.com/cmi-dair/csmgo/workbench"
)

// Pipeline wires the feature store, similarity engine, volume projector and
// image search into one run. It holds no per-run state and is safe to reuse
// across sequential runs.
type Pipeline struct {
	settings  config.Settings
	logger    *Logger
	store     *feature.Store
	engine    *similarity.Engine
	wb        *workbench.Workbench
	projector *workbench.Projector
	searcher  imagesearch.Searcher
}

// RunInput describes one pipeline invocation.
type RunInput struct {
	// LeftPath and RightPath are the per-vertex weight files for the left
	// and right hemisphere, as GIFTI metric or plain text files.
	LeftPath  string
	RightPath string
	// Species of the input files.
	Species surface.Species
	// VolumeOut, when set, persists the averaged similarity volume at this
	// path. When empty the volume only lives for the duration of the run.
	VolumeOut string
	// NTerms and NStudies bound the image-search result sizes.
	NTerms   int
	NStudies int
}

// RunOutput carries the results of one pipeline invocation.
type RunOutput struct {
	// Similarity holds the per-surface similarity vectors.
	Similarity *similarity.Result
	// VolumePath is the persisted averaged volume, or empty when the run
	// used a transient volume.
	VolumePath string
	// Search is the image-search result, or nil when no searcher is
	// configured.
	Search *imagesearch.Result
}

// New builds a Pipeline from settings. Construction verifies the settings
// and probes the geometry tool; a failing probe is fatal.
func New(ctx context.Context, settings config.Settings, opts ...Option) (*Pipeline, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewTextLogger(slog.LevelInfo)
	}

	if err := settings.Validate(); err != nil {
		o.logger.Error("invalid settings", "error", err)
		return nil, err
	}

	blobs := o.blobs
	if blobs == nil {
		var err error
		blobs, err = openStore(ctx, settings.Store, settings.DataDir)
		if err != nil {
			o.logger.Error("cannot open feature store", "error", err)
			return nil, err
		}
	}

	runner := o.runner
	if runner == nil && settings.SpawnRate > 0 {
		runner = workbench.NewExecRunner(
			workbench.WithRunnerLogger(o.logger.Logger),
			workbench.WithSpawnLimiter(rate.NewLimiter(rate.Limit(settings.SpawnRate), 1)))
	}

	wbOpts := []workbench.Option{workbench.WithLogger(o.logger.Logger)}
	if runner != nil {
		wbOpts = append(wbOpts, workbench.WithRunner(runner))
	}
	wb, err := workbench.New(ctx, settings.WorkbenchPath, wbOpts...)
	if err != nil {
		return nil, err
	}

	searcher := o.searcher
	if searcher == nil && settings.SearchCommand != "" {
		searcher = imagesearch.NewCommandSearcher(settings.SearchCommand, imagesearch.WithLogger(o.logger.Logger))
	}

	return &Pipeline{
		settings: settings,
		logger:   o.logger,
		store:    feature.NewStore(blobs, feature.WithLogger(o.logger.Logger)),
		engine:   similarity.NewEngine(similarity.WithLogger(o.logger.Logger)),
		wb:       wb,
		projector: workbench.NewProjector(wb,
			workbench.WithDistance(settings.Distance),
			workbench.WithProjectorLogger(o.logger.Logger)),
		searcher: searcher,
	}, nil
}

func openStore(ctx context.Context, store config.StoreSettings, dataDir string) (blobstore.Store, error) {
	switch store.Backend {
	case config.BackendLocal:
		return blobstore.NewLocalStore(dataDir), nil
	case config.BackendS3:
		return s3store.NewStoreFromConfig(ctx, store.Region, store.Bucket, store.Prefix)
	case config.BackendMinIO:
		return miniostore.NewStoreFromCredentials(store.Endpoint, store.AccessKey, store.SecretKey, store.Bucket, store.Prefix, store.Secure)
	default:
		return nil, fmt.Errorf("unknown store backend %q", store.Backend)
	}
}

// Run executes the full pipeline once.
//
// Weights are loaded and validated, similarity is computed against all four
// surfaces, the human similarity maps are projected into volume space, and
// the averaged volume is handed to the configured image search. All
// intermediate files live in a scoped temporary directory that is removed
// when Run returns.
func (p *Pipeline) Run(ctx context.Context, in RunInput) (*RunOutput, error) {
	logger := p.logger.WithSpecies(in.Species).WithInput(in.LeftPath, in.RightPath)
	logger.Info("starting pipeline run")

	weights, err := LoadUserWeights(in.LeftPath, in.RightPath)
	if err != nil {
		logger.Error("loading user weights failed", "error", err)
		return nil, err
	}

	set, err := p.store.Load(ctx)
	if err != nil {
		return nil, err
	}

	result, err := p.engine.Compute(set, weights, in.Species)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "csm-run-*")
	if err != nil {
		return nil, fmt.Errorf("create run temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	// The similarity metrics projected into volume space are always the
	// human ones; the image search operates on a human volume template.
	// The meshes follow the input species.
	metrics := make([]string, 0, 2)
	for _, surf := range []surface.Surface{surface.HumanLeft, surface.HumanRight} {
		path := filepath.Join(tempDir, fmt.Sprintf("similarity_%s.gii", surf.Hemisphere()))
		if err := gifti.WriteMetric(path, result.Surface(surf)); err != nil {
			logger.Error("writing similarity metric failed", "surface", surf.String(), "error", err)
			return nil, err
		}
		metrics = append(metrics, path)
	}

	left, right := in.Species.Surfaces()
	meshes := []string{
		p.settings.SurfaceMeshPath(left),
		p.settings.SurfaceMeshPath(right),
	}

	volumeOut := in.VolumeOut
	if volumeOut == "" {
		volumeOut = filepath.Join(tempDir, "similarity.nii.gz")
	}
	if err := p.projector.Project(ctx, metrics, meshes, p.settings.VolumeSpacePath(), volumeOut); err != nil {
		return nil, err
	}

	out := &RunOutput{Similarity: result}
	if in.VolumeOut != "" {
		out.VolumePath = volumeOut
	}

	if p.searcher != nil {
		search, err := p.searcher.Search(ctx, volumeOut, in.NTerms, in.NStudies)
		if err != nil {
			return nil, err
		}
		out.Search = search
	}

	logger.Info("pipeline run completed")
	return out, nil
}
