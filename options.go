package csmgo

import (
	"github.com/cmi-dair/csmgo/blobstore"
	"github.com/cmi-dair/csmgo/imagesearch"
	"github.com/cmi-dair/csmgo/workbench"
)

type options struct {
	logger   *Logger
	runner   workbench.Runner
	blobs    blobstore.Store
	searcher imagesearch.Searcher
}

// Option configures Pipeline construction.
type Option func(*options)

// WithLogger sets the pipeline's logger. The default logs text to stderr at
// info level.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRunner substitutes the external-process runner used by the geometry
// tool adapter. Primarily for tests.
func WithRunner(runner workbench.Runner) Option {
	return func(o *options) {
		o.runner = runner
	}
}

// WithBlobStore overrides the feature-data store derived from the settings.
func WithBlobStore(blobs blobstore.Store) Option {
	return func(o *options) {
		o.blobs = blobs
	}
}

// WithSearcher overrides the image searcher derived from the settings.
func WithSearcher(searcher imagesearch.Searcher) Option {
	return func(o *options) {
		o.searcher = searcher
	}
}
