// Package csmgo maps cortical-surface activation patterns onto a
// precomputed cross-species feature space.
//
// Given a pair of per-vertex weight files (left and right hemisphere) for a
// human or macaque cortex, the pipeline computes weighted cosine similarity
// against feature matrices for four surfaces (human left/right, macaque
// left/right), projects the similarity maps into a shared volumetric space
// via an external geometry tool, and optionally hands the averaged volume to
// an external image search.
//
// # Quick Start
//
//	settings, err := config.FromEnv()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ctx := context.Background()
//	pipeline, err := csmgo.New(ctx, settings)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := pipeline.Run(ctx, csmgo.RunInput{
//	    LeftPath:  "sub-01_hemi-L_activation.gii",
//	    RightPath: "sub-01_hemi-R_activation.gii",
//	    Species:   surface.Human,
//	    NTerms:    100,
//	    NStudies:  100,
//	})
//
// # Packages
//
//   - surface: the fixed four-surface ordering and species taxonomy
//   - feature: feature containers and the store that loads them
//   - similarity: the weighted cosine-similarity engine
//   - workbench: the external geometry-tool adapter and volume projector
//   - gifti: per-vertex metric file I/O
//   - imagesearch: the image-search interface contract
//   - blobstore: local, S3 and MinIO feature-data backends
//   - config: environment and YAML configuration
package csmgo
