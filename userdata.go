package csmgo

import (
	"os"
	"path/filepath"

	"github.com/cmi-dair/csmgo/gifti"
)

// LoadUserWeights reads per-vertex weight files and concatenates them in
// argument order (callers pass left then right).
//
// Files with a .gii extension are parsed as GIFTI metric files; anything
// else falls back to whitespace-separated text.
func LoadUserWeights(paths ...string) ([]float32, error) {
	var weights []float32
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			return nil, &ErrInputFile{Path: path, cause: err}
		}

		var (
			values []float32
			err    error
		)
		if filepath.Ext(path) == ".gii" {
			values, err = gifti.ReadMetric(path)
		} else {
			values, err = gifti.ReadText(path)
		}
		if err != nil {
			return nil, &ErrInputFile{Path: path, cause: err}
		}
		weights = append(weights, values...)
	}
	return weights, nil
}
