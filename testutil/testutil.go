// Package testutil provides fixtures shared by tests across packages.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cmi-dair/csmgo/feature"
	"github.com/cmi-dair/csmgo/surface"
)

// CommandCall records one external command invocation.
type CommandCall struct {
	Name string
	Args []string
}

// CommandLine returns the full argument vector including the command name.
func (c CommandCall) CommandLine() []string {
	return append([]string{c.Name}, c.Args...)
}

// FakeRunner implements workbench.Runner, recording every invocation instead
// of spawning processes. It is safe for concurrent use.
type FakeRunner struct {
	mu    sync.Mutex
	calls []CommandCall

	// FailOn, when non-nil, is consulted per call; a non-nil return is
	// surfaced as the command's failure.
	FailOn func(name string, args []string) error

	// Touch, when non-nil, is called after recording so the fake can
	// pretend the command produced its output file.
	Touch func(name string, args []string)
}

// Run records the call and applies the configured failure/touch hooks.
func (r *FakeRunner) Run(_ context.Context, name string, args ...string) error {
	r.mu.Lock()
	r.calls = append(r.calls, CommandCall{Name: name, Args: args})
	r.mu.Unlock()

	if r.FailOn != nil {
		if err := r.FailOn(name, args); err != nil {
			return err
		}
	}
	if r.Touch != nil {
		r.Touch(name, args)
	}
	return nil
}

// Calls returns a copy of the recorded invocations.
func (r *FakeRunner) Calls() []CommandCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]CommandCall, len(r.calls))
	copy(out, r.calls)
	return out
}

// CallCount returns the number of recorded invocations.
func (r *FakeRunner) CallCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

// TouchFile creates an empty file at path.
func TouchFile(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o600))
	return path
}

// WriteFeatureDir writes a complete set of four feature containers into dir,
// each with rows vertices and cols feature dimensions, filled by fill.
func WriteFeatureDir(t *testing.T, dir string, rows, cols int, fill func(surf surface.Surface, i, j int) float32) {
	t.Helper()
	for _, surf := range surface.All() {
		values := make([]float32, rows*cols)
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				values[i*cols+j] = fill(surf, i, j)
			}
		}
		path := filepath.Join(dir, feature.FileName(surf))
		require.NoError(t, feature.WriteFile(path, []feature.Dataset{{
			Name:   feature.DatasetName,
			Dims:   []int{rows, cols},
			Values: values,
		}}, feature.CompressionLZ4))
	}
}
