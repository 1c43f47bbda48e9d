package workbench

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmi-dair/csmgo/testutil"
)

func newTestWorkbench(t *testing.T, runner *FakeRunnerAlias) *Workbench {
	t.Helper()
	wb, err := New(context.Background(), "wb_command", WithRunner(runner))
	require.NoError(t, err)
	return wb
}

// FakeRunnerAlias keeps the test table readable.
type FakeRunnerAlias = testutil.FakeRunner

func TestNewProbesVersion(t *testing.T) {
	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)
	require.NotNil(t, wb)

	calls := runner.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"wb_command", "-version"}, calls[0].CommandLine())
}

func TestNewFailsWhenProbeFails(t *testing.T) {
	runner := &FakeRunnerAlias{
		FailOn: func(string, []string) error { return errors.New("exit status 127") },
	}
	_, err := New(context.Background(), "/no/such/wb_command", WithRunner(runner))

	var unavailable *ErrUnavailable
	require.ErrorAs(t, err, &unavailable)
	assert.Equal(t, "/no/such/wb_command", unavailable.Executable)
}

func TestMetricToVolumeArguments(t *testing.T) {
	dir := t.TempDir()
	metric := testutil.TouchFile(t, filepath.Join(dir, "metric.gii"))
	surf := testutil.TouchFile(t, filepath.Join(dir, "mesh.surf.gii"))
	space := testutil.TouchFile(t, filepath.Join(dir, "template.nii.gz"))
	out := filepath.Join(dir, "out.nii.gz")

	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)

	require.NoError(t, wb.MetricToVolume(context.Background(), metric, surf, space, out, 3.0))

	calls := runner.Calls()
	require.Len(t, calls, 2) // probe + mapping
	assert.Equal(t, []string{
		"wb_command",
		"-metric-to-volume-mapping",
		metric,
		surf,
		space,
		out,
		"-nearest-vertex",
		"3",
	}, calls[1].CommandLine())
}

func TestMetricToVolumeMissingInput(t *testing.T) {
	dir := t.TempDir()
	surf := testutil.TouchFile(t, filepath.Join(dir, "mesh.surf.gii"))
	space := testutil.TouchFile(t, filepath.Join(dir, "template.nii.gz"))

	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)

	err := wb.MetricToVolume(context.Background(), filepath.Join(dir, "absent.gii"), surf, space, filepath.Join(dir, "out.nii.gz"), 3.0)

	var missing *ErrMissingFile
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, 1, runner.CallCount(), "no process spawned beyond the probe")
}

func TestMetricToVolumeExistingOutput(t *testing.T) {
	dir := t.TempDir()
	metric := testutil.TouchFile(t, filepath.Join(dir, "metric.gii"))
	surf := testutil.TouchFile(t, filepath.Join(dir, "mesh.surf.gii"))
	space := testutil.TouchFile(t, filepath.Join(dir, "template.nii.gz"))
	out := testutil.TouchFile(t, filepath.Join(dir, "out.nii.gz"))

	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)

	err := wb.MetricToVolume(context.Background(), metric, surf, space, out, 3.0)

	var exists *ErrOutputExists
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, out, exists.Path)
	assert.Equal(t, 1, runner.CallCount(), "no process spawned beyond the probe")
}

func TestAverageVolumes(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "mean.nii.gz")

	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)

	volumes := []string{"/tmp/v0.nii.gz", "/tmp/v1.nii.gz", "/tmp/v2.nii.gz"}
	require.NoError(t, wb.AverageVolumes(context.Background(), volumes, out))

	calls := runner.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, []string{
		"wb_command",
		"-volume-math",
		"(x0 + x1 + x2) / 3",
		out,
		"-var", "x0", "/tmp/v0.nii.gz",
		"-var", "x1", "/tmp/v1.nii.gz",
		"-var", "x2", "/tmp/v2.nii.gz",
	}, calls[1].CommandLine())
}

func TestAverageVolumesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	out := testutil.TouchFile(t, filepath.Join(dir, "mean.nii.gz"))

	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)

	err := wb.AverageVolumes(context.Background(), []string{"/tmp/v0.nii.gz"}, out)

	var exists *ErrOutputExists
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, 1, runner.CallCount())
}

func TestAverageVolumesEmptyInput(t *testing.T) {
	runner := &FakeRunnerAlias{}
	wb := newTestWorkbench(t, runner)

	err := wb.AverageVolumes(context.Background(), nil, "/tmp/mean.nii.gz")
	require.Error(t, err)
	assert.Equal(t, 1, runner.CallCount())
}

func TestAverageExpression(t *testing.T) {
	assert.Equal(t, "(x0) / 1", averageExpression(1))
	assert.Equal(t, "(x0 + x1) / 2", averageExpression(2))
	assert.Equal(t, "(x0 + x1 + x2 + x3) / 4", averageExpression(4))
}

func TestCommandFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	metric := testutil.TouchFile(t, filepath.Join(dir, "metric.gii"))
	surf := testutil.TouchFile(t, filepath.Join(dir, "mesh.surf.gii"))
	space := testutil.TouchFile(t, filepath.Join(dir, "template.nii.gz"))

	probed := false
	runner := &FakeRunnerAlias{
		FailOn: func(_ string, args []string) error {
			if !probed {
				probed = true
				return nil
			}
			return errors.New("exit status 1")
		},
	}
	wb := newTestWorkbench(t, runner)

	err := wb.MetricToVolume(context.Background(), metric, surf, space, filepath.Join(dir, "out.nii.gz"), 3.0)
	require.Error(t, err)
	assert.Equal(t, 2, runner.CallCount(), "no retry after a failed call")
}
