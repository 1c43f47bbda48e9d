package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmi-dair/csmgo/surface"
)

func TestDefault(t *testing.T) {
	s := Default()
	assert.Equal(t, "/input", s.InputDir)
	assert.Equal(t, "/output", s.OutputDir)
	assert.Equal(t, 3.0, s.Distance)
	assert.Equal(t, BackendLocal, s.Store.Backend)
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
workbench_path: /opt/workbench/wb_command
data_dir: /srv/csm/data
distance: 2.5
store:
  backend: s3
  bucket: csm-features
  region: eu-central-1
`), 0o600))

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/opt/workbench/wb_command", s.WorkbenchPath)
	assert.Equal(t, "/srv/csm/data", s.DataDir)
	assert.Equal(t, 2.5, s.Distance)
	assert.Equal(t, BackendS3, s.Store.Backend)
	assert.Equal(t, "csm-features", s.Store.Bucket)
	// Untouched fields keep their defaults.
	assert.Equal(t, "/input", s.InputDir)
}

func TestEnvOverridesYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("workbench_path: /from/yaml\ndistance: 2.5\n"), 0o600))

	t.Setenv("CSM_WORKBENCH_PATH", "/from/env")
	t.Setenv("CSM_DISTANCE", "4.25")
	t.Setenv("CSM_STORE_BACKEND", "minio")
	t.Setenv("CSM_STORE_ENDPOINT", "minio.local:9000")
	t.Setenv("CSM_STORE_SECURE", "true")
	t.Setenv("CSM_SPAWN_RATE", "2.5")

	s, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", s.WorkbenchPath)
	assert.Equal(t, 4.25, s.Distance)
	assert.Equal(t, 2.5, s.SpawnRate)
	assert.Equal(t, BackendMinIO, s.Store.Backend)
	assert.Equal(t, "minio.local:9000", s.Store.Endpoint)
	assert.True(t, s.Store.Secure)
}

func TestLoadInvalidEnv(t *testing.T) {
	t.Setenv("CSM_DISTANCE", "not-a-number")
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadInvalidSpawnRate(t *testing.T) {
	t.Setenv("CSM_SPAWN_RATE", "fast")
	_, err := Load("")
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	s := Default()
	require.Error(t, s.Validate(), "workbench path is required")

	s.WorkbenchPath = "/usr/bin/wb_command"
	require.NoError(t, s.Validate())

	s.Store.Backend = BackendS3
	require.Error(t, s.Validate(), "s3 needs a bucket")
	s.Store.Bucket = "features"
	require.NoError(t, s.Validate())

	s.Store.Backend = "ftp"
	require.Error(t, s.Validate())

	s.Store.Backend = BackendLocal
	s.Distance = 0
	require.Error(t, s.Validate())

	s.Distance = 3.0
	s.SpawnRate = -1
	require.Error(t, s.Validate())
}

func TestPathHelpers(t *testing.T) {
	s := Default()
	s.DataDir = "/srv/data"
	s.InputDir = "/in"
	s.OutputDir = "/out"

	assert.Equal(t, "/srv/data/human_left_midthickness_10k_fs_lr.surf.gii", s.SurfaceMeshPath(surface.HumanLeft))
	assert.Equal(t, "/srv/data/macaque_right_midthickness_10k_fs_lr.surf.gii", s.SurfaceMeshPath(surface.MacaqueRight))
	assert.Equal(t, "/srv/data/mni152_template.nii.gz", s.VolumeSpacePath())
	assert.Equal(t, "/in/weights.gii", s.InputPath("weights.gii"))
	assert.Equal(t, "/abs/weights.gii", s.InputPath("/abs/weights.gii"))
	assert.Equal(t, "/out/result.json", s.OutputPath("result.json"))
}
