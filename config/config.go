// Package config holds runtime settings for the pipeline.
//
// Settings come from three layers, each overriding the previous: built-in
// defaults, an optional YAML file, and CSM_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/cmi-dair/csmgo/surface"
)

// EnvPrefix is the prefix of all recognized environment variables.
const EnvPrefix = "CSM_"

// StoreBackend selects where feature data is fetched from.
type StoreBackend string

const (
	BackendLocal StoreBackend = "local"
	BackendS3    StoreBackend = "s3"
	BackendMinIO StoreBackend = "minio"
)

// StoreSettings configures the feature-data blob store.
type StoreSettings struct {
	Backend StoreBackend `yaml:"backend"`
	// Bucket and Prefix apply to the s3 and minio backends.
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
	// Region applies to the s3 backend.
	Region string `yaml:"region"`
	// Endpoint, AccessKey, SecretKey and Secure apply to the minio backend.
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Secure    bool   `yaml:"secure"`
}

// Settings are the pipeline's runtime settings.
type Settings struct {
	// WorkbenchPath locates the external geometry tool. Required.
	WorkbenchPath string `yaml:"workbench_path"`
	// DataDir holds feature containers, surface meshes and the volume
	// space template when the local store backend is used.
	DataDir   string `yaml:"data_dir"`
	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`
	// Distance is the nearest-vertex mapping distance in volume-space units.
	Distance float64 `yaml:"distance"`
	// SpawnRate caps geometry-tool launches per second. Zero means
	// unlimited.
	SpawnRate float64 `yaml:"spawn_rate"`
	// SearchCommand is the external image-search executable. Optional;
	// when empty the search step is skipped.
	SearchCommand string `yaml:"search_command"`
	Store         StoreSettings `yaml:"store"`
}

// Default returns the built-in defaults.
func Default() Settings {
	return Settings{
		DataDir:   "./data",
		InputDir:  "/input",
		OutputDir: "/output",
		Distance:  3.0,
		Store:     StoreSettings{Backend: BackendLocal},
	}
}

// Load reads settings from an optional YAML file and the environment.
// An empty path skips the file layer.
func Load(path string) (Settings, error) {
	settings := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &settings); err != nil {
			return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := settings.applyEnv(); err != nil {
		return Settings{}, err
	}
	return settings, nil
}

// FromEnv returns defaults overridden by the environment only.
func FromEnv() (Settings, error) {
	return Load("")
}

func (s *Settings) applyEnv() error {
	stringVars := map[string]*string{
		"WORKBENCH_PATH":   &s.WorkbenchPath,
		"DATA_DIR":         &s.DataDir,
		"INPUT_DIR":        &s.InputDir,
		"OUTPUT_DIR":       &s.OutputDir,
		"SEARCH_COMMAND":   &s.SearchCommand,
		"STORE_BUCKET":     &s.Store.Bucket,
		"STORE_PREFIX":     &s.Store.Prefix,
		"STORE_REGION":     &s.Store.Region,
		"STORE_ENDPOINT":   &s.Store.Endpoint,
		"STORE_ACCESS_KEY": &s.Store.AccessKey,
		"STORE_SECRET_KEY": &s.Store.SecretKey,
	}
	for name, dst := range stringVars {
		if v, ok := os.LookupEnv(EnvPrefix + name); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "STORE_BACKEND"); ok {
		s.Store.Backend = StoreBackend(v)
	}
	if v, ok := os.LookupEnv(EnvPrefix + "DISTANCE"); ok {
		distance, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sDISTANCE %q: %w", EnvPrefix, v, err)
		}
		s.Distance = distance
	}
	if v, ok := os.LookupEnv(EnvPrefix + "SPAWN_RATE"); ok {
		spawnRate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid %sSPAWN_RATE %q: %w", EnvPrefix, v, err)
		}
		s.SpawnRate = spawnRate
	}
	if v, ok := os.LookupEnv(EnvPrefix + "STORE_SECURE"); ok {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sSTORE_SECURE %q: %w", EnvPrefix, v, err)
		}
		s.Store.Secure = secure
	}
	return nil
}

// Validate checks that required settings are present and consistent.
func (s Settings) Validate() error {
	if s.WorkbenchPath == "" {
		return fmt.Errorf("workbench path is required (set %sWORKBENCH_PATH)", EnvPrefix)
	}
	switch s.Store.Backend {
	case BackendLocal:
	case BackendS3:
		if s.Store.Bucket == "" {
			return fmt.Errorf("s3 store requires a bucket")
		}
	case BackendMinIO:
		if s.Store.Endpoint == "" || s.Store.Bucket == "" {
			return fmt.Errorf("minio store requires an endpoint and a bucket")
		}
	default:
		return fmt.Errorf("unknown store backend %q", s.Store.Backend)
	}
	if s.Distance <= 0 {
		return fmt.Errorf("distance must be positive, got %g", s.Distance)
	}
	if s.SpawnRate < 0 {
		return fmt.Errorf("spawn rate must not be negative, got %g", s.SpawnRate)
	}
	return nil
}

// SurfaceMeshPath returns the midthickness mesh file for a surface.
func (s Settings) SurfaceMeshPath(surf surface.Surface) string {
	return filepath.Join(s.DataDir, fmt.Sprintf("%s_midthickness_10k_fs_lr.surf.gii", surf))
}

// VolumeSpacePath returns the template volume that defines the output grid.
func (s Settings) VolumeSpacePath() string {
	return filepath.Join(s.DataDir, "mni152_template.nii.gz")
}

// InputPath resolves a user-supplied input file name against the input dir.
// Absolute paths pass through unchanged.
func (s Settings) InputPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.InputDir, name)
}

// OutputPath resolves an output file name against the output dir.
func (s Settings) OutputPath(name string) string {
	return filepath.Join(s.OutputDir, name)
}
