// Package config provides configuration loading and structs for the docpack service.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Extraction backends.
const (
	ExtractionDocumentAI = "documentai"
	ExtractionLocal      = "local"
)

// Storage backends.
const (
	StorageGCS  = "gcs"
	StorageDisk = "disk"
)

// Catalog drivers.
const (
	CatalogNone   = "none"
	CatalogSQLite = "sqlite"
)

// Config holds all configuration for the application.
type Config struct {
	Debug      bool             `yaml:"debug"`
	Server     ServerConfig     `yaml:"server"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Storage    StorageConfig    `yaml:"storage"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Workspace  WorkspaceConfig  `yaml:"workspace"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ServerConfig holds HTTP event receiver settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// RedeliverOnFailure answers failed handlings with 500 so the delivery system retries.
	// When false, failures are logged and acknowledged.
	RedeliverOnFailure bool `yaml:"redeliver_on_failure"`
	// HandlerTimeout bounds a single event handling.
	HandlerTimeout time.Duration `yaml:"handler_timeout"`
}

// ExtractionConfig selects and configures the document-understanding backend.
type ExtractionConfig struct {
	Backend     string `yaml:"backend"`
	Project     string `yaml:"project"`
	Location    string `yaml:"location"`
	ProcessorID string `yaml:"processor_id"`
	Endpoint    string `yaml:"endpoint"`
	// RequestsPerSecond throttles calls to the backend; zero disables throttling.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// StorageConfig holds the input/output byte store settings.
type StorageConfig struct {
	Backend         string `yaml:"backend"`
	OutputBucket    string `yaml:"output_bucket"`
	DiskRoot        string `yaml:"disk_root"`
	CredentialsFile string `yaml:"credentials_file"`
	Endpoint        string `yaml:"endpoint"`
}

// ReferenceConfig holds the paths of the two reference tables.
type ReferenceConfig struct {
	PersonnelPath string `yaml:"personnel_path"`
	ClustersPath  string `yaml:"clusters_path"`
}

// WorkspaceConfig holds per-invocation scratch settings.
type WorkspaceConfig struct {
	TempDir    string `yaml:"temp_dir"`
	IDStrategy string `yaml:"id_strategy"`
}

// CatalogConfig selects the metadata registration sink.
type CatalogConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// WatchConfig holds local directory watch settings.
type WatchConfig struct {
	Directory    string   `yaml:"directory"`
	Bucket       string   `yaml:"bucket"`
	Extensions   []string `yaml:"extensions"`
	Recursive    *bool    `yaml:"recursive"`
	SyncExisting bool     `yaml:"sync_existing"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return true
}

// Environment variables that override file settings. Names follow the
// Cloud Functions deployment of the pipeline.
const (
	EnvProject      = "GCP_PROJECT"
	EnvLocation     = "DOCUMENT_AI_LOCATION"
	EnvProcessorID  = "DOCUMENT_AI_PROCESSOR_ID"
	EnvOutputBucket = "OUTPUT_BUCKET"
	EnvPort         = "PORT"
)

// Load reads and parses the config file at path, applies environment overrides,
// expands paths, and applies defaults. An empty path skips the file and uses
// environment and defaults only.
func Load(path string) (*Config, error) {
	var cfg Config
	configDir := "."
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
		configDir = filepath.Dir(path)
	}

	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	ApplyDefaults(&cfg)

	cfg.Reference.PersonnelPath = expandPath(cfg.Reference.PersonnelPath, configDir)
	cfg.Reference.ClustersPath = expandPath(cfg.Reference.ClustersPath, configDir)
	cfg.Storage.DiskRoot = expandPath(cfg.Storage.DiskRoot, configDir)
	cfg.Storage.CredentialsFile = expandPath(cfg.Storage.CredentialsFile, configDir)
	cfg.Catalog.Path = expandPath(cfg.Catalog.Path, configDir)
	cfg.Watch.Directory = expandPath(cfg.Watch.Directory, configDir)

	return &cfg, nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is os.LookupEnv in production.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvProject); ok && v != "" {
		cfg.Extraction.Project = v
	}
	if v, ok := lookup(EnvLocation); ok && v != "" {
		cfg.Extraction.Location = v
	}
	if v, ok := lookup(EnvProcessorID); ok && v != "" {
		cfg.Extraction.ProcessorID = v
	}
	if v, ok := lookup(EnvOutputBucket); ok && v != "" {
		cfg.Storage.OutputBucket = v
	}
	if v, ok := lookup(EnvPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvPort, v, err)
		}
		cfg.Server.Port = port
	}
	return nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ErrMissingSetting marks a required setting that has no value.
var ErrMissingSetting = errors.New("missing required setting")

// ValidationError lists every problem found by Validate.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration: " + strings.Join(e.Problems, "; ")
}

// Is lets errors.Is match ErrMissingSetting.
func (e *ValidationError) Is(target error) bool {
	return target == ErrMissingSetting
}

// Validate checks that every setting required by the selected backends is present.
func (c *Config) Validate() error {
	var problems []string
	missing := func(name, env string) {
		if env != "" {
			problems = append(problems, fmt.Sprintf("%s (env %s) is required", name, env))
			return
		}
		problems = append(problems, name+" is required")
	}

	switch c.Extraction.Backend {
	case ExtractionDocumentAI:
		if c.Extraction.Project == "" {
			missing("extraction.project", EnvProject)
		}
		if c.Extraction.Location == "" {
			missing("extraction.location", EnvLocation)
		}
		if c.Extraction.ProcessorID == "" {
			missing("extraction.processor_id", EnvProcessorID)
		}
	case ExtractionLocal:
	default:
		problems = append(problems, fmt.Sprintf("unknown extraction.backend %q", c.Extraction.Backend))
	}
	if c.Extraction.RequestsPerSecond < 0 || c.Extraction.Burst < 0 {
		problems = append(problems, "extraction.requests_per_second and extraction.burst must not be negative")
	}

	if c.Storage.OutputBucket == "" {
		missing("storage.output_bucket", EnvOutputBucket)
	}
	switch c.Storage.Backend {
	case StorageGCS:
	case StorageDisk:
		if c.Storage.DiskRoot == "" {
			missing("storage.disk_root", "")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown storage.backend %q", c.Storage.Backend))
	}

	switch c.Catalog.Driver {
	case CatalogNone:
	case CatalogSQLite:
		if c.Catalog.Path == "" {
			missing("catalog.path", "")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown catalog.driver %q", c.Catalog.Driver))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the working directory. Empty stays empty.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}
