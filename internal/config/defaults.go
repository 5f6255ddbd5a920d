package config

import (
	"os"
	"time"
)

// DefaultHandlerTimeout matches the longest run allowed to an event-driven function.
const DefaultHandlerTimeout = 9 * time.Minute

// Reference table file names as shipped next to the binary.
const (
	DefaultPersonnelPath = "Elenco Personale.xlsx - Foglio 1.csv"
	DefaultClustersPath  = "Docs Train.xlsx - Foglio1.csv"
)

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.HandlerTimeout <= 0 {
		cfg.Server.HandlerTimeout = DefaultHandlerTimeout
	}
	if cfg.Extraction.Backend == "" {
		cfg.Extraction.Backend = ExtractionDocumentAI
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageGCS
	}
	if cfg.Reference.PersonnelPath == "" {
		cfg.Reference.PersonnelPath = DefaultPersonnelPath
	}
	if cfg.Reference.ClustersPath == "" {
		cfg.Reference.ClustersPath = DefaultClustersPath
	}
	if cfg.Workspace.TempDir == "" {
		cfg.Workspace.TempDir = os.TempDir()
	}
	if cfg.Workspace.IDStrategy == "" {
		cfg.Workspace.IDStrategy = "name_hash"
	}
	if cfg.Catalog.Driver == "" {
		cfg.Catalog.Driver = CatalogNone
	}
	if cfg.Watch.Bucket == "" {
		cfg.Watch.Bucket = "local"
	}
	if cfg.Watch.Extensions == nil {
		cfg.Watch.Extensions = []string{".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".docx", ".txt"}
	}
	// Recursive defaults to true when unset (nil).
	if cfg.Watch.Directory != "" && cfg.Watch.Recursive == nil {
		t := true
		cfg.Watch.Recursive = &t
	}
}
