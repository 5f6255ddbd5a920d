// Package catalog defines the sink that registers processed-document metadata.
package catalog

import (
	"context"

	"github.com/hyperjump/docpack/internal/models"
)

// Catalog registers one record per published archive.
type Catalog interface {
	Register(ctx context.Context, rec models.CatalogRecord) error
	Close() error
}

// Noop accepts every record and stores nothing.
type Noop struct{}

// Register implements Catalog.
func (Noop) Register(context.Context, models.CatalogRecord) error { return nil }

// Close implements Catalog.
func (Noop) Close() error { return nil }
