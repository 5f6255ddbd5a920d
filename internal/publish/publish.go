// Package publish uploads assembled archives to the output bucket and registers their
// metadata with the catalog.
package publish

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docpack/internal/archive"
	"github.com/hyperjump/docpack/internal/blobstore"
	"github.com/hyperjump/docpack/internal/catalog"
	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/pkg/utils"
)

// ArchiveContentType is the content type of uploaded archives.
const ArchiveContentType = "application/zip"

// Publisher writes archives to a fixed output bucket.
type Publisher struct {
	store   blobstore.Store
	bucket  string
	catalog catalog.Catalog
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithCatalog sets the metadata sink. The default is catalog.Noop.
func WithCatalog(c catalog.Catalog) Option {
	return func(p *Publisher) { p.catalog = c }
}

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Publisher) { p.logger = l }
}

// New returns a Publisher writing to bucket in store.
func New(store blobstore.Store, bucket string, opts ...Option) *Publisher {
	p := &Publisher{
		store:   store,
		bucket:  bucket,
		catalog: catalog.Noop{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = utils.OrNop(p.logger)
	return p
}

// Bucket returns the output bucket.
func (p *Publisher) Bucket() string {
	return p.bucket
}

// OutputURI returns the location an archive named name is published to.
func (p *Publisher) OutputURI(name string) string {
	return fmt.Sprintf("gs://%s/%s", p.bucket, name)
}

// Publish uploads art under its generated name and returns the output URI. Upload errors
// are returned unchanged. A catalog failure does not undo the upload; it is logged and the
// URI is still returned.
func (p *Publisher) Publish(ctx context.Context, art *archive.Artifact, rec models.CatalogRecord) (string, error) {
	f, err := os.Open(art.ArchivePath)
	if err != nil {
		return "", fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()

	if err := p.store.Put(ctx, p.bucket, art.ArchiveName, f, ArchiveContentType); err != nil {
		return "", err
	}
	uri := p.OutputURI(art.ArchiveName)
	p.logger.Info("output uploaded", zap.String("output_uri", uri))

	rec.OutputURI = uri
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = p.now()
	}
	if err := p.catalog.Register(ctx, rec); err != nil {
		p.logger.Warn("catalog registration failed",
			zap.String("output_uri", uri),
			zap.String("id", rec.UniqueID),
			zap.Error(err),
		)
	}
	return uri, nil
}
