package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCS implements Store over the Cloud Storage JSON API.
type GCS struct {
	svc *storage.Service
}

// NewGCS creates a Cloud Storage client. opts are passed through (credentials, endpoint).
func NewGCS(ctx context.Context, opts ...option.ClientOption) (*GCS, error) {
	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{svc: svc}, nil
}

// Get downloads an object and its content type.
func (g *GCS) Get(ctx context.Context, bucket, name string) (*Object, error) {
	meta, err := g.svc.Objects.Get(bucket, name).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("stat gs://%s/%s: %w", bucket, name, wrapError(err))
	}
	resp, err := g.svc.Objects.Get(bucket, name).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download gs://%s/%s: %w", bucket, name, wrapError(err))
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, name, err)
	}
	return &Object{Bucket: bucket, Name: name, ContentType: meta.ContentType, Content: content}, nil
}

// Put uploads r as bucket/name.
func (g *GCS) Put(ctx context.Context, bucket, name string, r io.Reader, contentType string) error {
	obj := &storage.Object{Name: name, ContentType: contentType}
	if _, err := g.svc.Objects.Insert(bucket, obj).Media(r, googleapi.ContentType(contentType)).Context(ctx).Do(); err != nil {
		return fmt.Errorf("upload gs://%s/%s: %w", bucket, name, wrapError(err))
	}
	return nil
}

// wrapError maps a 404 from the API onto ErrNotFound and keeps everything else.
func wrapError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, gerr.Message)
	}
	return err
}
