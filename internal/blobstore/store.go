// Package blobstore defines the bucket/name addressed byte store the pipeline reads input
// documents from and writes archives to.
package blobstore

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotFound is returned when an object does not exist.
var ErrNotFound = errors.New("blobstore: object not found")

// Object is a downloaded object.
type Object struct {
	Bucket      string
	Name        string
	ContentType string
	Content     []byte
}

// Store reads and writes objects.
type Store interface {
	Get(ctx context.Context, bucket, name string) (*Object, error)
	Put(ctx context.Context, bucket, name string, r io.Reader, contentType string) error
}

// DetectContentType sniffs the MIME type of content, without parameters.
func DetectContentType(content []byte) string {
	mt := mimetype.Detect(content).String()
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
