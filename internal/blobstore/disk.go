package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Disk implements Store on a local directory: each bucket is a subdirectory of root and
// object names are slash-separated paths below it.
type Disk struct {
	root string
}

// NewDisk returns a Disk store rooted at root, creating it if needed.
func NewDisk(root string) (*Disk, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create disk store root: %w", err)
	}
	return &Disk{root: abs}, nil
}

// Root returns the absolute root directory.
func (d *Disk) Root() string {
	return d.root
}

// Path returns the file path backing bucket/name, rejecting names that escape the bucket.
func (d *Disk) Path(bucket, name string) (string, error) {
	if bucket == "" || strings.ContainsAny(bucket, `/\`) || bucket == "." || bucket == ".." {
		return "", fmt.Errorf("invalid bucket %q", bucket)
	}
	dir := filepath.Join(d.root, bucket)
	p := filepath.Join(dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(dir, p)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	return p, nil
}

// Get reads bucket/name. The content type is sniffed from the bytes.
func (d *Disk) Get(ctx context.Context, bucket, name string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.Path(bucket, name)
	if err != nil {
		return nil, err
	}
	content, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, bucket, name)
		}
		return nil, err
	}
	return &Object{Bucket: bucket, Name: name, ContentType: DetectContentType(content), Content: content}, nil
}

// Put writes r to bucket/name atomically via a temporary file in the same directory.
func (d *Disk) Put(ctx context.Context, bucket, name string, r io.Reader, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.Path(bucket, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), ".upload-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	if _, err := io.Copy(tmp, r); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s/%s: %w", bucket, name, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, p)
}
