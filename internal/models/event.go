package models

import (
	"errors"
	"fmt"
)

// ErrInvalidEvent is returned when an object event lacks a bucket or a name.
var ErrInvalidEvent = errors.New("invalid object event")

// ObjectEvent identifies a newly created object in an input byte store.
type ObjectEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}

// URI returns the gs:// style location of the object.
func (e ObjectEvent) URI() string {
	return fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name)
}

// Validate ensures both bucket and name are present.
func (e ObjectEvent) Validate() error {
	if e.Bucket == "" {
		return fmt.Errorf("%w: bucket is empty", ErrInvalidEvent)
	}
	if e.Name == "" {
		return fmt.Errorf("%w: name is empty", ErrInvalidEvent)
	}
	return nil
}
