package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/docpack/internal/blobstore"
)

// Kind classifies why a handling failed.
type Kind string

const (
	KindConfig     Kind = "config"
	KindExtraction Kind = "extraction"
	KindStorage    Kind = "storage"
	KindOther      Kind = "other"
)

// ErrPanic wraps a value recovered from a panic during handling.
var ErrPanic = errors.New("panic during handling")

// Error is the failure of a single handling. Every error returned by Handle is an *Error.
type Error struct {
	Kind  Kind
	Stage State
	URI   string
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s failed (%s): %v", e.URI, e.Stage, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of err, or KindOther when err is not an *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindOther
}

// kindFor picks the kind for a failure at stage. Cancellation is reported as other
// regardless of the stage it interrupted.
func kindFor(stage State, err error) Kind {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindOther
	}
	switch stage {
	case StateFetching, StatePublishing:
		return KindStorage
	case StateExtracting:
		return KindExtraction
	}
	if errors.Is(err, blobstore.ErrNotFound) {
		return KindStorage
	}
	return KindOther
}
