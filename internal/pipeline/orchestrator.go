// Package pipeline sequences fetch, extraction, reconciliation, packaging and publishing
// for one object event, and owns the per-invocation workspace.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/docpack/internal/archive"
	"github.com/hyperjump/docpack/internal/blobstore"
	"github.com/hyperjump/docpack/internal/extract"
	"github.com/hyperjump/docpack/internal/fileid"
	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/internal/publish"
	"github.com/hyperjump/docpack/pkg/utils"
)

// Matcher resolves extracted fields to a reference row.
type Matcher interface {
	Match(result models.ExtractionResult) models.Record
}

// Outcome describes a successful handling.
type Outcome struct {
	InputURI    string                  `json:"input_uri"`
	OutputURI   string                  `json:"output_uri"`
	ArchiveName string                  `json:"archive_name"`
	UniqueID    string                  `json:"unique_id"`
	ContentType string                  `json:"content_type"`
	Result      models.ExtractionResult `json:"result"`
	Enrichment  models.Record           `json:"enrichment"`
	Duration    time.Duration           `json:"duration"`
}

// Orchestrator handles object events. It holds no per-invocation state and may be used
// from many goroutines at once.
type Orchestrator struct {
	input     blobstore.Store
	extractor extract.Extractor
	matcher   Matcher
	assembler *archive.Assembler
	publisher *publish.Publisher

	tempDir  string
	strategy fileid.Strategy
	hook     StateHook
	logger   *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTempDir sets the directory workspaces are created under. Empty means os.TempDir.
func WithTempDir(dir string) Option {
	return func(o *Orchestrator) { o.tempDir = dir }
}

// WithIDStrategy selects how unique identifiers are generated.
func WithIDStrategy(s fileid.Strategy) Option {
	return func(o *Orchestrator) { o.strategy = s }
}

// WithStateHook registers a transition observer.
func WithStateHook(h StateHook) Option {
	return func(o *Orchestrator) { o.hook = h }
}

// WithAssembler replaces the default archive assembler.
func WithAssembler(a *archive.Assembler) Option {
	return func(o *Orchestrator) { o.assembler = a }
}

// New returns an Orchestrator reading from input and publishing through pub.
func New(input blobstore.Store, ex extract.Extractor, m Matcher, pub *publish.Publisher, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		input:     input,
		extractor: ex,
		matcher:   m,
		publisher: pub,
		strategy:  fileid.NameHash,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = utils.OrNop(o.logger)
	if o.assembler == nil {
		o.assembler = archive.NewAssembler(archive.WithLogger(o.logger))
	}
	return o
}

// run tracks the state of one handling.
type run struct {
	o     *Orchestrator
	uri   string
	state State
}

func (r *run) enter(s State) {
	if r.o.hook != nil {
		r.o.hook(r.uri, r.state, s)
	}
	r.state = s
}

func (r *run) fail(kind Kind, err error) *Error {
	stage := r.state
	r.enter(StateFailed)
	return &Error{Kind: kind, Stage: stage, URI: r.uri, Err: err}
}

// Handle processes one object event end to end. The workspace is removed on every exit
// path, including a panic in a component. Failures are logged once and returned as *Error.
func (o *Orchestrator) Handle(ctx context.Context, ev models.ObjectEvent) (out *Outcome, err error) {
	start := time.Now()
	r := &run{o: o, uri: ev.URI(), state: StateIdle}
	log := o.logger.With(zap.String("uri", r.uri))

	defer func() {
		if rec := recover(); rec != nil {
			out = nil
			err = r.fail(KindOther, fmt.Errorf("%w: %v", ErrPanic, rec))
		}
		if err != nil {
			log.Error("processing failed", zap.Error(err), zap.String("kind", string(KindOf(err))))
		}
	}()

	if verr := ev.Validate(); verr != nil {
		return nil, &Error{Kind: KindOther, Stage: StateIdle, URI: r.uri, Err: verr}
	}
	if o.input == nil || o.extractor == nil || o.publisher == nil || o.publisher.Bucket() == "" {
		return nil, &Error{Kind: KindConfig, Stage: StateIdle, URI: r.uri, Err: errors.New("orchestrator is missing an input store, extractor or output bucket")}
	}

	log.Info("processing file", zap.String("bucket", ev.Bucket), zap.String("name", ev.Name))

	r.enter(StateFetching)
	ws, werr := archive.NewWorkspace(o.tempDir)
	if werr != nil {
		return nil, r.fail(KindOther, werr)
	}
	defer func() {
		if cerr := ws.Cleanup(); cerr != nil {
			log.Warn("workspace cleanup failed", zap.String("dir", ws.Dir), zap.Error(cerr))
		} else {
			log.Debug("workspace cleaned up", zap.String("dir", ws.Dir))
		}
		if r.state == StateCleaningUp {
			r.enter(StateIdle)
		}
	}()

	obj, ferr := o.input.Get(ctx, ev.Bucket, ev.Name)
	if ferr != nil {
		return nil, r.fail(kindFor(StateFetching, ferr), fmt.Errorf("download: %w", ferr))
	}
	mimeType := contentType(obj, ev)
	log.Info("file downloaded", zap.Int("bytes", len(obj.Content)), zap.String("content_type", mimeType))

	r.enter(StateExtracting)
	entities, xerr := o.extractor.Extract(ctx, obj.Content, mimeType)
	if xerr != nil {
		return nil, r.fail(kindFor(StateExtracting, xerr), fmt.Errorf("extract: %w", xerr))
	}
	result := extract.Fields(entities)
	log.Info("fields extracted",
		zap.String("name", result.Name),
		zap.String("surname", result.Surname),
		zap.String("document_date", result.DocumentDate),
		zap.String("category", result.Category),
		zap.Int("entities", len(entities)),
	)

	r.enter(StateReconciling)
	var enrichment models.Record
	if o.matcher != nil {
		enrichment = o.matcher.Match(result)
	}
	if enrichment.Empty() {
		log.Info("no personnel match, continuing without enrichment")
	} else {
		log.Info("personnel match found", zap.String("record", utils.Truncate(enrichment.String(), 200)))
	}

	r.enter(StateAssembling)
	id := o.strategy.Generate(ev.Name)
	art, aerr := o.assembler.Assemble(ws, ev.Name, obj.Content, result, id, enrichment)
	if aerr != nil {
		return nil, r.fail(kindFor(StateAssembling, aerr), fmt.Errorf("assemble: %w", aerr))
	}

	r.enter(StatePublishing)
	uri, perr := o.publisher.Publish(ctx, art, models.CatalogRecord{
		OriginalName: ev.Name,
		InputURI:     r.uri,
		UniqueID:     id,
		Fields:       result,
		Enrichment:   enrichment,
	})
	if perr != nil {
		return nil, r.fail(kindFor(StatePublishing, perr), fmt.Errorf("upload: %w", perr))
	}

	r.enter(StateCleaningUp)
	out = &Outcome{
		InputURI:    r.uri,
		OutputURI:   uri,
		ArchiveName: art.ArchiveName,
		UniqueID:    id,
		ContentType: mimeType,
		Result:      result,
		Enrichment:  enrichment,
		Duration:    time.Since(start),
	}
	log.Info("processing complete", zap.String("output_uri", uri), zap.String("id", id))
	return out, nil
}

// contentType prefers the stored object's type, then the event's, then sniffing.
func contentType(obj *blobstore.Object, ev models.ObjectEvent) string {
	if obj.ContentType != "" {
		return obj.ContentType
	}
	if ev.ContentType != "" {
		return ev.ContentType
	}
	return blobstore.DetectContentType(obj.Content)
}
