package extract

import (
	"context"
	"encoding/base64"
	"fmt"

	"go.uber.org/zap"
	documentai "google.golang.org/api/documentai/v1"
	"google.golang.org/api/option"

	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/pkg/utils"
)

// DocumentAIConfig identifies the processor to call.
type DocumentAIConfig struct {
	Project     string
	Location    string
	ProcessorID string
	// Endpoint overrides the regional API endpoint (tests, private endpoints).
	Endpoint string
}

// DocumentAI extracts entities with a Google Document AI processor.
type DocumentAI struct {
	svc    *documentai.Service
	name   string
	logger *zap.Logger
}

// ProcessorName returns the resource name of a processor.
func ProcessorName(project, location, processorID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", project, location, processorID)
}

// RegionalEndpoint returns the Document AI endpoint serving location ("us", "eu", ...).
func RegionalEndpoint(location string) string {
	if location == "" {
		return "https://documentai.googleapis.com/"
	}
	return fmt.Sprintf("https://%s-documentai.googleapis.com/", location)
}

// NewDocumentAI creates the REST client. clientOpts are passed to the API client after the
// endpoint option, so callers can supply credentials or override the endpoint.
// logger may be nil.
func NewDocumentAI(ctx context.Context, cfg DocumentAIConfig, logger *zap.Logger, clientOpts ...option.ClientOption) (*DocumentAI, error) {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = RegionalEndpoint(cfg.Location)
	}
	all := append([]option.ClientOption{option.WithEndpoint(endpoint)}, clientOpts...)
	svc, err := documentai.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create document ai client: %w", err)
	}
	return &DocumentAI{
		svc:    svc,
		name:   ProcessorName(cfg.Project, cfg.Location, cfg.ProcessorID),
		logger: utils.OrNop(logger),
	}, nil
}

// Name returns the processor resource name.
func (d *DocumentAI) Name() string {
	return d.name
}

// Extract sends content to the processor once and returns its entities in response order.
// Errors are returned as-is; there is no retry.
func (d *DocumentAI) Extract(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error) {
	req := &documentai.GoogleCloudDocumentaiV1ProcessRequest{
		RawDocument: &documentai.GoogleCloudDocumentaiV1RawDocument{
			Content:  base64.StdEncoding.EncodeToString(content),
			MimeType: mimeType,
		},
	}
	d.logger.Debug("document ai request", zap.String("processor", d.name), zap.String("mime_type", mimeType), zap.Int("bytes", len(content)))
	resp, err := d.svc.Projects.Locations.Processors.Process(d.name, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("process document: %w", err)
	}
	if resp.Document == nil {
		return nil, nil
	}
	entities := make([]models.Entity, 0, len(resp.Document.Entities))
	for _, e := range resp.Document.Entities {
		if e == nil {
			continue
		}
		entities = append(entities, models.Entity{Type: e.Type, Text: e.MentionText})
	}
	d.logger.Debug("document ai response", zap.Int("entities", len(entities)))
	return entities, nil
}
