// Package extract turns raw document bytes into typed entities and folds those entities
// into the identity fields of an ExtractionResult.
package extract

import (
	"context"

	"github.com/hyperjump/docpack/internal/models"
)

// Extractor returns every entity the document-understanding backend finds in content.
type Extractor interface {
	Extract(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error)
}

// Entity types understood by Fields.
const (
	EntityName         = "persona_nome"
	EntitySurname      = "persona_cognome"
	EntityDocumentDate = "data_documento"
	EntityCategory     = "categoria_documento"
)

// Fields folds entities into an ExtractionResult. Fields without a matching entity keep
// the NotFound placeholder; unknown types are ignored; when a type repeats, the last
// occurrence wins.
func Fields(entities []models.Entity) models.ExtractionResult {
	result := models.NewExtractionResult()
	for _, e := range entities {
		switch e.Type {
		case EntityName:
			result.Name = e.Text
		case EntitySurname:
			result.Surname = e.Text
		case EntityDocumentDate:
			result.DocumentDate = e.Text
		case EntityCategory:
			result.Category = e.Text
		}
	}
	return result
}

// Func adapts a plain function to the Extractor interface.
type Func func(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error) {
	return f(ctx, content, mimeType)
}
