// Package models defines core data structures for documents, extracted fields, and reference rows.
package models

import "time"

// NotFound is the placeholder stored in an extracted field when no entity supplied it.
const NotFound = "Not Found"

// Entity is a typed text span returned by the document-understanding service.
type Entity struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ExtractionResult holds the identity fields derived from a document's entities.
type ExtractionResult struct {
	Name         string `json:"name"`
	Surname      string `json:"surname"`
	DocumentDate string `json:"document_date"`
	Category     string `json:"category"`
}

// NewExtractionResult returns a result with every field set to NotFound.
func NewExtractionResult() ExtractionResult {
	return ExtractionResult{
		Name:         NotFound,
		Surname:      NotFound,
		DocumentDate: NotFound,
		Category:     NotFound,
	}
}

// CatalogRecord links an input document to its published archive and extracted fields.
type CatalogRecord struct {
	OriginalName string           `json:"original_name"`
	InputURI     string           `json:"input_uri"`
	OutputURI    string           `json:"output_uri"`
	UniqueID     string           `json:"unique_id"`
	Fields       ExtractionResult `json:"fields"`
	Enrichment   Record           `json:"enrichment,omitempty"`
	ProcessedAt  time.Time        `json:"processed_at"`
}
