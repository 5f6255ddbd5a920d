package extract

import (
	"context"
	"regexp"
	"strings"

	"github.com/hyperjump/docpack/internal/models"
)

// DefaultLabels maps (lower-case) line labels to entity types for the Local extractor.
var DefaultLabels = map[string]string{
	"nome":              EntityName,
	"cognome":           EntitySurname,
	"data":              EntityDocumentDate,
	"data di redazione": EntityDocumentDate,
	"data documento":    EntityDocumentDate,
	"categoria":         EntityCategory,
	"categoria doc":     EntityCategory,
}

// labelLine matches "Label: value" (or "Label = value") at the start of a line.
var labelLine = regexp.MustCompile(`^\s*([\p{L}][\p{L} ]*?)\s*[:=]\s*(.+?)\s*$`)

// Local is an offline Extractor. It reads the document's text and turns labelled lines
// such as "Nome: Mario" into entities, in document order.
type Local struct {
	labels map[string]string
}

// NewLocal returns a Local extractor. A nil labels map uses DefaultLabels.
func NewLocal(labels map[string]string) *Local {
	if labels == nil {
		labels = DefaultLabels
	}
	return &Local{labels: labels}
}

// Extract implements Extractor.
func (l *Local) Extract(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := DocumentText(content, mimeType)
	if err != nil {
		return nil, err
	}
	var entities []models.Entity
	for _, line := range strings.Split(text, "\n") {
		m := labelLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		typ, ok := l.labels[strings.ToLower(m[1])]
		if !ok {
			continue
		}
		entities = append(entities, models.Entity{Type: typ, Text: m[2]})
	}
	return entities, nil
}
