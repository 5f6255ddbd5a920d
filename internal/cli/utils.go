// Package cli formats command output for docpack.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/internal/pipeline"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(strings.TrimSpace(s))) {
	case "", OutputText:
		return OutputText, nil
	case OutputJSON:
		return OutputJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (use text or json)", s)
}

const rule = "─────────────────────────────────────────────────────────\n"

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteOutcome writes the result of processing one document.
func WriteOutcome(w io.Writer, out *pipeline.Outcome, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, out)
	}
	fmt.Fprint(w, rule)
	fmt.Fprintf(w, "Input:    %s\n", out.InputURI)
	fmt.Fprintf(w, "Output:   %s\n", out.OutputURI)
	fmt.Fprintf(w, "ID:       %s\n", out.UniqueID)
	fmt.Fprintf(w, "Type:     %s\n", out.ContentType)
	fmt.Fprintf(w, "Took:     %dms\n", out.Duration.Milliseconds())
	fmt.Fprint(w, rule)
	fmt.Fprintf(w, "Nome:              %s\n", out.Result.Name)
	fmt.Fprintf(w, "Cognome:           %s\n", out.Result.Surname)
	fmt.Fprintf(w, "Data di redazione: %s\n", out.Result.DocumentDate)
	fmt.Fprintf(w, "Categoria:         %s\n", out.Result.Category)
	if out.Enrichment.Empty() {
		fmt.Fprintln(w, "\nNo personnel match.")
		return nil
	}
	fmt.Fprintln(w, "\nPersonnel match:")
	writeRecord(w, out.Enrichment)
	return nil
}

// WritePersons writes personnel rows returned by a lookup.
func WritePersons(w io.Writer, records []models.Record, format OutputFormat) error {
	if format == OutputJSON {
		if records == nil {
			records = []models.Record{}
		}
		return writeJSON(w, records)
	}
	fmt.Fprintf(w, "\nFound %d matching rows\n\n", len(records))
	for i, rec := range records {
		fmt.Fprint(w, rule)
		fmt.Fprintf(w, "[%d]\n", i+1)
		writeRecord(w, rec)
	}
	return nil
}

func writeRecord(w io.Writer, rec models.Record) {
	width := 0
	for _, f := range rec {
		if n := len([]rune(f.Key)); n > width {
			width = n
		}
	}
	for _, f := range rec {
		fmt.Fprintf(w, "  %-*s  %s\n", width, f.Key+":", f.Value)
	}
}
