package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/docpack/internal/models"
)

func TestFields_placeholdersWhenMissing(t *testing.T) {
	inputs := [][]models.Entity{
		nil,
		{},
		{{Type: "unrelated", Text: "x"}},
		{{Type: EntityName, Text: "Mario"}},
	}
	for _, entities := range inputs {
		got := Fields(entities)
		if got.Surname != models.NotFound || got.DocumentDate != models.NotFound || got.Category != models.NotFound {
			t.Errorf("Fields(%v) = %+v: uncovered fields must keep the placeholder", entities, got)
		}
	}
}

func TestFields_mapsKnownTypes(t *testing.T) {
	got := Fields([]models.Entity{
		{Type: EntityName, Text: "Mario"},
		{Type: EntitySurname, Text: "Rossi"},
		{Type: EntityDocumentDate, Text: "2025-06-20"},
		{Type: EntityCategory, Text: "Contratto"},
		{Type: "firma", Text: "ignored"},
	})
	want := models.ExtractionResult{Name: "Mario", Surname: "Rossi", DocumentDate: "2025-06-20", Category: "Contratto"}
	if got != want {
		t.Errorf("Fields: got %+v, want %+v", got, want)
	}
}

func TestFields_lastOccurrenceWins(t *testing.T) {
	got := Fields([]models.Entity{
		{Type: EntityName, Text: "Mario"},
		{Type: EntitySurname, Text: "Rossi"},
		{Type: EntityName, Text: "Luigi"},
		{Type: EntityName, Text: "Anna"},
	})
	if got.Name != "Anna" {
		t.Errorf("Name: got %q, want last occurrence %q", got.Name, "Anna")
	}
	if got.Surname != "Rossi" {
		t.Errorf("Surname: got %q", got.Surname)
	}
}

func TestFields_emptyTextOverwrites(t *testing.T) {
	got := Fields([]models.Entity{{Type: EntityName, Text: "Mario"}, {Type: EntityName, Text: ""}})
	if got.Name != "" {
		t.Errorf("an explicit empty entity still overwrites: got %q", got.Name)
	}
}

func TestFunc(t *testing.T) {
	want := errors.New("boom")
	f := Func(func(ctx context.Context, content []byte, mimeType string) ([]models.Entity, error) {
		return nil, want
	})
	if _, err := f.Extract(context.Background(), nil, ""); !errors.Is(err, want) {
		t.Errorf("Func should delegate: %v", err)
	}
}
