package catalog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hyperjump/docpack/internal/models"
)

func TestSQLite_RegisterAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "catalog.db")
	store, err := NewSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	first := models.CatalogRecord{
		OriginalName: "doc1.pdf",
		InputURI:     "gs://in/doc1.pdf",
		OutputURI:    "gs://out/doc1_ID1_output.zip",
		UniqueID:     "ID1",
		Fields:       models.ExtractionResult{Name: "Mario", Surname: "Rossi", DocumentDate: "2025-06-20", Category: models.NotFound},
		Enrichment:   models.Record{{Key: "Nome", Value: "Mario"}, {Key: "ID Dipendente", Value: "DIP001"}},
		ProcessedAt:  time.Now().Add(-time.Minute),
	}
	second := models.CatalogRecord{
		OriginalName: "doc2.pdf",
		InputURI:     "gs://in/doc2.pdf",
		OutputURI:    "gs://out/doc2_ID2_output.zip",
		UniqueID:     "ID2",
		Fields:       models.NewExtractionResult(),
	}
	if err := store.Register(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := store.Register(ctx, second); err != nil {
		t.Fatal(err)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("count: got %d", n)
	}

	recent, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(recent) != 2 {
		t.Fatalf("recent: got %d", len(recent))
	}
	if recent[0].UniqueID != "ID2" {
		t.Errorf("newest first: got %s", recent[0].UniqueID)
	}
	got := recent[1]
	if got.Fields != first.Fields || got.OutputURI != first.OutputURI {
		t.Errorf("round trip: got %+v", got)
	}
	if len(got.Enrichment) != 2 || got.Enrichment[1].Key != "ID Dipendente" {
		t.Errorf("enrichment should keep column order: %v", got.Enrichment)
	}
	if !recent[0].Enrichment.Empty() {
		t.Errorf("empty enrichment should stay empty: %v", recent[0].Enrichment)
	}
}

func TestNoop(t *testing.T) {
	var c Catalog = Noop{}
	if err := c.Register(context.Background(), models.CatalogRecord{}); err != nil {
		t.Errorf("Noop.Register: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Errorf("Noop.Close: %v", err)
	}
}
