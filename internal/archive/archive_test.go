package archive

import (
	"archive/zip"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/hyperjump/docpack/internal/models"
)

func TestArchiveName(t *testing.T) {
	tests := []struct {
		object, want string
	}{
		{"doc1.pdf", "doc1_ID_output.zip"},
		{"incoming/2025/doc1.pdf", "doc1_ID_output.zip"},
		{"archive.tar.gz", "archive.tar_ID_output.zip"},
		{"README", "README_ID_output.zip"},
		{".hidden", ".hidden_ID_output.zip"},
	}
	for _, tt := range tests {
		if got := ArchiveName(tt.object, "ID"); got != tt.want {
			t.Errorf("ArchiveName(%q) = %q, want %q", tt.object, got, tt.want)
		}
	}
}

func TestDatFileName(t *testing.T) {
	if got := DatFileName("GENERATED_ID_1"); got != "DocumentsOfRecord_GENERATED_ID_1.dat" {
		t.Errorf("got %q", got)
	}
}

func TestMetadataDocument_order(t *testing.T) {
	result := models.ExtractionResult{Name: "Mario", Surname: "Rossi", DocumentDate: "2025-06-20", Category: "Contratto"}
	enrichment := models.Record{
		{Key: "Nome", Value: "Mario"},
		{Key: "Cognome", Value: "Rossi"},
		{Key: "ID Dipendente", Value: "DIP001"},
		{Key: "Email", Value: "mario.rossi@example.com"},
	}
	got := MetadataDocument(result, "GENERATED_ID_X", enrichment)
	want := "Nome: Mario\n" +
		"Cognome: Rossi\n" +
		"Data di redazione: 2025-06-20\n" +
		"Codice Identificativo Univoco: GENERATED_ID_X\n" +
		"Informazioni Fisse: CredemHack2025\n" +
		"Nome: Mario\n" +
		"Cognome: Rossi\n" +
		"ID Dipendente: DIP001\n" +
		"Email: mario.rossi@example.com\n"
	if got != want {
		t.Errorf("MetadataDocument:\n got %q\nwant %q", got, want)
	}
}

func TestMetadataDocument_noEnrichment(t *testing.T) {
	got := MetadataDocument(models.NewExtractionResult(), "ID", nil)
	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("lines: got %d: %q", len(lines), got)
	}
	if lines[0] != "Nome: "+models.NotFound || lines[4] != FixedInfo {
		t.Errorf("got %q", got)
	}
}

func readZip(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer zr.Close()
	out := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(b)
	}
	return out
}

func TestAssemble_layout(t *testing.T) {
	for _, enrichment := range []models.Record{nil, {{Key: "ID Dipendente", Value: "DIP001"}}} {
		ws, err := NewWorkspace(t.TempDir())
		if err != nil {
			t.Fatal(err)
		}
		content := []byte("%PDF-1.4 original bytes")
		art, err := NewAssembler().Assemble(ws, "incoming/doc1.pdf", content, models.NewExtractionResult(), "ID1", enrichment)
		if err != nil {
			t.Fatalf("Assemble: %v", err)
		}
		if art.ArchiveName != "doc1_ID1_output.zip" {
			t.Errorf("archive name: got %q", art.ArchiveName)
		}
		entries := readZip(t, art.ArchivePath)
		if len(entries) != 2 {
			t.Fatalf("entries: got %v", entries)
		}
		dat, ok := entries["DocumentsOfRecord_ID1.dat"]
		if !ok {
			t.Fatalf("missing .dat at root: %v", entries)
		}
		if !strings.Contains(dat, "Codice Identificativo Univoco: ID1\n") {
			t.Errorf(".dat content: %q", dat)
		}
		if got := entries["BLOBFILES/doc1.pdf"]; got != string(content) {
			t.Errorf("original document should be copied unmodified, got %q", got)
		}
		if err := ws.Cleanup(); err != nil {
			t.Fatal(err)
		}
	}
}

func TestAssemble_rejectsEmptyBaseName(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Cleanup()
	if _, err := NewAssembler().Assemble(ws, "", []byte("x"), models.NewExtractionResult(), "ID", nil); err == nil {
		t.Error("expected error for empty object name")
	}
}

func TestWorkspace_uniqueAndCleanup(t *testing.T) {
	root := t.TempDir()
	a, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewWorkspace(root)
	if err != nil {
		t.Fatal(err)
	}
	if a.Dir == b.Dir {
		t.Fatal("workspaces must not collide")
	}
	if err := os.WriteFile(a.Path("f.dat"), []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := a.Cleanup(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(a.Dir); !os.IsNotExist(err) {
		t.Errorf("workspace should be removed: %v", err)
	}
	if err := a.Cleanup(); err != nil {
		t.Errorf("second Cleanup should be a no-op: %v", err)
	}
	_ = b.Cleanup()
}
