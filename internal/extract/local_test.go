package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/docpack/internal/models"
)

func TestLocal_plainText(t *testing.T) {
	doc := "Contratto di lavoro\nNome: Mario\nCognome : Rossi\nData di redazione: 2025-06-20\nNote: nessuna\n"
	entities, err := NewLocal(nil).Extract(context.Background(), []byte(doc), "text/plain; charset=utf-8")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := Fields(entities)
	want := models.ExtractionResult{Name: "Mario", Surname: "Rossi", DocumentDate: "2025-06-20", Category: models.NotFound}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestLocal_docx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = w.Write([]byte(`<w:document><w:body>` +
		`<w:p w:rsidR="00A1"><w:r><w:t>Nome:</w:t></w:r><w:r><w:t xml:space="preserve"> Mario</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>Cognome: Rossi</w:t></w:r></w:p>` +
		`</w:body></w:document>`))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	entities, err := NewLocal(nil).Extract(context.Background(), buf.Bytes(), MimeDOCX)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got := Fields(entities)
	if got.Name != "Mario" || got.Surname != "Rossi" {
		t.Errorf("got %+v", got)
	}
}

func TestLocal_customLabels(t *testing.T) {
	l := NewLocal(map[string]string{"first name": EntityName})
	entities, err := l.Extract(context.Background(), []byte("First Name: Mario\nNome: Ignored"), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if len(entities) != 1 || entities[0].Text != "Mario" {
		t.Errorf("got %v", entities)
	}
}

func TestLocal_unsupportedType(t *testing.T) {
	_, err := NewLocal(nil).Extract(context.Background(), []byte{0x89, 'P', 'N', 'G'}, "image/png")
	if !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
}

func TestLocal_cancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLocal(nil).Extract(ctx, []byte("Nome: Mario"), "text/plain"); err == nil {
		t.Error("expected context error")
	}
}

func TestDocumentText_invalidUTF8(t *testing.T) {
	got, err := DocumentText([]byte("hello\x80world"), "text/plain")
	if err != nil {
		t.Fatal(err)
	}
	if got != "hello\uFFFDworld" {
		t.Errorf("got %q", got)
	}
}

func TestDocumentText_badPDF(t *testing.T) {
	if _, err := DocumentText([]byte("not a pdf"), MimePDF); err == nil {
		t.Error("expected error for invalid PDF")
	}
}
