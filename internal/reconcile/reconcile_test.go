package reconcile

import (
	"testing"

	"github.com/hyperjump/docpack/internal/models"
	"github.com/hyperjump/docpack/internal/refdata"
)

func person(first, last, id string) models.Record {
	return models.Record{
		{Key: refdata.ColumnFirstName, Value: first},
		{Key: refdata.ColumnLastName, Value: last},
		{Key: "ID Dipendente", Value: id},
	}
}

func result(name, surname string) models.ExtractionResult {
	r := models.NewExtractionResult()
	r.Name = name
	r.Surname = surname
	return r
}

func TestMatch(t *testing.T) {
	store := refdata.New([]models.Record{
		person("Mario", "Rossi", "DIP001"),
		person("Maria", "Rossini", "DIP002"),
		person("Luigi", "Verdi", "DIP003"),
	}, nil)
	r := New(store)

	tests := []struct {
		name    string
		in      models.ExtractionResult
		wantID  string
		wantHit bool
	}{
		{"exact", result("Mario", "Rossi"), "DIP001", true},
		{"substring", result("Mari", "Rossi"), "DIP001", true},
		{"first row wins on ambiguity", result("mari", "ross"), "DIP001", true},
		{"second row only", result("Maria", "Rossini"), "DIP002", true},
		{"surname mismatch", result("Luigi", "Rossi"), "", false},
		{"placeholders", models.NewExtractionResult(), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Match(tt.in)
			if got.Empty() == tt.wantHit {
				t.Fatalf("Match(%+v) = %v, wantHit %v", tt.in, got, tt.wantHit)
			}
			if !tt.wantHit {
				return
			}
			if id, _ := got.Get("ID Dipendente"); id != tt.wantID {
				t.Errorf("ID: got %s, want %s", id, tt.wantID)
			}
		})
	}
}

func TestMatch_fullRowInColumnOrder(t *testing.T) {
	r := New(refdata.New([]models.Record{person("Mario", "Rossi", "DIP001")}, nil))
	got := r.Match(result("Mario", "Rossi"))
	if len(got) != 3 || got[0].Key != refdata.ColumnFirstName || got[2].Key != "ID Dipendente" {
		t.Errorf("enrichment should be the whole row in column order: %v", got)
	}
}

func TestMatch_nilDirectory(t *testing.T) {
	if got := New(nil).Match(result("Mario", "Rossi")); !got.Empty() {
		t.Errorf("nil directory should never match: %v", got)
	}
}

func TestMatch_emptyStore(t *testing.T) {
	if got := New(refdata.New(nil, nil)).Match(result("Mario", "Rossi")); !got.Empty() {
		t.Errorf("empty store should never match: %v", got)
	}
}
