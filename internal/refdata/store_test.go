package refdata

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/docpack/internal/models"
)

const personnelCSV = "Nome,Cognome,ID Dipendente,Email\n" +
	"Mario,Rossi,DIP001,mario.rossi@example.com\n" +
	"Maria,Rossini,DIP002,maria.rossini@example.com\n" +
	"Luigi,Verdi,DIP003,luigi.verdi@example.com\n"

const clustersCSV = "Categoria Doc,Cluster ID\nContratto,CLUSTER_A\nFattura,CLUSTER_B\n"

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_CSV(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(
		writeFile(t, dir, "personale.csv", personnelCSV),
		writeFile(t, dir, "docs.csv", clustersCSV),
	)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := store.Stats(); got.Personnel != 3 || got.Clusters != 2 {
		t.Errorf("Stats: got %+v", got)
	}
}

func TestLoad_missingFilesStillUsable(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(filepath.Join(dir, "missing.csv"), writeFile(t, dir, "docs.csv", clustersCSV))
	if err == nil {
		t.Fatal("expected error for missing personnel table")
	}
	if !strings.Contains(err.Error(), "personnel table") {
		t.Errorf("error should name the table: %v", err)
	}
	if store == nil {
		t.Fatal("store should be usable after a load error")
	}
	if got := store.FindPerson("Mario", "Rossi"); len(got) != 0 {
		t.Errorf("FindPerson on empty table: got %v", got)
	}
	if got := store.LookupCluster("Contratto"); len(got) != 1 {
		t.Errorf("cluster table should still load: got %v", got)
	}
}

func TestFindPerson_substringBothFields(t *testing.T) {
	dir := t.TempDir()
	store, err := Load(writeFile(t, dir, "p.csv", personnelCSV), writeFile(t, dir, "c.csv", clustersCSV))
	if err != nil {
		t.Fatal(err)
	}
	tests := []struct {
		name, first, last string
		wantIDs           []string
	}{
		{"exact", "Mario", "Rossi", []string{"DIP001"}},
		{"case insensitive", "mario", "ROSSI", []string{"DIP001"}},
		{"prefix matches both rows", "Mari", "Ross", []string{"DIP001", "DIP002"}},
		{"first matches, last does not", "Mario", "Verdi", nil},
		{"last matches, first does not", "Luigi", "Rossi", nil},
		{"no match", "Anna", "Bianchi", nil},
		{"placeholder never matches", models.NotFound, models.NotFound, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := store.FindPerson(tt.first, tt.last)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("FindPerson(%q, %q): got %d rows, want %d", tt.first, tt.last, len(got), len(tt.wantIDs))
			}
			for i, rec := range got {
				if id, _ := rec.Get("ID Dipendente"); id != tt.wantIDs[i] {
					t.Errorf("row %d: got %s, want %s", i, id, tt.wantIDs[i])
				}
			}
		})
	}
}

func TestFindPerson_returnsCopies(t *testing.T) {
	store := New([]models.Record{{{Key: ColumnFirstName, Value: "Mario"}, {Key: ColumnLastName, Value: "Rossi"}}}, nil)
	got := store.FindPerson("Mario", "Rossi")
	got[0][0].Value = "Changed"
	again := store.FindPerson("Mario", "Rossi")
	if len(again) != 1 {
		t.Fatal("store must not be mutated through returned rows")
	}
}

func TestLookupCluster(t *testing.T) {
	store := New(nil, []models.Cluster{{Category: "Contratto", ClusterID: "CLUSTER_A"}, {Category: "Fattura", ClusterID: "CLUSTER_B"}})
	got := store.LookupCluster(" contratto ")
	if len(got) != 1 || got[0].ClusterID != "CLUSTER_A" {
		t.Errorf("LookupCluster: got %v", got)
	}
	if got := store.LookupCluster("Preventivo"); len(got) != 0 {
		t.Errorf("unknown category: got %v", got)
	}
}

func TestReadCSV_BOMAndShortRows(t *testing.T) {
	data := "\xef\xbb\xbf\"Nome\",Cognome,Email\nMario,Rossi\n\n"
	recs, err := ReadCSV(strings.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: got %d", len(recs))
	}
	if v, ok := recs[0].Get("Nome"); !ok || v != "Mario" {
		t.Errorf("BOM should be stripped from header: %v", recs[0])
	}
	if v, ok := recs[0].Get("Email"); !ok || v != "" {
		t.Errorf("short row should be padded: %v", recs[0])
	}
	if recs[0][0].Key != "Nome" || recs[0][2].Key != "Email" {
		t.Errorf("column order should follow the header: %v", recs[0])
	}
}

func TestReadCSV_keepsCellWhitespace(t *testing.T) {
	path := writeFile(t, t.TempDir(), "p.csv", " Nome , Cognome ,Note\nMario,Rossi,  in ferie \n")
	records, err := ReadTable(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("records: %v", records)
	}
	if v, ok := records[0].Get("Note"); !ok || v != "  in ferie " {
		t.Errorf("cell value should be kept as written: %q", v)
	}
	if _, ok := records[0].Get("Nome"); !ok {
		t.Error("header names should be trimmed")
	}
}

func TestReadCSV_empty(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("")); err != ErrNoHeader {
		t.Errorf("expected ErrNoHeader, got %v", err)
	}
}

func TestReadTable_excel(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Nome")
	f.SetCellValue("Sheet1", "B1", "Cognome")
	f.SetCellValue("Sheet1", "C1", "ID Dipendente")
	f.SetCellValue("Sheet1", "A2", "Mario")
	f.SetCellValue("Sheet1", "B2", "Rossi")
	f.SetCellValue("Sheet1", "C2", "DIP001")
	path := filepath.Join(t.TempDir(), "personale.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("SaveAs: %v", err)
	}

	recs, err := ReadTable(path)
	if err != nil {
		t.Fatalf("ReadTable: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("records: got %d", len(recs))
	}
	if id, _ := recs[0].Get("ID Dipendente"); id != "DIP001" {
		t.Errorf("got %v", recs[0])
	}
}
