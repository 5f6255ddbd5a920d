package refdata

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/docpack/internal/models"
)

// ErrNoHeader is returned when a table has no header row.
var ErrNoHeader = errors.New("table has no header row")

// ReadTable reads a tabular file into records keyed by its header row.
// .xlsx files are read from their first sheet; anything else is parsed as CSV.
func ReadTable(path string) ([]models.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return readExcel(path)
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return ReadCSV(f)
	}
}

// ReadCSV parses CSV data into records. A UTF-8 BOM is stripped, blank lines are skipped,
// and short rows are padded with empty values.
func ReadCSV(r io.Reader) ([]models.Record, error) {
	br := bufio.NewReader(r)
	if bom, err := br.Peek(3); err == nil && string(bom) == "\xef\xbb\xbf" {
		_, _ = br.Discard(3)
	}
	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse CSV: %w", err)
	}
	return recordsFromRows(rows)
}

func readExcel(path string) ([]models.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open Excel: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return recordsFromRows(rows)
}

func recordsFromRows(rows [][]string) ([]models.Record, error) {
	start := -1
	for i, row := range rows {
		if !blankRow(row) {
			start = i
			break
		}
	}
	if start < 0 {
		return nil, ErrNoHeader
	}
	header := make([]string, len(rows[start]))
	for i, h := range rows[start] {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		header[i] = strings.TrimSpace(h)
	}

	records := make([]models.Record, 0, len(rows)-start-1)
	for _, row := range rows[start+1:] {
		if blankRow(row) {
			continue
		}
		rec := make(models.Record, len(header))
		for i, key := range header {
			rec[i].Key = key
			if i < len(row) {
				rec[i].Value = row[i]
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func blankRow(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
