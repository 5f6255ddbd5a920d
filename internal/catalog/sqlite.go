package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/docpack/internal/models"
)

// SQLite is a local Catalog that appends records to a SQLite table.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLite(dbPath string) (*SQLite, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS processed_documents (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		unique_id TEXT NOT NULL,
		original_name TEXT NOT NULL,
		input_uri TEXT NOT NULL,
		output_uri TEXT NOT NULL,
		name TEXT,
		surname TEXT,
		document_date TEXT,
		category TEXT,
		enrichment TEXT,
		processed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_processed_unique_id ON processed_documents(unique_id);
	CREATE INDEX IF NOT EXISTS idx_processed_at ON processed_documents(processed_at);
	`
	_, err := db.Exec(schema)
	return err
}

// Register inserts rec. ProcessedAt defaults to now.
func (s *SQLite) Register(ctx context.Context, rec models.CatalogRecord) error {
	enrichmentJSON, err := json.Marshal(rec.Enrichment)
	if err != nil {
		return fmt.Errorf("failed to marshal enrichment: %w", err)
	}
	if rec.ProcessedAt.IsZero() {
		rec.ProcessedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO processed_documents
		 (unique_id, original_name, input_uri, output_uri, name, surname, document_date, category, enrichment, processed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.UniqueID, rec.OriginalName, rec.InputURI, rec.OutputURI,
		rec.Fields.Name, rec.Fields.Surname, rec.Fields.DocumentDate, rec.Fields.Category,
		string(enrichmentJSON), rec.ProcessedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first.
func (s *SQLite) Recent(ctx context.Context, limit int) ([]models.CatalogRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT unique_id, original_name, input_uri, output_uri, name, surname, document_date, category, enrichment, processed_at
		 FROM processed_documents ORDER BY processed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CatalogRecord
	for rows.Next() {
		var rec models.CatalogRecord
		var enrichmentJSON string
		if err := rows.Scan(&rec.UniqueID, &rec.OriginalName, &rec.InputURI, &rec.OutputURI,
			&rec.Fields.Name, &rec.Fields.Surname, &rec.Fields.DocumentDate, &rec.Fields.Category,
			&enrichmentJSON, &rec.ProcessedAt); err != nil {
			return nil, err
		}
		if enrichmentJSON != "" {
			var fields []models.Field
			if err := json.Unmarshal([]byte(enrichmentJSON), &fields); err != nil {
				return nil, fmt.Errorf("failed to unmarshal enrichment: %w", err)
			}
			rec.Enrichment = models.Record(fields)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// Count returns the number of registered records.
func (s *SQLite) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM processed_documents").Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}
