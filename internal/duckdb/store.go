// Package duckdb writes ClinVar variant exports to a DuckDB database file.
// Each export is recorded in the exports table and its variants are appended
// to clinvar_variants under the export's id.
package duckdb

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/marcboeker/go-duckdb"
)

// Store manages a DuckDB connection for variant exports.
type Store struct {
	db *sql.DB
}

// Open opens or creates a DuckDB database at the given path.
// Use an empty string for an in-memory database.
func Open(path string) (*Store, error) {
	if path != "" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create export directory: %w", err)
		}
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ensureSchema creates tables if they don't exist.
func (s *Store) ensureSchema() error {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS exports (
		export_id VARCHAR PRIMARY KEY,
		genome VARCHAR,
		gene_symbol VARCHAR,
		gene_id VARCHAR,
		chrom VARCHAR,
		min_pos BIGINT,
		max_pos BIGINT,
		variant_count BIGINT,
		exported_at TIMESTAMP
	)`); err != nil {
		return err
	}

	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS clinvar_variants (
		export_id VARCHAR,
		clinvar_id VARCHAR,
		title VARCHAR,
		variation_type VARCHAR,
		classification VARCHAR,
		gene VARCHAR,
		chrom VARCHAR,
		location BIGINT,
		evo2_delta DOUBLE,
		evo2_prediction VARCHAR,
		evo2_confidence DOUBLE,
		evo2_error VARCHAR,
		PRIMARY KEY (export_id, clinvar_id)
	)`)
	return err
}
