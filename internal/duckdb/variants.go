package duckdb

import (
	"context"
	"database/sql/driver"
	"fmt"

	goduckdb "github.com/marcboeker/go-duckdb"

	"github.com/inodb/vibe-gene/internal/variant"
)

// WriteVariants records the export and batch-inserts its variants using the
// Appender API. Duplicate ClinVar ids are written once.
func (s *Store) WriteVariants(e Export, variants []variant.Clinvar) (Export, error) {
	seen := make(map[string]bool, len(variants))
	deduped := make([]variant.Clinvar, 0, len(variants))
	for _, v := range variants {
		if !seen[v.ClinvarID] {
			seen[v.ClinvarID] = true
			deduped = append(deduped, v)
		}
	}
	e.VariantCount = int64(len(deduped))

	if err := s.insertExport(e); err != nil {
		return e, err
	}
	if len(deduped) == 0 {
		return e, nil
	}

	conn, err := s.db.Conn(context.Background())
	if err != nil {
		return e, fmt.Errorf("get connection: %w", err)
	}
	defer conn.Close()

	var appender *goduckdb.Appender
	if err := conn.Raw(func(driverConn any) error {
		var err error
		appender, err = goduckdb.NewAppenderFromConn(driverConn.(driver.Conn), "", "clinvar_variants")
		return err
	}); err != nil {
		return e, fmt.Errorf("create appender: %w", err)
	}
	defer appender.Close()

	for _, v := range deduped {
		var delta, confidence, prediction any
		if v.Evo2 != nil {
			delta, confidence, prediction = v.Evo2.DeltaScore, v.Evo2.Confidence, v.Evo2.Prediction
		}
		if err := appender.AppendRow(
			e.ID, v.ClinvarID, v.Title, v.VariationType, v.Classification,
			v.Gene, v.Chrom, v.Location,
			delta, prediction, confidence, v.Evo2Error,
		); err != nil {
			return e, fmt.Errorf("append variant %s: %w", v.ClinvarID, err)
		}
	}

	if err := appender.Flush(); err != nil {
		return e, fmt.Errorf("flush variants: %w", err)
	}
	return e, nil
}
