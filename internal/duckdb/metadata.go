package duckdb

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inodb/vibe-gene/internal/genome"
)

// Export describes one export run.
type Export struct {
	ID           string
	Genome       string
	GeneSymbol   string
	GeneID       string
	Chrom        string
	Bounds       genome.Bounds
	VariantCount int64
	ExportedAt   time.Time
}

// NewExport creates export metadata with a fresh id.
func NewExport(genomeID string, gene genome.SearchHit, bounds genome.Bounds) Export {
	return Export{
		ID:         uuid.NewString(),
		Genome:     genomeID,
		GeneSymbol: gene.Symbol,
		GeneID:     gene.GeneID,
		Chrom:      gene.Chrom,
		Bounds:     bounds,
		ExportedAt: time.Now().UTC(),
	}
}

func (s *Store) insertExport(e Export) error {
	_, err := s.db.Exec(`INSERT INTO exports
		(export_id, genome, gene_symbol, gene_id, chrom, min_pos, max_pos, variant_count, exported_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Genome, e.GeneSymbol, e.GeneID, e.Chrom,
		e.Bounds.Min, e.Bounds.Max, e.VariantCount, e.ExportedAt)
	if err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}
