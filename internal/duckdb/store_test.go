package duckdb

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

func openInMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// exportedVariants reads back the variants of one export in ClinVar id order.
func exportedVariants(t *testing.T, s *Store, exportID string) []variant.Clinvar {
	t.Helper()
	rows, err := s.db.Query(`SELECT
		clinvar_id, title, variation_type, classification, gene, chrom, location,
		evo2_delta, evo2_prediction, evo2_confidence, evo2_error
		FROM clinvar_variants
		WHERE export_id=?
		ORDER BY clinvar_id`, exportID)
	require.NoError(t, err)
	defer rows.Close()

	var out []variant.Clinvar
	for rows.Next() {
		var v variant.Clinvar
		var delta, confidence sql.NullFloat64
		var prediction sql.NullString
		require.NoError(t, rows.Scan(
			&v.ClinvarID, &v.Title, &v.VariationType, &v.Classification, &v.Gene, &v.Chrom, &v.Location,
			&delta, &prediction, &confidence, &v.Evo2Error,
		))
		if delta.Valid {
			v.Evo2 = &variant.Evo2Result{
				DeltaScore: delta.Float64,
				Prediction: prediction.String,
				Confidence: confidence.Float64,
			}
		}
		out = append(out, v)
	}
	require.NoError(t, rows.Err())
	return out
}

// recordedExports reads back the exports table.
func recordedExports(t *testing.T, s *Store) []Export {
	t.Helper()
	rows, err := s.db.Query(`SELECT
		export_id, genome, gene_symbol, gene_id, chrom, min_pos, max_pos, variant_count, exported_at
		FROM exports ORDER BY exported_at, export_id`)
	require.NoError(t, err)
	defer rows.Close()

	var out []Export
	for rows.Next() {
		var e Export
		require.NoError(t, rows.Scan(&e.ID, &e.Genome, &e.GeneSymbol, &e.GeneID, &e.Chrom,
			&e.Bounds.Min, &e.Bounds.Max, &e.VariantCount, &e.ExportedAt))
		out = append(out, e)
	}
	require.NoError(t, rows.Err())
	return out
}

var brca1 = genome.SearchHit{Symbol: "BRCA1", Chrom: "chr17", GeneID: "672"}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "export.duckdb")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening an existing file keeps the schema.
	s, err = Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestWriteVariants(t *testing.T) {
	s := openInMemory(t)

	e := NewExport("hg38", brca1, genome.Bounds{Min: 43044294, Max: 43125482})
	e, err := s.WriteVariants(e, []variant.Clinvar{
		{
			ClinvarID: "55555", Title: "NM_007294.4(BRCA1):c.5096G>A", VariationType: "single nucleotide variant",
			Classification: "Pathogenic", Gene: "BRCA1", Chrom: "17", Location: 43057063,
			Evo2: &variant.Evo2Result{DeltaScore: -0.0021, Prediction: "Likely pathogenic", Confidence: 0.87},
		},
		{ClinvarID: "12345", VariationType: "Deletion", Classification: "Benign", Chrom: "17", Location: 43050000},
		{ClinvarID: "55555", Classification: "duplicate"},
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, e.VariantCount)

	got := exportedVariants(t, s, e.ID)
	require.Len(t, got, 2)

	assert.Equal(t, "12345", got[0].ClinvarID)
	assert.Nil(t, got[0].Evo2)

	assert.Equal(t, "55555", got[1].ClinvarID)
	assert.Equal(t, "Pathogenic", got[1].Classification)
	require.NotNil(t, got[1].Evo2)
	assert.Equal(t, "Likely pathogenic", got[1].Evo2.Prediction)
	assert.InDelta(t, -0.0021, got[1].Evo2.DeltaScore, 1e-9)

	exports := recordedExports(t, s)
	require.Len(t, exports, 1)
	assert.Equal(t, e.ID, exports[0].ID)
	assert.Equal(t, "BRCA1", exports[0].GeneSymbol)
	assert.Equal(t, genome.Bounds{Min: 43044294, Max: 43125482}, exports[0].Bounds)
	assert.EqualValues(t, 2, exports[0].VariantCount)
}

func TestWriteVariants_Empty(t *testing.T) {
	s := openInMemory(t)

	e, err := s.WriteVariants(NewExport("hg19", brca1, genome.Bounds{Min: 1, Max: 2}), nil)
	require.NoError(t, err)
	assert.Zero(t, e.VariantCount)

	got := exportedVariants(t, s, e.ID)
	assert.Empty(t, got)

	exports := recordedExports(t, s)
	assert.Len(t, exports, 1)
}

func TestWriteVariants_SeparateExports(t *testing.T) {
	s := openInMemory(t)
	vs := []variant.Clinvar{{ClinvarID: "1"}, {ClinvarID: "2"}}

	a, err := s.WriteVariants(NewExport("hg38", brca1, genome.Bounds{Min: 1, Max: 2}), vs)
	require.NoError(t, err)
	b, err := s.WriteVariants(NewExport("hg38", brca1, genome.Bounds{Min: 1, Max: 2}), vs[:1])
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)

	assert.Len(t, exportedVariants(t, s, a.ID), 2)
	assert.Len(t, exportedVariants(t, s, b.ID), 1)
}
