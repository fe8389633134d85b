// Package output provides tab-delimited and FASTA formatters for browser data.
package output

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

// TabWriter writes rows in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer with the given header columns.
func NewTabWriter(w io.Writer, columns ...string) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString("#" + strings.Join(tw.columns, "\t") + "\n")
	return err
}

// WriteRow writes a single row. Empty values are written as "-".
func (tw *TabWriter) WriteRow(values ...string) error {
	if len(values) != len(tw.columns) {
		return fmt.Errorf("row has %d values, want %d", len(values), len(tw.columns))
	}
	for i, v := range values {
		if v == "" {
			values[i] = "-"
		}
	}
	_, err := tw.w.WriteString(strings.Join(values, "\t") + "\n")
	return err
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}

// WriteAssemblies writes one row per genome assembly.
func WriteAssemblies(w io.Writer, assemblies []genome.Assembly) error {
	tw := NewTabWriter(w, "ID", "Name", "Source", "Active")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, a := range assemblies {
		if err := tw.WriteRow(a.ID, a.Name, a.SourceName, yesNo(a.Active)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteChromosomes writes one row per chromosome.
func WriteChromosomes(w io.Writer, chroms []genome.Chromosome) error {
	tw := NewTabWriter(w, "Chromosome", "Size")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, c := range chroms {
		if err := tw.WriteRow(c.Name, strconv.FormatInt(c.Size, 10)); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteHits writes gene search results.
func WriteHits(w io.Writer, hits []genome.SearchHit) error {
	tw := NewTabWriter(w, "Symbol", "Name", "Chromosome", "Type", "GeneID")
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, h := range hits {
		if err := tw.WriteRow(h.Symbol, h.Name, h.Chrom, h.Description, h.GeneID); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// WriteVariants writes ClinVar variants with their effect predictions, if any.
func WriteVariants(w io.Writer, variants []variant.Clinvar) error {
	tw := NewTabWriter(w,
		"ClinVar_ID", "Location", "Variation_type", "Classification", "Gene",
		"Evo2_delta", "Evo2_prediction", "Evo2_confidence", "Title",
	)
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for _, v := range variants {
		location := ""
		if v.Location > 0 {
			location = fmt.Sprintf("%s:%d", v.Chrom, v.Location)
		}

		var delta, prediction, confidence string
		switch {
		case v.Evo2 != nil:
			delta = strconv.FormatFloat(v.Evo2.DeltaScore, 'f', 6, 64)
			prediction = v.Evo2.Prediction
			confidence = strconv.FormatFloat(v.Evo2.Confidence, 'f', 2, 64)
		case v.Evo2Error != "":
			prediction = "error: " + v.Evo2Error
		}

		if err := tw.WriteRow(
			v.ClinvarID, location, v.VariationType, v.Classification, v.Gene,
			delta, prediction, confidence, v.Title,
		); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func yesNo(b bool) string {
	if b {
		return "YES"
	}
	return "NO"
}
