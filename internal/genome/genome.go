// Package genome provides the domain records shared by the gene browser:
// assemblies, chromosomes, gene search hits, gene coordinates and sequence windows.
package genome

// Assembly represents a named reference genome (e.g., hg38) offered by the
// genome-assembly service.
type Assembly struct {
	ID         string // Assembly identifier (e.g., "hg38")
	Name       string // Display name, falls back to ID
	SourceName string // Source description, falls back to ID
	Active     bool   // Whether the assembly is currently served
}

// Chromosome represents a placed chromosome of an assembly.
type Chromosome struct {
	Name string // Chromosome name (e.g., "chr1")
	Size int64  // Length in bases
}

// SearchHit is a single gene returned by a free-text gene search.
type SearchHit struct {
	Symbol      string // Gene symbol (e.g., BRCA1)
	Name        string // Gene name
	Chrom       string // Chromosome, always "chr"-prefixed
	Description string // Free-text description
	GeneID      string // Numeric gene identifier, empty if unknown
}

// GenomicInfo is one placement of a gene on a chromosome as reported upstream.
// ChrStart and ChrStop are swapped for genes on the minus strand.
type GenomicInfo struct {
	ChrStart int64
	ChrStop  int64
	Strand   string
}

// GeneDetail is the gene summary returned by the gene-annotation service.
// Only the first GenomicInfo entry is authoritative.
type GeneDetail struct {
	GeneID      string
	GenomicInfo []GenomicInfo
	Summary     string
	Organism    string
}

// HasCoordinates returns true if the detail carries at least one placement.
func (d *GeneDetail) HasCoordinates() bool {
	return d != nil && len(d.GenomicInfo) > 0
}

// SequenceResult is the outcome of a sequence window fetch. Upstream failures
// are reported in Error rather than as a Go error.
type SequenceResult struct {
	Sequence    string // Uppercase nucleotide string
	ActualRange Range  // 1-based inclusive range that was requested
	Error       string // Non-empty when the upstream reported a problem
}

// OK returns true if a sequence was returned without an upstream error.
func (r SequenceResult) OK() bool {
	return r.Error == "" && r.Sequence != ""
}
