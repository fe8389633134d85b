// Package variant holds the ClinVar variant list of the active gene and its
// enrichment with variant effect predictions.
package variant

import (
	"regexp"
	"strings"
)

// Clinvar is a clinically annotated variant keyed by its ClinVar identifier.
type Clinvar struct {
	ClinvarID      string      // ClinVar variation identifier (e.g., "VCV000123" or "123")
	Title          string      // Full ClinVar title, usually HGVS
	VariationType  string      // e.g., "Single Nucleotide Variant"
	Classification string      // Germline classification, "Unknown" when absent
	Gene           string      // Gene symbol used for sorting
	Chrom          string      // Chromosome without "chr" prefix
	Location       int64       // 1-based position, 0 when unknown
	Evo2           *Evo2Result // Attached effect prediction, nil until analyzed
	Evo2Error      string      // Last analysis failure, empty when none
}

// Evo2Result is the variant effect prediction for a single nucleotide variant.
type Evo2Result struct {
	Position    int64
	Reference   string
	Alternative string
	DeltaScore  float64
	Prediction  string
	Confidence  float64
}

// IsSNV returns true if the variant is a single nucleotide variant.
func (c *Clinvar) IsSNV() bool {
	return strings.Contains(strings.ToLower(c.VariationType), "single nucleotide")
}

var snvAllelePattern = regexp.MustCompile(`([ACGT])>([ACGT])`)

// Alleles extracts reference and alternate bases from an HGVS-style title
// such as "NM_007294.4(BRCA1):c.5096G>A (p.Arg1699Gln)".
func (c *Clinvar) Alleles() (ref, alt string, ok bool) {
	m := snvAllelePattern.FindStringSubmatch(c.Title)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}
