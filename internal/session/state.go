// Package session orchestrates the gene browsing workflow: genome selection,
// gene search, gene coordinates, sequence windows and ClinVar variants.
// All mutable state lives in one State record owned by a Session.
package session

import (
	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

// Mode selects how genes are found.
type Mode string

const (
	ModeSearch Mode = "search"
	ModeBrowse Mode = "browse"
)

// DefaultGenome is the assembly selected at startup.
const DefaultGenome = "hg38"

// User-facing messages.
const (
	MsgGenomesFailed     = "Failed to load genome data"
	MsgChromosomesFailed = "Failed to load chromosome data"
	MsgSearchFailed      = "Failed to search genes"
	MsgGeneIDMissing     = "Gene ID is missing, cannot fetch gene details"
	MsgDetailsFailed     = "Failed to load gene details. Please try again."
	MsgVariantsFailed    = "Failed to fetch ClinVar variants"
	MsgNoQuery           = "Enter a gene or symbol and click search"
	MsgNoMatches         = "No results found"
	MsgNoChromosomeGenes = "No genes found on this chromosome"
)

// State is a snapshot of everything the UI renders.
type State struct {
	Mode        Mode
	GenomeID    string
	Assemblies  []genome.Assembly
	Chromosomes []genome.Chromosome
	Chrom       string // Selected chromosome in browse mode

	Query    string
	Results  []genome.SearchHit
	Searched bool // A search or browse has completed for the current query

	Gene      *genome.SearchHit
	Detail    *genome.GeneDetail
	Bounds    *genome.Bounds
	StartText string
	EndText   string
	Sequence  genome.SequenceResult

	Variants     []variant.Clinvar
	VariantState variant.State
	VariantError string

	Loading         bool
	SequenceLoading bool
	Error           string // Dismissible banner for fetch failures
	ValidationError string // Inline message for the range fields
}

// EmptyMessage returns the placeholder for an empty result list, or "" when
// there are results or a fetch failed.
func (s State) EmptyMessage() string {
	if len(s.Results) > 0 || s.Error != "" || s.Loading {
		return ""
	}
	switch {
	case s.Mode == ModeBrowse && s.Searched:
		return MsgNoChromosomeGenes
	case s.Searched:
		return MsgNoMatches
	case s.Mode == ModeSearch:
		return MsgNoQuery
	}
	return ""
}

// clearGene drops everything owned by the current gene selection.
func (s *State) clearGene() {
	s.Gene = nil
	s.Detail = nil
	s.Bounds = nil
	s.StartText = ""
	s.EndText = ""
	s.Sequence = genome.SequenceResult{}
	s.SequenceLoading = false
	s.ValidationError = ""
}

// clone returns a copy whose slices do not alias the receiver's.
func (s State) clone() State {
	c := s
	c.Assemblies = append([]genome.Assembly(nil), s.Assemblies...)
	c.Chromosomes = append([]genome.Chromosome(nil), s.Chromosomes...)
	c.Results = append([]genome.SearchHit(nil), s.Results...)
	if s.Gene != nil {
		g := *s.Gene
		c.Gene = &g
	}
	if s.Bounds != nil {
		b := *s.Bounds
		c.Bounds = &b
	}
	return c
}
