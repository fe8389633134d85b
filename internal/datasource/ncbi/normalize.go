package ncbi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/inodb/vibe-gene/internal/genome"
	"github.com/inodb/vibe-gene/internal/variant"
)

// ErrContract is returned when a payload lacks an expected top-level field.
var ErrContract = errors.New("ncbi: unexpected response shape")

// MaxSearchHits is the number of rows the search service returns per query.
const MaxSearchHits = 10

// Search display columns, in the order requested with the df parameter.
const (
	colChromosome = iota
	colSymbol
	colDescription
	colMapLocation
	colTypeOfGene
)

// SearchParse is the outcome of a gene search parse.
type SearchParse struct {
	Total   int                // Matches reported by the server
	Hits    []genome.SearchHit // Normalized rows, at most MaxSearchHits
	Skipped int                // Rows dropped because they could not be decoded
}

// ParseGeneSearch parses the positional [count, ids, fields, rows] payload of
// the clinical tables gene search. Only the first min(10, count) rows are
// decoded; malformed rows are skipped rather than failing the batch.
func ParseGeneSearch(r io.Reader) (SearchParse, error) {
	var payload []json.RawMessage
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		return SearchParse{}, fmt.Errorf("decode gene search: %w", err)
	}
	if len(payload) < 4 {
		return SearchParse{}, fmt.Errorf("%w: gene search has %d elements", ErrContract, len(payload))
	}

	var total int
	if err := json.Unmarshal(payload[0], &total); err != nil {
		return SearchParse{}, fmt.Errorf("%w: gene search count: %v", ErrContract, err)
	}

	// The field map is only used for identifiers; its absence is tolerated.
	var fields map[string][]json.RawMessage
	_ = json.Unmarshal(payload[2], &fields)
	geneIDs := fields["GeneID"]

	var rows []json.RawMessage
	if err := json.Unmarshal(payload[3], &rows); err != nil {
		return SearchParse{}, fmt.Errorf("%w: gene search rows: %v", ErrContract, err)
	}

	limit := min(MaxSearchHits, total, len(rows))
	out := SearchParse{Total: total, Hits: make([]genome.SearchHit, 0, max(limit, 0))}
	for i := 0; i < limit; i++ {
		var id json.RawMessage
		if i < len(geneIDs) {
			id = geneIDs[i]
		}
		hit, ok := decodeSearchRow(rows[i], id)
		if !ok {
			out.Skipped++
			continue
		}
		out.Hits = append(out.Hits, hit)
	}
	return out, nil
}

// decodeSearchRow turns one display row into a hit, or reports ok=false when
// the row is unusable.
func decodeSearchRow(row, id json.RawMessage) (genome.SearchHit, bool) {
	var cols []*string
	if err := json.Unmarshal(row, &cols); err != nil {
		return genome.SearchHit{}, false
	}
	col := func(i int) string {
		if i < len(cols) && cols[i] != nil {
			return strings.TrimSpace(*cols[i])
		}
		return ""
	}

	chrom, symbol := col(colChromosome), col(colSymbol)
	if chrom == "" || symbol == "" {
		return genome.SearchHit{}, false
	}

	return genome.SearchHit{
		Symbol:      symbol,
		Name:        col(colDescription),
		Chrom:       genome.WithChrPrefix(chrom),
		Description: col(colTypeOfGene),
		GeneID:      scalarString(id),
	}, true
}

// scalarString renders a JSON string or number as text; anything else is empty.
func scalarString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

// flexInt decodes integers that the E-utilities emit either as numbers or strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

type rawGeneSummary struct {
	Summary  string `json:"summary"`
	Organism struct {
		ScientificName string `json:"scientificname"`
		CommonName     string `json:"commonname"`
	} `json:"organism"`
	GenomicInfo []struct {
		ChrStart flexInt `json:"chrstart"`
		ChrStop  flexInt `json:"chrstop"`
	} `json:"genomicinfo"`
}

func (rg *rawGeneSummary) toDetail(geneID string) *genome.GeneDetail {
	d := &genome.GeneDetail{
		GeneID:   geneID,
		Summary:  rg.Summary,
		Organism: rg.Organism.ScientificName,
	}
	for _, gi := range rg.GenomicInfo {
		strand := "+"
		if gi.ChrStart > gi.ChrStop {
			strand = "-"
		}
		d.GenomicInfo = append(d.GenomicInfo, genome.GenomicInfo{
			ChrStart: int64(gi.ChrStart),
			ChrStop:  int64(gi.ChrStop),
			Strand:   strand,
		})
	}
	return d
}

// ParseGeneSummary parses an esummary db=gene response for a single gene.
// A gene without genomic info is returned without coordinates, not as an error.
func ParseGeneSummary(r io.Reader, geneID string) (*genome.GeneDetail, error) {
	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode gene summary: %w", err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%w: missing result", ErrContract)
	}
	raw, ok := resp.Result[geneID]
	if !ok {
		return nil, fmt.Errorf("%w: gene %s not in result", ErrContract, geneID)
	}

	var rg rawGeneSummary
	if err := json.Unmarshal(raw, &rg); err != nil {
		return nil, fmt.Errorf("decode gene %s: %w", geneID, err)
	}
	return rg.toDetail(geneID), nil
}

// ParseClinvarSearch parses an esearch db=clinvar response into its id list.
func ParseClinvarSearch(r io.Reader) ([]string, error) {
	var resp struct {
		ESearchResult *struct {
			IDList []string `json:"idlist"`
		} `json:"esearchresult"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode clinvar search: %w", err)
	}
	if resp.ESearchResult == nil {
		return nil, fmt.Errorf("%w: missing esearchresult", ErrContract)
	}
	return resp.ESearchResult.IDList, nil
}

type rawClinvar struct {
	Title                  string `json:"title"`
	ObjType                string `json:"obj_type"`
	GeneSort               string `json:"gene_sort"`
	GermlineClassification struct {
		Description string `json:"description"`
	} `json:"germline_classification"`
	VariationSet []struct {
		VariationLoc []struct {
			AssemblyName string  `json:"assembly_name"`
			Chr          string  `json:"chr"`
			Start        flexInt `json:"start"`
		} `json:"variation_loc"`
	} `json:"variation_set"`
}

func (rc *rawClinvar) toVariant(id, assembly string) variant.Clinvar {
	v := variant.Clinvar{
		ClinvarID:      id,
		Title:          rc.Title,
		VariationType:  "Unknown",
		Classification: rc.GermlineClassification.Description,
		Gene:           rc.GeneSort,
	}
	if rc.ObjType != "" {
		v.VariationType = cases.Title(language.English).String(rc.ObjType)
	}
	if v.Classification == "" {
		v.Classification = "Unknown"
	}

	if len(rc.VariationSet) > 0 {
		locs := rc.VariationSet[0].VariationLoc
		for i, loc := range locs {
			if i == 0 || strings.EqualFold(loc.AssemblyName, assembly) {
				v.Chrom = loc.Chr
				v.Location = int64(loc.Start)
			}
			if strings.EqualFold(loc.AssemblyName, assembly) {
				break
			}
		}
	}
	return v
}

// ParseClinvarSummaries parses an esummary db=clinvar response. Records are
// returned in the order of the uids list; unknown uids are skipped. The
// genome id selects which assembly's location is reported.
func ParseClinvarSummaries(r io.Reader, genomeID string) ([]variant.Clinvar, error) {
	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode clinvar summary: %w", err)
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("%w: missing result", ErrContract)
	}

	var uids []string
	if raw, ok := resp.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("%w: uids: %v", ErrContract, err)
		}
	}

	assembly := AssemblyName(genomeID)
	variants := make([]variant.Clinvar, 0, len(uids))
	for _, id := range uids {
		raw, ok := resp.Result[id]
		if !ok {
			continue
		}
		var rc rawClinvar
		if err := json.Unmarshal(raw, &rc); err != nil {
			continue
		}
		variants = append(variants, rc.toVariant(id, assembly))
	}
	return variants, nil
}

// AssemblyName maps a UCSC genome id to the GRC assembly name used by ClinVar.
func AssemblyName(genomeID string) string {
	if genomeID == "hg19" {
		return "GRCh37"
	}
	return "GRCh38"
}

// PositionField returns the ClinVar search field for positions on the genome.
func PositionField(genomeID string) string {
	if genomeID == "hg19" {
		return "chrpos37"
	}
	return "chrpos38"
}

// ClinvarTerm builds the esearch term selecting variants inside bounds.
func ClinvarTerm(chrom string, bounds genome.Bounds, genomeID string) string {
	return fmt.Sprintf("%s[chromosome] AND %d:%d[%s]",
		genome.StripChrPrefix(chrom), bounds.Min, bounds.Max, PositionField(genomeID))
}
