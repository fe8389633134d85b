package ucsc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/inodb/vibe-gene/internal/genome"
)

// ErrContract is returned when a payload lacks an expected top-level field.
var ErrContract = errors.New("ucsc: unexpected response shape")

// HumanOrganism is the organism bucket consumed by the gene browser.
const HumanOrganism = "Human"

// rawGenome is a single entry of the list/ucscGenomes response.
type rawGenome struct {
	Organism    string          `json:"organism"`
	Description string          `json:"description"`
	SourceName  string          `json:"sourceName"`
	Active      json.RawMessage `json:"active"`
}

func (rg *rawGenome) toAssembly(id string) genome.Assembly {
	a := genome.Assembly{
		ID:         id,
		Name:       rg.Description,
		SourceName: rg.SourceName,
		Active:     truthy(rg.Active),
	}
	if a.Name == "" {
		a.Name = id
	}
	if a.SourceName == "" {
		a.SourceName = id
	}
	return a
}

// truthy coerces a JSON scalar to a boolean the way a loosely typed
// upstream intends it: true, non-zero numbers and non-empty strings.
func truthy(raw json.RawMessage) bool {
	if len(raw) == 0 {
		return false
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case nil:
		return false
	}
	return true
}

// ParseGenomes parses a list/ucscGenomes response into assemblies grouped by
// organism. Entries without an organism go to the "other" bucket. Each group
// is sorted by assembly id.
func ParseGenomes(r io.Reader) (map[string][]genome.Assembly, error) {
	var resp struct {
		UCSCGenomes map[string]rawGenome `json:"ucscGenomes"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode genomes: %w", err)
	}
	if resp.UCSCGenomes == nil {
		return nil, fmt.Errorf("%w: missing ucscGenomes", ErrContract)
	}

	grouped := make(map[string][]genome.Assembly)
	for id, rg := range resp.UCSCGenomes {
		organism := rg.Organism
		if organism == "" {
			organism = "other"
		}
		grouped[organism] = append(grouped[organism], rg.toAssembly(id))
	}

	for _, group := range grouped {
		sort.Slice(group, func(i, j int) bool {
			return group[i].ID < group[j].ID
		})
	}
	return grouped, nil
}

// ParseChromosomes parses a list/chromosomes response. Scaffolds are dropped
// and the remaining chromosomes are returned in karyotype order.
func ParseChromosomes(r io.Reader) ([]genome.Chromosome, error) {
	var resp struct {
		Chromosomes map[string]int64 `json:"chromosomes"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		return nil, fmt.Errorf("decode chromosomes: %w", err)
	}
	if resp.Chromosomes == nil {
		return nil, fmt.Errorf("%w: missing chromosomes", ErrContract)
	}

	chroms := make([]genome.Chromosome, 0, len(resp.Chromosomes))
	for name, size := range resp.Chromosomes {
		chroms = append(chroms, genome.Chromosome{Name: name, Size: size})
	}
	return genome.PlacedChromosomes(chroms), nil
}

// ParseSequence parses a getData/sequence response. An upstream error or a
// missing dna field is reported in the result, never as a Go error.
func ParseSequence(r io.Reader, requested genome.Range) genome.SequenceResult {
	result := genome.SequenceResult{ActualRange: requested}

	var resp struct {
		DNA   *string `json:"dna"`
		Error string  `json:"error"`
	}
	if err := json.NewDecoder(r).Decode(&resp); err != nil {
		result.Error = fmt.Sprintf("decode sequence: %v", err)
		return result
	}
	if resp.Error != "" {
		result.Error = resp.Error
		return result
	}
	if resp.DNA == nil {
		result.Error = "no sequence returned"
		return result
	}

	result.Sequence = strings.ToUpper(*resp.DNA)
	return result
}
