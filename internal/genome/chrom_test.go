package genome

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareChromosomes(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"chr1", "chr2", -1},
		{"chr2", "chr10", -1},
		{"chr10", "chr2", 1},
		{"chr22", "chrX", -1},
		{"chrX", "chr1", 1},
		{"chrX", "chrY", -1},
		{"chrM", "chrX", -1},
		{"chr7", "chr7", 0},
		{"7", "chr7", 0},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, CompareChromosomes(tt.a, tt.b))
		})
	}
}

func TestSortChromosomes(t *testing.T) {
	chroms := []Chromosome{
		{Name: "chr2"}, {Name: "chr10"}, {Name: "chr1"}, {Name: "chrX"},
	}
	SortChromosomes(chroms)

	var names []string
	for _, c := range chroms {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"chr1", "chr2", "chr10", "chrX"}, names)
}

func TestIsScaffold(t *testing.T) {
	assert.True(t, IsScaffold("chr1_random"))
	assert.True(t, IsScaffold("chrUn_gl000220"))
	assert.True(t, IsScaffold("chr17_KI270729v1_random"))
	assert.True(t, IsScaffold("chrUn"))
	assert.False(t, IsScaffold("chr1"))
	assert.False(t, IsScaffold("chrX"))
	assert.False(t, IsScaffold("chrM"))
}

func TestPlacedChromosomes(t *testing.T) {
	in := []Chromosome{
		{Name: "chrX", Size: 156040895},
		{Name: "chr1_random", Size: 1000},
		{Name: "chr2", Size: 242193529},
		{Name: "chrUn_gl000220", Size: 161802},
		{Name: "chr1", Size: 248956422},
		{Name: "chr2", Size: 1},
	}

	out := PlacedChromosomes(in)

	assert.Equal(t, []Chromosome{
		{Name: "chr1", Size: 248956422},
		{Name: "chr2", Size: 242193529},
		{Name: "chrX", Size: 156040895},
	}, out)
}

func TestChrPrefix(t *testing.T) {
	assert.Equal(t, "17", StripChrPrefix("chr17"))
	assert.Equal(t, "17", StripChrPrefix("17"))
	assert.Equal(t, "chr17", WithChrPrefix("17"))
	assert.Equal(t, "chr17", WithChrPrefix("chr17"))
}
