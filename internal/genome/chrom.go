package genome

import (
	"sort"
	"strconv"
	"strings"
)

// IsScaffold returns true if the chromosome name denotes an unplaced,
// unlocalized or random scaffold. The match is a plain substring test,
// so any name containing "Un" is excluded.
func IsScaffold(name string) bool {
	return strings.Contains(name, "_") ||
		strings.Contains(name, "Un") ||
		strings.Contains(name, "random")
}

// StripChrPrefix returns the chromosome name without "chr" prefix.
func StripChrPrefix(name string) string {
	if len(name) > 3 && name[:3] == "chr" {
		return name[3:]
	}
	return name
}

// WithChrPrefix returns the chromosome name with a "chr" prefix added if missing.
func WithChrPrefix(name string) string {
	if strings.HasPrefix(name, "chr") {
		return name
	}
	return "chr" + name
}

// CompareChromosomes orders chromosome names in karyotype order:
// numeric names compare numerically and sort before non-numeric ones,
// which compare lexicographically (chr1 < chr2 < chr10 < chrM < chrX).
// It returns -1, 0 or +1.
func CompareChromosomes(a, b string) int {
	ta, tb := StripChrPrefix(a), StripChrPrefix(b)
	na, aNum := chromNumber(ta)
	nb, bNum := chromNumber(tb)

	switch {
	case aNum && bNum:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return 0
	case aNum:
		return -1
	case bNum:
		return 1
	}
	return strings.Compare(ta, tb)
}

// chromNumber parses a purely numeric chromosome token.
func chromNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SortChromosomes sorts chromosomes in place using CompareChromosomes.
func SortChromosomes(chroms []Chromosome) {
	sort.SliceStable(chroms, func(i, j int) bool {
		return CompareChromosomes(chroms[i].Name, chroms[j].Name) < 0
	})
}

// PlacedChromosomes drops scaffolds, removes duplicate names (first wins)
// and returns the remaining chromosomes in karyotype order.
func PlacedChromosomes(chroms []Chromosome) []Chromosome {
	seen := make(map[string]bool, len(chroms))
	out := make([]Chromosome, 0, len(chroms))
	for _, c := range chroms {
		if IsScaffold(c.Name) || seen[c.Name] {
			continue
		}
		seen[c.Name] = true
		out = append(out, c)
	}
	SortChromosomes(out)
	return out
}
