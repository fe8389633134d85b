package genome

import "fmt"

// MaxViewSpan is the largest span (end - start) of a sequence window.
const MaxViewSpan = 10000

// Bounds is the coordinate footprint of a gene, normalized so Min <= Max.
type Bounds struct {
	Min int64
	Max int64
}

// Span returns Max - Min.
func (b Bounds) Span() int64 {
	return b.Max - b.Min
}

// Contains returns true if r lies within the bounds.
func (b Bounds) Contains(r Range) bool {
	return r.Start >= b.Min && r.End <= b.Max
}

// Range is a 1-based, inclusive sequence window as shown to the user.
type Range struct {
	Start int64
	End   int64
}

// Span returns End - Start.
func (r Range) Span() int64 {
	return r.End - r.Start
}

// Upstream converts the range to the 0-based, half-open coordinates used by
// the sequence service.
func (r Range) Upstream() (start, end int64) {
	return r.Start - 1, r.End
}

// String formats the range as "start-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// BoundsFromDetail derives strand-agnostic bounds from the first genomic
// placement of a gene. Returns nil if the gene has no coordinates.
func BoundsFromDetail(d *GeneDetail) *Bounds {
	if !d.HasCoordinates() {
		return nil
	}
	info := d.GenomicInfo[0]
	return &Bounds{
		Min: min(info.ChrStart, info.ChrStop),
		Max: max(info.ChrStart, info.ChrStop),
	}
}

// InitialRange returns the default viewing window for a gene: the whole gene
// when its span fits in MaxViewSpan, otherwise the first MaxViewSpan bases.
// Returns nil for nil bounds.
func InitialRange(b *Bounds) *Range {
	if b == nil {
		return nil
	}
	end := b.Max
	if b.Span() > MaxViewSpan {
		end = b.Min + MaxViewSpan
	}
	return &Range{Start: b.Min, End: end}
}

// Plan computes bounds and the initial range for a gene detail.
// Both are nil when the gene has no usable coordinates.
func Plan(d *GeneDetail) (*Bounds, *Range) {
	b := BoundsFromDetail(d)
	return b, InitialRange(b)
}
