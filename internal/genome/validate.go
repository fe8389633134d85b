package genome

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

// ValidationKind identifies which range check failed.
type ValidationKind int

const (
	InvalidPositions ValidationKind = iota + 1
	StartNotBeforeEnd
	StartBelowMinimum
	EndExceedsMaximum
	SpanTooLarge
)

var validationKindNames = map[ValidationKind]string{
	InvalidPositions:  "invalid_positions",
	StartNotBeforeEnd: "start_not_before_end",
	StartBelowMinimum: "start_below_minimum",
	EndExceedsMaximum: "end_exceeds_maximum",
	SpanTooLarge:      "span_too_large",
}

func (k ValidationKind) String() string {
	if s, ok := validationKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ValidationError reports a rejected sequence range.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ValidateRange parses and checks a user-entered range against the gene
// bounds (which may be nil when unknown). Checks run in a fixed order and the
// first failure is returned as a *ValidationError.
func ValidateRange(startText, endText string, bounds *Bounds) (Range, error) {
	start, errStart := strconv.ParseInt(strings.TrimSpace(startText), 10, 64)
	end, errEnd := strconv.ParseInt(strings.TrimSpace(endText), 10, 64)
	if errStart != nil || errEnd != nil {
		return Range{}, &ValidationError{
			Kind:    InvalidPositions,
			Message: "Please enter valid start and end positions",
		}
	}

	return CheckRange(Range{Start: start, End: end}, bounds)
}

// CheckRange applies the ordering, bounds and span checks to a parsed range.
func CheckRange(r Range, bounds *Bounds) (Range, error) {
	if r.Start >= r.End {
		return Range{}, &ValidationError{
			Kind:    StartNotBeforeEnd,
			Message: "Start position must be less than end position",
		}
	}

	if bounds != nil {
		if r.Start < bounds.Min {
			return Range{}, &ValidationError{
				Kind: StartBelowMinimum,
				Message: fmt.Sprintf("Start position (%s) is below the minimum value (%s)",
					humanize.Comma(r.Start), humanize.Comma(bounds.Min)),
			}
		}
		if r.End > bounds.Max {
			return Range{}, &ValidationError{
				Kind: EndExceedsMaximum,
				Message: fmt.Sprintf("End position (%s) exceeds the maximum value (%s)",
					humanize.Comma(r.End), humanize.Comma(bounds.Max)),
			}
		}
	}

	if r.Span() > MaxViewSpan {
		return Range{}, &ValidationError{
			Kind: SpanTooLarge,
			Message: fmt.Sprintf("Selected range exceeds maximum view range of %s bp",
				humanize.Comma(MaxViewSpan)),
		}
	}

	return r, nil
}
