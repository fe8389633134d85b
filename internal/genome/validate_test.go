package genome

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validationKind(t *testing.T, err error) ValidationKind {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr.Kind
}

func TestValidateRange(t *testing.T) {
	bounds := &Bounds{Min: 1000, Max: 50000}

	tests := []struct {
		name       string
		start, end string
		bounds     *Bounds
		want       ValidationKind
	}{
		{"non numeric start", "abc", "200", bounds, InvalidPositions},
		{"non numeric end", "100", "", bounds, InvalidPositions},
		{"start after end", "2000", "1500", bounds, StartNotBeforeEnd},
		{"start equals end", "2000", "2000", bounds, StartNotBeforeEnd},
		{"start below minimum", "500", "1500", bounds, StartBelowMinimum},
		{"end exceeds maximum", "49000", "50001", bounds, EndExceedsMaximum},
		{"span too large", "1000", "12000", bounds, SpanTooLarge},
		{"span too large without bounds", "1", "10002", nil, SpanTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ValidateRange(tt.start, tt.end, tt.bounds)
			require.Error(t, err)
			assert.Equal(t, tt.want, validationKind(t, err))
		})
	}
}

func TestValidateRange_FirstFailureWins(t *testing.T) {
	// Unparseable start beats every later check.
	_, err := ValidateRange("abc", "200", &Bounds{Min: 1000, Max: 50000})
	assert.Equal(t, InvalidPositions, validationKind(t, err))

	// Below minimum and too large: the bounds check is reported.
	_, err = ValidateRange("1", "20000", &Bounds{Min: 1000, Max: 50000})
	assert.Equal(t, StartBelowMinimum, validationKind(t, err))
}

func TestValidateRange_Messages(t *testing.T) {
	bounds := &Bounds{Min: 1000, Max: 50000}

	_, err := ValidateRange("500", "1500", bounds)
	assert.EqualError(t, err, "Start position (500) is below the minimum value (1,000)")

	_, err = ValidateRange("45000", "51000", bounds)
	assert.EqualError(t, err, "End position (51,000) exceeds the maximum value (50,000)")

	_, err = ValidateRange("1000", "12000", bounds)
	assert.EqualError(t, err, "Selected range exceeds maximum view range of 10,000 bp")
}

func TestValidateRange_Accepts(t *testing.T) {
	r, err := ValidateRange(" 1000 ", "11000", &Bounds{Min: 1000, Max: 50000})
	require.NoError(t, err)
	assert.Equal(t, Range{Start: 1000, End: 11000}, r)
}

func TestValidationKindString(t *testing.T) {
	assert.Equal(t, "span_too_large", SpanTooLarge.String())
	assert.Equal(t, "unknown", ValidationKind(0).String())
}
