package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIndianNumbers(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(India)
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{name: "bare mobile", raw: "9876543210", want: "919876543210", valid: true},
		{name: "trunk prefix", raw: "09876543210", want: "919876543210", valid: true},
		{name: "formatted with country code", raw: "+91 98765-43210", want: "919876543210", valid: true},
		{name: "spaces and parens", raw: "(987) 654 3210", want: "919876543210", valid: true},
		{name: "landline style ten digits", raw: "1234567890", want: "1234567890", valid: true},
		{name: "foreign number kept", raw: "+1 415 555 2671", want: "14155552671", valid: true},
		{name: "too short", raw: "12345", valid: false},
		{name: "letters", raw: "abc", valid: false},
		{name: "punctuation only", raw: "+-() ", valid: false},
		{name: "empty", raw: "", valid: false},
		{name: "nine digits", raw: "987654321", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := n.Normalize(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeIsDeterministic(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(India)
	first, ok1 := n.Normalize("98765 43210")
	second, ok2 := n.Normalize("98765 43210")
	assert.Equal(t, ok1, ok2)
	assert.Equal(t, first, second)
}

func TestNormalizerOtherRegion(t *testing.T) {
	t.Parallel()

	uk := NewNormalizer(RegionRule{
		Name:           "GB",
		CountryCode:    "44",
		NationalLength: 10,
		MobileLeading:  "7",
		TrunkPrefix:    "0",
		MinLength:      10,
	})

	got, ok := uk.Normalize("07700 900123")
	require.True(t, ok)
	assert.Equal(t, "447700900123", got)

	got, ok = uk.Normalize("7700900123")
	require.True(t, ok)
	assert.Equal(t, "447700900123", got)
}

func TestParseNumbersDedupesInOrder(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(India)
	got := n.ParseNumbers("9876543210, 09876543211\n9876543210")
	assert.Equal(t, []string{"919876543210", "919876543211"}, got)
}

func TestParseNumbersCollapsesEquivalentForms(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(India)
	got := n.ParseNumbers("08765432109;8765432109\r\n+91 87654 32109 ,  ; 7654321098")
	assert.Equal(t, []string{"918765432109", "917654321098"}, got)
}

func TestParseNumbersDropsGarbage(t *testing.T) {
	t.Parallel()

	n := NewNormalizer(India)
	assert.Empty(t, n.ParseNumbers("abc, 123"))
	assert.Empty(t, n.ParseNumbers(""))
	assert.Empty(t, n.ParseNumbers(",,;\n"))
}
