package phone

import (
	"strings"
	"testing"
)

// TestExtractNormalizesFormats tests that every supported format reduces to
// the same 10 digits.
func TestExtractNormalizesFormats(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "parenthesized area code", input: "(305) 555-1234"},
		{name: "dot separated", input: "305.555.1234"},
		{name: "country code with plus", input: "+1 305-555-1234"},
		{name: "bare digits", input: "3055551234"},
		{name: "country code without plus", input: "1-305-555-1234"},
		{name: "international prefix", input: "+01 305 555 1234"},
		{name: "space separated", input: "305 555 1234"},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.Extract("Call us: " + tt.input + " today")
			if got.Len() != 1 || !got.Contains("3055551234") {
				t.Errorf("Extract(%q) = %v, want {3055551234}", tt.input, got.Sorted())
			}
		})
	}
}

// TestExtractDeduplicates tests that one number in two formats yields one entry.
func TestExtractDeduplicates(t *testing.T) {
	t.Parallel()

	got := NewExtractor().Extract("Main (305) 555-1234 or 305-555-1234")
	if got.Len() != 1 {
		t.Errorf("expected 1 number, got %v", got.Sorted())
	}
}

// TestExtractBoundaries tests that numbers embedded in longer digit runs or
// decimals are not matched.
func TestExtractBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "order number", input: "Order #13055551234567", want: nil},
		{name: "digit before", input: "id 93055551234", want: nil},
		{name: "digit after", input: "30555512345", want: nil},
		{name: "decimal before", input: "total .3055551234", want: nil},
		{name: "followed by period", input: "Call 305-555-1234.", want: nil},
		{name: "zip plus four adjacent", input: "33172-30555512", want: nil},
		{name: "parenthesis after digit", input: "5(305)555-1234", want: []string{"3055551234"}},
		{name: "two adjacent numbers", input: "305-555-1234(786)555-0000", want: []string{"3055551234", "7865550000"}},
		{name: "start and end of text", input: "3055551234", want: []string{"3055551234"}},
		{name: "comma after", input: "3055551234, 7865550000", want: []string{"3055551234", "7865550000"}},
	}

	e := NewExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := e.Extract(tt.input).Sorted()
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Extract(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

// TestExtractEmpty tests that text without numbers yields an empty set.
func TestExtractEmpty(t *testing.T) {
	t.Parallel()

	got := NewExtractor().Extract("Welcome to our bakery. Open 7 days a week.")
	if got == nil {
		t.Fatal("expected non-nil set")
	}
	if got.Len() != 0 {
		t.Errorf("expected no numbers, got %v", got.Sorted())
	}
}

// TestExtractIdempotent tests that scanning the same text twice gives equal sets.
func TestExtractIdempotent(t *testing.T) {
	t.Parallel()

	text := "Sales 305.555.1234, support +1 (786) 555-0000, fax 305-555-1234"
	e := NewExtractor()

	first := e.Extract(text)
	second := e.Extract(text)
	if !first.Equal(second) {
		t.Errorf("results differ: %v vs %v", first.Sorted(), second.Sorted())
	}
	if first.Len() != 2 {
		t.Errorf("expected 2 numbers, got %v", first.Sorted())
	}
}

// TestExtractWithValidator tests that rejected numbers are dropped.
func TestExtractWithValidator(t *testing.T) {
	t.Parallel()

	onlyMiami := ValidatorFunc(func(n string) bool {
		return strings.HasPrefix(n, "305")
	})

	got := NewExtractor(WithValidator(onlyMiami)).Extract("305-555-1234 and 212-555-9876")
	if got.Len() != 1 || !got.Contains("3055551234") {
		t.Errorf("unexpected result: %v", got.Sorted())
	}
}

// TestNANPValidator tests validation against numbering plan metadata.
func TestNANPValidator(t *testing.T) {
	t.Parallel()

	v := NewNANPValidator("")

	if !v.Valid("2024561111") {
		t.Error("expected 202-456-1111 to be valid")
	}
	if v.Valid("1234567890") {
		t.Error("expected area code 123 to be invalid")
	}
}

// TestNormalize tests single-number normalization.
func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{input: "+1 (305) 555-1234", want: "3055551234", ok: true},
		{input: "305.555.1234", want: "3055551234", ok: true},
		{input: "call 305.555.1234", ok: false},
		{input: "305-555-123", ok: false},
		{input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()

			got, ok := Normalize(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}
