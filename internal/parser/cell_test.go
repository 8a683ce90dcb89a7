package parser

import (
	"testing"
	"time"
)

func TestParseNumber_DecoratedValues(t *testing.T) {
	t.Parallel()

	cases := map[string]float64{
		"1,234,567.89": 1234567.89,
		"₹ 5,00,000":   500000,
		"$1,000":       1000,
		"65%":          65,
		"-120.5":       -120.5,
		"42":           42,
	}
	for in, want := range cases {
		if got := ParseNumber(in); got != want {
			t.Fatalf("ParseNumber(%q) want=%v got=%v", in, want, got)
		}
	}
}

func TestParseNumber_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "N/A", "abc", "--", "..."} {
		if got := ParseNumber(in); got != 0 {
			t.Fatalf("ParseNumber(%q) want=0 got=%v", in, got)
		}
	}
}

func TestParsePercentage_FractionAndWhole(t *testing.T) {
	t.Parallel()

	if got := ParsePercentage(0.65); got != 65 {
		t.Fatalf("fraction want=65 got=%v", got)
	}
	if got := ParsePercentage(65); got != 65 {
		t.Fatalf("whole want=65 got=%v", got)
	}
	if got := ParsePercentage(1); got != 100 {
		t.Fatalf("boundary want=100 got=%v", got)
	}
}

func TestNormalizeText_CollapsesWhitespace(t *testing.T) {
	t.Parallel()

	if got := NormalizeText("  Project \t Name \n "); got != "project name" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}

func TestAsDate_Serial(t *testing.T) {
	t.Parallel()

	// Serial 25569 is the Unix epoch.
	got, ok := NumberCell(25569).AsDate()
	if !ok {
		t.Fatalf("expected serial conversion")
	}
	want := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("serial epoch want=%v got=%v", want, got)
	}
}

func TestAsDate_TextLayouts(t *testing.T) {
	t.Parallel()

	got, ok := TextCell("2024-03-15").AsDate()
	if !ok {
		t.Fatalf("expected iso layout to parse")
	}
	if got.Year() != 2024 || got.Month() != time.March || got.Day() != 15 {
		t.Fatalf("unexpected date: %v", got)
	}

	if _, ok := TextCell("not a date").AsDate(); ok {
		t.Fatalf("garbage should not parse as a date")
	}
}

func TestCell_IsEmpty(t *testing.T) {
	t.Parallel()

	if !Empty.IsEmpty() {
		t.Fatalf("zero cell should be empty")
	}
	if !TextCell("   ").IsEmpty() {
		t.Fatalf("whitespace text should be empty")
	}
	if NumberCell(0).IsEmpty() {
		t.Fatalf("numeric zero still carries a value")
	}
}
