package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// CellKind is the closed set of raw cell value kinds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellText
	CellNumber
	CellDateTime
)

// Cell holds one raw spreadsheet value. Matching always runs against the
// normalized string projection, conversion goes through the As* helpers.
type Cell struct {
	Kind   CellKind
	Text   string
	Number float64
	Time   time.Time
}

// Empty is the zero-valued cell.
var Empty = Cell{}

// TextCell creates a text cell.
func TextCell(s string) Cell {
	return Cell{Kind: CellText, Text: s}
}

// NumberCell creates a numeric cell.
func NumberCell(f float64) Cell {
	return Cell{Kind: CellNumber, Number: f}
}

// DateCell creates a date cell.
func DateCell(t time.Time) Cell {
	return Cell{Kind: CellDateTime, Time: t}
}

// IsEmpty reports whether the cell carries no value.
func (c Cell) IsEmpty() bool {
	if c.Kind == CellEmpty {
		return true
	}
	if c.Kind == CellText {
		return strings.TrimSpace(c.Text) == ""
	}
	return false
}

// AsText returns the raw string projection of the cell.
func (c Cell) AsText() string {
	switch c.Kind {
	case CellText:
		return strings.TrimSpace(c.Text)
	case CellNumber:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellDateTime:
		return c.Time.Format("2006-01-02")
	default:
		return ""
	}
}

// AsNumber extracts a numeric magnitude from the cell. Currency symbols,
// thousands separators and percent signs are stripped; malformed input is 0.
func (c Cell) AsNumber() float64 {
	switch c.Kind {
	case CellNumber:
		return c.Number
	case CellText:
		return ParseNumber(c.Text)
	default:
		return 0
	}
}

// AsDate converts the cell to a timestamp. Numeric values are treated as
// spreadsheet date serials (days since 1899-12-30). The second return value
// is false when the value could not be read as a date and "now" was used.
func (c Cell) AsDate() (time.Time, bool) {
	switch c.Kind {
	case CellDateTime:
		return c.Time, true
	case CellNumber:
		return serialToTime(c.Number), true
	case CellText:
		return parseDateString(c.Text)
	default:
		return time.Now(), false
	}
}

// Normalized returns the lower-cased, whitespace-collapsed projection used
// for all pattern matching.
func (c Cell) Normalized() string {
	return NormalizeText(c.AsText())
}

var spaceRe = regexp.MustCompile(`\s+`)

// NormalizeText lower-cases a string and collapses runs of whitespace.
func NormalizeText(s string) string {
	return spaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}

var numericStrip = regexp.MustCompile(`[^0-9.\-]`)

// ParseNumber strips everything except digits, dots and minus signs and
// parses the remainder as a float. Malformed input yields 0, never an error.
func ParseNumber(s string) float64 {
	cleaned := numericStrip.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParsePercentage normalizes a progress figure: values at or below 1 are
// treated as fractions and scaled to percentage units.
func ParsePercentage(v float64) float64 {
	if v > 1 {
		return v
	}
	return v * 100
}

// serialToTime converts an Excel date serial to a timestamp.
// Serial day 25569 is the Unix epoch (1970-01-01).
func serialToTime(serial float64) time.Time {
	secs := (serial - 25569) * 86400
	return time.Unix(int64(secs), 0).UTC()
}

var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan-06",
	"Jan 2006",
	"January 2006",
}

func parseDateString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Now(), false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	// Bare numbers in text cells are still date serials.
	if f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64); err == nil && f > 0 {
		return serialToTime(f), true
	}
	return time.Now(), false
}
