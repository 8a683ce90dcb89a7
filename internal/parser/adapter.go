package parser

import (
	"regexp"
	"strings"
)

// AdapterOptions bound the tolerant searches. Spreadsheet authors move labels
// and tables around between months, so every lookup scans a window instead of
// a fixed address.
type AdapterOptions struct {
	MaxSearchRows       int     // label search window height
	MaxSearchCols       int     // label search window width
	MaxColOffset        int     // how far right of a label a value may sit
	MaxRowOffset        int     // how far below a label a value may sit
	SimilarityThreshold float64 // edit-distance similarity floor for fuzzy matches
}

// DefaultAdapterOptions returns the tolerances observed to cover the corpus.
func DefaultAdapterOptions() AdapterOptions {
	return AdapterOptions{
		MaxSearchRows:       50,
		MaxSearchCols:       20,
		MaxColOffset:        3,
		MaxRowOffset:        5,
		SimilarityThreshold: 0.85,
	}
}

// CellRef addresses one cell, 1-indexed.
type CellRef struct {
	Row int
	Col int
}

// Direction steers FindRelativeValue. Auto tries right first, then below.
type Direction int

const (
	DirAuto Direction = iota
	DirRight
	DirBelow
)

// FormatAdapter performs tolerant lookups against one sheet.
type FormatAdapter struct {
	sheet *Sheet
	opts  AdapterOptions
}

// NewFormatAdapter creates an adapter with the given tolerances.
func NewFormatAdapter(sheet *Sheet, opts AdapterOptions) *FormatAdapter {
	if opts.MaxSearchRows <= 0 {
		opts = DefaultAdapterOptions()
	}
	return &FormatAdapter{sheet: sheet, opts: opts}
}

// FindCell scans the search window in row-major order and returns the first
// cell whose normalized projection matches the pattern.
func (a *FormatAdapter) FindCell(pattern *regexp.Regexp) (CellRef, bool) {
	return a.find(func(text string) bool { return pattern.MatchString(text) })
}

// FindLabel is FindCell for a literal case-insensitive substring.
func (a *FormatAdapter) FindLabel(label string) (CellRef, bool) {
	needle := NormalizeText(label)
	return a.find(func(text string) bool { return strings.Contains(text, needle) })
}

func (a *FormatAdapter) find(match func(string) bool) (CellRef, bool) {
	endRow := a.opts.MaxSearchRows
	if rc := a.sheet.RowCount(); rc < endRow {
		endRow = rc
	}
	endCol := a.opts.MaxSearchCols
	if cc := a.sheet.ColCount(); cc < endCol {
		endCol = cc
	}
	for row := 1; row <= endRow; row++ {
		for col := 1; col <= endCol; col++ {
			c := a.sheet.Cell(row, col)
			if c.IsEmpty() {
				continue
			}
			if match(c.Normalized()) {
				return CellRef{Row: row, Col: col}, true
			}
		}
	}
	return CellRef{}, false
}

// FindRelativeValue returns the nearest non-empty cell right of or below a
// label cell, within the configured offsets.
func (a *FormatAdapter) FindRelativeValue(label CellRef, dir Direction) (Cell, bool) {
	if dir == DirRight || dir == DirAuto {
		for off := 1; off <= a.opts.MaxColOffset; off++ {
			c := a.sheet.Cell(label.Row, label.Col+off)
			if !c.IsEmpty() {
				return c, true
			}
		}
	}
	if dir == DirBelow || dir == DirAuto {
		for off := 1; off <= a.opts.MaxRowOffset; off++ {
			c := a.sheet.Cell(label.Row+off, label.Col)
			if !c.IsEmpty() {
				return c, true
			}
		}
	}
	return Empty, false
}

// TableColumn names one requested column and the pattern locating its header.
type TableColumn struct {
	Name    string
	Pattern *regexp.Regexp
}

// Column builds a TableColumn from a case-insensitive header pattern.
func Column(name, pattern string) TableColumn {
	return TableColumn{Name: name, Pattern: regexp.MustCompile("(?i)" + pattern)}
}

// Record is one extracted table row keyed by requested column name.
type Record map[string]Cell

// ExtractTable matches the requested column patterns against the header row,
// then reads subsequent rows into records. An empty first cell terminates the
// table, even if later rows carry data.
func (a *FormatAdapter) ExtractTable(headerRow int, columns []TableColumn) []Record {
	colIndex := make(map[string]int)
	maxCol := a.sheet.ColCount()
	for col := 1; col <= maxCol; col++ {
		text := a.sheet.Cell(headerRow, col).Normalized()
		if text == "" {
			continue
		}
		for _, want := range columns {
			if _, seen := colIndex[want.Name]; seen {
				continue
			}
			if want.Pattern.MatchString(text) {
				colIndex[want.Name] = col
			}
		}
	}
	if len(colIndex) == 0 {
		return nil
	}

	var records []Record
	for row := headerRow + 1; row <= a.sheet.RowCount(); row++ {
		if a.sheet.Cell(row, 1).IsEmpty() {
			break
		}
		rec := make(Record, len(colIndex))
		for name, col := range colIndex {
			rec[name] = a.sheet.Cell(row, col)
		}
		records = append(records, rec)
	}
	return records
}

// Similarity computes edit-distance similarity of two normalized strings,
// 1 meaning identical.
func Similarity(a, b string) float64 {
	s1 := NormalizeText(a)
	s2 := NormalizeText(b)
	if s1 == s2 {
		return 1
	}
	longer, shorter := s1, s2
	if len(s2) > len(s1) {
		longer, shorter = s2, s1
	}
	if len(longer) == 0 {
		return 0
	}
	dist := levenshtein(longer, shorter)
	return float64(len(longer)-dist) / float64(len(longer))
}

// MatchSimilar reports whether two labels are the same up to containment or
// the configured similarity threshold. Used where exact or regex matching is
// expected to be brittle across format variations.
func (a *FormatAdapter) MatchSimilar(text, target string) bool {
	t := NormalizeText(text)
	p := NormalizeText(target)
	if t == "" || p == "" {
		return false
	}
	if strings.Contains(t, p) || strings.Contains(p, t) {
		return true
	}
	return Similarity(t, p) >= a.opts.SimilarityThreshold
}

func levenshtein(s1, s2 string) int {
	r1 := []rune(s1)
	r2 := []rune(s2)
	prev := make([]int, len(r1)+1)
	cur := make([]int, len(r1)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(r2); i++ {
		cur[0] = i
		for j := 1; j <= len(r1); j++ {
			cost := 1
			if r2[i-1] == r1[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j-1]+cost, cur[j-1]+1, prev[j]+1)
		}
		prev, cur = cur, prev
	}
	return prev[len(r1)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
