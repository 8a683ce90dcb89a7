package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Sheet is a sparse 2-D grid of cells, addressed 1-indexed by (row, column).
// Absent cells read as Empty.
type Sheet struct {
	Name string
	rows [][]Cell
}

// NewSheet creates an empty sheet.
func NewSheet(name string) *Sheet {
	return &Sheet{Name: name}
}

// Set places a cell value at a 1-indexed position, growing the grid as needed.
func (s *Sheet) Set(row, col int, c Cell) {
	if row < 1 || col < 1 {
		return
	}
	for len(s.rows) < row {
		s.rows = append(s.rows, nil)
	}
	r := s.rows[row-1]
	for len(r) < col {
		r = append(r, Empty)
	}
	r[col-1] = c
	s.rows[row-1] = r
}

// Cell returns the value at a 1-indexed position, Empty when out of range.
func (s *Sheet) Cell(row, col int) Cell {
	if row < 1 || row > len(s.rows) {
		return Empty
	}
	r := s.rows[row-1]
	if col < 1 || col > len(r) {
		return Empty
	}
	return r[col-1]
}

// RowCount returns the number of occupied rows.
func (s *Sheet) RowCount() int {
	return len(s.rows)
}

// ColCount returns the widest occupied row.
func (s *Sheet) ColCount() int {
	max := 0
	for _, r := range s.rows {
		if len(r) > max {
			max = len(r)
		}
	}
	return max
}

// HeaderRow returns the string projection of one row, used for
// content-based classification.
func (s *Sheet) HeaderRow(row int) []string {
	if row < 1 || row > len(s.rows) {
		return nil
	}
	out := make([]string, 0, len(s.rows[row-1]))
	for _, c := range s.rows[row-1] {
		out = append(out, c.AsText())
	}
	return out
}

// HasData reports whether any cell outside the first row is non-empty.
func (s *Sheet) HasData() bool {
	for i := 1; i < len(s.rows); i++ {
		for _, c := range s.rows[i] {
			if !c.IsEmpty() {
				return true
			}
		}
	}
	return false
}

// Workbook is an ordered sequence of sheets loaded from one file.
type Workbook struct {
	FileName string
	Sheets   []*Sheet
}

// OpenFile loads a workbook from disk.
func OpenFile(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return fromExcelize(f, path)
}

// OpenReader loads a workbook from an in-memory buffer.
func OpenReader(r io.Reader, fileName string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()
	return fromExcelize(f, fileName)
}

// OpenBuffer loads a workbook from raw bytes.
func OpenBuffer(data []byte, fileName string) (*Workbook, error) {
	return OpenReader(bytes.NewReader(data), fileName)
}

func fromExcelize(f *excelize.File, fileName string) (*Workbook, error) {
	wb := &Workbook{FileName: fileName}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			// Broken sheets are skipped rather than failing the workbook.
			continue
		}
		sheet := NewSheet(name)
		for ri, row := range rows {
			for ci, raw := range row {
				if strings.TrimSpace(raw) == "" {
					continue
				}
				sheet.Set(ri+1, ci+1, cellFromString(raw))
			}
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

// cellFromString infers the value kind from a formatted cell string.
func cellFromString(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	plain := strings.ReplaceAll(trimmed, ",", "")
	if f, err := strconv.ParseFloat(plain, 64); err == nil {
		return NumberCell(f)
	}
	return TextCell(trimmed)
}
