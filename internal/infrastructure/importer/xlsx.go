// Package importer reads uploaded spreadsheets into rows of named fields.
package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// ErrNoSheet is returned for a workbook without worksheets.
var ErrNoSheet = errors.New("workbook has no sheets")

// XLSXReader reads the first worksheet of an .xlsx workbook. The first row is
// the header; every later non-blank row becomes a map keyed by NormalizeHeader.
type XLSXReader struct{}

// NewXLSXReader creates a new spreadsheet reader
func NewXLSXReader() *XLSXReader {
	return &XLSXReader{}
}

func (XLSXReader) ReadRows(r io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoSheet
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	if len(grid) == 0 {
		return []map[string]string{}, nil
	}

	header := make([]string, len(grid[0]))
	for i, cell := range grid[0] {
		header[i] = NormalizeHeader(cell)
	}

	rows := make([]map[string]string, 0, len(grid)-1)
	for _, cells := range grid[1:] {
		row := make(map[string]string, len(header))
		blank := true
		for i, key := range header {
			if key == "" || i >= len(cells) {
				continue
			}
			v := strings.TrimSpace(cells[i])
			if v != "" {
				blank = false
			}
			row[key] = v
		}
		if !blank {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// NormalizeHeader lowercases a header cell and drops everything but letters
// and digits: "COD Amount" and "cod_amount" both become "codamount".
func NormalizeHeader(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}
