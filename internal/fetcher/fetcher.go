// Package fetcher parses uploaded spreadsheet files (XLSX, CSV) into
// header-keyed rows for dataset import and master data upload.
package fetcher

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// Options configures spreadsheet parsing. The zero value reads the first
// sheet with the first row as the header.
type Options struct {
	SheetIndex int    // XLSX only, default 0
	SheetName  string // XLSX only, overrides SheetIndex when set
	Delimiter  rune   // CSV only, default ','
	TrimSpace  bool
}

// Rows parses file content by extension and returns header-keyed rows.
// Cells under an empty header cell get positional "Unnamed: N" keys, which
// the alias tables downstream know how to read.
func Rows(filename string, data []byte, opts Options) ([]map[string]any, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xls":
		return ReadXLSX(data, opts)
	case ".csv":
		return ReadCSV(strings.NewReader(string(data)), opts)
	default:
		return nil, eris.Errorf("fetcher: unsupported file type %q", filepath.Ext(filename))
	}
}

// keyRows zips a header with data rows. Blank or missing header cells get
// positional "Unnamed: N" keys; rows wider than the header extend it.
func keyRows(header []string, rows [][]string) []map[string]any {
	keys := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		keys[i] = h
	}

	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		for len(keys) < len(row) {
			keys = append(keys, fmt.Sprintf("Unnamed: %d", len(keys)))
		}
		m := make(map[string]any, len(row))
		for i, cell := range row {
			m[keys[i]] = cell
		}
		out = append(out, m)
	}
	return out
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
