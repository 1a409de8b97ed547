package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Rows writes header-keyed rows as CSV. The column set is the union of keys
// across all rows, ordered alphabetically so output is deterministic.
func Rows(w io.Writer, rows []map[string]any) error {
	if len(rows) == 0 {
		return model.NewValidationError("no data to export")
	}

	seen := make(map[string]bool)
	var cols []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	sort.Strings(cols)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	record := make([]string, len(cols))
	for _, row := range rows {
		for i, c := range cols {
			record[i] = cellString(row[c])
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

// SearchResultsCSV is the CSV counterpart of SearchResults, with the same
// columns and one row per search term in submission order.
func SearchResultsCSV(w io.Writer, terms []string, results []model.ReferenceItem) error {
	if len(terms) != len(results) {
		return model.NewValidationError("terms and results length mismatch: %d vs %d", len(terms), len(results))
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(searchHeader); err != nil {
		return eris.Wrap(err, "export: write csv header")
	}
	for i, item := range results {
		record := []string{
			terms[i],
			item.ItemDescription,
			strconv.Itoa(item.Quantity),
			item.SerialNumber,
			item.TagNumber,
			item.Status,
			string(item.Source),
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrap(err, "export: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "export: flush csv")
}

func cellString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}
