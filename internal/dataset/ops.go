// Package dataset implements generic table operations over header-keyed
// spreadsheet rows: filter, sort, compare, and merge.
package dataset

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Row is one header-keyed spreadsheet row.
type Row = map[string]any

// Filter returns the rows whose value under field contains the query,
// case-insensitively. An unknown field is a ValidationError.
func Filter(rows []Row, field, query string) ([]Row, error) {
	if !hasField(rows, field) {
		return nil, model.NewValidationError("unknown filter field %q", field)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		v, ok := row[field]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(stringify(v)), q) {
			out = append(out, row)
		}
	}
	return out, nil
}

// Sort orders rows by the given field. Values that parse as numbers compare
// numerically, everything else lexically with numbers first. The input is not
// modified. An unknown field is a ValidationError.
func Sort(rows []Row, field string, descending bool) ([]Row, error) {
	if !hasField(rows, field) {
		return nil, model.NewValidationError("unknown sort field %q", field)
	}

	out := append([]Row(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		less := compareValues(out[i][field], out[j][field]) < 0
		if descending {
			return !less && compareValues(out[i][field], out[j][field]) != 0
		}
		return less
	})
	return out, nil
}

// Comparison is the result of a keyed comparison of two row sets.
type Comparison struct {
	Common       []Row       `json:"common"`
	OnlyInFirst  []Row       `json:"only_in_first"`
	OnlyInSecond []Row       `json:"only_in_second"`
	Differences  []RowDiff   `json:"differences"`
	Summary      CompareStat `json:"summary"`
}

// RowDiff records per-field disagreement between two rows sharing a key.
type RowDiff struct {
	Key    string            `json:"key"`
	Fields map[string][2]any `json:"fields"`
}

// CompareStat summarizes a comparison.
type CompareStat struct {
	CommonCount       int `json:"common_count"`
	OnlyInFirstCount  int `json:"only_in_first_count"`
	OnlyInSecondCount int `json:"only_in_second_count"`
	DifferenceCount   int `json:"difference_count"`
}

// Compare performs a keyed outer comparison of two row sets. Rows sharing a
// key value appear in Common; keyed rows whose other fields disagree are also
// listed in Differences. The key field must exist in at least one set.
func Compare(first, second []Row, keyField string) (*Comparison, error) {
	if !hasField(first, keyField) && !hasField(second, keyField) {
		return nil, model.NewValidationError("unknown key field %q", keyField)
	}

	secondByKey := make(map[string]Row, len(second))
	for _, row := range second {
		if k := rowKey(row, keyField); k != "" {
			if _, dup := secondByKey[k]; !dup {
				secondByKey[k] = row
			}
		}
	}

	cmp := &Comparison{}
	matched := make(map[string]bool)
	for _, row := range first {
		k := rowKey(row, keyField)
		other, ok := secondByKey[k]
		if k == "" || !ok {
			cmp.OnlyInFirst = append(cmp.OnlyInFirst, row)
			continue
		}
		matched[k] = true
		cmp.Common = append(cmp.Common, row)
		if diff := diffRows(k, row, other, keyField); diff != nil {
			cmp.Differences = append(cmp.Differences, *diff)
		}
	}
	for _, row := range second {
		k := rowKey(row, keyField)
		if k == "" || !matched[k] {
			cmp.OnlyInSecond = append(cmp.OnlyInSecond, row)
		}
	}

	cmp.Summary = CompareStat{
		CommonCount:       len(cmp.Common),
		OnlyInFirstCount:  len(cmp.OnlyInFirst),
		OnlyInSecondCount: len(cmp.OnlyInSecond),
		DifferenceCount:   len(cmp.Differences),
	}
	return cmp, nil
}

// Merge concatenates row sets in order. With dedupeField set, later rows
// whose value under that field was already seen are dropped.
func Merge(sets [][]Row, dedupeField string) []Row {
	var out []Row
	seen := make(map[string]bool)
	for _, rows := range sets {
		for _, row := range rows {
			if dedupeField != "" {
				k := rowKey(row, dedupeField)
				if k != "" {
					if seen[k] {
						continue
					}
					seen[k] = true
				}
			}
			out = append(out, row)
		}
	}
	return out
}

// helpers

func hasField(rows []Row, field string) bool {
	for _, row := range rows {
		if _, ok := row[field]; ok {
			return true
		}
	}
	return false
}

func rowKey(row Row, field string) string {
	return strings.TrimSpace(stringify(row[field]))
}

func diffRows(key string, a, b Row, keyField string) *RowDiff {
	fields := make(map[string][2]any)
	for k, av := range a {
		if k == keyField {
			continue
		}
		bv, ok := b[k]
		if !ok {
			continue
		}
		if stringify(av) != stringify(bv) {
			fields[k] = [2]any{av, bv}
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return &RowDiff{Key: key, Fields: fields}
}

func stringify(v any) string {
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

// compareValues orders numbers before strings, numbers numerically, strings
// case-insensitively.
func compareValues(a, b any) int {
	as, bs := stringify(a), stringify(b)
	af, aerr := strconv.ParseFloat(strings.TrimSpace(as), 64)
	bf, berr := strconv.ParseFloat(strings.TrimSpace(bs), 64)

	switch {
	case aerr == nil && berr == nil:
		switch {
		case af < bf:
			return -1
		case af > bf:
			return 1
		}
		return 0
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(strings.ToLower(as), strings.ToLower(bs))
}
