// Package refdata assembles the reference pool — curated master records plus
// imported dataset rows — that extracted records are matched against.
package refdata

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Spreadsheet exports and model replies spell the same logical field many
// ways. Each list is ordered: the first key present (with a non-empty value)
// wins. Headerless exports surface pandas-style "Unnamed: N" columns, so
// those appear last.
var (
	descriptionAliases = []string{
		"Item_Description", "item_description", "Description", "description",
		"ITEM", "Unnamed: 1",
	}
	serialAliases = []string{
		"Serial_Number", "serial_number", "SERIAL_NUMBER", "Unnamed: 3",
	}
	tagAliases = []string{
		"Tag_Number", "tag_number", "CODE", "CODIFICATION FOR MOH",
		"Unnamed: 2",
	}
	quantityAliases = []string{"Quantity", "quantity"}
	statusAliases   = []string{"Status", "status"}
)

// fieldValue resolves the first alias present in the row to a string.
func fieldValue(row map[string]any, aliases []string) string {
	for _, key := range aliases {
		v, ok := row[key]
		if !ok || v == nil {
			continue
		}
		s := strings.TrimSpace(stringify(v))
		if s != "" {
			return s
		}
	}
	return ""
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; render integers without a mantissa.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// quantityValue resolves a quantity alias to an integer, defaulting to 1 on
// absent or unparseable values.
func quantityValue(row map[string]any) int {
	s := fieldValue(row, quantityAliases)
	if s == "" {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 1
	}
	return n
}

// ItemFromRow converts a loosely-keyed dataset row into a ReferenceItem with
// dataset provenance. The id is content-addressed so re-importing the same
// row always yields the same identity.
func ItemFromRow(row map[string]any, collection string) model.ReferenceItem {
	item := model.ReferenceItem{
		ItemDescription: fieldValue(row, descriptionAliases),
		SerialNumber:    fieldValue(row, serialAliases),
		TagNumber:       fieldValue(row, tagAliases),
		Quantity:        quantityValue(row),
		Status:          fieldValue(row, statusAliases),
		Source:          model.SourceDataset,
		Collection:      collection,
	}
	if item.Status == "" {
		item.Status = "active"
	}
	item.ID = fmt.Sprintf("dataset_%s", contentID(item))
	return item
}

// RecordFromRow converts a structured-extraction row into an ExtractedRecord
// using the same alias tables.
func RecordFromRow(row map[string]any) model.ExtractedRecord {
	return model.ExtractedRecord{
		ItemDescription: fieldValue(row, descriptionAliases),
		Quantity:        quantityValue(row),
		SerialNumber:    fieldValue(row, serialAliases),
		TagNumber:       fieldValue(row, tagAliases),
		Status:          fieldValue(row, statusAliases),
	}
}

// MasterItemFromRow converts an uploaded spreadsheet row into a master data
// record using the same alias tables. The store assigns the id.
func MasterItemFromRow(row map[string]any) model.MasterDataItem {
	status := fieldValue(row, statusAliases)
	if status == "" {
		status = "active"
	}
	return model.MasterDataItem{
		ItemDescription: fieldValue(row, descriptionAliases),
		SerialNumber:    fieldValue(row, serialAliases),
		TagNumber:       fieldValue(row, tagAliases),
		Quantity:        quantityValue(row),
		Status:          status,
	}
}

// contentID hashes the normalized field values with FNV-1a. Unlike an
// object-identity hash this is reproducible across runs and processes.
func contentID(item model.ReferenceItem) string {
	h := fnv.New64a()
	for _, f := range []string{
		model.NormalizeIdentifier(item.ItemDescription),
		model.NormalizeIdentifier(item.SerialNumber),
		model.NormalizeIdentifier(item.TagNumber),
		strconv.Itoa(item.Quantity),
		model.NormalizeIdentifier(item.Status),
		item.Collection,
	} {
		h.Write([]byte(f))
		h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
