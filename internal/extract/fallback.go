package extract

import (
	"strconv"
	"strings"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// serialPrefixes are the serial-number shapes seen on the tags this system
// reads. A token starting with one of these is taken as the serial.
var serialPrefixes = []string{"1H", "AH", "1HF"}

// FallbackParse derives inventory rows from raw tag text without the
// structuring service. It is deterministic, never fails, and may return zero
// records. Lines look like "1 Screen 1 1H35070V93 MOHDIG125/SCR587 New":
// optional quantity, description, serial (by prefix), tag, then status.
func FallbackParse(text string) []model.ExtractedRecord {
	var records []model.ExtractedRecord

	for _, line := range strings.Split(text, "\n") {
		parts := strings.Fields(strings.TrimSpace(line))
		if len(parts) < 4 {
			continue
		}

		quantity := 1
		if n, err := strconv.Atoi(parts[0]); err == nil {
			quantity = n
			parts = parts[1:]
		}
		if len(parts) == 0 {
			continue
		}
		desc := parts[0]

		var serial, tag string
		status := "New"
		for i := 1; i < len(parts); i++ {
			if !hasSerialPrefix(parts[i]) {
				continue
			}
			serial = parts[i]
			if i+1 < len(parts) {
				tag = parts[i+1]
			}
			if i+2 < len(parts) {
				status = parts[i+2]
			}
			break
		}

		if desc == "" || serial == "" {
			continue
		}
		records = append(records, model.ExtractedRecord{
			ItemDescription: desc,
			Quantity:        quantity,
			SerialNumber:    serial,
			TagNumber:       tag,
			Status:          status,
		})
	}

	return records
}

func hasSerialPrefix(s string) bool {
	for _, p := range serialPrefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
