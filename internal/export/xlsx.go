// Package export writes extraction and search results as XLSX workbooks.
package export

import (
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// Layout selects the worksheet shape for extracted records.
type Layout string

const (
	// LayoutStandard writes one record per row in five columns.
	LayoutStandard Layout = "standard"
	// LayoutScreenCPU pairs screens with CPUs side by side, the shape the
	// field teams fill in by hand.
	LayoutScreenCPU Layout = "screen_cpu"
)

var standardHeader = []string{"Item_Description", "Quantity", "Serial_Number", "Tag_Number", "Status"}

// Records writes extracted records to w in the requested layout.
func Records(w io.Writer, records []model.ExtractedRecord, layout Layout) error {
	switch layout {
	case "", LayoutStandard:
		return writeStandard(w, records)
	case LayoutScreenCPU:
		return writeScreenCPU(w, records)
	default:
		return model.NewValidationError("unknown export layout %q", layout)
	}
}

func writeStandard(w io.Writer, records []model.ExtractedRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Extracted Data")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeHeader(sheet, standardHeader)
	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().Value = r.ItemDescription
		row.AddCell().SetInt(r.Quantity)
		row.AddCell().Value = r.SerialNumber
		row.AddCell().Value = r.TagNumber
		row.AddCell().Value = r.Status
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

var screenCPUHeader = []string{
	"No.",
	"Screen_Description", "Screen_Serial", "Screen_Tag",
	"CPU_Description", "CPU_Serial", "CPU_Tag",
	"Status",
}

// writeScreenCPU splits records into screens and everything else, then zips
// them row by row. Leftovers on either side still get a row.
func writeScreenCPU(w io.Writer, records []model.ExtractedRecord) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Screens and CPUs")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	var screens, cpus []model.ExtractedRecord
	for _, r := range records {
		if strings.Contains(strings.ToLower(r.ItemDescription), "screen") {
			screens = append(screens, r)
		} else {
			cpus = append(cpus, r)
		}
	}

	writeHeader(sheet, screenCPUHeader)
	n := len(screens)
	if len(cpus) > n {
		n = len(cpus)
	}
	for i := 0; i < n; i++ {
		row := sheet.AddRow()
		row.AddCell().SetInt(i + 1)

		var status string
		if i < len(screens) {
			row.AddCell().Value = screens[i].ItemDescription
			row.AddCell().Value = screens[i].SerialNumber
			row.AddCell().Value = screens[i].TagNumber
			status = screens[i].Status
		} else {
			row.AddCell()
			row.AddCell()
			row.AddCell()
		}
		if i < len(cpus) {
			row.AddCell().Value = cpus[i].ItemDescription
			row.AddCell().Value = cpus[i].SerialNumber
			row.AddCell().Value = cpus[i].TagNumber
			if status == "" {
				status = cpus[i].Status
			}
		} else {
			row.AddCell()
			row.AddCell()
			row.AddCell()
		}
		row.AddCell().Value = status
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

var searchHeader = []string{
	"Search_Term", "Item_Description", "Quantity",
	"Serial_Number", "Tag_Number", "Status", "Source",
}

// SearchResults writes bulk-search output to w, one row per search term in
// submission order. Not-found sentinels keep their echoed term visible.
func SearchResults(w io.Writer, terms []string, results []model.ReferenceItem) error {
	if len(terms) != len(results) {
		return model.NewValidationError("terms and results length mismatch: %d vs %d", len(terms), len(results))
	}

	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Search Results")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeHeader(sheet, searchHeader)
	for i, item := range results {
		row := sheet.AddRow()
		row.AddCell().Value = terms[i]
		row.AddCell().Value = item.ItemDescription
		row.AddCell().SetInt(item.Quantity)
		row.AddCell().Value = item.SerialNumber
		row.AddCell().Value = item.TagNumber
		row.AddCell().Value = item.Status
		row.AddCell().Value = string(item.Source)
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

// MasterData writes a project's master records in the standard layout.
func MasterData(w io.Writer, items []model.MasterDataItem) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("Master Data")
	if err != nil {
		return eris.Wrap(err, "export: add sheet")
	}

	writeHeader(sheet, standardHeader)
	for _, m := range items {
		row := sheet.AddRow()
		row.AddCell().Value = m.ItemDescription
		row.AddCell().SetInt(m.Quantity)
		row.AddCell().Value = m.SerialNumber
		row.AddCell().Value = m.TagNumber
		row.AddCell().Value = m.Status
	}

	return eris.Wrap(f.Write(w), "export: write workbook")
}

func writeHeader(sheet *xlsx.Sheet, cols []string) {
	row := sheet.AddRow()
	for _, c := range cols {
		cell := row.AddCell()
		cell.Value = c
	}
}
