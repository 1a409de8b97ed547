package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/gloirembonyi/excel-data-extracter/internal/dataset"
	"github.com/gloirembonyi/excel-data-extracter/internal/export"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

const (
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	csvContentType  = "text/csv; charset=utf-8"
)

// handleExportMasterData streams a project's master records as an XLSX
// workbook.
func (s *Server) handleExportMasterData(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	project, err := s.store.GetProject(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	items, err := s.store.ListMasterData(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", project.Name+".xlsx"))
	if err := export.MasterData(w, items); err != nil {
		// Headers are already written; the response cannot be rewritten to JSON.
		zap.L().Error("export master data", zap.String("project_id", projectID), zap.Error(err))
	}
}

// handleExportCSV streams inline rows or a stored dataset as a CSV download.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data      []dataset.Row `json:"data"`
		DatasetID string        `json:"dataset_id"`
		Filename  string        `json:"filename"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rows, err := s.tableRows(r, req.Data, req.DatasetID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(rows) == 0 {
		writeError(w, model.NewValidationError("no data to export"))
		return
	}

	w.Header().Set("Content-Type", csvContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(req.Filename, "exported_data", ".csv")))
	if err := export.Rows(w, rows); err != nil {
		zap.L().Error("export csv", zap.Error(err))
	}
}

// handleExportSearchResults writes previously resolved search results back
// out as an XLSX workbook or, with format "csv", as CSV. Terms are optional;
// without them each result's tag number stands in as the term column, which
// not-found sentinels echo anyway.
func (s *Server) handleExportSearchResults(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Terms    []string              `json:"search_terms"`
		Results  []model.ReferenceItem `json:"results"`
		Format   string                `json:"format"`
		Filename string                `json:"filename"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Results) == 0 {
		writeError(w, model.NewValidationError("no results to export"))
		return
	}

	terms := req.Terms
	if len(terms) == 0 {
		terms = make([]string, len(req.Results))
		for i, item := range req.Results {
			terms[i] = item.TagNumber
		}
	}
	if len(terms) != len(req.Results) {
		writeError(w, model.NewValidationError("terms and results length mismatch: %d vs %d", len(terms), len(req.Results)))
		return
	}

	if strings.EqualFold(req.Format, "csv") {
		w.Header().Set("Content-Type", csvContentType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(req.Filename, "search_results", ".csv")))
		if err := export.SearchResultsCSV(w, terms, req.Results); err != nil {
			zap.L().Error("export search results csv", zap.Error(err))
		}
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename(req.Filename, "search_results", ".xlsx")))
	if err := export.SearchResults(w, terms, req.Results); err != nil {
		zap.L().Error("export search results", zap.Error(err))
	}
}

func exportFilename(name, fallback, ext string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = fallback
	}
	if !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}
