package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gloirembonyi/excel-data-extracter/internal/fetcher"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

func (s *Server) handleCreateDataset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, model.NewValidationError("dataset name is required"))
		return
	}

	ds, err := s.store.CreateDataset(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ds)
}

func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	datasets, err := s.store.ListDatasets(r.Context(), false)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": datasets})
}

func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	ds, err := s.store.GetDataset(r.Context(), chi.URLParam(r, "datasetID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")
	if err := s.store.DeleteDataset(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleUploadFiles appends the rows of each uploaded spreadsheet to the
// dataset, tracked per file.
func (s *Server) handleUploadFiles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "datasetID")

	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, model.NewValidationError("invalid multipart form: %v", err))
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, model.NewValidationError("no files provided"))
		return
	}

	total := 0
	perFile := make(map[string]int, len(headers))
	for _, h := range headers {
		data, err := readFile(h)
		if err != nil {
			writeError(w, err)
			return
		}
		rows, err := fetcher.Rows(h.Filename, data, fetcher.Options{TrimSpace: true})
		if err != nil {
			writeError(w, model.NewValidationError("parse %s: %v", h.Filename, err))
			return
		}
		n, err := s.store.AppendDatasetRows(r.Context(), id, h.Filename, rows)
		if err != nil {
			writeError(w, err)
			return
		}
		perFile[h.Filename] = n
		total += n
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"dataset_id": id,
		"rows_added": total,
		"files":      perFile,
	})
}
