package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gloirembonyi/excel-data-extracter/internal/fetcher"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
)

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, model.NewValidationError("project name is required"))
		return
	}

	project, err := s.store.CreateProject(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.store.ListProjects(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.store.GetProject(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "projectID")
	if err := s.store.DeleteProject(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// handleAddMasterData accepts either a JSON body with explicit items or a
// multipart spreadsheet upload resolved through the alias tables.
func (s *Server) handleAddMasterData(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var items []model.MasterDataItem
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		rows, err := s.uploadedRows(r)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, row := range rows {
			items = append(items, refdata.MasterItemFromRow(row))
		}
	} else {
		var req struct {
			Items []model.MasterDataItem `json:"items"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		items = req.Items
	}

	if len(items) == 0 {
		writeError(w, model.NewValidationError("no master data items provided"))
		return
	}

	n, err := s.store.AddMasterData(r.Context(), projectID, items)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"project_id": projectID, "added": n})
}

func (s *Server) handleListMasterData(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeError(w, err)
		return
	}

	items, err := s.store.ListMasterData(r.Context(), projectID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"project_id": projectID, "items": items})
}

// handleMatchData scores extracted records against the project's reference
// pool and returns ranked candidates per record.
func (s *Server) handleMatchData(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	var req struct {
		Records         []model.ExtractedRecord `json:"records"`
		Threshold       *float64                `json:"threshold"`
		IncludeDatasets bool                    `json:"include_datasets"`
		DatasetIDs      []string                `json:"dataset_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Records) == 0 {
		writeError(w, model.NewValidationError("no records to match"))
		return
	}

	if _, err := s.store.GetProject(r.Context(), projectID); err != nil {
		writeError(w, err)
		return
	}

	pool, err := s.provider.Fetch(r.Context(), refdata.Scope{
		ProjectID:       projectID,
		DatasetIDs:      req.DatasetIDs,
		IncludeDatasets: req.IncludeDatasets,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	threshold := s.opts.MatchThreshold
	if req.Threshold != nil {
		threshold = *req.Threshold
	}
	if threshold < 0 || threshold > 1 {
		writeError(w, model.NewValidationError("threshold must be between 0 and 1"))
		return
	}

	matches := s.engine.Match(req.Records, pool, threshold)

	matched := 0
	for _, candidates := range matches {
		if len(candidates) > 0 {
			matched++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"project_id": projectID,
		"matches":    matches,
		"summary": map[string]any{
			"total_records":   len(req.Records),
			"matched_records": matched,
			"pool_size":       len(pool),
			"threshold":       threshold,
		},
	})
}

// uploadedRows parses every uploaded spreadsheet in the request into one row
// list, in file order.
func (s *Server) uploadedRows(r *http.Request) ([]map[string]any, error) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		return nil, model.NewValidationError("invalid multipart form: %v", err)
	}

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		return nil, model.NewValidationError("no files provided")
	}

	var rows []map[string]any
	for _, h := range headers {
		data, err := readFile(h)
		if err != nil {
			return nil, err
		}
		parsed, err := fetcher.Rows(h.Filename, data, fetcher.Options{TrimSpace: true})
		if err != nil {
			return nil, model.NewValidationError("parse %s: %v", h.Filename, err)
		}
		rows = append(rows, parsed...)
	}
	return rows, nil
}
