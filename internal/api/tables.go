package api

import (
	"net/http"
	"strings"

	"github.com/gloirembonyi/excel-data-extracter/internal/dataset"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// tableRows resolves a request's row source: inline data or a stored dataset.
func (s *Server) tableRows(r *http.Request, rows []dataset.Row, datasetID string) ([]dataset.Row, error) {
	if len(rows) > 0 {
		return rows, nil
	}
	if datasetID == "" {
		return nil, model.NewValidationError("either data or dataset_id is required")
	}
	ds, err := s.store.GetDataset(r.Context(), datasetID)
	if err != nil {
		return nil, err
	}
	return ds.Rows, nil
}

func (s *Server) handleFilterData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data      []dataset.Row `json:"data"`
		DatasetID string        `json:"dataset_id"`
		Field     string        `json:"field"`
		Query     string        `json:"query"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Field == "" {
		writeError(w, model.NewValidationError("field is required"))
		return
	}

	rows, err := s.tableRows(r, req.Data, req.DatasetID)
	if err != nil {
		writeError(w, err)
		return
	}

	filtered, err := dataset.Filter(rows, req.Field, req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  filtered,
		"total": len(filtered),
	})
}

func (s *Server) handleSortData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Data      []dataset.Row `json:"data"`
		DatasetID string        `json:"dataset_id"`
		Field     string        `json:"field"`
		Order     string        `json:"order"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Field == "" {
		writeError(w, model.NewValidationError("field is required"))
		return
	}

	rows, err := s.tableRows(r, req.Data, req.DatasetID)
	if err != nil {
		writeError(w, err)
		return
	}

	sorted, err := dataset.Sort(rows, req.Field, strings.EqualFold(req.Order, "desc"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  sorted,
		"total": len(sorted),
	})
}

func (s *Server) handleCompareData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		First           []dataset.Row `json:"first"`
		Second          []dataset.Row `json:"second"`
		FirstDatasetID  string        `json:"first_dataset_id"`
		SecondDatasetID string        `json:"second_dataset_id"`
		KeyField        string        `json:"key_field"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.KeyField == "" {
		writeError(w, model.NewValidationError("key_field is required"))
		return
	}

	first, err := s.tableRows(r, req.First, req.FirstDatasetID)
	if err != nil {
		writeError(w, err)
		return
	}
	second, err := s.tableRows(r, req.Second, req.SecondDatasetID)
	if err != nil {
		writeError(w, err)
		return
	}

	cmp, err := dataset.Compare(first, second, req.KeyField)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleMergeData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Sets        [][]dataset.Row `json:"datasets"`
		DatasetIDs  []string        `json:"dataset_ids"`
		DedupeField string          `json:"dedupe_field"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	sets := req.Sets
	for _, id := range req.DatasetIDs {
		ds, err := s.store.GetDataset(r.Context(), id)
		if err != nil {
			writeError(w, err)
			return
		}
		sets = append(sets, ds.Rows)
	}
	if len(sets) == 0 {
		writeError(w, model.NewValidationError("no datasets to merge"))
		return
	}

	merged := dataset.Merge(sets, req.DedupeField)
	writeJSON(w, http.StatusOK, map[string]any{
		"data":  merged,
		"total": len(merged),
	})
}
