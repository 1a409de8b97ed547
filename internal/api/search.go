package api

import (
	"net/http"

	"github.com/gloirembonyi/excel-data-extracter/internal/matching"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
)

type searchRequest struct {
	Terms           []string         `json:"search_terms"`
	Term            string           `json:"search_term"`
	ProjectID       string           `json:"project_id"`
	DatasetIDs      []string         `json:"dataset_ids"`
	IncludeDatasets bool             `json:"include_datasets"`
	Rows            []map[string]any `json:"rows"`
	CaseSensitive   bool             `json:"case_sensitive"`
	Source          model.Source     `json:"source"`
	ItemType        string           `json:"item_type"`
	Status          string           `json:"status"`
}

// handleBulkSearch resolves each term to exactly one reference item, in
// submission order, with a NOT FOUND sentinel per miss.
func (s *Server) handleBulkSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Terms) == 0 {
		writeError(w, model.NewValidationError("no search terms provided"))
		return
	}

	pool, err := s.searchPool(r, req)
	if err != nil {
		writeError(w, err)
		return
	}

	results := s.resolver.Resolve(req.Terms, pool, matching.ResolveOptions{
		CaseSensitive: req.CaseSensitive,
		Source:        req.Source,
		ItemType:      req.ItemType,
		Status:        req.Status,
	})

	found := 0
	for _, item := range results {
		if item.Source != model.SourceNone {
			found++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"results": results,
		"summary": map[string]any{
			"total":     len(req.Terms),
			"found":     found,
			"not_found": len(req.Terms) - found,
		},
	})
}

// handleSearch is the single-term variant of bulk search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Term == "" {
		writeError(w, model.NewValidationError("search_term is required"))
		return
	}

	pool, err := s.searchPool(r, req)
	if err != nil {
		writeError(w, err)
		return
	}

	results := s.resolver.Resolve([]string{req.Term}, pool, matching.ResolveOptions{
		CaseSensitive: req.CaseSensitive,
		Source:        req.Source,
		ItemType:      req.ItemType,
		Status:        req.Status,
	})

	item := results[0]
	writeJSON(w, http.StatusOK, map[string]any{
		"result": item,
		"found":  item.Source != model.SourceNone,
	})
}

// searchPool assembles the reference pool for a search request: stored scope
// first, then any inline rows.
func (s *Server) searchPool(r *http.Request, req searchRequest) ([]model.ReferenceItem, error) {
	pool, err := s.provider.Fetch(r.Context(), refdata.Scope{
		ProjectID:       req.ProjectID,
		DatasetIDs:      req.DatasetIDs,
		IncludeDatasets: req.IncludeDatasets,
	})
	if err != nil {
		return nil, err
	}
	if len(req.Rows) > 0 {
		pool = append(pool, refdata.PoolFromRows(req.Rows, "inline")...)
	}
	if len(pool) == 0 {
		return nil, model.NewValidationError("no reference data in scope")
	}
	return pool, nil
}
