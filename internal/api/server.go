// Package api exposes the extraction, matching, and dataset operations over
// HTTP.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gloirembonyi/excel-data-extracter/internal/batch"
	"github.com/gloirembonyi/excel-data-extracter/internal/matching"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
	"github.com/gloirembonyi/excel-data-extracter/internal/store"
)

// Options tunes request handling.
type Options struct {
	// MatchThreshold is the default confidence threshold (0..1) when the
	// request does not carry one.
	MatchThreshold float64
	// MaxUploadBytes caps multipart request memory. Default: 32 MiB.
	MaxUploadBytes int64
}

func (o Options) withDefaults() Options {
	if o.MatchThreshold <= 0 {
		o.MatchThreshold = 0.5
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 32 << 20
	}
	return o
}

// Server holds the handler dependencies.
type Server struct {
	store     store.Store
	orch      *batch.Orchestrator
	processor batch.ItemProcessor
	engine    *matching.Engine
	resolver  *matching.Resolver
	provider  refdata.Provider
	opts      Options
}

// NewServer wires the HTTP layer.
func NewServer(st store.Store, orch *batch.Orchestrator, processor batch.ItemProcessor, provider refdata.Provider, opts Options) *Server {
	return &Server{
		store:     st,
		orch:      orch,
		processor: processor,
		engine:    matching.NewEngine(),
		resolver:  matching.NewResolver(),
		provider:  provider,
		opts:      opts.withDefaults(),
	}
}

// Router builds the chi router with middleware and all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Minute))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", s.handleHealth)

	// Extraction
	r.Post("/extract-image", s.handleExtractImage)
	r.Post("/batch-process-images", s.handleBatchProcess)
	r.Get("/batch-status/{jobID}", s.handleBatchStatus)
	r.Get("/batch-results/{jobID}", s.handleBatchResults)

	// Projects and master data
	r.Route("/projects", func(r chi.Router) {
		r.Get("/", s.handleListProjects)
		r.Post("/", s.handleCreateProject)
		r.Route("/{projectID}", func(r chi.Router) {
			r.Get("/", s.handleGetProject)
			r.Delete("/", s.handleDeleteProject)
			r.Get("/master-data", s.handleListMasterData)
			r.Post("/master-data", s.handleAddMasterData)
			r.Post("/match-data", s.handleMatchData)
			r.Get("/export-excel", s.handleExportMasterData)
		})
	})

	// Datasets
	r.Route("/datasets", func(r chi.Router) {
		r.Get("/", s.handleListDatasets)
		r.Post("/", s.handleCreateDataset)
		r.Route("/{datasetID}", func(r chi.Router) {
			r.Get("/", s.handleGetDataset)
			r.Delete("/", s.handleDeleteDataset)
			r.Post("/upload-files", s.handleUploadFiles)
		})
	})

	// Search and table operations
	r.Post("/bulk-search", s.handleBulkSearch)
	r.Post("/search", s.handleSearch)
	r.Post("/export-search-results", s.handleExportSearchResults)
	r.Post("/export-csv", s.handleExportCSV)
	r.Post("/filter-data", s.handleFilterData)
	r.Post("/sort-data", s.handleSortData)
	r.Post("/compare-data", s.handleCompareData)
	r.Post("/merge-data", s.handleMergeData)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
