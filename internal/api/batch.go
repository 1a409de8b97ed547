package api

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/gloirembonyi/excel-data-extracter/internal/batch"
	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

func (s *Server) handleBatchProcess(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, model.NewValidationError("invalid multipart form: %v", err))
		return
	}

	images, err := readImages(r.MultipartForm.File["files"])
	if err != nil {
		writeError(w, err)
		return
	}

	concurrency := 0
	if v := r.FormValue("max_concurrent"); v != "" {
		concurrency, err = strconv.Atoi(v)
		if err != nil {
			writeError(w, model.NewValidationError("invalid max_concurrent %q", v))
			return
		}
	}

	jobID, err := s.orch.Submit(r.Context(), images, concurrency)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"job_id":       jobID,
		"total_images": len(images),
		"status":       model.StatusPending,
	})
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.orch.Status(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":           job.ID,
		"status":           job.Status,
		"total_images":     job.TotalItems,
		"completed_images": job.Completed,
		"failed_images":    job.Failed,
		"progress":         job.Progress(),
		"created_at":       job.CreatedAt,
		"completed_at":     job.CompletedAt,
	})
}

func (s *Server) handleBatchResults(w http.ResponseWriter, r *http.Request) {
	job, err := s.orch.Results(chi.URLParam(r, "jobID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":           job.ID,
		"status":           job.Status,
		"total_images":     job.TotalItems,
		"completed_images": job.Completed,
		"failed_images":    job.Failed,
		"results":          job.Results,
		"created_at":       job.CreatedAt,
		"completed_at":     job.CompletedAt,
	})
}

func (s *Server) handleExtractImage(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(s.opts.MaxUploadBytes); err != nil {
		writeError(w, model.NewValidationError("invalid multipart form: %v", err))
		return
	}

	headers := r.MultipartForm.File["file"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}
	if len(headers) == 0 {
		writeError(w, model.NewValidationError("no image file provided"))
		return
	}

	data, err := readFile(headers[0])
	if err != nil {
		writeError(w, err)
		return
	}

	res := s.processor.Process(r.Context(), data, headers[0].Filename, "single_"+uuid.NewString())
	writeJSON(w, http.StatusOK, res)
}

func readImages(headers []*multipart.FileHeader) ([]batch.ImageInput, error) {
	if len(headers) == 0 {
		return nil, model.NewValidationError("no image files provided")
	}

	images := make([]batch.ImageInput, 0, len(headers))
	for _, h := range headers {
		data, err := readFile(h)
		if err != nil {
			return nil, err
		}
		images = append(images, batch.ImageInput{Filename: h.Filename, Data: data})
	}
	return images, nil
}

func readFile(h *multipart.FileHeader) ([]byte, error) {
	f, err := h.Open()
	if err != nil {
		return nil, eris.Wrapf(err, "api: open upload %s", h.Filename)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, eris.Wrapf(err, "api: read upload %s", h.Filename)
	}
	return data, nil
}
