package model

import "time"

// Status tracks the lifecycle of a batch job or of a single item within it.
// RETRYING only ever appears at the item level; jobs move
// PENDING → PROCESSING → {COMPLETED, FAILED} and never transition again.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRetrying   Status = "retrying"
)

// Terminal reports whether no further transitions can occur.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Outcome records which branch an item's processing took. It makes the
// fallback path explicit rather than something inferred from error state.
type Outcome string

const (
	// OutcomeExtractedOK means text extraction and structuring both succeeded.
	OutcomeExtractedOK Outcome = "extracted_ok"
	// OutcomeStructuringFallback means structuring failed on the final attempt
	// and the heuristic parser produced the records instead.
	OutcomeStructuringFallback Outcome = "structuring_fallback"
	// OutcomeExtractionFailed means text extraction itself failed on the
	// final attempt; no records were produced.
	OutcomeExtractionFailed Outcome = "extraction_failed"
)

// ItemResult is the settled outcome of processing one submitted image.
// Immutable once its job reaches a terminal status.
type ItemResult struct {
	ID             string            `json:"id"`
	Filename       string            `json:"filename"`
	Status         Status            `json:"status"`
	Outcome        Outcome           `json:"outcome,omitempty"`
	ExtractedText  string            `json:"extracted_text"`
	Records        []ExtractedRecord `json:"table_data"`
	ErrorMessage   string            `json:"error_message,omitempty"`
	ProcessingTime time.Duration     `json:"processing_time"`
	RetryCount     int               `json:"retry_count"`
	CredentialID   string            `json:"api_key_used"`
}

// BatchJob aggregates the per-item results of one submitted batch.
// Lifetime is process memory only; nothing here is persisted.
type BatchJob struct {
	ID          string       `json:"id"`
	TotalItems  int          `json:"total_images"`
	Completed   int          `json:"completed_images"`
	Failed      int          `json:"failed_images"`
	Status      Status       `json:"status"`
	Results     []ItemResult `json:"results,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	CompletedAt *time.Time   `json:"completed_at,omitempty"`
}

// Progress returns settled work as a percentage. Batches of size zero are
// rejected at submission, so the denominator is never zero here.
func (j BatchJob) Progress() float64 {
	return float64(j.Completed+j.Failed) / float64(j.TotalItems) * 100
}
