package extract

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
	"github.com/gloirembonyi/excel-data-extracter/internal/refdata"
	"github.com/gloirembonyi/excel-data-extracter/internal/resilience"
)

// Client is the contract with the external extraction/structuring service.
// Both calls may fail transiently; neither retries internally — retry policy
// belongs to the Processor.
type Client interface {
	ExtractText(ctx context.Context, image []byte, apiKey string) (string, error)
	Structure(ctx context.Context, text, apiKey string) ([]map[string]any, error)
}

// ProcessorConfig tunes the retry loop.
type ProcessorConfig struct {
	// MaxRetries is the total number of attempts. Default: 3.
	MaxRetries int
	// AttemptTimeout bounds each attempt (extraction plus structuring).
	// Default: 60s.
	AttemptTimeout time.Duration
	// Backoff is slept between attempts: Base * 2^attempt by default.
	Backoff resilience.BackoffConfig
}

func (c ProcessorConfig) withDefaults() ProcessorConfig {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 60 * time.Second
	}
	return c
}

// Processor drives one image through the service with bounded retries.
// It has no side effects beyond the returned ItemResult.
type Processor struct {
	client Client
	creds  CredentialProvider
	cfg    ProcessorConfig
}

// NewProcessor creates a Processor.
func NewProcessor(client Client, creds CredentialProvider, cfg ProcessorConfig) *Processor {
	return &Processor{client: client, creds: creds, cfg: cfg.withDefaults()}
}

// Process runs the retry loop for a single image. Every failure consumes an
// attempt; transient faults sleep the exponential backoff first, permanent
// ones retry immediately. The final attempt decides the outcome:
// a structuring failure falls back to the heuristic parser and the item
// still completes; an extraction failure fails the item.
func (p *Processor) Process(ctx context.Context, image []byte, filename, id string) model.ItemResult {
	res := model.ItemResult{
		ID:       id,
		Filename: filename,
		Status:   model.StatusProcessing,
	}
	log := zap.L().With(zap.String("image", filename))
	start := time.Now()

	maxRetries := p.cfg.MaxRetries
	for attempt := 0; attempt < maxRetries; attempt++ {
		cred := p.creds.Next()
		res.CredentialID = cred.ID

		text, rows, err := p.attempt(ctx, image, cred.Key)
		if text != "" {
			res.ExtractedText = text
		}
		if err == nil {
			res.Records = recordsFromRows(rows)
			res.Status = model.StatusCompleted
			res.Outcome = model.OutcomeExtractedOK
			res.ProcessingTime = time.Since(start)
			log.Info("image processed",
				zap.Int("records", len(res.Records)),
				zap.Duration("elapsed", res.ProcessingTime),
			)
			return res
		}

		res.RetryCount = attempt + 1
		res.ErrorMessage = err.Error()

		if attempt < maxRetries-1 {
			res.Status = model.StatusRetrying
			transient := resilience.IsTransient(err)
			log.Warn("attempt failed, retrying",
				zap.Int("attempt", attempt+1),
				zap.Bool("transient", transient),
				zap.Error(err),
			)
			// Only transient faults sleep the backoff; a deterministic
			// failure retries immediately.
			sleepErr := ctx.Err()
			if transient && sleepErr == nil {
				sleepErr = p.cfg.Backoff.Sleep(ctx, attempt)
			}
			if sleepErr != nil {
				res.Status = model.StatusFailed
				res.Outcome = model.OutcomeExtractionFailed
				res.ErrorMessage = sleepErr.Error()
				break
			}
			continue
		}

		// Budget exhausted: the stage that failed decides the branch.
		var se *StructuringError
		if errors.As(err, &se) {
			res.Records = FallbackParse(res.ExtractedText)
			res.Status = model.StatusCompleted
			res.Outcome = model.OutcomeStructuringFallback
			log.Warn("structuring failed, fallback parser used",
				zap.Int("records", len(res.Records)),
				zap.Error(err),
			)
		} else {
			res.Status = model.StatusFailed
			res.Outcome = model.OutcomeExtractionFailed
			log.Error("all attempts failed", zap.Error(err))
		}
	}

	res.ProcessingTime = time.Since(start)
	return res
}

// attempt runs one extraction+structuring pair under the per-attempt timeout.
func (p *Processor) attempt(ctx context.Context, image []byte, apiKey string) (string, []map[string]any, error) {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AttemptTimeout)
	defer cancel()

	text, err := p.client.ExtractText(actx, image, apiKey)
	if err != nil {
		return "", nil, newExtractionError(err)
	}

	rows, err := p.client.Structure(actx, text, apiKey)
	if err != nil {
		return text, nil, &StructuringError{Err: err}
	}

	return text, rows, nil
}

func recordsFromRows(rows []map[string]any) []model.ExtractedRecord {
	records := make([]model.ExtractedRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, refdata.RecordFromRow(row))
	}
	return records
}
