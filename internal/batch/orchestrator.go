package batch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gloirembonyi/excel-data-extracter/internal/model"
)

// ImageInput is one image submitted for extraction.
type ImageInput struct {
	Filename string
	Data     []byte
}

// ItemProcessor settles a single image into an ItemResult. It never returns
// an error; failure is expressed in the result's status.
type ItemProcessor interface {
	Process(ctx context.Context, image []byte, filename, id string) model.ItemResult
}

// Config tunes batch admission and fan-out.
type Config struct {
	// DefaultConcurrency is used when the caller passes zero. Default: 5.
	DefaultConcurrency int
	// MaxConcurrency caps caller-requested concurrency. Default: 20.
	MaxConcurrency int
	// MaxBatchSize rejects oversized submissions. Default: 100.
	MaxBatchSize int
}

func (c Config) withDefaults() Config {
	if c.DefaultConcurrency <= 0 {
		c.DefaultConcurrency = 5
	}
	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 20
	}
	if c.MaxBatchSize <= 0 {
		c.MaxBatchSize = 100
	}
	return c
}

// Orchestrator runs batches of images through the item processor with a
// bounded number of in-flight items. Each job is mutated only by its own
// run goroutine; readers go through JobStore snapshots.
type Orchestrator struct {
	processor ItemProcessor
	store     JobStore
	cfg       Config
	mu        sync.Mutex
	done      map[string]chan struct{}
}

// NewOrchestrator creates an Orchestrator backed by the given registry.
func NewOrchestrator(processor ItemProcessor, store JobStore, cfg Config) *Orchestrator {
	return &Orchestrator{
		processor: processor,
		store:     store,
		cfg:       cfg.withDefaults(),
		done:      make(map[string]chan struct{}),
	}
}

// Submit validates the batch, registers a pending job, and starts processing
// in the background. It returns the job id immediately; progress is observed
// via Status and Results. Cancelling the submission context does not cancel
// the batch.
func (o *Orchestrator) Submit(ctx context.Context, images []ImageInput, concurrency int) (string, error) {
	if len(images) == 0 {
		return "", model.NewValidationError("batch must contain at least one image")
	}
	if len(images) > o.cfg.MaxBatchSize {
		return "", model.NewValidationError("batch of %d images exceeds the %d image limit", len(images), o.cfg.MaxBatchSize)
	}
	if concurrency <= 0 {
		concurrency = o.cfg.DefaultConcurrency
	}
	if concurrency > o.cfg.MaxConcurrency {
		concurrency = o.cfg.MaxConcurrency
	}

	jobID := "batch_" + uuid.NewString()
	o.store.Create(model.BatchJob{
		ID:         jobID,
		TotalItems: len(images),
		Status:     model.StatusPending,
		Results:    make([]model.ItemResult, len(images)),
		CreatedAt:  time.Now().UTC(),
	})

	o.mu.Lock()
	o.done[jobID] = make(chan struct{})
	o.mu.Unlock()

	zap.L().Info("batch submitted",
		zap.String("job_id", jobID),
		zap.Int("images", len(images)),
		zap.Int("concurrency", concurrency),
	)
	go o.run(context.WithoutCancel(ctx), jobID, images, concurrency)

	return jobID, nil
}

// Status returns a snapshot of the job without per-item results.
func (o *Orchestrator) Status(jobID string) (model.BatchJob, error) {
	job, ok := o.store.Get(jobID)
	if !ok {
		return model.BatchJob{}, &model.NotFoundError{Kind: "job", ID: jobID}
	}
	job.Results = nil
	return job, nil
}

// Results returns the per-item results once the job has settled. Before that
// it returns an InvalidStateError so callers cannot observe partial output.
func (o *Orchestrator) Results(jobID string) (model.BatchJob, error) {
	job, ok := o.store.Get(jobID)
	if !ok {
		return model.BatchJob{}, &model.NotFoundError{Kind: "job", ID: jobID}
	}
	if !job.Status.Terminal() {
		return model.BatchJob{}, &model.InvalidStateError{
			Msg: fmt.Sprintf("job %s is %s, results are available once it completes", jobID, job.Status),
		}
	}
	return job, nil
}

// Wait blocks until the job settles or the context is done.
func (o *Orchestrator) Wait(ctx context.Context, jobID string) error {
	o.mu.Lock()
	ch, ok := o.done[jobID]
	o.mu.Unlock()
	if !ok {
		return &model.NotFoundError{Kind: "job", ID: jobID}
	}

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Orchestrator) run(ctx context.Context, jobID string, images []ImageInput, concurrency int) {
	start := time.Now()
	o.store.Update(jobID, func(j *model.BatchJob) {
		j.Status = model.StatusProcessing
	})

	g := new(errgroup.Group)
	g.SetLimit(concurrency)
	for i, img := range images {
		g.Go(func() error {
			res := o.processItem(ctx, jobID, i, img)
			o.store.Update(jobID, func(j *model.BatchJob) {
				j.Results[i] = res
				if res.Status == model.StatusCompleted {
					j.Completed++
				} else {
					j.Failed++
				}
			})
			return nil
		})
	}
	_ = g.Wait()

	var completed, failed int
	o.store.Update(jobID, func(j *model.BatchJob) {
		if j.Completed == 0 {
			j.Status = model.StatusFailed
		} else {
			j.Status = model.StatusCompleted
		}
		now := time.Now().UTC()
		j.CompletedAt = &now
		completed, failed = j.Completed, j.Failed
	})

	o.mu.Lock()
	ch := o.done[jobID]
	o.mu.Unlock()
	close(ch)

	zap.L().Info("batch settled",
		zap.String("job_id", jobID),
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Duration("elapsed", time.Since(start)),
	)
}

// processItem runs one item and contains any panic from the processor so a
// single bad image cannot take down the batch.
func (o *Orchestrator) processItem(ctx context.Context, jobID string, idx int, img ImageInput) (res model.ItemResult) {
	id := fmt.Sprintf("%s_image_%d", jobID, idx)
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("item processing panicked",
				zap.String("job_id", jobID),
				zap.String("image", img.Filename),
				zap.Any("panic", r),
			)
			res = model.ItemResult{
				ID:           id,
				Filename:     img.Filename,
				Status:       model.StatusFailed,
				Outcome:      model.OutcomeExtractionFailed,
				ErrorMessage: fmt.Sprintf("panic: %v", r),
			}
		}
	}()
	return o.processor.Process(ctx, img.Data, img.Filename, id)
}
