package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gloirembonyi/excel-data-extracter/internal/batch"
	"github.com/gloirembonyi/excel-data-extracter/internal/extract"
	"github.com/gloirembonyi/excel-data-extracter/internal/resilience"
	"github.com/gloirembonyi/excel-data-extracter/internal/store"
	"github.com/gloirembonyi/excel-data-extracter/pkg/gemini"
)

// openStore builds the configured store backend.
func openStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite", "":
		return store.NewSQLite(cfg.Store.Path)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// newProcessor builds the image processor from config: API client, credential
// pool, and retry policy.
func newProcessor() (*extract.Processor, error) {
	pool, err := extract.NewStaticPool(cfg.Gemini.Keys, extract.RotationStrategy(cfg.Gemini.RotationStrategy))
	if err != nil {
		return nil, err
	}

	client := gemini.New(gemini.Options{
		Endpoint:          cfg.Gemini.Endpoint,
		Model:             cfg.Gemini.Model,
		Timeout:           time.Duration(cfg.Gemini.TimeoutSecs) * time.Second,
		RequestsPerSecond: cfg.Gemini.RequestsPerSecond,
	})

	return extract.NewProcessor(client, pool, extract.ProcessorConfig{
		MaxRetries:     cfg.Batch.MaxRetries,
		AttemptTimeout: time.Duration(cfg.Batch.AttemptTimeoutSecs) * time.Second,
		Backoff:        resilience.DefaultBackoff(),
	}), nil
}

// newOrchestrator wires a batch orchestrator around the processor.
func newOrchestrator(processor batch.ItemProcessor) *batch.Orchestrator {
	return batch.NewOrchestrator(processor, batch.NewMemoryStore(), batch.Config{
		DefaultConcurrency: cfg.Batch.MaxConcurrent,
		MaxConcurrency:     cfg.Batch.MaxConcurrentCap,
		MaxBatchSize:       cfg.Batch.MaxImages,
	})
}
