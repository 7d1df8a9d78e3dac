// Package batch fans documents out through the per-document pipeline
// under bounded concurrency, then ships completed work to the search
// engine in bulk chunks with retry.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/thaisearch/thaitok/internal/document"
	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/meili"
)

// DocError records one failed document inside a batch.
type DocError struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Result aggregates one batch run.
// Total always equals Completed + Failed + Skipped.
type Result struct {
	BatchID   string                        `json:"batch_id"`
	Total     int                           `json:"total"`
	Completed int                           `json:"completed"`
	Failed    int                           `json:"failed"`
	Skipped   int                           `json:"skipped"`
	ElapsedMS float64                       `json:"elapsed_ms"`
	Documents []*document.ProcessedDocument `json:"documents"`
	Errors    []DocError                    `json:"errors"`
	TaskUIDs  []int64                       `json:"task_uids"`
}

// Indexer is the slice of the search-engine client the batch engine
// needs. Satisfied by *meili.Client.
type Indexer interface {
	AddDocuments(ctx context.Context, index string, docs []map[string]any) (*meili.TaskRef, error)
}

// Options tunes a batch run.
type Options struct {
	// BatchSize is how many documents one bulk-add call carries.
	BatchSize int
	// MaxConcurrent limits parallel per-document processing.
	MaxConcurrent int
	// MaxRetries bounds bulk-add retries per chunk.
	MaxRetries int
	// Index is the target index name.
	Index string
	// DryRun processes documents without calling the search engine.
	DryRun bool
	// RetryDelay overrides the initial backoff delay. Zero keeps the
	// default policy.
	RetryDelay time.Duration
}

func (o *Options) applyDefaults() {
	if o.BatchSize <= 0 {
		o.BatchSize = 100
	}
	if o.MaxConcurrent <= 0 {
		o.MaxConcurrent = 10
	}
	if o.MaxRetries < 0 {
		o.MaxRetries = 0
	}
	if o.Index == "" {
		o.Index = "documents"
	}
}

// Engine runs document batches.
type Engine struct {
	processor *document.Processor
	indexer   Indexer
	logger    *slog.Logger
}

// NewEngine builds a batch engine. indexer may be nil for dry runs only.
func NewEngine(processor *document.Processor, indexer Indexer, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{processor: processor, indexer: indexer, logger: logger}
}

// Run processes docs and indexes the results.
//
// Cancellation is not an error: documents not yet started are marked
// Skipped and a valid partial Result is returned. Search-engine failures
// are recorded in Result.Errors and never abort remaining chunks.
func (e *Engine) Run(ctx context.Context, docs []map[string]any, opts Options) *Result {
	opts.applyDefaults()
	start := time.Now()

	result := &Result{
		BatchID:   uuid.NewString(),
		Total:     len(docs),
		Documents: make([]*document.ProcessedDocument, len(docs)),
	}

	e.processAll(ctx, docs, opts, result)

	for i, doc := range result.Documents {
		switch doc.Status {
		case document.StatusCompleted:
			result.Completed++
		case document.StatusSkipped:
			result.Skipped++
		default:
			result.Failed++
			result.Errors = append(result.Errors, DocError{
				Index:   i,
				ID:      doc.ID,
				Message: doc.Metadata.Error,
			})
		}
	}

	if !opts.DryRun && e.indexer != nil {
		e.indexChunks(ctx, opts, result)
	}

	result.ElapsedMS = float64(time.Since(start).Microseconds()) / 1000.0
	e.logger.Info("batch finished",
		"batch_id", result.BatchID,
		"total", result.Total,
		"completed", result.Completed,
		"failed", result.Failed,
		"skipped", result.Skipped)
	return result
}

// processAll runs the per-document pipeline under the concurrency limit,
// preserving input order in result.Documents. Once ctx is cancelled no
// new documents start; the rest are marked Skipped.
func (e *Engine) processAll(ctx context.Context, docs []map[string]any, opts Options, result *Result) {
	g := new(errgroup.Group)
	g.SetLimit(opts.MaxConcurrent)

	for i, doc := range docs {
		if ctx.Err() != nil {
			result.Documents[i] = e.skipped(doc, "batch cancelled")
			continue
		}
		g.Go(func() error {
			result.Documents[i] = e.processor.Process(ctx, doc)
			if result.Documents[i].Status == document.StatusFailed &&
				ctx.Err() != nil {
				// A cancellation mid-document reads as Skipped, not Failed.
				result.Documents[i] = e.skipped(doc, "batch cancelled")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// indexChunks groups completed and skipped documents into bulk-add
// chunks. Each chunk is retried on transient failures; a chunk that
// still fails is recorded and the rest of the batch continues.
func (e *Engine) indexChunks(ctx context.Context, opts Options, result *Result) {
	if ctx.Err() != nil {
		// Cancellation is not an error: the partial result stands and no
		// new engine calls start.
		return
	}

	var payloads []map[string]any
	var indexes []int
	for i, doc := range result.Documents {
		if doc.Status == document.StatusCompleted || doc.Status == document.StatusSkipped {
			payloads = append(payloads, doc.IndexPayload())
			indexes = append(indexes, i)
		}
	}

	for offset := 0; offset < len(payloads); offset += opts.BatchSize {
		end := min(offset+opts.BatchSize, len(payloads))
		chunk := payloads[offset:end]

		retryCfg := errors.DefaultRetryConfig()
		retryCfg.MaxRetries = opts.MaxRetries
		if opts.RetryDelay > 0 {
			retryCfg.InitialDelay = opts.RetryDelay
		}

		ref, err := errors.RetryWithResult(ctx, retryCfg, func() (*meili.TaskRef, error) {
			return e.indexer.AddDocuments(ctx, opts.Index, chunk)
		})
		if err != nil {
			e.logger.Warn("bulk add failed", "chunk_start", offset, "error", err)
			for _, docIdx := range indexes[offset:end] {
				result.Errors = append(result.Errors, DocError{
					Index:   docIdx,
					ID:      result.Documents[docIdx].ID,
					Message: fmt.Sprintf("bulk add failed: %v", err),
				})
			}
			continue
		}
		if ref != nil {
			result.TaskUIDs = append(result.TaskUIDs, ref.TaskUID)
		}
	}
}

// skipped marks a document the batch never processed. The id comes from
// the processor's configured primary key, not a hard-coded attribute.
func (e *Engine) skipped(doc map[string]any, reason string) *document.ProcessedDocument {
	return &document.ProcessedDocument{
		ID:             e.processor.ExtractID(doc),
		OriginalFields: doc,
		Status:         document.StatusSkipped,
		Metadata: document.Metadata{
			Language: "th",
			Error:    reason,
		},
	}
}
