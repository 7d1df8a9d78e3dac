// Package document runs the per-document Thai processing pipeline:
// detect Thai content in the searchable fields, segment it compound-aware,
// inject word markers, and attach index metadata alongside the original
// fields.
package document

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/thaisearch/thaitok/internal/token"
	"github.com/thaisearch/thaitok/internal/tokenizer"
	"github.com/thaisearch/thaitok/pkg/version"
)

// Status is the per-document processing outcome.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusProcessing Status = "Processing"
	StatusCompleted  Status = "Completed"
	StatusSkipped    Status = "Skipped"
	StatusFailed     Status = "Failed"
)

// Metadata describes how a document was processed.
type Metadata struct {
	Language            string  `json:"language"`
	TokenizationVersion string  `json:"tokenization_version"`
	ProcessedAt         string  `json:"processed_at"`
	ProcessingTimeMS    float64 `json:"processing_time_ms"`
	TokenCount          int     `json:"token_count"`
	ThaiContentDetected bool    `json:"thai_content_detected"`
	MixedContent        bool    `json:"mixed_content"`
	Error               string  `json:"error,omitempty"`
}

// ProcessedDocument is the pipeline output for one document.
type ProcessedDocument struct {
	ID              string         `json:"id"`
	OriginalFields  map[string]any `json:"original_fields"`
	TokenizedFields map[string]any `json:"tokenized_fields"`
	Metadata        Metadata       `json:"metadata"`
	Status          Status         `json:"status"`
	Engine          string         `json:"engine,omitempty"`
}

// IndexPayload renders the document-on-the-wire shape for the search
// engine: original fields verbatim plus the derived Thai fields and
// metadata.
func (d *ProcessedDocument) IndexPayload() map[string]any {
	payload := make(map[string]any, len(d.OriginalFields)+3)
	for k, v := range d.OriginalFields {
		payload[k] = v
	}
	for k, v := range d.TokenizedFields {
		payload[k] = v
	}
	payload["metadata"] = d.Metadata
	return payload
}

// Processor runs the pipeline for single documents. Safe for concurrent
// use: the segmenter and post-processor hold no per-call state.
type Processor struct {
	segmenter  *tokenizer.Segmenter
	post       *token.Processor
	fields     []string
	primaryKey string
	logger     *slog.Logger
}

// NewProcessor builds a document processor scanning the given fields.
// primaryKey is the attribute holding the document id (usually "id").
func NewProcessor(seg *tokenizer.Segmenter, post *token.Processor, fields []string, primaryKey string, logger *slog.Logger) *Processor {
	if len(fields) == 0 {
		fields = []string{"title", "content"}
	}
	if primaryKey == "" {
		primaryKey = "id"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		segmenter:  seg,
		post:       post,
		fields:     fields,
		primaryKey: primaryKey,
		logger:     logger,
	}
}

// ExtractID pulls the document id using the configured primary key.
func (p *Processor) ExtractID(doc map[string]any) string {
	return extractID(doc, p.primaryKey)
}

// Process runs the full per-document contract. It never panics: any
// internal failure becomes a Failed document with a short message.
func (p *Processor) Process(ctx context.Context, doc map[string]any) (result *ProcessedDocument) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("document processing panicked", "panic", r)
			result = &ProcessedDocument{
				ID:             extractID(doc, p.primaryKey),
				OriginalFields: doc,
				Status:         StatusFailed,
				Metadata: Metadata{
					Language:            "th",
					TokenizationVersion: version.TokenizerVersion,
					ProcessedAt:         time.Now().UTC().Format(time.RFC3339),
					ProcessingTimeMS:    elapsedMS(start),
					Error:               fmt.Sprintf("internal error: %v", r),
				},
			}
		}
	}()

	id := extractID(doc, p.primaryKey)
	if id == "" {
		return p.failed(doc, "", start, "document is missing the primary key")
	}

	scanText := p.composeScanText(doc)
	if !tokenizer.ContainsThai(scanText) {
		// No Thai content: forwarded to the engine unchanged.
		return &ProcessedDocument{
			ID:              id,
			OriginalFields:  doc,
			TokenizedFields: map[string]any{},
			Status:          StatusSkipped,
			Metadata: Metadata{
				Language:            "th",
				TokenizationVersion: version.TokenizerVersion,
				ProcessedAt:         time.Now().UTC().Format(time.RFC3339),
				ProcessingTimeMS:    elapsedMS(start),
				ThaiContentDetected: false,
			},
		}
	}

	thaiRuns := extractThaiRuns(scanText)
	mixed := len(strings.TrimSpace(scanText)) > 0 && strings.Join(thaiRuns, "") != strings.TrimSpace(scanText)

	var processedRuns []string
	var engineLabel string
	tokenCount := 0

	for _, run := range thaiRuns {
		res, err := p.segmenter.SegmentCompound(ctx, run)
		if err != nil {
			return p.failed(doc, id, start, fmt.Sprintf("segmentation failed: %v", err))
		}
		engineLabel = res.Engine
		processed := p.post.Process(res)
		tokenCount += len(processed)
		processedRuns = append(processedRuns, token.Render(processed))
	}

	if tokenCount == 0 {
		return p.failed(doc, id, start, "thai content produced no tokens")
	}

	return &ProcessedDocument{
		ID:             id,
		OriginalFields: doc,
		TokenizedFields: map[string]any{
			"thai_content":      strings.Join(thaiRuns, ""),
			"tokenized_content": strings.Join(processedRuns, " "),
		},
		Status: StatusCompleted,
		Engine: engineLabel,
		Metadata: Metadata{
			Language:            "th",
			TokenizationVersion: version.TokenizerVersion,
			ProcessedAt:         time.Now().UTC().Format(time.RFC3339),
			ProcessingTimeMS:    elapsedMS(start),
			TokenCount:          tokenCount,
			ThaiContentDetected: true,
			MixedContent:        mixed,
		},
	}
}

func (p *Processor) failed(doc map[string]any, id string, start time.Time, msg string) *ProcessedDocument {
	return &ProcessedDocument{
		ID:             id,
		OriginalFields: doc,
		Status:         StatusFailed,
		Metadata: Metadata{
			Language:            "th",
			TokenizationVersion: version.TokenizerVersion,
			ProcessedAt:         time.Now().UTC().Format(time.RFC3339),
			ProcessingTimeMS:    elapsedMS(start),
			Error:               msg,
		},
	}
}

// composeScanText concatenates the configured searchable fields.
// Non-string values are skipped; they cannot hold Thai text.
func (p *Processor) composeScanText(doc map[string]any) string {
	var b strings.Builder
	for _, field := range p.fields {
		if v, ok := doc[field].(string); ok && v != "" {
			if b.Len() > 0 {
				b.WriteString(" ")
			}
			b.WriteString(v)
		}
	}
	return b.String()
}

// extractThaiRuns returns the maximal Thai runs of text in input order.
func extractThaiRuns(text string) []string {
	var runs []string
	var cur []rune
	for _, r := range text {
		if tokenizer.IsThaiRune(r) {
			cur = append(cur, r)
			continue
		}
		if len(cur) > 0 {
			runs = append(runs, string(cur))
			cur = cur[:0]
		}
	}
	if len(cur) > 0 {
		runs = append(runs, string(cur))
	}
	return runs
}

// extractID pulls the primary key out of the document, accepting string
// and numeric forms.
func extractID(doc map[string]any, primaryKey string) string {
	switch v := doc[primaryKey].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%f", v), "0"), ".")
	case int:
		return fmt.Sprintf("%d", v)
	case int64:
		return fmt.Sprintf("%d", v)
	default:
		return ""
	}
}

func elapsedMS(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
