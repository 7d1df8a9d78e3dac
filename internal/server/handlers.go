package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/thaisearch/thaitok/internal/batch"
	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/meili"
	"github.com/thaisearch/thaitok/internal/telemetry"
	"github.com/thaisearch/thaitok/internal/tokenizer"
)

// maxBodyBytes bounds request bodies. Bulk document posts carry whole
// batches, so the cap is generous.
const maxBodyBytes = 32 << 20

type tokenizeRequest struct {
	Text               string `json:"text"`
	Engine             string `json:"engine,omitempty"`
	CompoundProcessing bool   `json:"compound_processing,omitempty"`
}

type tokenizeResponse struct {
	Tokens           []string `json:"tokens"`
	Engine           string   `json:"engine"`
	FallbackUsed     bool     `json:"fallback_used"`
	ProcessingTimeMS float64  `json:"processing_time_ms"`
}

func (s *Server) handleTokenize(w http.ResponseWriter, r *http.Request) {
	var req tokenizeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Text == "" {
		writeError(w, errors.ValidationError("text must not be empty", nil))
		return
	}

	seg := s.deps.Segmenter
	if req.Engine != "" && req.Engine != seg.Engine() {
		// Per-request engine override shares the backend and dictionary.
		seg = tokenizer.NewSegmenter(s.deps.Backend, req.Engine, seg.Dictionary())
	}

	var res *tokenizer.SegmentationResult
	var err error
	if req.CompoundProcessing {
		res, err = seg.SegmentCompound(r.Context(), req.Text)
	} else {
		res, err = seg.Segment(r.Context(), req.Text)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	if s.deps.Recorder != nil {
		s.deps.Recorder.RecordSegmentation(telemetry.SegmentationEvent{
			EngineLabel:  res.Engine,
			TokenCount:   len(res.Tokens),
			FallbackUsed: res.FallbackUsed,
			Latency:      time.Duration(res.ElapsedMS * float64(time.Millisecond)),
		})
	}

	writeJSON(w, http.StatusOK, tokenizeResponse{
		Tokens:           res.Surfaces(),
		Engine:           res.Engine,
		FallbackUsed:     res.FallbackUsed,
		ProcessingTimeMS: res.ElapsedMS,
	})
}

type queryRequest struct {
	Query string `json:"query"`
}

func (s *Server) handleTokenizeQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	res, err := s.deps.Query.Process(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type documentsRequest struct {
	Index            string           `json:"index,omitempty"`
	Documents        []map[string]any `json:"documents"`
	PreserveOriginal bool             `json:"preserve_original,omitempty"`
	DryRun           bool             `json:"dry_run,omitempty"`
}

func (s *Server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	var req documentsRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Documents) == 0 {
		writeError(w, errors.ValidationError("documents must not be empty", nil))
		return
	}

	index := req.Index
	if index == "" {
		index = s.deps.Config.SearchEngine.Index
	}

	proc := s.deps.Config.Processing
	result := s.deps.Batch.Run(r.Context(), req.Documents, batch.Options{
		BatchSize:     proc.BatchSize,
		MaxConcurrent: proc.MaxConcurrent,
		MaxRetries:    proc.MaxRetries,
		Index:         index,
		DryRun:        req.DryRun,
	})
	writeJSON(w, http.StatusOK, result)
}

type enhanceRequest struct {
	Query   string                `json:"query"`
	Results *meili.SearchResponse `json:"results"`
}

func (s *Server) handleEnhance(w http.ResponseWriter, r *http.Request) {
	var req enhanceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Results == nil {
		writeError(w, errors.ValidationError("results must not be empty", nil))
		return
	}

	q, err := s.deps.Query.Process(r.Context(), req.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, s.deps.Enhancer.Enhance(r.Context(), q, req.Results))
}

type healthResponse struct {
	Status       string            `json:"status"`
	Dependencies map[string]string `json:"dependencies"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Dependencies: map[string]string{}}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if s.deps.Engine != nil {
		if err := s.deps.Engine.Health(ctx); err != nil {
			resp.Dependencies["search_engine"] = "unhealthy"
			resp.Status = "unhealthy"
		} else {
			resp.Dependencies["search_engine"] = "healthy"
		}
	} else {
		resp.Dependencies["search_engine"] = "unknown"
	}

	if s.deps.Backend != nil {
		if err := s.deps.Backend.Health(ctx); err != nil {
			// The segmenter degrades to the character fallback, so a dead
			// backend is reported but does not flip overall health.
			resp.Dependencies["segmentation_backend"] = "unhealthy"
		} else {
			resp.Dependencies["segmentation_backend"] = "healthy"
		}
	} else {
		resp.Dependencies["segmentation_backend"] = "unknown"
	}

	code := http.StatusOK
	if resp.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, errors.ValidationError("invalid JSON body: "+err.Error(), err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := http.StatusInternalServerError

	switch errors.GetCategory(err) {
	case errors.CategoryValidation:
		status = http.StatusBadRequest
	case errors.CategoryNetwork:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
