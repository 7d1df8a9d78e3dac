package tokenizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/thaisearch/thaitok/internal/errors"
)

// Engine tags for the selectable segmentation backends.
const (
	EngineNewMM   = "newmm"   // dictionary-based with TCC, the default
	EngineAttaCut = "attacut" // deep learning based
	EngineDeepCut = "deepcut" // deep learning based
	// EngineFallbackChar labels results produced by the character-level
	// fallback when the backend is unavailable.
	EngineFallbackChar = "fallback_char"
)

// compoundRetryOrder is the fixed order in which other engines are tried
// when re-segmenting a compound candidate.
var compoundRetryOrder = []string{EngineAttaCut, EngineDeepCut, EngineNewMM}

// BackendOptions carries per-call segmentation options.
type BackendOptions struct {
	// Engine is the segmentation engine tag (newmm, attacut, deepcut).
	Engine string

	// CustomDict, when non-empty, is used as the sole vocabulary for a
	// custom variant of the engine.
	CustomDict []string

	// KeepWhitespace preserves whitespace tokens in the output.
	KeepWhitespace bool
}

// Backend is the injected Thai segmentation capability. Given a string and
// an engine tag it returns an ordered list of surface tokens whose
// concatenation equals the input (with whitespace preserved when requested).
//
// Implementations must be safe for concurrent use.
type Backend interface {
	SegmentWords(ctx context.Context, text string, opts BackendOptions) ([]string, error)
}

// tokenizeRequest is the wire request for a PyThaiNLP-style service.
type tokenizeRequest struct {
	Text           string   `json:"text"`
	Engine         string   `json:"engine,omitempty"`
	CustomDict     []string `json:"custom_dict,omitempty"`
	KeepWhitespace bool     `json:"keep_whitespace,omitempty"`
}

// tokenizeResponse is the wire response.
type tokenizeResponse struct {
	Tokens []string `json:"tokens"`
}

// HTTPBackendConfig configures the remote segmentation backend.
type HTTPBackendConfig struct {
	// BaseURL is the service root, e.g. http://localhost:8020.
	BaseURL string

	// Timeout bounds a single segmentation call (default: 10s).
	Timeout time.Duration

	// PoolSize is the HTTP connection pool size (default: 10).
	PoolSize int
}

// HTTPBackend calls a PyThaiNLP-style tokenization service over HTTP.
// The service exposes POST /tokenize accepting {text, engine, custom_dict,
// keep_whitespace} and returning {tokens}.
type HTTPBackend struct {
	client  *http.Client
	baseURL string
	timeout time.Duration
}

var _ Backend = (*HTTPBackend)(nil)

// NewHTTPBackend creates a backend client with connection pooling.
func NewHTTPBackend(cfg HTTPBackendConfig) *HTTPBackend {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 10
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.PoolSize,
		MaxIdleConnsPerHost: cfg.PoolSize,
		MaxConnsPerHost:     cfg.PoolSize * 2,
		IdleConnTimeout:     30 * time.Second,
	}

	// No client-level timeout: the per-request context carries it, so a
	// caller-supplied deadline is never silently overridden.
	return &HTTPBackend{
		client:  &http.Client{Transport: transport},
		baseURL: cfg.BaseURL,
		timeout: cfg.Timeout,
	}
}

// SegmentWords implements Backend.
func (b *HTTPBackend) SegmentWords(ctx context.Context, text string, opts BackendOptions) ([]string, error) {
	reqBody := tokenizeRequest{
		Text:           text,
		Engine:         opts.Engine,
		CustomDict:     opts.CustomDict,
		KeepWhitespace: opts.KeepWhitespace,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSegmenterBackend, err)
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/tokenize", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSegmenterBackend, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSegmenterBackend, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, errors.New(errors.ErrCodeSegmenterBackend,
			fmt.Sprintf("tokenize service returned %d: %s", resp.StatusCode, body), nil)
	}

	var parsed tokenizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSegmenterBackend, err)
	}

	return parsed.Tokens, nil
}

// Health checks the segmentation service liveness endpoint.
func (b *HTTPBackend) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/health", nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSegmenterBackend, err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSegmenterBackend, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return errors.New(errors.ErrCodeSegmenterBackend,
			fmt.Sprintf("tokenize service unhealthy: %d", resp.StatusCode), nil)
	}
	return nil
}
