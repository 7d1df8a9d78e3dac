// Package meili is a minimal HTTP client for a Meilisearch-compatible
// search engine: bulk document add, settings publication, task polling,
// search, and health.
package meili

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/thaisearch/thaitok/internal/errors"
	"github.com/thaisearch/thaitok/internal/settings"
)

// DefaultTimeout bounds each engine call.
const DefaultTimeout = 30 * time.Second

// defaultPollInterval is how often WaitForTask polls.
const defaultPollInterval = 250 * time.Millisecond

// Task statuses reported by the engine.
const (
	TaskEnqueued   = "enqueued"
	TaskProcessing = "processing"
	TaskSucceeded  = "succeeded"
	TaskFailed     = "failed"
)

// Config holds connection parameters for the search engine.
type Config struct {
	Host       string
	Port       int
	APIKey     string
	SSL        bool
	Timeout    time.Duration
	PrimaryKey string
}

// BaseURL renders the engine base URL from host, port, and SSL flag.
func (c Config) BaseURL() string {
	scheme := "http"
	if c.SSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, c.Port)
}

// Client talks to the search engine. Safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	primaryKey string
	timeout    time.Duration
	httpClient *http.Client
	breaker    *errors.CircuitBreaker
	logger     *slog.Logger
}

// TaskRef is the engine's handle for an asynchronous operation.
type TaskRef struct {
	TaskUID int64 `json:"taskUid"`
}

// Task is the polled state of an asynchronous operation.
type Task struct {
	UID    int64  `json:"uid"`
	Status string `json:"status"`
	Error  *struct {
		Message string `json:"message"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// SearchRequest is the engine search body.
type SearchRequest struct {
	Query                 string   `json:"q"`
	Limit                 int      `json:"limit,omitempty"`
	Offset                int      `json:"offset,omitempty"`
	AttributesToHighlight []string `json:"attributesToHighlight,omitempty"`
	HighlightPreTag       string   `json:"highlightPreTag,omitempty"`
	HighlightPostTag      string   `json:"highlightPostTag,omitempty"`
	Filter                string   `json:"filter,omitempty"`
}

// SearchResponse is the engine search result.
type SearchResponse struct {
	Hits               []map[string]any `json:"hits"`
	ProcessingTimeMs   int64            `json:"processingTimeMs"`
	EstimatedTotalHits int64            `json:"estimatedTotalHits"`
	Query              string           `json:"query"`
}

// NewClient builds a client from config. The underlying transport pools
// connections; per-call deadlines come from request contexts, so the
// http.Client itself carries no timeout.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	transport := &http.Transport{
		MaxIdleConns:        20,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL:    cfg.BaseURL(),
		apiKey:     cfg.APIKey,
		primaryKey: cfg.PrimaryKey,
		timeout:    cfg.Timeout,
		httpClient: &http.Client{Transport: transport},
		breaker:    errors.NewCircuitBreaker("search-engine"),
		logger:     logger,
	}
}

// AddDocuments bulk-adds documents to an index and returns the task ref.
func (c *Client) AddDocuments(ctx context.Context, index string, docs []map[string]any) (*TaskRef, error) {
	path := fmt.Sprintf("/indexes/%s/documents", index)
	if c.primaryKey != "" {
		path += "?primaryKey=" + c.primaryKey
	}
	var ref TaskRef
	err := c.do(ctx, http.MethodPost, path, docs, &ref)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// UpdateSettings publishes a settings bundle to an index.
func (c *Client) UpdateSettings(ctx context.Context, index string, s *settings.Settings) (*TaskRef, error) {
	var ref TaskRef
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/indexes/%s/settings", index), s, &ref)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

// GetTask fetches the current state of a task.
func (c *Client) GetTask(ctx context.Context, uid int64) (*Task, error) {
	var task Task
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", uid), nil, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

// WaitForTask polls until the task succeeds, fails, or ctx expires.
func (c *Client) WaitForTask(ctx context.Context, uid int64) (*Task, error) {
	ticker := time.NewTicker(defaultPollInterval)
	defer ticker.Stop()

	for {
		task, err := c.GetTask(ctx, uid)
		if err != nil {
			return nil, err
		}
		switch task.Status {
		case TaskSucceeded:
			return task, nil
		case TaskFailed:
			msg := "task failed"
			if task.Error != nil {
				msg = task.Error.Message
			}
			return task, errors.New(errors.ErrCodeTaskFailed, msg, nil).
				WithDetail("task_uid", strconv.FormatInt(uid, 10))
		}

		select {
		case <-ctx.Done():
			return task, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Search runs a query against an index.
func (c *Client) Search(ctx context.Context, index string, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/indexes/%s/search", index), req, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health probes the engine's liveness endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

// do issues one JSON request under the circuit breaker with the
// client's per-call timeout.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	return c.breaker.Execute(func() error {
		ctx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		var reader io.Reader
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return errors.New(errors.ErrCodeInternal, "encode request body: "+err.Error(), err)
			}
			reader = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return errors.New(errors.ErrCodeInternal, "build request: "+err.Error(), err)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("Authorization", "Bearer "+c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return errors.New(errors.ErrCodeEngineUnavailable,
				fmt.Sprintf("search engine unreachable: %s %s: %v", method, path, err), err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			return errors.EngineError(resp.StatusCode,
				fmt.Sprintf("%s %s: %s", method, path, truncate(string(data), 200)))
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return errors.New(errors.ErrCodeEngineRejected, "decode engine response: "+err.Error(), err)
			}
		}
		return nil
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
