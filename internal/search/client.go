// Package search sends assembled query documents to an Elasticsearch
// compatible backend.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/roach88/querydsl/internal/dsl"
)

// DefaultTimeout bounds one search request.
const DefaultTimeout = 30 * time.Second

// Sink executes a search document against an index.
type Sink interface {
	Search(ctx context.Context, index string, doc dsl.Object) (*Response, error)
}

// Response is the part of a _search response callers read.
type Response struct {
	Took     int  `json:"took"`
	TimedOut bool `json:"timed_out"`
	Hits     Hits `json:"hits"`
}

// Hits is the hits envelope of a search response.
type Hits struct {
	Total Total `json:"total"`
	Hits  []Hit `json:"hits"`
}

// Total is the hit count; Relation is "eq" or "gte".
type Total struct {
	Value    int    `json:"value"`
	Relation string `json:"relation"`
}

// Hit is one matched document.
type Hit struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Score  *float64        `json:"_score"`
	Source json.RawMessage `json:"_source,omitempty"`
	Sort   []any           `json:"sort,omitempty"`
}

// BackendError is a non-2xx answer from the backend.
type BackendError struct {
	Status int
	Type   string
	Reason string
}

func (e *BackendError) Error() string {
	if e.Type == "" {
		return fmt.Sprintf("search backend returned %d: %s", e.Status, e.Reason)
	}
	return fmt.Sprintf("search backend returned %d: %s: %s", e.Status, e.Type, e.Reason)
}

// Client is a Sink talking HTTP to one endpoint.
//
// Thread-safety: a Client may be shared between goroutines.
type Client struct {
	http   *resty.Client
	logger *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.SetTimeout(d) }
}

// WithBasicAuth sends credentials with every request.
func WithBasicAuth(user, password string) Option {
	return func(c *Client) {
		if user != "" {
			c.http.SetBasicAuth(user, password)
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient returns a client for the backend at endpoint,
// e.g. "http://localhost:9200".
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, errors.New("search endpoint is required")
	}
	c := &Client{
		http: resty.New().
			SetBaseURL(endpoint).
			SetHeader("Content-Type", "application/json").
			SetTimeout(DefaultTimeout),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search posts doc to <endpoint>/<index>/_search.
func (c *Client) Search(ctx context.Context, index string, doc dsl.Object) (*Response, error) {
	if strings.TrimSpace(index) == "" {
		return nil, errors.New("search index is required")
	}
	if doc == nil {
		doc = dsl.Object{}
	}
	body, err := dsl.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode search document: %w", err)
	}

	c.logger.Debug("search request", "index", index, "bytes", len(body))
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("index", index).
		SetBody(body).
		Post("/{index}/_search")
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", index, err)
	}
	c.logger.Debug("search response", "index", index, "status", resp.StatusCode(), "duration", resp.Time())

	if resp.IsError() {
		return nil, backendError(resp.StatusCode(), resp.Body())
	}

	var out Response
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &out, nil
}

// errorEnvelope matches {"error": {...} | "text", "status": n}.
type errorEnvelope struct {
	Error  json.RawMessage `json:"error"`
	Status int             `json:"status"`
}

type errorCause struct {
	Type      string       `json:"type"`
	Reason    string       `json:"reason"`
	RootCause []errorCause `json:"root_cause"`
}

func backendError(status int, body []byte) *BackendError {
	be := &BackendError{Status: status}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil || len(env.Error) == 0 {
		be.Reason = strings.TrimSpace(string(body))
		if be.Reason == "" {
			be.Reason = http.StatusText(status)
		}
		return be
	}

	var text string
	if err := json.Unmarshal(env.Error, &text); err == nil {
		be.Reason = text
		return be
	}
	var cause errorCause
	if err := json.Unmarshal(env.Error, &cause); err == nil {
		be.Type, be.Reason = cause.Type, cause.Reason
		if be.Reason == "" && len(cause.RootCause) > 0 {
			be.Type, be.Reason = cause.RootCause[0].Type, cause.RootCause[0].Reason
		}
	}
	return be
}
