// Package api talks to the exploration backend: one streaming chat
// endpoint plus a handful of conventional JSON request/response pairs.
// Transient failures retry with exponential backoff; client errors
// (4xx) never do.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
)

// Config tunes the client. Zero fields take defaults.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	MaxRetries uint64
}

// Client is the backend HTTP client. Safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	maxRetries uint64
}

// StatusError is a non-2xx backend reply.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Body)
}

// NewClient builds a client for the given backend.
func NewClient(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 3
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
	}
}

// IdentifyImage names the object in a photo.
func (c *Client) IdentifyImage(ctx context.Context, req IdentifyRequest) (IdentifyResponse, error) {
	var resp IdentifyResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/identify-image", req, &resp)
	return resp, err
}

// GenerateCards requests knowledge cards for an identified object.
func (c *Client) GenerateCards(ctx context.Context, req GenerateCardsRequest) ([]model.KnowledgeCard, error) {
	var resp GenerateCardsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/generate-cards", req, &resp); err != nil {
		return nil, err
	}
	return resp.Normalized()
}

// CreateShare publishes an exploration for sharing.
func (c *Client) CreateShare(ctx context.Context, req CreateShareRequest) (ShareResponse, error) {
	var resp ShareResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/share", req, &resp)
	return resp, err
}

// GetShare fetches a published share by id.
func (c *Client) GetShare(ctx context.Context, shareID string) (ShareResponse, error) {
	var resp ShareResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/share/"+shareID, nil, &resp)
	return resp, err
}

// GenerateReport fetches the learning summary for one day.
func (c *Client) GenerateReport(ctx context.Context, req ReportRequest) (ReportResponse, error) {
	var resp ReportResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/report", req, &resp)
	return resp, err
}

// BadgeStats fetches badge unlock progress.
func (c *Client) BadgeStats(ctx context.Context) (BadgeStatsResponse, error) {
	var resp BadgeStatsResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/badges", nil, &resp)
	return resp, err
}

// doJSON performs one request/response pair with retry. The request
// body is re-marshaled per attempt, never streamed, so retries are
// safe.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	if in != nil {
		if err := model.ValidateStruct(in); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}

	attempt := 0
	op := func() error {
		attempt++
		var body io.Reader
		if in != nil {
			payload, err := json.Marshal(in)
			if err != nil {
				return backoff.Permanent(fmt.Errorf("encode request: %w", err))
			}
			body = bytes.NewReader(payload)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return backoff.Permanent(err)
		}
		if in != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			logging.API("%s %s attempt %d failed: %v", method, path, attempt, err)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			statusErr := &StatusError{Status: resp.StatusCode, Body: string(raw)}
			if retryable(resp.StatusCode) {
				logging.API("%s %s attempt %d: %v", method, path, attempt, statusErr)
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		if out != nil {
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return backoff.Permanent(fmt.Errorf("decode response: %w", err))
			}
		}
		return nil
	}

	return backoff.Retry(op, c.newBackOff(ctx))
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 200 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	return backoff.WithContext(backoff.WithMaxRetries(exp, c.maxRetries), ctx)
}

// retryable mirrors the usual HTTP classification: 5xx and the two
// transient 4xx codes retry, every other 4xx is a caller bug.
func retryable(status int) bool {
	switch {
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests:
		return true
	case status >= 500:
		return true
	default:
		return false
	}
}
