package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"wonderlens/internal/logging"
	"wonderlens/internal/model"
)

// StartStream opens the chat stream and hands the raw response body to
// the caller, who feeds it to the decoder's read loop. The body stays
// bound to ctx: cancelling it aborts reads in flight. The caller owns
// closing the body.
//
// The initiating POST itself is not retried; a half-consumed stream
// cannot be replayed safely.
func (c *Client) StartStream(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	if err := model.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("stream request: %w", err)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode stream request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat/stream", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	// The client-wide timeout would kill a long-lived stream mid-answer;
	// stream requests rely on ctx alone.
	streamClient := &http.Client{Transport: c.httpClient.Transport}
	resp, err := streamClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &StatusError{Status: resp.StatusCode, Body: string(raw)}
	}

	logging.APIDebug("Stream opened (session=%s type=%s)", req.SessionID, req.MessageType)
	return resp.Body, nil
}
