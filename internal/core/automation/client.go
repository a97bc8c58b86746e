package automation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

var ErrWebhookNotConfigured = errors.New("workflow webhook url is not configured")

// WebhookError is returned when the workflow answers with a non-2xx status
type WebhookError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *WebhookError) Error() string {
	return fmt.Sprintf("workflow trigger failed: %s", e.Status)
}

// Client triggers n8n webhook workflows
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// NewClientWithHTTP uses a caller-supplied HTTP client
func NewClientWithHTTP(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// Trigger POSTs payload as JSON to webhookURL and decodes the JSON reply.
// n8n "respond to webhook" nodes may answer with a one-element array; the
// first object is returned in that case.
func (c *Client) Trigger(ctx context.Context, webhookURL string, payload interface{}) (map[string]interface{}, error) {
	if webhookURL == "" {
		return nil, ErrWebhookNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("workflow request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &WebhookError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(respBody)}
	}

	log.Printf("🔗 Workflow webhook answered %d in %s", resp.StatusCode, time.Since(started).Round(time.Millisecond))
	return decodeResult(respBody)
}

func decodeResult(body []byte) (map[string]interface{}, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return map[string]interface{}{}, nil
	}

	if body[0] == '[' {
		var list []map[string]interface{}
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode workflow response: %w", err)
		}
		if len(list) == 0 {
			return map[string]interface{}{}, nil
		}
		return list[0], nil
	}

	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode workflow response: %w", err)
	}
	return out, nil
}

// String reads a string field from a workflow result
func String(result map[string]interface{}, key string) string {
	if v, ok := result[key].(string); ok {
		return v
	}
	return ""
}
