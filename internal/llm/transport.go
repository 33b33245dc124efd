package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

const maxResponseBytes = 10 * 1024 * 1024 // 10 MiB

// reply is the raw outcome of one provider exchange.
type reply struct {
	status int
	body   string
}

// ok reports a 200 response.
func (r reply) ok() bool { return r.status == http.StatusOK }

// fail formats a non-200 reply. When the provider sent a structured error
// its code and message are used, otherwise the truncated body.
func (r reply) fail(provider, code, message string) error {
	if message != "" {
		return fmt.Errorf("%s: %s: %s", provider, code, message)
	}
	return fmt.Errorf("%s: HTTP %d: %s", provider, r.status, truncate(r.body, 200))
}

// postJSON sends payload as a JSON POST with the given headers and decodes
// the answer into out, whatever the status code. Callers inspect the reply
// status after decoding so provider error bodies are available to them.
func postJSON(ctx context.Context, client *http.Client, endpoint string, headers map[string]string, payload, out any) (reply, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return reply{}, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return reply{}, fmt.Errorf("creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return reply{}, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return reply{}, fmt.Errorf("reading response body: %w", err)
	}
	r := reply{status: resp.StatusCode, body: string(data)}

	if err := json.Unmarshal(data, out); err != nil {
		return r, fmt.Errorf("parsing response JSON (HTTP %d, body: %s): %w", r.status, truncate(r.body, 200), err)
	}
	return r, nil
}
