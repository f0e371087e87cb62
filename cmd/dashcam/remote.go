package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pi3123/SmartDashcam/pkg/recording"
	"github.com/pi3123/SmartDashcam/pkg/server"
)

// adminClient talks to the admin API of a running recorder.
type adminClient struct {
	baseURL string
	http    *http.Client
}

func newAdminClient(address string, timeout time.Duration) *adminClient {
	base := strings.TrimRight(address, "/")
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	return &adminClient{baseURL: base, http: &http.Client{Timeout: timeout}}
}

// post sends body as JSON and decodes a 200 response into out. API errors
// for unserviceable windows are mapped back to their sentinels.
func (c *adminClient) post(ctx context.Context, path string, body, out any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, payload)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("recorder unreachable at %s: %w", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr server.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err != nil {
			return fmt.Errorf("recorder returned %s", resp.Status)
		}
		switch apiErr.Error.Type {
		case "invalid_window":
			return fmt.Errorf("%w (%s)", recording.ErrInvalidWindow, apiErr.Error.Message)
		case "empty_export":
			return fmt.Errorf("%w (%s)", recording.ErrEmptyExport, apiErr.Error.Message)
		}
		return fmt.Errorf("recorder returned %s: %s", resp.Status, apiErr.Error.Message)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
