package integrations

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// maxResponseBytes bounds what we read from a provider.
const maxResponseBytes = 4 << 20

var githubHeaders = map[string]string{
	"Accept":               "application/vnd.github+json",
	"X-GitHub-Api-Version": "2022-11-28",
}

var notionHeaders = map[string]string{
	"Notion-Version": "2022-06-28",
}

// upstreamError is a non-2xx answer from a provider.
type upstreamError struct {
	Status int
	Body   string
}

func (e *upstreamError) Error() string {
	return fmt.Sprintf("provider answered %d: %s", e.Status, e.Body)
}

// call sends an authenticated request and decodes a JSON answer into dst.
// body, when non-nil, is sent as JSON.
func (h *Handler) call(ctx context.Context, method, url, token string, body any, headers map[string]string, dst any) error {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, rdr)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := h.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	lr := io.LimitReader(resp.Body, maxResponseBytes)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(lr, 512))
		return &upstreamError{Status: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}
	if dst == nil {
		return nil
	}
	if err := json.NewDecoder(lr).Decode(dst); err != nil {
		return fmt.Errorf("decode provider response: %w", err)
	}
	return nil
}
