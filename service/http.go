package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// HTTPDoJSON sends a request with the json encoding of in (if not nil) as body
// and decodes the response into out (if not nil).
// typ and id describe the targeted resource and are used to build ErrNotFound/ErrAlreadyExists.
// Returns the status code of the response.
func HTTPDoJSON(ctx context.Context, client *http.Client, method, url string, in, out interface{}, typ, id string) (int, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("HTTPDoJSON.Marshal: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, fmt.Errorf("HTTPDoJSON.NewRequest: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, MakeTemporary(fmt.Errorf("%s %s: %w", method, url, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, HTTPStatusError(resp.StatusCode, resp.Status, b, typ, id)
	}
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("HTTPDoJSON.Decode: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// HTTPPut streams the reader to the url
func HTTPPut(ctx context.Context, client *http.Client, url string, r io.Reader, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, r)
	if err != nil {
		return fmt.Errorf("HTTPPut.NewRequest: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	resp, err := client.Do(req)
	if err != nil {
		return MakeTemporary(fmt.Errorf("PUT %s: %w", url, err))
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return HTTPStatusError(resp.StatusCode, resp.Status, b, "upload", url)
	}
	return nil
}
