// Package bundle provides the client for the durable content store. Articles
// are uploaded as a bundle of editor blocks and addressed by the permanent
// URI the store hands back. Uploads are billed to the invoking wallet, and a
// URI is immutable once issued; editing an article produces a new bundle and
// a new URI.
package bundle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ErrUploadFailed is returned when the store rejects or fails the upload.
// The caller must not reference any URI after this error; nothing durable
// exists for the payload.
var ErrUploadFailed = errors.New("upload failed")

// Config represents the configuration required to construct a client.
type Config struct {
	Gateway string
}

// Client manages uploads to the content store gateway.
type Client struct {
	gateway string
	http    http.Client
}

// NewClient constructs a client for the specified gateway.
func NewClient(cfg Config) *Client {
	return &Client{
		gateway: cfg.Gateway,
	}
}

// Upload pushes the content payload to the store and returns the permanent
// URI. An error means no URI was issued; an issued URI that is never linked
// on the ledger is an accepted orphan.
func (c *Client) Upload(ctx context.Context, payload ContentPayload) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling payload: %w", err)
	}

	url := fmt.Sprintf("%s/v1/bundle", c.gateway)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: %s", ErrUploadFailed, string(msg))
	}

	var result struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: decoding response: %s", ErrUploadFailed, err)
	}

	if result.URI == "" {
		return "", fmt.Errorf("%w: store returned an empty uri", ErrUploadFailed)
	}

	return result.URI, nil
}
