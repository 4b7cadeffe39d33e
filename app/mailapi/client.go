package mailapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	// MinSupportedVersion is the oldest remote script version this client
	// understands. A lower version aborts the whole run before any listing.
	MinSupportedVersion = 2

	DefaultListBatchSize  = 500
	DefaultFetchBatchSize = 20
)

// ErrVersionUnsupported reports a remote script older than
// MinSupportedVersion. It is the only fatal setup error: everything else the
// endpoint can do wrong is indistinguishable from a transient failure.
var ErrVersionUnsupported = errors.New("remote script version unsupported")

// Client talks to the remote email script endpoint: a single URL taking
// POST JSON envelopes {request, token, options} with request one of
// test/list/fetch, answering {version, status, result}.
type Client struct {
	httpClient *http.Client
	url        string
	token      string
	userAgent  string
	timeout    time.Duration
}

func NewClient(httpClient *http.Client, source *Source, userAgent string) *Client {
	return &Client{
		httpClient: httpClient,
		url:        source.URL,
		token:      source.Token,
		userAgent:  userAgent,
		timeout:    time.Duration(source.Settings.Timeout) * time.Second,
	}
}

// Test validates the token and returns the remote script version.
func (c *Client) Test(ctx context.Context) (int, error) {
	version, err := c.do(ctx, "test", nil, nil)
	if err != nil {
		return 0, err
	}
	return version, nil
}

// List returns one page of message ids added since the given ISO date.
func (c *Client) List(ctx context.Context, since string, offset, size int) ([]string, error) {
	var ids []string
	_, err := c.do(ctx, "list", listOptions{Since: since, Offset: offset, Size: size}, &ids)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Fetch returns raw email text keyed by message id. Ids missing from the
// result are per-email failures the caller decides how to record.
func (c *Client) Fetch(ctx context.Context, ids []string) (map[string]string, error) {
	emails := make(map[string]string)
	_, err := c.do(ctx, "fetch", fetchOptions{IDs: ids}, &emails)
	if err != nil {
		return nil, err
	}
	return emails, nil
}

func (c *Client) do(ctx context.Context, request string, options any, result any) (int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(requestEnvelope{Request: request, Token: c.token, Options: options})
	if err != nil {
		return 0, fmt.Errorf("failed to encode %s request: %w", request, err)
	}

	req, err := http.NewRequestWithContext(timeoutCtx, "POST", c.url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("failed to create %s request: %w", request, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s request failed: %w", request, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%s request: HTTP error: %d %s", request, resp.StatusCode, resp.Status)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s response: %w", request, err)
	}

	var envelope struct {
		Version int             `json:"version"`
		Status  string          `json:"status"`
		Result  json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return 0, fmt.Errorf("failed to decode %s response: %w", request, err)
	}

	if envelope.Status != "OK" {
		return envelope.Version, fmt.Errorf("%s request: remote status %q", request, envelope.Status)
	}

	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return envelope.Version, fmt.Errorf("failed to decode %s result: %w", request, err)
		}
	}

	return envelope.Version, nil
}
