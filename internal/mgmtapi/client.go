// Package mgmtapi is the HTTP client for the project-management API. The
// gateway calls it only after the path classifier and safety manager have
// cleared the request.
package mgmtapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// Client issues authenticated JSON requests against the management API.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewClient builds a client for the given base URL and bearer token.
func NewClient(baseURL, accessToken string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: defaultTimeout},
		logger:      logger,
	}
}

// Execute sends one request and returns the decoded JSON body. Error kinds:
// ConnectionError for transport failures, ResponseError for non-2xx
// statuses (with status and parsed body), MalformedResponseError for
// undecodable success bodies.
func (c *Client) Execute(ctx context.Context, method, path string, query map[string]string, body map[string]any) (any, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}
	if len(query) > 0 {
		q := u.Query()
		for k, v := range query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, &ConnectionError{Message: "encode request body: " + err.Error(), Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, strings.ToUpper(method), u.String(), reqBody)
	if err != nil {
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ConnectionError{Message: err.Error(), Err: err}
	}

	c.logger.Debug("management API response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
	)

	var decoded any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &decoded); err != nil {
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				return nil, &MalformedResponseError{Message: err.Error(), Err: err}
			}
			decoded = string(raw)
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ResponseError{StatusCode: resp.StatusCode, Body: decoded}
	}
	return decoded, nil
}
