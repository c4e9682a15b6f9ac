package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"linkage/internal/linkage/models"
)

// Client sends linkage requests to the service's dispatch endpoint.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient builds a client for baseURL. A nil httpClient uses http.DefaultClient.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// Do posts req to /linkage and decodes the response envelope.
func (c *Client) Do(ctx context.Context, req *models.Request) (models.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return models.Response{}, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/linkage", bytes.NewReader(body))
	if err != nil {
		return models.Response{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		return models.Response{}, fmt.Errorf("send request: %w", err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxReplyBytes))
	if err != nil {
		return models.Response{}, fmt.Errorf("read response (HTTP %d): %w", res.StatusCode, err)
	}

	var resp models.Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return models.Response{}, fmt.Errorf("decode response (HTTP %d): %w", res.StatusCode, err)
	}
	if resp.Status == "" {
		// Middleware replies (auth, rate limit, recovery) carry no linkage status.
		serverErr := &ServerError{StatusCode: res.StatusCode}
		_ = json.Unmarshal(raw, serverErr)
		return models.Response{}, serverErr
	}
	return resp, nil
}

const maxReplyBytes = 1 << 20

// ServerError is a reply that is not a linkage response, such as a 401 from
// the auth middleware or a 429 from the rate limiter.
type ServerError struct {
	StatusCode  int    `json:"-"`
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *ServerError) Error() string {
	msg := fmt.Sprintf("server answered HTTP %d", e.StatusCode)
	if e.Code != "" {
		msg += " " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}
