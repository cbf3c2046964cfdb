// Package cloudclient is qlty's one declared external collaborator
// boundary: a thin net/http client for uploading coverage reports and
// requesting AI-generated fixes from qlty's cloud API. Kept intentionally
// minimal so it is directly testable against httptest without mocking an
// SDK.
package cloudclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/qlty-go/qlty/internal/coverage"
	"github.com/qlty-go/qlty/internal/issue"
	"github.com/qlty-go/qlty/internal/qltyerr"
)

// defaultTimeout bounds a single API call.
const defaultTimeout = 60 * time.Second

// userAgentPrefix is prepended to the client's version for every request's
// User-Agent header.
const userAgentPrefix = "qlty/"

// Client talks to qlty's cloud API.
type Client struct {
	BaseURL    string
	Token      string
	Version    string
	httpClient *http.Client
}

// New creates a Client against baseURL, authenticating with token.
func New(baseURL, token, version string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		Version: version,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// UploadCoverageResult is the server's response to a coverage upload.
type UploadCoverageResult struct {
	ReportID string `json:"report_id"`
}

// UploadCoverage uploads a coverage.zip bundle built by
// internal/coverage.BuildZip along with its metadata.
func (c *Client) UploadCoverage(ctx context.Context, metadata coverage.CoverageMetadata, archive []byte) (*UploadCoverageResult, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/coverage/uploads", bytes.NewReader(archive))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/zip")
	req.Header.Set("X-Qlty-Commit-Sha", metadata.CommitSHA)
	req.Header.Set("X-Qlty-Branch", metadata.Branch)

	var result UploadCoverageResult

	if err := c.do(req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// FixRequest describes a batch of issues to request AI-generated fixes for.
type FixRequest struct {
	Issues  []issue.Issue     `json:"issues"`
	Files   map[string]string `json:"files"` // path -> source content
	Options map[string]string `json:"options,omitempty"`
}

// FixResponse is the server's proposed fixes, keyed by the requesting
// issue's Key (tool+rule+path+line, JSON-encoded as qlty's wire format).
type FixResponse struct {
	Suggestions map[string][]issue.Suggestion `json:"suggestions"`
}

// RequestFixes asks the cloud API for AI-generated fixes for a batch of
// issues. Used as the remote Client implementation transform.Fixer can be
// configured with, for deployments that don't run a local model.
func (c *Client) RequestFixes(ctx context.Context, req FixRequest) (*FixResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, qltyerr.Wrap(qltyerr.KindIO, fmt.Errorf("encode fix request: %w", err))
	}

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/fixes", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Content-Type", "application/json")

	var result FixResponse

	if err := c.do(httpReq, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return nil, qltyerr.Wrap(qltyerr.KindNetwork, fmt.Errorf("build request for %s: %w", path, err))
	}

	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("User-Agent", userAgentPrefix+c.Version)

	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return qltyerr.Wrap(qltyerr.KindNetwork, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err))
	}
	defer resp.Body.Close()

	data, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return qltyerr.Wrap(qltyerr.KindNetwork, fmt.Errorf("read response body: %w", readErr))
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return qltyerr.Wrap(qltyerr.KindNetwork, fmt.Errorf("%s %s: status %d: %s", req.Method, req.URL.Path, resp.StatusCode, data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return qltyerr.Wrap(qltyerr.KindParse, fmt.Errorf("decode response from %s: %w", req.URL.Path, err))
	}

	return nil
}
