// Package github provides a low-level client for the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// API is the default GitHub API base URL.
	API = "https://api.github.com"
	// maxResponseSize limits API response size to prevent memory exhaustion.
	maxResponseSize = 10 * 1024 * 1024 // 10MB
	// maxErrorBodySize limits error response body reading for debugging.
	maxErrorBodySize = 1024
	// tokenPreviewPrefixLen is the number of characters to show at the start of a masked token.
	tokenPreviewPrefixLen = 4
	// tokenPreviewSuffixLen is the number of characters to show at the end of a masked token.
	tokenPreviewSuffixLen = 4
	// tokenPreviewMinLen is the minimum token length to show a preview.
	tokenPreviewMinLen = 8
)

// Error represents an error response from the GitHub API.
type Error struct {
	Status     string
	Body       string
	URL        string
	StatusCode int
}

func (e *Error) Error() string {
	return fmt.Sprintf("github API error: %s", e.Status)
}

// NotFoundOrForbidden reports whether the error means the resource is missing
// or the token cannot see it. GitHub answers 404 for private repositories the
// caller has no access to.
func (e *Error) NotFoundOrForbidden() bool {
	return e.StatusCode == http.StatusNotFound || e.StatusCode == http.StatusForbidden
}

// Response wraps a GitHub API response with pagination info.
type Response struct {
	NextPage int
}

// Client is a low-level client for interacting with the GitHub API.
type Client struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Token      string
	BaseURL    string
}

func (c *Client) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// maskedToken returns a token preview that is safe to log.
func (c *Client) maskedToken() string {
	if c.Token == "" {
		return ""
	}
	if len(c.Token) > tokenPreviewMinLen {
		return c.Token[:tokenPreviewPrefixLen] + "..." + c.Token[len(c.Token)-tokenPreviewSuffixLen:]
	}
	return "***"
}

// Do performs an HTTP GET request to the GitHub API.
func (c *Client) Do(ctx context.Context, path string) ([]byte, *Response, error) {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = API
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + path
	log := c.logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, http.NoBody)
	if err != nil {
		return nil, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	log.DebugContext(ctx, "GitHub API request starting",
		"method", "GET",
		"url", apiURL,
		"headers", map[string]string{
			"Authorization": "Bearer " + c.maskedToken(),
			"Accept":        req.Header.Get("Accept"),
		})

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	start := time.Now()
	resp, err := httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		log.ErrorContext(ctx, "GitHub API request failed", "url", apiURL, "error", err, "elapsed", elapsed)
		return nil, nil, err
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.DebugContext(ctx, "failed to close response body", "error", closeErr, "url", apiURL)
		}
	}()

	log.DebugContext(ctx, "GitHub API response received",
		"status", resp.Status,
		"url", apiURL,
		"elapsed", elapsed,
		"rate_limits", map[string]string{
			"X-RateLimit-Limit":     resp.Header.Get("X-Ratelimit-Limit"),
			"X-RateLimit-Remaining": resp.Header.Get("X-Ratelimit-Remaining"),
			"X-RateLimit-Reset":     resp.Header.Get("X-Ratelimit-Reset"),
			"X-RateLimit-Resource":  resp.Header.Get("X-Ratelimit-Resource"),
		})

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		if readErr != nil {
			body = []byte("failed to read response body")
		}

		// 404s on repository lookups are expected for typos and private repositories.
		level := slog.LevelError
		if resp.StatusCode == http.StatusNotFound {
			level = slog.LevelWarn
		}
		log.Log(ctx, level, "GitHub API error",
			"status", resp.Status,
			"status_code", resp.StatusCode,
			"url", apiURL,
			"body", string(body),
			"request_id", resp.Header.Get("X-Github-Request-Id"))
		return nil, nil, &Error{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
			URL:        apiURL,
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, nil, err
	}

	return data, &Response{NextPage: nextPage(resp.Header.Get("Link"))}, nil
}

// nextPage extracts the page number of the rel="next" link, or 0 when there is none.
func nextPage(linkHeader string) int {
	for link := range strings.SplitSeq(linkHeader, ",") {
		parts := strings.Split(strings.TrimSpace(link), ";")
		if len(parts) != 2 || strings.TrimSpace(parts[1]) != `rel="next"` {
			continue
		}
		u, err := url.Parse(strings.Trim(strings.TrimSpace(parts[0]), "<>"))
		if err != nil {
			return 0
		}
		page, err := strconv.Atoi(u.Query().Get("page"))
		if err != nil {
			return 0
		}
		return page
	}
	return 0
}

// Get makes a GET request to the GitHub API and decodes the response into v.
func (c *Client) Get(ctx context.Context, path string, v any) (*Response, error) {
	data, resp, err := c.Do(ctx, path)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	return resp, nil
}
