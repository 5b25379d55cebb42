package prs

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/moehared/analyze-pr-impact/pkg/github"
)

const (
	// HTTP client configuration constants.
	maxIdleConns        = 100
	maxIdleConnsPerHost = 10
	idleConnTimeoutSec  = 90
	requestTimeout      = 30 * time.Second
)

// Client fetches closed pull requests and their reviews from GitHub.
type Client struct {
	github interface {
		Get(ctx context.Context, path string, v any) (*github.Response, error)
	}
	logger     *slog.Logger
	httpClient *http.Client
	token      string
	baseURL    string
}

// Option is a function that configures a Client.
type Option func(*Client)

// WithLogger sets a custom logger for the client.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client. Its transport is wrapped with
// retry logic unless it already is a *github.RetryTransport.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient.Transport == nil {
			httpClient.Transport = &github.RetryTransport{Base: http.DefaultTransport}
		} else if _, ok := httpClient.Transport.(*github.RetryTransport); !ok {
			httpClient.Transport = &github.RetryTransport{Base: httpClient.Transport}
		}
		c.httpClient = httpClient
	}
}

// WithBaseURL points the client at a different API root, such as a GitHub
// Enterprise Server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// NewClient creates a new Client with the given GitHub token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		logger:  slog.Default(),
		token:   token,
		baseURL: github.API,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		transport := &http.Transport{
			MaxIdleConns:        maxIdleConns,
			MaxIdleConnsPerHost: maxIdleConnsPerHost,
			IdleConnTimeout:     idleConnTimeoutSec * time.Second,
		}
		c.httpClient = &http.Client{
			Transport: &github.RetryTransport{Base: transport, Logger: c.logger},
			Timeout:   requestTimeout,
		}
	}
	if rt, ok := c.httpClient.Transport.(*github.RetryTransport); ok && rt.Logger == nil {
		rt.Logger = c.logger
	}

	c.github = &github.Client{
		HTTPClient: c.httpClient,
		Logger:     c.logger,
		Token:      c.token,
		BaseURL:    c.baseURL,
	}
	return c
}
