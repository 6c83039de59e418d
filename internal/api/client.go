package api

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	http "github.com/bogdanfinn/fhttp"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"

	apperrors "github.com/diogo/chatdeck/internal/errors"
)

// DefaultBaseURL is the OpenAI-compatible endpoint used when none is configured.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// CompletionsPath is appended to the base URL for completion requests.
const CompletionsPath = "/chat/completions"

// appTitle identifies the application to the provider.
const appTitle = "chatdeck"

// HTTPDoer executes HTTP requests. tls_client.HttpClient satisfies it.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Completer sends a completion request and reports streamed text through
// onDelta. It returns the full response text.
type Completer interface {
	Complete(ctx context.Context, req *Request, onDelta func(string)) (string, error)
}

// NewHTTPClient creates the TLS client used for every outbound request.
func NewHTTPClient(timeoutSeconds int) (tls_client.HttpClient, error) {
	options := []tls_client.HttpClientOption{
		tls_client.WithTimeoutSeconds(timeoutSeconds),
		tls_client.WithClientProfile(profiles.Chrome_120),
	}

	client, err := tls_client.NewHttpClient(tls_client.NewNoopLogger(), options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, nil
}

// Client talks to an OpenAI-compatible chat completions API.
type Client struct {
	httpClient HTTPDoer
	baseURL    string
	apiKey     string
	referer    string
	log        *slog.Logger
}

// ClientOption is a function that configures the client
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c HTTPDoer) ClientOption {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithBaseURL sets the API base URL.
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// WithReferer sets the HTTP-Referer header sent to the provider.
func WithReferer(referer string) ClientOption {
	return func(c *Client) {
		c.referer = referer
	}
}

// WithLogger sets the client logger.
func WithLogger(log *slog.Logger) ClientOption {
	return func(c *Client) {
		if log != nil {
			c.log = log
		}
	}
}

// NewClient creates a Client. An HTTP client must be supplied with
// WithHTTPClient unless the default TLS client is wanted.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, apperrors.ErrNoAPIKey
	}

	c := &Client{
		baseURL: DefaultBaseURL,
		apiKey:  apiKey,
		referer: "https://github.com/diogo/chatdeck",
		log:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		hc, err := NewHTTPClient(300)
		if err != nil {
			return nil, err
		}
		c.httpClient = hc
	}
	return c, nil
}

// BaseURL returns the configured API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) endpoint() string {
	return c.baseURL + CompletionsPath
}

func (c *Client) setHeaders(req *http.Request, stream bool) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("HTTP-Referer", c.referer)
	req.Header.Set("X-Title", appTitle)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	} else {
		req.Header.Set("Accept", "application/json")
	}
}

var _ Completer = (*Client)(nil)
