package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/fivetwenty-io/kongcli/internal/constants"
	"github.com/fivetwenty-io/kongcli/pkg/kong"
)

// Client is a session bound to one admin API base URL.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
	apiKey     string
	username   string
	password   string
	headers    map[string]string
	userAgent  string
	logger     kong.Logger
	debug      bool
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger.
func WithLogger(logger kong.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithDebug enables request/response logging.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		c.userAgent = userAgent
	}
}

// WithAPIKey sends key as the apikey header on every request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithBasicAuth adds HTTP basic credentials to every request.
func WithBasicAuth(username, password string) Option {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithHeaders adds default headers to every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) {
		for name, value := range headers {
			c.headers[name] = value
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.HTTPClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying transport client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient.HTTPClient = httpClient
		}
	}
}

// NewClient creates a session for baseURL. Trailing slashes are stripped.
func NewClient(baseURL string, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.CheckRetry = neverRetry
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler
	retryClient.Logger = nil
	retryClient.HTTPClient.Timeout = constants.DefaultHTTPTimeout

	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: retryClient,
		headers:    make(map[string]string),
		userAgent:  constants.DefaultUserAgent,
	}

	for _, opt := range opts {
		opt(client)
	}

	if client.logger != nil {
		retryClient.Logger = &leveledLogger{logger: client.logger}
	}

	return client
}

// neverRetry hands every outcome straight back to the caller.
func neverRetry(ctx context.Context, _ *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}

	return false, err
}

// BaseURL returns the base URL without trailing slash.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.HTTPClient.CloseIdleConnections()
}

// Request represents an HTTP request.
type Request struct {
	Method  string
	Path    string
	Query   url.Values
	Body    interface{}
	Headers map[string]string
}

// PreparedRequest is a fully resolved request that has not been sent yet.
type PreparedRequest struct {
	Method string
	URL    string
	Header http.Header
	Body   []byte
}

// Response represents an HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    http.Header
	Body       []byte
}

// Reason returns the reason phrase of the status line.
func (r *Response) Reason() string {
	reason := strings.TrimSpace(strings.TrimPrefix(r.Status, strconv.Itoa(r.StatusCode)))
	if reason == "" {
		return http.StatusText(r.StatusCode)
	}

	return reason
}

// Do sends the request and validates the response: the status must be 2xx
// and every response except 204 must carry a JSON content type.
// The response is returned alongside validation errors.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	resp, err := c.Send(ctx, req)
	if err != nil {
		return resp, err
	}

	return resp, Check(resp)
}

// Send sends the request without validating the response.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	prepared, err := c.Prepare(req)
	if err != nil {
		return nil, err
	}

	return c.Execute(ctx, prepared)
}

// Prepare resolves the URL, headers and body of req.
func (c *Client) Prepare(req *Request) (*PreparedRequest, error) {
	body, err := encodeBody(req.Body)
	if err != nil {
		return nil, err
	}

	header := make(http.Header)
	header.Set("Accept", constants.ContentTypeJSON)

	if c.userAgent != "" {
		header.Set("User-Agent", c.userAgent)
	}

	if body != nil {
		header.Set("Content-Type", constants.ContentTypeJSON)
	}

	if c.apiKey != "" {
		header.Set(constants.APIKeyHeader, c.apiKey)
	}

	for name, value := range c.headers {
		header.Set(name, value)
	}

	for name, value := range req.Headers {
		header.Set(name, value)
	}

	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	return &PreparedRequest{
		Method: method,
		URL:    c.resolve(req.Path, req.Query),
		Header: header,
		Body:   body,
	}, nil
}

// Execute sends a prepared request.
func (c *Client) Execute(ctx context.Context, prepared *PreparedRequest) (*Response, error) {
	var body interface{}
	if prepared.Body != nil {
		body = prepared.Body
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, prepared.Method, prepared.URL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header = prepared.Header.Clone()

	if c.username != "" || c.password != "" {
		httpReq.SetBasicAuth(c.username, c.password)
	}

	start := time.Now()

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":  prepared.Method,
			"url":     prepared.URL,
			"headers": redact(prepared.Header),
			"bytes":   len(prepared.Body),
		})
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if httpResp != nil {
			_ = httpResp.Body.Close()
		}

		return nil, fmt.Errorf("%s %s: %w", prepared.Method, prepared.URL, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	if c.debug && c.logger != nil {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":   httpResp.StatusCode,
			"url":      prepared.URL,
			"duration": time.Since(start).String(),
			"bytes":    len(respBody),
		})
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Proto:      httpResp.Proto,
		Headers:    httpResp.Header,
		Body:       respBody,
	}, nil
}

// Check validates a response the way Do does.
func Check(resp *Response) error {
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return kong.NewHTTPError(resp.StatusCode, resp.Reason(), resp.Body)
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	contentType := resp.Headers.Get("Content-Type")
	if !strings.Contains(contentType, constants.ContentTypeJSON) {
		return fmt.Errorf("%w: %d with content type %q", kong.ErrUnexpectedContentType, resp.StatusCode, contentType)
	}

	return nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodGet,
		Path:   path,
		Query:  query,
	})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPost,
		Path:   path,
		Body:   body,
	})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodPatch,
		Path:   path,
		Body:   body,
	})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{
		Method: http.MethodDelete,
		Path:   path,
	})
}

// resolve joins path to the base URL. Absolute URLs are used as given.
func (c *Client) resolve(path string, query url.Values) string {
	target := path
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}

		target = c.baseURL + path
	}

	if len(query) == 0 {
		return target
	}

	separator := "?"
	if strings.Contains(target, "?") {
		separator = "&"
	}

	return target + separator + query.Encode()
}

// encodeBody marshals body to JSON. Map keys come out sorted.
func encodeBody(body interface{}) ([]byte, error) {
	switch typed := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return typed, nil
	case json.RawMessage:
		return typed, nil
	}

	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(body); err != nil {
		return nil, fmt.Errorf("encoding request body: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func redact(header http.Header) map[string]string {
	out := make(map[string]string, len(header))

	for name := range header {
		value := header.Get(name)
		if strings.EqualFold(name, constants.APIKeyHeader) || strings.EqualFold(name, "Authorization") {
			value = "[REDACTED]"
		}

		out[name] = value
	}

	return out
}
