// ABOUTME: HTTP client for the clinic backend REST API
// ABOUTME: Injects bearer and CSRF headers and replays a request once after a token refresh

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultTimeout = 30 * time.Second

// Authenticator supplies the bearer token and recovers from expired tokens.
// The session manager implements it.
type Authenticator interface {
	// AccessToken returns the current access token, or "" when none is held
	AccessToken() string
	// RefreshAccess redeems the refresh token and returns a fresh access token.
	// stale is the token the failed request was sent with. On failure the
	// implementation is responsible for tearing the session down.
	RefreshAccess(ctx context.Context, stale string) (string, error)
}

// Client is the single request pipeline used by every domain service
type Client struct {
	baseURL    string
	base       *url.URL
	httpClient *http.Client
	auth       Authenticator
	logger     *slog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. A cookie jar is added if it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request tracing
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithAuthenticator sets the token source used for authenticated requests
func WithAuthenticator(a Authenticator) Option {
	return func(c *Client) {
		c.auth = a
	}
}

// New creates a new API client with the given base URL
func New(baseURL string, opts ...Option) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.httpClient.Jar == nil {
		c.httpClient.Jar = newJar()
	}
	c.base, _ = url.Parse(baseURL)
	return c
}

// BaseURL returns the backend URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetAuthenticator attaches the token source after construction.
// The session manager needs the client's services before it exists, so wiring is two-step.
func (c *Client) SetAuthenticator(a Authenticator) {
	c.auth = a
}

// Request describes one logical API call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded when non-nil
	Body any
	// Multipart replaces Body with a multipart/form-data payload
	Multipart *Multipart
	// Bearer overrides the session's access token for this call and disables refresh
	Bearer string
	// SkipAuth sends no Authorization header and never refreshes (token endpoints)
	SkipAuth bool
	// NoRefresh attaches the bearer token but returns a 401 as-is
	NoRefresh bool
}

// Multipart is a form payload with optional file parts
type Multipart struct {
	Fields map[string]string
	Files  []FilePart
}

// FilePart is one uploaded file
type FilePart struct {
	Field    string
	Filename string
	Data     []byte
}

// call tracks one logical request across its transport attempts.
// The caller's Request is never modified.
type call struct {
	req         *Request
	url         string
	body        []byte
	contentType string
	requestID   string
	refreshed   bool
}

// response is a fully read backend response
type response struct {
	status int
	body   []byte
}

// Do sends the request and decodes a 2xx JSON body into out (when non-nil).
// A 401 on an authenticated call triggers exactly one refresh and replay.
func (c *Client) Do(ctx context.Context, r *Request, out any) error {
	cl, err := c.newCall(r)
	if err != nil {
		return err
	}

	token := c.tokenFor(r)
	resp, err := c.send(ctx, cl, token)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && c.canRefresh(cl) {
		cl.refreshed = true
		fresh, err := c.auth.RefreshAccess(ctx, token)
		if err != nil {
			c.logger.Warn("token refresh failed", "path", r.Path, "request_id", cl.requestID, "error", err)
			return fmt.Errorf("%w: %w", ErrSessionExpired, err)
		}
		resp, err = c.send(ctx, cl, fresh)
		if err != nil {
			return err
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		return newAPIError(resp.status, resp.body)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("invalid response from backend: %w", err)
	}
	return nil
}

// Get is shorthand for a GET request
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

// Post is shorthand for a POST request with a JSON body
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

// Patch is shorthand for a PATCH request with a JSON body
func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, &Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

// Delete is shorthand for a DELETE request
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path}, nil)
}

func (c *Client) tokenFor(r *Request) string {
	if r.SkipAuth {
		return ""
	}
	if r.Bearer != "" {
		return r.Bearer
	}
	if c.auth == nil {
		return ""
	}
	return c.auth.AccessToken()
}

func (c *Client) canRefresh(cl *call) bool {
	r := cl.req
	return c.auth != nil && !cl.refreshed && !r.SkipAuth && !r.NoRefresh && r.Bearer == ""
}

// newCall encodes the body once so every attempt sends identical bytes
func (c *Client) newCall(r *Request) (*call, error) {
	u, err := url.Parse(c.baseURL + r.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, vs := range r.Query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}

	cl := &call{req: r, url: u.String(), requestID: uuid.NewString()}

	switch {
	case r.Multipart != nil:
		body, contentType, err := encodeMultipart(r.Multipart)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		cl.body, cl.contentType = body, contentType
	case r.Body != nil:
		body, err := json.Marshal(r.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal input: %w", err)
		}
		cl.body, cl.contentType = body, "application/json"
	default:
		cl.contentType = "application/json"
	}
	return cl, nil
}

// send performs one transport attempt
func (c *Client) send(ctx context.Context, cl *call, token string) (*response, error) {
	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}

	req, err := http.NewRequestWithContext(ctx, cl.req.Method, cl.url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", cl.contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("X-Request-ID", cl.requestID)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if isStateChanging(cl.req.Method) {
		if csrf := c.CookieValue(CSRFCookieName); csrf != "" {
			req.Header.Set("X-CSRFToken", csrf)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("api request failed", "method", cl.req.Method, "path", cl.req.Path, "request_id", cl.requestID, "error", err)
		return nil, c.handleRequestError(ctx, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.handleRequestError(ctx, err)
	}

	c.logger.Debug("api request",
		"method", cl.req.Method,
		"path", cl.req.Path,
		"status", resp.StatusCode,
		"request_id", cl.requestID,
		"retry", cl.refreshed,
		"duration", time.Since(start),
	)
	return &response{status: resp.StatusCode, body: data}, nil
}

func isStateChanging(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func encodeMultipart(m *Multipart) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range m.Fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	for _, f := range m.Files {
		part, err := w.CreateFormFile(f.Field, f.Filename)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
