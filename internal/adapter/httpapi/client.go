// Package httpapi is the single path for calls to the case observer backend.
// It attaches the session's credentials, normalizes failures into
// *domain.APIError and ends the session when the backend rejects a token.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/signsofter/caseobserver-dashboard/internal/domain"
	"github.com/signsofter/caseobserver-dashboard/pkg/ctxutil"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultUserAgent = "caseobserver-cli"

	// HeaderRequestID correlates client and backend logs.
	HeaderRequestID = "X-Request-Id"

	maxErrorBody = 64 << 10
	maxMessage   = 512
)

// tokenSource is the part of the credential store the client needs.
type tokenSource interface {
	AuthHeader() (string, bool)
	ClearTokens(ctx context.Context) error
}

// Client performs JSON requests against the backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     tokenSource
	userAgent  string
	log        *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the timeout of the default *http.Client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a Client for baseURL that authenticates with tokens.
func New(baseURL string, tokens tokenSource, logger *slog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		tokens:     tokens,
		userAgent:  defaultUserAgent,
		log:        logger.With("adapter", "httpapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type callOptions struct {
	public bool
	query  url.Values
}

// CallOption adjusts a single request.
type CallOption func(*callOptions)

// Public marks a credential exchange call (login, register, refresh). No
// Authorization header is sent and a 401 means the submitted credentials were
// wrong, so the stored session is left alone.
func Public() CallOption {
	return func(o *callOptions) { o.public = true }
}

// WithQuery appends query parameters to the request URL.
func WithQuery(q url.Values) CallOption {
	return func(o *callOptions) { o.query = q }
}

func (c *Client) Get(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodGet, path, nil, out, opts...)
}

func (c *Client) Post(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPost, path, body, out, opts...)
}

func (c *Client) Put(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPut, path, body, out, opts...)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodPatch, path, body, out, opts...)
}

func (c *Client) Delete(ctx context.Context, path string, out any, opts ...CallOption) error {
	return c.Do(ctx, http.MethodDelete, path, nil, out, opts...)
}

// Do sends one request. body, when non-nil, is encoded as JSON. out, when
// non-nil, receives the decoded JSON response; it is left untouched for 204,
// empty or non-JSON responses. Every backend failure is a *domain.APIError.
func (c *Client) Do(ctx context.Context, method, path string, body, out any, opts ...CallOption) error {
	var o callOptions
	for _, opt := range opts {
		opt(&o)
	}

	ctx, requestID := ctxutil.EnsureRequestID(ctx)

	req, err := c.newRequest(ctx, method, path, body, o)
	if err != nil {
		return err
	}
	req.Header.Set(HeaderRequestID, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WarnContext(ctx, "request not delivered",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return domain.NewNetworkError(unwrapURLError(err))
	}
	defer resp.Body.Close()

	c.log.DebugContext(ctx, "request done",
		slog.String("method", method),
		slog.String("path", path),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := c.errorFromResponse(resp)
		if apiErr.IsAuthRejected() && !o.public {
			// The token is dead for every caller, not just this one.
			if err := c.tokens.ClearTokens(context.WithoutCancel(ctx)); err != nil {
				c.log.WarnContext(ctx, "clear rejected tokens", slog.String("error", err.Error()))
			}
			c.log.InfoContext(ctx, "session rejected by backend, tokens cleared",
				slog.String("path", path),
				slog.String("request_id", requestID),
			)
		}
		return apiErr
	}

	return decodeSuccess(resp, out, method, path)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any, o callOptions) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	reqURL := c.baseURL + path
	if len(o.query) > 0 {
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		reqURL += sep + o.query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("httpapi: encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("httpapi: create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if !o.public {
		if header, ok := c.tokens.AuthHeader(); ok {
			req.Header.Set("Authorization", header)
		}
	}
	return req, nil
}

func decodeSuccess(resp *http.Response, out any, method, path string) error {
	if resp.StatusCode == http.StatusNoContent || !isJSON(resp.Header.Get("Content-Type")) {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.NewNetworkError(err)
	}
	if len(bytes.TrimSpace(data)) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("httpapi: decode %s %s: %w", method, path, err)
	}
	return nil
}

// errorFromResponse reads the body once and picks the most specific message:
// a JSON "message" field, a bare JSON string, the raw text, and finally a
// generic text built from the status.
func (c *Client) errorFromResponse(resp *http.Response) *domain.APIError {
	statusText := statusText(resp)
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := messageFromBody(data)
	if msg == "" {
		msg = "Request failed: " + statusText
	}

	return &domain.APIError{
		Message:    msg,
		Status:     resp.StatusCode,
		StatusText: statusText,
	}
}

func messageFromBody(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		if m := strings.TrimSpace(obj.Message); m != "" {
			return truncate(m)
		}
		if m := strings.TrimSpace(obj.Error); m != "" {
			return truncate(m)
		}
	}

	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		return truncate(strings.TrimSpace(str))
	}

	return truncate(string(data))
}

func statusText(resp *http.Response) string {
	// resp.Status is "404 Not Found"; keep the reason phrase the server sent.
	if text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))); text != "" {
		return text
	}
	return http.StatusText(resp.StatusCode)
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func truncate(s string) string {
	if len(s) <= maxMessage {
		return s
	}
	return s[:maxMessage] + "..."
}

// unwrapURLError drops the "Get \"http://...\":" prefix of *url.Error so the
// message reads like the underlying failure.
func unwrapURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err
	}
	return err
}
