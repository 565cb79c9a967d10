package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/MrEthical07/dmsclient/tokenstore"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// RequestIDHeader carries a per-request uuid.
	RequestIDHeader = "X-Request-ID"

	tracerName = "github.com/MrEthical07/dmsclient/transport"
)

// Notifier receives every classified failure except business rejections,
// which are left to the caller. It is the toast surface of a UI.
type Notifier interface {
	Notify(ctx context.Context, err *APIError)
}

// NotifierFunc adapts a function to [Notifier].
type NotifierFunc func(ctx context.Context, err *APIError)

func (f NotifierFunc) Notify(ctx context.Context, err *APIError) { f(ctx, err) }

// UnauthorizedHandler is invoked after a 401 has cleared the persisted token.
// It typically navigates to the login screen.
type UnauthorizedHandler func(ctx context.Context, err *APIError)

// Observer is told about every finished exchange. err is nil on success.
type Observer interface {
	ObserveRequest(method string, status int, err *APIError, elapsed time.Duration)
}

// Config configures a [Client].
type Config struct {
	// BaseURL is an absolute URL every request path is joined to.
	BaseURL string
	// Timeout bounds a whole exchange. Zero means no client timeout.
	Timeout time.Duration
	// WithCredentials attaches a cookie jar so session cookies are replayed.
	WithCredentials bool
	// UserAgent is sent when non-empty.
	UserAgent string
}

// Request describes one REST call. A non-nil Body is JSON-encoded.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
}

// Client sends requests to the REST backend.
//
// Client is safe for concurrent use.
type Client struct {
	base       *url.URL
	httpClient *http.Client
	tokens     tokenstore.Store
	userAgent  string

	notifier       Notifier
	onUnauthorized UnauthorizedHandler
	onLoginScreen  func() bool
	observer       Observer

	tracer trace.Tracer
	logger zerolog.Logger
}

// Option customizes a [Client].
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithNotifier sets the failure notifier.
func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

// WithUnauthorizedHandler sets the 401 redirect policy.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// WithLoginScreenProbe reports whether the user is currently on the login
// screen. A 401 there is a bad-credentials reply, not an expired session.
func WithLoginScreenProbe(probe func() bool) Option {
	return func(c *Client) { c.onLoginScreen = probe }
}

// WithObserver sets the request observer.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTracerProvider overrides the global OpenTelemetry tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) {
		if tp != nil {
			c.tracer = tp.Tracer(tracerName)
		}
	}
}

// New builds a Client reading the bearer token from tokens.
func New(cfg Config, tokens tokenstore.Store, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(cfg.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, errors.New("transport: base url must be absolute")
	}
	if tokens == nil {
		return nil, errors.New("transport: token store required")
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("transport: negative timeout")
	}

	c := &Client{
		base:       base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		tokens:     tokens,
		userAgent:  cfg.UserAgent,
		tracer:     otel.GetTracerProvider().Tracer(tracerName),
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if cfg.WithCredentials && c.httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		hc := *c.httpClient
		hc.Jar = jar
		c.httpClient = &hc
	}

	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// URL joins path and query to the base URL.
func (c *Client) URL(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	u.RawPath = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	} else {
		u.RawQuery = ""
	}
	return u.String()
}

// Do sends req and decodes the reply into out when out is non-nil.
// Every failure is an *APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	var body io.Reader
	var contentType string
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return fmt.Errorf("transport: encode body: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	resp, requestID, finish, err := c.send(ctx, req, body, contentType)
	if err != nil {
		return finish(0, nil, err)
	}
	return complete(resp, requestID, finish, req.Path, out)
}

func complete(resp *http.Response, requestID string, finish finishFunc, path string, out any) error {
	defer resp.Body.Close()

	payload, readErr := io.ReadAll(resp.Body)
	if readErr != nil {
		return finish(0, nil, readErr)
	}
	if apiErr := finish(resp.StatusCode, payload, nil); apiErr != nil {
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("transport: decode %s reply (request %s): %w", path, requestID, err)
	}
	return nil
}

// Stream sends req and hands back the raw body for binary replies such as
// downloads. The caller must close the returned body.
func (c *Client) Stream(ctx context.Context, req Request) (io.ReadCloser, http.Header, error) {
	resp, _, finish, err := c.send(ctx, req, nil, "")
	if err != nil {
		return nil, nil, finish(0, nil, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		payload, _ := io.ReadAll(resp.Body)
		return nil, nil, finish(resp.StatusCode, payload, nil)
	}
	if err := finish(resp.StatusCode, nil, nil); err != nil {
		resp.Body.Close()
		return nil, nil, err
	}
	return resp.Body, resp.Header, nil
}

type finishFunc func(status int, payload []byte, transportErr error) error

func (c *Client) send(ctx context.Context, req Request, body io.Reader, contentType string) (*http.Response, string, finishFunc, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	requestID := uuid.NewString()
	started := time.Now()

	ctx, span := c.tracer.Start(ctx, "dmsclient "+method+" "+req.Path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.path", req.Path),
			attribute.String("dmsclient.request_id", requestID),
		),
	)

	finish := func(status int, payload []byte, transportErr error) error {
		defer span.End()
		if status > 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
		apiErr := Classify(status, payload, transportErr)
		if apiErr != nil {
			apiErr.RequestID = requestID
			c.handleFailure(ctx, method, req.Path, apiErr)
			span.SetStatus(codes.Error, apiErr.Message)
		}
		if c.observer != nil {
			c.observer.ObserveRequest(method, status, apiErr, time.Since(started))
		}
		if apiErr != nil {
			return apiErr
		}
		return nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.URL(req.Path, req.Query), body)
	if err != nil {
		span.End()
		buildErr := fmt.Errorf("transport: build request: %w", err)
		return nil, requestID, func(int, []byte, error) error { return buildErr }, buildErr
	}
	for k, values := range req.Header {
		for _, v := range values {
			httpReq.Header.Add(k, v)
		}
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set(RequestIDHeader, requestID)
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	token, err := c.tokens.Load(ctx)
	if err != nil {
		c.logger.Warn().Err(err).Str("request_id", requestID).Msg("token store read failed; sending without bearer")
	} else if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", req.Path).
		Str("request_id", requestID).
		Msg("request")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, requestID, finish, err
	}
	return resp, requestID, finish, nil
}

func (c *Client) handleFailure(ctx context.Context, method, path string, apiErr *APIError) {
	c.logger.Warn().
		Str("method", method).
		Str("path", path).
		Str("request_id", apiErr.RequestID).
		Str("kind", apiErr.Kind.String()).
		Int("status", apiErr.Status).
		Str("message", apiErr.Message).
		Err(apiErr.Err).
		Msg("response error")

	switch apiErr.Kind {
	case KindBusiness:
		return
	case KindUnauthorized:
		if c.onLoginScreen != nil && c.onLoginScreen() {
			apiErr.Message = firstNonEmpty(apiErr.Detail, MessageBadCredentials)
			break
		}
		if err := c.tokens.Delete(context.WithoutCancel(ctx)); err != nil {
			c.logger.Error().Err(err).Msg("failed to delete persisted token after 401")
		}
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, apiErr)
		}
	}

	if c.notifier != nil {
		c.notifier.Notify(ctx, apiErr)
	}
}
