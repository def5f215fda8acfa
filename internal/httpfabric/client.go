// Package httpfabric is the shared request primitive for every upstream
// call the core makes (Elasticsearch, Home Manager docs, nix-darwin docs).
// It owns retries, backoff, and error classification so callers never see
// a bare *http.Response or a bare transport error — only a Result or a
// structured *Error.
package httpfabric

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"

	"nix-mcp-core/pkg/logger"
	"nix-mcp-core/pkg/version"
)

// Auth carries HTTP basic-auth credentials for an upstream request.
type Auth struct {
	User     string
	Password string
}

// Options configures one Do call.
type Options struct {
	Method      string
	Body        []byte
	Auth        *Auth
	Headers     map[string]string
	MaxRetries  int
	RetryDelay  time.Duration
	ConnTimeout time.Duration
	ReadTimeout time.Duration
}

// Result is the successful outcome of a request, per spec.md §4.1.
type Result struct {
	StatusCode int
	Body       []byte
	Attempts   int
}

// Client drives retried, classified HTTP requests. It wraps a
// retryablehttp-backed *http.Client but performs exactly one attempt per
// call so this package's own retry loop — not retryablehttp's internal
// one — decides whether to try again, per spec §4.1's classification
// rules (BadRequest/AuthFailure never retried; ServerError/ConnectionError
// retried up to MaxRetries; Timeout not retried; Transport retried once).
type Client struct {
	log *logger.Logger
	ua  string
}

// New builds a Client. log may be nil, in which case a default logger is used.
func New(log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Client{
		log: log,
		ua:  fmt.Sprintf("nix-mcp-core/%s", version.Get().Short()),
	}
}

// httpClientFor builds a single-attempt *http.Client with the given
// timeouts. retryablehttp.NewClient's default transport is reused for its
// connection pooling, but RetryMax is forced to 0 — this package's Do
// loop supplies the retry semantics instead.
func (c *Client) httpClientFor(connTimeout, readTimeout time.Duration) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.Logger = nil
	rc.HTTPClient.Timeout = readTimeout
	if t, ok := rc.HTTPClient.Transport.(*http.Transport); ok {
		t.DialContext = (&net.Dialer{Timeout: connTimeout}).DialContext
	}
	return rc.StandardClient()
}

// Do executes one logical request against url, retrying per opts and the
// classification rules in errors.go. It never returns both a *Result and
// a nil error together with a failing status: on non-2xx it always
// returns a classified *Error.
func (c *Client) Do(ctx context.Context, url string, opts Options) (*Result, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	maxRetries := opts.MaxRetries
	retryDelay := opts.RetryDelay
	if retryDelay <= 0 {
		retryDelay = time.Second
	}
	connTimeout := opts.ConnTimeout
	if connTimeout <= 0 {
		connTimeout = 3 * time.Second
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}

	httpClient := c.httpClientFor(connTimeout, readTimeout)

	var lastErr *Error
	transportRetried := false

	for attempt := 0; ; attempt++ {
		var bodyReader io.Reader
		if len(opts.Body) > 0 {
			bodyReader = bytes.NewReader(opts.Body)
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
		if err != nil {
			return nil, &Error{Kind: ErrorKindTransport, Message: err.Error(), Attempts: attempt + 1}
		}
		req.Header.Set("User-Agent", c.ua)
		if len(opts.Body) > 0 {
			req.Header.Set("Content-Type", "application/json")
		}
		for k, v := range opts.Headers {
			req.Header.Set(k, v)
		}
		if opts.Auth != nil {
			req.SetBasicAuth(opts.Auth.User, opts.Auth.Password)
		}

		resp, err := httpClient.Do(req)
		if err != nil {
			kind := classifyTransportErr(err)
			lastErr = &Error{Kind: kind, Message: err.Error(), Attempts: attempt + 1}
			c.log.Debug(fmt.Sprintf("httpfabric: attempt %d failed: %s (%s)", attempt+1, err, kind))

			if kind == ErrorKindTransport {
				if transportRetried {
					return nil, lastErr
				}
				transportRetried = true
				continue
			}
			if !kind.Retryable() || attempt >= maxRetries {
				return nil, lastErr
			}
			sleepBackoff(ctx, retryDelay, attempt)
			continue
		}

		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = &Error{Kind: ErrorKindTransport, Message: readErr.Error(), Attempts: attempt + 1}
			if transportRetried || attempt >= maxRetries {
				return nil, lastErr
			}
			transportRetried = true
			sleepBackoff(ctx, retryDelay, attempt)
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &Result{StatusCode: resp.StatusCode, Body: body, Attempts: attempt + 1}, nil
		}

		kind := classifyStatus(resp.StatusCode)
		lastErr = &Error{
			Kind:     kind,
			Message:  fmt.Sprintf("upstream returned %d: %s", resp.StatusCode, truncate(body, 256)),
			Attempts: attempt + 1,
		}
		if !kind.Retryable() || attempt >= maxRetries {
			return nil, lastErr
		}
		sleepBackoff(ctx, retryDelay, attempt)
	}
}

// classifyStatus maps an HTTP status code to an ErrorKind per spec §4.1.
func classifyStatus(code int) ErrorKind {
	switch {
	case code == http.StatusBadRequest:
		return ErrorKindBadRequest
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrorKindAuth
	case code >= 500:
		return ErrorKindServer
	default:
		return ErrorKindTransport
	}
}

// classifyTransportErr distinguishes a timeout (not retried by default)
// from a connection-level failure (retried) and anything else (transport,
// retried once).
func classifyTransportErr(err error) ErrorKind {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrorKindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrorKindConnection
	}
	return ErrorKindTransport
}

func sleepBackoff(ctx context.Context, base time.Duration, attempt int) {
	delay := base * time.Duration(1<<uint(attempt))
	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
