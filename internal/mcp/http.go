package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/searchrelay/searchrelay/internal/config"
	"github.com/searchrelay/searchrelay/internal/httpkit"
)

// DefaultTimeout is the per-call deadline armed at send time.
const DefaultTimeout = 30 * time.Second

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 10 << 20 // 10 MiB

// Transport delivers a JSON-RPC request to the endpoint and returns the
// raw response body as text. The body is deliberately returned unparsed:
// the endpoint may answer with a single JSON document or an event-stream
// depending on server-side buffering, and selecting the representation
// is the decoder's job, not the transport's.
type Transport interface {
	Send(ctx context.Context, req *Request) (string, error)
}

// HTTPConfig configures an HTTP transport for the hosted endpoint.
type HTTPConfig struct {
	// URL is the base endpoint URL.
	URL string

	// AllowedTools is the fixed allowlist of remote tool identifiers,
	// sent as the "tools" query parameter on every request.
	AllowedTools []string

	// Timeout is the per-call deadline. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger is the structured logger for transport diagnostics.
	Logger *slog.Logger

	// HTTPClient overrides the underlying client. When nil one is built
	// via httpkit with its own timeout disabled, so the per-call context
	// deadline is the only clock running.
	HTTPClient *http.Client
}

// HTTPTransport sends each JSON-RPC request as an independent HTTP POST
// exchange. It holds no per-call state; concurrent calls share only the
// pooled http.Client.
type HTTPTransport struct {
	url        string
	timeout    time.Duration
	httpClient *http.Client
	logger     *slog.Logger
}

// NewHTTPTransport creates an HTTP transport for the given config.
func NewHTTPTransport(cfg HTTPConfig) *HTTPTransport {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := cfg.HTTPClient
	if client == nil {
		client = httpkit.NewClient(
			httpkit.WithTimeout(0),
			httpkit.WithLogger(logger),
		)
	}

	return &HTTPTransport{
		url:        endpointURL(cfg.URL, cfg.AllowedTools),
		timeout:    timeout,
		httpClient: client,
		logger:     logger,
	}
}

// endpointURL appends the tools allowlist query parameter to the base URL.
func endpointURL(base string, allowed []string) string {
	if len(allowed) == 0 {
		return base
	}
	u, err := url.Parse(base)
	if err != nil {
		// Leave a broken base alone; the POST will fail with a clear error.
		return base
	}
	q := u.Query()
	q.Set("tools", strings.Join(allowed, ","))
	u.RawQuery = q.Encode()
	return u.String()
}

// Send posts the request and returns the raw response body. The deadline
// is armed here; cancel runs on every exit path so the timer never leaks.
func (t *HTTPTransport) Send(ctx context.Context, req *Request) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create HTTP request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	// The endpoint legitimately answers in either representation.
	httpReq.Header.Set("Accept", "application/json, text/event-stream")

	httpResp, err := t.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Elapsed: t.timeout}
		}
		return "", fmt.Errorf("HTTP request to %s: %w", t.url, err)
	}
	defer httpkit.DrainAndClose(httpResp.Body, 1<<20)

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return "", &HTTPError{
			Status: httpResp.StatusCode,
			Reason: statusReason(httpResp),
		}
	}

	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxBodyBytes))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", &TimeoutError{Elapsed: t.timeout}
		}
		return "", fmt.Errorf("read response body: %w", err)
	}

	t.logger.Log(ctx, config.LevelTrace, "raw response body",
		"method", req.Method,
		"id", req.ID,
		"bytes", len(respBody),
		"body", string(respBody),
	)

	return string(respBody), nil
}

// statusReason extracts the reason phrase from a response status line,
// falling back to the standard text for the code.
func statusReason(resp *http.Response) string {
	prefix := fmt.Sprintf("%d ", resp.StatusCode)
	if strings.HasPrefix(resp.Status, prefix) {
		if reason := strings.TrimPrefix(resp.Status, prefix); reason != "" {
			return reason
		}
	}
	return http.StatusText(resp.StatusCode)
}
