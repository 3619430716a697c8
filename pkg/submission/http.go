package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/goliatone/go-formstate/pkg/state"
)

const maxErrorBody = 1 << 20

// ErrEndpointRequired is returned by NewHTTP when no endpoint is given.
var ErrEndpointRequired = errors.New("submission: endpoint is required")

// HTTP posts form values as a JSON object. Connection failures and 5xx/429
// responses are retried; other non-2xx responses are decoded with
// FromPayload and returned as *Error.
type HTTP struct {
	endpoint string
	method   string
	header   http.Header
	client   *retryablehttp.Client
	logger   *log.Logger
}

// HTTPOption configures an HTTP handler.
type HTTPOption func(*HTTP)

// WithMethod overrides the request method (POST by default).
func WithMethod(method string) HTTPOption {
	return func(h *HTTP) {
		if method = strings.ToUpper(strings.TrimSpace(method)); method != "" {
			h.method = method
		}
	}
}

// WithHeader adds a request header.
func WithHeader(key, value string) HTTPOption {
	return func(h *HTTP) {
		h.header.Add(key, value)
	}
}

// WithRetry sets the retry budget and backoff bounds.
func WithRetry(max int, waitMin, waitMax time.Duration) HTTPOption {
	return func(h *HTTP) {
		if max >= 0 {
			h.client.RetryMax = max
		}
		if waitMin > 0 {
			h.client.RetryWaitMin = waitMin
		}
		if waitMax > 0 {
			h.client.RetryWaitMax = waitMax
		}
	}
}

// WithHTTPClient swaps the underlying transport client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(h *HTTP) {
		if client != nil {
			h.client.HTTPClient = client
		}
	}
}

// WithHTTPLogger routes request and retry logs to logger.
func WithHTTPLogger(logger *log.Logger) HTTPOption {
	return func(h *HTTP) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHTTP builds a submit handler posting to endpoint.
func NewHTTP(endpoint string, opts ...HTTPOption) (*HTTP, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, ErrEndpointRequired
	}
	if _, err := url.ParseRequestURI(endpoint); err != nil {
		return nil, fmt.Errorf("submission: invalid endpoint %q: %w", endpoint, err)
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.ErrorHandler = retryablehttp.PassthroughErrorHandler

	h := &HTTP{
		endpoint: endpoint,
		method:   http.MethodPost,
		header:   make(http.Header),
		client:   client,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	h.client.Logger = leveledLogger{logger: h.logger}
	return h, nil
}

// Submit sends values and maps the response. It satisfies state.SubmitFunc.
func (h *HTTP) Submit(ctx context.Context, values state.Values) error {
	body, err := sonic.Marshal(values)
	if err != nil {
		return fmt.Errorf("submission: encode values: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, h.method, h.endpoint, body)
	if err != nil {
		return fmt.Errorf("submission: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for key, list := range h.header {
		for _, value := range list {
			req.Header.Add(key, value)
		}
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("submission: %s %s: %w", h.method, h.endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		h.logger.Debug("submission accepted", "status", resp.StatusCode)
		return nil
	}

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("submission: read response: %w", err)
	}
	h.logger.Debug("submission rejected", "status", resp.StatusCode)
	return FromPayload(resp.StatusCode, payload)
}

// leveledLogger adapts charmbracelet/log to retryablehttp.LeveledLogger.
type leveledLogger struct {
	logger *log.Logger
}

func (l leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, keysAndValues...)
}

func (l leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, keysAndValues...)
}

func (l leveledLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, keysAndValues...)
}
