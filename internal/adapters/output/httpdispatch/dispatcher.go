package httpdispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"booking-session-cache/configs"
	"booking-session-cache/internal/application"
	"booking-session-cache/internal/domain"
	"booking-session-cache/internal/ports/output"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Compile-time check to ensure HTTPDispatcher implements Dispatcher interface
var _ output.Dispatcher = (*HTTPDispatcher)(nil)

// Retry configuration constants
const (
	defaultMaxRetries = 3
	initialDelay      = 200 * time.Millisecond
	maxDelay          = 5 * time.Second
	backoffMultiplier = 2
)

// RequestIDHeader carries a per-call identifier for tracing on the API side
const RequestIDHeader = "X-Request-ID"

// HTTPDispatcher struct - Output adapter sending requests to the marketplace REST API.
// Credentials come from the session; a 401 triggers one refresh attempt.
type HTTPDispatcher struct {
	httpClient   *http.Client
	baseURL      string
	timeout      time.Duration
	maxRetries   int
	initialDelay time.Duration
	credentials  output.CredentialSource

	// serialises token refreshes so concurrent 401s share one refresh call
	refreshMu sync.Mutex
	onExpired func()
}

// NewHTTPDispatcher func - Creates new HTTP dispatcher
func NewHTTPDispatcher(config configs.Transport, credentials output.CredentialSource) (*HTTPDispatcher, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("%w: transport base url is required", domain.ErrInvalidRequest)
	}
	baseURL := strings.TrimSuffix(config.BaseURL, "/")

	timeout := time.Duration(config.Timeout) * time.Second
	if config.Timeout <= 0 {
		timeout = 30 * time.Second
	}

	maxRetries := config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	httpClient := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout:   10 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 100,
			IdleConnTimeout:     90 * time.Second,
		},
	}

	logrus.Infof("HTTP dispatcher initialized with base URL: %s, timeout: %v, max retries: %d", baseURL, timeout, maxRetries)

	return &HTTPDispatcher{
		httpClient:   httpClient,
		baseURL:      baseURL,
		timeout:      timeout,
		maxRetries:   maxRetries,
		initialDelay: initialDelay,
		credentials:  credentials,
	}, nil
}

// OnSessionExpired registers fn to run after a failed refresh logged the user out
func (d *HTTPDispatcher) OnSessionExpired(fn func()) {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()
	d.onExpired = fn
}

// Send performs request against the API and returns the raw JSON body
func (d *HTTPDispatcher) Send(ctx context.Context, request domain.Request) (json.RawMessage, error) {
	token, _ := d.credentials.AccessToken()

	status, body, err := d.do(ctx, request, token)
	if err != nil {
		return nil, err
	}

	if status == http.StatusUnauthorized && token != "" && request.URL != application.RefreshPath {
		renewed, ok := d.reauthenticate(ctx, token)
		if !ok {
			return nil, parseTransportError(status, body)
		}
		status, body, err = d.do(ctx, request, renewed)
		if err != nil {
			return nil, err
		}
	}

	if status < 200 || status >= 300 {
		return nil, parseTransportError(status, body)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(body) {
		return nil, domain.NewTransportError(status, "malformed response body", domain.ErrTransportUnavailable)
	}
	return json.RawMessage(body), nil
}

// reauthenticate swaps the rejected token for a fresh one, logging out when that is impossible
func (d *HTTPDispatcher) reauthenticate(ctx context.Context, rejected string) (string, bool) {
	d.refreshMu.Lock()
	defer d.refreshMu.Unlock()

	current, ok := d.credentials.AccessToken()
	// another caller's failed refresh already ended the session
	if !ok {
		return "", false
	}
	// another caller already refreshed while we waited
	if current != rejected {
		return current, true
	}

	refreshToken, ok := d.credentials.RefreshToken()
	if !ok {
		d.expire("no refresh token")
		return "", false
	}

	status, body, err := d.do(ctx, application.RefreshRequest(refreshToken), "")
	if err != nil || status < 200 || status >= 300 {
		d.expire(fmt.Sprintf("refresh rejected: status=%d err=%v", status, err))
		return "", false
	}

	var refreshed domain.RefreshResponse
	if err := json.Unmarshal(body, &refreshed); err != nil || refreshed.AccessToken == "" {
		d.expire("malformed refresh response")
		return "", false
	}
	if err := d.credentials.RefreshTokens(refreshed.AccessToken, refreshed.RefreshToken); err != nil {
		d.expire(err.Error())
		return "", false
	}

	logrus.Info("Access token refreshed")
	return refreshed.AccessToken, true
}

// expire must be called with refreshMu held
func (d *HTTPDispatcher) expire(reason string) {
	logrus.Warnf("Session expired: %s", reason)
	d.credentials.Logout()
	if d.onExpired != nil {
		d.onExpired()
	}
}

// do sends request with retries and returns the final status and body
func (d *HTTPDispatcher) do(ctx context.Context, request domain.Request, token string) (int, []byte, error) {
	var payload []byte
	if request.Body != nil {
		var err error
		payload, err = json.Marshal(request.Body)
		if err != nil {
			return 0, nil, domain.NewTransportError(0, "failed to encode request body", fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
		}
	}

	method := request.Method
	if method == "" {
		method = http.MethodGet
	}
	url := d.baseURL + request.URL
	requestID := uuid.NewString()

	resp, err := d.retryWithBackoff(ctx, func() (*http.Response, error) {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		req.Header.Set(RequestIDHeader, requestID)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		return d.httpClient.Do(req)
	})
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, domain.NewTransportError(resp.StatusCode, "failed to read response body", fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err))
	}
	logrus.Debugf("%s %s -> %d (request_id=%s)", method, request.URL, resp.StatusCode, requestID)
	return resp.StatusCode, body, nil
}

// retryWithBackoff executes an operation with exponential backoff retry logic.
// Non-5xx responses are returned as-is for the caller to interpret.
func (d *HTTPDispatcher) retryWithBackoff(ctx context.Context, operation func() (*http.Response, error)) (*http.Response, error) {
	var lastErr error
	lastStatus := 0
	delay := d.initialDelay

	for attempt := 1; attempt <= d.maxRetries; attempt++ {
		resp, err := operation()

		if err != nil {
			if !d.isTransientError(err, 0) {
				return nil, domain.NewTransportError(0, err.Error(), fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, err))
			}
			lastErr = err
			logrus.Warnf("API request attempt %d/%d failed with error: %v, retrying in %v", attempt, d.maxRetries, err, delay)
		} else if d.isTransientError(nil, resp.StatusCode) {
			if attempt == d.maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			lastStatus = resp.StatusCode
			lastErr = fmt.Errorf("server error: status %d", resp.StatusCode)
			logrus.Warnf("API request attempt %d/%d failed with status %d, retrying in %v", attempt, d.maxRetries, resp.StatusCode, delay)
		} else {
			return resp, nil
		}

		// Check context before sleeping
		if attempt < d.maxRetries {
			select {
			case <-ctx.Done():
				return nil, domain.NewTransportError(lastStatus, "request cancelled", fmt.Errorf("%w: %v", domain.ErrTransportUnavailable, ctx.Err()))
			case <-time.After(delay):
			}

			delay = delay * backoffMultiplier
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	return nil, domain.NewTransportError(lastStatus, fmt.Sprintf("%v after %d attempts", lastErr, d.maxRetries), domain.ErrTransportUnavailable)
}

// isTransientError determines if an error or status code is transient and should be retried
func (d *HTTPDispatcher) isTransientError(err error, statusCode int) bool {
	if statusCode >= 500 && statusCode < 600 {
		return true
	}
	if statusCode >= 400 && statusCode < 500 {
		return false
	}
	if err == nil {
		return false
	}

	// a cancelled caller is never retried
	if errors.Is(err, context.Canceled) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errMsg := strings.ToLower(err.Error())
	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"no such host",
		"network is unreachable",
		"i/o timeout",
		"eof",
	}
	for _, pattern := range transientPatterns {
		if strings.Contains(errMsg, pattern) {
			return true
		}
	}

	return false
}

// parseTransportError turns an error response into a TransportError, keeping field-level errors
func parseTransportError(status int, body []byte) *domain.TransportError {
	transportErr := &domain.TransportError{Status: status}
	var data domain.TransportErrorData
	if err := json.Unmarshal(body, &data); err == nil {
		transportErr.Data = data
	}
	if transportErr.Data.Message == "" {
		transportErr.Data.Message = http.StatusText(status)
	}
	return transportErr
}
