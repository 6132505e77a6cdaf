package batchfetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	log "github.com/sirupsen/logrus"
)

// maxBackoff caps a single wait between two attempts
const maxBackoff = 120 * time.Second

// drainLimit bounds how much of a rejected body is read to keep the
// connection reusable
const drainLimit = 64 << 10

// retryableStatusCodes are the transient statuses a GET is retried on
var retryableStatusCodes = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Transport is the HTTP client shared by all fetches of a run. It is
// configured once and safe for concurrent use.
type Transport struct {
	client  *retryablehttp.Client
	pooled  *http.Transport
	headers map[string]string
	timeout time.Duration
	logger  *log.Logger
}

// NewTransport returns a transport with pooled connections, fixed
// headers and the retry policy of config.Request. The timeout bounds
// connecting, waiting for response headers and each gap between two
// reads of the body, not the whole download.
func NewTransport(config *Config) *Transport {
	request := config.Request

	pooled := http.DefaultTransport.(*http.Transport).Clone()
	pooled.DialContext = (&net.Dialer{
		Timeout:   request.Timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	pooled.ResponseHeaderTimeout = request.Timeout
	pooled.MaxIdleConns = 100
	pooled.MaxIdleConnsPerHost = request.Concurrency
	pooled.IdleConnTimeout = 90 * time.Second

	httpClient := &http.Client{
		Transport: &idleTimeoutTransport{
			pooled: pooled,
			idle:   request.Timeout,
		},
	}
	if !request.FollowRedirect {
		httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	t := &Transport{
		pooled: pooled,
		headers: map[string]string{
			"User-Agent":      request.UserAgent,
			"Accept":          "*/*",
			"Accept-Language": "en-US,en;q=0.9",
			"Connection":      "keep-alive",
		},
		timeout: request.Timeout,
		logger:  config.Logger,
	}

	client := retryablehttp.NewClient()
	client.HTTPClient = httpClient
	client.RetryMax = request.MaxRetryTimes
	client.RetryWaitMin = request.BackoffFactor
	client.RetryWaitMax = maxBackoff
	client.CheckRetry = checkRetry
	client.Backoff = exponentialBackoff(request.BackoffFactor)
	client.ErrorHandler = giveUp
	client.Logger = retryLogger{logger: config.Logger}
	client.RequestLogHook = t.logAttempt
	t.client = client

	return t
}

// Fetch performs a GET on rawURL. A nil error means a 2xx response whose
// body the caller must close. Any other outcome comes back as *FetchError.
func (t *Transport) Fetch(ctx context.Context, rawURL string) (*http.Response, error) {
	request, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{
			Category: CategoryOther,
			Detail:   fmt.Sprintf("invalid request: %v", err),
			Err:      err,
		}
	}
	for field, value := range t.headers {
		request.Header.Set(field, value)
	}

	response, err := t.client.Do(request)
	if err != nil {
		return nil, classifyError(err, t.timeout)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, drainLimit))
		response.Body.Close()
		return nil, statusError(response.StatusCode)
	}

	return response, nil
}

// Timeout returns the per-request timeout
func (t *Transport) Timeout() time.Duration {
	return t.timeout
}

// Close releases idle pooled connections
func (t *Transport) Close() {
	t.pooled.CloseIdleConnections()
}

func (t *Transport) logAttempt(_ retryablehttp.Logger, request *http.Request, attempt int) {
	if attempt == 0 {
		return
	}
	t.logger.WithFields(log.Fields{
		"url":     request.URL.String(),
		"attempt": attempt,
	}).Debug("Retrying request")
}

// checkRetry retries a GET on transient statuses only. Transport errors
// are terminal so the caller sees connection and timeout failures at once.
func checkRetry(ctx context.Context, response *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return false, nil
	}
	if response.Request != nil && response.Request.Method != http.MethodGet {
		return false, nil
	}
	return retryableStatusCodes[response.StatusCode], nil
}

// giveUp is called once retryablehttp stops trying. A response without
// an error means the retry budget ran out on a transient status.
func giveUp(response *http.Response, err error, attempts int) (*http.Response, error) {
	if response != nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(response.Body, drainLimit))
		response.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	if response == nil {
		return nil, fmt.Errorf("no response after %d attempt(s)", attempts)
	}
	if attempts <= 1 {
		return nil, statusError(response.StatusCode)
	}
	return nil, exhaustedError(response.StatusCode, attempts)
}

// exponentialBackoff waits factor, 2*factor, 4*factor... between
// attempts, honouring Retry-After on 429 and 503.
func exponentialBackoff(factor time.Duration) retryablehttp.Backoff {
	return func(_, _ time.Duration, attemptNum int, response *http.Response) time.Duration {
		if response != nil && (response.StatusCode == http.StatusTooManyRequests || response.StatusCode == http.StatusServiceUnavailable) {
			if after, ok := retryAfter(response); ok {
				return after
			}
		}

		if attemptNum > 30 {
			return maxBackoff
		}
		wait := factor * time.Duration(int64(1)<<uint(attemptNum))
		if wait > maxBackoff || wait < 0 {
			return maxBackoff
		}
		return wait
	}
}

func retryAfter(response *http.Response) (time.Duration, bool) {
	value := response.Header.Get("Retry-After")
	if value == "" {
		return 0, false
	}
	seconds, err := strconv.ParseInt(value, 10, 64)
	if err != nil || seconds < 0 {
		return 0, false
	}
	wait := time.Duration(seconds) * time.Second
	if wait > maxBackoff {
		wait = maxBackoff
	}
	return wait, true
}

// retryLogger routes retryablehttp logging into logrus at debug level
type retryLogger struct {
	logger *log.Logger
}

func (l retryLogger) entry(keysAndValues []interface{}) *log.Entry {
	fields := make(log.Fields, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return l.logger.WithFields(fields)
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.entry(keysAndValues).Debug(msg)
}

// idleTimeoutTransport puts an idle deadline on every response body. It
// does not expose CloseIdleConnections, so the http.Client cannot drop
// the pool when retryablehttp gives up on a single host.
type idleTimeoutTransport struct {
	pooled *http.Transport
	idle   time.Duration
}

func (i *idleTimeoutTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancel(request.Context())
	response, err := i.pooled.RoundTrip(request.WithContext(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	response.Body = newIdleBody(response.Body, i.idle, cancel)
	return response, nil
}

// errReadIdle is returned when a body stays silent for longer than the
// idle timeout
var errReadIdle net.Error = idleTimeoutError{}

type idleTimeoutError struct{}

func (idleTimeoutError) Error() string   { return "body read idle timeout" }
func (idleTimeoutError) Timeout() bool   { return true }
func (idleTimeoutError) Temporary() bool { return true }

// idleBody cancels its request when no read completes within idle
type idleBody struct {
	io.ReadCloser
	idle    time.Duration
	timer   *time.Timer
	expired atomic.Bool
	cancel  context.CancelFunc
}

func newIdleBody(body io.ReadCloser, idle time.Duration, cancel context.CancelFunc) *idleBody {
	b := &idleBody{ReadCloser: body, idle: idle, cancel: cancel}
	b.timer = time.AfterFunc(idle, func() {
		b.expired.Store(true)
		cancel()
	})
	return b
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if b.expired.Load() {
		return n, errReadIdle
	}
	b.timer.Reset(b.idle)
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
