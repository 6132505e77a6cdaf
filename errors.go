package batchfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// ErrorCategory classifies why a task failed
type ErrorCategory string

// ErrorCategory constant definitions
const (
	CategoryHTTPStatus ErrorCategory = "http-status"
	CategoryConnection ErrorCategory = "connection"
	CategoryTimeout    ErrorCategory = "timeout"
	CategoryStorage    ErrorCategory = "storage"
	CategoryOther      ErrorCategory = "other"
)

// FetchError is the classified failure of a single task
type FetchError struct {
	Category   ErrorCategory
	StatusCode int
	Detail     string
	Err        error
}

func (e *FetchError) Error() string {
	return e.Detail
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// statusError builds the failure for a terminal non-2xx response
func statusError(code int) *FetchError {
	return &FetchError{
		Category:   CategoryHTTPStatus,
		StatusCode: code,
		Detail:     fmt.Sprintf("HTTP %d", code),
	}
}

// exhaustedError is the failure once every retry of a transient status
// has been spent
func exhaustedError(code, attempts int) *FetchError {
	return &FetchError{
		Category:   CategoryHTTPStatus,
		StatusCode: code,
		Detail:     fmt.Sprintf("HTTP %d (gave up after %d attempts)", code, attempts),
	}
}

// storageError wraps a failure to write the destination file
func storageError(err error) *FetchError {
	return &FetchError{
		Category: CategoryStorage,
		Detail:   err.Error(),
		Err:      err,
	}
}

// classifyError maps a transport error to a FetchError. timeout is only
// used to render the detail message.
func classifyError(err error, timeout time.Duration) *FetchError {
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return fetchErr
	}

	if isTimeout(err) {
		return &FetchError{
			Category: CategoryTimeout,
			Detail:   fmt.Sprintf("timeout after %s", formatSeconds(timeout)),
			Err:      err,
		}
	}

	if isConnectionError(err) {
		return &FetchError{
			Category: CategoryConnection,
			Detail:   "cannot connect to server",
			Err:      err,
		}
	}

	return &FetchError{
		Category: CategoryOther,
		Detail:   err.Error(),
		Err:      err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func isConnectionError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNABORTED)
}

func formatSeconds(d time.Duration) string {
	if d%time.Second == 0 {
		return fmt.Sprintf("%ds", int64(d/time.Second))
	}
	return d.String()
}
