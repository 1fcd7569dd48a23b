// Package resilience provides retry, circuit breaking and error
// classification for calls to the reporting backend.
package resilience

import (
	"context"
	"errors"
	"io"
	"net"
	"syscall"
)

// StatusCarrier is implemented by errors raised after the backend answered.
type StatusCarrier interface {
	HTTPStatus() int
}

// TransientError marks a backend failure that may succeed if repeated.
type TransientError struct {
	Err        error
	StatusCode int
}

func (e *TransientError) Error() string {
	return e.Err.Error()
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// NewTransientError wraps err as transient with an optional HTTP status code.
func NewTransientError(err error, statusCode int) *TransientError {
	return &TransientError{Err: err, StatusCode: statusCode}
}

// Mark tags err for the retry loop and the breakers. Errors that carry a
// status are transient only for retryable statuses. Other errors raised while
// ctx is live are transport faults, per-request timeouts included, and are
// transient. Once ctx is done err is returned unchanged.
func Mark(ctx context.Context, err error) error {
	if err == nil || ctx.Err() != nil {
		return err
	}
	var sc StatusCarrier
	if errors.As(err, &sc) {
		if IsTransientHTTPStatus(sc.HTTPStatus()) {
			return NewTransientError(err, sc.HTTPStatus())
		}
		return err
	}
	return NewTransientError(err, 0)
}

// IsTransient reports whether err, or anything it wraps, is worth repeating.
// Unmarked cancellation never is.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var te *TransientError
	if errors.As(err, &te) {
		return true
	}
	if isCancel(err) {
		return false
	}

	var sc StatusCarrier
	if errors.As(err, &sc) {
		return IsTransientHTTPStatus(sc.HTTPStatus())
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// IsTransientHTTPStatus reports whether a backend status code is retryable:
// 408, 425, 429 and every 5xx except 501 and 505, which will not change on
// a repeat.
func IsTransientHTTPStatus(statusCode int) bool {
	switch statusCode {
	case 408, 425, 429:
		return true
	case 501, 505:
		return false
	}
	return statusCode >= 500 && statusCode <= 599
}

// Failure classes reported by Classify.
const (
	ClassCircuitOpen = "circuit_open"
	ClassCancelled   = "cancelled"
	ClassTransient   = "transient"
	ClassRejected    = "rejected"
	ClassPermanent   = "permanent"
)

// Classify labels err for metrics and logs. Rejected errors carry a
// non-retryable backend status.
func Classify(err error) string {
	switch {
	case IsOpen(err):
		return ClassCircuitOpen
	case IsTransient(err):
		return ClassTransient
	case isCancel(err):
		return ClassCancelled
	}
	var sc StatusCarrier
	if errors.As(err, &sc) {
		return ClassRejected
	}
	return ClassPermanent
}

func isCancel(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
