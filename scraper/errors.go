package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// TransportError reports a catalogue page that could not be retrieved.
type TransportError struct {
	Page       int
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d (%s): status %d: %v", e.Page, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Kind returns the failure category used in logs and metrics.
func (e *TransportError) Kind() string {
	return errorTypeLabel(e.Err)
}

// ErrTimeout indicates a timeout while issuing a request.
type ErrTimeout struct {
	Err error
}

func (e ErrTimeout) Error() string {
	return fmt.Errorf("timeout: %w", e.Err).Error()
}

func (e ErrTimeout) Unwrap() error {
	return e.Err
}

// ErrConnection indicates a network connectivity failure.
type ErrConnection struct {
	Err error
}

func (e ErrConnection) Error() string {
	return fmt.Errorf("connection: %w", e.Err).Error()
}

func (e ErrConnection) Unwrap() error {
	return e.Err
}

// ErrForbidden indicates a forbidden response (HTTP 403).
type ErrForbidden struct {
	Err error
}

func (e ErrForbidden) Error() string {
	return fmt.Errorf("forbidden: %w", e.Err).Error()
}

func (e ErrForbidden) Unwrap() error {
	return e.Err
}

// ErrNotFound indicates a missing page (HTTP 404), usually past the end of the catalogue.
type ErrNotFound struct {
	Err error
}

func (e ErrNotFound) Error() string {
	return fmt.Errorf("not_found: %w", e.Err).Error()
}

func (e ErrNotFound) Unwrap() error {
	return e.Err
}

// ErrRateLimited indicates the target rate-limited the request.
type ErrRateLimited struct {
	Err error
}

func (e ErrRateLimited) Error() string {
	return fmt.Errorf("rate_limited: %w", e.Err).Error()
}

func (e ErrRateLimited) Unwrap() error {
	return e.Err
}

// ErrServer indicates a 5xx response.
type ErrServer struct {
	Err error
}

func (e ErrServer) Error() string {
	return fmt.Errorf("server: %w", e.Err).Error()
}

func (e ErrServer) Unwrap() error {
	return e.Err
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	var timeout ErrTimeout
	if errors.As(err, &timeout) {
		return "timeout"
	}
	var conn ErrConnection
	if errors.As(err, &conn) {
		return "connection"
	}
	var forbidden ErrForbidden
	if errors.As(err, &forbidden) {
		return "forbidden"
	}
	var notFound ErrNotFound
	if errors.As(err, &notFound) {
		return "not_found"
	}
	var rateLimited ErrRateLimited
	if errors.As(err, &rateLimited) {
		return "rate_limited"
	}
	var server ErrServer
	if errors.As(err, &server) {
		return "server"
	}
	return "other"
}

// IsTransient reports whether a failed fetch is worth retrying.
func IsTransient(err error) bool {
	switch errorTypeLabel(err) {
	case "timeout", "connection", "rate_limited", "server":
		return true
	}
	return false
}

// IsNotFound reports whether err is a 404 for the page.
func IsNotFound(err error) bool {
	var notFound ErrNotFound
	return errors.As(err, &notFound)
}

func classifyError(err error, statusCode int) error {
	if err == nil && statusCode == 0 {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTimeout{Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrTimeout{Err: err}
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return ErrConnection{Err: err}
	}

	if statusCode != 0 {
		wrapped := err
		if wrapped == nil {
			wrapped = fmt.Errorf("http status %d", statusCode)
		}
		switch {
		case statusCode == http.StatusForbidden:
			return ErrForbidden{Err: wrapped}
		case statusCode == http.StatusNotFound:
			return ErrNotFound{Err: wrapped}
		case statusCode == http.StatusTooManyRequests:
			return ErrRateLimited{Err: wrapped}
		case statusCode >= http.StatusInternalServerError:
			return ErrServer{Err: wrapped}
		}
		return wrapped
	}

	return err
}
