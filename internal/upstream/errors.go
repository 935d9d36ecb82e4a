package upstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// Failure reasons. Every error returned by a provider call matches exactly one
// of these with errors.Is.
var (
	ErrUnavailable   = errors.New("upstream unavailable")
	ErrInvalidSymbol = errors.New("upstream does not know symbol")
	ErrRateLimited   = errors.New("upstream rate limited")
	ErrTimeout       = errors.New("upstream timed out")
)

// Error describes a failed provider call.
type Error struct {
	Source string // "yahoo", "marketaux"
	Op     string // "history", "quote", "profile", "news"
	Symbol string
	Status int // HTTP status of a non-200 response, 0 otherwise
	Reason error
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s %s: %v", e.Source, e.Op, e.Symbol, e.Reason)
	}
	return fmt.Sprintf("%s %s %s: %v: %v", e.Source, e.Op, e.Symbol, e.Reason, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Reason}
	}
	return []error{e.Reason, e.Err}
}

func statusReason(code int) error {
	switch code {
	case http.StatusNotFound:
		return ErrInvalidSymbol
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusRequestTimeout, http.StatusGatewayTimeout:
		return ErrTimeout
	default:
		return ErrUnavailable
	}
}

func transportReason(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ErrTimeout
	}
	return ErrUnavailable
}
