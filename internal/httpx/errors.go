package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// Kind classifies a failed tracker request.
type Kind int

const (
	Unknown Kind = iota
	Timeout
	Canceled
	HTTPException
)

func (k Kind) String() string {
	switch k {
	case Unknown:
		return "unknown"
	case Timeout:
		return "timeout"
	case Canceled:
		return "canceled"
	case HTTPException:
		return "http"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified request failure. Status is set for non-2xx responses.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s error: status %d: %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Classify maps an error to a Kind. Cancellation and deadlines are checked
// before transport errors; anything unrecognised is Unknown.
func Classify(err error) Kind {
	if err == nil {
		return Unknown
	}
	var herr *Error
	if errors.As(err, &herr) {
		return herr.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Timeout
	}
	if errors.Is(err, context.Canceled) {
		return Canceled
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		if nerr.Timeout() {
			return Timeout
		}
		return HTTPException
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return HTTPException
	}
	return Unknown
}

func wrap(kind Kind, err error) *Error {
	return &Error{Kind: kind, Err: err}
}
