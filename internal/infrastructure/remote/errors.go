package remote

import (
	"fmt"

	"github.com/storefront/cartsync/internal/domain/cart"
)

// FailureKind classifies why a remote call failed. It is diagnostic only.
type FailureKind string

const (
	FailureTransport   FailureKind = "transport"
	FailureStatus      FailureKind = "status"
	FailurePayload     FailureKind = "payload"
	FailureApplication FailureKind = "application"
)

// Error is returned by every failed Gateway call; errors.Is(err, cart.ErrRemoteFailed) holds.
type Error struct {
	Op         string
	Kind       FailureKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s %s failure", cart.ErrRemoteFailed, e.Op, e.Kind)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches cart.ErrRemoteFailed
func (e *Error) Is(target error) bool {
	return target == cart.ErrRemoteFailed
}
