package services

import (
	"errors"
	"net/http"

	"github.com/drayishere/lead-capture/pkg/clients/klaviyo"
)

// ErrorKind is a machine-readable failure category. Profile and subscription
// failures are kept distinct so a caller can tell "contact saved but not
// subscribed" from "contact not saved".
type ErrorKind string

const (
	KindConfig       ErrorKind = "config"
	KindProfile      ErrorKind = "profile"
	KindSubscription ErrorKind = "subscription"
)

// Error is a processing failure with enough context for the HTTP layer to
// build a response: a kind, an HTTP-ish status, and the raw upstream
// diagnostic when one exists.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Details string
}

func (e *Error) Error() string {
	return e.Message
}

// upstreamError wraps a Klaviyo client failure. Provider answers keep their
// status and raw body; transport-level failures map to 502.
func upstreamError(kind ErrorKind, message string, err error) *Error {
	var apiErr *klaviyo.APIError
	if errors.As(err, &apiErr) {
		return &Error{
			Kind:    kind,
			Status:  apiErr.StatusCode,
			Message: message,
			Details: apiErr.Body,
		}
	}
	return &Error{
		Kind:    kind,
		Status:  http.StatusBadGateway,
		Message: message,
		Details: err.Error(),
	}
}
