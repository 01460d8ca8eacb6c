package client

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors returned by the client.
var (
	// ErrUnknownResponse is wrapped by the error object synthesised when the
	// server answers with something that is neither JSON nor a known error shape.
	ErrUnknownResponse = errors.New("unknown response")

	// ErrInvalidEnv is returned by New when Config.Env is not a known environment.
	ErrInvalidEnv = errors.New("invalid cmr environment")
)

// ErrorClass represents a classification of failed requests.
type ErrorClass string

const (
	// ErrorClassClient represents 4xx responses.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx responses.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents transport failures and timeouts.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassUnknown represents bodies that could not be decoded.
	ErrorClassUnknown ErrorClass = "unknown"
)

// ErrorResponse is the CMR error object: {"errors": [...], "code": n, "reason": "..."}.
// Remote errors keep the server payload in Payload; locally synthesised errors
// wrap the underlying cause in Err.
type ErrorResponse struct {
	Errors  []string `json:"errors"`
	Code    int      `json:"code"`
	Reason  string   `json:"reason,omitempty"`
	Payload Document `json:"-"`
	Err     error    `json:"-"`
}

// Error implements the error interface.
func (e *ErrorResponse) Error() string {
	msg := strings.Join(e.Errors, "; ")
	if msg == "" {
		msg = e.Reason
	}
	return fmt.Sprintf("cmr error (code %d): %s", e.Code, msg)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ErrorResponse) Unwrap() error {
	return e.Err
}

// NewUnknownResponse builds the error object used when a response body is not JSON.
func NewUnknownResponse(raw string) *ErrorResponse {
	return &ErrorResponse{
		Errors: []string{"unknown response: " + raw},
		Code:   0,
		Reason: raw,
		Err:    ErrUnknownResponse,
	}
}

// NewTransportError builds the error object for a request that never produced
// an HTTP response.
func NewTransportError(err error) *ErrorResponse {
	return &ErrorResponse{
		Errors: []string{err.Error()},
		Code:   0,
		Reason: err.Error(),
		Err:    err,
	}
}

// classifyStatus categorises a non-2xx status code for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ""
	}
}
