package inference

import (
	"errors"
	"fmt"
	"strings"
)

// unreachableError signals a transport-level failure: the server did not
// answer at all.
type unreachableError struct {
	addr string
	err  error
}

func (e unreachableError) Error() string {
	return "inference server unreachable at " + e.addr + ": " + e.err.Error()
}

func (e unreachableError) Unwrap() error {
	return e.err
}

// ErrUnreachable constructs an unreachable error for addr.
func ErrUnreachable(addr string, err error) error { return unreachableError{addr: addr, err: err} }

// IsUnreachable reports whether err means the server could not be contacted.
func IsUnreachable(err error) bool {
	var u unreachableError
	return errors.As(err, &u)
}

// modelNotFoundError signals the server is up but lacks the requested model.
type modelNotFoundError struct {
	model string
	msg   string
}

func (e modelNotFoundError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("model %q not found: %s", e.model, e.msg)
	}
	return fmt.Sprintf("model %q not found", e.model)
}

// ErrModelNotFound constructs a model-not-found error for model.
func ErrModelNotFound(model string) error { return modelNotFoundError{model: model} }

// IsModelNotFound reports whether err means the requested model is absent.
func IsModelNotFound(err error) bool {
	var m modelNotFoundError
	return errors.As(err, &m)
}

// timeoutError signals the client-side deadline expired mid-request.
type timeoutError struct {
	op  string
	err error
}

func (e timeoutError) Error() string {
	return e.op + " timed out: " + e.err.Error()
}

func (e timeoutError) Unwrap() error {
	return e.err
}

// ErrTimeout constructs a timeout error for op.
func ErrTimeout(op string, err error) error { return timeoutError{op: op, err: err} }

// IsTimeout reports whether err is a client-side deadline expiry.
func IsTimeout(err error) bool {
	var t timeoutError
	return errors.As(err, &t)
}

// StatusError is a non-2xx answer that is not a missing model.
type StatusError struct {
	Code int
	Msg  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("inference server status %d: %s", e.Code, e.Msg)
}

// StatusCode implements the HTTP layer's status interface.
func (e *StatusError) StatusCode() int {
	return e.Code
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// looksLikeModelNotFound is the last-resort text heuristic for servers that
// report a missing model without a 404. Keep every string match here.
func looksLikeModelNotFound(msg string) bool {
	m := strings.ToLower(msg)
	if !strings.Contains(m, "model") {
		return false
	}
	return strings.Contains(m, "not found") || strings.Contains(m, "try pulling") || strings.Contains(m, "no such model")
}
