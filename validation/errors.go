package validation

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies one validation failure mode. The set is exhaustive: every
// way the gate can reject an operation maps to exactly one code.
type Code string

const (
	CodeChainUnreachable Code = "CHAIN_UNREACHABLE"
	CodeNotFoundOnChain  Code = "NOT_FOUND_ON_CHAIN"
	CodeStatusMismatch   Code = "STATUS_MISMATCH"
	CodeUsageExhausted   Code = "USAGE_EXHAUSTED"
	CodeExpiredOnChain   Code = "EXPIRED_ON_CHAIN"
	CodeHashMismatch     Code = "HASH_MISMATCH"
)

// Failure is a typed validation rejection. It carries a machine-readable
// code, a human-readable message, a structured context map suitable for
// audit logging, and the underlying cause where one exists.
type Failure struct {
	Code    Code
	Message string
	Context map[string]interface{}
	Err     error
}

func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s: %s: %v", f.Code, f.Message, f.Err)
	}
	return fmt.Sprintf("%s: %s", f.Code, f.Message)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Retryable reports whether the caller may retry the operation unchanged.
// Only unreachability is transient; every other code is a definitive
// rejection of the current attempt.
func (f *Failure) Retryable() bool {
	return f.Code == CodeChainUnreachable
}

// StatusClass maps the failure to an HTTP status code for request-handling
// collaborators.
func (f *Failure) StatusClass() int {
	switch f.Code {
	case CodeChainUnreachable:
		return http.StatusServiceUnavailable
	case CodeNotFoundOnChain:
		return http.StatusNotFound
	default:
		return http.StatusForbidden
	}
}

// AsFailure unwraps err to a *Failure if one is in its chain
func AsFailure(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

func newFailure(code Code, message string, context map[string]interface{}, cause error) *Failure {
	if context == nil {
		context = map[string]interface{}{}
	}
	if cause != nil {
		context["cause"] = cause.Error()
	}
	return &Failure{
		Code:    code,
		Message: message,
		Context: context,
		Err:     cause,
	}
}
