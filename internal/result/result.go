// Package result carries the outcome of a store operation across the store
// boundary: a success flag plus a user-facing message, with the typed cause
// kept for callers that need errors.Is.
package result

import "errors"

// Result is the {success, error} projection returned by store mutators.
type Result struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	cause   error
}

// OK returns a successful result.
func OK() Result {
	return Result{Success: true}
}

// Fail returns a failed result with the message shown to the user.
func Fail(cause error, message string) Result {
	if message == "" && cause != nil {
		message = cause.Error()
	}
	return Result{Success: false, Error: message, cause: cause}
}

// Cause returns the error that produced a failed result, or nil.
func (r Result) Cause() error {
	return r.cause
}

// Is reports whether the result failed with target somewhere in its cause chain.
func (r Result) Is(target error) bool {
	return r.cause != nil && errors.Is(r.cause, target)
}
