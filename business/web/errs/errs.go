// Package errs provides the error types the mirror API speaks. A trusted
// error carries a status and a message safe to show the caller, a failed
// signature check or a missing article; anything else surfaces as a bare
// 500 so ledger and database internals never leak into a response.
package errs

import "errors"

// Response is the JSON form of a request failure. Fields carries the
// per-field messages from payload validation.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an error whose message is safe to return to the caller,
// together with the HTTP status it maps to.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps an expected handler error, such as an auth rejection
// or a missing record, with the status the mirror should answer with.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error implements the error interface using the wrapped error's message.
func (re *Trusted) Error() string {
	return re.Err.Error()
}

// IsTrusted reports whether a Trusted error exists in the chain.
func IsTrusted(err error) bool {
	var re *Trusted
	return errors.As(err, &re)
}

// GetTrusted pulls the Trusted error out of the chain, nil when there
// is none.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
