// Package errs carries errors that are safe to show to API clients.
package errs

import "errors"

// Response is the form used for API responses from failures in the API.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an error whose message can go back to the client unchanged,
// paired with the HTTP status the handler wants returned.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted wraps an error a handler expects to see, such as a malformed
// address or a rejected transaction, with an HTTP status code.
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

// GetTrusted extracts the Trusted error from the chain, or nil.
func GetTrusted(err error) *Trusted {
	var re *Trusted
	if !errors.As(err, &re) {
		return nil
	}
	return re
}
