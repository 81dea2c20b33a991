// Package errs provides the error types the handlers use to report expected
// failures with an HTTP status.
package errs

import "errors"

// Response is the JSON document returned for every failed request. Fields
// carries per-field validation messages.
type Response struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// Trusted is an error whose message is safe to show to the client, paired
// with the status to respond with.
type Trusted struct {
	Err    error
	Status int
}

// NewTrusted marks the error as an expected failure answered with status.
func NewTrusted(err error, status int) error {
	return &Trusted{err, status}
}

// Error returns the message of the wrapped error.
func (te *Trusted) Error() string {
	return te.Err.Error()
}

// Unwrap returns the wrapped error.
func (te *Trusted) Unwrap() error {
	return te.Err
}

// IsTrusted reports whether a Trusted error is in the chain.
func IsTrusted(err error) bool {
	var te *Trusted
	return errors.As(err, &te)
}

// GetTrusted returns the Trusted error in the chain, or nil.
func GetTrusted(err error) *Trusted {
	var te *Trusted
	if !errors.As(err, &te) {
		return nil
	}
	return te
}
