package domain

import "fmt"

// ProviderError is a non-success status returned by the reviews provider.
// The message is the provider's own error_message when present.
type ProviderError struct {
	Status  string
	Message string
}

func (e *ProviderError) Error() string { return e.Message }

// NewProviderError builds a ProviderError, substituting a generic message
// when the provider sent none.
func NewProviderError(status, message string) *ProviderError {
	if message == "" {
		message = fmt.Sprintf("places api returned status %s", status)
	}
	return &ProviderError{Status: status, Message: message}
}

// NetworkError wraps a transport-level failure reaching the provider.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string { return "places api unreachable: " + e.Err.Error() }
func (e *NetworkError) Unwrap() error { return e.Err }
