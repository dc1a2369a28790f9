package webhook

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingSharedKey means the verifier was built without a key. Every
	// delivery is rejected in that state.
	ErrMissingSharedKey = errors.New("webhook shared key is not configured")

	// ErrMissingSignature is returned when the delivery carries no signature
	ErrMissingSignature = errors.New("webhook signature missing")

	// ErrMalformedSignature is returned when the signature is not valid base64
	ErrMalformedSignature = errors.New("webhook signature malformed")

	// ErrSignatureMismatch is returned when the signature does not match the body
	ErrSignatureMismatch = errors.New("webhook signature mismatch")

	// ErrMalformedPayload is returned when an authenticated body is not a
	// well-formed event batch
	ErrMalformedPayload = errors.New("webhook payload malformed")

	// ErrDispatchTimeout is returned when a downstream action outlives its deadline
	ErrDispatchTimeout = errors.New("webhook action timed out")
)

// IsAuthenticationError reports whether err means the delivery could not be
// attributed to the provider
func IsAuthenticationError(err error) bool {
	return errors.Is(err, ErrMissingSharedKey) ||
		errors.Is(err, ErrMissingSignature) ||
		errors.Is(err, ErrMalformedSignature) ||
		errors.Is(err, ErrSignatureMismatch)
}

// DispatchError describes a failed downstream action for one event
type DispatchError struct {
	Index      int
	Kind       string
	DocumentID string
	Err        error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("event %d (%s, document %q): %v", e.Index, e.Kind, e.DocumentID, e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}
