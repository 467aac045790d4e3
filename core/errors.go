package core

import "fmt"

var (
	// ErrMalformedPayload is returned when a message payload does not match
	// what the recipient requires for its message kind.
	ErrMalformedPayload = fmt.Errorf("malformed payload")

	// ErrDeliveryLimitExceeded is returned when a single run exceeds its delivery budget.
	ErrDeliveryLimitExceeded = fmt.Errorf("delivery limit exceeded")

	// ErrProfileNotFound is returned by ProfileStore lookups that match nothing.
	ErrProfileNotFound = fmt.Errorf("onboarding profile not found")
)

// MalformedPayloadError builds an error wrapping ErrMalformedPayload that names
// the recipient and the offending message kind.
func MalformedPayloadError(recipient string, kind Kind, reason string) error {
	return fmt.Errorf("%s: %w: %s message: %s", recipient, ErrMalformedPayload, kind, reason)
}
