package provider

import "errors"

// ErrNoNumbers is returned when the provider has no numbers available for
// the requested service/country pair.
var ErrNoNumbers = errors.New("no numbers available")

// PurchaseResult is the provider's answer to a number purchase.
type PurchaseResult struct {
	ActivationID string
	PhoneNumber  string
}

// ActivationState mirrors the provider-side lifecycle of an activation.
type ActivationState string

const (
	StateWaiting   ActivationState = "waiting"
	StateReceived  ActivationState = "received"
	StateCancelled ActivationState = "cancelled"
)

// StatusResult reports the current provider-side state of an activation.
// Code is set only when State is StateReceived.
type StatusResult struct {
	State ActivationState
	Code  string
}

// Driver is the interface that all SMS-number provider drivers must
// implement. Drivers perform network calls and must never be invoked while
// a ledger transaction holds a row lock.
type Driver interface {
	// SetConfig sets the configuration for the driver
	SetConfig(config map[string]interface{}) error

	// Purchase buys a number for the given service/country
	Purchase(service, country string) (*PurchaseResult, error)

	// Cancel asks the provider to cancel an activation. Best effort: the
	// caller refunds regardless of the outcome.
	Cancel(activationID string) error

	// CheckStatus polls the provider for the activation state
	CheckStatus(activationID string) (*StatusResult, error)
}
