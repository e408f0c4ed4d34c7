package publication

import (
	"errors"
	"fmt"
)

// Admission errors. A rejected request returns a *SubscriptionError that
// unwraps to one of these.
var (
	ErrInvalidQos              = errors.New("invalid subscription qos")
	ErrUnknownProvider         = errors.New("unknown provider")
	ErrUnknownAttribute        = errors.New("unknown attribute")
	ErrUnknownEvent            = errors.New("unknown event")
	ErrInvalidFilterParameters = errors.New("invalid filter parameters")
	ErrInvalidPartition        = errors.New("invalid partition")
	ErrExpiredOnArrival        = errors.New("subscription expired on arrival")
	ErrShutdown                = errors.New("publication manager shut down")
)

// Engine errors.
var (
	ErrNilDispatcher = errors.New("dispatcher is required")
	ErrNilProvider   = errors.New("provider is required")
	ErrGetterPanic   = errors.New("attribute getter panicked")
)

// SubscriptionError rejects a subscription request.
type SubscriptionError struct {
	// SubscriptionID is the (possibly generated) ID of the rejected request.
	SubscriptionID string

	// DetailMessage explains the rejection to the consumer.
	DetailMessage string

	// Err is the underlying sentinel.
	Err error
}

// Error implements error.
func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription %s rejected: %s", e.SubscriptionID, e.DetailMessage)
}

// Unwrap returns the underlying error.
func (e *SubscriptionError) Unwrap() error {
	return e.Err
}
