package log

import (
	"time"
)

// Event is one engine trace record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp is the engine clock time of the event.
	Timestamp time.Time `cbor:"1,keyasint"`

	// SubscriptionID identifies the subscription.
	SubscriptionID string `cbor:"2,keyasint"`

	// ProviderID is the publishing provider.
	ProviderID string `cbor:"3,keyasint,omitempty"`

	// ProxyID is the subscribing consumer.
	ProxyID string `cbor:"4,keyasint,omitempty"`

	// Member is the attribute or event name.
	Member string `cbor:"5,keyasint,omitempty"`

	// Category classifies the event.
	Category Category `cbor:"6,keyasint"`

	// Type-specific payload (one of these will be set).
	Lifecycle   *LifecycleEvent   `cbor:"10,keyasint,omitempty"`
	Publication *PublicationEvent `cbor:"11,keyasint,omitempty"`
	Rejection   *RejectionEvent   `cbor:"12,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"`
}

// Category classifies trace events.
type Category uint8

const (
	// CategoryLifecycle is a subscription state transition.
	CategoryLifecycle Category = 0
	// CategoryPublication is an emitted publication.
	CategoryPublication Category = 1
	// CategoryRejection is a refused subscription request.
	CategoryRejection Category = 2
	// CategoryError is an engine-side error that did not reach a consumer.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryLifecycle:
		return "LIFECYCLE"
	case CategoryPublication:
		return "PUBLICATION"
	case CategoryRejection:
		return "REJECTION"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Trigger records what caused a publication.
type Trigger uint8

const (
	// TriggerInitial is the publication emitted on admission.
	TriggerInitial Trigger = 0
	// TriggerChange is a change notification, immediate or debounced.
	TriggerChange Trigger = 1
	// TriggerHeartbeat is a periodic or keep-alive publication.
	TriggerHeartbeat Trigger = 2
	// TriggerBroadcast is a fired event.
	TriggerBroadcast Trigger = 3
)

// String returns the trigger name.
func (t Trigger) String() string {
	switch t {
	case TriggerInitial:
		return "INITIAL"
	case TriggerChange:
		return "CHANGE"
	case TriggerHeartbeat:
		return "HEARTBEAT"
	case TriggerBroadcast:
		return "BROADCAST"
	default:
		return "UNKNOWN"
	}
}

// LifecycleEvent captures a subscription state transition.
type LifecycleEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (stop, expiry, provider removal, ...).
	Reason string `cbor:"3,keyasint,omitempty"`

	// Qos is the QoS kind name of the subscription.
	Qos string `cbor:"4,keyasint,omitempty"`
}

// PublicationEvent captures one emitted publication.
type PublicationEvent struct {
	// Trigger is what caused the publication.
	Trigger Trigger `cbor:"1,keyasint"`

	// Payload is the published response (nil for error publications).
	Payload any `cbor:"2,keyasint,omitempty"`

	// Error is the getter error message carried instead of a payload.
	Error string `cbor:"3,keyasint,omitempty"`

	// ExpiryDate is the publication expiry stamped on the message.
	ExpiryDate time.Time `cbor:"4,keyasint,omitempty"`
}

// RejectionEvent captures a refused subscription request.
type RejectionEvent struct {
	// Reason is the detail message returned to the consumer.
	Reason string `cbor:"1,keyasint"`
}

// ErrorEventData captures errors that are logged but not published.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
