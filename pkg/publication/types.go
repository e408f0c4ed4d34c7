package publication

import (
	"time"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

// MemberKind distinguishes attribute and event subscriptions.
type MemberKind uint8

const (
	// MemberAttribute is a subscription to a provider attribute.
	MemberAttribute MemberKind = iota + 1

	// MemberEvent is a subscription to a provider broadcast.
	MemberEvent
)

// String returns a human-readable member kind name.
func (k MemberKind) String() string {
	switch k {
	case MemberAttribute:
		return "ATTRIBUTE"
	case MemberEvent:
		return "EVENT"
	default:
		return "UNKNOWN"
	}
}

// SubscriptionRequest subscribes to a provider attribute.
type SubscriptionRequest struct {
	// SubscriptionID identifies the subscription. Empty generates one.
	SubscriptionID string `json:"subscription_id" cbor:"1,keyasint"`

	// SubscribedToName is the attribute name.
	SubscribedToName string `json:"subscribed_to_name" cbor:"2,keyasint"`

	// Qos is the timing contract.
	Qos qos.Qos `json:"qos" cbor:"3,keyasint"`
}

// BroadcastSubscriptionRequest subscribes to a provider event.
type BroadcastSubscriptionRequest struct {
	// SubscriptionID identifies the subscription. Empty generates one.
	SubscriptionID string `json:"subscription_id" cbor:"1,keyasint"`

	// SubscribedToName is the event name.
	SubscribedToName string `json:"subscribed_to_name" cbor:"2,keyasint"`

	// Qos is the timing contract (Multicast or OnChange).
	Qos qos.Qos `json:"qos" cbor:"3,keyasint"`

	// FilterParameters are evaluated by the event's filters on every fire.
	FilterParameters provider.FilterParameters `json:"filter_parameters,omitempty" cbor:"4,keyasint,omitempty"`

	// Partitions narrow delivery. Empty matches every fire.
	Partitions []string `json:"partitions,omitempty" cbor:"5,keyasint,omitempty"`
}

// SubscriptionStop ends a subscription.
type SubscriptionStop struct {
	SubscriptionID string
}

// MessagingInfo addresses an outgoing publication.
type MessagingInfo struct {
	// From is the provider ID.
	From string

	// To is the subscribing proxy ID.
	To string

	// ExpiryDate is the publication expiry as stringified epoch milliseconds.
	ExpiryDate string
}

// Publication is a value or error delivered to a subscriber.
type Publication struct {
	SubscriptionID string

	// Response holds the published value(s). Nil when Error is set.
	Response []any

	// Error is the getter failure published instead of a value.
	Error error
}

// Dispatcher hands publications to the transport.
//
// SendPublication is called while the engine holds its scheduling lock. It
// must not block for long and must not call back into the Manager.
type Dispatcher interface {
	SendPublication(info MessagingInfo, pub Publication)
}

// DispatcherFunc adapts a function to the Dispatcher interface.
type DispatcherFunc func(info MessagingInfo, pub Publication)

// SendPublication calls f.
func (f DispatcherFunc) SendPublication(info MessagingInfo, pub Publication) {
	f(info, pub)
}

// StoredSubscription is the persisted form of an admitted request.
type StoredSubscription struct {
	ProxyID    string                        `json:"proxy_id" cbor:"1,keyasint"`
	ProviderID string                        `json:"provider_id" cbor:"2,keyasint"`
	Kind       MemberKind                    `json:"kind" cbor:"3,keyasint"`
	Request    *SubscriptionRequest          `json:"request,omitempty" cbor:"4,keyasint,omitempty"`
	Broadcast  *BroadcastSubscriptionRequest `json:"broadcast,omitempty" cbor:"5,keyasint,omitempty"`
	StoredAt   time.Time                     `json:"stored_at" cbor:"6,keyasint"`
}

// SubscriptionID returns the ID of the stored request.
func (s StoredSubscription) SubscriptionID() string {
	if s.Request != nil {
		return s.Request.SubscriptionID
	}
	if s.Broadcast != nil {
		return s.Broadcast.SubscriptionID
	}
	return ""
}

// Store persists admitted requests so they can be restored when their
// provider is added again. Writes are a side effect: failures are logged
// and never fail the subscription.
type Store interface {
	Save(sub StoredSubscription) error
	Delete(subscriptionID string) error
	Load() ([]StoredSubscription, error)
}
