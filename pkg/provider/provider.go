package provider

import (
	"context"
)

// AttributeListener is notified when an attribute value changes.
type AttributeListener interface {
	// AttributeValueChanged is called with the new value.
	AttributeValueChanged(value any)
}

// Attribute is a named, readable provider value with change notifications.
type Attribute interface {
	// Get returns the current value. It may block; the engine never calls
	// it while holding its scheduling lock.
	Get(ctx context.Context) (any, error)

	// RegisterObserver adds a change listener.
	RegisterObserver(l AttributeListener)

	// UnregisterObserver removes a change listener.
	UnregisterObserver(l AttributeListener)
}

// BroadcastListener is notified when an event fires.
type BroadcastListener interface {
	// BroadcastFired is called with the output parameters and the partitions
	// the event was fired on.
	BroadcastFired(out OutputParameters, partitions []string)
}

// Event is a named provider broadcast.
type Event interface {
	// RegisterObserver adds a broadcast listener.
	RegisterObserver(l BroadcastListener)

	// UnregisterObserver removes a broadcast listener.
	UnregisterObserver(l BroadcastListener)

	// NewOutputParameters returns an empty parameter set for this event.
	NewOutputParameters() OutputParameters

	// FilterParameterNames lists the filter parameters subscribers may set.
	FilterParameterNames() []string

	// Filters returns the registered broadcast filters.
	Filters() []Filter
}

// Provider exposes named attributes and events.
type Provider interface {
	Attribute(name string) (Attribute, bool)
	Event(name string) (Event, bool)
	AttributeNames() []string
	EventNames() []string
}

// GetterFunc computes an attribute value on demand.
type GetterFunc func(ctx context.Context) (any, error)
