package provider

import (
	"sync"
)

// Broadcast is an in-memory event.
type Broadcast struct {
	mu          sync.RWMutex
	outputNames []string
	filterNames []string
	filters     []Filter
	listeners   []BroadcastListener
}

// NewBroadcast creates an event with the given output parameter names and
// the filter parameter names subscribers may use.
func NewBroadcast(outputNames []string, filterParameterNames ...string) *Broadcast {
	return &Broadcast{
		outputNames: append([]string(nil), outputNames...),
		filterNames: append([]string(nil), filterParameterNames...),
	}
}

// NewOutputParameters returns an empty parameter set for this event.
func (b *Broadcast) NewOutputParameters() OutputParameters {
	return NewOutputParameters(b.outputNames...)
}

// FilterParameterNames lists the declared filter parameters.
func (b *Broadcast) FilterParameterNames() []string {
	return append([]string(nil), b.filterNames...)
}

// AddFilter registers a broadcast filter.
func (b *Broadcast) AddFilter(f Filter) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.filters = append(b.filters, f)
}

// Filters returns the registered filters.
func (b *Broadcast) Filters() []Filter {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return append([]Filter(nil), b.filters...)
}

// Fire delivers out to all listeners on the given partitions.
func (b *Broadcast) Fire(out OutputParameters, partitions ...string) {
	b.mu.RLock()
	listeners := make([]BroadcastListener, len(b.listeners))
	copy(listeners, b.listeners)
	b.mu.RUnlock()

	for _, l := range listeners {
		l.BroadcastFired(out, partitions)
	}
}

// RegisterObserver adds a broadcast listener.
func (b *Broadcast) RegisterObserver(l BroadcastListener) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, l)
}

// UnregisterObserver removes a broadcast listener.
func (b *Broadcast) UnregisterObserver(l BroadcastListener) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, existing := range b.listeners {
		if existing == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of registered listeners.
func (b *Broadcast) ObserverCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

var _ Event = (*Broadcast)(nil)
