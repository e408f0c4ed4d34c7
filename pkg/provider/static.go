package provider

import (
	"sort"
)

// Static is a Provider with a fixed set of members.
type Static struct {
	attributes map[string]Attribute
	events     map[string]Event
}

// NewStatic creates an empty provider.
func NewStatic() *Static {
	return &Static{
		attributes: make(map[string]Attribute),
		events:     make(map[string]Event),
	}
}

// WithAttribute adds a named attribute.
func (s *Static) WithAttribute(name string, a Attribute) *Static {
	s.attributes[name] = a
	return s
}

// WithEvent adds a named event.
func (s *Static) WithEvent(name string, e Event) *Static {
	s.events[name] = e
	return s
}

// Attribute returns the named attribute.
func (s *Static) Attribute(name string) (Attribute, bool) {
	a, ok := s.attributes[name]
	return a, ok
}

// Event returns the named event.
func (s *Static) Event(name string) (Event, bool) {
	e, ok := s.events[name]
	return e, ok
}

// AttributeNames returns the attribute names in sorted order.
func (s *Static) AttributeNames() []string {
	return sortedKeys(s.attributes)
}

// EventNames returns the event names in sorted order.
func (s *Static) EventNames() []string {
	return sortedKeys(s.events)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var _ Provider = (*Static)(nil)
