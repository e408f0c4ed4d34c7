package provider

import (
	"errors"
	"fmt"
)

// ErrUnknownParameter is returned when setting an undeclared output parameter.
var ErrUnknownParameter = errors.New("unknown output parameter")

// OutputParameters holds the named values carried by a fired event.
// Values are reported in declaration order.
type OutputParameters struct {
	names  []string
	values map[string]any
}

// NewOutputParameters declares an empty parameter set.
func NewOutputParameters(names ...string) OutputParameters {
	return OutputParameters{
		names:  append([]string(nil), names...),
		values: make(map[string]any, len(names)),
	}
}

// Set assigns a declared parameter.
func (p OutputParameters) Set(name string, value any) error {
	if !p.declares(name) {
		return fmt.Errorf("%w: %s", ErrUnknownParameter, name)
	}
	p.values[name] = value
	return nil
}

// Get returns a parameter value.
func (p OutputParameters) Get(name string) (any, bool) {
	v, ok := p.values[name]
	return v, ok
}

// Names returns the declared parameter names.
func (p OutputParameters) Names() []string {
	return append([]string(nil), p.names...)
}

// Values returns the parameter values in declaration order. Unset
// parameters are reported as nil.
func (p OutputParameters) Values() []any {
	out := make([]any, len(p.names))
	for i, name := range p.names {
		out[i] = p.values[name]
	}
	return out
}

func (p OutputParameters) declares(name string) bool {
	for _, n := range p.names {
		if n == name {
			return true
		}
	}
	return false
}

// FilterParameters are the subscriber-supplied values a Filter evaluates.
type FilterParameters map[string]string

// Filter decides whether a fired event is delivered to a subscriber.
type Filter interface {
	Filter(out OutputParameters, params FilterParameters) bool
}

// FilterFunc adapts a function to the Filter interface.
type FilterFunc func(out OutputParameters, params FilterParameters) bool

// Filter calls f.
func (f FilterFunc) Filter(out OutputParameters, params FilterParameters) bool {
	return f(out, params)
}
