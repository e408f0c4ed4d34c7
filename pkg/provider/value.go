package provider

import (
	"context"
	"reflect"
	"sync"
)

// Value is an in-memory attribute. Set stores a value and notifies
// listeners when it differs from the previous one.
type Value struct {
	mu        sync.RWMutex
	value     any
	getter    GetterFunc
	listeners []AttributeListener
}

// NewValue creates an attribute holding initial.
func NewValue(initial any) *Value {
	return &Value{value: initial}
}

// Get returns the stored value, or the result of the installed getter.
func (v *Value) Get(ctx context.Context) (any, error) {
	v.mu.RLock()
	getter := v.getter
	value := v.value
	v.mu.RUnlock()

	if getter != nil {
		return getter(ctx)
	}
	return value, nil
}

// SetGetter installs a getter that replaces the stored value on Get.
// Pass nil to restore the stored value.
func (v *Value) SetGetter(fn GetterFunc) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.getter = fn
}

// Set stores value and notifies listeners if it changed.
func (v *Value) Set(value any) {
	v.mu.Lock()
	if valuesEqual(v.value, value) {
		v.mu.Unlock()
		return
	}
	v.value = value
	v.mu.Unlock()

	v.Notify(value)
}

// Notify tells listeners that the value changed without storing it.
// Used by providers that compute values in their getter.
func (v *Value) Notify(value any) {
	v.mu.RLock()
	listeners := make([]AttributeListener, len(v.listeners))
	copy(listeners, v.listeners)
	v.mu.RUnlock()

	for _, l := range listeners {
		l.AttributeValueChanged(value)
	}
}

// RegisterObserver adds a change listener.
func (v *Value) RegisterObserver(l AttributeListener) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, l)
}

// UnregisterObserver removes a change listener.
func (v *Value) UnregisterObserver(l AttributeListener) {
	v.mu.Lock()
	defer v.mu.Unlock()

	for i, existing := range v.listeners {
		if existing == l {
			v.listeners = append(v.listeners[:i], v.listeners[i+1:]...)
			return
		}
	}
}

// ObserverCount returns the number of registered listeners.
func (v *Value) ObserverCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.listeners)
}

// valuesEqual compares two attribute values.
func valuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch av := a.(type) {
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case int:
		bv, ok := b.(int)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}

	return reflect.DeepEqual(a, b)
}

var _ Attribute = (*Value)(nil)
