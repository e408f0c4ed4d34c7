// Package publication implements the provider-side publication engine.
//
// A Manager accepts subscription requests for provider attributes and
// events, and decides exactly when to call an attribute getter (or accept a
// fired event) and hand a publication to the Dispatcher.
//
// # Scheduling
//
// All scheduling logic runs under one lock per Manager, so timers, getter
// completions and change notifications are processed one at a time and each
// runs to completion. Getters are invoked outside the lock; at most one
// getter call is in flight per subscription.
//
// # Subscription Lifecycle
//
// A request is validated (Pending), then admitted (Active). An attribute
// subscription immediately publishes once. Afterwards:
//   - Periodic subscriptions publish every period.
//   - OnChange subscriptions publish on change notifications, at least
//     minInterval apart. Notifications inside the window coalesce into a
//     single publication that re-reads the getter when the window closes.
//   - Mixed subscriptions combine OnChange with a heartbeat at maxInterval,
//     measured from the last publication.
//
// Stop, expiry and provider removal move a subscription to Terminated.
// Every timer is cancelled and any getter result still in flight is
// discarded.
//
// # Broadcasts
//
// Event subscriptions never call a getter. A fired event is delivered when
// the partitions match and every registered filter accepts the
// subscriber's filter parameters, optionally throttled by minInterval.
//
// # Getter Failures
//
// A getter error (or panic) is published to the consumer in place of a
// value and counts as a publication for rate limiting.
package publication
