// Package qos defines the quality-of-service contracts that govern when a
// provider publishes values to a subscriber.
//
// # Kinds
//
// Four kinds are supported:
//   - Periodic: a pure heartbeat, one publication every period.
//   - OnChange: publications driven by value changes, at least minInterval apart.
//   - Mixed: OnChange plus a heartbeat ceiling at maxInterval.
//   - Multicast: broadcast-only, optionally throttled with minInterval.
//
// # Floors
//
// Limits carries the system-defined floors. Requests that fall below a floor
// are rejected before any subscription state is created.
//
// # Expiry
//
// A zero ExpiryDate means the subscription never expires.
package qos
