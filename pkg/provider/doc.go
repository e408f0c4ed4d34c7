// Package provider defines the contract between the publication engine and
// the provider objects it publishes from.
//
// A Provider exposes named attributes and events. Attributes have a getter
// and accept change listeners; events accept broadcast listeners and carry
// the filters used to narrow selective broadcasts. The engine resolves a
// provider's members once, when the provider is added, and never inspects
// provider objects by reflection afterwards.
//
// Value, Broadcast and Static are ready-made in-memory implementations used
// by the demo binary and the tests. Real providers may implement the
// interfaces directly.
package provider
