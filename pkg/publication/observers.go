package publication

import (
	"sort"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
)

// providerRegistration holds the members of one added provider and the
// observers attached to them. Observers are attached once per provider add,
// independent of how many subscriptions reference a member.
type providerRegistration struct {
	id         string
	attributes map[string]provider.Attribute
	events     map[string]provider.Event

	attributeObservers map[string]*attributeObserver
	eventObservers     map[string]*eventObserver
}

func newProviderRegistration(m *Manager, providerID string, p provider.Provider) *providerRegistration {
	reg := &providerRegistration{
		id:                 providerID,
		attributes:         make(map[string]provider.Attribute),
		events:             make(map[string]provider.Event),
		attributeObservers: make(map[string]*attributeObserver),
		eventObservers:     make(map[string]*eventObserver),
	}

	for _, name := range p.AttributeNames() {
		if attr, ok := p.Attribute(name); ok && attr != nil {
			reg.attributes[name] = attr
			reg.attributeObservers[name] = &attributeObserver{
				m:   m,
				key: memberKey{providerID: providerID, member: name, kind: MemberAttribute},
			}
		}
	}
	for _, name := range p.EventNames() {
		if ev, ok := p.Event(name); ok && ev != nil {
			reg.events[name] = ev
			reg.eventObservers[name] = &eventObserver{
				m:   m,
				key: memberKey{providerID: providerID, member: name, kind: MemberEvent},
			}
		}
	}
	return reg
}

// register attaches every observer.
func (r *providerRegistration) register() {
	for name, obs := range r.attributeObservers {
		r.attributes[name].RegisterObserver(obs)
	}
	for name, obs := range r.eventObservers {
		r.events[name].RegisterObserver(obs)
	}
}

// unregister detaches every observer.
func (r *providerRegistration) unregister() {
	for name, obs := range r.attributeObservers {
		r.attributes[name].UnregisterObserver(obs)
	}
	for name, obs := range r.eventObservers {
		r.events[name].UnregisterObserver(obs)
	}
}

// attributeObserver fans a change notification out to the subscriptions
// of one attribute.
type attributeObserver struct {
	m   *Manager
	key memberKey
}

// AttributeValueChanged implements provider.AttributeListener. The value
// itself is not used: the getter is authoritative.
func (o *attributeObserver) AttributeValueChanged(any) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()

	for _, s := range o.m.registry.forMember(o.key) {
		o.m.attributeChanged(s)
	}
}

// eventObserver fans a fired event out to the subscriptions of one event.
type eventObserver struct {
	m   *Manager
	key memberKey
}

// BroadcastFired implements provider.BroadcastListener.
func (o *eventObserver) BroadcastFired(out provider.OutputParameters, partitions []string) {
	o.m.mu.Lock()
	defer o.m.mu.Unlock()

	for _, s := range o.m.registry.forMember(o.key) {
		o.m.broadcastFired(s, out, partitions)
	}
}

func sortStrings(s []string) {
	sort.Strings(s)
}

var (
	_ provider.AttributeListener = (*attributeObserver)(nil)
	_ provider.BroadcastListener = (*eventObserver)(nil)
)
