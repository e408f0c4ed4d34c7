package publication

import (
	"sort"
)

// memberKey identifies a provider attribute or event.
type memberKey struct {
	providerID string
	member     string
	kind       MemberKind
}

// registry indexes subscriptions by ID and by provider member.
// It is not safe for concurrent use; the Manager lock guards it.
type registry struct {
	byID     map[string]*subscriptionState
	byMember map[memberKey]map[string]*subscriptionState
}

func newRegistry() *registry {
	return &registry{
		byID:     make(map[string]*subscriptionState),
		byMember: make(map[memberKey]map[string]*subscriptionState),
	}
}

// add indexes s, replacing any entry with the same ID.
func (r *registry) add(s *subscriptionState) {
	r.remove(s.id)

	r.byID[s.id] = s
	key := s.key()
	subs := r.byMember[key]
	if subs == nil {
		subs = make(map[string]*subscriptionState)
		r.byMember[key] = subs
	}
	subs[s.id] = s
}

// get returns the subscription with the given ID, or nil.
func (r *registry) get(id string) *subscriptionState {
	return r.byID[id]
}

// remove drops the subscription with the given ID and returns it.
func (r *registry) remove(id string) *subscriptionState {
	s, ok := r.byID[id]
	if !ok {
		return nil
	}
	delete(r.byID, id)

	key := s.key()
	if subs := r.byMember[key]; subs != nil {
		delete(subs, id)
		if len(subs) == 0 {
			delete(r.byMember, key)
		}
	}
	return s
}

// forMember returns the subscriptions of one member in admission order.
func (r *registry) forMember(key memberKey) []*subscriptionState {
	subs := r.byMember[key]
	out := make([]*subscriptionState, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	sortByAdmission(out)
	return out
}

// forProvider returns every subscription of a provider in admission order.
func (r *registry) forProvider(providerID string) []*subscriptionState {
	var out []*subscriptionState
	for _, s := range r.byID {
		if s.providerID == providerID {
			out = append(out, s)
		}
	}
	sortByAdmission(out)
	return out
}

// all returns every subscription in admission order.
func (r *registry) all() []*subscriptionState {
	out := make([]*subscriptionState, 0, len(r.byID))
	for _, s := range r.byID {
		out = append(out, s)
	}
	sortByAdmission(out)
	return out
}

// hasMember reports whether any subscription references the member.
func (r *registry) hasMember(key memberKey) bool {
	return len(r.byMember[key]) > 0
}

// len returns the number of subscriptions.
func (r *registry) len() int {
	return len(r.byID)
}

func sortByAdmission(subs []*subscriptionState) {
	sort.Slice(subs, func(i, j int) bool {
		return subs[i].seq < subs[j].seq
	})
}
