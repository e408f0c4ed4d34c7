package publication

import (
	"testing"

	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

func newTestState(seq uint64, id, providerID, member string, kind MemberKind) *subscriptionState {
	return newSubscriptionState(seq, id, "proxy", providerID, member, kind, qos.OnChange(0))
}

func TestRegistryAddGetRemove(t *testing.T) {
	r := newRegistry()
	s := newTestState(1, "sub-1", "thermostat", "temperature", MemberAttribute)

	r.add(s)

	if got := r.get("sub-1"); got != s {
		t.Fatalf("get(sub-1) = %v, want %v", got, s)
	}
	if r.len() != 1 {
		t.Errorf("len() = %d, want 1", r.len())
	}
	if !r.hasMember(s.key()) {
		t.Error("hasMember() = false, want true")
	}

	if removed := r.remove("sub-1"); removed != s {
		t.Errorf("remove() = %v, want %v", removed, s)
	}
	if r.get("sub-1") != nil {
		t.Error("get() after remove should return nil")
	}
	if r.hasMember(s.key()) {
		t.Error("hasMember() after remove = true, want false")
	}
	if len(r.byMember) != 0 {
		t.Errorf("byMember has %d entries after remove, want 0", len(r.byMember))
	}
}

func TestRegistryRemoveUnknown(t *testing.T) {
	r := newRegistry()
	if r.remove("missing") != nil {
		t.Error("remove(missing) should return nil")
	}
}

func TestRegistryReplaceSameID(t *testing.T) {
	r := newRegistry()
	first := newTestState(1, "sub-1", "thermostat", "temperature", MemberAttribute)
	second := newTestState(2, "sub-1", "thermostat", "humidity", MemberAttribute)

	r.add(first)
	r.add(second)

	if r.len() != 1 {
		t.Fatalf("len() = %d, want 1", r.len())
	}
	if r.hasMember(first.key()) {
		t.Error("old member index should be dropped on replace")
	}
	if !r.hasMember(second.key()) {
		t.Error("new member index missing")
	}
}

func TestRegistryAdmissionOrder(t *testing.T) {
	r := newRegistry()
	for i, id := range []string{"c", "a", "b"} {
		r.add(newTestState(uint64(i+1), id, "thermostat", "temperature", MemberAttribute))
	}
	r.add(newTestState(4, "d", "meter", "power", MemberAttribute))

	key := memberKey{providerID: "thermostat", member: "temperature", kind: MemberAttribute}
	got := ids(r.forMember(key))
	want := []string{"c", "a", "b"}
	if !equalStrings(got, want) {
		t.Errorf("forMember() = %v, want %v", got, want)
	}

	if got := ids(r.forProvider("meter")); !equalStrings(got, []string{"d"}) {
		t.Errorf("forProvider(meter) = %v, want [d]", got)
	}
	if got := ids(r.all()); !equalStrings(got, []string{"c", "a", "b", "d"}) {
		t.Errorf("all() = %v, want [c a b d]", got)
	}
}

func TestRegistryMemberKindsAreDistinct(t *testing.T) {
	r := newRegistry()
	r.add(newTestState(1, "attr", "thermostat", "alarm", MemberAttribute))

	if r.hasMember(memberKey{providerID: "thermostat", member: "alarm", kind: MemberEvent}) {
		t.Error("event key should not match an attribute subscription")
	}
}

func ids(subs []*subscriptionState) []string {
	out := make([]string, len(subs))
	for i, s := range subs {
		out[i] = s.id
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
