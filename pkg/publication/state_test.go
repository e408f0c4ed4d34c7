package publication

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mash-protocol/mash-pubsub/pkg/provider"
)

func TestLifecycleString(t *testing.T) {
	tests := []struct {
		state lifecycle
		want  string
	}{
		{statePending, "PENDING"},
		{stateActive, "ACTIVE"},
		{stateTerminated, "TERMINATED"},
		{lifecycle(99), "UNKNOWN"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("lifecycle(%d).String() = %q, want %q", tt.state, got, tt.want)
		}
	}
}

func TestTerminationReasonForgets(t *testing.T) {
	tests := []struct {
		reason terminationReason
		want   bool
	}{
		{reasonStopped, true},
		{reasonExpired, true},
		{reasonProviderRemoved, false},
		{reasonReplaced, false},
		{reasonShutdown, false},
	}
	for _, tt := range tests {
		if got := tt.reason.forgets(); got != tt.want {
			t.Errorf("%s.forgets() = %v, want %v", tt.reason, got, tt.want)
		}
	}
}

func TestTimerSlotStopInvalidatesGeneration(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var slot timerSlot

	slot.timer = clock.AfterFunc(time.Second, func() {})
	gen := slot.gen
	if !slot.pending() {
		t.Fatal("pending() = false after arming")
	}

	slot.stop()
	if slot.pending() {
		t.Error("pending() = true after stop")
	}
	if slot.gen == gen {
		t.Error("stop() should bump the generation")
	}

	// Stopping an empty slot still invalidates callbacks.
	gen = slot.gen
	slot.stop()
	if slot.gen == gen {
		t.Error("stop() on empty slot should bump the generation")
	}
}

func TestSinceLastPublish(t *testing.T) {
	s := newTestState(1, "sub", "thermostat", "temperature", MemberAttribute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if _, ok := s.sinceLastPublish(now); ok {
		t.Error("sinceLastPublish() ok = true before any publication")
	}

	s.published = true
	s.lastPublish = now
	elapsed, ok := s.sinceLastPublish(now.Add(250 * time.Millisecond))
	if !ok || elapsed != 250*time.Millisecond {
		t.Errorf("sinceLastPublish() = %v, %v; want 250ms, true", elapsed, ok)
	}
}

func TestTerminatedStateCancelsContext(t *testing.T) {
	s := newTestState(1, "sub", "thermostat", "temperature", MemberAttribute)
	s.cancel()

	select {
	case <-s.ctx.Done():
	default:
		t.Error("ctx should be cancelled")
	}
}

func TestPartitionsMatch(t *testing.T) {
	tests := []struct {
		name       string
		subscribed []string
		fired      []string
		want       bool
	}{
		{"empty subscription matches anything", nil, []string{"a", "b"}, true},
		{"empty subscription matches unpartitioned", nil, nil, true},
		{"exact", []string{"a", "b"}, []string{"a", "b"}, true},
		{"different segment", []string{"a", "b"}, []string{"a", "c"}, false},
		{"prefix only", []string{"a"}, []string{"a", "b"}, false},
		{"longer subscription", []string{"a", "b"}, []string{"a"}, false},
		{"unpartitioned fire", []string{"a"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := partitionsMatch(tt.subscribed, tt.fired); got != tt.want {
				t.Errorf("partitionsMatch(%v, %v) = %v, want %v", tt.subscribed, tt.fired, got, tt.want)
			}
		})
	}
}

func TestValidPartition(t *testing.T) {
	valid := []string{"a", "Kitchen", "floor2", "0"}
	invalid := []string{"", "a/b", "a b", "*", "+", "küche"}

	for _, p := range valid {
		if !validPartition(p) {
			t.Errorf("validPartition(%q) = false, want true", p)
		}
	}
	for _, p := range invalid {
		if validPartition(p) {
			t.Errorf("validPartition(%q) = true, want false", p)
		}
	}
}

func TestFiltersAccept(t *testing.T) {
	out := provider.NewOutputParameters("level")
	_ = out.Set("level", 7)
	params := provider.FilterParameters{"minLevel": "5"}

	accept := provider.FilterFunc(func(provider.OutputParameters, provider.FilterParameters) bool { return true })
	reject := provider.FilterFunc(func(provider.OutputParameters, provider.FilterParameters) bool { return false })
	boom := provider.FilterFunc(func(provider.OutputParameters, provider.FilterParameters) bool { panic("boom") })

	if ok, err := filtersAccept(nil, out, params); !ok || err != nil {
		t.Errorf("no filters: got %v, %v; want true, nil", ok, err)
	}
	if ok, err := filtersAccept([]provider.Filter{accept, accept}, out, params); !ok || err != nil {
		t.Errorf("all accept: got %v, %v; want true, nil", ok, err)
	}
	if ok, err := filtersAccept([]provider.Filter{accept, reject}, out, params); ok || err != nil {
		t.Errorf("one rejects: got %v, %v; want false, nil", ok, err)
	}
	if ok, err := filtersAccept([]provider.Filter{boom}, out, params); ok || err == nil {
		t.Errorf("panic: got %v, %v; want false, error", ok, err)
	}
}

func TestUndeclaredFilterParameters(t *testing.T) {
	ev := provider.NewBroadcast([]string{"level"}, "minLevel", "room")

	if got := undeclaredFilterParameters(ev, nil); got != nil {
		t.Errorf("nil params: got %v, want nil", got)
	}
	got := undeclaredFilterParameters(ev, provider.FilterParameters{"minLevel": "1", "zeta": "x", "alpha": "y"})
	if !equalStrings(got, []string{"alpha", "zeta"}) {
		t.Errorf("undeclared = %v, want [alpha zeta]", got)
	}
}
