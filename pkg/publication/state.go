package publication

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
	"github.com/mash-protocol/mash-pubsub/pkg/provider"
	"github.com/mash-protocol/mash-pubsub/pkg/qos"
)

// lifecycle is the scheduler state of one subscription.
type lifecycle uint8

const (
	statePending lifecycle = iota
	stateActive
	stateTerminated
)

// String returns the state name.
func (l lifecycle) String() string {
	switch l {
	case statePending:
		return "PENDING"
	case stateActive:
		return "ACTIVE"
	case stateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// terminationReason explains why a subscription left the Active state.
type terminationReason string

const (
	reasonStopped         terminationReason = "stopped"
	reasonExpired         terminationReason = "expired"
	reasonProviderRemoved terminationReason = "provider removed"
	reasonReplaced        terminationReason = "replaced"
	reasonShutdown        terminationReason = "shutdown"
)

// forgets reports whether the persisted request is deleted as well.
func (r terminationReason) forgets() bool {
	return r == reasonStopped || r == reasonExpired
}

// timerSlot is one armed timer of a subscription. Stopping the slot bumps
// its generation, so a callback that already fired but has not yet
// acquired the scheduling lock becomes a no-op.
type timerSlot struct {
	timer clockwork.Timer
	gen   uint64
}

// pending reports whether the slot holds an armed timer.
func (t *timerSlot) pending() bool {
	return t.timer != nil
}

// stop cancels the timer and invalidates callbacks in flight.
func (t *timerSlot) stop() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.gen++
}

// subscriptionState is the record of one subscription. It is only touched
// with the Manager lock held.
type subscriptionState struct {
	seq        uint64
	id         string
	proxyID    string
	providerID string
	member     string
	kind       MemberKind
	qos        qos.Qos

	// Exactly one of these is set, matching kind.
	attribute provider.Attribute
	event     provider.Event

	filterParameters provider.FilterParameters
	partitions       []string

	lifecycle   lifecycle
	lastPublish time.Time
	published   bool

	debounce  timerSlot
	heartbeat timerSlot
	expiry    timerSlot

	// getterInFlight guards against a second concurrent getter call.
	getterInFlight bool

	// retrigger records a change that arrived while the getter was in flight.
	retrigger bool

	// pendingValue holds the latest fired broadcast while debouncing.
	pendingValue *provider.OutputParameters

	// ctx is cancelled on termination to abort a blocking getter.
	ctx    context.Context
	cancel context.CancelFunc
}

func newSubscriptionState(seq uint64, id, proxyID, providerID, member string, kind MemberKind, q qos.Qos) *subscriptionState {
	ctx, cancel := context.WithCancel(context.Background())
	return &subscriptionState{
		seq:        seq,
		id:         id,
		proxyID:    proxyID,
		providerID: providerID,
		member:     member,
		kind:       kind,
		qos:        q,
		lifecycle:  statePending,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// key returns the registry member key.
func (s *subscriptionState) key() memberKey {
	return memberKey{providerID: s.providerID, member: s.member, kind: s.kind}
}

// active reports whether the subscription may still publish.
func (s *subscriptionState) active() bool {
	return s.lifecycle == stateActive
}

// sinceLastPublish returns the time since the last publication, or ok=false
// if nothing was published yet.
func (s *subscriptionState) sinceLastPublish(now time.Time) (time.Duration, bool) {
	if !s.published {
		return 0, false
	}
	return now.Sub(s.lastPublish), true
}

// stopTimers cancels every armed timer.
func (s *subscriptionState) stopTimers() {
	s.debounce.stop()
	s.heartbeat.stop()
	s.expiry.stop()
}

// traceEvent returns a trace event prefilled with the subscription identity.
func (s *subscriptionState) traceEvent(now time.Time, category log.Category) log.Event {
	return log.Event{
		Timestamp:      now,
		SubscriptionID: s.id,
		ProviderID:     s.providerID,
		ProxyID:        s.proxyID,
		Member:         s.member,
		Category:       category,
	}
}
