package publication

import (
	"fmt"

	"github.com/mash-protocol/mash-pubsub/pkg/log"
	"github.com/mash-protocol/mash-pubsub/pkg/provider"
)

// broadcastFired delivers a fired event to one subscription. It runs with
// m.mu held.
func (m *Manager) broadcastFired(s *subscriptionState, out provider.OutputParameters, partitions []string) {
	if !s.active() {
		return
	}
	if m.expireIfDue(s) {
		return
	}
	if !partitionsMatch(s.partitions, partitions) {
		return
	}
	if len(s.filterParameters) > 0 {
		ok, err := filtersAccept(s.event.Filters(), out, s.filterParameters)
		if err != nil {
			m.traceError(s, err, "broadcast filter")
			return
		}
		if !ok {
			return
		}
	}

	minInterval := s.qos.MinInterval
	if minInterval <= 0 {
		m.publish(s, log.TriggerBroadcast, out.Values(), nil)
		return
	}

	elapsed, ok := s.sinceLastPublish(m.clock.Now())
	if !ok || elapsed >= minInterval {
		if !s.debounce.pending() {
			m.publish(s, log.TriggerBroadcast, out.Values(), nil)
			return
		}
	}

	// Inside the window: keep the latest fire and publish it once the
	// window closes.
	latest := out
	s.pendingValue = &latest
	if !s.debounce.pending() {
		m.arm(s, &s.debounce, minInterval-elapsed, m.broadcastDebounceFired)
	}
}

// broadcastDebounceFired publishes the latest coalesced fire.
func (m *Manager) broadcastDebounceFired(s *subscriptionState) {
	if m.expireIfDue(s) {
		return
	}
	if s.pendingValue == nil {
		return
	}
	out := *s.pendingValue
	s.pendingValue = nil
	m.publish(s, log.TriggerBroadcast, out.Values(), nil)
}

// partitionsMatch reports whether a fire on fired reaches a subscription
// on subscribed. An empty subscription partition list matches everything.
func partitionsMatch(subscribed, fired []string) bool {
	if len(subscribed) == 0 {
		return true
	}
	if len(subscribed) != len(fired) {
		return false
	}
	for i := range subscribed {
		if subscribed[i] != fired[i] {
			return false
		}
	}
	return true
}

// filtersAccept evaluates every registered filter. A panicking filter
// counts as no match and is reported as an error.
func filtersAccept(filters []provider.Filter, out provider.OutputParameters, params provider.FilterParameters) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			err = fmt.Errorf("broadcast filter panicked: %v", r)
		}
	}()

	for _, f := range filters {
		if !f.Filter(out, params) {
			return false, nil
		}
	}
	return true, nil
}

// validPartition reports whether p is a non-empty alphanumeric segment.
func validPartition(p string) bool {
	if p == "" {
		return false
	}
	for _, r := range p {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
